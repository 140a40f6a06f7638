package study

import "context"

// GeneratedCard is one question/answer pair produced by a Generator.
type GeneratedCard struct {
	Question string
	Answer   string
}

// Generator produces flashcards about a topic. It must not return more than
// quantity cards; extra cards are dropped.
type Generator interface {
	Generate(ctx context.Context, topic string, quantity int) ([]GeneratedCard, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, topic string, quantity int) ([]GeneratedCard, error)

func (f GeneratorFunc) Generate(ctx context.Context, topic string, quantity int) ([]GeneratedCard, error) {
	return f(ctx, topic, quantity)
}
