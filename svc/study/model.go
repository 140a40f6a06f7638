package study

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Origin tells user authored flashcards from generated ones.
type Origin string

const (
	OriginUser Origin = "user"
	OriginAI   Origin = "ai"
)

const (
	maxNameLength     = 255
	maxCardTextLength = 4000

	// MinGenerate and MaxGenerate bound one generation request.
	MinGenerate = 1
	MaxGenerate = 30
)

type Subject struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

type SubjectInput struct {
	Name string `json:"name"`
}

func (in SubjectInput) normalize() (SubjectInput, bool) {
	in.Name = strings.TrimSpace(in.Name)
	return in, in.Name != "" && utf8.RuneCountInString(in.Name) <= maxNameLength
}

type FlashcardInput struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
}

func (in FlashcardInput) normalize() (FlashcardInput, bool) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	return in, in.SubjectID != uuid.Nil && validCardText(in.Question) && validCardText(in.Answer)
}

type GenerateInput struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Topic     string    `json:"topic"`
	Quantity  int       `json:"quantity"`
}

// normalize trims the topic and clamps the quantity into [MinGenerate, MaxGenerate].
func (in GenerateInput) normalize() (GenerateInput, bool) {
	in.Topic = strings.TrimSpace(in.Topic)
	in.Quantity = min(max(in.Quantity, MinGenerate), MaxGenerate)
	return in, in.SubjectID != uuid.Nil && in.Topic != "" && utf8.RuneCountInString(in.Topic) <= maxNameLength
}

// Generation is the result of GenerateFlashcards. Granted is lower than
// Requested when the daily allowance only covered part of the request.
type Generation struct {
	Requested  int         `json:"requested"`
	Granted    int         `json:"granted"`
	Flashcards []Flashcard `json:"flashcards"`
}

func validCardText(s string) bool {
	return s != "" && utf8.RuneCountInString(s) <= maxCardTextLength
}
