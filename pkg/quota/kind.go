package quota

import "fmt"

// Kind is a quota-bearing resource.
type Kind string

const (
	KindFlashcards   Kind = "flashcards"
	KindAIFlashcards Kind = "ai_flashcards"
	KindSubjects     Kind = "subjects"
)

// Kinds lists every resource kind in report order.
var Kinds = []Kind{KindFlashcards, KindAIFlashcards, KindSubjects}

func (k Kind) Valid() bool {
	switch k {
	case KindFlashcards, KindAIFlashcards, KindSubjects:
		return true
	default:
		return false
	}
}

// exceededDetail is the user facing message for an exhausted ceiling.
func (k Kind) exceededDetail() string {
	switch k {
	case KindAIFlashcards:
		return "AI generated flashcards limit reached"
	case KindSubjects:
		return "Subjects limit reached"
	default:
		return "Flashcard limit reached"
	}
}

// Mode selects how a shortfall is handled.
type Mode int

const (
	// ModeSingle fails on any shortfall.
	ModeSingle Mode = iota
	// ModeBulk grants whatever remains when some allowance is left.
	ModeBulk
)

func (m Mode) String() string {
	if m == ModeBulk {
		return "bulk"
	}
	return "single"
}

// Unlimited marks a ceiling without a limit.
const Unlimited int64 = -1

// Usage is the consumption of one resource in the current window.
type Usage struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// Remaining returns the allowance left, or -1 when unlimited.
func (u Usage) Remaining() int64 {
	if u.Limit == Unlimited {
		return Unlimited
	}
	return max(u.Limit-u.Used, 0)
}

func (u Usage) String() string {
	if u.Limit == Unlimited {
		return fmt.Sprintf("%d/unlimited", u.Used)
	}
	return fmt.Sprintf("%d/%d", u.Used, u.Limit)
}
