package quota

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/lucasviinic/flashly-api/pkg/tier"
)

// Limits maps each resource kind to its daily ceiling.
type Limits map[Kind]int64

// DefaultLimits returns the built-in ceilings.
func DefaultLimits() map[tier.Tier]Limits {
	return map[tier.Tier]Limits{
		tier.Free: {
			KindFlashcards:   50,
			KindAIFlashcards: 5,
			KindSubjects:     5,
		},
		tier.Premium: {
			KindFlashcards:   1000,
			KindAIFlashcards: 100,
			KindSubjects:     1000,
		},
	}
}

// Source loads the per-tier ceilings.
type Source interface {
	Load(ctx context.Context) (map[tier.Tier]Limits, error)
}

// Policy is the validated, immutable ceiling table.
type Policy struct {
	tiers map[tier.Tier]Limits
}

// NewPolicy loads and validates the ceilings from src.
func NewPolicy(ctx context.Context, src Source) (*Policy, error) {
	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPolicy, err)
	}
	if err := validate(loaded); err != nil {
		return nil, err
	}

	tiers := make(map[tier.Tier]Limits, len(loaded))
	for t, l := range loaded {
		tiers[t] = maps.Clone(l)
	}
	return &Policy{tiers: tiers}, nil
}

// Limit returns the ceiling of kind for t.
func (p *Policy) Limit(t tier.Tier, kind Kind) (int64, error) {
	limits, ok := p.tiers[t]
	if !ok {
		return 0, ErrUnknownTier
	}
	limit, ok := limits[kind]
	if !ok {
		return 0, ErrUnknownKind
	}
	return limit, nil
}

// Limits returns a copy of the ceilings for t.
func (p *Policy) Limits(t tier.Tier) (Limits, error) {
	limits, ok := p.tiers[t]
	if !ok {
		return nil, ErrUnknownTier
	}
	return maps.Clone(limits), nil
}

func validate(tiers map[tier.Tier]Limits) error {
	for _, t := range []tier.Tier{tier.Free, tier.Premium} {
		limits, ok := tiers[t]
		if !ok {
			return errors.Join(ErrInvalidPolicy, fmt.Errorf("tier %s has no limits", t))
		}
		for _, kind := range Kinds {
			limit, ok := limits[kind]
			if !ok {
				return errors.Join(ErrInvalidPolicy, fmt.Errorf("tier %s: missing %s limit", t, kind))
			}
			if limit < Unlimited {
				return errors.Join(ErrInvalidPolicy, fmt.Errorf("tier %s: %s limit must be >= -1", t, kind))
			}
		}
		ai, general := limits[KindAIFlashcards], limits[KindFlashcards]
		if general != Unlimited && (ai == Unlimited || ai > general) {
			return errors.Join(ErrInvalidPolicy, fmt.Errorf("tier %s: ai_flashcards limit exceeds flashcards limit", t))
		}
	}
	for t, limits := range tiers {
		if !t.Valid() {
			return errors.Join(ErrInvalidPolicy, fmt.Errorf("unknown tier %d", t))
		}
		for kind := range limits {
			if !kind.Valid() {
				return errors.Join(ErrInvalidPolicy, fmt.Errorf("tier %s: unknown resource %q", t, kind))
			}
		}
	}
	return nil
}
