package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

// TierResolver is the part of tier.Resolver the service needs.
type TierResolver interface {
	ResolveDetailed(ctx context.Context, userID uuid.UUID) (*tier.Resolution, error)
	ResolveFresh(ctx context.Context, userID uuid.UUID, fresh *playbilling.Snapshot) (*tier.Resolution, error)
	Apply(ctx context.Context, userID uuid.UUID, t tier.Tier) error
	Reload(ctx context.Context, userID uuid.UUID) (tier.Tier, error)
	Cached(ctx context.Context, userID uuid.UUID) (tier.Tier, error)
}

// QuotaGuard is the part of quota.Guard the service needs.
type QuotaGuard interface {
	Check(ctx context.Context, userID uuid.UUID, t tier.Tier, kind quota.Kind, requested int64, mode quota.Mode) (int64, error)
	Usage(ctx context.Context, userID uuid.UUID, t tier.Tier) (map[quota.Kind]quota.Usage, error)
}

// Deps are the collaborators of a Service. All fields are required.
type Deps struct {
	Resolver      TierResolver
	Guard         QuotaGuard
	Verifier      tier.Verifier
	Subscriptions entitlement.Store
	Repository    Repository
	Tx            TxRunner
}

type Service struct {
	resolver  TierResolver
	guard     QuotaGuard
	verifier  tier.Verifier
	subs      entitlement.Store
	repo      Repository
	tx        TxRunner
	generator Generator
	now       func() time.Time
	log       *slog.Logger
}

func NewService(d Deps, opts ...Option) (*Service, error) {
	if d.Resolver == nil || d.Guard == nil || d.Verifier == nil ||
		d.Subscriptions == nil || d.Repository == nil || d.Tx == nil {
		return nil, ErrMissingDependency
	}
	s := &Service{
		resolver: d.Resolver,
		guard:    d.Guard,
		verifier: d.Verifier,
		subs:     d.Subscriptions,
		repo:     d.Repository,
		tx:       d.Tx,
		now:      time.Now,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateSubject creates a subject when the daily subject allowance permits.
func (s *Service) CreateSubject(ctx context.Context, userID uuid.UUID, in SubjectInput) (*Subject, error) {
	in, ok := in.normalize()
	if !ok {
		return nil, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}

	var out *Subject
	err := s.gated(ctx, userID, func(ctx context.Context, t tier.Tier) error {
		if _, err := s.guard.Check(ctx, userID, t, quota.KindSubjects, 1, quota.ModeSingle); err != nil {
			return err
		}
		subject := Subject{ID: uuid.New(), UserID: userID, Name: in.Name, CreatedAt: s.now().UTC()}
		if err := s.repo.InsertSubject(ctx, subject); err != nil {
			return fmt.Errorf("insert subject: %w", err)
		}
		out = &subject
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateFlashcard creates one user authored flashcard in a subject the user owns.
func (s *Service) CreateFlashcard(ctx context.Context, userID uuid.UUID, in FlashcardInput) (*Flashcard, error) {
	in, ok := in.normalize()
	if !ok {
		return nil, errors.Join(ErrInvalidInput, errors.New("subject_id, question and answer are required"))
	}

	var out *Flashcard
	err := s.gated(ctx, userID, func(ctx context.Context, t tier.Tier) error {
		if err := s.requireSubject(ctx, userID, in.SubjectID); err != nil {
			return err
		}
		if _, err := s.guard.Check(ctx, userID, t, quota.KindFlashcards, 1, quota.ModeSingle); err != nil {
			return err
		}
		card := Flashcard{
			ID:        uuid.New(),
			UserID:    userID,
			SubjectID: in.SubjectID,
			Question:  in.Question,
			Answer:    in.Answer,
			Origin:    OriginUser,
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.InsertFlashcards(ctx, []Flashcard{card}); err != nil {
			return fmt.Errorf("insert flashcard: %w", err)
		}
		out = &card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateFlashcards asks the generator for up to in.Quantity cards. When
// the AI allowance covers only part of the request the remainder is
// generated and Granted reports how many.
func (s *Service) GenerateFlashcards(ctx context.Context, userID uuid.UUID, in GenerateInput) (*Generation, error) {
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	in, ok := in.normalize()
	if !ok {
		return nil, errors.Join(ErrInvalidInput, errors.New("subject_id and topic are required"))
	}

	var out *Generation
	err := s.gated(ctx, userID, func(ctx context.Context, t tier.Tier) error {
		if err := s.requireSubject(ctx, userID, in.SubjectID); err != nil {
			return err
		}
		granted, err := s.guard.Check(ctx, userID, t, quota.KindAIFlashcards, int64(in.Quantity), quota.ModeBulk)
		if err != nil {
			return err
		}

		generated, err := s.generator.Generate(ctx, in.Topic, int(granted))
		if err != nil {
			return errors.Join(ErrGenerationFailed, err)
		}
		if len(generated) > int(granted) {
			generated = generated[:granted]
		}

		createdAt := s.now().UTC()
		cards := make([]Flashcard, 0, len(generated))
		for _, g := range generated {
			cards = append(cards, Flashcard{
				ID:        uuid.New(),
				UserID:    userID,
				SubjectID: in.SubjectID,
				Question:  g.Question,
				Answer:    g.Answer,
				Origin:    OriginAI,
				CreatedAt: createdAt,
			})
		}
		if err := s.repo.InsertFlashcards(ctx, cards); err != nil {
			return fmt.Errorf("insert generated flashcards: %w", err)
		}

		if int(granted) < in.Quantity {
			s.log.InfoContext(ctx, "flashcard generation partially granted",
				logger.UserID(userID),
				slog.Int("requested", in.Quantity),
				slog.Int64("granted", granted),
			)
		}
		out = &Generation{Requested: in.Quantity, Granted: len(cards), Flashcards: cards}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// gated runs fn inside a transaction after resolving the user's tier. When
// fn fails the previously persisted tier is restored. When the transaction
// fails as a whole the display cache is reloaded from the user record.
func (s *Service) gated(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, t tier.Tier) error) error {
	var res *tier.Resolution
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.resolver.ResolveDetailed(ctx, userID)
		if err != nil {
			return userError(err)
		}

		if err := fn(ctx, res.Tier); err != nil {
			if res.Tier != res.Previous {
				if rerr := s.resolver.Apply(ctx, userID, res.Previous); rerr != nil {
					s.log.ErrorContext(ctx, "failed to restore previous tier",
						logger.UserID(userID),
						logger.Tier(int(res.Previous)),
						logger.Error(rerr),
					)
					return errors.Join(err, ErrFailedToRestoreTier, rerr)
				}
			}
			return err
		}
		return nil
	})
	if err != nil && res != nil && res.Tier != res.Previous {
		if _, rerr := s.resolver.Reload(ctx, userID); rerr != nil {
			s.log.WarnContext(ctx, "failed to reload tier after rollback", logger.UserID(userID), logger.Error(rerr))
		}
	}
	return err
}

func (s *Service) requireSubject(ctx context.Context, userID, subjectID uuid.UUID) error {
	ok, err := s.repo.SubjectOwned(ctx, userID, subjectID)
	if err != nil {
		return fmt.Errorf("lookup subject: %w", err)
	}
	if !ok {
		return ErrSubjectNotFound
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, tier.ErrUserNotFound) {
		return errors.Join(ErrUserNotFound, err)
	}
	return err
}
