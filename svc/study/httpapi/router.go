package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
	"github.com/lucasviinic/flashly-api/pkg/ratelimiter"
	"github.com/lucasviinic/flashly-api/svc/study"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("httpapi: malformed request body")

// Service is the use case surface served over HTTP.
type Service interface {
	CreateSubject(ctx context.Context, userID uuid.UUID, in study.SubjectInput) (*study.Subject, error)
	CreateFlashcard(ctx context.Context, userID uuid.UUID, in study.FlashcardInput) (*study.Flashcard, error)
	GenerateFlashcards(ctx context.Context, userID uuid.UUID, in study.GenerateInput) (*study.Generation, error)
	VerifyPurchase(ctx context.Context, userID uuid.UUID, packageName, purchaseToken string) (*study.PurchaseResult, error)
	Account(ctx context.Context, userID uuid.UUID) (*study.Account, error)
	ActiveSubscriptions(ctx context.Context, userID uuid.UUID) ([]entitlement.Record, error)
	PremiumStatus(ctx context.Context, userID uuid.UUID) (*study.PremiumStatus, error)
	DeactivateSubscription(ctx context.Context, userID, subscriptionID uuid.UUID) error
}

// Option configures the router.
type Option func(*handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *handler) {
		if l != nil {
			h.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *handler) { h.metrics = m }
}

// WithVerifyLimiter throttles purchase verification per user.
func WithVerifyLimiter(l *ratelimiter.Limiter) Option {
	return func(h *handler) { h.verifyLimiter = l }
}

// WithUserIDFunc replaces HeaderUserID.
func WithUserIDFunc(fn UserIDFunc) Option {
	return func(h *handler) {
		if fn != nil {
			h.userID = fn
		}
	}
}

type handler struct {
	svc     Service
	userID  UserIDFunc
	log     *slog.Logger
	metrics *metrics.Metrics

	verifyLimiter *ratelimiter.Limiter
}

// NewRouter returns the API routes.
func NewRouter(svc Service, opts ...Option) chi.Router {
	h := &handler{svc: svc, userID: HeaderUserID, log: logger.Discard()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument(h.log, h.metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Envelope{Error: &ErrorDetail{Code: CodeNotFound, Message: "Route not found"}})
	})

	r.Get("/me", h.authed(h.account))
	r.Post("/subjects", h.authed(h.createSubject))
	r.Post("/flashcards", h.authed(h.createFlashcard))
	r.Post("/flashcards/generate", h.authed(h.generateFlashcards))
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.authed(h.activeSubscriptions))
		r.With(h.limitVerify).Get("/verify", h.authed(h.verifyPurchase))
		r.Get("/status", h.authed(h.premiumStatus))
		r.Delete("/{id}", h.authed(h.deactivateSubscription))
	})
	return r
}

func (h *handler) limitVerify(next http.Handler) http.Handler {
	if h.verifyLimiter == nil {
		return next
	}
	key := func(r *http.Request) string {
		id, err := h.userID(r)
		if err != nil {
			return ""
		}
		return "verify:" + id.String()
	}
	return ratelimiter.Middleware(h.verifyLimiter, key, func(w http.ResponseWriter, r *http.Request) {
		h.log.WarnContext(r.Context(), "purchase verification rate limited")
		writeJSON(w, http.StatusTooManyRequests, Envelope{Error: &ErrorDetail{
			Code:    CodeRateLimited,
			Message: "Too many verification attempts, try again later",
		}})
	})(next)
}

type authedFunc func(w http.ResponseWriter, r *http.Request, userID uuid.UUID)

func (h *handler) authed(fn authedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.userID(r)
		if err != nil {
			h.fail(w, r, errors.Join(ErrUnauthenticated, err))
			return
		}
		fn(w, r, userID)
	}
}

func (h *handler) account(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	acc, err := h.svc.Account(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, acc)
}

func (h *handler) createSubject(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var in study.SubjectInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	subject, err := h.svc.CreateSubject(r.Context(), userID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, subject)
}

func (h *handler) createFlashcard(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var in study.FlashcardInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	card, err := h.svc.CreateFlashcard(r.Context(), userID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, card)
}

func (h *handler) generateFlashcards(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var in study.GenerateInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	gen, err := h.svc.GenerateFlashcards(r.Context(), userID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, gen)
}

func (h *handler) verifyPurchase(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	q := r.URL.Query()
	res, err := h.svc.VerifyPurchase(r.Context(), userID, q.Get("package_name"), q.Get("purchase_token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *handler) activeSubscriptions(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	recs, err := h.svc.ActiveSubscriptions(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, recs)
}

func (h *handler) premiumStatus(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	status, err := h.svc.PremiumStatus(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, status)
}

func (h *handler) deactivateSubscription(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, errors.Join(study.ErrInvalidInput, errors.New("invalid subscription id")))
		return
	}
	if err := h.svc.DeactivateSubscription(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errMalformedBody, err)
	}
	return nil
}
