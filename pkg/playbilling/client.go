package playbilling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
)

const maxResponseBytes = 1 << 20

// Client verifies subscriptions against Google Play. Safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics

	unknownState     State
	circuitThreshold int
	circuitRecovery  time.Duration

	breaker *breaker
	group   singleflight.Group
}

// New creates a Client that sends requests through httpClient, which must
// already attach OAuth credentials.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		panic("playbilling: http client is required")
	}

	c := &Client{
		http:         httpClient,
		baseURL:      DefaultBaseURL,
		timeout:      10 * time.Second,
		now:          time.Now,
		log:          logger.Discard(),
		unknownState: StateActive,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(c.circuitThreshold, c.circuitRecovery, c.now)

	return c
}

// NewFromConfig builds a Client authenticated with a service account key
// taken from cfg.CredentialsJSON or, when empty, cfg.CredentialsFile.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	key := []byte(cfg.CredentialsJSON)
	if len(key) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, ErrMissingCredentials
		}
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, errors.Join(ErrMissingCredentials, err)
		}
		key = data
	}

	jwt, err := google.JWTConfigFromJSON(key, Scope)
	if err != nil {
		return nil, errors.Join(ErrInvalidCredentials, err)
	}

	fallback, err := ParseStateDefault(cfg.UnknownStateDefault)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithUnknownStateDefault(fallback),
		WithCircuitBreaker(cfg.CircuitThreshold, cfg.CircuitRecovery),
	}
	return New(jwt.Client(ctx), append(base, opts...)...), nil
}

// ValidateInput checks the arguments of Verify without touching the network.
func ValidateInput(packageName, purchaseToken string) error {
	var errs []error
	if strings.TrimSpace(packageName) == "" {
		errs = append(errs, errors.New("package name is required"))
	}
	if strings.TrimSpace(purchaseToken) == "" {
		errs = append(errs, errors.New("purchase token is required"))
	} else if len(purchaseToken) < MinTokenLength {
		errs = append(errs, errors.New("purchase token appears to be invalid"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInput}, errs...)...)
	}
	return nil
}

// Verify fetches the current state of purchaseToken. Concurrent calls for the
// same package and token share one provider request.
func (c *Client) Verify(ctx context.Context, packageName, purchaseToken string) (*Snapshot, error) {
	if err := ValidateInput(packageName, purchaseToken); err != nil {
		c.metrics.ObserveVerification(metrics.OutcomeInvalid, 0)
		return nil, err
	}

	key := packageName + "|" + purchaseToken
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), packageName, purchaseToken)
	})

	select {
	case <-ctx.Done():
		return nil, &VerificationError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot).Clone(), nil
	}
}

// CircuitState reports the breaker state for health endpoints.
func (c *Client) CircuitState() CircuitState {
	return c.breaker.current()
}

func (c *Client) fetch(ctx context.Context, packageName, token string) (*Snapshot, error) {
	if !c.breaker.allow() {
		c.metrics.ObserveVerification(metrics.OutcomeCircuitOpen, 0)
		return nil, &VerificationError{Err: ErrCircuitOpen}
	}

	start := c.now()
	snap, err := c.get(ctx, packageName, token)
	elapsed := c.now().Sub(start)

	if err != nil {
		var verr *VerificationError
		if errors.As(err, &verr) && !verr.retryable() {
			c.breaker.neutral()
		} else {
			c.breaker.failure()
		}
		c.metrics.ObserveVerification(metrics.OutcomeFailure, elapsed)
		c.log.WarnContext(ctx, "subscription verification failed",
			logger.PurchaseToken(token),
			logger.Duration(elapsed),
			logger.Error(err),
		)
		return nil, err
	}

	c.breaker.success()
	c.metrics.ObserveVerification(metrics.OutcomeSuccess, elapsed)
	return snap, nil
}

func (c *Client) get(ctx context.Context, packageName, token string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/androidpublisher/v3/applications/%s/purchases/subscriptionsv2/tokens/%s",
		c.baseURL, url.PathEscape(packageName), url.PathEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &VerificationError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrTimeout, err)
		}
		return nil, &VerificationError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrTimeout, err)
		}
		return nil, &VerificationError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &VerificationError{
			StatusCode: resp.StatusCode,
			Reason:     errorReason(body),
		}
	}

	var payload SubscriptionPurchaseV2
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &VerificationError{
			StatusCode: resp.StatusCode,
			Err:        errors.Join(ErrMalformedResponse, err),
		}
	}

	m := mapper{unknownState: c.unknownState, now: c.now, log: c.log}
	return m.snapshot(ctx, packageName, token, payload, body), nil
}

func errorReason(body []byte) string {
	var pe providerError
	if err := json.Unmarshal(body, &pe); err == nil && pe.Error.Message != "" {
		return pe.Error.Message
	}
	return ""
}
