// Package provider calls third-party shortening APIs and turns whatever they
// return into one validated short URL or a classified failure.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/classifier"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/metrics"
)

const (
	DefaultTimeout        = 8 * time.Second
	DefaultMaxCorrections = 2
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRawBodyLimit   = 500
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options tunes the adapter. Zero values fall back to the defaults above.
type Options struct {
	Timeout        time.Duration
	MaxCorrections int
	MaxBodyBytes   int64
	RawBodyLimit   int
	UserAgent      string
}

// Request is one resolution: shorten Destination through the provider at
// BaseURL using Key.
type Request struct {
	BaseURL     string
	Key         string
	Destination string
}

// Result is a successful resolution.
type Result struct {
	ShortURL string
	// Endpoint is the base URL that finally answered, after any correction.
	Endpoint string
	Attempts int
}

// Adapter is stateless and safe for concurrent use.
type Adapter struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
}

// NewAdapter builds an Adapter. A nil client uses a dedicated http.Client;
// per-attempt deadlines come from the request context, not the client.
func NewAdapter(client *http.Client, opts Options, logger *zap.Logger) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxCorrections < 0 {
		opts.MaxCorrections = 0
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RawBodyLimit <= 0 {
		opts.RawBodyLimit = DefaultRawBodyLimit
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Adapter{client: client, opts: opts, logger: logger}
}

// Timeout returns the per-attempt deadline.
func (a *Adapter) Timeout() time.Duration {
	return a.opts.Timeout
}

// attempt is the observation of one outbound call.
type attempt struct {
	base       string
	requestURL string
	status     int
	body       string
	outcome    classifier.Outcome
}

// Resolve shortens req.Destination. Every failure is a *customerrors.BridgeError.
func (a *Adapter) Resolve(ctx context.Context, req Request) (Result, error) {
	base, dest, err := a.prepare(req)
	if err != nil {
		metrics.ObserveResolution(string(err.Kind))
		return Result{}, err
	}

	plan := newCorrectionPlan(base, a.opts.MaxCorrections)
	stage := "initial"
	attempts := 0
	var last attempt
	for {
		attempts++
		last = a.attempt(ctx, stage, plan.current, req.Key, dest)

		switch next := plan.next(last.outcome); next.action {
		case actionSucceed:
			a.logger.Debug("provider resolved",
				zap.String("endpoint", last.base),
				zap.String("short_url", last.outcome.URL),
				zap.Int("attempts", attempts))
			metrics.ObserveResolution("success")
			return Result{ShortURL: last.outcome.URL, Endpoint: last.base, Attempts: attempts}, nil
		case actionRetry:
			a.logger.Info("provider returned HTML, retrying corrected endpoint",
				zap.String("from", last.base),
				zap.String("to", next.base),
				zap.String("strategy", next.stage))
			stage = next.stage
			continue
		}
		break
	}

	bErr := a.failure(req.Key, last)
	a.logger.Warn("provider resolution failed",
		zap.String("kind", string(bErr.Kind)),
		zap.String("request_url", bErr.RequestURL),
		zap.Int("attempts", attempts))
	metrics.ObserveResolution(string(bErr.Kind))
	return Result{}, bErr
}

func (a *Adapter) prepare(req Request) (string, string, *customerrors.BridgeError) {
	if strings.TrimSpace(req.BaseURL) == "" || strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Destination) == "" {
		return "", "", customerrors.New(customerrors.KindMissingParameter, "missing parameters: provider, key, or url")
	}
	dest, err := CoerceURL(req.Destination, "https://")
	if err != nil {
		be := customerrors.Wrap(customerrors.KindInvalidDestinationURL,
			"invalid destination URL; provide a valid domain (e.g. example.com)", err)
		be.Detail = req.Destination
		return "", "", be
	}
	return NormalizeBase(req.BaseURL), dest, nil
}

// attempt performs one GET under its own deadline and classifies the result.
func (a *Adapter) attempt(ctx context.Context, stage, base, key, dest string) attempt {
	requestURL := BuildRequestURL(base, key, dest)
	at := attempt{base: base, requestURL: requestURL}

	attemptCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	start := time.Now()
	status, body, err := a.fetch(attemptCtx, requestURL)
	at.status, at.body = status, body
	at.outcome = classifier.Classify(classifier.Response{Status: status, Body: body, Err: err})

	outcome := "success"
	if !at.outcome.OK() {
		outcome = string(at.outcome.Kind)
	}
	metrics.ObserveProviderAttempt(stage, outcome, time.Since(start))
	a.logger.Debug("provider attempt",
		zap.String("stage", stage),
		zap.String("request_url", Redact(requestURL, key)),
		zap.Int("status", status),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)))
	return at
}

func (a *Adapter) fetch(ctx context.Context, requestURL string) (int, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("User-Agent", a.opts.UserAgent)
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return 0, "", fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, a.opts.MaxBodyBytes))
	if err != nil {
		return resp.StatusCode, string(raw), fmt.Errorf("read provider response: %w", err)
	}
	return resp.StatusCode, string(raw), nil
}

func (a *Adapter) failure(key string, last attempt) *customerrors.BridgeError {
	o := last.outcome
	be := &customerrors.BridgeError{
		Kind:       o.Kind,
		Message:    maskSecret(userMessage(o), key),
		Detail:     maskSecret(detailFor(o), key),
		RequestURL: Redact(last.requestURL, key),
	}
	if o.Kind != customerrors.KindProviderTimeout && o.Kind != customerrors.KindProviderUnreachable {
		be.RawBody = truncate(maskSecret(last.body, key), a.opts.RawBodyLimit)
	}
	return be
}

// userMessage distinguishes the remediations: retry later, fix the endpoint,
// fix the credential, or accept the provider's rejection.
func userMessage(o classifier.Outcome) string {
	switch o.Kind {
	case customerrors.KindProviderTimeout:
		return "Provider timed out. The provider might be slow or blocking requests; retry later."
	case customerrors.KindProviderUnreachable:
		return "Provider could not be reached. Check the provider URL."
	case customerrors.KindProviderUnauthorized:
		return "Provider URL is unauthorized (401). Check the credential and that the URL is public."
	case customerrors.KindProviderBusinessError:
		return "Provider rejected the link: " + o.Message
	case customerrors.KindProviderMalformedResponse:
		if o.HTML {
			return "Provider requires a different endpoint: it returned HTML instead of JSON."
		}
		return "Provider returned an invalid response."
	}
	return o.Message
}

func detailFor(o classifier.Outcome) string {
	switch {
	case o.Kind == customerrors.KindProviderMalformedResponse && o.HTML:
		return "You likely entered the main website URL (e.g. https://site.com) instead of the API endpoint " +
			"(e.g. https://site.com/api). Automatic correction was attempted and failed."
	case o.Kind == customerrors.KindProviderMalformedResponse:
		return "Could not extract a valid short URL from the provider response."
	case o.Kind == customerrors.KindProviderUnauthorized:
		return "The provider URL seems to be protected (e.g. a preview deployment behind a login wall)."
	}
	return o.Message
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
