// Package classifier assigns one canonical error kind to an upstream provider
// response.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/normalizer"
)

// loginWallMarkers identify human-facing sign-in pages returned with a 2xx status.
var loginWallMarkers = []string{
	"Log in with Vercel",
	"Vercel Authentication",
	"Sign in to continue",
}

// Response is what the adapter observed for one attempt.
type Response struct {
	Status int
	Body   string
	Err    error
}

// Outcome is the classification of a Response. Kind is empty on success, in
// which case URL holds the extracted short URL.
type Outcome struct {
	Kind    customerrors.Kind
	Message string
	URL     string
	// HTML is set when the body looked like a web page rather than an API response.
	HTML bool
}

// OK reports whether the response resolved to a short URL.
func (o Outcome) OK() bool {
	return o.Kind == ""
}

// Classify evaluates the rules in order and returns the first that applies.
func Classify(r Response) Outcome {
	if r.Err != nil {
		if IsTimeout(r.Err) {
			return Outcome{Kind: customerrors.KindProviderTimeout, Message: "provider timed out"}
		}
		return Outcome{
			Kind:    customerrors.KindProviderUnreachable,
			Message: fmt.Sprintf("provider unreachable: %v", r.Err),
		}
	}

	if r.Status == http.StatusUnauthorized || hasLoginWall(r.Body) {
		return Outcome{Kind: customerrors.KindProviderUnauthorized, Message: "provider URL is unauthorized"}
	}

	trimmed := strings.TrimSpace(r.Body)
	if strings.HasPrefix(trimmed, "<") {
		return Outcome{
			Kind:    customerrors.KindProviderMalformedResponse,
			Message: "provider returned HTML instead of an API response",
			HTML:    true,
		}
	}

	if msg, ok := businessMessage(trimmed); ok {
		return Outcome{Kind: customerrors.KindProviderBusinessError, Message: msg}
	}

	u, ok := normalizer.Extract(r.Body)
	if !ok || !normalizer.IsAbsoluteURL(u) {
		return Outcome{
			Kind:    customerrors.KindProviderMalformedResponse,
			Message: "could not extract a valid short URL from the provider response",
		}
	}
	return Outcome{URL: u}
}

// IsTimeout reports whether err is a deadline or cancellation signal.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func hasLoginWall(body string) bool {
	for _, m := range loginWallMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// businessMessage returns the provider's own error text when the body is a JSON
// object with an error/message/msg field and no keyed short URL. URLs that only
// appear inside the message text do not count as a result.
func businessMessage(body string) (string, bool) {
	if !strings.HasPrefix(body, "{") {
		return "", false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return "", false
	}
	_, hasErr := obj["error"]
	_, hasMsg := obj["message"]
	_, hasMsgAlt := obj["msg"]
	if !hasErr && !hasMsg && !hasMsgAlt {
		return "", false
	}
	if _, strategy, ok := normalizer.ExtractWith(body); ok && strategy != "regex" {
		return "", false
	}
	for _, k := range []string{"error", "message", "msg"} {
		switch v := obj[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v, true
			}
		case []any:
			if len(v) > 0 {
				return fmt.Sprint(v[0]), true
			}
		}
	}
	return "provider reported an error without a message", true
}
