package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

// ProbeReport describes a single uncorrected call to a provider. It is meant
// for configuration debugging and never contains the credential.
type ProbeReport struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	RequestURL string `json:"requestUrl"`
	Preview    string `json:"preview"`
	IsHTML     bool   `json:"isHtml"`
	JSONValid  bool   `json:"jsonValid"`
	Extracted  string `json:"extracted,omitempty"`
	Kind       string `json:"kind,omitempty"`
	ElapsedMS  int64  `json:"elapsedMs"`
}

// Probe performs one attempt against req.BaseURL exactly as configured, with
// no endpoint correction, and reports what came back.
func (a *Adapter) Probe(ctx context.Context, req Request) (ProbeReport, error) {
	base, dest, bErr := a.prepare(req)
	if bErr != nil {
		return ProbeReport{}, bErr
	}
	requestURL := BuildRequestURL(base, req.Key, dest)
	report := ProbeReport{RequestURL: Redact(requestURL, req.Key)}

	start := time.Now()
	at := a.attempt(ctx, "probe", base, req.Key, dest)
	report.ElapsedMS = time.Since(start).Milliseconds()
	report.StatusCode = at.status
	report.IsHTML = strings.HasPrefix(strings.TrimSpace(at.body), "<")
	report.JSONValid = json.Valid([]byte(at.body))
	report.Preview = truncate(maskSecret(at.body, req.Key), a.opts.RawBodyLimit)
	if at.outcome.OK() {
		report.Extracted = at.outcome.URL
	} else {
		report.Kind = string(at.outcome.Kind)
		if at.outcome.Kind == customerrors.KindProviderTimeout || at.outcome.Kind == customerrors.KindProviderUnreachable {
			report.Preview = at.outcome.Message
		}
	}
	report.Success = at.status >= 200 && at.status < 300 && at.outcome.OK()
	return report, nil
}
