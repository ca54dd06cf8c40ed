package provider

import (
	"net/url"
	"strings"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/normalizer"
)

const redacted = "***"

func hasScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NormalizeBase trims the provider base URL and prepends https:// when it has
// no scheme.
func NormalizeBase(raw string) string {
	base := strings.TrimSpace(raw)
	if !hasScheme(base) {
		base = "https://" + base
	}
	return base
}

// CoerceURL returns raw as an absolute http(s) URL, prepending defaultScheme
// when no scheme is present.
func CoerceURL(raw, defaultScheme string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", customerrors.ErrInvalidURL
	}
	if !hasScheme(s) {
		if strings.Contains(s, "://") {
			return "", customerrors.ErrInvalidURL
		}
		s = defaultScheme + s
	}
	// Single-label hosts such as "intranet" are accepted.
	if _, err := url.Parse(s); err != nil || !normalizer.IsAbsoluteURL(s) {
		return "", customerrors.ErrInvalidURL
	}
	return s, nil
}

// BuildRequestURL appends the api and url query parameters to base, joining
// with ? or & depending on whether base already carries a query string.
func BuildRequestURL(base, key, dest string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "api=" + url.QueryEscape(key) + "&url=" + url.QueryEscape(dest)
}

// Redact replaces the provider credential in a request URL. Query parameters
// keep the order they were sent in.
func Redact(requestURL, key string) string {
	u, err := url.Parse(requestURL)
	if err != nil {
		return maskSecret(requestURL, key)
	}
	if u.RawQuery != "" {
		params := strings.Split(u.RawQuery, "&")
		for i, p := range params {
			if p == "api" || strings.HasPrefix(p, "api=") {
				params[i] = "api=" + redacted
			}
		}
		u.RawQuery = strings.Join(params, "&")
	}
	return maskSecret(u.String(), key)
}

// maskSecret removes every literal occurrence of key from s.
func maskSecret(s, key string) string {
	if len(key) < 4 {
		return s
	}
	s = strings.ReplaceAll(s, key, redacted)
	if esc := url.QueryEscape(key); esc != key {
		s = strings.ReplaceAll(s, esc, redacted)
	}
	return s
}
