// Package normalizer extracts a single absolute short URL from a provider
// response of unknown shape.
//
// Extraction runs an ordered chain of strategies and the first one that yields
// a validated absolute http(s) URL wins:
//
//	bare-url     the whole trimmed body is a URL
//	json-object  a known key at the top level of a JSON object
//	json-nested  a known key one level below "data"
//	json-string  the body is a JSON-encoded string
//	regex        the first http(s) substring of the raw text
package normalizer

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Keys are tried in this order, top level first and then under "data".
var keys = []string{"shortenedUrl", "short_url", "url", "link", "short", "shortLink"}

var urlPattern = regexp.MustCompile(`https?://[^\s"]+`)

// maxDepth bounds recursion through double-encoded payloads.
const maxDepth = 4

// Strategy is one extraction step. It returns the candidate URL and whether it
// produced one.
type Strategy struct {
	Name string
	fn   func(body string, depth int) (string, bool)
}

var chain []Strategy

func init() {
	chain = []Strategy{
		{Name: "bare-url", fn: bareURL},
		{Name: "json-object", fn: jsonObject},
		{Name: "json-nested", fn: jsonNested},
		{Name: "json-string", fn: jsonString},
		{Name: "regex", fn: regexFallback},
	}
}

// Strategies lists the strategy names in evaluation order.
func Strategies() []string {
	names := make([]string, len(chain))
	for i, s := range chain {
		names[i] = s.Name
	}
	return names
}

// Extract returns the first absolute URL found in body. The boolean is false
// when no strategy matched; the string is empty in that case.
func Extract(body string) (string, bool) {
	u, _, ok := extract(body, 0)
	return u, ok
}

// ExtractWith behaves like Extract and also reports the winning strategy.
func ExtractWith(body string) (string, string, bool) {
	return extract(body, 0)
}

func extract(body string, depth int) (string, string, bool) {
	if depth > maxDepth {
		return "", "", false
	}
	for _, s := range chain {
		if u, ok := s.fn(body, depth); ok {
			return u, s.Name, true
		}
	}
	return "", "", false
}

// IsAbsoluteURL reports whether raw parses as an http or https URL with a host.
func IsAbsoluteURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func bareURL(body string, _ int) (string, bool) {
	s := strings.TrimSpace(body)
	if IsAbsoluteURL(s) {
		return s, true
	}
	return "", false
}

func jsonObject(body string, depth int) (string, bool) {
	obj, ok := decodeObject(body)
	if !ok {
		return "", false
	}
	return fromKeys(obj, depth)
}

func jsonNested(body string, depth int) (string, bool) {
	obj, ok := decodeObject(body)
	if !ok {
		return "", false
	}
	switch data := obj["data"].(type) {
	case map[string]any:
		return fromKeys(data, depth)
	case string:
		u, _, ok := extract(data, depth+1)
		return u, ok
	}
	return "", false
}

func jsonString(body string, depth int) (string, bool) {
	var s string
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &s); err != nil {
		return "", false
	}
	u, _, ok := extract(s, depth+1)
	return u, ok
}

func regexFallback(body string, _ int) (string, bool) {
	m := urlPattern.FindString(body)
	if m == "" || !IsAbsoluteURL(m) {
		return "", false
	}
	return m, true
}

// fromKeys returns the first present key value. A value that is not itself an
// absolute URL is normalized again.
func fromKeys(obj map[string]any, depth int) (string, bool) {
	for _, k := range keys {
		v, ok := obj[k].(string)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		v = strings.TrimSpace(v)
		if IsAbsoluteURL(v) {
			return v, true
		}
		if u, _, ok := extract(v, depth+1); ok {
			return u, true
		}
	}
	return "", false
}

func decodeObject(body string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
