// Package cache keeps token lookups for the redirect path off the database.
// Links never change after minting, so entries are only ever added or expired.
package cache

import "context"

// Entry is what a redirect needs to know about a token.
type Entry struct {
	LinkID uint   `json:"id"`
	Target string `json:"target"`
}

// LinkCache is a token-keyed lookup cache. Get reports a miss with ok=false
// and a nil error.
type LinkCache interface {
	Get(ctx context.Context, token string) (Entry, bool, error)
	Set(ctx context.Context, token string, e Entry) error
}

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }

// Set discards e.
func (Nop) Set(context.Context, string, Entry) error { return nil }
