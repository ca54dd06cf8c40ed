package cache

import (
	"context"
	"fmt"
)

// Tiered reads L1 first, then L2, back-filling L1 on an L2 hit. Set writes
// both tiers.
type Tiered struct {
	l1 LinkCache
	l2 LinkCache
}

// NewTiered layers l1 in front of l2.
func NewTiered(l1, l2 LinkCache) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

// Get ignores L1 errors. An L2 error is returned as a miss with the error.
func (t *Tiered) Get(ctx context.Context, token string) (Entry, bool, error) {
	if e, ok, _ := t.l1.Get(ctx, token); ok {
		return e, true, nil
	}
	e, ok, err := t.l2.Get(ctx, token)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	_ = t.l1.Set(ctx, token, e)
	return e, true, nil
}

// Set stores e in L1 and then L2. Only the L2 error is reported.
func (t *Tiered) Set(ctx context.Context, token string, e Entry) error {
	_ = t.l1.Set(ctx, token, e)
	if err := t.l2.Set(ctx, token, e); err != nil {
		return fmt.Errorf("l2 set: %w", err)
	}
	return nil
}
