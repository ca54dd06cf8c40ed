package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/cache"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/metrics"
	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/repository"
)

// VisitRecorder accepts visits without blocking. It returns false when the
// visit was dropped.
type VisitRecorder interface {
	Record(ev models.VisitEvent) bool
}

// LinkFinder is the read side of the link store.
type LinkFinder interface {
	FindByToken(ctx context.Context, token string) (*models.Link, error)
}

// RedirectService turns a token into the provider short URL to redirect to.
type RedirectService struct {
	links  LinkFinder
	cache  cache.LinkCache
	visits VisitRecorder
	logger *zap.Logger
}

// NewRedirectService creates a resolver. A nil cache disables caching and a
// nil recorder disables visit counting.
func NewRedirectService(links LinkFinder, c cache.LinkCache, visits VisitRecorder, logger *zap.Logger) *RedirectService {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectService{links: links, cache: c, visits: visits, logger: logger}
}

// Resolve returns the ExternalShortURL of the link minted under token. A miss
// performs no write. A hit schedules one visit increment that may complete
// after Resolve returns, or not at all if the buffer is full.
func (s *RedirectService) Resolve(ctx context.Context, token string) (string, error) {
	if !validToken(token) {
		metrics.ObserveRedirect("not_found")
		return "", notFound()
	}

	entry, ok, err := s.cache.Get(ctx, token)
	if err != nil {
		s.logger.Warn("redirect cache lookup failed", zap.String("token", token), zap.Error(err))
	}
	if !ok {
		link, err := s.links.FindByToken(ctx, token)
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveRedirect("not_found")
			return "", notFound()
		}
		if err != nil {
			metrics.ObserveRedirect("error")
			return "", customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to look up link", err)
		}
		entry = cache.Entry{LinkID: link.ID, Target: link.ExternalShortURL}
		if err := s.cache.Set(ctx, token, entry); err != nil {
			s.logger.Warn("failed to populate redirect cache", zap.String("token", token), zap.Error(err))
		}
	}

	if s.visits != nil {
		s.visits.Record(models.VisitEvent{LinkID: entry.LinkID, Token: token, At: time.Now()})
	}
	metrics.ObserveRedirect("hit")
	return entry.Target, nil
}

func notFound() error {
	return customerrors.Wrap(customerrors.KindNotFound, "link not found", customerrors.ErrTokenNotFound)
}
