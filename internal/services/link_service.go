// Package services contains the business logic layer: minting links, bridging
// to providers and resolving redirects.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/cache"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/metrics"
	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/normalizer"
	"github.com/linkbridge/linkbridge/internal/repository"
)

// LinkOptions configures minting.
type LinkOptions struct {
	TokenLength int
	MaxAttempts int
}

// LinkService mints tokens and reads links back for the administrative API.
type LinkService struct {
	linkRepo repository.LinkRepository
	cache    cache.LinkCache
	generate TokenGenerator
	opts     LinkOptions
	logger   *zap.Logger
}

// NewLinkService creates a LinkService. A nil cache disables warming.
func NewLinkService(linkRepo repository.LinkRepository, c cache.LinkCache, opts LinkOptions, logger *zap.Logger) *LinkService {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	opts.TokenLength = clampTokenLength(opts.TokenLength)
	return &LinkService{
		linkRepo: linkRepo,
		cache:    c,
		generate: GenerateToken,
		opts:     opts,
		logger:   logger,
	}
}

// WithGenerator replaces the token source.
func (s *LinkService) WithGenerator(g TokenGenerator) *LinkService {
	s.generate = g
	return s
}

// Mint persists a new Link for originalURL pointing at externalShortURL under
// a fresh token. Collisions are resolved by regenerating; the store's unique
// constraint is what makes the token unique, not a prior lookup.
func (s *LinkService) Mint(ctx context.Context, originalURL, externalShortURL string) (*models.Link, error) {
	if !normalizer.IsAbsoluteURL(externalShortURL) {
		return nil, customerrors.New(customerrors.KindProviderMalformedResponse,
			"provider returned a short URL that is not an absolute http(s) URL")
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		token, err := s.generate(s.opts.TokenLength)
		if err != nil {
			return nil, customerrors.Wrap(customerrors.KindTokenExhausted, "failed to generate token", err)
		}

		link := &models.Link{Token: token, OriginalURL: originalURL, ExternalShortURL: externalShortURL}
		err = s.linkRepo.Insert(ctx, link)
		if errors.Is(err, repository.ErrDuplicateToken) {
			metrics.ObserveMintCollision()
			s.logger.Warn("token collision, regenerating",
				zap.String("token", token), zap.Int("attempt", attempt), zap.Int("max_attempts", s.opts.MaxAttempts))
			continue
		}
		if err != nil {
			return nil, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to store link", err)
		}

		if err := s.cache.Set(ctx, link.Token, cache.Entry{LinkID: link.ID, Target: link.ExternalShortURL}); err != nil {
			s.logger.Warn("failed to warm redirect cache", zap.String("token", link.Token), zap.Error(err))
		}
		s.logger.Info("link minted", zap.String("token", link.Token), zap.Uint("id", link.ID))
		return link, nil
	}

	return nil, customerrors.Wrap(customerrors.KindTokenExhausted,
		fmt.Sprintf("could not allocate a unique token after %d attempts; retry", s.opts.MaxAttempts),
		customerrors.ErrTokenGenerationFailed)
}

// GetLinkStats returns the link minted under token, visit count included.
func (s *LinkService) GetLinkStats(ctx context.Context, token string) (*models.Link, error) {
	link, err := s.linkRepo.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerrors.Wrap(customerrors.KindNotFound, "link not found", customerrors.ErrTokenNotFound)
	}
	if err != nil {
		return nil, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to load link", err)
	}
	return link, nil
}

// ListLinks pages through stored links, newest first, and reports the total.
func (s *LinkService) ListLinks(ctx context.Context, limit, offset int) ([]models.Link, int64, error) {
	links, err := s.linkRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to list links", err)
	}
	total, err := s.linkRepo.Count(ctx)
	if err != nil {
		return nil, 0, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to count links", err)
	}
	return links, total, nil
}
