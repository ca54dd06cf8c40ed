package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/provider"
	"github.com/linkbridge/linkbridge/internal/repository"
)

// BridgeRequest is one shortening request as received from a caller. Either
// ProviderURL and Key are given, or ProviderName selects stored credentials.
type BridgeRequest struct {
	ProviderURL  string
	Key          string
	ProviderName string
	Destination  string
}

// Resolver is the provider adapter as seen by the services.
type Resolver interface {
	Resolve(ctx context.Context, req provider.Request) (provider.Result, error)
	Probe(ctx context.Context, req provider.Request) (provider.ProbeReport, error)
}

// ProviderLookup finds stored provider credentials by name.
type ProviderLookup interface {
	GetByName(ctx context.Context, name string) (*models.Provider, error)
}

// BridgeService resolves a destination through a provider and mints a local
// token for the result.
type BridgeService struct {
	resolver        Resolver
	links           *LinkService
	providers       ProviderLookup
	defaultProvider string
	logger          *zap.Logger
}

// NewBridgeService wires the bridge. providers may be nil when no credential
// store is configured.
func NewBridgeService(resolver Resolver, links *LinkService, providers ProviderLookup, defaultProvider string, logger *zap.Logger) *BridgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BridgeService{
		resolver:        resolver,
		links:           links,
		providers:       providers,
		defaultProvider: defaultProvider,
		logger:          logger,
	}
}

// Bridge shortens req.Destination with the provider and returns the persisted
// link. No link is written unless the provider returned a valid short URL.
func (s *BridgeService) Bridge(ctx context.Context, req BridgeRequest) (*models.Link, error) {
	preq, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, preq)
	if err != nil {
		return nil, err
	}

	link, err := s.links.Mint(ctx, preq.Destination, res.ShortURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("link bridged",
		zap.String("token", link.Token),
		zap.String("endpoint", provider.Redact(res.Endpoint, preq.Key)),
		zap.Int("attempts", res.Attempts))
	return link, nil
}

// Probe makes a single uncorrected call with the same credential resolution
// as Bridge. An empty destination probes with https://example.com.
func (s *BridgeService) Probe(ctx context.Context, req BridgeRequest) (provider.ProbeReport, error) {
	if strings.TrimSpace(req.Destination) == "" {
		req.Destination = "https://example.com"
	}
	preq, err := s.prepare(ctx, req)
	if err != nil {
		return provider.ProbeReport{}, err
	}
	return s.resolver.Probe(ctx, preq)
}

func (s *BridgeService) prepare(ctx context.Context, req BridgeRequest) (provider.Request, error) {
	base := strings.TrimSpace(req.ProviderURL)
	key := strings.TrimSpace(req.Key)

	if base == "" || key == "" {
		stored, err := s.lookupProvider(ctx, req.ProviderName)
		if err != nil {
			return provider.Request{}, err
		}
		if stored != nil {
			if base == "" {
				base = stored.APIURL
			}
			if key == "" {
				key = stored.APIToken
			}
		}
	}

	dest := strings.TrimSpace(req.Destination)
	if base == "" || key == "" || dest == "" {
		return provider.Request{}, customerrors.New(customerrors.KindMissingParameter,
			"missing parameters: provider, key, or url")
	}

	coerced, err := provider.CoerceURL(dest, "http://")
	if err != nil {
		be := customerrors.Wrap(customerrors.KindInvalidDestinationURL,
			"invalid destination URL; provide a valid domain (e.g. example.com)", err)
		be.Detail = dest
		return provider.Request{}, be
	}
	return provider.Request{BaseURL: base, Key: key, Destination: coerced}, nil
}

// lookupProvider returns nil, nil when there is nothing to look up.
func (s *BridgeService) lookupProvider(ctx context.Context, name string) (*models.Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultProvider
	}
	if name == "" || s.providers == nil {
		return nil, nil
	}
	p, err := s.providers.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerrors.Wrap(customerrors.KindMissingParameter,
			fmt.Sprintf("provider %q is not registered", name), customerrors.ErrProviderNotFound)
	}
	if err != nil {
		return nil, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to load provider credentials", err)
	}
	return p, nil
}
