package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/provider"
	"github.com/linkbridge/linkbridge/internal/repository"
)

// ErrProviderExists is returned when registering a name twice.
var ErrProviderExists = errors.New("provider already registered")

// ProviderService manages the stored provider credentials.
type ProviderService struct {
	repo repository.ProviderRepository
}

// NewProviderService creates a ProviderService on repo.
func NewProviderService(repo repository.ProviderRepository) *ProviderService {
	return &ProviderService{repo: repo}
}

// Register stores a provider under name. apiURL gets https:// when it has no
// scheme.
func (s *ProviderService) Register(ctx context.Context, name, apiURL, apiToken string) (*models.Provider, error) {
	name = strings.TrimSpace(name)
	apiToken = strings.TrimSpace(apiToken)
	if name == "" || strings.TrimSpace(apiURL) == "" || apiToken == "" {
		return nil, customerrors.New(customerrors.KindMissingParameter, "missing parameters: name, apiUrl, or apiToken")
	}
	base, err := provider.CoerceURL(apiURL, "https://")
	if err != nil {
		be := customerrors.Wrap(customerrors.KindInvalidDestinationURL, "invalid provider URL", err)
		be.Detail = apiURL
		return nil, be
	}

	p := &models.Provider{Name: name, APIURL: base, APIToken: apiToken}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: %s", ErrProviderExists, name)
		}
		return nil, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to store provider", err)
	}
	return p, nil
}

// List returns every registered provider, credentials included.
func (s *ProviderService) List(ctx context.Context) ([]models.Provider, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to list providers", err)
	}
	return out, nil
}

// Remove deletes the provider called name. An unknown name is NotFound.
func (s *ProviderService) Remove(ctx context.Context, name string) error {
	err := s.repo.Delete(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return customerrors.Wrap(customerrors.KindNotFound, fmt.Sprintf("provider %q not found", name), customerrors.ErrProviderNotFound)
	}
	if err != nil {
		return customerrors.Wrap(customerrors.KindStoreUnavailable, "failed to remove provider", err)
	}
	return nil
}
