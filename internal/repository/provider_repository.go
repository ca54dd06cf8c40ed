package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/linkbridge/linkbridge/internal/models"
)

// ProviderRepository stores named provider credentials.
type ProviderRepository interface {
	Create(ctx context.Context, p *models.Provider) error
	GetByName(ctx context.Context, name string) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	Delete(ctx context.Context, name string) error
}

// GormProviderRepository implements ProviderRepository with GORM.
type GormProviderRepository struct {
	db *gorm.DB
}

// NewProviderRepository creates a provider repository on db.
func NewProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// Create inserts p and fills its ID. A taken name yields ErrDuplicateName.
func (r *GormProviderRepository) Create(ctx context.Context, p *models.Provider) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// GetByName returns the provider called name, or ErrNotFound.
func (r *GormProviderRepository) GetByName(ctx context.Context, name string) (*models.Provider, error) {
	var p models.Provider
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider %q: %w", name, err)
	}
	return &p, nil
}

// List returns every provider ordered by name.
func (r *GormProviderRepository) List(ctx context.Context) ([]models.Provider, error) {
	var out []models.Provider
	if err := r.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return out, nil
}

// Delete removes the provider called name, or returns ErrNotFound.
func (r *GormProviderRepository) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Provider{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete provider %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
