package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/linkbridge/linkbridge/internal/models"
)

// LinkRepository is the persistent link store. Token uniqueness is enforced by
// the store itself, so Insert is the only safe way to claim a token.
type LinkRepository interface {
	Insert(ctx context.Context, link *models.Link) error
	FindByToken(ctx context.Context, token string) (*models.Link, error)
	IncrementVisits(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.Link, error)
	Count(ctx context.Context) (int64, error)
}

// GormLinkRepository implements LinkRepository with GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Insert persists link and fills its ID. A taken token yields ErrDuplicateToken
// and leaves the table unchanged.
func (r *GormLinkRepository) Insert(ctx context.Context, link *models.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// FindByToken returns the link minted under token, or ErrNotFound.
func (r *GormLinkRepository) FindByToken(ctx context.Context, token string) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link %q: %w", token, err)
	}
	return &link, nil
}

// IncrementVisits adds one visit in a single UPDATE so concurrent increments
// never lose updates.
func (r *GormLinkRepository) IncrementVisits(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("visits", gorm.Expr("visits + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment visits for link %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns links newest first. A non-positive limit returns every link.
func (r *GormLinkRepository) List(ctx context.Context, limit, offset int) ([]models.Link, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var links []models.Link
	if err := q.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// Count returns the number of stored links.
func (r *GormLinkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Link{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return n, nil
}
