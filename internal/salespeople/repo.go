// Package salespeople resolves salesperson assignments for companies.
package salespeople

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
)

// LinkRepository reads salesperson-company associations.
type LinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository binds the repository to the provided DB handle.
func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *LinkRepository) WithTx(tx *gorm.DB) *LinkRepository {
	return &LinkRepository{db: tx}
}

// Repository reads salespeople.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads one salesperson.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Salesperson, error) {
	var salesperson models.Salesperson
	err := r.db.WithContext(ctx).First(&salesperson, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &salesperson, nil
}

// FindFirstActiveByCompany returns the oldest active link whose salesperson
// is also active, or nil when the company has no eligible salesperson.
// Ordering by link creation time keeps the assignment deterministic when a
// company has several active salespeople.
func (r *LinkRepository) FindFirstActiveByCompany(ctx context.Context, companyID uuid.UUID) (*models.SalespersonCompanyLink, error) {
	var link models.SalespersonCompanyLink
	err := r.db.WithContext(ctx).
		Joins("JOIN salespeople ON salespeople.id = salesperson_company_links.salesperson_id").
		Where("salesperson_company_links.company_id = ?", companyID).
		Where("salesperson_company_links.active = ?", true).
		Where("salespeople.active = ?", true).
		Order("salesperson_company_links.created_at ASC").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}
