package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/lmoraes-dev/exportdesk-backend/pkg/db"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	apperrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
)

// Repository persists quotes and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the quote together with its lines.
func (r *Repository) Create(ctx context.Context, quote *models.Quote) error {
	err := r.db.WithContext(ctx).Create(quote).Error
	if pkgdb.IsUniqueViolation(err, "ux_quotes_number") {
		return apperrors.Wrap(apperrors.CodeConflict, err, "quote number already taken")
	}
	return err
}

// FindByID loads one quote with its lines.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&quote, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "quote not found")
		}
		return nil, err
	}
	return &quote, nil
}

// List returns quotes matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Quote, error) {
	query := r.db.WithContext(ctx).Model(&models.Quote{}).Preload("Lines")
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.SalespersonID != nil {
		query = query.Where("salesperson_id = ?", *filter.SalespersonID)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var quotes []models.Quote
	if err := query.Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// ReplaceLines swaps the full line set of a quote.
func (r *Repository) ReplaceLines(ctx context.Context, quoteID uuid.UUID, lines []models.QuoteLine) error {
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Delete(&models.QuoteLine{}).Error
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].QuoteID = quoteID
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// Save writes the quote's scalar fields back. Lines are managed through
// ReplaceLines, never through Save.
func (r *Repository) Save(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).
		Omit("Lines", "Company", "Salesperson", "Buyer").
		Save(quote).Error
}

// UpdateStatus moves the quote from one status to another, guarded by the
// current status so that concurrent transitions cannot race past the
// lifecycle. The affected row count tells the caller whether the guard held.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.QuoteStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Delete removes the quote and its lines.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", id).
		Delete(&models.QuoteLine{}).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Quote{}).Error
}
