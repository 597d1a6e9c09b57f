package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Upsert adds a product to the buyer's cart. When the product is already in
// the cart the quantities are added together instead of duplicating the
// line.
func (r *Repository) Upsert(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "buyer_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(line).Error
}

// SetQuantity overwrites the quantity of an existing line. Missing lines are
// reported through RowsAffected, which callers translate to a not-found.
func (r *Repository) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

// ListByBuyer returns the buyer's cart with product snapshots, oldest line
// first. A single query keeps the snapshot consistent for checkout.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Remove deletes one line from the buyer's cart.
func (r *Repository) Remove(ctx context.Context, buyerID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&models.CartLine{})
	return result.RowsAffected, result.Error
}

// DeleteByIDs deletes the given cart lines. Checkout uses this to clear
// exactly the lines consumed by a committed quote, leaving lines added
// mid-checkout untouched.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.CartLine{}).Error
}
