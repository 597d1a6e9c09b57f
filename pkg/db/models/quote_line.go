package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteLine snapshots one product within a quote. The referenced product
// must belong to the parent quote's company, and Total is computed once at
// creation, never re-derived from the stored value.
type QuoteLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID         uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName     string          `gorm:"column:product_name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(15,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(15,2);not null"`
	Product         *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *QuoteLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
