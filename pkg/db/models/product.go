package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product belongs to exactly one company and one category. The promotional
// price, when set, is the effective unit price at checkout time.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID     uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index"`
	Category      string           `gorm:"column:category;not null"`
	SKU           string           `gorm:"column:sku;not null;uniqueIndex"`
	Name          string           `gorm:"column:name;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(15,2);not null"`
	PromoPrice    *decimal.Decimal `gorm:"column:promo_price;type:numeric(15,2)"`
	UnitWeightKg  decimal.Decimal  `gorm:"column:unit_weight_kg;type:numeric(10,3);not null;default:0"`
	UnitVolumeM3  decimal.Decimal  `gorm:"column:unit_volume_m3;type:numeric(10,4);not null;default:0"`
	UnitsPerBox   int              `gorm:"column:units_per_box;not null;default:1"`
	Company       *Company         `gorm:"foreignKey:CompanyID"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EffectivePrice returns the promotional price when set, the list price
// otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil && p.PromoPrice.IsPositive() {
		return *p.PromoPrice
	}
	return p.Price
}
