package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
)

// Quote is a priced, numbered proposal from one company to one buyer. The
// exchange rate and its source are stamped at creation and never recomputed;
// they are audit data for historical quotes.
type Quote struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number        string            `gorm:"column:number;not null;uniqueIndex"`
	CompanyID     uuid.UUID         `gorm:"column:company_id;type:uuid;not null;index"`
	SalespersonID uuid.UUID         `gorm:"column:salesperson_id;type:uuid;not null;index"`
	BuyerID       uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	Currency      enums.Currency    `gorm:"column:currency;type:text;not null;default:'BRL'"`
	Status        enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'draft'"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(15,2);not null"`
	Discount decimal.Decimal `gorm:"column:discount;type:numeric(15,2);not null;default:0"`
	Freight  decimal.Decimal `gorm:"column:freight;type:numeric(15,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(15,2);not null"`

	Incoterm         *enums.Incoterm    `gorm:"column:incoterm;type:text"`
	DestinationPort  *string            `gorm:"column:destination_port"`
	FreightMode      *enums.FreightMode `gorm:"column:freight_mode;type:text"`
	TransitDays      *int               `gorm:"column:transit_days"`
	GrossWeightKg    *decimal.Decimal   `gorm:"column:gross_weight_kg;type:numeric(12,3)"`
	VolumeM3         *decimal.Decimal   `gorm:"column:volume_m3;type:numeric(12,4)"`
	BoxCount         *int               `gorm:"column:box_count"`
	IntlFreightUSD   *decimal.Decimal   `gorm:"column:intl_freight_usd;type:numeric(15,2)"`
	IntlInsuranceUSD *decimal.Decimal   `gorm:"column:intl_insurance_usd;type:numeric(15,2)"`
	CustomsFeesUSD   *decimal.Decimal   `gorm:"column:customs_fees_usd;type:numeric(15,2)"`

	ExchangeRate decimal.Decimal `gorm:"column:exchange_rate;type:numeric(12,4);not null"`
	RateSource   string          `gorm:"column:rate_source;not null"`

	Company     *Company     `gorm:"foreignKey:CompanyID"`
	Salesperson *Salesperson `gorm:"foreignKey:SalespersonID"`
	Buyer       *Buyer       `gorm:"foreignKey:BuyerID"`
	Lines       []QuoteLine  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
