package quotes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
)

// LineInput describes one requested quote line. When UnitPrice is nil the
// product's effective price at creation time is used.
type LineInput struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"required"`
	Quantity        int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

// ExportInput carries the optional international shipping terms of a quote.
type ExportInput struct {
	Incoterm         *enums.Incoterm    `json:"incoterm,omitempty"`
	DestinationPort  *string            `json:"destination_port,omitempty"`
	FreightMode      *enums.FreightMode `json:"freight_mode,omitempty"`
	TransitDays      *int               `json:"transit_days,omitempty"`
	GrossWeightKg    *decimal.Decimal   `json:"gross_weight_kg,omitempty"`
	VolumeM3         *decimal.Decimal   `json:"volume_m3,omitempty"`
	BoxCount         *int               `json:"box_count,omitempty"`
	IntlFreightUSD   *decimal.Decimal   `json:"intl_freight_usd,omitempty"`
	IntlInsuranceUSD *decimal.Decimal   `json:"intl_insurance_usd,omitempty"`
	CustomsFeesUSD   *decimal.Decimal   `json:"customs_fees_usd,omitempty"`
}

// CreateInput is a salesperson-authored quote request. All lines must
// reference products of the given company.
type CreateInput struct {
	CompanyID     uuid.UUID       `json:"company_id" validate:"required"`
	SalespersonID uuid.UUID       `json:"salesperson_id" validate:"required"`
	BuyerID       uuid.UUID       `json:"buyer_id" validate:"required"`
	Currency      enums.Currency  `json:"currency"`
	Lines         []LineInput     `json:"lines" validate:"required,min=1,dive"`
	Discount      decimal.Decimal `json:"discount"`
	Freight       decimal.Decimal `json:"freight"`
	Export        *ExportInput    `json:"export,omitempty"`
}

// AmendInput mutates a non-terminal quote. Nil fields are left unchanged;
// when Lines is non-nil the full line set is replaced and totals are
// recomputed.
type AmendInput struct {
	Lines    []LineInput      `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Freight  *decimal.Decimal `json:"freight,omitempty"`
	Export   *ExportInput     `json:"export,omitempty"`
}

// ListFilter narrows and pages quote listings.
type ListFilter struct {
	BuyerID       *uuid.UUID
	SalespersonID *uuid.UUID
	CompanyID     *uuid.UUID
	Status        *enums.QuoteStatus
	Limit         int
	Offset        int
}

// CheckoutResult reports what one checkout run produced.
type CheckoutResult struct {
	Quotes           []models.Quote
	SkippedCompanies []uuid.UUID
	FailedCompanies  []uuid.UUID
}
