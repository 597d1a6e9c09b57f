package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSetting is the administrator-controlled exchange rate override. The
// engine only ever reads it; a single row with ID 1 is expected.
type RateSetting struct {
	ID            int             `gorm:"column:id;primaryKey"`
	UseCustomRate bool            `gorm:"column:use_custom_rate;not null;default:false"`
	CustomRate    decimal.Decimal `gorm:"column:custom_rate;type:numeric(12,4);not null;default:0"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singleton table name explicit.
func (RateSetting) TableName() string {
	return "rate_settings"
}
