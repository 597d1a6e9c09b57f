package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Salesperson is a commissioned seller who may represent several companies.
type Salesperson struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Salesperson) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SalespersonCompanyLink associates a salesperson with a company they
// represent. At most one active link may exist per (salesperson, company)
// pair; a company may still have several active salespeople.
type SalespersonCompanyLink struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SalespersonID  uuid.UUID       `gorm:"column:salesperson_id;type:uuid;not null;index"`
	CompanyID      uuid.UUID       `gorm:"column:company_id;type:uuid;not null;index"`
	Active         bool            `gorm:"column:active;not null;default:true"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2);not null;default:0"`
	SalesTarget    decimal.Decimal `gorm:"column:sales_target;type:numeric(15,2);not null;default:0"`
	Salesperson    *Salesperson    `gorm:"foreignKey:SalespersonID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *SalespersonCompanyLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName keeps the long association name readable.
func (SalespersonCompanyLink) TableName() string {
	return "salesperson_company_links"
}
