package models

// QuoteCounter is the dedicated atomic-increment row backing quote number
// allocation. One row per day; LastValue only ever moves forward via an
// upsert-and-increment executed inside the quote's own transaction.
type QuoteCounter struct {
	Day       string `gorm:"column:day;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}

// TableName pins the table used by the raw upsert in internal/numbering.
func (QuoteCounter) TableName() string {
	return "quote_counters"
}
