// Package numbering allocates globally-unique, human-readable quote numbers.
// Allocation is backed by a single upsert-and-increment statement against a
// dedicated counter row, so N concurrent callers always receive N distinct
// ordinals. Reading the current maximum and adding one is exactly the racy
// pattern this package exists to replace.
package numbering

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultPrefix starts every quote number issued by this deployment.
const DefaultPrefix = "QT"

const dayFormat = "20060102"

// CounterStore hands out the next ordinal for a given day atomically.
type CounterStore interface {
	Next(ctx context.Context, day string) (int64, error)
}

// Generator formats allocated ordinals as <PREFIX><YYYYMMDD><NNN>.
type Generator struct {
	prefix string
	store  CounterStore
	now    func() time.Time
}

// NewGenerator builds a Generator over the provided counter store.
func NewGenerator(prefix string, store CounterStore) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{prefix: prefix, store: store, now: time.Now}, nil
}

// NextNumber allocates the next quote number. The ordinal resets per UTC day;
// gaps from rolled-back transactions are expected and harmless.
func (g *Generator) NextNumber(ctx context.Context) (string, error) {
	day := g.now().UTC().Format(dayFormat)
	ordinal, err := g.store.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("allocating quote number: %w", err)
	}
	return fmt.Sprintf("%s%s%03d", g.prefix, day, ordinal), nil
}

// GormCounterStore implements CounterStore on the quote_counters table.
type GormCounterStore struct {
	db *gorm.DB
}

// NewGormCounterStore binds the store to the provided DB handle.
func NewGormCounterStore(db *gorm.DB) *GormCounterStore {
	return &GormCounterStore{db: db}
}

// WithTx scopes the store to a transaction so the increment commits or rolls
// back together with the quote insert.
func (s *GormCounterStore) WithTx(tx *gorm.DB) *GormCounterStore {
	if tx == nil {
		return s
	}
	return &GormCounterStore{db: tx}
}

// Next upserts-and-increments the day's counter row in one statement. The
// RETURNING clause makes the read part of the same atomic operation.
func (s *GormCounterStore) Next(ctx context.Context, day string) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Raw(`
INSERT INTO quote_counters (day, last_value)
VALUES (?, 1)
ON CONFLICT (day) DO UPDATE SET last_value = quote_counters.last_value + 1
RETURNING last_value`, day).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
