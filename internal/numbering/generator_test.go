package numbering

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type memoryCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryCounterStore) Next(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[day]++
	return m.counts[day], nil
}

func TestNextNumberFormat(t *testing.T) {
	gen, err := NewGenerator("QT", &memoryCounterStore{})
	require.NoError(t, err)
	gen.now = func() time.Time {
		return time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	}

	first, err := gen.NextNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, "QT20260901001", first)

	second, err := gen.NextNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, "QT20260901002", second)
}

func TestNextNumberResetsPerDay(t *testing.T) {
	gen, err := NewGenerator("QT", &memoryCounterStore{})
	require.NoError(t, err)

	day := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)
	gen.now = func() time.Time { return day }
	first, err := gen.NextNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, "QT20260901001", first)

	day = day.Add(2 * time.Minute)
	next, err := gen.NextNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, "QT20260902001", next)
}

func TestNextNumberDistinctUnderConcurrency(t *testing.T) {
	const callers = 100

	gen, err := NewGenerator("QT", &memoryCounterStore{})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, callers)
		errs    []error
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, nerr := gen.NextNumber(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if nerr != nil {
				errs = append(errs, nerr)
				return
			}
			numbers[number] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, callers, "expected %d distinct quote numbers", callers)
}

func TestGormCounterStoreIncrements(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE quote_counters (
  day TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL
);`).Error)

	store := NewGormCounterStore(db)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		got, nerr := store.Next(ctx, "20260901")
		require.NoError(t, nerr)
		require.Equal(t, i, got)
	}

	// A different day starts from one again.
	got, err := store.Next(ctx, "20260902")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestGormCounterStoreDistinctUnderConcurrency(t *testing.T) {
	const callers = 100

	// A file-backed database with a busy timeout lets concurrent goroutines
	// contend on the real upsert statement rather than an in-process stub.
	dsn := "file:" + filepath.Join(t.TempDir(), "counters.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)

	require.NoError(t, db.Exec(`
CREATE TABLE quote_counters (
  day TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL
);`).Error)

	gen, err := NewGenerator("QT", NewGormCounterStore(db))
	require.NoError(t, err)
	gen.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, callers)
		errs    []error
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, nerr := gen.NextNumber(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if nerr != nil {
				errs = append(errs, nerr)
				return
			}
			numbers[number] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, callers, "expected %d distinct quote numbers", callers)

	// The counter row ends exactly at the caller count; no ordinal was
	// skipped or handed out twice.
	var last int64
	require.NoError(t, db.Raw(`SELECT last_value FROM quote_counters WHERE day = ?`, "20260901").Scan(&last).Error)
	require.Equal(t, int64(callers), last)
}

func TestGormCounterStoreInsideTransactionRollback(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE quote_counters (
  day TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL
);`).Error)

	ctx := context.Background()
	store := NewGormCounterStore(db)

	rollbackErr := fmt.Errorf("forced rollback")
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, nerr := store.WithTx(tx).Next(ctx, "20260901"); nerr != nil {
			return nerr
		}
		return rollbackErr
	})
	require.ErrorIs(t, err, rollbackErr)

	// The increment rolled back with the transaction; the next caller gets
	// ordinal one, not two.
	got, err := store.Next(ctx, "20260901")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}
