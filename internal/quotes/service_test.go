package quotes

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lmoraes-dev/exportdesk-backend/internal/cart"
	"github.com/lmoraes-dev/exportdesk-backend/internal/catalog"
	"github.com/lmoraes-dev/exportdesk-backend/internal/numbering"
	"github.com/lmoraes-dev/exportdesk-backend/internal/partition"
	"github.com/lmoraes-dev/exportdesk-backend/internal/pricing"
	"github.com/lmoraes-dev/exportdesk-backend/internal/rates"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	apperrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubLinkResolver struct {
	links map[uuid.UUID]uuid.UUID
}

func (s stubLinkResolver) FindFirstActiveByCompany(_ context.Context, companyID uuid.UUID) (*models.SalespersonCompanyLink, error) {
	salespersonID, ok := s.links[companyID]
	if !ok {
		return nil, nil
	}
	return &models.SalespersonCompanyLink{SalespersonID: salespersonID, CompanyID: companyID}, nil
}

type stubRateResolver struct {
	resolution rates.Resolution
}

func (s stubRateResolver) Resolve(context.Context) rates.Resolution {
	return s.resolution
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	cartRepo *cart.Repository
	repo     *Repository
	links    map[uuid.UUID]uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  promo_price NUMERIC,
  unit_weight_kg NUMERIC NOT NULL DEFAULT 0,
  unit_volume_m3 NUMERIC NOT NULL DEFAULT 0,
  units_per_box INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE cart_lines (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (buyer_id, product_id)
);

CREATE TABLE quotes (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  company_id TEXT NOT NULL,
  salesperson_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'BRL',
  status TEXT NOT NULL DEFAULT 'draft',
  subtotal NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  freight NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  incoterm TEXT,
  destination_port TEXT,
  freight_mode TEXT,
  transit_days INTEGER,
  gross_weight_kg NUMERIC,
  volume_m3 NUMERIC,
  box_count INTEGER,
  intl_freight_usd NUMERIC,
  intl_insurance_usd NUMERIC,
  customs_fees_usd NUMERIC,
  exchange_rate NUMERIC NOT NULL,
  rate_source TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE quote_lines (
  id TEXT PRIMARY KEY,
  quote_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE quote_counters (
  day TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL
);`).Error)

	links := make(map[uuid.UUID]uuid.UUID)
	partitioner, err := partition.New(stubLinkResolver{links: links}, nil)
	require.NoError(t, err)

	cartRepo := cart.NewRepository(db)
	repo := NewRepository(db)
	svc, err := NewService(
		testTxRunner{db: db},
		repo,
		cartRepo,
		catalog.NewProductRepository(db),
		partitioner,
		stubRateResolver{resolution: rates.Resolution{
			Rate:   decimal.RequireFromString("5.00"),
			Source: "fallback",
		}},
		numbering.NewGormCounterStore(db),
		nil,
		nil,
	)
	require.NoError(t, err)

	return &fixture{
		db:       db,
		svc:      svc,
		cartRepo: cartRepo,
		repo:     repo,
		links:    links,
	}
}

func (f *fixture) seedProduct(t *testing.T, companyID uuid.UUID, name, price string, promo *string) *models.Product {
	t.Helper()

	product := &models.Product{
		CompanyID: companyID,
		SKU:       uuid.NewString(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
	}
	if promo != nil {
		v := decimal.RequireFromString(*promo)
		product.PromoPrice = &v
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *fixture) seedCartLine(t *testing.T, buyerID uuid.UUID, product *models.Product, quantity int) {
	t.Helper()

	require.NoError(t, f.cartRepo.Upsert(context.Background(), &models.CartLine{
		BuyerID:   buyerID,
		ProductID: product.ID,
		Quantity:  quantity,
	}))
}

func (f *fixture) companyWithSalesperson(companyID uuid.UUID) uuid.UUID {
	salespersonID := uuid.New()
	f.links[companyID] = salespersonID
	return salespersonID
}

func TestFinalizeCheckoutCreatesQuotePerCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyerID := uuid.New()
	companyX := uuid.New()
	companyY := uuid.New()
	salespersonX := f.companyWithSalesperson(companyX)
	f.companyWithSalesperson(companyY)

	tile := f.seedProduct(t, companyX, "Ceramic Tile", "250.00", nil)
	slab := f.seedProduct(t, companyX, "Granite Slab", "500.00", nil)
	pump := f.seedProduct(t, companyY, "Water Pump", "320.00", nil)

	f.seedCartLine(t, buyerID, tile, 2)
	f.seedCartLine(t, buyerID, slab, 1)
	f.seedCartLine(t, buyerID, pump, 3)

	result, err := f.svc.FinalizeCheckout(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, result.Quotes, 2)
	assert.Empty(t, result.SkippedCompanies)
	assert.Empty(t, result.FailedCompanies)

	quoteX := result.Quotes[0]
	assert.Equal(t, companyX, quoteX.CompanyID)
	assert.Equal(t, salespersonX, quoteX.SalespersonID)
	assert.Equal(t, buyerID, quoteX.BuyerID)
	assert.Equal(t, enums.QuoteStatusSent, quoteX.Status)
	assert.Equal(t, "1000.00", quoteX.Subtotal.StringFixed(2))
	assert.Equal(t, "1000.00", quoteX.Total.StringFixed(2))
	assert.Equal(t, "5.00", quoteX.ExchangeRate.StringFixed(2))
	assert.Equal(t, "fallback", quoteX.RateSource)
	assert.True(t, strings.HasPrefix(quoteX.Number, "QT"))
	require.Len(t, quoteX.Lines, 2)

	quoteY := result.Quotes[1]
	assert.Equal(t, companyY, quoteY.CompanyID)
	assert.Equal(t, "960.00", quoteY.Total.StringFixed(2))
	assert.NotEqual(t, quoteX.Number, quoteY.Number)

	// the whole cart was consumed
	remaining, err := f.cartRepo.ListByBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestFinalizeCheckoutSkipsCompanyWithoutSalesperson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyerID := uuid.New()
	companyX := uuid.New()
	companyY := uuid.New()
	f.companyWithSalesperson(companyX)

	tile := f.seedProduct(t, companyX, "Ceramic Tile", "250.00", nil)
	pump := f.seedProduct(t, companyY, "Water Pump", "320.00", nil)
	f.seedCartLine(t, buyerID, tile, 4)
	f.seedCartLine(t, buyerID, pump, 1)

	result, err := f.svc.FinalizeCheckout(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	assert.Equal(t, companyX, result.Quotes[0].CompanyID)
	assert.Equal(t, []uuid.UUID{companyY}, result.SkippedCompanies)

	// the skipped company's cart line survives untouched
	remaining, err := f.cartRepo.ListByBuyer(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, pump.ID, remaining[0].ProductID)
}

func TestFinalizeCheckoutUsesPromoPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyerID := uuid.New()
	companyID := uuid.New()
	f.companyWithSalesperson(companyID)

	promo := "199.90"
	tile := f.seedProduct(t, companyID, "Ceramic Tile", "250.00", &promo)
	f.seedCartLine(t, buyerID, tile, 2)

	result, err := f.svc.FinalizeCheckout(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	require.Len(t, result.Quotes[0].Lines, 1)
	assert.Equal(t, "199.90", result.Quotes[0].Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "399.80", result.Quotes[0].Total.StringFixed(2))
}

func TestFinalizeCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FinalizeCheckout(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestFinalizeCheckoutNoEligibleCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyerID := uuid.New()
	pump := f.seedProduct(t, uuid.New(), "Water Pump", "320.00", nil)
	f.seedCartLine(t, buyerID, pump, 1)

	_, err := f.svc.FinalizeCheckout(ctx, buyerID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.As(err).Code())

	// nothing consumed
	remaining, err := f.cartRepo.ListByBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestCreateDraftQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	companyID := uuid.New()
	tile := f.seedProduct(t, companyID, "Ceramic Tile", "10.00", nil)

	quote, err := f.svc.Create(ctx, CreateInput{
		CompanyID:     companyID,
		SalespersonID: uuid.New(),
		BuyerID:       uuid.New(),
		Lines: []LineInput{
			{ProductID: tile.ID, Quantity: 10, DiscountPercent: decimal.RequireFromString("5")},
		},
		Freight: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.QuoteStatusDraft, quote.Status)
	assert.Equal(t, enums.CurrencyBRL, quote.Currency)
	assert.True(t, strings.HasPrefix(quote.Number, "QT"))
	assert.Equal(t, "95.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "145.00", quote.Total.StringFixed(2))
	assert.Equal(t, "fallback", quote.RateSource)

	stored, err := f.svc.Get(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "95.00", stored.Lines[0].Total.StringFixed(2))
}

func TestCreateRejectsForeignProduct(t *testing.T) {
	f := newFixture(t)

	companyID := uuid.New()
	foreign := f.seedProduct(t, uuid.New(), "Water Pump", "320.00", nil)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CompanyID:     companyID,
		SalespersonID: uuid.New(),
		BuyerID:       uuid.New(),
		Lines:         []LineInput{{ProductID: foreign.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestAmendReplacesLinesAndRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	companyID := uuid.New()
	tile := f.seedProduct(t, companyID, "Ceramic Tile", "10.00", nil)
	slab := f.seedProduct(t, companyID, "Granite Slab", "500.00", nil)

	quote, err := f.svc.Create(ctx, CreateInput{
		CompanyID:     companyID,
		SalespersonID: uuid.New(),
		BuyerID:       uuid.New(),
		Lines:         []LineInput{{ProductID: tile.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "30.00", quote.Total.StringFixed(2))

	freight := decimal.RequireFromString("120.00")
	amended, err := f.svc.Amend(ctx, quote.ID, AmendInput{
		Lines: []LineInput{
			{ProductID: slab.ID, Quantity: 2},
		},
		Freight: &freight,
	})
	require.NoError(t, err)

	require.Len(t, amended.Lines, 1)
	assert.Equal(t, slab.ID, amended.Lines[0].ProductID)
	assert.Equal(t, "1000.00", amended.Subtotal.StringFixed(2))
	assert.Equal(t, "1120.00", amended.Total.StringFixed(2))
	assert.Equal(t, quote.Number, amended.Number)
}

func TestAmendTerminalQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quote := f.seedQuote(t, enums.QuoteStatusApproved)

	_, err := f.svc.Amend(ctx, quote.ID, AmendInput{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStateConflict, apperrors.As(err).Code())
}

func TestTransitionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quote := f.seedQuote(t, enums.QuoteStatusDraft)

	sent, err := f.svc.Transition(ctx, quote.ID, enums.QuoteStatusSent)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusSent, sent.Status)

	approved, err := f.svc.Transition(ctx, quote.ID, enums.QuoteStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusApproved, approved.Status)

	// terminal states admit nothing further
	_, err = f.svc.Transition(ctx, quote.ID, enums.QuoteStatusExpired)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStateConflict, apperrors.As(err).Code())

	// status unchanged by the failed transition
	stored, err := f.svc.Get(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusApproved, stored.Status)
}

func TestTransitionSentBackToDraftRejected(t *testing.T) {
	f := newFixture(t)

	quote := f.seedQuote(t, enums.QuoteStatusSent)

	_, err := f.svc.Transition(context.Background(), quote.ID, enums.QuoteStatusDraft)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStateConflict, apperrors.As(err).Code())
}

func TestTransitionUnknownStatus(t *testing.T) {
	f := newFixture(t)

	quote := f.seedQuote(t, enums.QuoteStatusDraft)

	_, err := f.svc.Transition(context.Background(), quote.ID, enums.QuoteStatus("shipped"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.seedQuote(t, enums.QuoteStatusDraft)
	require.NoError(t, f.svc.Delete(ctx, draft.ID))
	_, err := f.svc.Get(ctx, draft.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code())

	approved := f.seedQuote(t, enums.QuoteStatusApproved)
	err = f.svc.Delete(ctx, approved.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStateConflict, apperrors.As(err).Code())

	rejected := f.seedQuote(t, enums.QuoteStatusRejected)
	require.NoError(t, f.svc.Delete(ctx, rejected.ID))
}

func TestStoredTotalsMatchRecomputation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyerID := uuid.New()
	companyID := uuid.New()
	f.companyWithSalesperson(companyID)

	tile := f.seedProduct(t, companyID, "Ceramic Tile", "33.33", nil)
	slab := f.seedProduct(t, companyID, "Granite Slab", "499.99", nil)
	f.seedCartLine(t, buyerID, tile, 7)
	f.seedCartLine(t, buyerID, slab, 3)

	result, err := f.svc.FinalizeCheckout(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)

	stored, err := f.svc.Get(ctx, result.Quotes[0].ID)
	require.NoError(t, err)

	// re-deriving from the stored lines lands on the stored aggregates
	recomputed := decimal.Zero
	for _, line := range stored.Lines {
		lineTotal := pricing.LineTotal(line.Quantity, line.UnitPrice, line.DiscountPercent)
		assert.Equal(t, line.Total.StringFixed(2), lineTotal.StringFixed(2))
		recomputed = recomputed.Add(lineTotal)
	}
	assert.Equal(t, stored.Subtotal.StringFixed(2), recomputed.StringFixed(2))
	assert.Equal(t, stored.Total.StringFixed(2), recomputed.Sub(stored.Discount).Add(stored.Freight).Round(2).StringFixed(2))
}

func (f *fixture) seedQuote(t *testing.T, status enums.QuoteStatus) *models.Quote {
	t.Helper()

	quote := &models.Quote{
		Number:        "QT" + uuid.NewString(),
		CompanyID:     uuid.New(),
		SalespersonID: uuid.New(),
		BuyerID:       uuid.New(),
		Currency:      enums.CurrencyBRL,
		Status:        status,
		Subtotal:      decimal.RequireFromString("100.00"),
		Total:         decimal.RequireFromString("100.00"),
		ExchangeRate:  decimal.RequireFromString("5.00"),
		RateSource:    "fallback",
		Lines: []models.QuoteLine{{
			ProductID:   uuid.New(),
			ProductName: "Ceramic Tile",
			Quantity:    10,
			UnitPrice:   decimal.RequireFromString("10.00"),
			Total:       decimal.RequireFromString("100.00"),
		}},
	}
	require.NoError(t, f.repo.Create(context.Background(), quote))
	return quote
}

func TestCreateQuoteLogsQuoteNumber(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "test",
		Level:       zerolog.InfoLevel,
		Output:      &buf,
	})

	partitioner, err := partition.New(stubLinkResolver{links: map[uuid.UUID]uuid.UUID{}}, nil)
	require.NoError(t, err)

	svc, err := NewService(
		testTxRunner{db: f.db},
		f.repo,
		f.cartRepo,
		catalog.NewProductRepository(f.db),
		partitioner,
		stubRateResolver{resolution: rates.Resolution{
			Rate:   decimal.RequireFromString("5.00"),
			Source: "fallback",
		}},
		numbering.NewGormCounterStore(f.db),
		nil,
		logg,
	)
	require.NoError(t, err)

	companyID := uuid.New()
	product := f.seedProduct(t, companyID, "Pressure Valve", "95.00", nil)

	quote, err := svc.Create(context.Background(), CreateInput{
		CompanyID:     companyID,
		SalespersonID: uuid.New(),
		BuyerID:       uuid.New(),
		Lines:         []LineInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "quote created")
	assert.Contains(t, out, "quote_number")
	assert.Contains(t, out, quote.Number)
}
