// Package quotes implements quote creation, amendment and lifecycle
// management for the sales desk.
package quotes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	"github.com/lmoraes-dev/exportdesk-backend/pkg/metrics"
)

// numberPrefix is the document class tag leading every quote number.
const numberPrefix = "QT"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartPartitioner interface {
	Partition(ctx context.Context, lines []models.CartLine) (partition.Result, error)
}

type rateResolver interface {
	Resolve(ctx context.Context) rates.Resolution
}

// Service executes quote orchestration.
type Service interface {
	FinalizeCheckout(ctx context.Context, buyerID uuid.UUID) (*CheckoutResult, error)
	Create(ctx context.Context, input CreateInput) (*models.Quote, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, filter ListFilter) ([]models.Quote, error)
	Amend(ctx context.Context, id uuid.UUID, input AmendInput) (*models.Quote, error)
	Transition(ctx context.Context, id uuid.UUID, next enums.QuoteStatus) (*models.Quote, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx          txRunner
	repo        *Repository
	cartRepo    *cart.Repository
	products    *catalog.ProductRepository
	partitioner cartPartitioner
	rates       rateResolver
	counters    *numbering.GormCounterStore
	checkout    *metrics.CheckoutMetrics
	logg        *logger.Logger
}

// NewService builds the quote service. Metrics and logger are optional.
func NewService(
	tx txRunner,
	repo *Repository,
	cartRepo *cart.Repository,
	products *catalog.ProductRepository,
	partitioner cartPartitioner,
	resolver rateResolver,
	counters *numbering.GormCounterStore,
	checkout *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if partitioner == nil {
		return nil, fmt.Errorf("partitioner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if counters == nil {
		return nil, fmt.Errorf("counter store required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		cartRepo:    cartRepo,
		products:    products,
		partitioner: partitioner,
		rates:       resolver,
		counters:    counters,
		checkout:    checkout,
		logg:        logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Quote, error) {
	if input.CompanyID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company id required")
	}
	if input.SalespersonID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "salesperson id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "buyer id required")
	}
	if len(input.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one line required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyBRL
	}
	if !currency.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown currency")
	}

	productsByID, err := s.loadLineProducts(ctx, input.CompanyID, input.Lines)
	if err != nil {
		return nil, err
	}
	lines, err := buildLines(input.Lines, productsByID)
	if err != nil {
		return nil, err
	}
	totals := totalsOf(lines, input.Discount, input.Freight)

	resolution := s.rates.Resolve(ctx)

	quote := &models.Quote{
		CompanyID:     input.CompanyID,
		SalespersonID: input.SalespersonID,
		BuyerID:       input.BuyerID,
		Currency:      currency,
		Status:        enums.QuoteStatusDraft,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Freight:       totals.Freight,
		Total:         totals.Total,
		ExchangeRate:  resolution.Rate,
		RateSource:    resolution.Source,
		Lines:         lines,
	}
	applyExport(quote, input.Export)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, nerr := s.nextNumber(ctx, tx)
		if nerr != nil {
			return nerr
		}
		quote.Number = number
		return s.repo.WithTx(tx).Create(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	s.checkout.IncQuotesCreated("manual")
	s.logQuoteCreated(ctx, quote)
	return quote, nil
}

func (s *service) logQuoteCreated(ctx context.Context, quote *models.Quote) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithQuoteNumber(ctx, quote.Number)
	ctx = s.logg.WithCompanyID(ctx, quote.CompanyID.String())
	s.logg.Info(ctx, "quote created")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Quote, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Amend(ctx context.Context, id uuid.UUID, input AmendInput) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsTerminal() {
		return nil, apperrors.New(apperrors.CodeStateConflict, "quote can no longer be amended").
			WithDetails(map[string]string{"status": quote.Status.String()})
	}

	var newLines []models.QuoteLine
	if input.Lines != nil {
		if len(input.Lines) == 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "amended quote needs at least one line")
		}
		productsByID, perr := s.loadLineProducts(ctx, quote.CompanyID, input.Lines)
		if perr != nil {
			return nil, perr
		}
		newLines, err = buildLines(input.Lines, productsByID)
		if err != nil {
			return nil, err
		}
	}

	if input.Discount != nil {
		quote.Discount = *input.Discount
	}
	if input.Freight != nil {
		quote.Freight = *input.Freight
	}
	applyExport(quote, input.Export)

	effectiveLines := quote.Lines
	if newLines != nil {
		effectiveLines = newLines
	}
	totals := totalsOf(effectiveLines, quote.Discount, quote.Freight)
	quote.Subtotal = totals.Subtotal
	quote.Discount = totals.Discount
	quote.Freight = totals.Freight
	quote.Total = totals.Total

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if newLines != nil {
			if rerr := repo.ReplaceLines(ctx, quote.ID, newLines); rerr != nil {
				return rerr
			}
		}
		return repo.Save(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, quote.ID)
}

func (s *service) Transition(ctx context.Context, id uuid.UUID, next enums.QuoteStatus) (*models.Quote, error) {
	if !next.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown quote status")
	}

	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(quote.Status, next) {
		return nil, apperrors.New(apperrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]string{
				"from": quote.Status.String(),
				"to":   next.String(),
			})
	}

	affected, err := s.repo.UpdateStatus(ctx, id, quote.Status, next)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, apperrors.New(apperrors.CodeConflict, "quote status changed concurrently")
	}

	quote.Status = next
	return quote, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !deletable(quote.Status) {
		return apperrors.New(apperrors.CodeStateConflict, "only draft or rejected quotes can be deleted").
			WithDetails(map[string]string{"status": quote.Status.String()})
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}

func (s *service) nextNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	gen, err := numbering.NewGenerator(numberPrefix, s.counters.WithTx(tx))
	if err != nil {
		return "", err
	}
	return gen.NextNumber(ctx)
}

// loadLineProducts fetches every referenced product and verifies it belongs
// to the quote's company.
func (s *service) loadLineProducts(ctx context.Context, companyID uuid.UUID, lines []LineInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeValidation, "unknown product in quote lines").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
		if product.CompanyID != companyID {
			return nil, apperrors.New(apperrors.CodeValidation, "product belongs to another company").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
	}
	return byID, nil
}

func buildLines(inputs []LineInput, productsByID map[uuid.UUID]models.Product) ([]models.QuoteLine, error) {
	lines := make([]models.QuoteLine, 0, len(inputs))
	for _, input := range inputs {
		if input.Quantity <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "line quantity must be positive")
		}
		if input.DiscountPercent.IsNegative() {
			return nil, apperrors.New(apperrors.CodeValidation, "line discount cannot be negative")
		}
		product := productsByID[input.ProductID]
		unitPrice := product.EffectivePrice()
		if input.UnitPrice != nil {
			if input.UnitPrice.IsNegative() {
				return nil, apperrors.New(apperrors.CodeValidation, "line unit price cannot be negative")
			}
			unitPrice = *input.UnitPrice
		}
		lines = append(lines, models.QuoteLine{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        input.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: input.DiscountPercent,
			Total:           pricing.LineTotal(input.Quantity, unitPrice, input.DiscountPercent),
		})
	}
	return lines, nil
}

func totalsOf(lines []models.QuoteLine, discount, freight decimal.Decimal) pricing.Totals {
	pricingLines := make([]pricing.Line, len(lines))
	for i, line := range lines {
		pricingLines[i] = pricing.Line{
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
		}
	}
	return pricing.QuoteTotals(pricingLines, discount, freight)
}

func applyExport(quote *models.Quote, export *ExportInput) {
	if export == nil {
		return
	}
	if export.Incoterm != nil {
		quote.Incoterm = export.Incoterm
	}
	if export.DestinationPort != nil {
		quote.DestinationPort = export.DestinationPort
	}
	if export.FreightMode != nil {
		quote.FreightMode = export.FreightMode
	}
	if export.TransitDays != nil {
		quote.TransitDays = export.TransitDays
	}
	if export.GrossWeightKg != nil {
		quote.GrossWeightKg = export.GrossWeightKg
	}
	if export.VolumeM3 != nil {
		quote.VolumeM3 = export.VolumeM3
	}
	if export.BoxCount != nil {
		quote.BoxCount = export.BoxCount
	}
	if export.IntlFreightUSD != nil {
		quote.IntlFreightUSD = export.IntlFreightUSD
	}
	if export.IntlInsuranceUSD != nil {
		quote.IntlInsuranceUSD = export.IntlInsuranceUSD
	}
	if export.CustomsFeesUSD != nil {
		quote.CustomsFeesUSD = export.CustomsFeesUSD
	}
}
