package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lmoraes-dev/exportdesk-backend/internal/partition"
	"github.com/lmoraes-dev/exportdesk-backend/internal/pricing"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	apperrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
)

// FinalizeCheckout converts the buyer's cart into one quote per supplier
// company. Each company's quote is created in its own transaction, and that
// transaction also clears exactly the cart lines it consumed, so a failure
// for one company never loses or duplicates another company's quote. Lines
// added to the cart while checkout runs are untouched.
func (s *service) FinalizeCheckout(ctx context.Context, buyerID uuid.UUID) (*CheckoutResult, error) {
	if buyerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "buyer id required")
	}

	start := time.Now()
	defer func() {
		s.checkout.ObserveDuration(time.Since(start))
	}()

	cartLines, err := s.cartRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}

	partitioned, err := s.partitioner.Partition(ctx, cartLines)
	if err != nil {
		return nil, err
	}
	for range partitioned.Skipped {
		s.checkout.IncPartitionsSkipped()
	}
	if len(partitioned.Groups) == 0 {
		return nil, apperrors.New(apperrors.CodeConflict, "no company in the cart has an active salesperson").
			WithDetails(map[string]any{"skipped_companies": partitioned.Skipped})
	}

	// One rate per checkout run keeps every resulting quote consistent.
	resolution := s.rates.Resolve(ctx)

	result := &CheckoutResult{SkippedCompanies: partitioned.Skipped}
	var failures error

	for _, group := range partitioned.Groups {
		quote, cerr := s.commitGroup(ctx, buyerID, group, resolution.Rate, resolution.Source)
		if cerr != nil {
			failures = multierr.Append(failures, fmt.Errorf("company %s: %w", group.CompanyID, cerr))
			result.FailedCompanies = append(result.FailedCompanies, group.CompanyID)
			s.warnCheckout(ctx, group.CompanyID, cerr)
			continue
		}
		result.Quotes = append(result.Quotes, *quote)
		s.checkout.IncQuotesCreated("checkout")
		s.logQuoteCreated(ctx, quote)
	}

	if len(result.Quotes) == 0 {
		return nil, apperrors.Wrap(apperrors.CodePartition, failures, "checkout failed for every company").
			WithDetails(map[string]any{"failed_companies": result.FailedCompanies})
	}
	if failures != nil {
		return result, apperrors.Wrap(apperrors.CodePartition, failures,
			fmt.Sprintf("checkout failed for %d of %d companies", len(result.FailedCompanies), len(partitioned.Groups))).
			WithDetails(map[string]any{"failed_companies": result.FailedCompanies})
	}
	return result, nil
}

// commitGroup creates one quote and clears its cart lines atomically.
func (s *service) commitGroup(ctx context.Context, buyerID uuid.UUID, group partition.Group, rate decimal.Decimal, rateSource string) (*models.Quote, error) {
	lines := make([]models.QuoteLine, 0, len(group.Lines))
	pricingLines := make([]pricing.Line, 0, len(group.Lines))
	cartLineIDs := make([]uuid.UUID, 0, len(group.Lines))
	for _, line := range group.Lines {
		lines = append(lines, models.QuoteLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       pricing.LineTotal(line.Quantity, line.UnitPrice, decimal.Zero),
		})
		pricingLines = append(pricingLines, pricing.Line{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
		cartLineIDs = append(cartLineIDs, line.CartLineID)
	}
	totals := pricing.QuoteTotals(pricingLines, decimal.Zero, decimal.Zero)

	quote := &models.Quote{
		CompanyID:     group.CompanyID,
		SalespersonID: group.SalespersonID,
		BuyerID:       buyerID,
		Currency:      enums.CurrencyBRL,
		Status:        enums.QuoteStatusSent,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Freight:       totals.Freight,
		Total:         totals.Total,
		ExchangeRate:  rate,
		RateSource:    rateSource,
		Lines:         lines,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, nerr := s.nextNumber(ctx, tx)
		if nerr != nil {
			return nerr
		}
		quote.Number = number
		if cerr := s.repo.WithTx(tx).Create(ctx, quote); cerr != nil {
			return cerr
		}
		return s.cartRepo.WithTx(tx).DeleteByIDs(ctx, cartLineIDs)
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) warnCheckout(ctx context.Context, companyID uuid.UUID, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithCompanyID(ctx, companyID.String())
	s.logg.Error(ctx, "checkout partition failed", err)
}
