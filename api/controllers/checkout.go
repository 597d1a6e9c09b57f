package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lmoraes-dev/exportdesk-backend/api/middleware"
	"github.com/lmoraes-dev/exportdesk-backend/api/responses"
	"github.com/lmoraes-dev/exportdesk-backend/internal/quotes"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	pkgerrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

type companyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type salespersonLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Salesperson, error)
}

// Checkout converts the caller's cart into per-company quotes.
func Checkout(svc quotes.Service, companies companyLoader, salespeople salespersonLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.FinalizeCheckout(r.Context(), buyerID)
		if err != nil {
			// Partial failures still report the error; the created quotes
			// are persisted and discoverable through the quote listing.
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(r.Context(), result, companies, salespeople))
	}
}

type checkoutResponse struct {
	Quotes           []checkoutQuoteResponse `json:"quotes"`
	SkippedCompanies []uuid.UUID             `json:"skipped_companies,omitempty"`
}

type checkoutQuoteResponse struct {
	QuoteID         uuid.UUID `json:"quote_id"`
	Number          string    `json:"number"`
	CompanyName     string    `json:"company_name"`
	SalespersonName string    `json:"salesperson_name"`
	Total           string    `json:"total"`
	Status          string    `json:"status"`
}

func newCheckoutResponse(ctx context.Context, result *quotes.CheckoutResult, companies companyLoader, salespeople salespersonLoader) checkoutResponse {
	response := checkoutResponse{
		Quotes:           make([]checkoutQuoteResponse, 0, len(result.Quotes)),
		SkippedCompanies: result.SkippedCompanies,
	}

	companyNames := map[uuid.UUID]string{}
	salespersonNames := map[uuid.UUID]string{}

	for _, quote := range result.Quotes {
		companyName, ok := companyNames[quote.CompanyID]
		if !ok && companies != nil {
			if company, err := companies.FindByID(ctx, quote.CompanyID); err == nil && company != nil {
				companyName = company.Name
			}
			companyNames[quote.CompanyID] = companyName
		}
		salespersonName, ok := salespersonNames[quote.SalespersonID]
		if !ok && salespeople != nil {
			if salesperson, err := salespeople.FindByID(ctx, quote.SalespersonID); err == nil && salesperson != nil {
				salespersonName = salesperson.Name
			}
			salespersonNames[quote.SalespersonID] = salespersonName
		}

		response.Quotes = append(response.Quotes, checkoutQuoteResponse{
			QuoteID:         quote.ID,
			Number:          quote.Number,
			CompanyName:     companyName,
			SalespersonName: salespersonName,
			Total:           quote.Total.StringFixed(2),
			Status:          quote.Status.String(),
		})
	}
	return response
}

func buyerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.BuyerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyer profile required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyer profile required")
	}
	return id, nil
}

func salespersonIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SalespersonIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "salesperson profile required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "salesperson profile required")
	}
	return id, nil
}
