package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/api/middleware"
	"github.com/lmoraes-dev/exportdesk-backend/api/responses"
	"github.com/lmoraes-dev/exportdesk-backend/api/validators"
	"github.com/lmoraes-dev/exportdesk-backend/internal/pricing"
	"github.com/lmoraes-dev/exportdesk-backend/internal/quotes"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	pkgerrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

type createQuoteRequest struct {
	CompanyID uuid.UUID           `json:"company_id" validate:"required"`
	BuyerID   uuid.UUID           `json:"buyer_id" validate:"required"`
	Currency  string              `json:"currency"`
	Lines     []quotes.LineInput  `json:"lines" validate:"required,min=1,dive"`
	Discount  decimal.Decimal     `json:"discount"`
	Freight   decimal.Decimal     `json:"freight"`
	Export    *quotes.ExportInput `json:"export,omitempty"`
}

type amendQuoteRequest struct {
	Lines    []quotes.LineInput  `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	Discount *decimal.Decimal    `json:"discount,omitempty"`
	Freight  *decimal.Decimal    `json:"freight,omitempty"`
	Export   *quotes.ExportInput `json:"export,omitempty"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateQuote lets a salesperson author a draft quote directly.
func CreateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		salespersonID, err := salespersonIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sanitizeExport(payload.Export)

		quote, err := svc.Create(r.Context(), quotes.CreateInput{
			CompanyID:     payload.CompanyID,
			SalespersonID: salespersonID,
			BuyerID:       payload.BuyerID,
			Currency:      enums.Currency(payload.Currency),
			Lines:         payload.Lines,
			Discount:      payload.Discount,
			Freight:       payload.Freight,
			Export:        payload.Export,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newQuoteResponse(quote))
	}
}

// GetQuote fetches one quote with its lines.
func GetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newQuoteResponse(quote))
	}
}

// ListQuotes lists quotes scoped to the calling principal.
func ListQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := quotes.ListFilter{Limit: limit, Offset: offset}

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, perr := enums.ParseQuoteStatus(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown quote status"))
				return
			}
			filter.Status = &status
		}

		// Buyers see their own quotes, salespeople theirs; admins see all.
		switch middleware.RoleFromContext(r.Context()) {
		case string(enums.ActorRoleBuyer):
			buyerID, berr := buyerIDFromContext(r)
			if berr != nil {
				responses.WriteError(r.Context(), logg, w, berr)
				return
			}
			filter.BuyerID = &buyerID
		case string(enums.ActorRoleSalesperson):
			salespersonID, serr := salespersonIDFromContext(r)
			if serr != nil {
				responses.WriteError(r.Context(), logg, w, serr)
				return
			}
			filter.SalespersonID = &salespersonID
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]quoteResponse, 0, len(list))
		for i := range list {
			items = append(items, newQuoteResponse(&list[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// UpdateQuote amends a quote, or performs a lifecycle transition when the
// body is exactly {"status": ...}.
func UpdateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		if _, hasStatus := probe["status"]; hasStatus && len(probe) == 1 {
			var payload statusRequest
			if err := json.Unmarshal(body, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
				return
			}
			if err := validators.ValidateStruct(&payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			status, perr := enums.ParseQuoteStatus(payload.Status)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown quote status"))
				return
			}
			quote, terr := svc.Transition(r.Context(), id, status)
			if terr != nil {
				responses.WriteError(r.Context(), logg, w, terr)
				return
			}
			responses.WriteSuccess(w, newQuoteResponse(quote))
			return
		}

		var payload amendQuoteRequest
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}
		if err := validators.ValidateStruct(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sanitizeExport(payload.Export)

		quote, err := svc.Amend(r.Context(), id, quotes.AmendInput{
			Lines:    payload.Lines,
			Discount: payload.Discount,
			Freight:  payload.Freight,
			Export:   payload.Export,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteResponse(quote))
	}
}

// DeleteQuote removes a draft or rejected quote.
func DeleteQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type quoteResponse struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	CompanyID     uuid.UUID           `json:"company_id"`
	SalespersonID uuid.UUID           `json:"salesperson_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	Currency      string              `json:"currency"`
	Status        string              `json:"status"`
	Subtotal      string              `json:"subtotal"`
	Discount      string              `json:"discount"`
	Freight       string              `json:"freight"`
	Total         string              `json:"total"`
	ExchangeRate  string              `json:"exchange_rate"`
	RateSource    string              `json:"rate_source"`
	CIFTotal      string              `json:"cif_total"`
	Export        *exportResponse     `json:"export,omitempty"`
	Lines         []quoteLineResponse `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type exportResponse struct {
	Incoterm         string `json:"incoterm,omitempty"`
	DestinationPort  string `json:"destination_port,omitempty"`
	FreightMode      string `json:"freight_mode,omitempty"`
	TransitDays      *int   `json:"transit_days,omitempty"`
	GrossWeightKg    string `json:"gross_weight_kg,omitempty"`
	VolumeM3         string `json:"volume_m3,omitempty"`
	BoxCount         *int   `json:"box_count,omitempty"`
	IntlFreightUSD   string `json:"intl_freight_usd,omitempty"`
	IntlInsuranceUSD string `json:"intl_insurance_usd,omitempty"`
	CustomsFeesUSD   string `json:"customs_fees_usd,omitempty"`
}

func newExportResponse(quote *models.Quote) *exportResponse {
	if quote.Incoterm == nil && quote.DestinationPort == nil && quote.FreightMode == nil &&
		quote.TransitDays == nil && quote.GrossWeightKg == nil && quote.VolumeM3 == nil &&
		quote.BoxCount == nil && quote.IntlFreightUSD == nil && quote.IntlInsuranceUSD == nil &&
		quote.CustomsFeesUSD == nil {
		return nil
	}

	export := &exportResponse{
		TransitDays: quote.TransitDays,
		BoxCount:    quote.BoxCount,
	}
	if quote.Incoterm != nil {
		export.Incoterm = quote.Incoterm.String()
	}
	if quote.DestinationPort != nil {
		export.DestinationPort = *quote.DestinationPort
	}
	if quote.FreightMode != nil {
		export.FreightMode = quote.FreightMode.String()
	}
	if quote.GrossWeightKg != nil {
		export.GrossWeightKg = quote.GrossWeightKg.StringFixed(3)
	}
	if quote.VolumeM3 != nil {
		export.VolumeM3 = quote.VolumeM3.StringFixed(4)
	}
	if quote.IntlFreightUSD != nil {
		export.IntlFreightUSD = quote.IntlFreightUSD.StringFixed(2)
	}
	if quote.IntlInsuranceUSD != nil {
		export.IntlInsuranceUSD = quote.IntlInsuranceUSD.StringFixed(2)
	}
	if quote.CustomsFeesUSD != nil {
		export.CustomsFeesUSD = quote.CustomsFeesUSD.StringFixed(2)
	}
	return export
}

type quoteLineResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Quantity        int       `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
	DiscountPercent string    `json:"discount_percent"`
	Total           string    `json:"total"`
}

func newQuoteResponse(quote *models.Quote) quoteResponse {
	intlFreight := decimal.Zero
	if quote.IntlFreightUSD != nil {
		intlFreight = *quote.IntlFreightUSD
	}

	lines := make([]quoteLineResponse, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, quoteLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice.StringFixed(2),
			DiscountPercent: line.DiscountPercent.StringFixed(2),
			Total:           line.Total.StringFixed(2),
		})
	}
	return quoteResponse{
		ID:            quote.ID,
		Number:        quote.Number,
		CompanyID:     quote.CompanyID,
		SalespersonID: quote.SalespersonID,
		BuyerID:       quote.BuyerID,
		Currency:      quote.Currency.String(),
		Status:        quote.Status.String(),
		Subtotal:      quote.Subtotal.StringFixed(2),
		Discount:      quote.Discount.StringFixed(2),
		Freight:       quote.Freight.StringFixed(2),
		Total:         quote.Total.StringFixed(2),
		ExchangeRate:  quote.ExchangeRate.String(),
		RateSource:    quote.RateSource,
		CIFTotal:      pricing.CIFTotal(quote.Subtotal, quote.ExchangeRate, intlFreight).StringFixed(2),
		Export:        newExportResponse(quote),
		Lines:         lines,
		CreatedAt:     quote.CreatedAt,
		UpdatedAt:     quote.UpdatedAt,
	}
}

func sanitizeExport(export *quotes.ExportInput) {
	if export == nil || export.DestinationPort == nil {
		return
	}
	cleaned := validators.SanitizeString(*export.DestinationPort, 120)
	export.DestinationPort = &cleaned
}
