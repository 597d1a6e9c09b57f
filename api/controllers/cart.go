package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lmoraes-dev/exportdesk-backend/api/responses"
	"github.com/lmoraes-dev/exportdesk-backend/api/validators"
	"github.com/lmoraes-dev/exportdesk-backend/internal/cart"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	pkgerrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

type addCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// AddCartLine puts a product into the caller's cart, accumulating quantity
// for repeated adds.
func AddCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Add(r.Context(), buyerID, payload.ProductID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "added"})
	}
}

type setCartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartLine replaces the quantity of one product already in the cart.
func UpdateCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setCartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetQuantity(r.Context(), buyerID, productID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ListCart returns the caller's cart with product snapshots.
func ListCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.List(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]cartLineResponse, 0, len(lines))
		for _, line := range lines {
			items = append(items, newCartLineResponse(line))
		}
		responses.WriteSuccess(w, items)
	}
}

// RemoveCartLine drops one product from the caller's cart.
func RemoveCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), buyerID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

type cartLineResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	UnitPrice   string    `json:"unit_price,omitempty"`
	Quantity    int       `json:"quantity"`
}

func newCartLineResponse(line models.CartLine) cartLineResponse {
	resp := cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	}
	if line.Product != nil {
		resp.ProductName = line.Product.Name
		resp.UnitPrice = line.Product.EffectivePrice().StringFixed(2)
	}
	return resp
}
