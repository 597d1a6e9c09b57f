// Package cart manages the buyer's shopping cart.
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmoraes-dev/exportdesk-backend/internal/catalog"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	apperrors "github.com/lmoraes-dev/exportdesk-backend/pkg/errors"
)

// Service exposes the cart operations available to buyers.
type Service interface {
	Add(ctx context.Context, buyerID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) error
	List(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error)
	Remove(ctx context.Context, buyerID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products *catalog.ProductRepository
}

// NewService wires the cart service.
func NewService(repo *Repository, products *catalog.ProductRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, buyerID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, &models.CartLine{
		BuyerID:   buyerID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (s *service) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	affected, err := s.repo.SetQuantity(ctx, buyerID, productID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

func (s *service) Remove(ctx context.Context, buyerID, productID uuid.UUID) error {
	affected, err := s.repo.Remove(ctx, buyerID, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	return nil
}
