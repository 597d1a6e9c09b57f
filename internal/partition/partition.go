// Package partition splits one multi-supplier cart into per-company groups,
// each with exactly one responsible salesperson. Companies without an active
// salesperson link are skipped (and logged), never failed: one broken
// association must not poison the other companies' quotes.
package partition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

// LinkResolver looks up the active salesperson link for a company. A nil
// link with a nil error means the company has no active salesperson.
type LinkResolver interface {
	FindFirstActiveByCompany(ctx context.Context, companyID uuid.UUID) (*models.SalespersonCompanyLink, error)
}

// Line is one cart line carried into a group, priced at checkout time.
type Line struct {
	CartLineID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Group is the subset of a cart belonging to one company, ready to become a
// quote.
type Group struct {
	CompanyID     uuid.UUID
	SalespersonID uuid.UUID
	Lines         []Line
}

// Result carries the surviving groups and the companies that were skipped.
type Result struct {
	Groups  []Group
	Skipped []uuid.UUID
}

// Partitioner groups cart lines and resolves salespeople.
type Partitioner struct {
	links LinkResolver
	logg  *logger.Logger
}

// New builds a Partitioner.
func New(links LinkResolver, logg *logger.Logger) (*Partitioner, error) {
	if links == nil {
		return nil, fmt.Errorf("link resolver required")
	}
	return &Partitioner{links: links, logg: logg}, nil
}

// Partition groups the cart lines by the owning company of each product and
// resolves one active salesperson per group. Group order follows the first
// appearance of each company in the cart, so results are deterministic.
// Every line must carry its preloaded product; lines are priced with the
// promotional price when one is set.
func (p *Partitioner) Partition(ctx context.Context, cartLines []models.CartLine) (Result, error) {
	grouped := make(map[uuid.UUID][]Line, len(cartLines))
	order := make([]uuid.UUID, 0, len(cartLines))

	for _, cartLine := range cartLines {
		if cartLine.Product == nil {
			return Result{}, fmt.Errorf("cart line %s is missing its product", cartLine.ID)
		}
		companyID := cartLine.Product.CompanyID
		if _, seen := grouped[companyID]; !seen {
			order = append(order, companyID)
		}
		grouped[companyID] = append(grouped[companyID], Line{
			CartLineID:  cartLine.ID,
			ProductID:   cartLine.ProductID,
			ProductName: cartLine.Product.Name,
			Quantity:    cartLine.Quantity,
			UnitPrice:   cartLine.Product.EffectivePrice(),
		})
	}

	result := Result{
		Groups:  make([]Group, 0, len(order)),
		Skipped: nil,
	}

	for _, companyID := range order {
		link, err := p.links.FindFirstActiveByCompany(ctx, companyID)
		if err != nil {
			return Result{}, fmt.Errorf("resolving salesperson for company %s: %w", companyID, err)
		}
		if link == nil {
			p.logSkip(ctx, companyID, len(grouped[companyID]))
			result.Skipped = append(result.Skipped, companyID)
			continue
		}
		result.Groups = append(result.Groups, Group{
			CompanyID:     companyID,
			SalespersonID: link.SalespersonID,
			Lines:         grouped[companyID],
		})
	}

	return result, nil
}

func (p *Partitioner) logSkip(ctx context.Context, companyID uuid.UUID, lineCount int) {
	if p.logg == nil {
		return
	}
	ctx = p.logg.WithFields(ctx, map[string]any{
		"company_id": companyID.String(),
		"line_count": lineCount,
	})
	p.logg.Warn(ctx, "company has no active salesperson, skipping partition")
}
