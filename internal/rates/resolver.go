// Package rates resolves the exchange rate stamped on every quote. The
// resolver walks a fixed degrade chain (administrator override, live
// provider, last good fetch, hard-coded fallback) and never surfaces an
// error: the caller always receives some positive rate, and the source tag
// records where it came from so audits can tell live-market quotes from
// overrides.
package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
)

// SettingsStore reads the administrator rate configuration.
type SettingsStore interface {
	Get(ctx context.Context) (*models.RateSetting, error)
}

// Provider fetches a live rate from an external quotation service.
type Provider interface {
	Name() string
	Quote(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Cache keeps the most recently fetched provider rate per currency pair.
type Cache interface {
	GetLast(ctx context.Context, pair string) (decimal.Decimal, error)
	SetLast(ctx context.Context, pair string, rate decimal.Decimal) error
}

// Resolution is the outcome of a resolver walk.
type Resolution struct {
	Rate   decimal.Decimal
	Source string
}

// Resolver implements the degrade chain.
type Resolver struct {
	settings SettingsStore
	provider Provider
	cache    Cache
	fallback decimal.Decimal
	from     string
	to       string
	logg     *logger.Logger
}

// NewResolver wires the resolver. Settings and cache may be nil; those rungs
// are then skipped. The fallback rate must be strictly positive.
func NewResolver(settings SettingsStore, provider Provider, cache Cache, fallback decimal.Decimal, from, to string, logg *logger.Logger) (*Resolver, error) {
	if provider == nil {
		return nil, fmt.Errorf("rate provider required")
	}
	if !fallback.IsPositive() {
		return nil, fmt.Errorf("fallback rate must be positive, got %s", fallback)
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("currency pair required")
	}
	return &Resolver{
		settings: settings,
		provider: provider,
		cache:    cache,
		fallback: fallback,
		from:     from,
		to:       to,
		logg:     logg,
	}, nil
}

func (r *Resolver) pair() string {
	return r.from + r.to
}

// Resolve returns a strictly positive rate and its provenance tag. The walk
// is: custom override, live provider, cached last fetch, fallback constant.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	if r.settings != nil {
		setting, err := r.settings.Get(ctx)
		switch {
		case err != nil:
			r.warn(ctx, "rate settings unavailable, continuing chain", err)
		case setting != nil && setting.UseCustomRate:
			if setting.CustomRate.IsPositive() {
				return Resolution{Rate: setting.CustomRate, Source: enums.RateSourceCustom.String()}
			}
			r.warn(ctx, "custom rate enabled but not positive, continuing chain", nil)
		}
	}

	rate, err := r.provider.Quote(ctx, r.from, r.to)
	if err == nil && rate.IsPositive() {
		if r.cache != nil {
			if cerr := r.cache.SetLast(ctx, r.pair(), rate); cerr != nil {
				r.warn(ctx, "failed to cache provider rate", cerr)
			}
		}
		return Resolution{Rate: rate, Source: r.provider.Name()}
	}
	if err != nil {
		r.warn(ctx, "rate provider failed, trying cached rate", err)
	}

	if r.cache != nil {
		cached, cerr := r.cache.GetLast(ctx, r.pair())
		if cerr == nil && cached.IsPositive() {
			return Resolution{Rate: cached, Source: enums.RateSourceCached.String()}
		}
		if cerr != nil {
			r.warn(ctx, "cached rate unavailable, using fallback", cerr)
		}
	}

	return Resolution{Rate: r.fallback, Source: enums.RateSourceFallback.String()}
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	if err != nil {
		ctx = r.logg.WithField(ctx, "error", err.Error())
	}
	r.logg.Warn(ctx, msg)
}
