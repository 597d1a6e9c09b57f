package rates

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/db/models"
)

type stubSettings struct {
	setting *models.RateSetting
	err     error
}

func (s *stubSettings) Get(ctx context.Context) (*models.RateSetting, error) {
	return s.setting, s.err
}

type stubProvider struct {
	rate decimal.Decimal
	err  error
}

func (s *stubProvider) Name() string { return "testprovider" }

func (s *stubProvider) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return s.rate, s.err
}

type stubCache struct {
	last    map[string]decimal.Decimal
	getErr  error
	setErr  error
	setCnt  int
	lastSet decimal.Decimal
}

func (s *stubCache) GetLast(ctx context.Context, pair string) (decimal.Decimal, error) {
	if s.getErr != nil {
		return decimal.Zero, s.getErr
	}
	rate, ok := s.last[pair]
	if !ok {
		return decimal.Zero, errors.New("no cached rate")
	}
	return rate, nil
}

func (s *stubCache) SetLast(ctx context.Context, pair string, rate decimal.Decimal) error {
	s.setCnt++
	s.lastSet = rate
	if s.setErr != nil {
		return s.setErr
	}
	if s.last == nil {
		s.last = map[string]decimal.Decimal{}
	}
	s.last[pair] = rate
	return nil
}

func newTestResolver(t *testing.T, settings SettingsStore, provider Provider, cache Cache) *Resolver {
	t.Helper()
	resolver, err := NewResolver(settings, provider, cache, decimal.NewFromInt(5), "USD", "BRL", nil)
	require.NoError(t, err)
	return resolver
}

func TestResolveCustomRateWins(t *testing.T) {
	settings := &stubSettings{setting: &models.RateSetting{
		UseCustomRate: true,
		CustomRate:    decimal.RequireFromString("5.10"),
	}}
	provider := &stubProvider{rate: decimal.RequireFromString("5.42")}

	got := newTestResolver(t, settings, provider, &stubCache{}).Resolve(context.Background())

	require.Equal(t, "custom", got.Source)
	require.Equal(t, "5.10", got.Rate.StringFixed(2))
}

func TestResolveProviderRateWhenCustomDisabled(t *testing.T) {
	settings := &stubSettings{setting: &models.RateSetting{UseCustomRate: false}}
	provider := &stubProvider{rate: decimal.RequireFromString("5.42")}
	cache := &stubCache{}

	got := newTestResolver(t, settings, provider, cache).Resolve(context.Background())

	require.Equal(t, "testprovider", got.Source)
	require.Equal(t, "5.42", got.Rate.StringFixed(2))
	require.Equal(t, 1, cache.setCnt, "provider rate should be cached")
	require.Equal(t, "5.42", cache.lastSet.StringFixed(2))
}

func TestResolveFallsBackToCachedOnProviderFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("timeout")}
	cache := &stubCache{last: map[string]decimal.Decimal{
		"USDBRL": decimal.RequireFromString("5.38"),
	}}

	got := newTestResolver(t, nil, provider, cache).Resolve(context.Background())

	require.Equal(t, "cached", got.Source)
	require.Equal(t, "5.38", got.Rate.StringFixed(2))
}

func TestResolveFallbackConstantWhenEverythingFails(t *testing.T) {
	settings := &stubSettings{err: errors.New("db down")}
	provider := &stubProvider{err: errors.New("timeout")}
	cache := &stubCache{getErr: errors.New("redis down")}

	got := newTestResolver(t, settings, provider, cache).Resolve(context.Background())

	require.Equal(t, "fallback", got.Source)
	require.Equal(t, "5.00", got.Rate.StringFixed(2))
	require.True(t, got.Rate.IsPositive(), "resolver must always return a usable rate")
}

func TestResolveIgnoresNonPositiveCustomRate(t *testing.T) {
	settings := &stubSettings{setting: &models.RateSetting{
		UseCustomRate: true,
		CustomRate:    decimal.Zero,
	}}
	provider := &stubProvider{rate: decimal.RequireFromString("5.42")}

	got := newTestResolver(t, settings, provider, &stubCache{}).Resolve(context.Background())

	require.Equal(t, "testprovider", got.Source)
}

func TestNewResolverRejectsNonPositiveFallback(t *testing.T) {
	_, err := NewResolver(nil, &stubProvider{}, nil, decimal.Zero, "USD", "BRL", nil)
	require.Error(t, err)
}
