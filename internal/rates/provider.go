package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/config"
)

// HTTPProvider fetches live rates from a quotation endpoint that answers
// GET <base>/<FROM>-<TO> with a JSON object keyed by the concatenated pair,
// e.g. {"USDBRL": {"bid": "5.42"}}.
type HTTPProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewHTTPProvider builds the provider from exchange configuration.
func NewHTTPProvider(cfg config.ExchangeConfig) *HTTPProvider {
	timeout := cfg.ProviderTO
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		name:    cfg.ProviderName,
		baseURL: strings.TrimRight(cfg.ProviderURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider; it becomes the rate source tag on quotes.
func (p *HTTPProvider) Name() string {
	return p.name
}

type providerQuote struct {
	Bid string `json:"bid"`
}

// Quote fetches the current bid for the currency pair.
func (p *HTTPProvider) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s-%s", p.baseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var payload map[string]providerQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decoding rate response: %w", err)
	}

	quote, ok := payload[from+to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate response missing pair %s%s", from, to)
	}

	rate, err := decimal.NewFromString(quote.Bid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing rate %q: %w", quote.Bid, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate provider returned non-positive rate %s", rate)
	}
	return rate, nil
}
