package enums

// RateSource records the provenance of the exchange rate stamped on a quote.
// Provider-sourced rates use the provider's own identity string, so only the
// non-provider tags are enumerated here.
type RateSource string

const (
	RateSourceCustom   RateSource = "custom"
	RateSourceCached   RateSource = "cached"
	RateSourceFallback RateSource = "fallback"
)

// String implements fmt.Stringer.
func (r RateSource) String() string {
	return string(r)
}
