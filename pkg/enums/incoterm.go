package enums

import "fmt"

// Incoterm captures the international commercial term negotiated for an
// export quote.
type Incoterm string

const (
	IncotermEXW Incoterm = "EXW"
	IncotermFOB Incoterm = "FOB"
	IncotermCFR Incoterm = "CFR"
	IncotermCIF Incoterm = "CIF"
)

var validIncoterms = []Incoterm{
	IncotermEXW,
	IncotermFOB,
	IncotermCFR,
	IncotermCIF,
}

// String implements fmt.Stringer.
func (i Incoterm) String() string {
	return string(i)
}

// IsValid reports whether the value is a known Incoterm.
func (i Incoterm) IsValid() bool {
	for _, candidate := range validIncoterms {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIncoterm converts raw input into an Incoterm.
func ParseIncoterm(value string) (Incoterm, error) {
	for _, candidate := range validIncoterms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid incoterm %q", value)
}
