package enums

import "fmt"

// FreightMode is the transport mode for an export shipment.
type FreightMode string

const (
	FreightModeSea  FreightMode = "sea"
	FreightModeAir  FreightMode = "air"
	FreightModeRoad FreightMode = "road"
)

var validFreightModes = []FreightMode{
	FreightModeSea,
	FreightModeAir,
	FreightModeRoad,
}

// String implements fmt.Stringer.
func (f FreightMode) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FreightMode.
func (f FreightMode) IsValid() bool {
	for _, candidate := range validFreightModes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFreightMode converts raw input into a FreightMode.
func ParseFreightMode(value string) (FreightMode, error) {
	for _, candidate := range validFreightModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid freight mode %q", value)
}
