package pricing

import (
	"sort"
	"strings"
)

// Zone is a coarse geographic bucket with a flat delivery fee and the areas
// it covers.
type Zone struct {
	Code  string   `json:"code"`
	Fee   Money    `json:"fee"`
	Areas []string `json:"areas"`
}

// Zones maps zone codes to their configuration.
type Zones map[string]Zone

// FreeDeliveryThreshold is the default subtotal at which delivery becomes free.
const FreeDeliveryThreshold Money = 20000

// DefaultZones returns the delivery zones the storefront ships with.
func DefaultZones() Zones {
	return Zones{
		"A": {Code: "A", Fee: 500, Areas: []string{"Enerhen", "PTI Rd", "Effurun", "Airport Rd"}},
		"B": {Code: "B", Fee: 800, Areas: []string{"Udu Rd", "DSC", "Ovwian", "Okuokoko"}},
		"C": {Code: "C", Fee: 1200, Areas: []string{"Ekpan", "Jeddo", "Ugborikoko", "Jakpa"}},
	}
}

// DeliveryFee resolves the fee for a zone given the cart subtotal. The fee is
// waived when the subtotal reaches freeThreshold, boundary inclusive. In
// lenient mode an unknown zone falls back to defaultZone.
func DeliveryFee(zones Zones, zone string, subtotal, freeThreshold Money, mode Mode, defaultZone string) (Money, error) {
	if subtotal >= freeThreshold {
		return 0, nil
	}
	z, ok := zones[zone]
	if !ok {
		if mode == Strict {
			return 0, ErrUnknownZone
		}
		z, ok = zones[defaultZone]
		if !ok {
			return 0, ErrUnknownZone
		}
	}
	return z.Fee, nil
}

// ZoneFromArea resolves the zone covering an area by case-insensitive
// substring match, defaulting to defaultZone when no zone matches. Zone codes
// are checked in sorted order so an area covered by two zones always resolves
// to the same one.
func ZoneFromArea(zones Zones, area, defaultZone string) string {
	needle := strings.ToLower(strings.TrimSpace(area))
	if needle == "" {
		return defaultZone
	}
	codes := make([]string, 0, len(zones))
	for code := range zones {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		for _, a := range zones[code].Areas {
			if strings.Contains(strings.ToLower(a), needle) || strings.Contains(needle, strings.ToLower(a)) {
				return code
			}
		}
	}
	return defaultZone
}
