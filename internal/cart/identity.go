package cart

import (
	"sort"
	"strings"
)

// noVariant is the identity sentinel for lines without a selected variant.
const noVariant = "default"

// LineKey derives the deterministic identity of a cart line from the menu
// item, the chosen variant and the chosen add-ons. Add-on names are sorted
// first so selection order never splits the same customization into two
// lines.
func LineKey(menuItemID, variantName string, addOnNames []string) string {
	variant := variantName
	if variant == "" {
		variant = noVariant
	}
	sorted := append([]string(nil), addOnNames...)
	sort.Strings(sorted)
	return menuItemID + "-" + variant + "-" + strings.Join(sorted, ",")
}

// SortedAddOns returns a sorted copy of the add-on names, the canonical form
// stored on a line.
func SortedAddOns(addOnNames []string) []string {
	sorted := append([]string(nil), addOnNames...)
	sort.Strings(sorted)
	return sorted
}
