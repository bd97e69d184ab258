package engine

import "strings"

// Dimension names one facet of FilterState.
type Dimension string

const (
	DimensionSearch  Dimension = "search"
	DimensionTypes   Dimension = "types"
	DimensionService Dimension = "service"
	DimensionAccess  Dimension = "access"
)

// Chip is an active, non-default filter. Clearing a chip resets its Dimension.
type Chip struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
}

// ActiveFilters lists chips in dimension order. ClearAll is set when there is
// at least one chip.
type ActiveFilters struct {
	Chips    []Chip `json:"chips"`
	ClearAll bool   `json:"clearAll"`
}

// Chips describes the non-default dimensions of f. A type chip appears only
// for a partial selection; an empty selection has no chip.
func Chips(f FilterState) ActiveFilters {
	chips := make([]Chip, 0, 4)
	if f.Search != "" {
		chips = append(chips, Chip{Dimension: DimensionSearch, Label: "Search: " + f.Search})
	}
	if n := f.Types.Len(); n > 0 && n < len(AllTypeSet.Types()) {
		chips = append(chips, Chip{Dimension: DimensionTypes, Label: "Types: " + strings.Join(f.Types.Strings(), ", ")})
	}
	if f.Service != "" {
		chips = append(chips, Chip{Dimension: DimensionService, Label: "Service: " + f.Service})
	}
	if f.Access != "" {
		chips = append(chips, Chip{Dimension: DimensionAccess, Label: "Access: " + f.Access})
	}
	return ActiveFilters{Chips: chips, ClearAll: len(chips) > 0}
}

// Clear resets dimension d of f to its default.
func (f FilterState) Clear(d Dimension) FilterState {
	switch d {
	case DimensionSearch:
		f.Search = ""
	case DimensionTypes:
		f.Types = AllTypeSet
	case DimensionService:
		f.Service = ""
	case DimensionAccess:
		f.Access = ""
	}
	return f
}

// ParseDimension maps a name onto a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	switch d := Dimension(s); d {
	case DimensionSearch, DimensionTypes, DimensionService, DimensionAccess:
		return d, true
	}
	return "", false
}
