package engine

import (
	"encoding/json"
	"strings"

	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/utils"
)

// TypeSet is a set of permission types. The zero value is the empty set,
// which matches no record.
type TypeSet uint8

const (
	typeAdmin TypeSet = 1 << iota
	typeDelegated
	typeApplication

	// AllTypeSet holds every permission type.
	AllTypeSet = typeAdmin | typeDelegated | typeApplication
)

func typeBit(t permissions.Type) TypeSet {
	switch t {
	case permissions.TypeAdmin:
		return typeAdmin
	case permissions.TypeDelegated:
		return typeDelegated
	case permissions.TypeApplication:
		return typeApplication
	}
	return 0
}

// NewTypeSet builds a set from types. Unknown types are ignored.
func NewTypeSet(types ...permissions.Type) TypeSet {
	var s TypeSet
	for _, t := range types {
		s |= typeBit(t)
	}
	return s
}

// Has reports whether t is in the set. Unknown types are never members.
func (s TypeSet) Has(t permissions.Type) bool {
	b := typeBit(t)
	return b != 0 && s&b != 0
}

func (s TypeSet) With(t permissions.Type) TypeSet    { return s | typeBit(t) }
func (s TypeSet) Without(t permissions.Type) TypeSet { return s &^ typeBit(t) }

// Toggle flips membership of t.
func (s TypeSet) Toggle(t permissions.Type) TypeSet {
	if s.Has(t) {
		return s.Without(t)
	}
	return s.With(t)
}

// Types lists members in display order: Admin, Delegated, Application.
func (s TypeSet) Types() []permissions.Type {
	out := make([]permissions.Type, 0, 3)
	for _, t := range permissions.AllTypes() {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) Len() int {
	return len(s.Types())
}

func (s TypeSet) Strings() []string {
	types := s.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// MarshalJSON encodes the set as its type names in display order.
func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// FilterState is the set of facet filters applied to the collection.
type FilterState struct {
	Search  string  `json:"search"`
	Types   TypeSet `json:"types"`
	Service string  `json:"service"`
	Access  string  `json:"access"`
}

// DefaultFilter matches every record: no search, all types, no service or access.
func DefaultFilter() FilterState {
	return FilterState{Types: AllTypeSet}
}

// IsDefault reports whether f equals DefaultFilter.
func (f FilterState) IsDefault() bool {
	return f == DefaultFilter()
}

// Normalized trims the text facets the way the query boundary receives them.
// Filter itself compares them verbatim.
func (f FilterState) Normalized() FilterState {
	f.Search = strings.TrimSpace(f.Search)
	f.Service = strings.TrimSpace(f.Service)
	f.Access = strings.TrimSpace(f.Access)
	return f
}

// Filter narrows records by search, then type, then service, then access.
// Each pass works on the output of the previous one; order is preserved and
// the input is never modified.
func Filter(records []permissions.Record, f FilterState) []permissions.Record {
	search := strings.ToLower(f.Search)
	service := strings.ToLower(f.Service)
	access := strings.ToLower(f.Access)

	out := make([]permissions.Record, 0, len(records))
	for _, rec := range records {
		if search != "" && !matchesSearch(rec, search) {
			continue
		}
		if !f.Types.Has(rec.Type) {
			continue
		}
		if service != "" && !utils.ContainsLower(rec.Value, service) {
			continue
		}
		if access != "" && !utils.ContainsLower(rec.Value, access) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Search returns every record matching the search predicate alone.
func Search(records []permissions.Record, query string) []permissions.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]permissions.Record, 0)
	for _, rec := range records {
		if q == "" || matchesSearch(rec, q) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesSearch(rec permissions.Record, lowerQuery string) bool {
	return utils.ContainsLower(rec.Value, lowerQuery) ||
		utils.ContainsLower(rec.AdminConsentDisplayName, lowerQuery) ||
		utils.ContainsLower(rec.ConsentDisplayName, lowerQuery) ||
		utils.ContainsLower(rec.AdminConsentDescription, lowerQuery) ||
		utils.ContainsLower(rec.ConsentDescription, lowerQuery)
}
