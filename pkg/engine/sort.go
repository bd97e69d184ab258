package engine

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/milan604/permcatalog/pkg/permissions"
)

// SortOrder selects how the filtered collection is ordered.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortNameAsc
	SortNameDesc
	SortType
)

var sortOrderNames = [...]string{
	SortNone:     "",
	SortNameAsc:  "name-asc",
	SortNameDesc: "name-desc",
	SortType:     "type",
}

// ParseSortOrder maps a sort name onto a SortOrder. Unrecognized names,
// including the empty string, yield SortNone.
func ParseSortOrder(s string) SortOrder {
	for i, name := range sortOrderNames {
		if name != "" && name == s {
			return SortOrder(i)
		}
	}
	return SortNone
}

// ValidSortOrder reports whether s names a sort order. The empty string is valid.
func ValidSortOrder(s string) bool {
	return s == "" || ParseSortOrder(s) != SortNone
}

func (o SortOrder) String() string {
	if o < 0 || int(o) >= len(sortOrderNames) {
		return ""
	}
	return sortOrderNames[o]
}

func (o SortOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// SortOrders lists every order that reorders records.
func SortOrders() []SortOrder {
	return []SortOrder{SortNameAsc, SortNameDesc, SortType}
}

type comparator func(c *collate.Collator, a, b permissions.Record) int

// comparators has one entry per SortOrder; SortNone has none.
var comparators = map[SortOrder]comparator{
	SortNameAsc: func(c *collate.Collator, a, b permissions.Record) int {
		return c.CompareString(a.Value, b.Value)
	},
	SortNameDesc: func(c *collate.Collator, a, b permissions.Record) int {
		return c.CompareString(b.Value, a.Value)
	},
	SortType: func(c *collate.Collator, a, b permissions.Record) int {
		return c.CompareString(string(a.Type), string(b.Type))
	},
}

// Sort returns a stably sorted copy of records. Records with equal keys keep
// their input order; SortNone returns the copy unchanged.
func Sort(records []permissions.Record, order SortOrder) []permissions.Record {
	out := slices.Clone(records)
	cmp, ok := comparators[order]
	if !ok {
		return out
	}
	// Collators are not safe for concurrent use.
	c := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b permissions.Record) int {
		return cmp(c, a, b)
	})
	return out
}
