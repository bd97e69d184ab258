package render

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
)

// Query parameter names shared by the HTML pages and the JSON API.
const (
	ParamSearch     = "search"
	ParamTypes      = "types"
	ParamService    = "service"
	ParamAccess     = "access"
	ParamSort       = "sort"
	ParamPage       = "page"
	ParamQuery      = "q"
	ParamPermission = "permission"
)

// Links builds hrefs for one page. Filter links never carry a page number so
// following them lands on page 1; sort and page links keep the rest of the state.
type Links struct {
	Path   string
	Filter engine.FilterState
	Sort   engine.SortOrder
	Page   int
}

// LinksFor captures the state of r for link building on path.
func LinksFor(path string, r engine.Result) Links {
	return Links{Path: path, Filter: r.Filter, Sort: r.Sort, Page: r.Pagination.CurrentPage}
}

// Values encodes a filter, sort and page as query values. Defaults are
// omitted; a page of 1 or less is omitted too.
func Values(f engine.FilterState, order engine.SortOrder, page int) url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	if f.Types != engine.AllTypeSet {
		// present but empty selects no type at all
		v.Set(ParamTypes, strings.Join(f.Types.Strings(), ","))
	}
	if f.Service != "" {
		v.Set(ParamService, f.Service)
	}
	if f.Access != "" {
		v.Set(ParamAccess, f.Access)
	}
	if s := order.String(); s != "" {
		v.Set(ParamSort, s)
	}
	if page > 1 {
		v.Set(ParamPage, strconv.Itoa(page))
	}
	return v
}

func (l Links) href(v url.Values) string {
	if len(v) == 0 {
		return l.Path
	}
	return l.Path + "?" + v.Encode()
}

// Filter links to f with the current sort on page 1.
func (l Links) WithFilter(f engine.FilterState) string {
	return l.href(Values(f, l.Sort, 0))
}

// ClearChip links to the current state with dimension d reset.
func (l Links) ClearChip(d engine.Dimension) string {
	return l.WithFilter(l.Filter.Clear(d))
}

// ClearAll links to the default filter, keeping the sort.
func (l Links) ClearAll() string {
	return l.WithFilter(engine.DefaultFilter())
}

// ToggleType links to the current filter with t added or removed.
func (l Links) ToggleType(t permissions.Type) string {
	f := l.Filter
	f.Types = f.Types.Toggle(t)
	return l.WithFilter(f)
}

// WithSort links to order, keeping the filter and page.
func (l Links) WithSort(order engine.SortOrder) string {
	return l.href(Values(l.Filter, order, l.Page))
}

// WithPage links to page, keeping filter and sort.
func (l Links) WithPage(page int) string {
	return l.href(Values(l.Filter, l.Sort, page))
}

// DetailsHref opens the detail panel of rec on the basic search page.
func DetailsHref(searchPath string, rec permissions.Record) string {
	key := rec.Value
	if key == "" {
		key = rec.ID
	}
	return searchPath + "?" + url.Values{ParamPermission: {key}}.Encode()
}
