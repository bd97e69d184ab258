package engine

import (
	"strings"

	"github.com/milan604/permcatalog/pkg/permissions"
)

// Phase is a step of the reconciliation pipeline.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFiltering  Phase = "filtering"
	PhaseSorting    Phase = "sorting"
	PhasePaginating Phase = "paginating"
	PhaseRendered   Phase = "rendered"
)

// Engine runs the filter, sort and paginate pipeline over a read-only
// record list.
type Engine struct {
	records  []permissions.Record
	pageSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize overrides ItemsPerPage.
func WithPageSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// New creates an engine over records. The engine never modifies records.
func New(records []permissions.Record, opts ...Option) *Engine {
	e := &Engine{records: records, pageSize: ItemsPerPage}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records returns the full, unfiltered collection.
func (e *Engine) Records() []permissions.Record {
	return e.records
}

func (e *Engine) PageSize() int {
	return e.pageSize
}

// State is one view's position in the pipeline. States are values: every
// operation returns a new State and leaves its argument untouched.
type State struct {
	Filter FilterState
	Sort   SortOrder
	Page   int

	// Trace lists the phases the last transition went through.
	Trace []Phase

	visibleCount int
	totalCount   int
	working      []permissions.Record
	visible      []permissions.Record
	totalPages   int
}

// VisibleCount is the size of the filtered set.
func (s State) VisibleCount() int { return s.visibleCount }

// TotalCount is the size of the unfiltered set.
func (s State) TotalCount() int { return s.totalCount }

// TotalPages of the filtered set.
func (s State) TotalPages() int { return s.totalPages }

// Working is the filtered and sorted set.
func (s State) Working() []permissions.Record { return s.working }

// Init runs the full pipeline with the default filter, no sort and page 1.
func (e *Engine) Init() State {
	return e.Restore(DefaultFilter(), SortNone, 1)
}

// Restore builds the state for an explicit filter, order and page in one
// full pass. It is equivalent to Init followed by ApplyFilter, SetSort and
// GoToPage.
func (e *Engine) Restore(f FilterState, order SortOrder, page int) State {
	s := State{Filter: f, Sort: order, Page: page, Trace: []Phase{PhaseIdle}}
	s = e.filter(s)
	s = e.sort(s)
	return e.paginate(s)
}

// ApplyFilter replaces the filter, re-runs every phase and resets to page 1.
func (e *Engine) ApplyFilter(s State, f FilterState) State {
	s.Filter = f
	s.Page = 1
	s.Trace = []Phase{PhaseIdle}
	s = e.filter(s)
	s = e.sort(s)
	return e.paginate(s)
}

// Search sets the search query, trimmed.
func (e *Engine) Search(s State, query string) State {
	f := s.Filter
	f.Search = strings.TrimSpace(query)
	return e.ApplyFilter(s, f)
}

func (e *Engine) SetTypes(s State, types TypeSet) State {
	f := s.Filter
	f.Types = types
	return e.ApplyFilter(s, f)
}

// ToggleType checks or unchecks a single type.
func (e *Engine) ToggleType(s State, t permissions.Type) State {
	return e.SetTypes(s, s.Filter.Types.Toggle(t))
}

func (e *Engine) SetService(s State, service string) State {
	f := s.Filter
	f.Service = service
	return e.ApplyFilter(s, f)
}

func (e *Engine) SetAccess(s State, access string) State {
	f := s.Filter
	f.Access = access
	return e.ApplyFilter(s, f)
}

func (e *Engine) ClearSearch(s State) State  { return e.ClearChip(s, DimensionSearch) }
func (e *Engine) ResetTypes(s State) State   { return e.ClearChip(s, DimensionTypes) }
func (e *Engine) ClearService(s State) State { return e.ClearChip(s, DimensionService) }
func (e *Engine) ClearAccess(s State) State  { return e.ClearChip(s, DimensionAccess) }

// ClearAll restores the default filter.
func (e *Engine) ClearAll(s State) State {
	return e.ApplyFilter(s, DefaultFilter())
}

// ClearChip resets one dimension, as the chip's clear action does.
func (e *Engine) ClearChip(s State, d Dimension) State {
	return e.ApplyFilter(s, s.Filter.Clear(d))
}

// SetSort reorders the current working set and keeps the page. Filtering is
// skipped and counters are left as they are.
func (e *Engine) SetSort(s State, order SortOrder) State {
	s.Sort = order
	s.Trace = []Phase{PhaseIdle}
	s = e.sort(s)
	return e.paginate(s)
}

// GoToPage moves to page without filtering or sorting. Out-of-range pages
// are kept and render an empty page.
func (e *Engine) GoToPage(s State, page int) State {
	s.Page = page
	s.Trace = []Phase{PhaseIdle}
	return e.paginate(s)
}

func (e *Engine) filter(s State) State {
	s.Trace = append(s.Trace, PhaseFiltering)
	s.working = Filter(e.records, s.Filter)
	s.visibleCount = len(s.working)
	s.totalCount = len(e.records)
	return s
}

func (e *Engine) sort(s State) State {
	s.Trace = append(s.Trace, PhaseSorting)
	s.working = Sort(s.working, s.Sort)
	return s
}

func (e *Engine) paginate(s State) State {
	s.Trace = append(s.Trace, PhasePaginating)
	s.visible, s.totalPages = Paginate(s.working, s.Page, e.pageSize)
	s.Trace = append(s.Trace, PhaseRendered)
	return s
}

// Summary holds the counters shown above the results.
type Summary struct {
	VisibleCount int `json:"visibleCount"`
	TotalCount   int `json:"totalCount"`
}

// PaginationView is everything needed to draw the pagination bar.
type PaginationView struct {
	Hidden      bool         `json:"hidden"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	PageSize    int          `json:"pageSize"`
	Buttons     []PageButton `json:"buttons,omitempty"`
}

// Result is the plain-data output handed to a renderer.
type Result struct {
	VisiblePage   []permissions.Record `json:"visiblePage"`
	Summary       Summary              `json:"summary"`
	ActiveFilters ActiveFilters        `json:"activeFilters"`
	Pagination    PaginationView       `json:"pagination"`
	Filter        FilterState          `json:"filter"`
	Sort          SortOrder            `json:"sort"`
}

// View derives the renderer output from s.
func (e *Engine) View(s State) Result {
	w := PageWindow(s.Page, s.totalPages)
	visible := s.visible
	if visible == nil {
		visible = []permissions.Record{}
	}
	return Result{
		VisiblePage:   visible,
		Summary:       Summary{VisibleCount: s.visibleCount, TotalCount: s.totalCount},
		ActiveFilters: Chips(s.Filter),
		Pagination: PaginationView{
			Hidden:      w.Hidden(),
			CurrentPage: s.Page,
			TotalPages:  s.totalPages,
			PageSize:    e.pageSize,
			Buttons:     w.Buttons(),
		},
		Filter: s.Filter,
		Sort:   s.Sort,
	}
}
