package render

import (
	"fmt"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/utils"
)

// Texts shown when data is missing or the catalog cannot be used.
const (
	EmptyStateText    = "No permissions found matching your criteria."
	LoadErrorText     = "Failed to load permissions data. Please try again later."
	NoDisplayNameText = "No display name available"
	NoDescriptionText = "No description available"
	UnnamedText       = "Unnamed Permission"
	UnknownText       = "Unknown"
)

func orDefault(v, fallback string) string {
	return utils.DefaultIfEmpty(v, fallback)
}

func typeBadge(rec permissions.Record) gomponents.Node {
	badge := orDefault(rec.Badge, permissions.TypeDelegated.Badge())
	return html.Span(html.Class("badge "+badge), gomponents.Text(orDefault(string(rec.Type), UnknownText)))
}

// PermissionCard renders one record as a card linking to its canonical URL.
func PermissionCard(rec permissions.Record, baseURL, detailsHref string) gomponents.Node {
	return html.Div(
		html.Class("permission-card"),
		html.Div(
			html.Class("card-header"),
			html.H3(html.A(html.Href(permissions.CanonicalURL(baseURL, rec)), gomponents.Text(orDefault(rec.Value, UnnamedText)))),
			typeBadge(rec),
		),
		html.P(html.Class("display-name"), gomponents.Text(orDefault(rec.DisplayName(), NoDisplayNameText))),
		html.P(html.Class("description"), gomponents.Text(orDefault(rec.Description(), NoDescriptionText))),
		html.Div(
			html.Class("card-footer"),
			html.Span(gomponents.Text("ID: "+orDefault(rec.ID, UnknownText))),
			html.A(html.Href(detailsHref), gomponents.Text("Details")),
		),
	)
}

// CardGrid renders the visible page, or the empty-state message when there is none.
func CardGrid(records []permissions.Record, baseURL string) gomponents.Node {
	if len(records) == 0 {
		return html.Div(html.Class("empty"), gomponents.Text(EmptyStateText))
	}
	cards := make([]gomponents.Node, 0, len(records))
	for _, rec := range records {
		cards = append(cards, PermissionCard(rec, baseURL, DetailsHref(SearchPath, rec)))
	}
	return html.Div(html.Class("grid"), html.ID("permissions-container"), gomponents.Group(cards))
}

// ChipsBar renders one clear link per active filter plus "Clear All Filters".
// It renders nothing when no filter is active.
func ChipsBar(active engine.ActiveFilters, links Links) gomponents.Node {
	if len(active.Chips) == 0 {
		return gomponents.Group(nil)
	}
	nodes := make([]gomponents.Node, 0, len(active.Chips)+1)
	for _, chip := range active.Chips {
		nodes = append(nodes, html.Span(
			html.Class("chip"),
			gomponents.Text(chip.Label+" "),
			html.A(html.Href(links.ClearChip(chip.Dimension)), html.Aria("label", "Remove filter"), gomponents.Text("×")),
		))
	}
	if active.ClearAll {
		nodes = append(nodes, html.A(html.Class("clear-all"), html.Href(links.ClearAll()), gomponents.Text("Clear All Filters")))
	}
	return html.Div(html.Class("chips"), html.ID("active-filters"), gomponents.Group(nodes))
}

// Counters renders "Showing X of Y permissions".
func Counters(s engine.Summary) gomponents.Node {
	return html.P(
		html.Class("counters"),
		gomponents.Text(fmt.Sprintf("Showing %d of %d permissions", s.VisibleCount, s.TotalCount)),
	)
}

// PaginationBar renders the page buttons; a hidden view renders nothing.
func PaginationBar(p engine.PaginationView, links Links) gomponents.Node {
	if p.Hidden {
		return gomponents.Group(nil)
	}
	nodes := make([]gomponents.Node, 0, len(p.Buttons))
	for _, b := range p.Buttons {
		nodes = append(nodes, pageButton(b, links))
	}
	return html.Nav(html.Class("pagination"), html.Aria("label", "Pagination"), gomponents.Group(nodes))
}

func pageButton(b engine.PageButton, links Links) gomponents.Node {
	switch {
	case b.Kind == engine.ButtonEllipsis:
		return html.Span(html.Class("ellipsis"), gomponents.Text(b.Label))
	case b.Disabled:
		return html.Span(html.Class("disabled"), html.Aria("disabled", "true"), gomponents.Text(b.Label))
	case b.Current:
		return html.Span(html.Class("current"), html.Aria("current", "page"), gomponents.Text(b.Label))
	default:
		return html.A(html.Href(links.WithPage(b.Page)), gomponents.Text(b.Label))
	}
}

// RetryPrompt shows the load error with a button that triggers a reload.
func RetryPrompt(message string) gomponents.Node {
	return html.Div(
		html.Class("error"),
		html.P(gomponents.Text(orDefault(message, LoadErrorText))),
		html.Form(
			html.Method("post"),
			html.Action(RetryPath),
			html.Button(html.Type("submit"), gomponents.Text("Retry")),
		),
	)
}
