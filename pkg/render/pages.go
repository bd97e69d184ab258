package render

import (
	"slices"
	"strconv"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
)

// Advanced is the data behind the filter, sort and pagination page.
type Advanced struct {
	Result   engine.Result
	Services []string
	BaseURL  string
}

var sortLabels = map[engine.SortOrder]string{
	engine.SortNone:     "Default",
	engine.SortNameAsc:  "Name (A-Z)",
	engine.SortNameDesc: "Name (Z-A)",
	engine.SortType:     "Type",
}

// AdvancedPage renders the filterable, paginated catalog.
func AdvancedPage(v Advanced) gomponents.Node {
	links := LinksFor(AdvancedPath, v.Result)
	return appPage(
		"Browse permissions",
		"advanced",
		nil,
		filterForm(v.Result.Filter, v.Result.Sort, v.Services),
		sortBar(v.Result.Sort, links),
		ChipsBar(v.Result.ActiveFilters, links),
		Counters(v.Result.Summary),
		CardGrid(v.Result.VisiblePage, v.BaseURL),
		PaginationBar(v.Result.Pagination, links),
	)
}

func filterForm(f engine.FilterState, order engine.SortOrder, services []string) gomponents.Node {
	typeBoxes := make([]gomponents.Node, 0, len(permissions.AllTypes())+1)
	// keeps the parameter present when every box is unchecked
	typeBoxes = append(typeBoxes, html.Input(html.Type("hidden"), html.Name(ParamTypes), html.Value("")))
	for _, t := range permissions.AllTypes() {
		id := "type-" + string(t)
		typeBoxes = append(typeBoxes, html.Label(
			html.For(id),
			html.Input(
				html.Type("checkbox"),
				html.ID(id),
				html.Name(ParamTypes),
				html.Value(string(t)),
				gomponents.If(f.Types.Has(t), html.Checked()),
			),
			gomponents.Text(" "+string(t)),
		))
	}

	serviceOptions := []gomponents.Node{selectOption("", "All services", f.Service)}
	if f.Service != "" && !slices.Contains(services, f.Service) {
		services = append(slices.Clone(services), f.Service)
	}
	for _, s := range services {
		serviceOptions = append(serviceOptions, selectOption(s, s, f.Service))
	}

	return html.Form(
		html.Class("filters"),
		html.Method("get"),
		html.Action(AdvancedPath),
		html.Label(
			gomponents.Text("Search "),
			html.Input(html.Type("search"), html.ID("search-input"), html.Name(ParamSearch), html.Value(f.Search), html.Placeholder("Search permissions")),
		),
		html.FieldSet(html.Legend(gomponents.Text("Type")), gomponents.Group(typeBoxes)),
		html.Label(gomponents.Text("Service "), html.Select(html.ID("filter-service"), html.Name(ParamService), gomponents.Group(serviceOptions))),
		html.Label(
			gomponents.Text("Access "),
			html.Input(html.Type("text"), html.ID("filter-access"), html.Name(ParamAccess), html.Value(f.Access), html.Placeholder("e.g. ReadWrite")),
		),
		gomponents.If(order != engine.SortNone, html.Input(html.Type("hidden"), html.Name(ParamSort), html.Value(order.String()))),
		html.Button(html.Type("submit"), gomponents.Text("Apply")),
	)
}

func selectOption(value, label, selected string) gomponents.Node {
	return html.Option(html.Value(value), gomponents.If(value == selected, html.Selected()), gomponents.Text(label))
}

func sortBar(current engine.SortOrder, links Links) gomponents.Node {
	orders := append([]engine.SortOrder{engine.SortNone}, engine.SortOrders()...)
	nodes := make([]gomponents.Node, 0, len(orders)+1)
	nodes = append(nodes, gomponents.Text("Sort: "))
	for _, o := range orders {
		if o == current {
			nodes = append(nodes, html.Strong(gomponents.Text(sortLabels[o]+" ")))
			continue
		}
		nodes = append(nodes, html.A(html.Href(links.WithSort(o)), gomponents.Text(sortLabels[o]+" ")))
	}
	return html.Div(html.Class("sort"), gomponents.Group(nodes))
}

// Search is the data behind the basic search page.
type Search struct {
	Query    string
	Matches  []permissions.Record
	Total    int
	Selected *permissions.Record
	BaseURL  string
}

// SearchPage renders the basic search box, all matches and, when a record is
// selected, its details above the results.
func SearchPage(v Search) gomponents.Node {
	var headExtra []gomponents.Node
	var selected gomponents.Node = gomponents.Group(nil)
	if v.Selected != nil {
		headExtra = append(headExtra, html.Link(html.Rel("canonical"), html.Href(permissions.CanonicalURL(v.BaseURL, *v.Selected))))
		selected = detailPanel(*v.Selected, v.BaseURL)
	}
	return appPage(
		"Search permissions",
		"search",
		headExtra,
		html.Form(
			html.Class("filters"),
			html.Method("get"),
			html.Action(SearchPath),
			html.Input(html.Type("search"), html.ID("search-input"), html.Name(ParamQuery), html.Value(v.Query), html.Placeholder("Search permissions")),
			html.Button(html.Type("submit"), html.ID("search-button"), gomponents.Text("Search")),
		),
		selected,
		Counters(engine.Summary{VisibleCount: len(v.Matches), TotalCount: v.Total}),
		CardGrid(v.Matches, v.BaseURL),
	)
}

// Detail is the data behind the canonical page of one permission.
type Detail struct {
	Record  permissions.Record
	BaseURL string
}

// DetailPage renders one permission at its canonical URL.
func DetailPage(v Detail) gomponents.Node {
	canonical := permissions.CanonicalURL(v.BaseURL, v.Record)
	return appPage(
		orDefault(v.Record.Value, "Permission Details"),
		"",
		[]gomponents.Node{html.Link(html.Rel("canonical"), html.Href(canonical))},
		detailPanel(v.Record, v.BaseURL),
	)
}

func detailPanel(rec permissions.Record, baseURL string) gomponents.Node {
	return html.Section(
		html.Class("detail"),
		html.ID("permission-details"),
		html.H2(html.A(html.Href(permissions.CanonicalURL(baseURL, rec)), gomponents.Text(orDefault(rec.Value, "Permission Details")))),
		typeBadge(rec),
		html.Dl(
			html.Dt(gomponents.Text("ID")),
			html.Dd(gomponents.Text(orDefault(rec.ID, UnknownText))),
			html.Dt(gomponents.Text("Display Name")),
			html.Dd(gomponents.Text(orDefault(rec.DisplayName(), "N/A"))),
			html.Dt(gomponents.Text("Description")),
			html.Dd(gomponents.Text(orDefault(rec.Description(), "N/A"))),
			gomponents.If(rec.IsEnabled != nil, gomponents.Group{
				html.Dt(gomponents.Text("Enabled")),
				html.Dd(gomponents.Text(enabledText(rec.IsEnabled))),
			}),
		),
		provisioningInfo(rec.ProvisioningInfo),
	)
}

func enabledText(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func provisioningInfo(info *permissions.ProvisioningInfo) gomponents.Node {
	if info == nil || len(info.Attributes) == 0 {
		return gomponents.Group(nil)
	}
	keys := make([]string, 0, len(info.Attributes))
	for k := range info.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	rows := make([]gomponents.Node, 0, 2*len(keys))
	for _, k := range keys {
		rows = append(rows,
			html.Dt(gomponents.Text(k)),
			html.Dd(html.Code(gomponents.Text(string(info.Attributes[k])))),
		)
	}
	return html.Div(
		html.Class("provisioning"),
		html.H3(gomponents.Text("Provisioning Info")),
		html.Dl(gomponents.Group(rows)),
	)
}

// ErrorPage renders a full error page. When retry is set, it offers to reload
// the catalog.
func ErrorPage(title, message string, retry bool) gomponents.Node {
	body := html.P(gomponents.Text(message))
	if retry {
		body = RetryPrompt(message)
	}
	return html.HTML(
		html.Lang("en"),
		head(title),
		html.Body(
			html.Main(
				html.Class("layout"),
				html.H1(html.Class("page-title"), gomponents.Text(title)),
				body,
				html.P(html.A(html.Href(AdvancedPath), gomponents.Text("Back to all permissions"))),
			),
		),
	)
}
