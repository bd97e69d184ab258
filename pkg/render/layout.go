package render

import (
	"net/http"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const siteName = "API Permissions"

// Paths of the pages linked from the navigation bar.
const (
	AdvancedPath = "/"
	SearchPath   = "/search"
	RetryPath    = "/retry"
)

type navItem struct {
	Key   string
	Label string
	Href  string
}

var navItems = []navItem{
	{Key: "advanced", Label: "Browse", Href: AdvancedPath},
	{Key: "search", Label: "Search", Href: SearchPath},
}

// Write renders node as an HTML response with the given status.
func Write(w http.ResponseWriter, status int, node gomponents.Node) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return node.Render(w)
}

func head(title string, extra ...gomponents.Node) gomponents.Node {
	return html.Head(
		html.Meta(html.Charset("utf-8")),
		html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
		html.TitleEl(gomponents.Text(title+" | "+siteName)),
		html.Link(html.Rel("stylesheet"), html.Href(StylesheetPath)),
		gomponents.Group(extra),
	)
}

func appPage(title, active string, headExtra []gomponents.Node, body ...gomponents.Node) gomponents.Node {
	nav := make([]gomponents.Node, 0, len(navItems))
	for _, item := range navItems {
		className := ""
		if item.Key == active {
			className = "active"
		}
		nav = append(nav, html.A(html.Href(item.Href), html.Class(className), gomponents.Text(item.Label)))
	}

	return html.HTML(
		html.Lang("en"),
		head(title, headExtra...),
		html.Body(
			html.Main(
				html.Class("layout"),
				html.Nav(html.Class("topbar"), html.Strong(gomponents.Text(siteName)), gomponents.Group(nav)),
				html.H1(html.Class("page-title"), gomponents.Text(title)),
				gomponents.Group(body),
			),
		),
	)
}
