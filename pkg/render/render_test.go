package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomponents "maragu.dev/gomponents"

	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
)

const testBase = "https://perms.example.com"

func renderString(t *testing.T, n gomponents.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, n.Render(&b))
	return b.String()
}

func testRecords(n int) []permissions.Record {
	descs := make([]permissions.Description, 0, n)
	for i := range n {
		descs = append(descs, permissions.Description{
			ID:                      "id-" + string(rune('a'+i)),
			Value:                   "User.Read" + string(rune('A'+i)),
			AdminConsentDisplayName: "Read user " + string(rune('A'+i)),
		})
	}
	return permissions.Merge(descs, nil)
}

func TestLinksFilterDropsPage(t *testing.T) {
	l := Links{Path: "/", Filter: engine.FilterState{Search: "mail", Types: engine.AllTypeSet}, Sort: engine.SortNameAsc, Page: 3}

	assert.Equal(t, "/?sort=name-asc", l.ClearChip(engine.DimensionSearch))
	assert.Equal(t, "/?sort=name-asc", l.ClearAll())
	assert.Equal(t, "/?search=mail&sort=name-asc&types=Delegated%2CApplication", l.ToggleType(permissions.TypeAdmin))
	assert.Equal(t, "/?page=3&search=mail&sort=type", l.WithSort(engine.SortType))
	assert.Equal(t, "/?page=2&search=mail&sort=name-asc", l.WithPage(2))
	assert.Equal(t, "/?search=mail&sort=name-asc", l.WithPage(1))
}

func TestValuesEmptyTypesStayPresent(t *testing.T) {
	v := Values(engine.FilterState{Types: 0}, engine.SortNone, 0)
	require.True(t, v.Has(ParamTypes))
	assert.Equal(t, "", v.Get(ParamTypes))

	assert.Empty(t, Values(engine.DefaultFilter(), engine.SortNone, 1))
}

func TestPermissionCardFallbacks(t *testing.T) {
	out := renderString(t, PermissionCard(permissions.Record{}, testBase, "/search"))
	assert.Contains(t, out, UnnamedText)
	assert.Contains(t, out, NoDisplayNameText)
	assert.Contains(t, out, NoDescriptionText)
	assert.Contains(t, out, "ID: Unknown")
	assert.Contains(t, out, "badge-delegated")
}

func TestPermissionCardLinksCanonicalURL(t *testing.T) {
	rec := permissions.Merge([]permissions.Description{{ID: "x1", Value: "Mail.Send", IsAdmin: true}}, nil)[0]
	out := renderString(t, PermissionCard(rec, testBase+"/", DetailsHref(SearchPath, rec)))
	assert.Contains(t, out, `href="https://perms.example.com/api/Mail/permission/mail-send"`)
	assert.Contains(t, out, "badge-admin")
	assert.Contains(t, out, `href="/search?permission=Mail.Send"`)
	assert.Contains(t, out, "ID: x1")
}

func TestCardGridEmptyState(t *testing.T) {
	out := renderString(t, CardGrid(nil, testBase))
	assert.Contains(t, out, EmptyStateText)
}

func TestChipsBar(t *testing.T) {
	f := engine.FilterState{Search: "mail", Types: engine.NewTypeSet(permissions.TypeAdmin), Service: "Mail"}
	out := renderString(t, ChipsBar(engine.Chips(f), Links{Path: "/", Filter: f}))
	assert.Contains(t, out, "Search: mail")
	assert.Contains(t, out, "Types: Admin")
	assert.Contains(t, out, "Service: Mail")
	assert.NotContains(t, out, "Access:")
	assert.Contains(t, out, "Clear All Filters")

	assert.Empty(t, renderString(t, ChipsBar(engine.Chips(engine.DefaultFilter()), Links{Path: "/"})))
}

func TestPaginationBar(t *testing.T) {
	e := engine.New(testRecords(26), engine.WithPageSize(2))
	s := e.GoToPage(e.Init(), 7)
	r := e.View(s)
	out := renderString(t, PaginationBar(r.Pagination, LinksFor(AdvancedPath, r)))

	assert.Contains(t, out, `aria-current="page"`)
	assert.Contains(t, out, ">7<")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, `href="/?page=6"`)
	assert.Contains(t, out, `href="/?page=13"`)

	single := e.View(engine.New(testRecords(1)).Init())
	assert.Empty(t, renderString(t, PaginationBar(single.Pagination, LinksFor(AdvancedPath, single))))
}

func TestAdvancedPage(t *testing.T) {
	e := engine.New(testRecords(3))
	s := e.Search(e.Init(), "ReadB")
	out := renderString(t, AdvancedPage(Advanced{Result: e.View(s), Services: []string{"User"}, BaseURL: testBase}))

	assert.Contains(t, out, "User.ReadB")
	assert.NotContains(t, out, "User.ReadA")
	assert.Contains(t, out, "Showing 1 of 3 permissions")
	assert.Contains(t, out, "Search: ReadB")
	assert.Contains(t, out, StylesheetPath)

	s = e.Search(s, "nothing-matches")
	out = renderString(t, AdvancedPage(Advanced{Result: e.View(s), BaseURL: testBase}))
	assert.Contains(t, out, EmptyStateText)
}

func TestSearchPageSelected(t *testing.T) {
	recs := testRecords(2)
	out := renderString(t, SearchPage(Search{Query: recs[1].Value, Matches: recs[1:], Total: 2, Selected: &recs[1], BaseURL: testBase}))
	assert.Contains(t, out, `id="permission-details"`)
	assert.Contains(t, out, `rel="canonical"`)
	assert.Contains(t, out, `value="User.ReadB"`)
}

func TestDetailPageProvisioning(t *testing.T) {
	rec := permissions.Merge(
		[]permissions.Description{{ID: "p1", Value: "Sites.Read.All"}},
		[]permissions.ProvisioningInfo{{Value: "Sites.Read.All", Attributes: map[string]json.RawMessage{"scope": json.RawMessage(`"tenant"`)}}},
	)[0]
	out := renderString(t, DetailPage(Detail{Record: rec, BaseURL: testBase}))
	assert.Contains(t, out, "Provisioning Info")
	assert.Contains(t, out, "scope")
	assert.Contains(t, out, "N/A")
}

func TestErrorPageRetry(t *testing.T) {
	out := renderString(t, ErrorPage("Catalog unavailable", LoadErrorText, true))
	assert.Contains(t, out, LoadErrorText)
	assert.Contains(t, out, `action="/retry"`)
	assert.Contains(t, out, "Retry")

	out = renderString(t, ErrorPage("Not Found", "no such permission", false))
	assert.NotContains(t, out, "Retry")
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, http.StatusServiceUnavailable, ErrorPage("x", "y", false)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestStaticFS(t *testing.T) {
	f, err := StaticFS().Open("app.css")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
