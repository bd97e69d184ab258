package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/auth"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/observability"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/render"
	"github.com/milan604/permcatalog/pkg/source"
)

const (
	testBaseURL     = "https://perms.example.com"
	testSecret      = "test-signing-secret"
	testReloadScope = "catalog:reload"
)

type envelope struct {
	Success bool                       `json:"success"`
	Code    string                     `json:"code"`
	Data    json.RawMessage            `json:"data"`
	Errors  []apperr.Suggestion        `json:"errors"`
	Meta    map[string]json.RawMessage `json:"meta"`
}

// testCatalog holds 30 records: even indexes under User, odd under Mail.
// Every fifth is Application, other multiples of three are Admin, the rest
// Delegated (6, 8 and 16 records).
func testCatalog() *permissions.Catalog {
	descs := make([]permissions.Description, 0, 30)
	for i := range 30 {
		svc := "User"
		if i%2 == 1 {
			svc = "Mail"
		}
		d := permissions.Description{
			ID:                      fmt.Sprintf("id-%02d", i),
			Value:                   fmt.Sprintf("%s.Perm%02d", svc, i),
			AdminConsentDisplayName: fmt.Sprintf("Display %d", i),
			IsAdmin:                 i%3 == 0,
		}
		if i%5 == 0 {
			d.AllowedMemberTypes = []string{"Application"}
		}
		descs = append(descs, d)
	}
	return permissions.NewCatalog(permissions.Merge(descs, nil))
}

type fakeReloader struct {
	store *permissions.Store
	err   error
	calls int
}

func (f *fakeReloader) Reload(context.Context) (*permissions.Catalog, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cat := testCatalog()
	f.store.Replace(cat)
	return cat, nil
}

func newTestRouter(t *testing.T, store *permissions.Store, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	opts = append([]Option{WithBaseURL(testBaseURL)}, opts...)
	New(store, opts...).RegisterRoutes(r)
	return r
}

func readyStore() *permissions.Store {
	store := permissions.NewStore(nil)
	store.Replace(testCatalog())
	return store
}

func do(t *testing.T, r http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func listResult(t *testing.T, r http.Handler, target string) ([]permissions.Record, engine.Summary, engine.PaginationView) {
	t.Helper()
	rec := do(t, r, http.MethodGet, target)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)

	var (
		data    []permissions.Record
		summary engine.Summary
		pages   engine.PaginationView
	)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NoError(t, json.Unmarshal(env.Meta["summary"], &summary))
	require.NoError(t, json.Unmarshal(env.Meta["pagination"], &pages))
	return data, summary, pages
}

func TestListPermissionsDefault(t *testing.T) {
	r := newTestRouter(t, readyStore())

	data, summary, pages := listResult(t, r, "/api/v1/permissions")
	assert.Len(t, data, engine.ItemsPerPage)
	assert.Equal(t, engine.Summary{VisibleCount: 30, TotalCount: 30}, summary)
	assert.Equal(t, 3, pages.TotalPages)
	assert.Equal(t, 1, pages.CurrentPage)
	assert.False(t, pages.Hidden)
	assert.Equal(t, "id-00", data[0].ID)
}

func TestListPermissionsTypes(t *testing.T) {
	r := newTestRouter(t, readyStore())

	cases := map[string]int{
		"types=Admin":                   8,
		"types=Admin,Application":       14,
		"types=Admin&types=Application": 14,
		"types=":                        0,
		"types=Delegated&service=Mail":  8,
	}
	for query, want := range cases {
		t.Run(query, func(t *testing.T) {
			_, summary, _ := listResult(t, r, "/api/v1/permissions?"+query)
			assert.Equal(t, want, summary.VisibleCount)
			assert.Equal(t, 30, summary.TotalCount)
		})
	}
}

func TestListPermissionsEmptyTypesHidesPagination(t *testing.T) {
	r := newTestRouter(t, readyStore())

	data, _, pages := listResult(t, r, "/api/v1/permissions?types=")
	assert.Empty(t, data)
	assert.True(t, pages.Hidden)
	assert.Empty(t, pages.Buttons)
}

func TestListPermissionsSortKeepsPage(t *testing.T) {
	r := newTestRouter(t, readyStore())

	data, _, pages := listResult(t, r, "/api/v1/permissions?sort=name-desc&page=2")
	assert.Equal(t, 2, pages.CurrentPage)
	require.NotEmpty(t, data)

	first, _, _ := listResult(t, r, "/api/v1/permissions?sort=name-desc")
	assert.Equal(t, "User.Perm28", first[0].Value)
}

func TestListPermissionsOutOfRangePage(t *testing.T) {
	r := newTestRouter(t, readyStore())

	data, summary, pages := listResult(t, r, "/api/v1/permissions?page=99")
	assert.Empty(t, data)
	assert.Equal(t, 30, summary.VisibleCount)
	assert.Equal(t, 99, pages.CurrentPage)
}

func TestListPermissionsInvalidQuery(t *testing.T) {
	r := newTestRouter(t, readyStore())

	for _, query := range []string{"page=0", "page=abc", "types=Bogus", "types=Admin,Nope", "sort=random"} {
		t.Run(query, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, "/api/v1/permissions?"+query)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.False(t, decode(t, rec).Success)
		})
	}

	env := decode(t, do(t, r, http.MethodGet, "/api/v1/permissions?sort=random"))
	assert.Equal(t, apperr.ErrorCodeInvalidQuery.Code(), env.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "sort", env.Errors[0].Field)
}

func TestNotReady(t *testing.T) {
	r := newTestRouter(t, permissions.NewStore(nil))

	rec := do(t, r, http.MethodGet, "/api/v1/permissions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperr.ErrorCodeCatalogNotReady.Code(), decode(t, rec).Code)

	rec = do(t, r, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), render.LoadErrorText)
	assert.Contains(t, rec.Body.String(), "Retry")
}

func TestSearchPermissions(t *testing.T) {
	r := newTestRouter(t, readyStore())

	rec := do(t, r, http.MethodGet, "/api/v1/permissions/search?q=perm0")
	require.Equal(t, http.StatusOK, rec.Code)
	var data []permissions.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Len(t, data, 10)

	rec = do(t, r, http.MethodGet, "/api/v1/permissions/search")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Len(t, data, 30)
}

func TestGetPermission(t *testing.T) {
	r := newTestRouter(t, readyStore())

	rec := do(t, r, http.MethodGet, "/api/v1/permissions/id-07")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var got permissions.Record
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Mail.Perm07", got.Value)
	assert.JSONEq(t, `"https://perms.example.com/api/Mail/permission/mail-perm07"`, string(env.Meta["canonicalUrl"]))

	rec = do(t, r, http.MethodGet, "/api/v1/permissions/user.perm04")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, "id-04", got.ID)

	rec = do(t, r, http.MethodGet, "/api/v1/permissions/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListServices(t *testing.T) {
	r := newTestRouter(t, readyStore())

	var services []string
	require.NoError(t, json.Unmarshal(decode(t, do(t, r, http.MethodGet, "/api/v1/services")).Data, &services))
	assert.Equal(t, []string{"Mail", "User"}, services)
}

func reloadToken(t *testing.T, scope string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "ops",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": scope,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func doWithToken(t *testing.T, r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestReloadCatalog(t *testing.T) {
	store := readyStore()
	reloader := &fakeReloader{store: store}
	metrics := observability.NewCatalogMetrics("test")
	prometheus.NewRegistry().MustRegister(metrics.Collectors()...)
	r := newTestRouter(t, store, WithReloader(reloader), WithMetrics(metrics),
		WithReloadAuth(auth.JWTConfig{Secret: testSecret}, testReloadScope))

	rec := doWithToken(t, r, http.MethodPost, "/api/v1/catalog/reload", reloadToken(t, testReloadScope))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st permissions.Status
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &st))
	assert.True(t, st.Ready)
	assert.EqualValues(t, 2, st.Version)
	assert.Equal(t, 1, reloader.calls)
}

func TestReloadCatalogRequiresToken(t *testing.T) {
	store := readyStore()
	reloader := &fakeReloader{store: store}
	r := newTestRouter(t, store, WithReloader(reloader),
		WithReloadAuth(auth.JWTConfig{Secret: testSecret}, testReloadScope))

	for range 5 {
		rec := do(t, r, http.MethodPost, "/api/v1/catalog/reload")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apperr.ErrorCodeUnauthorized.Code(), decode(t, rec).Code)
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops", "exp": time.Now().Add(time.Hour).Unix(), "scope": testReloadScope,
	}).SignedString([]byte("guessed"))
	require.NoError(t, err)
	rec := doWithToken(t, r, http.MethodPost, "/api/v1/catalog/reload", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doWithToken(t, r, http.MethodPost, "/api/v1/catalog/reload", reloadToken(t, "catalog:read"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Zero(t, reloader.calls)
	_, version, err := store.Current()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestReloadDisabled(t *testing.T) {
	r := newTestRouter(t, readyStore())
	rec := do(t, r, http.MethodPost, "/api/v1/catalog/reload")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a reloader without a signing secret keeps the API off
	store := readyStore()
	reloader := &fakeReloader{store: store}
	r = newTestRouter(t, store, WithReloader(reloader))
	rec = doWithToken(t, r, http.MethodPost, "/api/v1/catalog/reload", reloadToken(t, testReloadScope))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, reloader.calls)
}

func TestRetryPage(t *testing.T) {
	store := permissions.NewStore(nil)
	reloader := &fakeReloader{store: store, err: fmt.Errorf("fetch descriptions: %w", source.ErrSourceUnavailable)}
	r := newTestRouter(t, store, WithReloader(reloader))

	rec := do(t, r, http.MethodPost, render.RetryPath)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), render.LoadErrorText)

	reloader.err = nil
	rec = do(t, r, http.MethodPost, render.RetryPath)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, render.AdvancedPath, rec.Header().Get("Location"))
	assert.Equal(t, 2, reloader.calls)

	rec = do(t, r, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRetryPageSkipsReloadWhenReady(t *testing.T) {
	store := readyStore()
	reloader := &fakeReloader{store: store}
	r := newTestRouter(t, store, WithReloader(reloader))

	for range 10 {
		rec := do(t, r, http.MethodPost, render.RetryPath)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, render.AdvancedPath, rec.Header().Get("Location"))
	}
	assert.Zero(t, reloader.calls)
	_, version, err := store.Current()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestAdvancedPage(t *testing.T) {
	r := newTestRouter(t, readyStore())

	rec := do(t, r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Showing 30 of 30 permissions")
	assert.Contains(t, body, "User.Perm00")
	assert.NotContains(t, body, "Clear All Filters")

	rec = do(t, r, http.MethodGet, "/?types=Admin&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Showing 8 of 30 permissions")
	assert.Contains(t, body, "Types: Admin")
	assert.Contains(t, body, "Clear All Filters")

	rec = do(t, r, http.MethodGet, "/?types=")
	assert.Contains(t, rec.Body.String(), render.EmptyStateText)

	rec = do(t, r, http.MethodGet, "/?page=0")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid Request")
}

func TestSearchPagePreselect(t *testing.T) {
	r := newTestRouter(t, readyStore())

	rec := do(t, r, http.MethodGet, "/search?permission=mail.perm07")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="permission-details"`)
	assert.Contains(t, body, `value="Mail.Perm07"`)
	assert.Contains(t, body, "Showing 1 of 30 permissions")

	rec = do(t, r, http.MethodGet, "/search?permission=unknown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `id="permission-details"`)
}

func TestDetailPage(t *testing.T) {
	r := newTestRouter(t, readyStore())

	rec := do(t, r, http.MethodGet, "/api/User/permission/user-perm04")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Display 4")
	assert.Contains(t, rec.Body.String(), `href="https://perms.example.com/api/User/permission/user-perm04"`)

	rec = do(t, r, http.MethodGet, "/api/User/permission/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	r := newTestRouter(t, readyStore())

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/readyz").Code)

	rec := do(t, r, http.MethodGet, "/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = do(t, r, http.MethodGet, render.StylesheetPath)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListPermissionsTrimsTextFacets(t *testing.T) {
	r := newTestRouter(t, readyStore())
	padded, paddedSummary, _ := listResult(t, r, "/api/v1/permissions?service=%20User%20&access=%20Perm1%20")
	plain, plainSummary, _ := listResult(t, r, "/api/v1/permissions?service=User&access=Perm1")
	require.NotEmpty(t, plain)
	assert.Equal(t, plain, padded)
	assert.Equal(t, plainSummary, paddedSummary)
}
