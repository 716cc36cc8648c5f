package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/config"
	"seasonal-menu/internal/menuapi"
	"seasonal-menu/internal/notify"
)

const mondayMenu = `{"Monday": {
	"breakfast": {"name": "Pumpkin Spice Oatmeal", "description": "Steel-cut oats", "seasonal_ingredients": ["pumpkin", "cinnamon"]},
	"lunch": {"name": "Butternut Squash Soup", "description": "Roasted squash", "seasonal_ingredients": []},
	"dinner": {"name": "Wild Mushroom Risotto", "description": "Creamy arborio", "seasonal_ingredients": ["porcini"]}
}}`

// menuService fakes the upstream endpoint. Status codes queued in failures
// are returned before it starts serving body (mondayMenu when empty).
type menuService struct {
	mu       sync.Mutex
	failures []int
	calls    int
	body     string
}

func (m *menuService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.calls++
	var status int
	if len(m.failures) > 0 {
		status, m.failures = m.failures[0], m.failures[1:]
	}
	body := m.body
	m.mu.Unlock()

	if status != 0 {
		http.Error(w, "upstream unavailable", status)
		return
	}
	if body == "" {
		body = mondayMenu
	}
	fmt.Fprint(w, body)
}

func (m *menuService) serve(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = body
}

func (m *menuService) fail(statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, statuses...)
}

func (m *menuService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type testEnv struct {
	t        *testing.T
	upstream *menuService
	server   *Server
	site     *httptest.Server
	client   *http.Client
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	upstream := &menuService{}
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	client := menuapi.NewClient(&config.Config{MenuAPIURL: api.URL, MenuAPITimeout: 5 * time.Second})
	factory := func(flash notify.Notifier) *app.App {
		return app.NewApp(client, app.WithNotifier(flash))
	}

	inline := WithDispatcher(func(fn func()) { fn() })
	srv, err := NewServer(context.Background(), factory, append([]Option{inline}, opts...)...)
	require.NoError(t, err)

	site := httptest.NewServer(srv.Handler())
	t.Cleanup(site.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{t: t, upstream: upstream, server: srv, site: site, client: &http.Client{Jar: jar}}
}

func (e *testEnv) get() *goquery.Document {
	e.t.Helper()
	resp, err := e.client.Get(e.site.URL + "/")
	require.NoError(e.t, err)
	defer resp.Body.Close()
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(e.t, err)
	return doc
}

// post submits values and returns the page the redirect lands on.
func (e *testEnv) post(path string, values url.Values) *goquery.Document {
	e.t.Helper()
	resp, err := e.client.PostForm(e.site.URL+path, values)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(e.t, err)
	return doc
}

func californiaForm(action string) url.Values {
	return url.Values{
		"location":   {"California"},
		"season":     {"Fall"},
		"place_type": {"Restaurant"},
		"preference": {"Italian"},
		"action":     {action},
	}
}

func TestGenerateShowsEmptyMenu(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.serve(`{}`)

	doc := env.post("/form", californiaForm("generate"))
	require.Equal(t, 1, doc.Find("#menu").Length(), "an empty menu is still a success")
	assert.Equal(t, 0, doc.Find(".day-card").Length())
	assert.Equal(t, "0", doc.Find(".total-meals").Text())
	assert.Equal(t, "0", doc.Find(".day-count").Text())
	assert.Equal(t, "Menu Generated Successfully!", doc.Find(".toast-success .toast-title").Text())
}

func TestFormKeepsFieldsAsTyped(t *testing.T) {
	env := newTestEnv(t)
	values := californiaForm("update")
	values.Set("location", "  Napa Valley ")

	doc := env.post("/form", values)
	location, _ := doc.Find(`input[name="location"]`).Attr("value")
	assert.Equal(t, "  Napa Valley ", location)
}

func TestIndexShowsForm(t *testing.T) {
	env := newTestEnv(t)
	doc := env.get()

	assert.Equal(t, 1, doc.Find("#menu-form").Length())
	assert.Equal(t, 5, doc.Find(`select[name="season"] option`).Length(), "placeholder plus four seasons")
	assert.Equal(t, 7, doc.Find(`select[name="place_type"] option`).Length())
	_, incomplete := doc.Find("#generate").Attr("data-incomplete")
	assert.True(t, incomplete)
}

func TestGenerateShowsMenu(t *testing.T) {
	env := newTestEnv(t)

	doc := env.post("/form", californiaForm("add_preference"))
	require.Equal(t, 1, doc.Find(".preferences .tag").Length())
	assert.Contains(t, doc.Find(".preferences .tag").Text(), "Italian")
	_, incomplete := doc.Find("#generate").Attr("data-incomplete")
	assert.False(t, incomplete)

	doc = env.post("/form", californiaForm("generate"))
	require.Equal(t, 1, doc.Find("#menu").Length(), "expected the menu page")
	assert.Equal(t, 1, doc.Find(".day-card").Length())
	assert.Equal(t, "Monday", doc.Find(".day-card .day-name").Text())
	assert.Equal(t, 3, doc.Find(".day-card .meal").Length())
	assert.Equal(t, "Pumpkin Spice Oatmeal", doc.Find(".meal-breakfast .meal-name").Text())
	assert.Equal(t, 0, doc.Find(".meal-lunch .ingredients").Length(), "empty ingredient lists are hidden")
	assert.Equal(t, "3", doc.Find(".total-meals").Text())
	assert.Equal(t, "Fall Produce", doc.Find(".seasonal-focus").Text())
	assert.Equal(t, "Menu Generated Successfully!", doc.Find(".toast-success .toast-title").Text())

	var badges []string
	doc.Find(".badge").Each(func(_ int, s *goquery.Selection) { badges = append(badges, s.Text()) })
	assert.Equal(t, []string{"California", "Fall", "Restaurant"}, badges)

	doc = env.get()
	assert.Equal(t, 0, doc.Find(".toast").Length(), "toasts are shown once")

	doc = env.post("/reset", nil)
	assert.Equal(t, 1, doc.Find("#menu-form").Length())
	val, _ := doc.Find(`input[name="location"]`).Attr("value")
	assert.Empty(t, val, "generate another starts from an empty form")
}

func TestIncompleteFormDoesNotCallService(t *testing.T) {
	env := newTestEnv(t)

	values := californiaForm("generate")
	values.Del("season")
	doc := env.post("/form", values)

	assert.Equal(t, 1, doc.Find("#menu-form").Length())
	assert.Zero(t, env.upstream.callCount())
	val, _ := doc.Find(`input[name="location"]`).Attr("value")
	assert.Equal(t, "California", val, "input is kept")
}

func TestFailureRetryAndBack(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.fail(http.StatusInternalServerError, http.StatusBadGateway)

	doc := env.post("/form", californiaForm("generate"))
	require.Equal(t, 1, doc.Find("#error").Length(), "expected the error page")
	assert.Equal(t, "Menu Generation Failed", doc.Find("#error h2").Text())
	assert.Contains(t, doc.Find(".error-message").Text(), "500")
	assert.Equal(t, "Generation Failed", doc.Find(".toast-failure .toast-title").Text())

	doc = env.post("/retry", nil)
	require.Equal(t, 1, doc.Find("#error").Length())
	assert.Contains(t, doc.Find(".error-message").Text(), "502")

	doc = env.post("/retry", nil)
	assert.Equal(t, 1, doc.Find(".day-card").Length())
	assert.Equal(t, 3, env.upstream.callCount())

	env.upstream.fail(http.StatusServiceUnavailable)
	env.post("/reset", nil)
	doc = env.post("/form", californiaForm("generate"))
	require.Equal(t, 1, doc.Find("#error").Length())

	doc = env.post("/reset", nil)
	assert.Equal(t, 1, doc.Find("#menu-form").Length())
}

func TestRemoveTag(t *testing.T) {
	env := newTestEnv(t)

	env.post("/form", url.Values{"restriction": {"Vegan"}, "action": {"add_restriction"}})
	env.post("/form", url.Values{"restriction": {"Gluten-free"}, "action": {"add_restriction"}})
	doc := env.post("/form", url.Values{"action": {"remove_restriction:0"}})

	tags := doc.Find(".restrictions .tag")
	require.Equal(t, 1, tags.Length())
	assert.Contains(t, tags.Text(), "Gluten-free")

	doc = env.post("/form", url.Values{"action": {"remove_restriction:9"}})
	assert.Equal(t, 1, doc.Find(".restrictions .tag").Length(), "out of range is ignored")
}

func TestRetryFromIdleIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	doc := env.post("/retry", nil)
	assert.Equal(t, 1, doc.Find("#menu-form").Length())
	assert.Zero(t, env.upstream.callCount())
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.post("/form", californiaForm("generate"))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &testEnv{t: t, site: env.site, client: &http.Client{Jar: jar}}

	doc := other.get()
	assert.Equal(t, 1, doc.Find("#menu-form").Length())
	assert.Equal(t, 1, env.get().Find(".day-card").Length())
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	env.get()

	resp, err := env.client.Get(env.site.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		System   struct {
			Goroutines int `json:"goroutines"`
		} `json:"system"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Sessions)
	assert.Positive(t, body.System.Goroutines)
}

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Minute, func(flash notify.Notifier) *app.App {
		return app.NewApp(nil, app.WithNotifier(flash))
	})
	store.now = func() time.Time { return now }

	id, _ := store.create()
	stale, _ := store.create()

	now = now.Add(45 * time.Second)
	_, ok := store.get(id)
	require.True(t, ok, "touching a session keeps it alive")

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.sweep())
	_, ok = store.get(stale)
	assert.False(t, ok)
	_, ok = store.get(id)
	assert.True(t, ok)
	assert.Equal(t, 1, store.len())
}

func TestLoadingPageRefreshes(t *testing.T) {
	var mu sync.Mutex
	var pending []func()
	env := newTestEnv(t, WithDispatcher(func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		pending = append(pending, fn)
	}))

	doc := env.post("/form", californiaForm("generate"))
	require.Equal(t, 1, doc.Find("#loading").Length())
	assert.Equal(t, "Crafting Your Menu", doc.Find("#loading h2").Text())
	refresh, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	assert.Equal(t, "1", refresh)

	doc = env.post("/form", californiaForm("generate"))
	assert.Equal(t, 1, doc.Find("#loading").Length(), "a second generate while loading is ignored")
	mu.Lock()
	require.Len(t, pending, 1)
	run := pending[0]
	mu.Unlock()

	run()
	assert.Equal(t, 1, env.get().Find(".day-card").Length())
}
