package api

import (
	"crypto/tls"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/appstore-api/internal/scraper"
)

func TestLinkerURL(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "localhost:3000", basePath: "/api"}
	tests := []struct {
		subpath string
		want    string
	}{
		{subpath: "apps", want: "http://localhost:3000/api/apps"},
		{subpath: "/apps/", want: "http://localhost:3000/api/apps/"},
		{subpath: "apps//553834731", want: "http://localhost:3000/api/apps/553834731"},
		{subpath: "/apps/com.example/reviews/", want: "http://localhost:3000/api/apps/com.example/reviews/"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, l.URL(tt.subpath), tt.subpath)
	}

	root := Linker{scheme: "https", host: "example.com", basePath: "/"}
	require.Equal(t, "https://example.com/apps", root.URL("apps"))
}

func TestNewLinkerScheme(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://api.example.com/api/", nil)
	require.Equal(t, "http://api.example.com/api/apps", NewLinker(req, "/api", false).URL("apps"))

	req.TLS = &tls.ConnectionState{}
	require.Equal(t, "https://api.example.com/api/apps", NewLinker(req, "/api", false).URL("apps"))

	proxied := httptest.NewRequest("GET", "http://10.0.0.5:8080/api/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https, http")
	proxied.Header.Set("X-Forwarded-Host", "store.example.org")
	require.Equal(t, "http://10.0.0.5:8080/api/apps", NewLinker(proxied, "/api", false).URL("apps"))
	require.Equal(t, "https://store.example.org/api/apps", NewLinker(proxied, "/api", true).URL("apps"))
}

func TestLinkerAppDecoratesRecord(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "localhost:3000", basePath: "/api"}
	app := scraper.App{
		ID:        553834731,
		AppID:     "com.midasplayer.apps.candycrushsaga",
		Title:     "Candy Crush Saga",
		URL:       "https://apps.apple.com/us/app/candy-crush-saga/id553834731",
		Developer: "King & Co (Intl)",
		Reviews:   2890321,
	}

	res := l.App(app)
	base := "http://localhost:3000/api/apps/com.midasplayer.apps.candycrushsaga"
	require.Equal(t, app.URL, res.PlaystoreURL)
	require.Equal(t, base, res.URL)
	require.Equal(t, base+"/permissions", res.Permissions)
	require.Equal(t, base+"/similar", res.Similar)
	require.Equal(t, base+"/reviews", res.Reviews)
	require.Equal(t, "King & Co (Intl)", res.Developer.DevID)
	require.Equal(t, "http://localhost:3000/api/developers/King%20%26%20Co%20(Intl)", res.Developer.URL)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, base, decoded["url"])
	require.Equal(t, base+"/reviews", decoded["reviews"])
	require.Equal(t, "Candy Crush Saga", decoded["title"])
	require.Equal(t, app.URL, decoded["playstoreUrl"])
	require.Equal(t, map[string]any{
		"devId": "King & Co (Intl)",
		"url":   "http://localhost:3000/api/developers/King%20%26%20Co%20(Intl)",
	}, decoded["developer"])
}

func TestLinkerAppIgnoresUnrelatedFields(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "h", basePath: "/api"}
	a := l.App(scraper.App{AppID: "x", Title: "One", Score: 4.5})
	b := l.App(scraper.App{AppID: "x", Title: "Two", Score: 1})
	require.Equal(t, a.URL, b.URL)
	require.Equal(t, a.Similar, b.Similar)
	require.Equal(t, a.Reviews, b.Reviews)
}

func TestLinkerTerms(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "localhost", basePath: "/api"}
	terms := l.Terms([]string{"panda pop"})
	require.Equal(t, []TermResource{{Term: "panda pop", URL: "http://localhost/api/apps/?q=panda+pop"}}, terms)
	require.NotNil(t, l.Terms(nil))
}

func TestLinkerPaginate(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "localhost", basePath: "/api"}
	some := []scraper.Review{{ID: "1"}}
	base := "http://localhost/api/apps/42/reviews/?"

	tests := []struct {
		name     string
		query    url.Values
		reviews  []scraper.Review
		wantPrev string
		wantNext string
	}{
		{
			name:     "first page with results",
			query:    url.Values{},
			reviews:  some,
			wantNext: base + "page=1",
		},
		{
			name:     "later page without results",
			query:    url.Values{"page": {"3"}},
			wantPrev: base + "page=2",
		},
		{
			name:  "first page without results",
			query: url.Values{"page": {"0"}},
		},
		{
			name:     "preserves other parameters",
			query:    url.Values{"page": {"2"}, "sort": {"helpful"}, "country": {"gb"}},
			reviews:  some,
			wantPrev: base + "country=gb&page=1&sort=helpful",
			wantNext: base + "country=gb&page=3&sort=helpful",
		},
		{
			name:     "malformed page is zero",
			query:    url.Values{"page": {"abc"}},
			reviews:  some,
			wantNext: base + "page=1",
		},
		{
			name:     "negative page is zero",
			query:    url.Values{"page": {"-4"}},
			reviews:  some,
			wantNext: base + "page=1",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page := l.Paginate("42", tt.query, tt.reviews)
			require.Equal(t, tt.wantPrev, page.Prev)
			require.Equal(t, tt.wantNext, page.Next)
			require.NotNil(t, page.Results)
		})
	}
}

func TestPaginateDoesNotMutateQuery(t *testing.T) {
	t.Parallel()

	l := Linker{scheme: "http", host: "localhost", basePath: "/api"}
	q := url.Values{"page": {"1"}}
	l.Paginate("42", q, []scraper.Review{{ID: "1"}})
	require.Equal(t, "1", q.Get("page"))
}

func TestReviewPageOmitsAbsentCursors(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(ReviewPage{Results: []scraper.Review{}})
	require.NoError(t, err)
	require.JSONEq(t, `{"results":[]}`, string(raw))
}
