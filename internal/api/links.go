package api

import (
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/JakeFAU/appstore-api/internal/scraper"
)

// Linker builds absolute URLs rooted at the API mount point of one request.
type Linker struct {
	scheme   string
	host     string
	basePath string
}

// NewLinker derives scheme and host from r. When trustProxy is set the
// X-Forwarded-Proto and X-Forwarded-Host headers take precedence.
func NewLinker(r *http.Request, basePath string, trustProxy bool) Linker {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if trustProxy {
		if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			scheme = proto
		}
		if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
			host = fwd
		}
	}
	return Linker{scheme: scheme, host: host, basePath: basePath}
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// URL joins subpath onto host and base path. Duplicate slashes collapse and a
// trailing slash on subpath survives the join.
func (l Linker) URL(subpath string) string {
	joined := path.Join(l.host, l.basePath, subpath)
	if strings.HasSuffix(subpath, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return l.scheme + "://" + joined
}

// URLWithQuery appends an encoded query string to URL(subpath).
func (l Linker) URLWithQuery(subpath string, query url.Values) string {
	return l.URL(subpath) + "?" + query.Encode()
}

// DeveloperLink points at the developer sub-resource of an app.
type DeveloperLink struct {
	DevID string `json:"devId"`
	URL   string `json:"url"`
}

// AppResource is an upstream app record decorated with absolute links. The
// outer fields shadow the same-named fields of the embedded App when encoded.
type AppResource struct {
	scraper.App
	PlaystoreURL string        `json:"playstoreUrl"`
	URL          string        `json:"url"`
	Permissions  string        `json:"permissions"`
	Similar      string        `json:"similar"`
	Reviews      string        `json:"reviews"`
	Developer    DeveloperLink `json:"developer"`
}

// App decorates app. It never fails and depends only on the request context
// and the app's appId and developer.
func (l Linker) App(app scraper.App) AppResource {
	base := "apps/" + app.AppID
	return AppResource{
		App:          app,
		PlaystoreURL: app.URL,
		URL:          l.URL(base),
		Permissions:  l.URL(base + "/permissions"),
		Similar:      l.URL(base + "/similar"),
		Reviews:      l.URL(base + "/reviews"),
		Developer: DeveloperLink{
			DevID: app.Developer,
			URL:   l.URL("developers/" + escapeComponent(app.Developer)),
		},
	}
}

// Apps decorates every record, always returning a non-nil slice.
func (l Linker) Apps(apps []scraper.App) []AppResource {
	out := make([]AppResource, 0, len(apps))
	for _, app := range apps {
		out = append(out, l.App(app))
	}
	return out
}

// TermResource is one search suggestion with a link that runs the search.
type TermResource struct {
	Term string `json:"term"`
	URL  string `json:"url"`
}

// Terms maps suggestions to search links.
func (l Linker) Terms(terms []string) []TermResource {
	out := make([]TermResource, 0, len(terms))
	for _, term := range terms {
		out = append(out, TermResource{
			Term: term,
			URL:  l.URLWithQuery("/apps/", url.Values{"q": {term}}),
		})
	}
	return out
}

// ReviewPage is a page of reviews with optimistic navigation cursors.
type ReviewPage struct {
	Results []scraper.Review `json:"results"`
	Prev    string           `json:"prev,omitempty"`
	Next    string           `json:"next,omitempty"`
}

// Paginate wraps reviews and computes cursors from the page query parameter.
// prev appears only past page 0; next appears whenever results is non-empty.
func (l Linker) Paginate(appID string, query url.Values, reviews []scraper.Review) ReviewPage {
	if reviews == nil {
		reviews = []scraper.Review{}
	}
	out := ReviewPage{Results: reviews}
	page := currentPage(query)
	subpath := "/apps/" + appID + "/reviews/"
	if page > 0 {
		out.Prev = l.URLWithQuery(subpath, withPage(query, page-1))
	}
	if len(reviews) > 0 {
		out.Next = l.URLWithQuery(subpath, withPage(query, page+1))
	}
	return out
}

// currentPage reads page, treating absent, malformed or negative values as 0.
func currentPage(query url.Values) int {
	page, err := strconv.Atoi(strings.TrimSpace(query.Get("page")))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func withPage(query url.Values, page int) url.Values {
	cp := make(url.Values, len(query)+1)
	for k, v := range query {
		cp[k] = append([]string(nil), v...)
	}
	cp.Set("page", strconv.Itoa(page))
	return cp
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent percent-encodes s the way encodeURIComponent does.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
