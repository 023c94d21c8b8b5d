package itunes

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/tidwall/gjson"

	"github.com/JakeFAU/appstore-api/internal/scraper"
)

const (
	defaultSearchNum = 50
	maxSearchLimit   = 200
	maxLookupIDs     = 150
)

var (
	numericID   = regexp.MustCompile(`^\d+$`)
	appLinkPath = regexp.MustCompile(`/app/(?:[^/]+/)?id(\d+)`)
)

// Search queries the store by term. num and page (1-based) select a window of
// the result list.
func (c *Client) Search(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	term := strings.TrimSpace(opts.Get("term"))
	if term == "" {
		return nil, fmt.Errorf("%w: term is required", scraper.ErrInvalidOption)
	}
	num, err := opts.Int("num", defaultSearchNum)
	if err != nil {
		return nil, err
	}
	page, err := opts.Int("page", 1)
	if err != nil {
		return nil, err
	}
	if num <= 0 {
		num = defaultSearchNum
	}
	if num > maxSearchLimit {
		num = maxSearchLimit
	}
	if page <= 0 {
		page = 1
	}
	// The store never returns more than maxSearchLimit results.
	if page-1 > maxSearchLimit/num {
		return []scraper.App{}, nil
	}
	limit := num * page
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	query := url.Values{}
	query.Set("media", "software")
	query.Set("entity", "software")
	query.Set("term", term)
	query.Set("country", c.country(opts))
	query.Set("lang", c.lang(opts))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.fetch(ctx, request{
		URL:    c.cfg.ITunesBaseURL + "/search?" + query.Encode(),
		Accept: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	apps := parseResults(body)

	start := (page - 1) * num
	if start >= len(apps) {
		return []scraper.App{}, nil
	}
	end := start + num
	if end > len(apps) {
		end = len(apps)
	}
	return apps[start:end], nil
}

// App looks up a single application by numeric id or bundle id.
func (c *Client) App(ctx context.Context, opts scraper.Options) (scraper.App, error) {
	key, value := appKey(opts)
	if key == "" {
		return scraper.App{}, fmt.Errorf("%w: either id or appId is required", scraper.ErrInvalidOption)
	}
	query := url.Values{}
	query.Set(key, value)
	query.Set("country", c.country(opts))
	query.Set("lang", c.lang(opts))
	query.Set("entity", "software")

	apps, err := c.lookup(ctx, query)
	if err != nil {
		return scraper.App{}, err
	}
	if len(apps) == 0 {
		return scraper.App{}, scraper.ErrNotFound
	}
	return apps[0], nil
}

// Similar returns the apps the store page links to as related.
func (c *Client) Similar(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	id, err := c.resolveID(ctx, opts)
	if err != nil {
		return nil, err
	}
	country := c.country(opts)

	var ids []string
	seen := map[string]bool{strconv.FormatInt(id, 10): true}
	_, err = c.fetch(ctx, request{
		URL:    fmt.Sprintf("%s/%s/app/id%d", c.cfg.AppsBaseURL, country, id),
		Accept: "text/html",
		register: func(collector *colly.Collector) {
			collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
				m := appLinkPath.FindStringSubmatch(e.Attr("href"))
				if m == nil || seen[m[1]] {
					return
				}
				seen[m[1]] = true
				ids = append(ids, m[1])
			})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("similar: %w", err)
	}
	if len(ids) == 0 {
		return []scraper.App{}, nil
	}
	if len(ids) > maxLookupIDs {
		ids = ids[:maxLookupIDs]
	}

	query := url.Values{}
	query.Set("id", strings.Join(ids, ","))
	query.Set("country", country)
	query.Set("lang", c.lang(opts))
	apps, err := c.lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	return orderByIDs(apps, ids), nil
}

func (c *Client) lookup(ctx context.Context, query url.Values) ([]scraper.App, error) {
	body, err := c.fetch(ctx, request{
		URL:    c.cfg.ITunesBaseURL + "/lookup?" + query.Encode(),
		Accept: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	return parseResults(body), nil
}

// resolveID returns the numeric track id, looking up bundle ids when needed.
func (c *Client) resolveID(ctx context.Context, opts scraper.Options) (int64, error) {
	key, value := appKey(opts)
	switch key {
	case "":
		return 0, fmt.Errorf("%w: either id or appId is required", scraper.ErrInvalidOption)
	case "id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: id must be numeric", scraper.ErrInvalidOption)
		}
		return id, nil
	}
	app, err := c.App(ctx, opts)
	if err != nil {
		if errors.Is(err, scraper.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("resolve %s: %w", value, err)
	}
	return app.ID, nil
}

// appKey picks the lookup parameter: numeric ids use "id", anything else is a bundle id.
func appKey(opts scraper.Options) (string, string) {
	if id := strings.TrimSpace(opts.Get("id")); id != "" {
		return "id", id
	}
	appID := strings.TrimSpace(opts.Get("appId"))
	switch {
	case appID == "":
		return "", ""
	case numericID.MatchString(appID):
		return "id", appID
	default:
		return "bundleId", appID
	}
}

func (c *Client) country(opts scraper.Options) string {
	if v := strings.ToLower(strings.TrimSpace(opts.Get("country"))); v != "" {
		return v
	}
	return c.cfg.Country
}

func (c *Client) lang(opts scraper.Options) string {
	if v := strings.TrimSpace(opts.Get("lang")); v != "" {
		return v
	}
	return c.cfg.Lang
}

func parseResults(body []byte) []scraper.App {
	results := gjson.GetBytes(body, "results").Array()
	apps := make([]scraper.App, 0, len(results))
	for _, res := range results {
		if !res.Get("trackId").Exists() {
			continue
		}
		apps = append(apps, parseApp(res))
	}
	return apps
}

func parseApp(res gjson.Result) scraper.App {
	price := res.Get("price").Float()
	updated := res.Get("currentVersionReleaseDate").String()
	if updated == "" {
		updated = res.Get("releaseDate").String()
	}
	return scraper.App{
		ID:                    res.Get("trackId").Int(),
		AppID:                 res.Get("bundleId").String(),
		Title:                 res.Get("trackName").String(),
		URL:                   res.Get("trackViewUrl").String(),
		Description:           res.Get("description").String(),
		Icon:                  firstString(res, "artworkUrl512", "artworkUrl100", "artworkUrl60"),
		Genres:                stringArray(res.Get("genres")),
		GenreIDs:              stringArray(res.Get("genreIds")),
		PrimaryGenre:          res.Get("primaryGenreName").String(),
		PrimaryGenreID:        res.Get("primaryGenreId").Int(),
		ContentRating:         res.Get("contentAdvisoryRating").String(),
		Languages:             stringArray(res.Get("languageCodesISO2A")),
		Size:                  res.Get("fileSizeBytes").String(),
		RequiredOsVersion:     res.Get("minimumOsVersion").String(),
		Released:              res.Get("releaseDate").String(),
		Updated:               updated,
		ReleaseNotes:          res.Get("releaseNotes").String(),
		Version:               res.Get("version").String(),
		Price:                 price,
		Currency:              res.Get("currency").String(),
		Free:                  price == 0,
		DeveloperID:           res.Get("artistId").Int(),
		Developer:             res.Get("artistName").String(),
		DeveloperURL:          res.Get("artistViewUrl").String(),
		DeveloperWebsite:      res.Get("sellerUrl").String(),
		Score:                 res.Get("averageUserRating").Float(),
		Reviews:               res.Get("userRatingCount").Int(),
		CurrentVersionScore:   res.Get("averageUserRatingForCurrentVersion").Float(),
		CurrentVersionReviews: res.Get("userRatingCountForCurrentVersion").Int(),
		Screenshots:           stringArray(res.Get("screenshotUrls")),
		IpadScreenshots:       stringArray(res.Get("ipadScreenshotUrls")),
		AppletvScreenshots:    stringArray(res.Get("appletvScreenshotUrls")),
		SupportedDevices:      stringArray(res.Get("supportedDevices")),
	}
}

func orderByIDs(apps []scraper.App, ids []string) []scraper.App {
	byID := make(map[string]scraper.App, len(apps))
	for _, app := range apps {
		byID[strconv.FormatInt(app.ID, 10)] = app
	}
	ordered := make([]scraper.App, 0, len(apps))
	for _, id := range ids {
		if app, ok := byID[id]; ok {
			ordered = append(ordered, app)
		}
	}
	return ordered
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}

func stringArray(res gjson.Result) []string {
	if !res.IsArray() {
		return nil
	}
	items := res.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}
