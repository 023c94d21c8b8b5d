package itunes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JakeFAU/appstore-api/internal/scraper"
)

const (
	defaultCollection = "topfreeapplications"
	defaultListNum    = 50
	maxListNum        = 200
	maxReviewPage     = 10
)

// Collections served by the legacy RSS feed generator.
var collections = map[string]bool{
	"topmacapps":                  true,
	"topfreemacapps":              true,
	"topgrossingmacapps":          true,
	"toppaidmacapps":              true,
	"newapplications":             true,
	"newfreeapplications":         true,
	"newpaidapplications":         true,
	"topfreeapplications":         true,
	"topfreeipadapplications":     true,
	"topgrossingapplications":     true,
	"topgrossingipadapplications": true,
	"toppaidapplications":         true,
	"toppaidipadapplications":     true,
}

var (
	reviewSorts = map[string]string{
		"recent":  "mostrecent",
		"helpful": "mosthelpful",
	}
	artistID = regexp.MustCompile(`/id(\d+)`)
)

// List returns a store chart (collection, optionally narrowed to a category).
func (c *Client) List(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	collection := strings.TrimSpace(opts.Get("collection"))
	if collection == "" {
		collection = defaultCollection
	}
	if !collections[collection] {
		return nil, fmt.Errorf("%w: invalid collection %s", scraper.ErrInvalidOption, collection)
	}
	num, err := opts.Int("num", defaultListNum)
	if err != nil {
		return nil, err
	}
	if num < 1 || num > maxListNum {
		return nil, fmt.Errorf("%w: cannot retrieve more than %d apps", scraper.ErrInvalidOption, maxListNum)
	}

	feedURL := fmt.Sprintf("%s/%s/rss/%s/limit=%d", c.cfg.ITunesBaseURL, c.country(opts), collection, num)
	if category := strings.TrimSpace(opts.Get("category")); category != "" {
		if !numericID.MatchString(category) {
			return nil, fmt.Errorf("%w: category must be a numeric genre id", scraper.ErrInvalidOption)
		}
		feedURL += "/genre=" + category
	}
	feedURL += "/json"

	body, err := c.fetch(ctx, request{URL: feedURL, Accept: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	entries := feedEntries(body)
	apps := make([]scraper.App, 0, len(entries))
	for _, entry := range entries {
		apps = append(apps, parseFeedApp(entry))
	}
	return apps, nil
}

// Reviews returns one page (1..10) of customer reviews.
func (c *Client) Reviews(ctx context.Context, opts scraper.Options) ([]scraper.Review, error) {
	page, err := opts.Int("page", 1)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if page > maxReviewPage {
		return nil, fmt.Errorf("%w: page should be between 1 and %d", scraper.ErrInvalidOption, maxReviewPage)
	}
	sort := "recent"
	if v := strings.TrimSpace(opts.Get("sort")); v != "" {
		sort = v
	}
	sortBy, ok := reviewSorts[sort]
	if !ok {
		return nil, fmt.Errorf("%w: invalid sort %s", scraper.ErrInvalidOption, sort)
	}

	id, err := c.resolveID(ctx, opts)
	if err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%d/sortby=%s/json",
		c.cfg.ITunesBaseURL, c.country(opts), page, id, sortBy)
	body, err := c.fetch(ctx, request{URL: feedURL, Accept: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("reviews: %w", err)
	}

	entries := feedEntries(body)
	reviews := make([]scraper.Review, 0, len(entries))
	for _, entry := range entries {
		// The first entry of some feeds describes the app itself.
		if !entry.Get("content").Exists() {
			continue
		}
		score, _ := strconv.Atoi(entry.Get("im:rating.label").String())
		reviews = append(reviews, scraper.Review{
			ID:       entry.Get("id.label").String(),
			UserName: entry.Get("author.name.label").String(),
			UserURL:  entry.Get("author.uri.label").String(),
			Version:  entry.Get("im:version.label").String(),
			Score:    score,
			Title:    entry.Get("title.label").String(),
			Text:     entry.Get("content.label").String(),
			URL:      feedLink(entry),
			Updated:  entry.Get("updated.label").String(),
		})
	}
	return reviews, nil
}

// feedEntries normalizes feed.entry, which is an object when there is one entry.
func feedEntries(body []byte) []gjson.Result {
	entry := gjson.GetBytes(body, "feed.entry")
	switch {
	case entry.IsArray():
		return entry.Array()
	case entry.IsObject():
		return []gjson.Result{entry}
	default:
		return nil
	}
}

// feedLink returns the entry's page link; link may be a single object or a list.
func feedLink(entry gjson.Result) string {
	link := entry.Get("link")
	if link.IsArray() {
		for _, l := range link.Array() {
			if l.Get("attributes.rel").String() == "alternate" {
				return l.Get("attributes.href").String()
			}
		}
		if items := link.Array(); len(items) > 0 {
			return items[0].Get("attributes.href").String()
		}
		return ""
	}
	return link.Get("attributes.href").String()
}

func parseFeedApp(entry gjson.Result) scraper.App {
	price := entry.Get("im:price.attributes.amount").Float()
	developerURL := entry.Get("im:artist.attributes.href").String()

	var developerID int64
	if m := artistID.FindStringSubmatch(developerURL); m != nil {
		developerID, _ = strconv.ParseInt(m[1], 10, 64)
	}
	var icon string
	if images := entry.Get("im:image").Array(); len(images) > 0 {
		icon = images[len(images)-1].Get("label").String()
	}

	return scraper.App{
		ID:             entry.Get("id.attributes.im:id").Int(),
		AppID:          entry.Get("id.attributes.im:bundleId").String(),
		Title:          entry.Get("im:name.label").String(),
		Icon:           icon,
		URL:            feedLink(entry),
		Price:          price,
		Currency:       entry.Get("im:price.attributes.currency").String(),
		Free:           price == 0,
		Description:    entry.Get("summary.label").String(),
		Developer:      entry.Get("im:artist.label").String(),
		DeveloperURL:   developerURL,
		DeveloperID:    developerID,
		PrimaryGenre:   entry.Get("category.attributes.label").String(),
		PrimaryGenreID: entry.Get("category.attributes.im:id").Int(),
		Released:       entry.Get("im:releaseDate.label").String(),
	}
}
