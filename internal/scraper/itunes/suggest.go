package itunes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/appstore-api/internal/scraper"
)

const hintTermXPath = "//dict/key[text()='term']/following-sibling::string[1]"

// storeFronts maps country codes to the store front ids the hints endpoint expects.
var storeFronts = map[string]string{
	"us": "143441",
	"fr": "143442",
	"de": "143443",
	"gb": "143444",
	"it": "143450",
	"nl": "143452",
	"es": "143454",
	"ca": "143455",
	"se": "143456",
	"au": "143460",
	"jp": "143462",
	"cn": "143465",
	"kr": "143466",
	"in": "143467",
	"mx": "143468",
	"ru": "143469",
	"br": "143503",
}

// Suggest returns search-term completions for a partial term.
func (c *Client) Suggest(ctx context.Context, opts scraper.Options) ([]string, error) {
	term := strings.TrimSpace(opts.Get("term"))
	if term == "" {
		return nil, fmt.Errorf("%w: term missing", scraper.ErrInvalidOption)
	}

	query := url.Values{}
	query.Set("clientApplication", "Software")
	query.Set("term", term)

	headers := http.Header{}
	if front, ok := storeFronts[c.country(opts)]; ok {
		headers.Set("X-Apple-Store-Front", front+",29")
	}

	terms := []string{}
	_, err := c.fetch(ctx, request{
		URL:     c.cfg.HintsBaseURL + "/WebObjects/MZSearchHints.woa/wa/hints?" + query.Encode(),
		Accept:  "application/xml",
		Headers: headers,
		register: func(collector *colly.Collector) {
			collector.OnXML(hintTermXPath, func(e *colly.XMLElement) {
				if t := strings.TrimSpace(e.Text); t != "" {
					terms = append(terms, t)
				}
			})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return terms, nil
}
