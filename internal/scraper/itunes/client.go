// Package itunes implements scraper.Scraper against Apple's public iTunes endpoints.
package itunes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/appstore-api/internal/policy/ratelimit"
)

const (
	defaultITunesBaseURL = "https://itunes.apple.com"
	defaultAppsBaseURL   = "https://apps.apple.com"
	defaultHintsBaseURL  = "https://search.itunes.apple.com"
	defaultCountry       = "us"
	defaultLang          = "en_us"
	defaultTimeout       = 15 * time.Second
)

// Config controls collector behavior and upstream locations.
type Config struct {
	ITunesBaseURL string
	AppsBaseURL   string
	HintsBaseURL  string
	Country       string
	Lang          string
	UserAgent     string
	Timeout       time.Duration
}

// Client fetches store data with a Colly collector.
type Client struct {
	cfg           Config
	limiter       *ratelimit.Limiter
	baseCollector *colly.Collector
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Code, e.URL)
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// request describes one upstream GET.
type request struct {
	URL     string
	Accept  string
	Headers http.Header
	// register adds HTML/XML callbacks to the per-request collector.
	register func(*colly.Collector)
}

// New builds a Client. A nil limiter disables throttling.
func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	cfg = withDefaults(cfg)

	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Client{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
	}
}

func withDefaults(cfg Config) Config {
	if cfg.ITunesBaseURL == "" {
		cfg.ITunesBaseURL = defaultITunesBaseURL
	}
	if cfg.AppsBaseURL == "" {
		cfg.AppsBaseURL = defaultAppsBaseURL
	}
	if cfg.HintsBaseURL == "" {
		cfg.HintsBaseURL = defaultHintsBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.Lang == "" {
		cfg.Lang = defaultLang
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// fetch executes a single GET and returns the response body.
func (c *Client) fetch(ctx context.Context, req request) ([]byte, error) {
	if err := c.limiter.Wait(ctx, req.URL); err != nil {
		return nil, err
	}

	var (
		body     []byte
		fetchErr error
	)
	collector := c.baseCollector.Clone()
	collector.Context = ctx
	configureHooks(collector, req, &body, &fetchErr)
	if req.register != nil {
		req.register(collector)
	}

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(req.URL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
		}
		return body, nil
	}
}

func configureHooks(hooks collectorHooks, req request, body *[]byte, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		if req.Accept != "" {
			r.Headers.Set("Accept", req.Accept)
		}
		for key, values := range req.Headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = &StatusError{URL: req.URL, Code: r.StatusCode}
			return
		}
		*fetchErr = fmt.Errorf("fetch %s: %w", req.URL, err)
	})
}

// IsStatus reports whether err carries the given upstream status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
