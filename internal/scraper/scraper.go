package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when the store has no record for the requested app.
	ErrNotFound = errors.New("App not found (404)")
	// ErrInvalidOption marks option values the collaborator refuses.
	ErrInvalidOption = errors.New("invalid option")
)

// Capability names, used as metric labels and cache key prefixes.
const (
	CapabilitySearch  = "search"
	CapabilitySuggest = "suggest"
	CapabilityList    = "list"
	CapabilityApp     = "app"
	CapabilitySimilar = "similar"
	CapabilityReviews = "reviews"
)

// Scraper is the app-store collaborator.
type Scraper interface {
	Search(ctx context.Context, opts Options) ([]App, error)
	Suggest(ctx context.Context, opts Options) ([]string, error)
	List(ctx context.Context, opts Options) ([]App, error)
	App(ctx context.Context, opts Options) (App, error)
	Similar(ctx context.Context, opts Options) ([]App, error)
	Reviews(ctx context.Context, opts Options) ([]Review, error)
}

// Options carries query parameters forwarded from the HTTP request.
type Options url.Values

// NewOptions copies the given query values.
func NewOptions(values url.Values) Options {
	return Options(values).Clone()
}

// Get returns the first value for key.
func (o Options) Get(key string) string {
	return url.Values(o).Get(key)
}

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	return url.Values(o).Has(key)
}

// Set replaces the values for key.
func (o Options) Set(key, value string) {
	url.Values(o).Set(key, value)
}

// WithDefault returns a copy of o where key is set to value unless the caller
// already supplied it.
func (o Options) WithDefault(key, value string) Options {
	cp := o.Clone()
	if !cp.Has(key) {
		cp.Set(key, value)
	}
	return cp
}

// Int parses key as an integer, returning def when absent.
func (o Options) Int(key string, def int) (int, error) {
	raw := strings.TrimSpace(o.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidOption, key, raw)
	}
	return n, nil
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	cp := make(Options, len(o))
	for k, v := range o {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// Key returns a canonical encoding with keys sorted.
func (o Options) Key() string {
	return url.Values(o).Encode()
}
