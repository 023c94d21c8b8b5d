package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/metrics"
)

// Instrumented wraps a Scraper with logging and Prometheus metrics.
type Instrumented struct {
	next   Scraper
	logger *zap.Logger
}

// NewInstrumented decorates next. A nil logger is replaced with a no-op logger.
func NewInstrumented(next Scraper, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{next: next, logger: logger}
}

func (s *Instrumented) observe(capability string, opts Options, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.ObserveUpstream(capability, err, elapsed)
	fields := []zap.Field{
		zap.String("capability", capability),
		zap.String("options", opts.Key()),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		s.logger.Warn("scraper call failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("scraper call completed", fields...)
}

// Search implements Scraper.
func (s *Instrumented) Search(ctx context.Context, opts Options) (apps []App, err error) {
	defer func(start time.Time) { s.observe(CapabilitySearch, opts, start, err) }(time.Now())
	return s.next.Search(ctx, opts)
}

// Suggest implements Scraper.
func (s *Instrumented) Suggest(ctx context.Context, opts Options) (terms []string, err error) {
	defer func(start time.Time) { s.observe(CapabilitySuggest, opts, start, err) }(time.Now())
	return s.next.Suggest(ctx, opts)
}

// List implements Scraper.
func (s *Instrumented) List(ctx context.Context, opts Options) (apps []App, err error) {
	defer func(start time.Time) { s.observe(CapabilityList, opts, start, err) }(time.Now())
	return s.next.List(ctx, opts)
}

// App implements Scraper.
func (s *Instrumented) App(ctx context.Context, opts Options) (app App, err error) {
	defer func(start time.Time) { s.observe(CapabilityApp, opts, start, err) }(time.Now())
	return s.next.App(ctx, opts)
}

// Similar implements Scraper.
func (s *Instrumented) Similar(ctx context.Context, opts Options) (apps []App, err error) {
	defer func(start time.Time) { s.observe(CapabilitySimilar, opts, start, err) }(time.Now())
	return s.next.Similar(ctx, opts)
}

// Reviews implements Scraper.
func (s *Instrumented) Reviews(ctx context.Context, opts Options) (reviews []Review, err error) {
	defer func(start time.Time) { s.observe(CapabilityReviews, opts, start, err) }(time.Now())
	return s.next.Reviews(ctx, opts)
}
