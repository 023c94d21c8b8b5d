// Package scraper defines the collaborator contract the HTTP API delegates to.
//
// A Scraper exposes six capabilities (search, suggest, list, app, similar,
// reviews). Each one receives the caller's query options verbatim and returns
// plain records; link decoration happens elsewhere. Implementations:
//   - itunes.Client talks to Apple's public iTunes endpoints.
//   - Instrumented wraps any Scraper with zap logging and Prometheus metrics.
//   - cache.Scraper memoizes results in a cache.Store.
package scraper
