// Package main hosts the appstore-api service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server mounts the index, search/suggest/list, app detail, similar and reviews routes
//     under the configured base path, and exposes health, readiness and Prometheus metrics at the root. Every record
//     leaving the service is decorated with absolute URLs derived from the inbound request.
//   - Collaborator: internal/scraper/itunes talks to the iTunes search/lookup APIs, the RSS feeds, the store web
//     pages and the search hints endpoint through a shared Colly collector. It is wrapped by an instrumented decorator
//     (zap + Prometheus) and, when configured, by a memoizing cache (memory, Redis or Postgres).
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; outbound
//     requests are throttled per host through golang.org/x/time/rate.
//
// Operational notes:
//   - Every collaborator failure is reported as HTTP 400 with a {"message"} body. Unknown routes return 404.
//   - The request context flows into every upstream call, so client disconnects cancel outbound fetches.
//   - The process reacts to SIGINT/SIGTERM with a bounded graceful drain (server.shutdown_timeout_seconds).
//
// Quick checklist:
//   - Configure env vars: APPSTORE_SERVER_PORT or PORT, APPSTORE_SERVER_BASE_PATH, APPSTORE_STORE_COUNTRY,
//     APPSTORE_RATELIMIT_RPS, APPSTORE_CACHE_BACKEND plus the backend address or DSN.
//   - Run locally: go run ./cmd/appstore-api serve --config config.yaml (or rely solely on env overrides).
package main
