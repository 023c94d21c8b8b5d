// Package api hosts the HTTP server, middleware, and REST handlers that proxy
// App Store scraping behind stable, self-describing URLs. Notable routes:
//   - GET {base}/ and {base}/apps/ for the index, search, suggest and list.
//   - GET {base}/apps/{appId} plus /similar and /reviews sub-resources.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
