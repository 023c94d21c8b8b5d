package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/logging"
	"github.com/JakeFAU/appstore-api/internal/scraper"
)

type listResponse[T any] struct {
	Results []T `json:"results"`
}

func (s *Server) linker(r *http.Request) Linker {
	return NewLinker(r, s.basePath, s.cfg.Server.TrustProxy)
}

// query returns the caller's query string minus transport-only parameters.
func (s *Server) query(r *http.Request) url.Values {
	q := r.URL.Query()
	if s.cfg.Auth.Enabled {
		q.Del("api_key")
	}
	return q
}

func appIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "appId")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// fail reports a collaborator error. Every failure maps to 400.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), s.logger).Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"apps": s.linker(r).URL("apps")})
}

// apps serves search, suggest and list from one path. The first matching mode
// wins: q, then suggest, then list.
func (s *Server) apps(w http.ResponseWriter, r *http.Request) {
	q := s.query(r)
	switch {
	case q.Get("q") != "":
		s.search(w, r, q)
	case q.Get("suggest") != "":
		s.suggest(w, r, q)
	default:
		s.list(w, r, q)
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, q url.Values) {
	opts := scraper.NewOptions(q).WithDefault("term", q.Get("q"))
	apps, err := s.scraper.Search(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[AppResource]{Results: s.linker(r).Apps(apps)})
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request, q url.Values) {
	opts := scraper.NewOptions(url.Values{"term": {q.Get("suggest")}})
	terms, err := s.scraper.Suggest(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[TermResource]{Results: s.linker(r).Terms(terms)})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, q url.Values) {
	apps, err := s.scraper.List(r.Context(), scraper.NewOptions(q))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[AppResource]{Results: s.linker(r).Apps(apps)})
}

func (s *Server) app(w http.ResponseWriter, r *http.Request) {
	opts := scraper.NewOptions(s.query(r)).WithDefault("appId", appIDParam(r))
	app, err := s.scraper.App(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.linker(r).App(app))
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	opts := scraper.NewOptions(s.query(r)).WithDefault("appId", appIDParam(r))
	apps, err := s.scraper.Similar(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[AppResource]{Results: s.linker(r).Apps(apps)})
}

func (s *Server) reviews(w http.ResponseWriter, r *http.Request) {
	q := s.query(r)
	appID := appIDParam(r)
	reviews, err := s.scraper.Reviews(r.Context(), scraper.NewOptions(q).WithDefault("appId", appID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.linker(r).Paginate(appID, q, reviews))
}
