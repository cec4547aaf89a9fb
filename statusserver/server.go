// Package statusserver is a read-only HTTP surface over a CrawlFrontier's
// state, the frontier-scoped descendant of the teacher's console package:
// same gorilla/mux routing and unrolled/render JSON rendering, narrowed to
// inspection (no link-graph editing, no sessions, no HTML admin forms --
// those belonged to the serving frontend the core spec excludes).
package statusserver

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/unrolled/render"

	"github.com/iParadigms/frontier"
)

// Server exposes a CrawlFrontier's domain/url/redirect state over HTTP.
type Server struct {
	router   *mux.Router
	render   *render.Render
	frontier *frontier.CrawlFrontier
}

// New builds a Server backed by f. Call Router() to get the http.Handler to
// serve, typically via http.ListenAndServe(addr, srv.Router()).
func New(f *frontier.CrawlFrontier) *Server {
	s := &Server{
		frontier: f,
		render:   render.New(render.Options{IndentJSON: true}),
	}

	// SkipClean keeps the "//" inside a full URL in /redirects/{url} intact
	// instead of answering with a redirect to a cleaned path.
	r := mux.NewRouter().SkipClean(true)
	r.HandleFunc("/domains", s.listDomains).Methods(http.MethodGet)
	r.HandleFunc("/domains/{domain}/urls", s.domainUrls).Methods(http.MethodGet)
	r.HandleFunc("/redirects/{url:.*}", s.redirect).Methods(http.MethodGet)
	s.router = r

	return s
}

// Router returns the http.Handler serving this status surface.
func (s *Server) Router() http.Handler { return s.router }

type domainStateView struct {
	Domain    string  `json:"domain"`
	Weight    float64 `json:"weight"`
	Status    string  `json:"status"`
	TotalUrls uint64  `json:"total_urls"`
}

// listDomains dumps every known domain's current state as JSON, optionally
// bounded by a ?limit= query param (0 or absent means unbounded). It collects
// the views from ForEachDomain and stops the scan once the limit is reached.
func (s *Server) listDomains(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	views := make([]domainStateView, 0, 64)
	err := s.frontier.ForEachDomain(func(d frontier.Domain, state frontier.DomainState) error {
		views = append(views, domainStateView{
			Domain:    d.String(),
			Weight:    state.Weight,
			Status:    state.Status.String(),
			TotalUrls: state.TotalUrls,
		})
		if limit > 0 && len(views) >= limit {
			return errStopIteration
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		s.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.render.JSON(w, http.StatusOK, views)
}

// domainUrls returns every URL ever written for the {domain} path variable.
func (s *Server) domainUrls(w http.ResponseWriter, req *http.Request) {
	domain := mux.Vars(req)["domain"]

	urls, err := s.frontier.GetAllUrls(frontier.NewDomain(domain))
	if err != nil {
		s.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.render.JSON(w, http.StatusOK, map[string]interface{}{
		"domain": domain,
		"urls":   urls,
	})
}

// redirect returns the recorded redirect target for the {url} path
// variable, or 404 if none is recorded.
func (s *Server) redirect(w http.ResponseWriter, req *http.Request) {
	url := mux.Vars(req)["url"]

	to, ok, err := s.frontier.GetRedirect(url)
	if err != nil {
		s.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		s.render.JSON(w, http.StatusNotFound, map[string]string{"error": "no redirect recorded"})
		return
	}

	s.render.JSON(w, http.StatusOK, map[string]string{"from": url, "to": to})
}

// errStopIteration is a sentinel ForEachDomain error used only to cut a scan
// short once the response limit is reached; it is never surfaced to callers.
var errStopIteration = &stopIterationError{}

type stopIterationError struct{}

func (*stopIterationError) Error() string { return "stop iteration" }
