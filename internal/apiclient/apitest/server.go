// Package apitest provides an in-memory StockBot API for tests.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/newthinker/stockboard/internal/core"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// Failure is an injected error response.
type Failure struct {
	Status int
	Detail string
}

// Server is a fake StockBot API backed by httptest.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []Request
	failures  map[string]Failure
	hooks     map[string]func()
	health    core.Health
	watchlist []string
	quotes    map[string]core.Quote
	analyses  map[string]core.Analysis
	portfolio core.Portfolio
	alerts    []core.Alert
	check     core.AlertCheck
	briefing  core.Briefing
	nextID    int64
}

// New starts a fake API with a healthy status and empty state.
func New() *Server {
	s := &Server{
		failures: make(map[string]Failure),
		hooks:    make(map[string]func()),
		health:   core.Health{Status: "ok", LLMConnected: true, Provider: "ollama", Model: "llama3"},
		quotes:   make(map[string]core.Quote),
		analyses: make(map[string]core.Analysis),
		check:    core.AlertCheck{Message: "No active alerts."},
		nextID:   1,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordAndFail)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.health)
	})

	r.Get("/watchlist", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"symbols": append([]string{}, s.watchlist...)})
	})
	r.Post("/watchlist", func(w http.ResponseWriter, r *http.Request) {
		body := bodyFrom(r)
		sym := strings.ToUpper(asString(body["symbol"]))
		s.mu.Lock()
		defer s.mu.Unlock()
		if !contains(s.watchlist, sym) {
			s.watchlist = append(s.watchlist, sym)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "added", "symbol": sym})
	})
	r.Delete("/watchlist/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		sym := chi.URLParam(r, "symbol")
		s.mu.Lock()
		defer s.mu.Unlock()
		if !contains(s.watchlist, sym) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": sym + " not in watchlist"})
			return
		}
		s.watchlist = remove(s.watchlist, sym)
		writeJSON(w, http.StatusOK, map[string]any{"status": "removed", "symbol": sym})
	})

	r.Get("/quote/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		sym := chi.URLParam(r, "symbol")
		s.mu.Lock()
		q, ok := s.quotes[sym]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No data for " + sym})
			return
		}
		writeJSON(w, http.StatusOK, q)
	})
	r.Get("/analyze/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		sym := chi.URLParam(r, "symbol")
		s.mu.Lock()
		a, ok := s.analyses[sym]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No data for " + sym})
			return
		}
		writeJSON(w, http.StatusOK, a)
	})

	r.Get("/portfolio", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		p := s.portfolio
		if len(p.Holdings) == 0 && p.AISummary == "" {
			p.AISummary = core.EmptyPortfolioSentinel
		}
		if p.Holdings == nil {
			p.Holdings = []core.Holding{}
		}
		writeJSON(w, http.StatusOK, p)
	})
	r.Post("/portfolio", func(w http.ResponseWriter, r *http.Request) {
		body := bodyFrom(r)
		h := core.Holding{
			Symbol:  strings.ToUpper(asString(body["symbol"])),
			Shares:  asFloat(body["shares"]),
			AvgCost: asFloat(body["avg_cost"]),
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.portfolio.Holdings = append(s.portfolio.Holdings, h)
		writeJSON(w, http.StatusOK, map[string]any{"status": "added", "holding": h})
	})
	r.Delete("/portfolio/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		sym := chi.URLParam(r, "symbol")
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := s.portfolio.Holdings[:0]
		for _, h := range s.portfolio.Holdings {
			if h.Symbol != sym {
				kept = append(kept, h)
			}
		}
		s.portfolio.Holdings = kept
		writeJSON(w, http.StatusOK, map[string]any{"status": "removed", "symbol": sym})
	})

	r.Get("/alerts", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"alerts": append([]core.Alert{}, s.alerts...)})
	})
	r.Post("/alerts", func(w http.ResponseWriter, r *http.Request) {
		body := bodyFrom(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		a := core.Alert{
			ID:        s.nextID,
			Symbol:    strings.ToUpper(asString(body["symbol"])),
			Condition: core.Condition(asString(body["condition"])),
			Price:     asFloat(body["price"]),
			Active:    true,
		}
		s.nextID++
		s.alerts = append(s.alerts, a)
		writeJSON(w, http.StatusOK, map[string]any{"status": "created", "alert": a})
	})
	r.Post("/check-alerts", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, t := range s.check.Triggered {
			for i := range s.alerts {
				if s.alerts[i].ID == t.ID {
					s.alerts[i].Active = false
				}
			}
		}
		writeJSON(w, http.StatusOK, s.check)
	})

	r.Post("/briefing", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.briefing)
	})

	return r
}

func (s *Server) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				req.Body = body
			}
		}

		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, req)
		hook := s.hooks[key]
		f, failing := s.failures[key]
		s.mu.Unlock()

		if hook != nil {
			hook()
		}
		if failing {
			if f.Detail == "" {
				w.WriteHeader(f.Status)
				return
			}
			writeJSON(w, f.Status, map[string]string{"detail": f.Detail})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, req.Body)))
	})
}

type bodyKey struct{}

func bodyFrom(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	return body
}

// Fail makes method+path answer with status and detail. An empty detail sends
// an empty body.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = Failure{Status: status, Detail: detail}
}

// Recover clears an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hook runs fn before method+path is answered. It can block to hold a
// response back.
func (s *Server) Hook(method, path string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[method+" "+path] = fn
}

// Requests returns every recorded call.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.requests...)
}

// Count returns how many calls matched method+path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset clears the request log.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// SetHealth sets the /health response.
func (s *Server) SetHealth(h core.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// SetWatchlist replaces the watchlist membership.
func (s *Server) SetWatchlist(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlist = append([]string{}, symbols...)
}

// Watchlist returns the current membership.
func (s *Server) Watchlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.watchlist...)
}

// SetQuote registers a quote. Symbols without a quote answer 404.
func (s *Server) SetQuote(q core.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

// SetAnalysis registers an analysis result.
func (s *Server) SetAnalysis(a core.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.Symbol] = a
}

// SetPortfolio replaces the portfolio response.
func (s *Server) SetPortfolio(p core.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = p
}

// SetAlerts replaces the alert list.
func (s *Server) SetAlerts(alerts ...core.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]core.Alert{}, alerts...)
}

// SetCheck sets the /check-alerts response.
func (s *Server) SetCheck(c core.AlertCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.check = c
}

// SetBriefing sets the /briefing response.
func (s *Server) SetBriefing(b core.Briefing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefing = b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
