// Package http serves the ledger's JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/middleware/ratelimit"
	"conti/internal/middleware/security"
	"conti/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router needs. Ready may be nil.
type Deps struct {
	Ledger  *services.LedgerService
	Reports *services.ReportService
	Metrics *metrics.Metrics
	Logger  *log.Logger
	Ready   func(ctx context.Context) error

	// WriteRateLimit caps POST/PUT requests per client per minute; 0 disables it.
	WriteRateLimit int
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer returns a ready-to-run server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	var limiter *ratelimit.Limiter
	if deps.WriteRateLimit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WriteRateLimit})
	}
	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// NewRouter builds the route table. limiter may be nil.
func NewRouter(deps Deps, limiter *ratelimit.Limiter) http.Handler {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	h := &handlers{ledger: deps.Ledger, reports: deps.Reports}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(deps.Logger))
	r.Use(observe(deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady(deps.Ready))
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	writes := func(r chi.Router) chi.Router { return r }
	if limiter != nil {
		mw := limiter.Middleware(security.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			deps.Metrics.IncRateLimited()
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, security.ClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		})
		writes = func(r chi.Router) chi.Router { return r.With(mw) }
	}

	r.Route("/books", func(r chi.Router) {
		writes(r).Post("/", h.createBook)
		r.Route("/{bookID}", func(r chi.Router) {
			r.Get("/", h.getBook)

			r.Get("/accounts", h.listAccounts)
			writes(r).Post("/accounts", h.createAccount)

			r.Get("/categories", h.listCategories)
			writes(r).Post("/categories", h.createCategory)

			r.Get("/transactions", h.listTransactions)
			writes(r).Post("/transactions", h.createTransaction)
			r.Get("/transactions/{txID}", h.getTransaction)
			writes(r).Put("/transactions/{txID}", h.updateTransaction)

			r.Get("/reports/summary/monthly", h.monthlySummary)
			r.Get("/reports/summary/yearly", h.yearlySummary)
			r.Get("/reports/categories", h.categoryDistribution)
		})
	})

	r.Get("/rates", h.listRates)
	writes(r).Post("/rates", h.createRate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

// observe records request duration by route pattern once routing is done.
func observe(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveHTTP(route, r.Method, strconv.Itoa(status), time.Since(start))
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
				writeError(w, http.StatusServiceUnavailable, "Storage is not ready.")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
