// Package api implements the HTTP surface (C12, spec §4/§6): the chi
// router and middleware stack, every JSON endpoint, range-capable video
// streaming, and the WebSocket upgrade path.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/metrics"
)

// metricsMiddleware records loopreel_http_requests_total per route and
// status code, grounded on the teacher's Metrics() stage.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

const defaultCSP = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: blob:; media-src 'self' blob: data:; connect-src 'self'; frame-ancestors 'none'"

// corsMiddleware mirrors the teacher's permissive-but-explicit CORS
// handling: browsers get an echoed Origin when allowed, non-browser
// clients with no Origin header get "*".
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	if len(allowedOrigins) == 0 {
		allowed["*"] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origin != "" && (allowed["*"] || allowed[origin]):
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case origin == "":
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// securityHeaders mirrors the teacher's common security header set.
func securityHeaders(csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = defaultCSP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimit wraps go-chi/httprate's sliding-window limiter, mirroring
// the teacher's APIRateLimit: requests-per-minute derived from a
// requests-per-second budget, disabled entirely when rps <= 0.
func rateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		rps*60,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	)
}

// NewRouter builds the chi router with the canonical middleware stack
// applied in the teacher's order: recoverer, request ID, CORS, security
// headers, metrics, logging, rate limit — then routes.
func NewRouter(s *Server, allowedOrigins []string, csp string, rateLimitRPS int) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(corsMiddleware(allowedOrigins))
	r.Use(securityHeaders(csp))
	r.Use(metricsMiddleware)
	r.Use(log.Middleware())
	r.Use(rateLimit(rateLimitRPS))

	s.registerRoutes(r)
	return r
}
