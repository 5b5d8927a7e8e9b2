// Package http exposes the ledger and its reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/metrics"
	"bilancio/internal/services"
)

const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
	readyTimeout      = 2 * time.Second
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes a Server. The zero value is usable.
type Options struct {
	// RateLimit caps mutating requests per client within RateWindow.
	RateLimit  int
	RateWindow time.Duration
	// Ready backs /readyz; nil means always ready.
	Ready  Pinger
	Logger *log.Logger
}

type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
	ready   Pinger
	limiter *rateLimiter
	logger  *log.Logger
	audit   *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = defaultRateWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:  ledger,
		reports: reports,
		ready:   opts.Ready,
		limiter: newRateLimiter(opts.RateLimit, opts.RateWindow),
		logger:  logger,
		audit:   log.NewStructuredLogger(logger),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.observe)
	r.Use(s.withSecurityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Put("/{id}", s.handleUpdateRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
			r.Get("/{id}/occurrences", s.handleOccurrences)
		})
		r.Route("/budget", func(r chi.Router) {
			r.Get("/", s.handleBudget)
			r.Put("/{category}", s.handleSetBudget)
			r.Delete("/{category}", s.handleDeleteBudget)
		})
		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Delete("/{name}", s.handleDeleteCategory)
		})
		r.Delete("/ledger", s.handleClear)
		r.Get("/report", s.handleReport)
		r.Get("/forecast", s.handleForecast)
		r.Get("/summary", s.handleSummary)
	})
	return r
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// observe records metrics and the completion log line of every request.
func (s *Server) observe(next http.Handler) http.Handler {
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
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		s.audit.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), extractClientIP(r))
	})
}

// withSecurityHeaders adds security headers and rate limits mutating requests.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if suspiciousRequest(r) {
			metrics.HTTPRejected.WithLabelValues("suspicious").Inc()
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		if isMutating(r.Method) {
			if ok, wait := s.limiter.allow(clientIP, time.Now()); !ok {
				metrics.HTTPRejected.WithLabelValues("rate_limit").Inc()
				log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleListTransactions lists the effective transactions at the reference
// date, recurring occurrences included, narrowed by the report filters and
// an optional kind.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f, err := parseFilter(query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ref, err := parseReference(query, s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	incomes, expenses, err := s.reports.Effective(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var txs []core.Transaction
	switch kind := core.Kind(strings.ToLower(query.Get("kind"))); kind {
	case core.Income:
		txs = incomes
	case core.Expense:
		txs = expenses
	case "":
		txs = append(incomes, expenses...)
	default:
		writeServiceError(w, r, core.ErrInvalidKind)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(core.Filter(txs, f)))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := req.toCore("")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := s.ledger.AddTransaction(r.Context(), tx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransaction(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateTransaction(r.Context(), tx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]recurringResponse{
		"incomes":  toRecurringList(snap.RecurringIncomes),
		"expenses": toRecurringList(snap.RecurringExpenses),
	})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	def, err := req.toCore("")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := s.ledger.AddRecurring(r.Context(), def)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurring(created))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	def, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateRecurring(r.Context(), def)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurring(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRecurring(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOccurrences lists the records one definition yields up to the
// reference date.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r.URL.Query(), s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	def, ok := snap.Recurring(chi.URLParam(r, "id"))
	if !ok {
		writeServiceError(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransactions(slices.Collect(core.Occurrences(def, ref))))
}

// handleBudget reports the budget of the reference date's month.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r.URL.Query(), s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	statuses, err := s.reports.MonthlyBudget(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":    ref.Period(),
		"statuses": toBudget(statuses),
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	limit, err := core.ParseNonNegativeMoney(string(req.Limit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	category := core.NormalizeCategory(chi.URLParam(r, "category"))
	if err := s.ledger.SetBudget(r.Context(), category, limit); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"limit":    toMoney(limit),
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteBudget(r.Context(), chi.URLParam(r, "category")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	today := s.reports.Today()
	out := make([]goalResponse, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		out = append(out, toGoal(g, today))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	g, err := req.toCore("")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := s.ledger.AddGoal(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoal(created, s.reports.Today()))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	g, err := req.toCore(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateGoal(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(updated, s.reports.Today()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	categories := append([]string{}, snap.Categories...)
	slices.Sort(categories)
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	name := core.NormalizeCategory(sanitizeInput(req.Name))
	if err := s.ledger.AddCategory(r.Context(), name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Clear(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f, err := parseFilter(query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ref, err := parseReference(query, s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rep, err := s.reports.Build(r.Context(), f, ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReport(rep))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ref, err := parseReference(query, s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	horizon, err := parseHorizon(query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	fr, err := s.reports.Forecast(r.Context(), ref, horizon)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toForecast(*fr))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r.URL.Query(), s.reports.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rep, err := s.reports.Build(r.Context(), core.TransactionFilter{}, ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(rep.Summary))
}
