package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"xpenso/internal/blob"
	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/middleware/ratelimit"
	"xpenso/internal/middleware/security"
	"xpenso/internal/middleware/trace"
	"xpenso/internal/services"
)

const snapshotKey = "expenses"

// ExpenseService is what the handlers need from the service layer.
type ExpenseService interface {
	ListAll(ctx context.Context) ([]core.Expense, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Create(ctx context.Context, e core.Expense, bill *services.Bill) (core.Expense, error)
	SetClaimed(ctx context.Context, id string, claimed bool) (core.Expense, error)
	Delete(ctx context.Context, id string) error
}

// Options configures the optional parts of the server.
type Options struct {
	// Bills is served under its base URL path when set.
	Bills *blob.FSStore
	// Ready is called by /readyz; nil means always ready.
	Ready        func(ctx context.Context) error
	RateLimitRPM int
	// CacheTTL bounds how long a list snapshot is reused; zero disables it.
	CacheTTL time.Duration
	Logger   *log.Logger
}

// Server is the JSON API over the expense service.
type Server struct {
	http.Server

	svc       ExpenseService
	ready     func(ctx context.Context) error
	snapshots *cache.LRUCache[[]core.Expense]
	snapMu    sync.Mutex
	writes    uint64
	caches    *cache.Manager
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *log.Logger
	startedAt time.Time
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:       svc,
		ready:     opts.Ready,
		snapshots: cache.NewLRUCache[[]core.Expense](1, opts.CacheTTL),
		caches:    cache.NewManager(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector:  security.NewDetector(),
		logger:    logger.WithComponent(log.ComponentHTTP),
		startedAt: time.Now(),
		now:       time.Now,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.snapshots)
	if opts.CacheTTL > 0 {
		s.caches.StartCleanup(2 * opts.CacheTTL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	api.HandleFunc("PATCH /api/expenses/{id}/claimed", s.handleSetClaimed)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /api/overview", s.handleOverview)
	api.HandleFunc("GET /api/analytics", s.handleAnalytics)
	api.HandleFunc("GET /api/export.xlsx", s.handleExportXLSX)
	api.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, s.writeRateLimited)(
		security.CacheControl("no-store")(api)))

	if opts.Bills != nil {
		prefix := billsPath(opts.Bills.BaseURL())
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.Bills.Dir())))
		mux.Handle("GET "+prefix, security.CacheControl("private, max-age=3600")(files))
	}

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// billsPath returns the path component of the bill base URL with a
// trailing slash, e.g. "/bills/".
func billsPath(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		p = u.Path
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return "/bills/"
	}
	return p + "/"
}

// expenses returns the current record snapshot, loading it on a cache miss.
func (s *Server) expenses(ctx context.Context) ([]core.Expense, error) {
	if items, ok := s.snapshots.Get(snapshotKey); ok {
		s.logger.DebugContext(ctx, "Expenses cache hit", log.FieldResultCount, len(items))
		return items, nil
	}

	s.snapMu.Lock()
	gen := s.writes
	s.snapMu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.svc.ListAll(cctx)
	if err != nil {
		return nil, err
	}
	s.storeSnapshot(gen, items)
	return items, nil
}

// storeSnapshot caches items loaded at generation gen unless a write has
// landed since.
func (s *Server) storeSnapshot(gen uint64, items []core.Expense) bool {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if s.writes != gen {
		return false
	}
	s.snapshots.Set(snapshotKey, items)
	return true
}

func (s *Server) invalidate() {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.writes++
	s.snapshots.Delete(snapshotKey)
}

// Shutdown stops background loops and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr = err
		}
	})
	return shutdownErr
}
