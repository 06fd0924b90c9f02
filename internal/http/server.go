package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/middleware/ratelimit"
	"bookkeeper/internal/middleware/security"
	"bookkeeper/internal/middleware/trace"
	"bookkeeper/internal/report"
	"bookkeeper/internal/services"
	"bookkeeper/internal/worker"
)

// MirrorSyncer rewrites the spreadsheet mirror on demand.
type MirrorSyncer interface {
	Sync(ctx context.Context) error
	Status() worker.MirrorStatus
}

// RemoteBackups stores and retrieves document backups off-host.
type RemoteBackups interface {
	Upload(ctx context.Context, doc core.Document) (string, error)
	DownloadLatest(ctx context.Context) (string, core.Document, error)
}

// Options wires the optional collaborators of the server.
type Options struct {
	CookieName string
	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie bool
	Mirror       MirrorSyncer
	Backups      RemoteBackups
	// Health checks the document store for /readyz.
	Health              func(ctx context.Context) error
	ExportRatePerMinute int
	Logger              *applog.Logger
}

type Server struct {
	http.Server

	book       *services.BookService
	mirror     MirrorSyncer
	backups    RemoteBackups
	health     func(ctx context.Context) error
	cookieName string
	secure     bool
	logger     *applog.Logger

	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	loginLimiter     *ratelimit.Limiter
	exportLimiter    *ratelimit.Limiter
	appMetrics       *appMetrics
	reportCache      *cache.LRUCache[report.Report]
	cacheManager     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer builds the API server. Every route except login, session and
// health requires the session cookie.
func NewServer(addr string, book *services.BookService, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "bookkeeper_session"
	}
	if opts.Logger == nil {
		opts.Logger = applog.FromContext(context.Background())
	}

	s := &Server{
		book:             book,
		mirror:           opts.Mirror,
		backups:          opts.Backups,
		health:           opts.Health,
		cookieName:       opts.CookieName,
		secure:           opts.SecureCookie,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		securityDetector: security.NewDetector(),
		loginLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 10}),
		exportLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ExportRatePerMinute}),
		appMetrics:       newAppMetrics(),
		reportCache:      cache.NewLRUCache[report.Report](8, 10*time.Minute),
		cacheManager:     cache.NewManager(),
	}
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(5 * time.Minute)
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.requireSession(s.handleMetrics))

	login := s.loginLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "too many login attempts").Write(w)
	})
	mux.Handle("POST /login", login(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("POST /logout", s.requireSession(s.handleLogout))

	mux.HandleFunc("GET /transactions", s.requireSession(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.requireSession(s.handleAddTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.requireSession(s.handleDeleteTransaction))

	mux.HandleFunc("GET /hierarchy", s.requireSession(s.handleHierarchy))
	mux.HandleFunc("POST /categories", s.requireSession(s.handleAddCategory))
	mux.HandleFunc("POST /subcategories", s.requireSession(s.handleAddSubCategory))
	mux.HandleFunc("POST /accounts", s.requireSession(s.handleAddAccount))
	mux.HandleFunc("GET /categories/{id}/subcategories", s.requireSession(s.handleSubCategoriesOf))
	mux.HandleFunc("GET /subcategories/{id}/accounts", s.requireSession(s.handleAccountsOf))
	mux.HandleFunc("GET /hierarchy/{kind}/{id}/dependents", s.requireSession(s.handleDependents))
	mux.HandleFunc("DELETE /hierarchy/{kind}/{id}", s.requireSession(s.handleRemoveEntity))

	mux.HandleFunc("GET /settings", s.requireSession(s.handleGetSettings))
	mux.HandleFunc("PUT /settings", s.requireSession(s.handleUpdateSettings))
	mux.HandleFunc("GET /profile", s.requireSession(s.handleGetProfile))
	mux.HandleFunc("PUT /profile", s.requireSession(s.handleUpdateProfile))

	mux.HandleFunc("GET /reports", s.requireSession(s.handleReports))

	mux.HandleFunc("GET /export/transactions.csv", s.requireSession(s.handleExportCSV))
	mux.HandleFunc("GET /export/backup.json", s.requireSession(s.handleExportBackup))
	mux.HandleFunc("POST /import/backup", s.requireSession(s.handleImportBackup))
	mux.HandleFunc("POST /reset", s.requireSession(s.handleReset))

	limitExport := s.exportLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "export rate limit exceeded").Write(w)
	})
	mux.Handle("POST /export/sheets", limitExport(s.requireSession(s.handleSheetsExport)))
	mux.HandleFunc("GET /export/sheets", s.requireSession(s.handleSheetsStatus))
	mux.Handle("POST /backup/remote", limitExport(s.requireSession(s.handleRemoteBackup)))
	mux.Handle("POST /backup/remote/restore", limitExport(s.requireSession(s.handleRemoteRestore)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = headers.Middleware(handler)

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

// Shutdown stops the background cleanups and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		s.exportLimiter.Stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}
