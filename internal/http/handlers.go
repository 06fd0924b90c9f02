package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// appMetrics counts application level events.
type appMetrics struct {
	uptime       time.Time
	commands     int64
	failedSaves  int64
	sheetExports int64
	backups      int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady checks the document store and reports the last save outcome
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.health != nil {
		if err := s.health(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_configured"
	}

	// A failed save keeps serving from memory; report it without failing
	if err := s.book.LastSaveError(); err != nil {
		checks["last_save"] = fmt.Sprintf("failed: %v", err)
	} else {
		checks["last_save"] = "ok"
	}

	checks["sheets_mirror"] = configured(s.mirror != nil)
	checks["remote_backup"] = configured(s.backups != nil)
	checks["rate_limiter"] = map[string]any{
		"login_clients":  s.loginLimiter.ActiveClients(),
		"export_clients": s.exportLimiter.ActiveClients(),
	}

	NewJSONResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	securityMetrics := s.securityDetector.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	doc := s.book.Snapshot()
	cacheHits, cacheMisses := s.reportCache.Stats()

	body := fmt.Sprintf(`# Application
bookkeeper_uptime_seconds %d
bookkeeper_revision %d
bookkeeper_commands_total %d
bookkeeper_failed_saves_total %d
bookkeeper_transactions %d
bookkeeper_sheet_exports_total %d
bookkeeper_remote_backups_total %d
bookkeeper_report_cache_hits_total %d
bookkeeper_report_cache_misses_total %d

# HTTP
bookkeeper_http_requests_total %d
bookkeeper_http_server_errors_total %d

# Security
bookkeeper_suspicious_requests_total %d
bookkeeper_blocked_requests_total %d
bookkeeper_login_rate_limit_hits_total %d
bookkeeper_export_rate_limit_hits_total %d
`,
		int64(time.Since(s.appMetrics.uptime).Seconds()),
		s.book.Revision(),
		atomic.LoadInt64(&s.appMetrics.commands),
		atomic.LoadInt64(&s.appMetrics.failedSaves),
		len(doc.Transactions),
		atomic.LoadInt64(&s.appMetrics.sheetExports),
		atomic.LoadInt64(&s.appMetrics.backups),
		cacheHits,
		cacheMisses,
		traceMetrics.TotalRequests,
		traceMetrics.ServerErrors,
		securityMetrics.SuspiciousRequests,
		securityMetrics.BlockedRequests,
		s.loginLimiter.Hits(),
		s.exportLimiter.Hits(),
	)
	NewJSONResponse().Raw("text/plain; charset=utf-8", []byte(body)).Write(w)
}

// commandDone counts a successful command and whether its save failed.
func (s *Server) commandDone() {
	atomic.AddInt64(&s.appMetrics.commands, 1)
	if s.book.LastSaveError() != nil {
		atomic.AddInt64(&s.appMetrics.failedSaves, 1)
	}
}
