package http

import (
	"bytes"
	"net/http"
	"sync/atomic"
	"time"

	"bookkeeper/internal/export"
	applog "bookkeeper/internal/log"
)

func exportFilename(base, ext string) string {
	return base + "-" + time.Now().Format("2006-01-02") + ext
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	// UTF-8 BOM so spreadsheet apps detect Arabic text
	buf.WriteString("\ufeff")
	if err := export.WriteCSV(&buf, s.book.Snapshot()); err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().
		Raw("text/csv; charset=utf-8", buf.Bytes()).
		Attachment(exportFilename("transactions", ".csv")).
		Write(w)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteBackup(&buf, s.book.Snapshot()); err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().
		Raw("application/json; charset=utf-8", buf.Bytes()).
		Attachment(exportFilename("bookkeeper-backup", ".json")).
		Write(w)
}

// handleImportBackup replaces the document with the uploaded backup. A
// malformed backup is rejected with 400 and changes nothing.
func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.book.ImportBackup(r.Context(), r.Body); err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	s.commandDone()
	doc := s.book.Snapshot()
	NewJSONResponse().JSON(map[string]int{"transactions": len(doc.Transactions)}).Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.book.ResetToSeed(r.Context())
	s.commandDone()
	NoContent().Write(w)
}

func (s *Server) handleSheetsExport(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		ServiceUnavailableError("sheets mirror not configured").Write(w)
		return
	}
	if err := s.mirror.Sync(r.Context()); err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Sheets export failed", err, applog.OpSync)
		ErrorResponse(http.StatusBadGateway, "sheets export failed").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.sheetExports, 1)
	NewJSONResponse().JSON(s.mirror.Status()).Write(w)
}

func (s *Server) handleSheetsStatus(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		ServiceUnavailableError("sheets mirror not configured").Write(w)
		return
	}
	NewJSONResponse().JSON(s.mirror.Status()).Write(w)
}

func (s *Server) handleRemoteBackup(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		ServiceUnavailableError("remote backup not configured").Write(w)
		return
	}
	doc := s.book.Snapshot()
	name, err := s.backups.Upload(r.Context(), doc)
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Remote backup failed", err, applog.OpSave)
		ErrorResponse(http.StatusBadGateway, "remote backup failed").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.backups, 1)
	NewJSONResponse().Status(http.StatusCreated).JSON(map[string]any{
		"object":       name,
		"transactions": len(doc.Transactions),
	}).Write(w)
}

// handleRemoteRestore replaces the document with the newest remote backup.
func (s *Server) handleRemoteRestore(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		ServiceUnavailableError("remote backup not configured").Write(w)
		return
	}
	name, doc, err := s.backups.DownloadLatest(r.Context())
	if err != nil {
		writeError(w, r, applog.OpImport, err)
		return
	}
	s.book.Restore(r.Context(), doc)
	s.commandDone()
	NewJSONResponse().JSON(map[string]any{
		"object":       name,
		"transactions": len(doc.Transactions),
	}).Write(w)
}
