package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/export"
	"bookkeeper/internal/sheets"
	"bookkeeper/internal/storage"
)

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// PollInterval is how often the mirror is rewritten without a
	// notification, to recover from lost messages (default: 5m)
	PollInterval time.Duration
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{PollInterval: 5 * time.Minute}
}

// MirrorStatus describes the last mirror attempt.
type MirrorStatus struct {
	LastSync  time.Time `json:"lastSync"`
	Rows      int       `json:"rows"`
	LastError string    `json:"lastError,omitempty"`
	Syncs     int       `json:"syncs"`
}

// MirrorWorker rewrites the spreadsheet mirror from the persisted document.
type MirrorWorker struct {
	store  storage.DocumentStore
	writer sheets.TableWriter
	config MirrorConfig

	syncMu sync.Mutex

	mu      sync.Mutex
	status  MirrorStatus
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(store storage.DocumentStore, writer sheets.TableWriter, config MirrorConfig) *MirrorWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultMirrorConfig().PollInterval
	}
	return &MirrorWorker{store: store, writer: writer, config: config}
}

// HandleDocumentChanged processes a change notification from AMQP
func (w *MirrorWorker) HandleDocumentChanged(ctx context.Context, msg *amqp.DocumentChangedMessage) error {
	slog.InfoContext(ctx, "Processing document change",
		"message_id", msg.ID,
		"event", msg.Event,
		"revision", msg.Revision,
		"command", msg.Command)

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("mirror after %s: %w", msg.Event, err)
	}
	return nil
}

// Sync reloads the document and rewrites the whole mirror table.
// A missing document is not an error; there is nothing to mirror yet.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	doc, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No persisted document yet, skipping mirror")
		return nil
	}
	if err != nil {
		w.recordResult(0, err)
		return fmt.Errorf("load document: %w", err)
	}

	rows := export.Table(doc)
	if err := w.writer.WriteTable(ctx, rows); err != nil {
		w.recordResult(0, err)
		return fmt.Errorf("write table: %w", err)
	}
	w.recordResult(len(rows), nil)

	slog.InfoContext(ctx, "Mirror synced",
		"rows", len(rows),
		"transactions", len(doc.Transactions))
	return nil
}

func (w *MirrorWorker) recordResult(rows int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.status.LastError = err.Error()
		return
	}
	w.status.LastSync = time.Now().UTC()
	w.status.Rows = rows
	w.status.LastError = ""
	w.status.Syncs++
}

func (w *MirrorWorker) Status() MirrorStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Start begins the periodic loop. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror worker started", "poll_interval", w.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for it to finish.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Startup sync covers notifications missed while the worker was down
	w.syncLogged(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.syncLogged(ctx)
		}
	}
}

func (w *MirrorWorker) syncLogged(ctx context.Context) {
	if err := w.Sync(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
	}
}
