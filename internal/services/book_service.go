package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/core"
	"bookkeeper/internal/export"
	"bookkeeper/internal/hierarchy"
	"bookkeeper/internal/ledger"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/report"
	"bookkeeper/internal/session"
	"bookkeeper/internal/storage"
)

// Publisher announces document changes to other processes.
type Publisher interface {
	PublishDocumentChanged(ctx context.Context, msg *amqp.DocumentChangedMessage) error
}

type Options struct {
	// DocumentKey identifies the document in change notifications.
	DocumentKey string
	Publisher   Publisher
	IDGenerator core.IDGenerator
	Clock       func() core.Date
	Logger      *applog.Logger
}

// BookService owns the in-memory document and is the only writer to it.
// Every command runs under one mutex, mutates the document through the
// ledger or hierarchy store, then saves the whole document.
type BookService struct {
	mu       sync.Mutex
	doc      core.Document
	revision int64
	lastSave error

	store     storage.DocumentStore
	publisher Publisher
	gate      *session.Gate
	key       string
	newID     core.IDGenerator
	today     func() core.Date
	logger    *applog.Logger
}

// Open loads the persisted document. A missing or unreadable document is
// replaced by the seed, which is saved immediately.
func Open(ctx context.Context, store storage.DocumentStore, opts Options) (*BookService, error) {
	s := &BookService{
		store:     store,
		publisher: opts.Publisher,
		gate:      session.NewGate(),
		key:       opts.DocumentKey,
		newID:     opts.IDGenerator,
		today:     opts.Clock,
		logger:    opts.Logger,
	}
	if s.newID == nil {
		s.newID = core.NewID
	}
	if s.today == nil {
		s.today = core.Today
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(applog.ComponentBook)

	doc, err := store.Load(ctx)
	switch {
	case err == nil:
		s.doc = doc
		if verr := s.ledger().Verify(); verr != nil {
			s.logger.WarnContext(ctx, "Stored balances are inconsistent, recomputing", applog.FieldError, verr)
			s.ledger().Recompute()
		}
		s.logger.InfoContext(ctx, "Document loaded",
			"transactions", len(doc.Transactions),
			"categories", len(doc.Categories))
		return s, nil
	case errors.Is(err, storage.ErrNotFound):
		s.logger.InfoContext(ctx, "No stored document, starting from seed")
	case errors.Is(err, core.ErrCorruptDocument):
		s.logger.WarnContext(ctx, "Stored document is corrupt, starting from seed", applog.FieldError, err)
	default:
		return nil, fmt.Errorf("load document: %w", err)
	}

	s.doc = core.SeedDocument()
	s.mu.Lock()
	s.commit(ctx, "seed", amqp.EventDocumentReset)
	s.mu.Unlock()
	return s, nil
}

func (s *BookService) ledger() *ledger.Ledger {
	return ledger.New(&s.doc, ledger.WithIDGenerator(s.newID), ledger.WithClock(s.today))
}

func (s *BookService) hierarchy() *hierarchy.Store {
	return hierarchy.New(&s.doc, s.newID)
}

// commit persists the document and publishes a change notification. Neither
// failure undoes the mutation. Callers hold s.mu.
func (s *BookService) commit(ctx context.Context, command, event string) {
	s.revision++
	if err := s.store.Save(ctx, s.doc); err != nil {
		s.lastSave = err
		s.logger.LogError(ctx, "Failed to save document", err, applog.OpSave,
			"command", command, "revision", s.revision)
		return
	}
	s.lastSave = nil

	if s.publisher == nil {
		return
	}
	msg := amqp.NewDocumentChangedMessage(event, s.key, s.revision, command, len(s.doc.Transactions))
	if err := s.publisher.PublishDocumentChanged(ctx, msg); err != nil {
		// The document is saved; the mirror will catch up on the next change.
		s.logger.WarnContext(ctx, "Failed to publish document change",
			applog.FieldError, err, "command", command, "revision", s.revision)
	}
}

// Login checks the credentials against the stored profile.
func (s *BookService) Login(ctx context.Context, username, password string) (string, error) {
	s.mu.Lock()
	profile := s.doc.Profile
	s.mu.Unlock()

	token, err := s.gate.Login(profile, username, password)
	if err != nil {
		s.logger.WarnContext(ctx, "Login rejected", applog.FieldOperation, applog.OpLogin)
		return "", err
	}
	s.logger.InfoContext(ctx, "Login succeeded", applog.FieldOperation, applog.OpLogin)
	return token, nil
}

func (s *BookService) Logout(ctx context.Context) {
	s.gate.Logout()
	s.logger.InfoContext(ctx, "Logged out")
}

func (s *BookService) Authenticated(token string) bool {
	return s.gate.Authenticated(token)
}

func (s *BookService) SessionState() session.State {
	return s.gate.State()
}

func (s *BookService) AddTransaction(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ledger().Append(in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction recorded",
		applog.NewFields().
			WithTransaction(t.ID, string(t.Type), t.Amount.Cents, t.BalanceAfter.Cents).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	s.commit(ctx, "add_transaction", amqp.EventDocumentSaved)
	return t, nil
}

func (s *BookService) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger().Delete(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete,
		"remaining", len(s.doc.Transactions))
	s.commit(ctx, "delete_transaction", amqp.EventDocumentSaved)
	return nil
}

// UpdateProfile replaces the credentials. An empty password keeps the
// current one.
func (s *BookService) UpdateProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PasswordHash == "" {
		p.PasswordHash = s.doc.Profile.PasswordHash
	}
	s.doc.Profile = p
	s.logger.InfoContext(ctx, "Profile updated", "username", p.Username)
	s.commit(ctx, "update_profile", amqp.EventDocumentSaved)
	return nil
}

func (s *BookService) UpdateSettings(ctx context.Context, settings core.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Settings = settings
	s.logger.InfoContext(ctx, "Settings updated",
		"language", settings.Language,
		"currency", settings.Currency)
	s.commit(ctx, "update_settings", amqp.EventDocumentSaved)
	return nil
}

func (s *BookService) AddCategory(ctx context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.hierarchy().AddCategory(name)
	if err != nil {
		return core.Category{}, err
	}
	s.logEntity(ctx, "Category added", hierarchy.KindCategory, c.ID, applog.OpCreate)
	s.commit(ctx, "add_category", amqp.EventDocumentSaved)
	return c, nil
}

func (s *BookService) AddSubCategory(ctx context.Context, categoryID, name string) (core.SubCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.hierarchy().AddSubCategory(categoryID, name)
	if err != nil {
		return core.SubCategory{}, err
	}
	s.logEntity(ctx, "Sub-category added", hierarchy.KindSubCategory, sc.ID, applog.OpCreate)
	s.commit(ctx, "add_sub_category", amqp.EventDocumentSaved)
	return sc, nil
}

func (s *BookService) AddAccount(ctx context.Context, subCategoryID, name string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.hierarchy().AddAccount(subCategoryID, name)
	if err != nil {
		return core.Account{}, err
	}
	s.logEntity(ctx, "Account added", hierarchy.KindAccount, a.ID, applog.OpCreate)
	s.commit(ctx, "add_account", amqp.EventDocumentSaved)
	return a, nil
}

// RemoveEntity deletes one hierarchy entity. Children and transactions that
// reference it are kept; the returned counts say how many were orphaned.
func (s *BookService) RemoveEntity(ctx context.Context, kind hierarchy.Kind, id string) (hierarchy.DependentCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deps, err := hierarchy.Dependents(s.doc, kind, id)
	if err != nil {
		return hierarchy.DependentCounts{}, err
	}
	if err := s.hierarchy().Remove(kind, id); err != nil {
		return hierarchy.DependentCounts{}, err
	}
	s.logEntity(ctx, "Entity removed", kind, id, applog.OpDelete,
		"orphaned_sub_categories", deps.SubCategories,
		"orphaned_accounts", deps.Accounts,
		"orphaned_transactions", deps.Transactions)
	s.commit(ctx, "remove_entity", amqp.EventDocumentSaved)
	return deps, nil
}

func (s *BookService) logEntity(ctx context.Context, msg string, kind hierarchy.Kind, id, op string, args ...any) {
	fields := append([]any{
		applog.FieldEntityKind, kind.String(),
		applog.FieldEntityID, id,
		applog.FieldOperation, op,
	}, args...)
	s.logger.InfoContext(ctx, msg, fields...)
}

// Dependents reports what removing an entity would leave orphaned.
func (s *BookService) Dependents(kind hierarchy.Kind, id string) (hierarchy.DependentCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hierarchy.Dependents(s.doc, kind, id)
}

// ResetToSeed discards everything and restores the default document.
func (s *BookService) ResetToSeed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.doc.Transactions)
	s.doc = core.SeedDocument()
	s.logger.WarnContext(ctx, "Document reset to seed",
		applog.FieldOperation, applog.OpReset,
		"dropped_transactions", dropped)
	s.commit(ctx, "reset", amqp.EventDocumentReset)
}

// ImportBackup replaces the document with a backup. Balances are recomputed
// when the backup's stored balances are inconsistent. On error the current
// document is left untouched.
func (s *BookService) ImportBackup(ctx context.Context, r io.Reader) error {
	doc, err := export.ReadBackup(r)
	if err != nil {
		return err
	}
	l := ledger.New(&doc)
	if verr := l.Verify(); verr != nil {
		s.logger.WarnContext(ctx, "Imported balances are inconsistent, recomputing", applog.FieldError, verr)
		l.Recompute()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.logger.InfoContext(ctx, "Backup imported",
		applog.FieldOperation, applog.OpImport,
		"transactions", len(doc.Transactions))
	s.commit(ctx, "import_backup", amqp.EventDocumentReset)
	return nil
}

// Restore replaces the document with one obtained elsewhere, such as a
// remote backup.
func (s *BookService) Restore(ctx context.Context, doc core.Document) {
	doc = doc.Clone()
	l := ledger.New(&doc)
	if err := l.Verify(); err != nil {
		l.Recompute()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.logger.InfoContext(ctx, "Document restored", "transactions", len(doc.Transactions))
	s.commit(ctx, "restore", amqp.EventDocumentReset)
}

// Snapshot returns a deep copy of the current document.
func (s *BookService) Snapshot() core.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *BookService) Report() report.Report {
	return report.Build(s.Snapshot())
}

// Revision counts the commits made since the process started.
func (s *BookService) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// LastSaveError returns the error of the most recent save, or nil.
func (s *BookService) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}
