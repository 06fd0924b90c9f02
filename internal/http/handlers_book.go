package http

import (
	"net/http"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/core"
	"bookkeeper/internal/hierarchy"
	"bookkeeper/internal/ledger"
	applog "bookkeeper/internal/log"
)

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Balance      core.Money         `json:"balance"`
	Currency     string             `json:"currency"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	doc := s.book.Snapshot()
	out := transactionList{
		Transactions: make([]core.Transaction, 0, len(doc.Transactions)),
		Balance:      ledger.New(&doc).Balance(),
		Currency:     doc.Settings.Currency,
	}
	for _, t := range doc.Transactions {
		if month != "" && t.Date.MonthKey() != month {
			continue
		}
		out.Transactions = append(out.Transactions, t)
		if limit > 0 && len(out.Transactions) == limit {
			break
		}
	}
	NewJSONResponse().JSON(out).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	in, err := ParseNewTransaction(p)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	tx, err := s.book.AddTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().Status(http.StatusCreated).JSON(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.commandDone()
	NoContent().Write(w)
}

type hierarchyView struct {
	Categories    []core.Category    `json:"categories"`
	SubCategories []core.SubCategory `json:"subCategories"`
	Accounts      []core.Account     `json:"accounts"`
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	doc := s.book.Snapshot()
	NewJSONResponse().JSON(hierarchyView{
		Categories:    doc.Categories,
		SubCategories: doc.SubCategories,
		Accounts:      doc.Accounts,
	}).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	c, err := s.book.AddCategory(r.Context(), p.Get("name"))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleAddSubCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	sc, err := s.book.AddSubCategory(r.Context(), p.Get("categoryId"), p.Get("name"))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().Status(http.StatusCreated).JSON(sc).Write(w)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	a, err := s.book.AddAccount(r.Context(), p.Get("subCategoryId"), p.Get("name"))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().Status(http.StatusCreated).JSON(a).Write(w)
}

func (s *Server) handleSubCategoriesOf(w http.ResponseWriter, r *http.Request) {
	doc := s.book.Snapshot()
	NewJSONResponse().JSON(hierarchy.SubCategoriesOf(doc, r.PathValue("id"))).Write(w)
}

func (s *Server) handleAccountsOf(w http.ResponseWriter, r *http.Request) {
	doc := s.book.Snapshot()
	NewJSONResponse().JSON(hierarchy.AccountsOf(doc, r.PathValue("id"))).Write(w)
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	kind, err := hierarchy.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	counts, err := s.book.Dependents(kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().JSON(counts).Write(w)
}

// handleRemoveEntity deletes one hierarchy entity without cascading and
// returns what was left orphaned.
func (s *Server) handleRemoveEntity(w http.ResponseWriter, r *http.Request) {
	kind, err := hierarchy.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	id := r.PathValue("id")
	counts, err := s.book.RemoveEntity(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.commandDone()
	NewJSONResponse().JSON(map[string]any{"removed": id, "kind": kind.String(), "orphaned": counts}).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.book.Snapshot().Settings).Write(w)
}

// handleUpdateSettings applies the fields present in the body over the
// current settings.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	settings := s.book.Snapshot().Settings
	if p.Has("currency") {
		settings.Currency = p.Get("currency")
	}
	if p.Has("primaryColor") {
		settings.PrimaryColor = p.Get("primaryColor")
	}
	if p.Has("language") {
		settings.Language = p.Get("language")
	}
	if err := s.book.UpdateSettings(r.Context(), settings); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().JSON(settings).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"username": s.book.Snapshot().Profile.Username}).Write(w)
}

// handleUpdateProfile changes the username and, when given, the password.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	profile := core.Profile{Username: p.Get("username"), PasswordHash: p.GetRaw("password")}
	if err := s.book.UpdateProfile(r.Context(), profile); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.commandDone()
	NewJSONResponse().JSON(map[string]string{"username": profile.Username}).Write(w)
}

// handleReports serves the report for the current revision, computing it at
// most once per revision.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	// Revision is read first so a concurrent commit can only make the
	// cached entry newer than its key, never older
	key := cache.RevisionKey("report", s.book.Revision())
	rep, _ := s.reportCache.GetOrCompute(key, s.book.Report)
	NewJSONResponse().JSON(rep).Write(w)
}
