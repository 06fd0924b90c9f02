// Package ledger maintains the transaction list and its running balances.
//
// Transactions are stored newest first. Every transaction carries the balance
// after it was applied, computed in chronological (insertion) order:
//
//	BalanceAfter(t[i]) == sum of Signed(t[j]) for j from oldest up to t[i]
package ledger

import (
	"errors"
	"fmt"

	"bookkeeper/internal/core"
)

var ErrBalanceMismatch = errors.New("balance mismatch")

// Ledger mutates the transactions of a document in place.
type Ledger struct {
	doc   *core.Document
	newID core.IDGenerator
	today func() core.Date
}

type Option func(*Ledger)

// WithIDGenerator replaces the random id source.
func WithIDGenerator(g core.IDGenerator) Option {
	return func(l *Ledger) { l.newID = g }
}

// WithClock replaces the source of the default transaction date.
func WithClock(today func() core.Date) Option {
	return func(l *Ledger) { l.today = today }
}

func New(doc *core.Document, opts ...Option) *Ledger {
	l := &Ledger{doc: doc, newID: core.NewID, today: core.Today}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Balance is the signed sum of every transaction.
func (l *Ledger) Balance() core.Money {
	var sum core.Money
	for _, t := range l.doc.Transactions {
		sum = sum.Add(t.Type.Signed(t.Amount))
	}
	return sum
}

// Append validates in and records it as the newest transaction. Existing
// transactions are never touched.
func (l *Ledger) Append(in core.NewTransaction) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	date := in.Date
	if date == "" {
		date = l.today()
	}
	t := core.Transaction{
		ID:            l.newID(),
		CategoryID:    in.CategoryID,
		SubCategoryID: in.SubCategoryID,
		AccountID:     in.AccountID,
		Type:          in.Type,
		Amount:        in.Amount,
		BalanceAfter:  l.Balance().Add(in.Type.Signed(in.Amount)),
		Description:   in.Description,
		Date:          date,
		ReceiptImage:  in.ReceiptImage,
	}
	txs := make([]core.Transaction, 0, len(l.doc.Transactions)+1)
	txs = append(txs, t)
	l.doc.Transactions = append(txs, l.doc.Transactions...)
	return t, nil
}

// Delete removes the transaction with the given id and recomputes every
// remaining balance.
func (l *Ledger) Delete(id string) error {
	out := make([]core.Transaction, 0, len(l.doc.Transactions))
	found := false
	for _, t := range l.doc.Transactions {
		if t.ID == id {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		return fmt.Errorf("transaction %q: %w", id, core.ErrNotFound)
	}
	l.doc.Transactions = out
	l.Recompute()
	return nil
}

// Recompute rewrites BalanceAfter for every transaction, walking from the
// oldest to the newest.
func (l *Ledger) Recompute() {
	var running core.Money
	txs := l.doc.Transactions
	for i := len(txs) - 1; i >= 0; i-- {
		running = running.Add(txs[i].Type.Signed(txs[i].Amount))
		txs[i].BalanceAfter = running
	}
}

// Verify checks the running balance invariant and reports the first
// transaction, oldest first, whose stored balance disagrees.
func (l *Ledger) Verify() error {
	var running core.Money
	txs := l.doc.Transactions
	for i := len(txs) - 1; i >= 0; i-- {
		running = running.Add(txs[i].Type.Signed(txs[i].Amount))
		if txs[i].BalanceAfter != running {
			return fmt.Errorf("%w: transaction %s has %s, expected %s",
				ErrBalanceMismatch, txs[i].ID, txs[i].BalanceAfter, running)
		}
	}
	return nil
}

func (l *Ledger) Find(id string) (core.Transaction, error) {
	for _, t := range l.doc.Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %q: %w", id, core.ErrNotFound)
}

// Transactions returns a copy in storage order, newest first.
func (l *Ledger) Transactions() []core.Transaction {
	out := make([]core.Transaction, len(l.doc.Transactions))
	copy(out, l.doc.Transactions)
	return out
}

// Chronological returns a copy ordered oldest first.
func (l *Ledger) Chronological() []core.Transaction {
	n := len(l.doc.Transactions)
	out := make([]core.Transaction, n)
	for i, t := range l.doc.Transactions {
		out[n-1-i] = t
	}
	return out
}
