package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/google/uuid"
)

// ErrTransactionNotFound is returned for unknown, finished or expired
// transactions.
var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction buffers the writes of one unit of work until it is committed
type Transaction struct {
	ID        string
	Name      string
	ExpiresAt time.Time

	mu sync.Mutex
	// a nil record marks a delete
	changes map[string]*store.Record
	order   []string
}

func (tx *Transaction) record(uri string, rec *store.Record) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if _, ok := tx.changes[uri]; !ok {
		tx.order = append(tx.order, uri)
	}
	tx.changes[uri] = rec
}

// lookup returns the pending change for uri, if any
func (tx *Transaction) lookup(uri string) (rec *store.Record, ok bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	rec, ok = tx.changes[uri]
	return rec.Copy(), ok
}

func (tx *Transaction) pending() []store.Change {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	out := make([]store.Change, 0, len(tx.order))
	for _, uri := range tx.order {
		out = append(out, store.Change{URI: uri, Record: tx.changes[uri]})
	}
	return out
}

// TransactionManager tracks open transactions. Expired transactions are
// rolled back when they are next looked up, or by Sweep.
type TransactionManager struct {
	store            store.Store
	defaultTimeLimit time.Duration
	logger           slogger.Logger
	now              func() time.Time

	mu   sync.Mutex
	open map[string]*Transaction
}

func NewTransactionManager(s store.Store, defaultTimeLimit time.Duration, logger slogger.Logger) *TransactionManager {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	return &TransactionManager{
		store:            s,
		defaultTimeLimit: defaultTimeLimit,
		logger:           logger,
		now:              time.Now,
		open:             map[string]*Transaction{},
	}
}

// Open starts a transaction. A zero time limit uses the manager default; a
// zero default means the transaction never expires.
func (m *TransactionManager) Open(name string, timeLimit time.Duration) *Transaction {
	if timeLimit <= 0 {
		timeLimit = m.defaultTimeLimit
	}
	tx := &Transaction{
		ID:      uuid.NewString(),
		Name:    name,
		changes: map[string]*store.Record{},
	}
	if timeLimit > 0 {
		tx.ExpiresAt = m.now().Add(timeLimit).UTC()
	}
	m.mu.Lock()
	m.open[tx.ID] = tx
	m.mu.Unlock()
	m.logger.Debug("opened transaction", "txid", tx.ID, "name", name, "expires_at", tx.ExpiresAt)
	return tx
}

// Get returns an open transaction
func (m *TransactionManager) Get(id string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.open[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if m.expired(tx) {
		delete(m.open, id)
		m.logger.Info("transaction expired", "txid", id)
		return nil, fmt.Errorf("%w: %s expired", ErrTransactionNotFound, id)
	}
	return tx, nil
}

func (m *TransactionManager) expired(tx *Transaction) bool {
	return !tx.ExpiresAt.IsZero() && !m.now().Before(tx.ExpiresAt)
}

func (m *TransactionManager) take(id string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.open[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	delete(m.open, id)
	if m.expired(tx) {
		return nil, fmt.Errorf("%w: %s expired", ErrTransactionNotFound, id)
	}
	return tx, nil
}

// Commit applies the writes of a transaction to the store as one batch
func (m *TransactionManager) Commit(ctx context.Context, id string) error {
	tx, err := m.take(id)
	if err != nil {
		return err
	}
	changes := tx.pending()
	if err := m.store.Apply(ctx, changes); err != nil {
		return fmt.Errorf("commit %s: %w", id, err)
	}
	m.logger.Info("committed transaction", "txid", id, "changes", len(changes))
	return nil
}

// Rollback discards the writes of a transaction
func (m *TransactionManager) Rollback(id string) error {
	if _, err := m.take(id); err != nil {
		return err
	}
	m.logger.Info("rolled back transaction", "txid", id)
	return nil
}

// Sweep rolls back every expired transaction and returns their ids
func (m *TransactionManager) Sweep() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []string
	for id, tx := range m.open {
		if m.expired(tx) {
			delete(m.open, id)
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	if len(expired) > 0 {
		m.logger.Info("rolled back expired transactions", "txids", strings.Join(expired, ","))
	}
	return expired
}

// Len returns the number of open transactions
func (m *TransactionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}
