package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/wire"
)

const (
	// DefaultPageLength is the number of results per search page
	DefaultPageLength int64 = 10
	// Start is the position of the first result
	Start int64 = 1
)

var (
	ErrNoDefinition = errors.New("no query definition")
	// ErrUnscopedDelete is returned for a delete definition that would
	// match every document.
	ErrUnscopedDelete = errors.New("delete definition requires a collection, directory or uri pattern")
)

// Manager runs queries. It is safe for concurrent use; the handles passed to
// it are not.
type Manager struct {
	services rest.Services
	logger   slogger.Logger

	mu         sync.Mutex
	pageLength int64
	view       wire.View
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

func WithPageLength(n int64) ManagerOption {
	return func(m *Manager) {
		m.pageLength = n
	}
}

func WithView(v wire.View) ManagerOption {
	return func(m *Manager) {
		m.view = v
	}
}

func WithLogger(logger slogger.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(services rest.Services, opts ...ManagerOption) *Manager {
	m := &Manager{
		services:   services,
		logger:     slogger.DefaultLogger,
		pageLength: DefaultPageLength,
		view:       wire.ViewDefault,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) PageLength() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageLength
}

// SetPageLength changes the page length of later searches. Values below 1
// restore the default.
func (m *Manager) SetPageLength(n int64) {
	if n < 1 {
		n = DefaultPageLength
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageLength = n
}

func (m *Manager) View() wire.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *Manager) SetView(v wire.View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

// NewStringDefinition returns a text query using the named options, or the
// server defaults if no name is given.
func (m *Manager) NewStringDefinition(options ...string) *StringDefinition {
	return &StringDefinition{scope: scope{options: firstOr(options, "")}}
}

func (m *Manager) NewKeyValueDefinition(options ...string) *KeyValueDefinition {
	return &KeyValueDefinition{scope: scope{options: firstOr(options, "")}}
}

func (m *Manager) NewStructuredQueryBuilder(options ...string) *StructuredQueryBuilder {
	return &StructuredQueryBuilder{options: firstOr(options, "")}
}

func (m *Manager) NewDeleteDefinition() *DeleteDefinition {
	return &DeleteDefinition{}
}

// NewValuesDefinition reads the lexicon called name from the named options
func (m *Manager) NewValuesDefinition(name string, options ...string) *ValuesDefinition {
	return &ValuesDefinition{name: name, options: firstOr(options, "")}
}

func (m *Manager) NewValuesListDefinition(options ...string) *ValuesListDefinition {
	return &ValuesListDefinition{options: firstOr(options, "")}
}

// Option configures a single query call
type Option func(*callOptions)

type callOptions struct {
	start       int64
	transaction *rest.Transaction
}

// WithStart selects the 1-based position of the first result
func WithStart(start int64) Option {
	return func(o *callOptions) {
		o.start = start
	}
}

// WithTransaction runs the query against the state of an open transaction
func WithTransaction(tx *rest.Transaction) Option {
	return func(o *callOptions) {
		o.transaction = tx
	}
}

func applyOptions(opts []Option) *callOptions {
	o := &callOptions{start: Start}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search runs def and reads one page of results into h, which must be able
// to hold search results. It returns h.
func (m *Manager) Search(ctx context.Context, def Definition, h handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	if err := handle.Require(h, "search", handle.Readable|handle.SearchResults); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	if o.start < Start {
		return nil, fmt.Errorf("invalid start %d: results are numbered from %d", o.start, Start)
	}
	if err := m.search(ctx, def, h, o.start, m.PageLength(), m.View(), o.transaction); err != nil {
		return nil, err
	}
	return h, nil
}

func (m *Manager) search(ctx context.Context, def Definition, h handle.ReadHandle, start, pageLength int64, view wire.View, tx *rest.Transaction) error {
	body, err := m.services.Search(ctx, &rest.SearchRequest{
		Criteria:    criteria(def),
		Start:       start,
		PageLength:  pageLength,
		View:        view,
		Transaction: tx,
	})
	if err != nil {
		return err
	}
	defer body.Close()
	if err := h.Receive(body); err != nil {
		return err
	}
	m.logger.Debug("search", "options", def.OptionsName(), "start", start, "txid", tx.ID())
	return nil
}

// FindOne returns the best match for def, or nil if nothing matches
func (m *Manager) FindOne(ctx context.Context, def Definition, opts ...Option) (*wire.MatchSummary, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	o := applyOptions(opts)
	h := handle.NewSearchHandle()
	if err := m.search(ctx, def, h, Start, 1, wire.ViewResults, o.transaction); err != nil {
		return nil, err
	}
	if results := h.Results(); len(results) > 0 {
		return results[0], nil
	}
	return nil, nil
}

// Delete removes every document matching def
func (m *Manager) Delete(ctx context.Context, def *DeleteDefinition, opts ...Option) (*wire.DeleteResponse, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	c := def.Criteria()
	if c.IsEmpty() {
		return nil, ErrUnscopedDelete
	}
	o := applyOptions(opts)
	resp, err := m.services.DeleteQuery(ctx, c, o.transaction)
	if err != nil {
		return nil, err
	}
	m.logger.Info("deleted documents by query", "deleted", resp.Deleted, "txid", o.transaction.ID())
	return resp, nil
}

// Values reads a values lexicon into h and returns h
func (m *Manager) Values(ctx context.Context, def *ValuesDefinition, h handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	return m.values(ctx, def, h, "values", handle.ValuesResults, opts)
}

// Tuples reads a tuples lexicon into h and returns h
func (m *Manager) Tuples(ctx context.Context, def *ValuesDefinition, h handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	return m.values(ctx, def, h, "tuples", handle.TuplesResults, opts)
}

func (m *Manager) values(ctx context.Context, def *ValuesDefinition, h handle.ReadHandle, operation string, results handle.Capabilities, opts []Option) (handle.ReadHandle, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	if err := handle.Require(h, operation, handle.Readable|results); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	body, err := m.services.Values(ctx, &rest.ValuesRequest{
		Name:        def.Name(),
		Options:     def.OptionsName(),
		Body:        def.request(),
		Transaction: o.transaction,
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if err := h.Receive(body); err != nil {
		return nil, err
	}
	return h, nil
}

// ValuesList reads the lexicons available in the definition's options
func (m *Manager) ValuesList(ctx context.Context, def *ValuesListDefinition, h handle.ReadHandle) (handle.ReadHandle, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	if err := handle.Require(h, "list values", handle.Readable|handle.ValuesListResults); err != nil {
		return nil, err
	}
	body, err := m.services.ValuesList(ctx, def.OptionsName())
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if err := h.Receive(body); err != nil {
		return nil, err
	}
	return h, nil
}

// OptionsList reads the names of the query options known to the server.
// WithTransaction scopes the request to an open transaction.
func (m *Manager) OptionsList(ctx context.Context, h handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	if err := handle.Require(h, "list options", handle.Readable|handle.OptionsListResults); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	body, err := m.services.OptionsList(ctx, o.transaction)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if err := h.Receive(body); err != nil {
		return nil, err
	}
	return h, nil
}

// StartLogging records every later request made through the transport
func (m *Manager) StartLogging(logger rest.RequestLogger) {
	m.services.StartLogging(logger)
}

func (m *Manager) StopLogging() {
	m.services.StopLogging()
}

func criteria(def Definition) *wire.Criteria {
	c := def.Criteria()
	if c == nil {
		c = &wire.Criteria{}
	}
	if c.Options == "" {
		c.Options = def.OptionsName()
	}
	return c
}
