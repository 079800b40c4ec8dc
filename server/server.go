// Package server is a reference docdb REST server. It stores documents in a
// store.Store and implements byte ranges, metadata, transactions, search and
// values lexicons.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/deepnoodle-ai/docdb/config"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gin-gonic/gin"
)

const (
	// DefaultOptionsName is used when a request names no query options
	DefaultOptionsName = "default"

	DefaultPageLength    int64 = 10
	DefaultMaxPageLength int64 = 1000

	sweepInterval = 30 * time.Second
)

// Server serves the docdb REST API
type Server struct {
	store             store.Store
	txns              *TransactionManager
	options           map[string]wire.QueryOptions
	logger            slogger.Logger
	addr              string
	txTimeLimit       time.Duration
	defaultPageLength int64
	maxPageLength     int64
	now               func() time.Time
	router            *gin.Engine
}

// Option configures a Server
type Option func(*Server)

func WithLogger(logger slogger.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithQueryOptions sets the query options available to values requests
func WithQueryOptions(options []config.QueryOptions) Option {
	return func(s *Server) {
		for _, o := range options {
			s.options[o.Name] = o.QueryOptions
		}
	}
}

// WithTransactionTimeLimit sets the default lifetime of a transaction
func WithTransactionTimeLimit(d time.Duration) Option {
	return func(s *Server) {
		s.txTimeLimit = d
	}
}

// WithMaxPageLength caps the page length of search requests
func WithMaxPageLength(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPageLength = n
		}
	}
}

// New returns a server over st
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:             st,
		options:           map[string]wire.QueryOptions{DefaultOptionsName: {}},
		logger:            slogger.DefaultLogger,
		addr:              config.DefaultAddr,
		txTimeLimit:       5 * time.Minute,
		defaultPageLength: DefaultPageLength,
		maxPageLength:     DefaultMaxPageLength,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.txns = NewTransactionManager(st, s.txTimeLimit, s.logger)
	s.setupRouter()
	return s
}

// NewFromConfig returns a server configured by the server section and query
// options of cfg.
func NewFromConfig(cfg *config.Config, st store.Store, logger slogger.Logger) *Server {
	return New(st,
		WithLogger(logger),
		WithAddr(cfg.Server.Addr),
		WithQueryOptions(cfg.QueryOptions),
		WithTransactionTimeLimit(cfg.Server.TransactionTimeLimitDuration()),
		WithMaxPageLength(cfg.Server.MaxPageLength),
	)
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Transactions returns the transaction manager
func (s *Server) Transactions() *TransactionManager {
	return s.txns
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	httpServer := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	go s.sweep(ctx)

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.Serve(l)
	}()
	s.logger.Info("docdb server listening", "addr", l.Addr().String())

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.txns.Sweep()
		}
	}
}

func (s *Server) optionNames() []string {
	names := make([]string, 0, len(s.options))
	for name := range s.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// view returns the state addressed by the request's transaction id
func (s *Server) view(c *gin.Context) (view, error) {
	txid := c.Query(wire.ParamTxID)
	if txid == "" {
		return s.store, nil
	}
	tx, err := s.txns.Get(txid)
	if err != nil {
		return nil, err
	}
	return &txView{tx: tx, store: s.store, now: s.now}, nil
}
