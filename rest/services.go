package rest

import (
	"context"
	"io"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
)

//go:generate mockgen -source=services.go -destination=mock_services.go -package=rest

// Services is the transport used by the document and query managers. It
// moves byte streams; parsing them is the job of handles.
type Services interface {
	// Read fetches the content and/or metadata of a document
	Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error)
	// Write stores content and/or metadata
	Write(ctx context.Context, req *WriteRequest) error
	Delete(ctx context.Context, uri string, tx *Transaction) error
	// Exists returns the descriptor of a document, or nil if it is absent
	Exists(ctx context.Context, uri string, tx *Transaction) (*wire.Descriptor, error)

	// Search returns a JSON encoded wire.SearchResponse
	Search(ctx context.Context, req *SearchRequest) (io.ReadCloser, error)
	// DeleteQuery removes every document matching the criteria
	DeleteQuery(ctx context.Context, criteria *wire.Criteria, tx *Transaction) (*wire.DeleteResponse, error)
	// Values returns a JSON encoded wire.ValuesResponse or wire.TuplesResponse
	Values(ctx context.Context, req *ValuesRequest) (io.ReadCloser, error)
	// ValuesList returns a JSON encoded wire.ValuesListResponse
	ValuesList(ctx context.Context, options string) (io.ReadCloser, error)
	// OptionsList returns a JSON encoded wire.OptionsListResponse
	OptionsList(ctx context.Context, tx *Transaction) (io.ReadCloser, error)

	OpenTransaction(ctx context.Context, name string, timeLimit time.Duration) (*Transaction, error)
	CommitTransaction(ctx context.Context, txid string) error
	RollbackTransaction(ctx context.Context, txid string) error

	// StartLogging sends a record of every subsequent request to logger
	StartLogging(logger RequestLogger)
	StopLogging()
}

// ReadRequest selects what to fetch for one document
type ReadRequest struct {
	URI string
	// Categories defaults to content only
	Categories  []wire.Category
	Transaction *Transaction
	// Start and Length select a byte range of the content. Zero values mean
	// the whole document.
	Start  int64
	Length int64
	// Format is a hint for the expected content format
	Format wire.Format
}

// WantsContent reports whether the content category is requested
func (r *ReadRequest) WantsContent() bool {
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		if c == wire.CategoryContent {
			return true
		}
	}
	return false
}

// HasRange reports whether a byte range was requested
func (r *ReadRequest) HasRange() bool {
	return r.Start > 0 || r.Length > 0
}

// ReadResponse carries the streams of a read. Content and Metadata are nil
// when the category was not requested. The caller must close both.
type ReadResponse struct {
	Content    io.ReadCloser
	Metadata   io.ReadCloser
	Descriptor *wire.Descriptor
}

// Close closes any open stream
func (r *ReadResponse) Close() error {
	var err error
	if r.Content != nil {
		err = r.Content.Close()
	}
	if r.Metadata != nil {
		if merr := r.Metadata.Close(); err == nil {
			err = merr
		}
	}
	return err
}

// WriteRequest describes a document write. Either Content or Metadata may
// be nil, but not both.
type WriteRequest struct {
	URI         string
	Content     io.WriterTo
	Format      wire.Format
	MimeType    string
	Metadata    io.WriterTo
	Categories  []wire.Category
	Transaction *Transaction
	// Extract asks the server to derive properties such as content-length
	// and sha256 from the content.
	Extract string
}

// SearchRequest runs a query and returns one page of results
type SearchRequest struct {
	Criteria    *wire.Criteria
	Start       int64
	PageLength  int64
	View        wire.View
	Transaction *Transaction
}

// ValuesRequest reads a values or tuples lexicon
type ValuesRequest struct {
	Name        string
	Options     string
	Body        wire.ValuesRequest
	Transaction *Transaction
}

// Transaction is an open unit of work on the server
type Transaction struct {
	id        string
	name      string
	expiresAt time.Time
	services  Services
}

// NewTransaction binds a transaction id to the services that opened it
func NewTransaction(id, name string, expiresAt time.Time, services Services) *Transaction {
	return &Transaction{id: id, name: name, expiresAt: expiresAt, services: services}
}

// ID returns the transaction id, or "" for a nil transaction
func (t *Transaction) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

func (t *Transaction) Name() string {
	return t.name
}

// ExpiresAt is when the server rolls the transaction back if it is still
// open. It is zero if the server reported no limit.
func (t *Transaction) ExpiresAt() time.Time {
	return t.expiresAt
}

func (t *Transaction) Commit(ctx context.Context) error {
	return t.services.CommitTransaction(ctx, t.id)
}

func (t *Transaction) Rollback(ctx context.Context) error {
	return t.services.RollbackTransaction(ctx, t.id)
}

func (t *Transaction) String() string {
	if t.name != "" {
		return t.id + " (" + t.name + ")"
	}
	return t.id
}
