// Package store holds the documents served by a docdb server. Backends keep
// content and metadata together and assign versions on every write.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// Record is a stored document
type Record struct {
	URI       string         `json:"uri"`
	Content   []byte         `json:"-"`
	Format    wire.Format    `json:"format,omitempty"`
	MimeType  string         `json:"mime_type,omitempty"`
	Metadata  *wire.Metadata `json:"metadata,omitempty"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Descriptor describes the record without its content
func (r *Record) Descriptor() *wire.Descriptor {
	return &wire.Descriptor{
		URI:        r.URI,
		Format:     r.Format,
		MimeType:   r.MimeType,
		ByteLength: int64(len(r.Content)),
		Version:    r.Version,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Copy returns a deep copy of the record
func (r *Record) Copy() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Content = slices.Clone(r.Content)
	out.Metadata = r.Metadata.Copy()
	return &out
}

// Change is one entry of an atomic batch. A nil Record deletes the URI.
type Change struct {
	URI    string
	Record *Record
}

// Store provides read/write access to a set of documents. Implementations
// are safe for concurrent use and return copies that callers may modify.
type Store interface {
	// Get returns a document, or ErrNotFound
	Get(ctx context.Context, uri string) (*Record, error)

	// Put creates or replaces a document. The store sets its version and
	// update time.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a document, or returns ErrNotFound
	Delete(ctx context.Context, uri string) error

	// List returns the documents whose URI starts with prefix, ordered by URI
	List(ctx context.Context, prefix string) ([]*Record, error)

	// Apply performs a batch of puts and deletes as one unit. Deleting an
	// absent document is not an error within a batch.
	Apply(ctx context.Context, changes []Change) error

	Close() error
}

// ValidateURI checks that a URI can name a stored document
func ValidateURI(uri string) error {
	switch {
	case strings.TrimSpace(uri) == "":
		return fmt.Errorf("document uri is required")
	case strings.HasSuffix(uri, "/"):
		return fmt.Errorf("document uri %q names a directory", uri)
	case strings.ContainsRune(uri, 0):
		return fmt.Errorf("document uri %q contains a null byte", uri)
	}
	return nil
}

func prepare(rec *Record, previous *Record, now time.Time) *Record {
	out := rec.Copy()
	if out.Metadata == nil {
		out.Metadata = wire.NewMetadata()
	}
	out.Version = 1
	if previous != nil {
		out.Version = previous.Version + 1
	}
	out.UpdatedAt = now.UTC()
	return out
}

func sortRecords(records []*Record) {
	slices.SortFunc(records, func(a, b *Record) int {
		return strings.Compare(a.URI, b.URI)
	})
}
