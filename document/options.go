package document

import (
	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/wire"
)

// Option configures a single read or write
type Option func(*callOptions)

type callOptions struct {
	metadata    handle.Handle
	transaction *rest.Transaction
	categories  []wire.Category
}

// WithMetadata reads or writes metadata through mh alongside the content
func WithMetadata(mh handle.Handle) Option {
	return func(o *callOptions) {
		o.metadata = mh
	}
}

// WithTransaction scopes the call to an open transaction
func WithTransaction(tx *rest.Transaction) Option {
	return func(o *callOptions) {
		o.transaction = tx
	}
}

// WithCategories limits the metadata categories read or written. The
// default is all of them.
func WithCategories(categories ...wire.Category) Option {
	return func(o *callOptions) {
		o.categories = categories
	}
}

func applyOptions(opts []Option) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *callOptions) metadataCategories() []wire.Category {
	var out []wire.Category
	for _, c := range o.categories {
		if c != wire.CategoryContent {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []wire.Category{wire.CategoryMetadata}
	}
	return out
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithMetadataExtraction sets the initial extraction policy
func WithMetadataExtraction(e MetadataExtraction) ManagerOption {
	return func(m *Manager) {
		m.extraction = e
	}
}
