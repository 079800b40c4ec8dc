package handle

import (
	"io"

	"github.com/deepnoodle-ai/docdb/wire"
)

var (
	_ ReadHandle = &SearchHandle{}
	_ ReadHandle = &ValuesHandle{}
	_ ReadHandle = &TuplesHandle{}
	_ ReadHandle = &ValuesListHandle{}
	_ ReadHandle = &OptionsListHandle{}
)

// resultHandle is a read-only JSON handle for query responses
type resultHandle[T any] struct {
	base
	content *T
	decoder JSONDecoder
}

func newResultHandle[T any](name string, caps Capabilities) resultHandle[T] {
	return resultHandle[T]{base: newBase(name, Readable|JSONContent|caps, FormatJSON)}
}

// Get returns the last response received, or nil
func (h *resultHandle[T]) Get() *T {
	return h.content
}

func (h *resultHandle[T]) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	v := new(T)
	if err := h.decoder.Decode(br, v); err != nil {
		return &ContentParseError{Handle: h.name, Format: FormatJSON, Err: err}
	}
	h.content = v
	return nil
}

// SearchHandle receives a page of search results with facets and metrics
type SearchHandle struct {
	resultHandle[wire.SearchResponse]
}

func NewSearchHandle() *SearchHandle {
	return &SearchHandle{newResultHandle[wire.SearchResponse]("search handle", SearchResults)}
}

// Total returns the estimated number of matches, or 0 before a search
func (h *SearchHandle) Total() int64 {
	if h.content == nil {
		return 0
	}
	return h.content.Total
}

// Results returns the match summaries of the current page
func (h *SearchHandle) Results() []*wire.MatchSummary {
	if h.content == nil {
		return nil
	}
	return h.content.Results
}

// Facet looks up a facet by name
func (h *SearchHandle) Facet(name string) (*wire.Facet, bool) {
	if h.content == nil {
		return nil, false
	}
	for _, f := range h.content.Facets {
		if f != nil && f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// ValuesHandle receives the distinct values of a lexicon
type ValuesHandle struct {
	resultHandle[wire.ValuesResponse]
}

func NewValuesHandle() *ValuesHandle {
	return &ValuesHandle{newResultHandle[wire.ValuesResponse]("values handle", ValuesResults)}
}

// Values returns the distinct values received, or nil
func (h *ValuesHandle) Values() []wire.DistinctValue {
	if h.content == nil {
		return nil
	}
	return h.content.Values
}

// TuplesHandle receives value co-occurrence tuples
type TuplesHandle struct {
	resultHandle[wire.TuplesResponse]
}

func NewTuplesHandle() *TuplesHandle {
	return &TuplesHandle{newResultHandle[wire.TuplesResponse]("tuples handle", TuplesResults)}
}

func (h *TuplesHandle) Tuples() []wire.Tuple {
	if h.content == nil {
		return nil
	}
	return h.content.Tuples
}

// ValuesListHandle receives the names of the lexicons available for a
// values query.
type ValuesListHandle struct {
	resultHandle[wire.ValuesListResponse]
}

func NewValuesListHandle() *ValuesListHandle {
	return &ValuesListHandle{newResultHandle[wire.ValuesListResponse]("values list handle", ValuesListResults)}
}

func (h *ValuesListHandle) Items() []wire.ValuesListItem {
	if h.content == nil {
		return nil
	}
	return h.content.Values
}

// OptionsListHandle receives the names of the stored query options
type OptionsListHandle struct {
	resultHandle[wire.OptionsListResponse]
}

func NewOptionsListHandle() *OptionsListHandle {
	return &OptionsListHandle{newResultHandle[wire.OptionsListResponse]("options list handle", OptionsListResults)}
}

func (h *OptionsListHandle) Items() []wire.OptionsListItem {
	if h.content == nil {
		return nil
	}
	return h.content.Options
}
