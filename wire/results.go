package wire

import "time"

// Snippet is a fragment of matching text from a search result
type Snippet struct {
	Text  string   `json:"text"`
	Terms []string `json:"terms,omitempty"`
}

// MatchSummary describes one document that matched a search
type MatchSummary struct {
	URI        string    `json:"uri"`
	Index      int64     `json:"index"`
	Score      float64   `json:"score"`
	Format     Format    `json:"format,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	Snippets   []Snippet `json:"snippets,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// FacetValue is one bucket of a facet
type FacetValue struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Facet summarizes the matching documents along one dimension
type Facet struct {
	Name   string       `json:"name"`
	Values []FacetValue `json:"values"`
}

// Metrics reports server-side timings of a query
type Metrics struct {
	QueryResolutionMillis   float64 `json:"query_resolution_millis"`
	SnippetResolutionMillis float64 `json:"snippet_resolution_millis"`
	TotalMillis             float64 `json:"total_millis"`
}

// SearchResponse is the result of a search request
type SearchResponse struct {
	Total      int64           `json:"total"`
	Start      int64           `json:"start"`
	PageLength int64           `json:"page_length"`
	View       View            `json:"view,omitempty"`
	Results    []*MatchSummary `json:"results,omitempty"`
	Facets     []*Facet        `json:"facets,omitempty"`
	Metrics    *Metrics        `json:"metrics,omitempty"`
}

// DistinctValue is one entry of a values lexicon
type DistinctValue struct {
	Value     string `json:"value"`
	Frequency int64  `json:"frequency"`
}

// ValuesResponse is the result of a values request
type ValuesResponse struct {
	Name   string          `json:"name"`
	Values []DistinctValue `json:"values"`
}

// Tuple is one co-occurrence of values from a tuples lexicon
type Tuple struct {
	Values    []string `json:"values"`
	Frequency int64    `json:"frequency"`
}

// TuplesResponse is the result of a tuples request
type TuplesResponse struct {
	Name   string  `json:"name"`
	Tuples []Tuple `json:"tuples"`
}

// LexiconKind distinguishes values and tuples lexicons
type LexiconKind string

const (
	LexiconValues LexiconKind = "values"
	LexiconTuples LexiconKind = "tuples"
)

// ValuesListItem names a lexicon available for values requests
type ValuesListItem struct {
	Name string      `json:"name"`
	Kind LexiconKind `json:"kind"`
}

// ValuesListResponse lists the lexicons of a set of query options
type ValuesListResponse struct {
	Options string           `json:"options"`
	Values  []ValuesListItem `json:"values"`
}

// OptionsListItem names a set of query options
type OptionsListItem struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// OptionsListResponse lists the query options known to the server
type OptionsListResponse struct {
	Options []OptionsListItem `json:"options"`
}

// ValuesRequest is the body of a values or tuples request
type ValuesRequest struct {
	Criteria  *Criteria `json:"criteria,omitempty"`
	Start     int64     `json:"start,omitempty"`
	Limit     int64     `json:"limit,omitempty"`
	Ascending *bool     `json:"ascending,omitempty"`
}

// ErrorResponse is the body returned with every non-2xx status
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error kinds carried in ErrorResponse
const (
	ErrorKindNotFound            = "not-found"
	ErrorKindRangeNotSatisfiable = "range-not-satisfiable"
	ErrorKindConflict            = "conflict"
	ErrorKindBadRequest          = "bad-request"
	ErrorKindTransactionNotFound = "transaction-not-found"
	ErrorKindInternal            = "internal"
)

// DeleteResponse reports the documents removed by a delete-by-query
type DeleteResponse struct {
	Deleted int64    `json:"deleted"`
	URIs    []string `json:"uris,omitempty"`
}

// TransactionStatus describes an open transaction
type TransactionStatus struct {
	ID        string    `json:"txid"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}
