package query

import (
	"encoding/xml"
	"slices"

	"github.com/deepnoodle-ai/docdb/wire"
)

// Definition is a query that can be searched
type Definition interface {
	// OptionsName names the server query options to apply, or "" for the
	// defaults.
	OptionsName() string
	// Criteria returns the request body sent to the server
	Criteria() *wire.Criteria
}

// scope narrows any definition to collections and a directory
type scope struct {
	options     string
	collections []string
	directory   string
}

func (s *scope) OptionsName() string {
	return s.options
}

func (s *scope) SetOptionsName(name string) {
	s.options = name
}

func (s *scope) Collections() []string {
	return slices.Clone(s.collections)
}

// SetCollections limits matches to documents in at least one collection
func (s *scope) SetCollections(collections ...string) {
	s.collections = slices.Clone(collections)
}

func (s *scope) Directory() string {
	return s.directory
}

// SetDirectory limits matches to documents whose URI starts with dir
func (s *scope) SetDirectory(dir string) {
	s.directory = dir
}

func (s *scope) criteria() *wire.Criteria {
	return &wire.Criteria{
		Options:     s.options,
		Collections: slices.Clone(s.collections),
		Directory:   s.directory,
	}
}

// StringDefinition is a free text query. Every whitespace separated term
// must occur in a matching document.
type StringDefinition struct {
	scope
	text string
}

func (d *StringDefinition) Text() string {
	return d.text
}

func (d *StringDefinition) SetText(text string) {
	d.text = text
}

func (d *StringDefinition) WithText(text string) *StringDefinition {
	d.text = text
	return d
}

func (d *StringDefinition) Criteria() *wire.Criteria {
	c := d.criteria()
	c.Text = d.text
	return c
}

// KeyValueDefinition matches documents whose located values equal the given
// values. All pairs must match.
type KeyValueDefinition struct {
	scope
	pairs []wire.KeyValue
}

// Put sets the value wanted at a locator, replacing any earlier value
func (d *KeyValueDefinition) Put(l wire.Locator, value string) *KeyValueDefinition {
	for i, kv := range d.pairs {
		if kv.Locator == l {
			d.pairs[i].Value = value
			return d
		}
	}
	d.pairs = append(d.pairs, wire.KeyValue{Locator: l, Value: value})
	return d
}

// Get returns the value wanted at a locator
func (d *KeyValueDefinition) Get(l wire.Locator) (string, bool) {
	for _, kv := range d.pairs {
		if kv.Locator == l {
			return kv.Value, true
		}
	}
	return "", false
}

func (d *KeyValueDefinition) Len() int {
	return len(d.pairs)
}

func (d *KeyValueDefinition) Criteria() *wire.Criteria {
	c := d.criteria()
	c.KeyValues = slices.Clone(d.pairs)
	return c
}

// DeleteDefinition selects documents to remove by collection, directory or
// URI pattern. At least one must be set.
type DeleteDefinition struct {
	scope
	uriPattern string
}

func (d *DeleteDefinition) URIPattern() string {
	return d.uriPattern
}

// SetURIPattern limits matches to URIs matching a glob such as "/logs/*.json"
func (d *DeleteDefinition) SetURIPattern(pattern string) {
	d.uriPattern = pattern
}

func (d *DeleteDefinition) Criteria() *wire.Criteria {
	c := d.criteria()
	c.URIPattern = d.uriPattern
	return c
}

// ValuesDefinition reads a values or tuples lexicon, optionally limited to
// the documents matching a query.
type ValuesDefinition struct {
	name      string
	options   string
	query     Definition
	start     int64
	limit     int64
	ascending *bool
}

func (d *ValuesDefinition) Name() string {
	return d.name
}

func (d *ValuesDefinition) OptionsName() string {
	return d.options
}

func (d *ValuesDefinition) Query() Definition {
	return d.query
}

// SetQuery limits the lexicon to documents matching q
func (d *ValuesDefinition) SetQuery(q Definition) *ValuesDefinition {
	d.query = q
	return d
}

// SetPage selects values from the 1-based position start. A zero limit
// returns every remaining value.
func (d *ValuesDefinition) SetPage(start, limit int64) *ValuesDefinition {
	d.start = start
	d.limit = limit
	return d
}

// SetAscending orders values by value rather than by descending frequency
func (d *ValuesDefinition) SetAscending(ascending bool) *ValuesDefinition {
	d.ascending = &ascending
	return d
}

func (d *ValuesDefinition) request() wire.ValuesRequest {
	req := wire.ValuesRequest{Start: d.start, Limit: d.limit, Ascending: d.ascending}
	if d.query != nil {
		req.Criteria = d.query.Criteria()
	}
	return req
}

// ValuesListDefinition lists the lexicons of a set of query options
type ValuesListDefinition struct {
	options string
}

func (d *ValuesListDefinition) OptionsName() string {
	return d.options
}

// NewElementLocator addresses an XML element, or one of its attributes
func NewElementLocator(element xml.Name, attribute ...xml.Name) wire.Locator {
	if len(attribute) > 0 {
		return wire.AttributeLocator(element, attribute[0])
	}
	return wire.ElementLocator(element)
}

// NewKeyLocator addresses a JSON key. Dotted paths address nested objects.
func NewKeyLocator(key string) wire.Locator {
	return wire.KeyLocator(key)
}

func firstOr(values []string, def string) string {
	if len(values) > 0 {
		return values[0]
	}
	return def
}
