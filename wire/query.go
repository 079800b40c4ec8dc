package wire

import (
	"encoding/xml"
	"fmt"
)

// View selects which parts of a search response the server returns
type View string

const (
	ViewDefault  View = "default"
	ViewResults  View = "results"
	ViewFacets   View = "facets"
	ViewMetadata View = "metadata"
	ViewAll      View = "all"
)

// IncludesResults reports whether the view returns matching documents
func (v View) IncludesResults() bool {
	return v == ViewDefault || v == ViewResults || v == ViewAll || v == ""
}

// IncludesFacets reports whether the view returns facets
func (v View) IncludesFacets() bool {
	return v == ViewDefault || v == ViewFacets || v == ViewAll || v == ""
}

// IncludesMetrics reports whether the view returns query metrics
func (v View) IncludesMetrics() bool {
	return v == ViewMetadata || v == ViewAll
}

// ParseView converts a view name to a View
func ParseView(name string) (View, error) {
	switch v := View(name); v {
	case "":
		return ViewDefault, nil
	case ViewDefault, ViewResults, ViewFacets, ViewMetadata, ViewAll:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", name)
}

// Locator identifies a value inside a document: either a JSON key or an XML
// element, optionally narrowed to one of its attributes.
type Locator struct {
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
	Element     string `json:"element,omitempty" yaml:"element,omitempty"`
	ElementNS   string `json:"element_ns,omitempty" yaml:"element_ns,omitempty"`
	Attribute   string `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	AttributeNS string `json:"attribute_ns,omitempty" yaml:"attribute_ns,omitempty"`
}

// KeyLocator returns a locator for a JSON key. Dotted paths address nested
// objects.
func KeyLocator(key string) Locator {
	return Locator{Key: key}
}

// ElementLocator returns a locator for an XML element
func ElementLocator(element xml.Name) Locator {
	return Locator{Element: element.Local, ElementNS: element.Space}
}

// AttributeLocator returns a locator for an attribute of an XML element
func AttributeLocator(element, attribute xml.Name) Locator {
	return Locator{
		Element:     element.Local,
		ElementNS:   element.Space,
		Attribute:   attribute.Local,
		AttributeNS: attribute.Space,
	}
}

// IsKey reports whether the locator addresses JSON content
func (l Locator) IsKey() bool {
	return l.Key != ""
}

// Validate checks that exactly one of key or element is set
func (l Locator) Validate() error {
	switch {
	case l.Key == "" && l.Element == "":
		return fmt.Errorf("locator requires a key or an element")
	case l.Key != "" && l.Element != "":
		return fmt.Errorf("locator cannot have both key %q and element %q", l.Key, l.Element)
	case l.Key != "" && l.Attribute != "":
		return fmt.Errorf("attribute %q is only valid with an element locator", l.Attribute)
	}
	return nil
}

func (l Locator) String() string {
	if l.Key != "" {
		return "key:" + l.Key
	}
	s := "element:" + qualified(l.ElementNS, l.Element)
	if l.Attribute != "" {
		s += "@" + qualified(l.AttributeNS, l.Attribute)
	}
	return s
}

func qualified(space, local string) string {
	if space == "" {
		return local
	}
	return "{" + space + "}" + local
}

// KeyValue matches documents whose located value equals Value
type KeyValue struct {
	Locator Locator `json:"locator"`
	Value   string  `json:"value"`
}

// ValueQuery matches documents whose located value equals one of Values
type ValueQuery struct {
	Locator Locator  `json:"locator"`
	Values  []string `json:"values"`
}

// DirectoryQuery matches documents under one of the given directories
type DirectoryQuery struct {
	URIs     []string `json:"uris"`
	Infinite bool     `json:"infinite,omitempty"`
}

// Query is a node of a structured query. Exactly one field is set.
type Query struct {
	And        []*Query        `json:"and,omitempty"`
	Or         []*Query        `json:"or,omitempty"`
	Not        *Query          `json:"not,omitempty"`
	Term       []string        `json:"term,omitempty"`
	Value      *ValueQuery     `json:"value,omitempty"`
	Collection []string        `json:"collection,omitempty"`
	Directory  *DirectoryQuery `json:"directory,omitempty"`
	URIMatch   string          `json:"uri_match,omitempty"`
}

// Criteria is the body of search, delete and values requests. The string
// query, key-value pairs and structured query are combined with AND.
type Criteria struct {
	Options     string     `json:"options,omitempty"`
	Text        string     `json:"text,omitempty"`
	KeyValues   []KeyValue `json:"key_values,omitempty"`
	Structured  *Query     `json:"structured,omitempty"`
	Collections []string   `json:"collections,omitempty"`
	Directory   string     `json:"directory,omitempty"`
	URIPattern  string     `json:"uri_pattern,omitempty"`
}

// IsEmpty reports whether the criteria would match every document
func (c *Criteria) IsEmpty() bool {
	return c == nil || (c.Text == "" && len(c.KeyValues) == 0 && c.Structured == nil &&
		len(c.Collections) == 0 && c.Directory == "" && c.URIPattern == "")
}

// LexiconDefinition names a values lexicon in a set of query options
type LexiconDefinition struct {
	Name    string  `json:"name" yaml:"name"`
	Locator Locator `json:"locator" yaml:"locator"`
}

// TuplesDefinition names a co-occurrence lexicon over several locators
type TuplesDefinition struct {
	Name     string    `json:"name" yaml:"name"`
	Locators []Locator `json:"locators" yaml:"locators"`
}

// QueryOptions is a named set of lexicons available to values requests
type QueryOptions struct {
	Values []LexiconDefinition `json:"values,omitempty" yaml:"values,omitempty"`
	Tuples []TuplesDefinition  `json:"tuples,omitempty" yaml:"tuples,omitempty"`
}

// Validate checks lexicon names are unique and locators are well formed
func (o *QueryOptions) Validate() error {
	seen := map[string]bool{}
	for _, v := range o.Values {
		if v.Name == "" {
			return fmt.Errorf("values lexicon name is required")
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate lexicon %q", v.Name)
		}
		seen[v.Name] = true
		if err := v.Locator.Validate(); err != nil {
			return fmt.Errorf("lexicon %q: %w", v.Name, err)
		}
	}
	for _, t := range o.Tuples {
		if t.Name == "" {
			return fmt.Errorf("tuples lexicon name is required")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate lexicon %q", t.Name)
		}
		seen[t.Name] = true
		if len(t.Locators) < 2 {
			return fmt.Errorf("tuples lexicon %q needs at least two locators", t.Name)
		}
		for _, l := range t.Locators {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("tuples lexicon %q: %w", t.Name, err)
			}
		}
	}
	return nil
}
