package query

import (
	"slices"

	"github.com/deepnoodle-ai/docdb/wire"
)

// StructuredQueryBuilder composes structured queries. Every query it builds
// carries the builder's options name.
//
//	sb := qm.NewStructuredQueryBuilder()
//	def := sb.And(sb.Term("apollo"), sb.Not(sb.Collection("drafts")))
type StructuredQueryBuilder struct {
	options string
}

// StructuredDefinition is one node of a structured query
type StructuredDefinition struct {
	scope
	query *wire.Query
}

func (d *StructuredDefinition) Query() *wire.Query {
	return d.query
}

func (d *StructuredDefinition) Criteria() *wire.Criteria {
	c := d.criteria()
	c.Structured = d.query
	return c
}

func (b *StructuredQueryBuilder) build(q *wire.Query) *StructuredDefinition {
	return &StructuredDefinition{scope: scope{options: b.options}, query: q}
}

func nodes(queries []*StructuredDefinition) []*wire.Query {
	out := make([]*wire.Query, 0, len(queries))
	for _, q := range queries {
		if q != nil {
			out = append(out, q.query)
		}
	}
	return out
}

// And matches documents matching every query
func (b *StructuredQueryBuilder) And(queries ...*StructuredDefinition) *StructuredDefinition {
	return b.build(&wire.Query{And: nodes(queries)})
}

// Or matches documents matching at least one query
func (b *StructuredQueryBuilder) Or(queries ...*StructuredDefinition) *StructuredDefinition {
	return b.build(&wire.Query{Or: nodes(queries)})
}

func (b *StructuredQueryBuilder) Not(query *StructuredDefinition) *StructuredDefinition {
	return b.build(&wire.Query{Not: query.query})
}

// Term matches documents containing every term
func (b *StructuredQueryBuilder) Term(terms ...string) *StructuredDefinition {
	return b.build(&wire.Query{Term: slices.Clone(terms)})
}

// Value matches documents whose located value equals one of values
func (b *StructuredQueryBuilder) Value(l wire.Locator, values ...string) *StructuredDefinition {
	return b.build(&wire.Query{Value: &wire.ValueQuery{Locator: l, Values: slices.Clone(values)}})
}

// Collection matches documents in at least one of the collections
func (b *StructuredQueryBuilder) Collection(collections ...string) *StructuredDefinition {
	return b.build(&wire.Query{Collection: slices.Clone(collections)})
}

// Directory matches documents directly inside one of the directories, or
// anywhere below them if infinite is set.
func (b *StructuredQueryBuilder) Directory(infinite bool, uris ...string) *StructuredDefinition {
	return b.build(&wire.Query{Directory: &wire.DirectoryQuery{URIs: slices.Clone(uris), Infinite: infinite}})
}

// URIMatch matches documents whose URI matches a glob pattern
func (b *StructuredQueryBuilder) URIMatch(pattern string) *StructuredDefinition {
	return b.build(&wire.Query{URIMatch: pattern})
}
