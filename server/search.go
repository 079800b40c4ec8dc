package server

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gobwas/glob"
)

const snippetRadius = 40

// matcher evaluates search criteria against documents
type matcher struct {
	criteria *wire.Criteria
	terms    []string
	globs    map[string]glob.Glob
}

// compileCriteria fails with a *requestError for malformed criteria
func compileCriteria(c *wire.Criteria) (*matcher, error) {
	if c == nil {
		c = &wire.Criteria{}
	}
	m := &matcher{criteria: c, terms: tokenize(c.Text), globs: map[string]glob.Glob{}}
	if err := m.compileGlob(c.URIPattern); err != nil {
		return nil, &requestError{err: err}
	}
	for _, kv := range c.KeyValues {
		if err := kv.Locator.Validate(); err != nil {
			return nil, &requestError{err: err}
		}
	}
	if err := m.compileQuery(c.Structured); err != nil {
		return nil, &requestError{err: err}
	}
	return m, nil
}

func (m *matcher) compileGlob(pattern string) error {
	if pattern == "" || m.globs[pattern] != nil {
		return nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return fmt.Errorf("invalid uri pattern %q: %w", pattern, err)
	}
	m.globs[pattern] = g
	return nil
}

func (m *matcher) compileQuery(q *wire.Query) error {
	if q == nil {
		return nil
	}
	for _, sub := range append(slices.Clone(q.And), q.Or...) {
		if err := m.compileQuery(sub); err != nil {
			return err
		}
	}
	if err := m.compileQuery(q.Not); err != nil {
		return err
	}
	if q.Value != nil {
		if err := q.Value.Locator.Validate(); err != nil {
			return err
		}
	}
	if q.Term != nil {
		m.terms = append(m.terms, tokenize(strings.Join(q.Term, " "))...)
	}
	return m.compileGlob(q.URIMatch)
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func (m *matcher) match(d *indexed) bool {
	c := m.criteria
	uri := d.rec.URI
	if len(c.Collections) > 0 && !inAnyCollection(d, c.Collections) {
		return false
	}
	if c.Directory != "" && !strings.HasPrefix(uri, c.Directory) {
		return false
	}
	if c.URIPattern != "" && !m.globs[c.URIPattern].Match(uri) {
		return false
	}
	if !containsAll(d.Text(), tokenize(c.Text)) {
		return false
	}
	for _, kv := range c.KeyValues {
		if !slices.Contains(d.Values(kv.Locator), kv.Value) {
			return false
		}
	}
	return m.eval(c.Structured, d)
}

func (m *matcher) eval(q *wire.Query, d *indexed) bool {
	switch {
	case q == nil:
		return true
	case len(q.And) > 0:
		for _, sub := range q.And {
			if !m.eval(sub, d) {
				return false
			}
		}
		return true
	case len(q.Or) > 0:
		for _, sub := range q.Or {
			if m.eval(sub, d) {
				return true
			}
		}
		return false
	case q.Not != nil:
		return !m.eval(q.Not, d)
	case len(q.Term) > 0:
		return containsAll(d.Text(), tokenize(strings.Join(q.Term, " ")))
	case q.Value != nil:
		values := d.Values(q.Value.Locator)
		for _, v := range q.Value.Values {
			if slices.Contains(values, v) {
				return true
			}
		}
		return false
	case len(q.Collection) > 0:
		return inAnyCollection(d, q.Collection)
	case q.Directory != nil:
		for _, dir := range q.Directory.URIs {
			if inDirectory(d.rec.URI, dir, q.Directory.Infinite) {
				return true
			}
		}
		return false
	case q.URIMatch != "":
		return m.globs[q.URIMatch].Match(d.rec.URI)
	}
	return true
}

func inAnyCollection(d *indexed, collections []string) bool {
	for _, c := range collections {
		if d.rec.Metadata.InCollection(c) {
			return true
		}
	}
	return false
}

func inDirectory(uri, dir string, infinite bool) bool {
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	rest, ok := strings.CutPrefix(uri, dir)
	return ok && (infinite || !strings.Contains(rest, "/"))
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// score counts the occurrences of every query term in the document
func (m *matcher) score(d *indexed) float64 {
	var hits int
	for _, t := range m.terms {
		hits += strings.Count(d.Text(), t)
	}
	return float64(hits)
}

func (m *matcher) snippets(d *indexed) []wire.Snippet {
	text := d.Text()
	var out []wire.Snippet
	for _, t := range m.terms {
		i := strings.Index(text, t)
		if i < 0 {
			continue
		}
		from, to := max(i-snippetRadius, 0), min(i+len(t)+snippetRadius, len(text))
		for from > 0 && !utf8.RuneStart(text[from]) {
			from--
		}
		for to < len(text) && !utf8.RuneStart(text[to]) {
			to++
		}
		out = append(out, wire.Snippet{Text: strings.TrimSpace(text[from:to]), Terms: []string{t}})
	}
	return out
}

type searchRequest struct {
	criteria   *wire.Criteria
	start      int64
	pageLength int64
	view       wire.View
}

type scored struct {
	doc   *indexed
	score float64
}

// find returns every document of v matching m, best first
func find(ctx context.Context, v view, m *matcher) ([]scored, error) {
	records, err := v.List(ctx, m.criteria.Directory)
	if err != nil {
		return nil, err
	}
	var out []scored
	for _, rec := range records {
		d := newIndexed(rec)
		if m.match(d) {
			out = append(out, scored{doc: d, score: m.score(d)})
		}
	}
	slices.SortStableFunc(out, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return strings.Compare(a.doc.rec.URI, b.doc.rec.URI)
	})
	return out, nil
}

func runSearch(ctx context.Context, v view, req *searchRequest) (*wire.SearchResponse, error) {
	began := time.Now()
	m, err := compileCriteria(req.criteria)
	if err != nil {
		return nil, err
	}
	matches, err := find(ctx, v, m)
	if err != nil {
		return nil, err
	}
	resolved := time.Now()

	resp := &wire.SearchResponse{
		Total:      int64(len(matches)),
		Start:      req.start,
		PageLength: req.pageLength,
		View:       req.view,
	}
	if req.view.IncludesResults() {
		var best float64
		if len(matches) > 0 {
			best = matches[0].score
		}
		first := min(req.start-1, int64(len(matches)))
		last := min(first+req.pageLength, int64(len(matches)))
		for i, match := range matches[first:last] {
			summary := &wire.MatchSummary{
				URI:      match.doc.rec.URI,
				Index:    first + int64(i) + 1,
				Score:    match.score,
				Format:   match.doc.rec.Format,
				MimeType: match.doc.rec.MimeType,
				Snippets: m.snippets(match.doc),
			}
			if best > 0 {
				summary.Confidence = match.score / best
			}
			resp.Results = append(resp.Results, summary)
		}
	}
	if req.view.IncludesFacets() {
		resp.Facets = []*wire.Facet{collectionFacet(matches)}
	}
	if req.view.IncludesMetrics() {
		done := time.Now()
		resp.Metrics = &wire.Metrics{
			QueryResolutionMillis:   millis(resolved.Sub(began)),
			SnippetResolutionMillis: millis(done.Sub(resolved)),
			TotalMillis:             millis(done.Sub(began)),
		}
	}
	return resp, nil
}

func collectionFacet(matches []scored) *wire.Facet {
	counts := map[string]int64{}
	for _, match := range matches {
		if md := match.doc.rec.Metadata; md != nil {
			for _, c := range md.Collections {
				counts[c]++
			}
		}
	}
	facet := &wire.Facet{Name: "collection", Values: []wire.FacetValue{}}
	for name, count := range counts {
		facet.Values = append(facet.Values, wire.FacetValue{Name: name, Count: count})
	}
	slices.SortFunc(facet.Values, func(a, b wire.FacetValue) int {
		if a.Count != b.Count {
			return int(b.Count - a.Count)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return facet
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
