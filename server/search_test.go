package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/stretchr/testify/require"
)

func seedLibrary(t *testing.T, st store.Store) {
	t.Helper()
	docs := []struct {
		uri         string
		format      wire.Format
		content     string
		collections []string
	}{
		{"/books/emma.json", wire.FormatJSON, `{"title":"Emma","author":"Austen","year":1815,"tags":["novel","romance"]}`, []string{"books", "classics"}},
		{"/books/persuasion.json", wire.FormatJSON, `{"title":"Persuasion","author":"Austen","year":1817}`, []string{"books"}},
		{"/books/dracula.xml", wire.FormatXML, `<book genre="horror"><title>Dracula</title><author>Stoker</author></book>`, []string{"books"}},
		{"/notes/todo.txt", wire.FormatText, "Read Emma and Dracula. Emma first.", nil},
	}
	for _, d := range docs {
		meta := wire.NewMetadata()
		meta.AddCollections(d.collections...)
		require.NoError(t, st.Put(context.Background(), &store.Record{
			URI:      d.uri,
			Content:  []byte(d.content),
			Format:   d.format,
			MimeType: d.format.DefaultMimeType(),
			Metadata: meta,
		}))
	}
}

func postJSON(t *testing.T, s *Server, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return serve(t, s, request{
		method:  http.MethodPost,
		target:  target,
		body:    string(data),
		headers: map[string]string{"Content-Type": "application/json"},
	})
}

func searchFor(t *testing.T, s *Server, query string, criteria *wire.Criteria) *wire.SearchResponse {
	t.Helper()
	rec := postJSON(t, s, SearchURL+query, criteria)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp wire.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp
}

func resultURIs(resp *wire.SearchResponse) []string {
	var uris []string
	for _, r := range resp.Results {
		uris = append(uris, r.URI)
	}
	return uris
}

func TestSearchText(t *testing.T) {
	s, st := newTestServer(t)
	seedLibrary(t, st)

	resp := searchFor(t, s, "", &wire.Criteria{Text: "Emma"})
	require.Equal(t, int64(2), resp.Total)
	require.Equal(t, int64(1), resp.Start)
	require.Equal(t, DefaultPageLength, resp.PageLength)
	require.Equal(t, []string{"/notes/todo.txt", "/books/emma.json"}, resultURIs(resp))

	first, second := resp.Results[0], resp.Results[1]
	require.Equal(t, int64(1), first.Index)
	require.Equal(t, 2.0, first.Score)
	require.Equal(t, 1.0, first.Confidence)
	require.Equal(t, 0.5, second.Confidence)
	require.Equal(t, wire.FormatText, first.Format)
	require.NotEmpty(t, first.Snippets)
	require.Contains(t, first.Snippets[0].Text, "emma")

	require.Len(t, resp.Facets, 1)
	require.Equal(t, "collection", resp.Facets[0].Name)
	require.Equal(t, []wire.FacetValue{{Name: "books", Count: 1}, {Name: "classics", Count: 1}}, resp.Facets[0].Values)
	require.Nil(t, resp.Metrics)
}

func TestSearchCriteria(t *testing.T) {
	s, st := newTestServer(t)
	seedLibrary(t, st)

	tests := []struct {
		name     string
		criteria *wire.Criteria
		want     []string
	}{
		{
			name:     "everything",
			criteria: &wire.Criteria{},
			want:     []string{"/books/dracula.xml", "/books/emma.json", "/books/persuasion.json", "/notes/todo.txt"},
		},
		{
			name:     "json key",
			criteria: &wire.Criteria{KeyValues: []wire.KeyValue{{Locator: wire.KeyLocator("author"), Value: "Austen"}}},
			want:     []string{"/books/emma.json", "/books/persuasion.json"},
		},
		{
			name:     "json number",
			criteria: &wire.Criteria{KeyValues: []wire.KeyValue{{Locator: wire.KeyLocator("year"), Value: "1815"}}},
			want:     []string{"/books/emma.json"},
		},
		{
			name:     "json array",
			criteria: &wire.Criteria{KeyValues: []wire.KeyValue{{Locator: wire.KeyLocator("tags"), Value: "novel"}}},
			want:     []string{"/books/emma.json"},
		},
		{
			name: "xml element",
			criteria: &wire.Criteria{Structured: &wire.Query{Value: &wire.ValueQuery{
				Locator: wire.Locator{Element: "author"},
				Values:  []string{"Austen", "Stoker"},
			}}},
			want: []string{"/books/dracula.xml"},
		},
		{
			name: "xml attribute",
			criteria: &wire.Criteria{KeyValues: []wire.KeyValue{{
				Locator: wire.Locator{Element: "book", Attribute: "genre"},
				Value:   "horror",
			}}},
			want: []string{"/books/dracula.xml"},
		},
		{
			name: "structured",
			criteria: &wire.Criteria{Structured: &wire.Query{And: []*wire.Query{
				{Collection: []string{"books"}},
				{Not: &wire.Query{Term: []string{"austen"}}},
			}}},
			want: []string{"/books/dracula.xml"},
		},
		{
			name: "or",
			criteria: &wire.Criteria{Structured: &wire.Query{Or: []*wire.Query{
				{Collection: []string{"classics"}},
				{URIMatch: "/notes/*"},
			}}},
			want: []string{"/books/emma.json", "/notes/todo.txt"},
		},
		{
			name:     "uri pattern",
			criteria: &wire.Criteria{URIPattern: "/books/*.json"},
			want:     []string{"/books/emma.json", "/books/persuasion.json"},
		},
		{
			name:     "collections",
			criteria: &wire.Criteria{Collections: []string{"classics"}},
			want:     []string{"/books/emma.json"},
		},
		{
			name:     "directory",
			criteria: &wire.Criteria{Directory: "/notes/"},
			want:     []string{"/notes/todo.txt"},
		},
		{
			name:     "shallow directory",
			criteria: &wire.Criteria{Structured: &wire.Query{Directory: &wire.DirectoryQuery{URIs: []string{"/"}}}},
		},
		{
			name:     "infinite directory",
			criteria: &wire.Criteria{Structured: &wire.Query{Directory: &wire.DirectoryQuery{URIs: []string{"/books"}, Infinite: true}}},
			want:     []string{"/books/dracula.xml", "/books/emma.json", "/books/persuasion.json"},
		},
		{
			name: "combined",
			criteria: &wire.Criteria{
				Text:        "austen",
				KeyValues:   []wire.KeyValue{{Locator: wire.KeyLocator("year"), Value: "1817"}},
				Collections: []string{"books"},
			},
			want: []string{"/books/persuasion.json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := searchFor(t, s, "?view=results", tt.criteria)
			require.Equal(t, tt.want, resultURIs(resp))
			require.Equal(t, int64(len(tt.want)), resp.Total)
			require.Nil(t, resp.Facets)
		})
	}
}

func TestSearchPagingAndViews(t *testing.T) {
	s, st := newTestServer(t)
	seedLibrary(t, st)
	books := &wire.Criteria{Directory: "/books/"}

	resp := searchFor(t, s, "?start=2&pageLength=1", books)
	require.Equal(t, int64(3), resp.Total)
	require.Equal(t, []string{"/books/emma.json"}, resultURIs(resp))
	require.Equal(t, int64(2), resp.Results[0].Index)

	resp = searchFor(t, s, "?start=10", books)
	require.Equal(t, int64(3), resp.Total)
	require.Empty(t, resp.Results)

	resp = searchFor(t, s, "?pageLength=5000", books)
	require.Equal(t, DefaultMaxPageLength, resp.PageLength)

	resp = searchFor(t, s, "?view=facets", books)
	require.Nil(t, resp.Results)
	require.Len(t, resp.Facets, 1)
	require.Equal(t, []wire.FacetValue{{Name: "books", Count: 3}, {Name: "classics", Count: 1}}, resp.Facets[0].Values)

	resp = searchFor(t, s, "?view=metadata", books)
	require.Nil(t, resp.Results)
	require.Nil(t, resp.Facets)
	require.NotNil(t, resp.Metrics)

	resp = searchFor(t, s, "?view=all", books)
	require.Len(t, resp.Results, 3)
	require.Len(t, resp.Facets, 1)
	require.NotNil(t, resp.Metrics)
}

func TestSearchBadRequests(t *testing.T) {
	s, st := newTestServer(t)
	seedLibrary(t, st)

	for name, target := range map[string]string{
		"start":       SearchURL + "?start=0",
		"page length": SearchURL + "?pageLength=0",
		"view":        SearchURL + "?view=everything",
		"number":      SearchURL + "?start=one",
	} {
		t.Run(name, func(t *testing.T) {
			requireError(t, postJSON(t, s, target, &wire.Criteria{}), http.StatusBadRequest, wire.ErrorKindBadRequest)
		})
	}

	t.Run("unknown options", func(t *testing.T) {
		rec := postJSON(t, s, SearchURL, &wire.Criteria{Options: "nope"})
		requireError(t, rec, http.StatusBadRequest, wire.ErrorKindBadRequest)
	})
	t.Run("bad locator", func(t *testing.T) {
		rec := postJSON(t, s, SearchURL, &wire.Criteria{KeyValues: []wire.KeyValue{{Value: "x"}}})
		requireError(t, rec, http.StatusBadRequest, wire.ErrorKindBadRequest)
	})
	t.Run("malformed body", func(t *testing.T) {
		rec := serve(t, s, request{method: http.MethodPost, target: SearchURL, body: "{"})
		requireError(t, rec, http.StatusBadRequest, wire.ErrorKindBadRequest)
	})
	t.Run("known options", func(t *testing.T) {
		rec := postJSON(t, s, SearchURL, &wire.Criteria{Options: "books"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDeleteByQuery(t *testing.T) {
	s, st := newTestServer(t)
	seedLibrary(t, st)
	ctx := context.Background()

	rec := serve(t, s, request{method: http.MethodDelete, target: SearchURL, body: `{}`})
	requireError(t, rec, http.StatusBadRequest, wire.ErrorKindBadRequest)

	rec = serve(t, s, request{method: http.MethodDelete, target: SearchURL, body: `{"uri_pattern":"/books/*.json"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp wire.DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Deleted)
	require.Equal(t, []string{"/books/emma.json", "/books/persuasion.json"}, resp.URIs)

	remaining, err := st.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	rec = serve(t, s, request{method: http.MethodDelete, target: SearchURL, body: `{"collections":["nothing"]}`})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"deleted":0}`, rec.Body.String())
}
