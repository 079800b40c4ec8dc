package query

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/assert"
	"go.uber.org/mock/gomock"
)

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, int64(10), m.PageLength())
	assert.Equal(t, wire.ViewDefault, m.View())

	m.SetPageLength(25)
	m.SetView(wire.ViewAll)
	assert.Equal(t, int64(25), m.PageLength())
	assert.Equal(t, wire.ViewAll, m.View())

	m.SetPageLength(0)
	assert.Equal(t, DefaultPageLength, m.PageLength())

	m = NewManager(nil, WithPageLength(3), WithView(wire.ViewFacets))
	assert.Equal(t, int64(3), m.PageLength())
	assert.Equal(t, wire.ViewFacets, m.View())
}

func TestSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	tx := rest.NewTransaction("tx-9", "", time.Time{}, services)

	services.EXPECT().
		Search(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.SearchRequest) (io.ReadCloser, error) {
			assert.Equal(t, int64(11), req.Start)
			assert.Equal(t, int64(10), req.PageLength)
			assert.Equal(t, wire.ViewDefault, req.View)
			assert.Equal(t, "tx-9", req.Transaction.ID())
			assert.Equal(t, "apollo moon", req.Criteria.Text)
			assert.Equal(t, "books", req.Criteria.Options)
			assert.Equal(t, []string{"space"}, req.Criteria.Collections)
			return body(`{"total":12,"start":11,"page_length":10,
				"results":[{"uri":"/a.json","index":11,"score":2},{"uri":"/b.json","index":12,"score":1}],
				"facets":[{"name":"collection","values":[{"name":"space","count":12}]}]}`), nil
		})

	m := NewManager(services)
	def := m.NewStringDefinition("books").WithText("apollo moon")
	def.SetCollections("space")

	h := handle.NewSearchHandle()
	got, err := m.Search(context.Background(), def, h, WithStart(11), WithTransaction(tx))
	assert.NoError(t, err)
	assert.True(t, got == handle.ReadHandle(h))
	assert.Equal(t, int64(12), h.Total())
	assert.Len(t, h.Results(), 2)
	assert.Equal(t, "/a.json", h.Results()[0].URI)
	facet, ok := h.Facet("collection")
	assert.True(t, ok)
	assert.Equal(t, int64(12), facet.Values[0].Count)
}

func TestSearchValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(rest.NewMockServices(ctrl))
	ctx := context.Background()

	_, err := m.Search(ctx, nil, handle.NewSearchHandle())
	assert.True(t, errors.Is(err, ErrNoDefinition))

	_, err = m.Search(ctx, m.NewStringDefinition(), handle.NewSearchHandle(), WithStart(0))
	assert.Error(t, err)

	_, err = m.Search(ctx, m.NewStringDefinition(), handle.NewValuesHandle())
	var capErr *handle.CapabilityError
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, handle.SearchResults, capErr.Missing)
}

func TestSearchTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, &rest.TransportError{Op: "POST /v1/search", Err: io.ErrUnexpectedEOF})

	_, err := NewManager(services).Search(context.Background(), &StringDefinition{}, handle.NewSearchHandle())
	assert.True(t, errors.Is(err, rest.ErrTransport))
}

func TestFindOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	gomock.InOrder(
		services.EXPECT().
			Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.SearchRequest) (io.ReadCloser, error) {
				assert.Equal(t, int64(1), req.Start)
				assert.Equal(t, int64(1), req.PageLength)
				assert.Equal(t, wire.ViewResults, req.View)
				return body(`{"total":3,"results":[{"uri":"/best.xml","index":1,"score":9}]}`), nil
			}),
		services.EXPECT().
			Search(gomock.Any(), gomock.Any()).
			Return(body(`{"total":0}`), nil),
	)

	m := NewManager(services)
	sb := m.NewStructuredQueryBuilder()
	match, err := m.FindOne(context.Background(), sb.Term("rocket"))
	assert.NoError(t, err)
	assert.Equal(t, "/best.xml", match.URI)

	match, err = m.FindOne(context.Background(), sb.Term("nothing"))
	assert.NoError(t, err)
	assert.Nil(t, match)
}

func TestDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().
		DeleteQuery(gomock.Any(), gomock.Any(), nil).
		DoAndReturn(func(ctx context.Context, c *wire.Criteria, tx *rest.Transaction) (*wire.DeleteResponse, error) {
			assert.Equal(t, "/logs/", c.Directory)
			assert.Equal(t, "/logs/*.json", c.URIPattern)
			return &wire.DeleteResponse{Deleted: 2, URIs: []string{"/logs/1.json", "/logs/2.json"}}, nil
		})

	m := NewManager(services)
	def := m.NewDeleteDefinition()
	def.SetDirectory("/logs/")
	def.SetURIPattern("/logs/*.json")
	resp, err := m.Delete(context.Background(), def)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), resp.Deleted)

	_, err = m.Delete(context.Background(), m.NewDeleteDefinition())
	assert.True(t, errors.Is(err, ErrUnscopedDelete))
}

func TestValuesAndTuples(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	gomock.InOrder(
		services.EXPECT().
			Values(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.ValuesRequest) (io.ReadCloser, error) {
				assert.Equal(t, "author", req.Name)
				assert.Equal(t, "books", req.Options)
				assert.Equal(t, int64(1), req.Body.Start)
				assert.Equal(t, int64(5), req.Body.Limit)
				assert.True(t, *req.Body.Ascending)
				assert.Equal(t, "space", req.Body.Criteria.Text)
				return body(`{"name":"author","values":[{"value":"Clarke","frequency":3}]}`), nil
			}),
		services.EXPECT().
			Values(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.ValuesRequest) (io.ReadCloser, error) {
				assert.Equal(t, "author-year", req.Name)
				assert.Nil(t, req.Body.Criteria)
				return body(`{"name":"author-year","tuples":[{"values":["Clarke","1968"],"frequency":1}]}`), nil
			}),
	)

	m := NewManager(services)
	def := m.NewValuesDefinition("author", "books").
		SetQuery(m.NewStringDefinition().WithText("space")).
		SetPage(1, 5).
		SetAscending(true)
	vh := handle.NewValuesHandle()
	_, err := m.Values(context.Background(), def, vh)
	assert.NoError(t, err)
	assert.Equal(t, []wire.DistinctValue{{Value: "Clarke", Frequency: 3}}, vh.Values())

	th := handle.NewTuplesHandle()
	_, err = m.Tuples(context.Background(), m.NewValuesDefinition("author-year", "books"), th)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Clarke", "1968"}, th.Tuples()[0].Values)

	_, err = m.Tuples(context.Background(), def, handle.NewValuesHandle())
	var capErr *handle.CapabilityError
	assert.True(t, errors.As(err, &capErr))
}

func TestValuesListAndOptionsList(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().ValuesList(gomock.Any(), "books").
		Return(body(`{"options":"books","values":[{"name":"author","kind":"values"}]}`), nil)
	tx := rest.NewTransaction("tx-1", "import", time.Time{}, services)
	services.EXPECT().OptionsList(gomock.Any(), tx).
		Return(body(`{"options":[{"name":"books","uri":"/v1/config/query/books"}]}`), nil)

	m := NewManager(services)
	lh := handle.NewValuesListHandle()
	_, err := m.ValuesList(context.Background(), m.NewValuesListDefinition("books"), lh)
	assert.NoError(t, err)
	assert.Equal(t, wire.LexiconValues, lh.Items()[0].Kind)

	oh := handle.NewOptionsListHandle()
	_, err = m.OptionsList(context.Background(), oh, WithTransaction(tx))
	assert.NoError(t, err)
	assert.Equal(t, "books", oh.Items()[0].Name)
}

func TestLogging(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	logger := rest.NewStreamLogger(&bytes.Buffer{}, 0)
	services.EXPECT().StartLogging(logger)
	services.EXPECT().StopLogging()

	m := NewManager(services)
	m.StartLogging(logger)
	m.StopLogging()
}

func TestDefinitions(t *testing.T) {
	m := NewManager(nil)

	t.Run("key value", func(t *testing.T) {
		title := NewKeyLocator("book.title")
		year := NewElementLocator(xml.Name{Local: "book"}, xml.Name{Local: "year"})
		def := m.NewKeyValueDefinition().Put(title, "Dune").Put(year, "1965").Put(title, "Emma")
		assert.Equal(t, 2, def.Len())
		v, ok := def.Get(title)
		assert.True(t, ok)
		assert.Equal(t, "Emma", v)

		c := def.Criteria()
		assert.Equal(t, "book", c.KeyValues[1].Locator.Element)
		assert.Equal(t, "year", c.KeyValues[1].Locator.Attribute)
	})

	t.Run("structured", func(t *testing.T) {
		sb := m.NewStructuredQueryBuilder("books")
		def := sb.And(
			sb.Or(sb.Term("apollo"), sb.Value(NewKeyLocator("mission"), "11", "13")),
			sb.Not(sb.Collection("drafts")),
			sb.Directory(true, "/space/"),
			sb.URIMatch("*.json"),
		)
		def.SetDirectory("/space/")
		c := def.Criteria()
		assert.Equal(t, "books", c.Options)
		assert.Equal(t, "/space/", c.Directory)
		assert.Len(t, c.Structured.And, 4)
		assert.Equal(t, []string{"apollo"}, c.Structured.And[0].Or[0].Term)
		assert.Equal(t, []string{"11", "13"}, c.Structured.And[0].Or[1].Value.Values)
		assert.Equal(t, []string{"drafts"}, c.Structured.And[1].Not.Collection)
		assert.True(t, c.Structured.And[2].Directory.Infinite)
		assert.Equal(t, "*.json", c.Structured.And[3].URIMatch)
	})

	t.Run("element locator", func(t *testing.T) {
		l := NewElementLocator(xml.Name{Space: "urn:b", Local: "title"})
		assert.Equal(t, "element:{urn:b}title", l.String())
		assert.NoError(t, l.Validate())
	})
}
