package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gin-gonic/gin"
)

func queryInt(ctx *gin.Context, name string, def int64) (int64, error) {
	value := ctx.Query(name)
	if value == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, value)
	}
	return n, nil
}

// decodeJSON reads an optional JSON request body into v
func decodeJSON(ctx *gin.Context, v any) error {
	err := json.NewDecoder(ctx.Request.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid request body: %v", err)
}

func (s *Server) checkOptions(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := s.options[name]; !ok {
		return badRequest("unknown query options %q", name)
	}
	return nil
}

func (s *Server) search(ctx *gin.Context) {
	start, err := queryInt(ctx, wire.ParamStart, 1)
	if err == nil && start < 1 {
		err = badRequest("start must be at least 1")
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	pageLength, err := queryInt(ctx, wire.ParamPageLength, s.defaultPageLength)
	if err == nil && pageLength < 1 {
		err = badRequest("pageLength must be at least 1")
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	view, err := wire.ParseView(ctx.Query(wire.ParamView))
	if err != nil {
		fail(ctx, badRequest("%v", err))
		return
	}
	var criteria wire.Criteria
	if err := decodeJSON(ctx, &criteria); err != nil {
		fail(ctx, err)
		return
	}
	if err := s.checkOptions(criteria.Options); err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	resp, err := runSearch(ctx, v, &searchRequest{
		criteria:   &criteria,
		start:      start,
		pageLength: min(pageLength, s.maxPageLength),
		view:       view,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) deleteByQuery(ctx *gin.Context) {
	var criteria wire.Criteria
	if err := decodeJSON(ctx, &criteria); err != nil {
		fail(ctx, err)
		return
	}
	if criteria.IsEmpty() {
		fail(ctx, badRequest("delete by query requires criteria"))
		return
	}
	m, err := compileCriteria(&criteria)
	if err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	matches, err := find(ctx, v, m)
	if err != nil {
		fail(ctx, err)
		return
	}
	resp := &wire.DeleteResponse{URIs: []string{}}
	for _, match := range matches {
		resp.URIs = append(resp.URIs, match.doc.rec.URI)
	}
	if err := deleteAll(ctx, v, resp.URIs); err != nil {
		fail(ctx, err)
		return
	}
	resp.Deleted = int64(len(resp.URIs))
	ctx.JSON(http.StatusOK, resp)
}

// deleteAll removes uris in one batch when v is the store itself
func deleteAll(ctx *gin.Context, v view, uris []string) error {
	if st, ok := v.(store.Store); ok {
		changes := make([]store.Change, 0, len(uris))
		for _, uri := range uris {
			changes = append(changes, store.Change{URI: uri})
		}
		return st.Apply(ctx, changes)
	}
	for _, uri := range uris {
		if err := v.Delete(ctx, uri); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Server) optionsFor(ctx *gin.Context) (string, wire.QueryOptions, error) {
	name := ctx.Query(wire.ParamOptions)
	if name == "" {
		name = DefaultOptionsName
	}
	opts, ok := s.options[name]
	if !ok {
		return "", opts, &notFoundError{what: "query options", name: name}
	}
	return name, opts, nil
}

func (s *Server) values(ctx *gin.Context) {
	_, opts, err := s.optionsFor(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	var req wire.ValuesRequest
	if err := decodeJSON(ctx, &req); err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	name := ctx.Param("name")
	for _, lexicon := range opts.Values {
		if lexicon.Name != name {
			continue
		}
		docs, err := matching(ctx, v, req.Criteria)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, &wire.ValuesResponse{Name: name, Values: distinctValues(docs, lexicon.Locator, req)})
		return
	}
	for _, lexicon := range opts.Tuples {
		if lexicon.Name != name {
			continue
		}
		docs, err := matching(ctx, v, req.Criteria)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, &wire.TuplesResponse{Name: name, Tuples: tuples(docs, lexicon.Locators, req)})
		return
	}
	fail(ctx, &notFoundError{what: "lexicon", name: name})
}

func (s *Server) valuesList(ctx *gin.Context) {
	name, opts, err := s.optionsFor(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	resp := &wire.ValuesListResponse{Options: name, Values: []wire.ValuesListItem{}}
	for _, lexicon := range opts.Values {
		resp.Values = append(resp.Values, wire.ValuesListItem{Name: lexicon.Name, Kind: wire.LexiconValues})
	}
	for _, lexicon := range opts.Tuples {
		resp.Values = append(resp.Values, wire.ValuesListItem{Name: lexicon.Name, Kind: wire.LexiconTuples})
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) optionsList(ctx *gin.Context) {
	// options are global, but a stale transaction id is still rejected
	if _, err := s.view(ctx); err != nil {
		fail(ctx, err)
		return
	}
	resp := &wire.OptionsListResponse{Options: []wire.OptionsListItem{}}
	for _, name := range s.optionNames() {
		resp.Options = append(resp.Options, wire.OptionsListItem{Name: name, URI: QueryConfigURL + "/" + name})
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) queryOptions(ctx *gin.Context) {
	name := ctx.Param("name")
	opts, ok := s.options[name]
	if !ok {
		fail(ctx, &notFoundError{what: "query options", name: name})
		return
	}
	ctx.JSON(http.StatusOK, opts)
}
