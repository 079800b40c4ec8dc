package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/deepnoodle-ai/docdb/wire"
)

const (
	searchPath       = "/v1/search"
	valuesPath       = "/v1/values"
	queryOptionsPath = "/v1/config/query"
)

func (c *Client) Search(ctx context.Context, req *SearchRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(criteriaOrEmpty(req.Criteria))
	if err != nil {
		return nil, fmt.Errorf("error marshaling criteria: %w", err)
	}
	q := url.Values{}
	if req.Start > 0 {
		q.Set(wire.ParamStart, strconv.FormatInt(req.Start, 10))
	}
	if req.PageLength > 0 {
		q.Set(wire.ParamPageLength, strconv.FormatInt(req.PageLength, 10))
	}
	if req.View != "" {
		q.Set(wire.ParamView, string(req.View))
	}
	if txid := req.Transaction.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{
		method:      http.MethodPost,
		path:        searchPath,
		query:       q,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) DeleteQuery(ctx context.Context, criteria *wire.Criteria, tx *Transaction) (*wire.DeleteResponse, error) {
	body, err := json.Marshal(criteriaOrEmpty(criteria))
	if err != nil {
		return nil, fmt.Errorf("error marshaling criteria: %w", err)
	}
	q := url.Values{}
	if txid := tx.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{
		method:      http.MethodDelete,
		path:        searchPath,
		query:       q,
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var result wire.DeleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Op: "decode delete response", Err: err}
	}
	return &result, nil
}

func (c *Client) Values(ctx context.Context, req *ValuesRequest) (io.ReadCloser, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("values request requires a lexicon name")
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(req.Body); err != nil {
		return nil, fmt.Errorf("error marshaling values request: %w", err)
	}
	q := url.Values{}
	if req.Options != "" {
		q.Set(wire.ParamOptions, req.Options)
	}
	if txid := req.Transaction.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{
		method:      http.MethodPost,
		path:        valuesPath + "/" + url.PathEscape(req.Name),
		query:       q,
		body:        body.Bytes(),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) ValuesList(ctx context.Context, options string) (io.ReadCloser, error) {
	q := url.Values{}
	if options != "" {
		q.Set(wire.ParamOptions, options)
	}
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: valuesPath, query: q})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) OptionsList(ctx context.Context, tx *Transaction) (io.ReadCloser, error) {
	q := url.Values{}
	if txid := tx.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: queryOptionsPath, query: q})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func criteriaOrEmpty(c *wire.Criteria) *wire.Criteria {
	if c == nil {
		return &wire.Criteria{}
	}
	return c
}
