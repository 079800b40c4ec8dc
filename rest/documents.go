package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/deepnoodle-ai/docdb/wire"
)

const documentsPath = "/v1/documents"

func (c *Client) Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
	q := url.Values{}
	q.Set(wire.ParamURI, req.URI)
	for _, category := range req.Categories {
		q.Add(wire.ParamCategory, string(category))
	}
	if txid := req.Transaction.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	if req.Format != wire.FormatUnknown {
		q.Set(wire.ParamFormat, req.Format.String())
	}
	header := http.Header{}
	if req.WantsContent() {
		if rng := RangeHeader(req.Start, req.Length); rng != "" {
			header.Set("Range", rng)
		}
	}

	resp, err := c.do(ctx, &request{method: http.MethodGet, path: documentsPath, query: q, header: header})
	if err != nil {
		return nil, err
	}

	out := &ReadResponse{Descriptor: wire.DescriptorFromHeaders(req.URI, resp.Header)}
	mediaType, params, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == wire.MultipartMixed:
		if err := readParts(resp.Body, params["boundary"], out); err != nil {
			resp.Body.Close()
			return nil, &TransportError{Op: "read " + req.URI, Err: err}
		}
	case !req.WantsContent():
		out.Metadata = resp.Body
	default:
		out.Content = resp.Body
	}
	return out, nil
}

// readParts splits a multipart/mixed body. The metadata part is buffered; the
// content part is left streaming and owns body.
func readParts(body io.ReadCloser, boundary string, out *ReadResponse) error {
	if boundary == "" {
		return errors.New("multipart response without boundary")
	}
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			body.Close()
			return nil
		}
		if err != nil {
			return err
		}
		switch partCategory(part.Header) {
		case wire.CategoryMetadata:
			data, err := io.ReadAll(part)
			if err != nil {
				return err
			}
			out.Metadata = io.NopCloser(bytes.NewReader(data))
		case wire.CategoryContent:
			out.Content = &partReadCloser{Reader: part, body: body}
			return nil
		}
	}
}

type partReadCloser struct {
	io.Reader
	body io.Closer
}

func (p *partReadCloser) Close() error {
	return p.body.Close()
}

func partCategory(h textproto.MIMEHeader) wire.Category {
	_, params, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return wire.Category(params["category"])
}

func (c *Client) Write(ctx context.Context, req *WriteRequest) error {
	if req.Content == nil && req.Metadata == nil {
		return fmt.Errorf("write %s: nothing to write", req.URI)
	}
	body, contentType, err := encodeWriteBody(req)
	if err != nil {
		return fmt.Errorf("write %s: %w", req.URI, err)
	}

	q := url.Values{}
	q.Set(wire.ParamURI, req.URI)
	categories := req.Categories
	if len(categories) == 0 {
		if req.Content != nil {
			categories = append(categories, wire.CategoryContent)
		}
		if req.Metadata != nil {
			categories = append(categories, wire.CategoryMetadata)
		}
	}
	for _, category := range categories {
		q.Add(wire.ParamCategory, string(category))
	}
	if txid := req.Transaction.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	if req.Format != wire.FormatUnknown {
		q.Set(wire.ParamFormat, req.Format.String())
	}
	if req.Extract != "" {
		q.Set(wire.ParamExtract, req.Extract)
	}

	resp, err := c.do(ctx, &request{
		method:      http.MethodPut,
		path:        documentsPath,
		query:       q,
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// encodeWriteBody buffers the request body so it can be resent on retry
func encodeWriteBody(req *WriteRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	switch {
	case req.Metadata == nil:
		if _, err := req.Content.WriteTo(&buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentMimeType(req), nil
	case req.Content == nil:
		if _, err := req.Metadata.WriteTo(&buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/json", nil
	}

	mw := multipart.NewWriter(&buf)
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"application/json"},
		"Content-Disposition": {`inline; category=metadata`},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := req.Metadata.WriteTo(metaPart); err != nil {
		return nil, "", err
	}
	contentPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {contentMimeType(req)},
		"Content-Disposition": {`attachment; category=content`},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := req.Content.WriteTo(contentPart); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), wire.MultipartMixed + "; boundary=" + mw.Boundary(), nil
}

func contentMimeType(req *WriteRequest) string {
	if req.MimeType != "" {
		return req.MimeType
	}
	if req.Format != wire.FormatUnknown {
		return req.Format.DefaultMimeType()
	}
	return wire.MimeTypeFromPath(req.URI)
}

func (c *Client) Delete(ctx context.Context, uri string, tx *Transaction) error {
	q := url.Values{}
	q.Set(wire.ParamURI, uri)
	if txid := tx.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{method: http.MethodDelete, path: documentsPath, query: q})
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

func (c *Client) Exists(ctx context.Context, uri string, tx *Transaction) (*wire.Descriptor, error) {
	q := url.Values{}
	q.Set(wire.ParamURI, uri)
	if txid := tx.ID(); txid != "" {
		q.Set(wire.ParamTxID, txid)
	}
	resp, err := c.do(ctx, &request{method: http.MethodHead, path: documentsPath, query: q})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	discard(resp)
	d := wire.DescriptorFromHeaders(uri, resp.Header)
	if d == nil {
		d = &wire.Descriptor{URI: uri, ByteLength: resp.ContentLength}
	}
	return d, nil
}
