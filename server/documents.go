package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/store"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/gin-gonic/gin"
)

// parseCategories reads the category parameters of a request. Values may be
// repeated or comma separated. The default is content only.
func parseCategories(values []string) ([]wire.Category, error) {
	var out []wire.Category
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			c, err := wire.ParseCategory(name)
			if err != nil {
				return nil, badRequest("%v", err)
			}
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	if len(out) == 0 {
		return []wire.Category{wire.CategoryContent}, nil
	}
	return out, nil
}

func splitCategories(categories []wire.Category) (content bool, metadata []wire.Category) {
	for _, c := range categories {
		if c == wire.CategoryContent {
			content = true
		} else {
			metadata = append(metadata, c)
		}
	}
	return content, metadata
}

func requireURI(ctx *gin.Context) (string, error) {
	uri := ctx.Query(wire.ParamURI)
	if err := store.ValidateURI(uri); err != nil {
		return "", &requestError{err: err}
	}
	return uri, nil
}

// byteRange resolves a Range header against a document of the given size.
// ok is false when the whole document is wanted.
func byteRange(header string, size int64) (first, last int64, ok bool, err error) {
	if header == "" {
		return 0, 0, false, nil
	}
	first, last, err = rest.ParseRangeHeader(header)
	if err != nil {
		return 0, 0, false, badRequest("%v", err)
	}
	if last < 0 {
		last = size - 1
	}
	if first >= size || last >= size {
		return 0, 0, false, fmt.Errorf("%w: %s of %d bytes", errRangeNotSatisfiable, header, size)
	}
	return first, last, true, nil
}

func (s *Server) getDocument(ctx *gin.Context) {
	uri, err := requireURI(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	categories, err := parseCategories(ctx.QueryArray(wire.ParamCategory))
	if err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	rec, err := v.Get(ctx, uri)
	if err != nil {
		fail(ctx, err)
		return
	}

	wantsContent, metaCategories := splitCategories(categories)
	content := rec.Content
	status := http.StatusOK
	if wantsContent {
		size := int64(len(rec.Content))
		first, last, ranged, err := byteRange(ctx.GetHeader("Range"), size)
		if errors.Is(err, errRangeNotSatisfiable) {
			ctx.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		}
		if err != nil {
			fail(ctx, err)
			return
		}
		if ranged {
			content = rec.Content[first : last+1]
			status = http.StatusPartialContent
			ctx.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", first, last, size))
		}
	}
	wire.SetDescriptorHeaders(ctx.Writer.Header(), rec.Descriptor())

	switch {
	case !wantsContent:
		ctx.JSON(http.StatusOK, rec.Metadata.Select(metaCategories))
	case len(metaCategories) == 0:
		ctx.Data(status, mimeType(rec), content)
	default:
		body, contentType, err := encodeParts(rec.Metadata.Select(metaCategories), mimeType(rec), content)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.Data(status, contentType, body)
	}
}

func mimeType(rec *store.Record) string {
	if rec.MimeType != "" {
		return rec.MimeType
	}
	return rec.Format.DefaultMimeType()
}

// encodeParts writes a multipart/mixed body with the metadata part first
func encodeParts(metadata *wire.Metadata, contentType string, content []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"application/json"},
		"Content-Disposition": {`inline; category=metadata`},
	})
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return nil, "", err
	}
	contentPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {contentType},
		"Content-Disposition": {`attachment; category=content`},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := contentPart.Write(content); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), wire.MultipartMixed + "; boundary=" + mw.Boundary(), nil
}

func (s *Server) headDocument(ctx *gin.Context) {
	uri, err := requireURI(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	rec, err := v.Get(ctx, uri)
	if err != nil {
		fail(ctx, err)
		return
	}
	wire.SetDescriptorHeaders(ctx.Writer.Header(), rec.Descriptor())
	ctx.Header("Content-Type", mimeType(rec))
	ctx.Header("Content-Length", strconv.Itoa(len(rec.Content)))
	ctx.Status(http.StatusOK)
}

// writeBody is the decoded body of a PUT
type writeBody struct {
	content     []byte
	hasContent  bool
	contentType string
	metadata    *wire.Metadata
}

func decodeWriteBody(ctx *gin.Context, wantsContent bool) (*writeBody, error) {
	data, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	out := &writeBody{}
	contentType := ctx.GetHeader("Content-Type")
	mediaType, params, _ := mime.ParseMediaType(contentType)

	switch {
	case mediaType == wire.MultipartMixed:
		mr := multipart.NewReader(bytes.NewReader(data), params["boundary"])
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, badRequest("invalid multipart body: %v", err)
			}
			partData, err := io.ReadAll(part)
			if err != nil {
				return nil, badRequest("invalid multipart body: %v", err)
			}
			_, dparams, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
			switch wire.Category(dparams["category"]) {
			case wire.CategoryMetadata:
				if out.metadata, err = decodeMetadata(partData); err != nil {
					return nil, err
				}
			case wire.CategoryContent:
				out.content = partData
				out.hasContent = true
				out.contentType = part.Header.Get("Content-Type")
			}
		}
	case wantsContent:
		out.content = data
		out.hasContent = true
		out.contentType = contentType
	default:
		if out.metadata, err = decodeMetadata(data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeMetadata(data []byte) (*wire.Metadata, error) {
	m := wire.NewMetadata()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, badRequest("invalid metadata: %v", err)
	}
	return m, nil
}

func (s *Server) putDocument(ctx *gin.Context) {
	uri, err := requireURI(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	categories, err := parseCategories(ctx.QueryArray(wire.ParamCategory))
	if err != nil {
		fail(ctx, err)
		return
	}
	format, err := wire.ParseFormat(ctx.Query(wire.ParamFormat))
	if err != nil {
		fail(ctx, badRequest("%v", err))
		return
	}
	extract := ctx.Query(wire.ParamExtract)
	if extract != "" && extract != wire.ExtractProperties {
		fail(ctx, badRequest("unknown extract option %q", extract))
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	wantsContent, metaCategories := splitCategories(categories)
	body, err := decodeWriteBody(ctx, wantsContent)
	if err != nil {
		fail(ctx, err)
		return
	}
	if wantsContent && !body.hasContent {
		fail(ctx, badRequest("content category requested but no content part sent"))
		return
	}
	if len(metaCategories) > 0 && body.metadata == nil {
		fail(ctx, badRequest("metadata categories requested but no metadata sent"))
		return
	}

	existing, err := v.Get(ctx, uri)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		fail(ctx, err)
		return
	}
	if existing == nil && !body.hasContent {
		fail(ctx, err)
		return
	}

	rec := existing
	if rec == nil {
		rec = &store.Record{URI: uri}
	}
	if rec.Metadata == nil {
		rec.Metadata = wire.NewMetadata()
	}
	if body.hasContent {
		rec.Content = body.content
		rec.MimeType = body.contentType
		if rec.MimeType == "" {
			rec.MimeType = wire.MimeTypeFromPath(uri)
		}
		rec.Format = format
		if rec.Format == wire.FormatUnknown {
			rec.Format = wire.FormatFromMimeType(rec.MimeType)
		}
		if extract == wire.ExtractProperties {
			extractProperties(rec)
		}
	}
	if body.metadata != nil {
		rec.Metadata.Merge(body.metadata, metaCategories)
	}
	if err := v.Put(ctx, rec); err != nil {
		fail(ctx, err)
		return
	}
	if existing == nil {
		ctx.Status(http.StatusCreated)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// extractProperties records properties derived from the content
func extractProperties(rec *store.Record) {
	if rec.Metadata.Properties == nil {
		rec.Metadata.Properties = map[string]string{}
	}
	sum := sha256.Sum256(rec.Content)
	rec.Metadata.Properties[wire.PropertyContentLength] = strconv.Itoa(len(rec.Content))
	rec.Metadata.Properties[wire.PropertyContentType] = rec.MimeType
	rec.Metadata.Properties[wire.PropertySHA256] = hex.EncodeToString(sum[:])
}

func (s *Server) deleteDocument(ctx *gin.Context) {
	uri, err := requireURI(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	v, err := s.view(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	if err := v.Delete(ctx, uri); err != nil {
		fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
