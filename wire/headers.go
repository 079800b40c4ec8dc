package wire

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTP headers and parameters shared by the REST client and server
const (
	HeaderFormat     = "X-Docdb-Format"
	HeaderMimeType   = "X-Docdb-Mime-Type"
	HeaderByteLength = "X-Docdb-Byte-Length"
	HeaderURI        = "X-Docdb-Uri"

	ParamURI        = "uri"
	ParamCategory   = "category"
	ParamTxID       = "txid"
	ParamFormat     = "format"
	ParamExtract    = "extract"
	ParamStart      = "start"
	ParamPageLength = "pageLength"
	ParamView       = "view"
	ParamOptions    = "options"
	ParamName       = "name"
	ParamTimeLimit  = "timeLimit"
	ParamResult     = "result"

	// ExtractProperties asks the server to derive properties from content
	ExtractProperties = "properties"

	// Properties set by server side extraction
	PropertyContentLength = "content-length"
	PropertyContentType   = "content-type"
	PropertySHA256        = "sha256"

	// MultipartMixed is the media type used when content and metadata travel
	// in one request or response. The metadata part comes first.
	MultipartMixed = "multipart/mixed"
)

// SetDescriptorHeaders writes the descriptor of a document to h
func SetDescriptorHeaders(h http.Header, d *Descriptor) {
	h.Set(HeaderURI, d.URI)
	if d.Format != FormatUnknown {
		h.Set(HeaderFormat, d.Format.String())
	}
	if d.MimeType != "" {
		h.Set(HeaderMimeType, d.MimeType)
	}
	h.Set(HeaderByteLength, strconv.FormatInt(d.ByteLength, 10))
	if d.Version > 0 {
		h.Set("ETag", strconv.Quote(strconv.FormatInt(d.Version, 10)))
	}
	if !d.UpdatedAt.IsZero() {
		h.Set("Last-Modified", d.UpdatedAt.UTC().Format(http.TimeFormat))
	}
}

// DescriptorFromHeaders reads a descriptor written by SetDescriptorHeaders.
// It returns nil if h carries no descriptor.
func DescriptorFromHeaders(uri string, h http.Header) *Descriptor {
	length := h.Get(HeaderByteLength)
	if length == "" {
		return nil
	}
	d := &Descriptor{URI: uri, MimeType: h.Get(HeaderMimeType)}
	if v := h.Get(HeaderURI); v != "" {
		d.URI = v
	}
	d.ByteLength, _ = strconv.ParseInt(length, 10, 64)
	d.Format, _ = ParseFormat(h.Get(HeaderFormat))
	if etag := strings.Trim(h.Get("ETag"), `"`); etag != "" {
		d.Version, _ = strconv.ParseInt(etag, 10, 64)
	}
	if lm := h.Get("Last-Modified"); lm != "" {
		if t, err := time.Parse(http.TimeFormat, lm); err == nil {
			d.UpdatedAt = t
		}
	}
	return d
}
