package handle

import (
	"io"

	"github.com/deepnoodle-ai/docdb/wire"
)

var (
	_ ReadHandle  = &MetadataHandle{}
	_ WriteHandle = &MetadataHandle{}
)

// MetadataHandle holds document metadata: collections, permissions,
// properties and quality.
type MetadataHandle struct {
	base
	content *wire.Metadata
	decoder JSONDecoder
	encoder JSONEncoder
}

func NewMetadataHandle(content ...*wire.Metadata) *MetadataHandle {
	h := &MetadataHandle{
		base: newBase("metadata handle", Readable|Writable|MetadataContent, FormatJSON),
	}
	if len(content) > 0 {
		h.content = content[0]
	}
	return h
}

// Get returns the held metadata. It is nil until something is received or
// set.
func (h *MetadataHandle) Get() *wire.Metadata {
	return h.content
}

func (h *MetadataHandle) Set(m *wire.Metadata) {
	h.content = m
}

func (h *MetadataHandle) With(m *wire.Metadata) *MetadataHandle {
	h.content = m
	return h
}

// Metadata returns the held metadata, creating an empty value if needed so
// callers can populate it in place.
func (h *MetadataHandle) Metadata() *wire.Metadata {
	if h.content == nil {
		h.content = wire.NewMetadata()
	}
	return h.content
}

func (h *MetadataHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	m := wire.NewMetadata()
	if err := h.decoder.Decode(br, m); err != nil {
		return &ContentParseError{Handle: h.name, Format: FormatJSON, Err: err}
	}
	h.content = m
	return nil
}

func (h *MetadataHandle) Send() (io.WriterTo, error) {
	if h.content == nil {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *MetadataHandle) WriteTo(w io.Writer) (int64, error) {
	if h.content == nil {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h.encoder.Encode(w, h.content)
}
