package handle

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// YAMLDecoder parses a YAML stream
type YAMLDecoder struct {
	Strict bool
}

func NewYAMLDecoder() *YAMLDecoder {
	return &YAMLDecoder{}
}

func (d *YAMLDecoder) Decode(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var opts []yaml.DecodeOption
	if d.Strict {
		opts = append(opts, yaml.Strict())
	}
	return yaml.UnmarshalWithOptions(data, v, opts...)
}

// YAMLEncoder serializes a value as YAML
type YAMLEncoder struct {
	Indent int
}

func NewYAMLEncoder() *YAMLEncoder {
	return &YAMLEncoder{Indent: 2}
}

func (e *YAMLEncoder) Encode(w io.Writer, v any) (int64, error) {
	var opts []yaml.EncodeOption
	if e.Indent > 0 {
		opts = append(opts, yaml.Indent(e.Indent))
	}
	data, err := yaml.MarshalWithOptions(v, opts...)
	if err != nil {
		return 0, fmt.Errorf("marshal yaml: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

var (
	_ ReadHandle  = &YAMLHandle[any]{}
	_ WriteHandle = &YAMLHandle[any]{}
)

// YAMLHandle stores a Go value as a YAML text document
type YAMLHandle[T any] struct {
	base
	content T
	present bool
	decoder *YAMLDecoder
	encoder *YAMLEncoder
}

func NewYAMLHandle[T any](content ...T) *YAMLHandle[T] {
	h := &YAMLHandle[T]{
		base: newBase("yaml handle", Readable|Writable|TextContent|Structured, FormatText),
	}
	h.mimeType = "application/yaml"
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

func (h *YAMLHandle[T]) Decoder() *YAMLDecoder {
	if h.decoder == nil {
		h.decoder = NewYAMLDecoder()
	}
	return h.decoder
}

func (h *YAMLHandle[T]) SetDecoder(d *YAMLDecoder) {
	h.decoder = d
}

func (h *YAMLHandle[T]) Encoder() *YAMLEncoder {
	if h.encoder == nil {
		h.encoder = NewYAMLEncoder()
	}
	return h.encoder
}

func (h *YAMLHandle[T]) SetEncoder(e *YAMLEncoder) {
	h.encoder = e
}

func (h *YAMLHandle[T]) Get() T {
	return h.content
}

func (h *YAMLHandle[T]) HasContent() bool {
	return h.present
}

func (h *YAMLHandle[T]) Set(content T) {
	h.content = content
	h.present = true
}

func (h *YAMLHandle[T]) With(content T) *YAMLHandle[T] {
	h.Set(content)
	return h
}

func (h *YAMLHandle[T]) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	var v T
	if err := h.Decoder().Decode(br, &v); err != nil {
		return &ContentParseError{Handle: h.name, Format: FormatText, Err: err}
	}
	h.Set(v)
	return nil
}

func (h *YAMLHandle[T]) Send() (io.WriterTo, error) {
	if !h.present {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *YAMLHandle[T]) WriteTo(w io.Writer) (int64, error) {
	if !h.present {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h.Encoder().Encode(w, h.content)
}
