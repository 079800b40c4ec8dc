package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONDecoder parses a single JSON value from a stream
type JSONDecoder struct {
	UseNumber             bool
	DisallowUnknownFields bool
}

func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

// Decode reads exactly one JSON value into v. Trailing data is an error.
func (d *JSONDecoder) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if d.UseNumber {
		dec.UseNumber()
	}
	if d.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

// JSONEncoder serializes a value as JSON
type JSONEncoder struct {
	Indent     string
	EscapeHTML bool
}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

func (e *JSONEncoder) Encode(w io.Writer, v any) (int64, error) {
	cw := &countingWriter{w: w}
	enc := json.NewEncoder(cw)
	enc.SetEscapeHTML(e.EscapeHTML)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}
	err := enc.Encode(v)
	return cw.n, err
}

var (
	_ ReadHandle  = &JSONHandle[any]{}
	_ WriteHandle = &JSONHandle[any]{}
)

// JSONHandle represents JSON content as a Go value of type T. Use
// JSONHandle[any] for arbitrary documents or a struct type for typed access.
type JSONHandle[T any] struct {
	base
	content T
	present bool
	decoder *JSONDecoder
	encoder *JSONEncoder
}

func NewJSONHandle[T any](content ...T) *JSONHandle[T] {
	h := &JSONHandle[T]{
		base: newBase("json handle", Readable|Writable|JSONContent|Structured, FormatJSON),
	}
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

// Decoder returns the parser, creating the default one on first use
func (h *JSONHandle[T]) Decoder() *JSONDecoder {
	if h.decoder == nil {
		h.decoder = NewJSONDecoder()
	}
	return h.decoder
}

func (h *JSONHandle[T]) SetDecoder(d *JSONDecoder) {
	h.decoder = d
}

// Encoder returns the serializer, creating the default one on first use
func (h *JSONHandle[T]) Encoder() *JSONEncoder {
	if h.encoder == nil {
		h.encoder = NewJSONEncoder()
	}
	return h.encoder
}

func (h *JSONHandle[T]) SetEncoder(e *JSONEncoder) {
	h.encoder = e
}

// Get returns the held value, or the zero value of T
func (h *JSONHandle[T]) Get() T {
	return h.content
}

func (h *JSONHandle[T]) HasContent() bool {
	return h.present
}

func (h *JSONHandle[T]) Set(content T) {
	h.content = content
	h.present = true
}

func (h *JSONHandle[T]) With(content T) *JSONHandle[T] {
	h.Set(content)
	return h
}

func (h *JSONHandle[T]) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	var v T
	if err := h.Decoder().Decode(br, &v); err != nil {
		return &ContentParseError{Handle: h.name, Format: FormatJSON, Err: err}
	}
	h.Set(v)
	return nil
}

func (h *JSONHandle[T]) Send() (io.WriterTo, error) {
	if !h.present {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *JSONHandle[T]) WriteTo(w io.Writer) (int64, error) {
	if !h.present {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h.Encoder().Encode(w, h.content)
}
