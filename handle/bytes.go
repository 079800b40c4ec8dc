package handle

import (
	"bytes"
	"fmt"
	"io"
)

var (
	_ ReadHandle  = &BytesHandle{}
	_ WriteHandle = &BytesHandle{}
)

// BytesHandle holds content of any format as a byte slice
type BytesHandle struct {
	base
	content []byte
}

// NewBytesHandle returns a handle, optionally holding content
func NewBytesHandle(content ...[]byte) *BytesHandle {
	h := &BytesHandle{
		base: newBase("bytes handle", Readable|Writable|AnyContent, FormatUnknown,
			FormatUnknown, FormatBinary, FormatText, FormatXML, FormatJSON),
	}
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

// Get returns the held bytes, or nil if nothing has been received or set
func (h *BytesHandle) Get() []byte {
	return h.content
}

func (h *BytesHandle) Set(content []byte) {
	h.content = content
}

func (h *BytesHandle) With(content []byte) *BytesHandle {
	h.Set(content)
	return h
}

func (h *BytesHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return fmt.Errorf("%s: read content: %w", h.name, err)
	}
	h.content = data
	return nil
}

func (h *BytesHandle) Send() (io.WriterTo, error) {
	if h.content == nil {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *BytesHandle) WriteTo(w io.Writer) (int64, error) {
	if h.content == nil {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return bytes.NewReader(h.content).WriteTo(w)
}
