package handle

import (
	"io"
	"reflect"
)

var (
	_ ReadHandle  = &ReaderHandle{}
	_ WriteHandle = &ReaderHandle{}
	_ StreamOwner = &ReaderHandle{}
)

// ReaderHandle passes content through as a stream without buffering it.
//
// On read, the handle takes ownership of the received stream: the caller
// reads it through Get and must Close it. On write, the stream is consumed
// once; sending the same handle twice writes nothing the second time.
type ReaderHandle struct {
	base
	content io.ReadCloser
}

// NewReaderHandle returns a stream handle, optionally holding a stream. A
// plain io.Reader is wrapped with io.NopCloser.
func NewReaderHandle(content ...io.Reader) *ReaderHandle {
	h := &ReaderHandle{
		base: newBase("reader handle", Readable|Writable|AnyContent, FormatUnknown,
			FormatUnknown, FormatBinary, FormatText, FormatXML, FormatJSON),
	}
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

// Get returns the held stream, or nil
func (h *ReaderHandle) Get() io.ReadCloser {
	return h.content
}

func (h *ReaderHandle) Set(content io.Reader) {
	if content == nil {
		h.content = nil
		return
	}
	if rc, ok := content.(io.ReadCloser); ok {
		h.content = rc
		return
	}
	h.content = io.NopCloser(content)
}

func (h *ReaderHandle) With(content io.Reader) *ReaderHandle {
	h.Set(content)
	return h
}

func (h *ReaderHandle) OwnsStream() bool {
	return true
}

func (h *ReaderHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		if err == nil {
			closeStream(r)
		}
		return err
	}
	h.content = &bufferedReadCloser{Reader: br, source: r}
	return nil
}

func (h *ReaderHandle) Send() (io.WriterTo, error) {
	if h.content == nil {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

// WriteTo copies the stream to w and closes it
func (h *ReaderHandle) WriteTo(w io.Writer) (int64, error) {
	if h.content == nil {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	n, err := io.Copy(w, h.content)
	if cerr := h.content.Close(); err == nil {
		err = cerr
	}
	return n, err
}

type bufferedReadCloser struct {
	io.Reader
	source io.Reader
}

func (b *bufferedReadCloser) Close() error {
	return closeStream(b.source)
}

func closeStream(r io.Reader) error {
	if r == nil {
		return nil
	}
	if v := reflect.ValueOf(r); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
