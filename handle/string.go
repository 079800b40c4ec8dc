package handle

import (
	"fmt"
	"io"
	"strings"
)

var (
	_ ReadHandle  = &StringHandle{}
	_ WriteHandle = &StringHandle{}
)

// StringHandle holds textual content (text, XML or JSON) as a string
type StringHandle struct {
	base
	content string
	present bool
}

// NewStringHandle returns a text handle, optionally holding content. Use
// SetFormat to carry XML or JSON.
func NewStringHandle(content ...string) *StringHandle {
	h := &StringHandle{
		base: newBase("string handle", Readable|Writable|TextContent|XMLContent|JSONContent, FormatText,
			FormatText, FormatXML, FormatJSON),
	}
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

// Get returns the held string, or "" if nothing has been received or set
func (h *StringHandle) Get() string {
	return h.content
}

// HasContent distinguishes an empty string that was set from no content
func (h *StringHandle) HasContent() bool {
	return h.present
}

func (h *StringHandle) Set(content string) {
	h.content = content
	h.present = true
}

func (h *StringHandle) With(content string) *StringHandle {
	h.Set(content)
	return h
}

func (h *StringHandle) Capabilities() Capabilities {
	return (h.caps &^ (TextContent | XMLContent | JSONContent)) | ContentCapability(h.format)
}

func (h *StringHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, br); err != nil {
		return fmt.Errorf("%s: read content: %w", h.name, err)
	}
	h.Set(sb.String())
	return nil
}

func (h *StringHandle) Send() (io.WriterTo, error) {
	if !h.present {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *StringHandle) WriteTo(w io.Writer) (int64, error) {
	if !h.present {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return strings.NewReader(h.content).WriteTo(w)
}
