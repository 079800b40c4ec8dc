package handle

import (
	"errors"
	"io"

	"github.com/beevik/etree"
)

var (
	_ ReadHandle  = &XMLHandle{}
	_ WriteHandle = &XMLHandle{}
)

// ErrNoRootElement is wrapped by parse errors for XML input without a root
// element.
var ErrNoRootElement = errors.New("xml document has no root element")

// XMLBuilder parses XML streams into etree documents
type XMLBuilder struct {
	Settings etree.ReadSettings
}

// NewXMLBuilder returns a strict, non-validating builder
func NewXMLBuilder() *XMLBuilder {
	return &XMLBuilder{}
}

func (b *XMLBuilder) Build(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = b.Settings
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, ErrNoRootElement
	}
	return doc, nil
}

// XMLOutputter serializes etree documents. Indentation and settings are
// applied to a copy; the held document is never modified.
type XMLOutputter struct {
	Settings etree.WriteSettings
	Indent   int
}

func NewXMLOutputter() *XMLOutputter {
	return &XMLOutputter{}
}

func (o *XMLOutputter) Output(doc *etree.Document, w io.Writer) (int64, error) {
	if doc == nil {
		return 0, errors.New("no xml document to output")
	}
	out := doc
	if o.Indent > 0 || doc.WriteSettings != o.Settings {
		out = doc.Copy()
		out.WriteSettings = o.Settings
		if o.Indent > 0 {
			out.Indent(o.Indent)
		}
	}
	return out.WriteTo(w)
}

// XMLHandle represents XML content as an etree document
type XMLHandle struct {
	base
	content   *etree.Document
	builder   *XMLBuilder
	outputter *XMLOutputter
}

func NewXMLHandle(content ...*etree.Document) *XMLHandle {
	h := &XMLHandle{
		base: newBase("xml handle", Readable|Writable|XMLContent|Structured, FormatXML),
	}
	if len(content) > 0 {
		h.Set(content[0])
	}
	return h
}

// Builder returns the parser, creating the default one on first use
func (h *XMLHandle) Builder() *XMLBuilder {
	if h.builder == nil {
		h.builder = NewXMLBuilder()
	}
	return h.builder
}

// SetBuilder replaces the parser. Content already received is unaffected.
func (h *XMLHandle) SetBuilder(b *XMLBuilder) {
	h.builder = b
}

// Outputter returns the serializer, creating the default one on first use
func (h *XMLHandle) Outputter() *XMLOutputter {
	if h.outputter == nil {
		h.outputter = NewXMLOutputter()
	}
	return h.outputter
}

func (h *XMLHandle) SetOutputter(o *XMLOutputter) {
	h.outputter = o
}

func (h *XMLHandle) Get() *etree.Document {
	return h.content
}

func (h *XMLHandle) Set(content *etree.Document) {
	h.content = content
}

func (h *XMLHandle) With(content *etree.Document) *XMLHandle {
	h.Set(content)
	return h
}

func (h *XMLHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	doc, err := h.Builder().Build(br)
	if err != nil {
		return &ContentParseError{Handle: h.name, Format: FormatXML, Err: err}
	}
	h.content = doc
	return nil
}

func (h *XMLHandle) Send() (io.WriterTo, error) {
	if h.content == nil {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *XMLHandle) WriteTo(w io.Writer) (int64, error) {
	if h.content == nil {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h.Outputter().Output(h.content, w)
}
