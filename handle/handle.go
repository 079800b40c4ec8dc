package handle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/deepnoodle-ai/docdb/wire"
)

// Format aliases so callers rarely need to import the wire package
type Format = wire.Format

const (
	FormatUnknown = wire.FormatUnknown
	FormatXML     = wire.FormatXML
	FormatJSON    = wire.FormatJSON
	FormatText    = wire.FormatText
	FormatBinary  = wire.FormatBinary
)

// Handle is the part of the contract shared by every handle
type Handle interface {
	// Name identifies the kind of handle in errors and logs
	Name() string
	Format() Format
	// SetFormat fails with *UnsupportedFormatError if the handle cannot
	// carry the format. The current format is then left unchanged.
	SetFormat(f Format) error
	MimeType() string
	Capabilities() Capabilities
}

// ReadHandle receives content read from the server
type ReadHandle interface {
	Handle
	// Receive parses r into the handle. A nil or empty stream means there is
	// no content and leaves the handle untouched.
	Receive(r io.Reader) error
}

// WriteHandle sends content to the server
type WriteHandle interface {
	Handle
	// Send returns the writer for the held content, or a
	// *ContentStateError if there is none.
	Send() (io.WriterTo, error)
}

// StreamOwner is implemented by handles that keep the stream they receive
// open. The caller must not close the stream after Receive returns.
type StreamOwner interface {
	OwnsStream() bool
}

// MetadataCarrier is implemented by handles that can hold metadata fetched
// automatically alongside their content.
type MetadataCarrier interface {
	ExtractedMetadata() *wire.Metadata
	SetExtractedMetadata(m *wire.Metadata)
}

// base carries the format, MIME type and capability bookkeeping shared by
// all handles.
type base struct {
	name      string
	format    Format
	allowed   []Format
	mimeType  string
	caps      Capabilities
	extracted *wire.Metadata
}

func newBase(name string, caps Capabilities, format Format, allowed ...Format) base {
	if len(allowed) == 0 {
		allowed = []Format{format}
	}
	return base{name: name, format: format, allowed: allowed, caps: caps}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Format() Format {
	return b.format
}

func (b *base) SetFormat(f Format) error {
	if !slices.Contains(b.allowed, f) {
		return &UnsupportedFormatError{Handle: b.name, Format: f, Allowed: slices.Clone(b.allowed)}
	}
	if f != b.format {
		b.format = f
		// an explicit MIME type belongs to the old format
		b.mimeType = ""
	}
	return nil
}

// AllowedFormats lists the formats the handle accepts
func (b *base) AllowedFormats() []Format {
	return slices.Clone(b.allowed)
}

func (b *base) MimeType() string {
	if b.mimeType != "" {
		return b.mimeType
	}
	return b.format.DefaultMimeType()
}

func (b *base) SetMimeType(mimeType string) {
	b.mimeType = mimeType
}

func (b *base) Capabilities() Capabilities {
	caps := b.caps
	// generic handles advertise only the category of their current format
	if b.caps&AnyContent == AnyContent && b.format != FormatUnknown {
		caps = (caps &^ AnyContent) | ContentCapability(b.format)
	}
	return caps
}

func (b *base) ExtractedMetadata() *wire.Metadata {
	return b.extracted
}

func (b *base) SetExtractedMetadata(m *wire.Metadata) {
	b.extracted = m
}

// openContent returns a reader positioned at the start of r, or ok=false if
// r is nil or holds no bytes.
func openContent(r io.Reader) (br *bufio.Reader, ok bool, err error) {
	if r == nil {
		return nil, false, nil
	}
	if v := reflect.ValueOf(r); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}
	br = bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read content: %w", err)
	}
	return br, true, nil
}

// writerFunc adapts a function to io.WriterTo
type writerFunc func(w io.Writer) (int64, error)

func (f writerFunc) WriteTo(w io.Writer) (int64, error) {
	return f(w)
}

// countingWriter counts bytes written through it
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
