package handle

import (
	"strings"

	"github.com/deepnoodle-ai/docdb/wire"
)

// Capabilities is a set of roles a handle can play in an operation
type Capabilities uint32

const (
	// Readable handles can receive content from the server
	Readable Capabilities = 1 << iota
	// Writable handles can send content to the server
	Writable
	BinaryContent
	TextContent
	XMLContent
	JSONContent
	// Structured handles hold a parsed tree rather than raw bytes or text
	Structured
	MetadataContent
	SearchResults
	ValuesResults
	TuplesResults
	ValuesListResults
	OptionsListResults
)

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{Readable, "readable"},
	{Writable, "writable"},
	{BinaryContent, "binary"},
	{TextContent, "text"},
	{XMLContent, "xml"},
	{JSONContent, "json"},
	{Structured, "structured"},
	{MetadataContent, "metadata"},
	{SearchResults, "search"},
	{ValuesResults, "values"},
	{TuplesResults, "tuples"},
	{ValuesListResults, "values-list"},
	{OptionsListResults, "options-list"},
}

// AnyContent is the set of content categories held by generic handles
const AnyContent = BinaryContent | TextContent | XMLContent | JSONContent

// Has reports whether every capability in req is present
func (c Capabilities) Has(req Capabilities) bool {
	return c&req == req
}

// Missing returns the capabilities of req that are absent from c
func (c Capabilities) Missing(req Capabilities) Capabilities {
	return req &^ c
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, cn := range capabilityNames {
		if c&cn.cap != 0 {
			names = append(names, cn.name)
		}
	}
	return strings.Join(names, "|")
}

// ContentCapability returns the content category matching a format
func ContentCapability(f wire.Format) Capabilities {
	switch f {
	case wire.FormatXML:
		return XMLContent
	case wire.FormatJSON:
		return JSONContent
	case wire.FormatText:
		return TextContent
	case wire.FormatBinary:
		return BinaryContent
	}
	return 0
}

// Require returns a *CapabilityError if h lacks any of the capabilities in
// req. A nil handle fails every requirement.
func Require(h Handle, operation string, req Capabilities) error {
	if h == nil {
		return &CapabilityError{Handle: "nil", Operation: operation, Missing: req}
	}
	if missing := h.Capabilities().Missing(req); missing != 0 {
		return &CapabilityError{Handle: h.Name(), Operation: operation, Missing: missing}
	}
	return nil
}
