package handle

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/docdb/wire"
)

// ContentParseError reports bytes that do not conform to the handle's format.
// The handle's previous value is left unchanged.
type ContentParseError struct {
	Handle string
	Format wire.Format
	Err    error
}

func (e *ContentParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %s content: %v", e.Handle, e.Format, e.Err)
}

func (e *ContentParseError) Unwrap() error {
	return e.Err
}

// ContentStateError reports an operation that needs content invoked on a
// handle that holds none.
type ContentStateError struct {
	Handle    string
	Operation string
}

func (e *ContentStateError) Error() string {
	return fmt.Sprintf("%s: no content to %s", e.Handle, e.Operation)
}

// UnsupportedFormatError reports an attempt to configure a handle with a
// format it cannot carry.
type UnsupportedFormatError struct {
	Handle  string
	Format  wire.Format
	Allowed []wire.Format
}

func (e *UnsupportedFormatError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, f := range e.Allowed {
		allowed = append(allowed, f.String())
	}
	return fmt.Sprintf("%s supports the %s format only, not %s",
		e.Handle, strings.Join(allowed, ", "), e.Format)
}

// CapabilityError reports a handle passed to an operation it cannot serve
type CapabilityError struct {
	Handle    string
	Operation string
	Missing   Capabilities
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s cannot be used to %s: missing %s capability", e.Handle, e.Operation, e.Missing)
}
