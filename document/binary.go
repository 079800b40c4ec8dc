package document

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/wire"
)

// BinaryManager is a Manager for binary content that can also read byte
// ranges.
type BinaryManager struct {
	*Manager
}

func NewBinaryManager(services rest.Services, opts ...ManagerOption) *BinaryManager {
	m := newManager(services, wire.FormatBinary, opts)
	m.extractOnWrite = true
	return &BinaryManager{Manager: m}
}

// ReadRange reads length bytes starting at offset start into h and returns
// h. A zero length reads to the end of the document; zero for both reads the
// whole document. A range beyond the end of the document fails with an error
// matching rest.ErrRangeNotSatisfiable.
func (m *BinaryManager) ReadRange(ctx context.Context, uri string, h handle.ReadHandle, start, length int64, opts ...Option) (handle.ReadHandle, error) {
	if start < 0 || length < 0 {
		return nil, fmt.Errorf("invalid range: start %d, length %d", start, length)
	}
	if h == nil {
		return nil, handle.Require(nil, "read range", handle.Readable|handle.BinaryContent)
	}
	return m.read(ctx, uri, h, start, length, applyOptions(opts))
}
