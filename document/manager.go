package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/slogger"
	"github.com/deepnoodle-ai/docdb/wire"
)

// ErrNoHandle is returned when a call is given neither a content handle nor
// a metadata handle.
var ErrNoHandle = errors.New("no content or metadata handle")

// Manager reads and writes documents of one content category. It is safe for
// concurrent use; the handles passed to it are not.
type Manager struct {
	services rest.Services
	format   wire.Format
	logger   slogger.Logger

	// binary managers ask the server to extract properties on write
	extractOnWrite bool

	mu         sync.Mutex
	extraction MetadataExtraction
}

// WithLogger sets the logger used for debug output
func WithLogger(logger slogger.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func newManager(services rest.Services, format wire.Format, opts []ManagerOption) *Manager {
	m := &Manager{services: services, format: format, logger: slogger.DefaultLogger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewGenericManager returns a manager for content of any format. Handles
// keep whatever format they are configured with.
func NewGenericManager(services rest.Services, opts ...ManagerOption) *Manager {
	return newManager(services, wire.FormatUnknown, opts)
}

func NewXMLManager(services rest.Services, opts ...ManagerOption) *Manager {
	return newManager(services, wire.FormatXML, opts)
}

func NewJSONManager(services rest.Services, opts ...ManagerOption) *Manager {
	return newManager(services, wire.FormatJSON, opts)
}

func NewTextManager(services rest.Services, opts ...ManagerOption) *Manager {
	return newManager(services, wire.FormatText, opts)
}

// Format returns the content format of the manager, or wire.FormatUnknown
// for a generic manager.
func (m *Manager) Format() wire.Format {
	return m.format
}

// MetadataExtraction returns the current policy
func (m *Manager) MetadataExtraction() MetadataExtraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extraction
}

// SetMetadataExtraction changes the policy. Calls already in progress keep
// the policy they started with.
func (m *Manager) SetMetadataExtraction(e MetadataExtraction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extraction = e
}

// Read fetches a document into h and returns h. Metadata is read into the
// handle given with WithMetadata, if any. h may be nil when only metadata is
// wanted.
func (m *Manager) Read(ctx context.Context, uri string, h handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	return m.read(ctx, uri, h, 0, 0, applyOptions(opts))
}

func (m *Manager) read(ctx context.Context, uri string, h handle.ReadHandle, start, length int64, o *callOptions) (handle.ReadHandle, error) {
	policy := m.MetadataExtraction()

	var metadata handle.ReadHandle
	if o.metadata != nil {
		mh, ok := o.metadata.(handle.ReadHandle)
		if !ok {
			return nil, &handle.CapabilityError{Handle: o.metadata.Name(), Operation: "read metadata", Missing: handle.Readable}
		}
		if err := handle.Require(mh, "read metadata", handle.Readable|handle.MetadataContent); err != nil {
			return nil, err
		}
		metadata = mh
	}
	if h == nil && metadata == nil {
		return nil, ErrNoHandle
	}

	req := &rest.ReadRequest{URI: uri, Transaction: o.transaction, Start: start, Length: length}
	if h != nil {
		if err := m.prepare(h, "read", handle.Readable); err != nil {
			return nil, err
		}
		req.Format = h.Format()
		req.Categories = append(req.Categories, wire.CategoryContent)
	}

	// an extraction target is only needed when nobody asked for metadata
	var carrier handle.MetadataCarrier
	switch {
	case metadata != nil:
		req.Categories = append(req.Categories, o.metadataCategories()...)
	case policy != ExtractNone:
		if c, ok := h.(handle.MetadataCarrier); ok {
			carrier = c
			carrier.SetExtractedMetadata(nil)
			req.Categories = append(req.Categories, policy.categories()...)
		}
	}

	resp, err := m.services.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	// an owning handle keeps the content stream only once Receive succeeds
	_, owned := h.(handle.StreamOwner)
	handedOff := false
	defer func() {
		if resp.Metadata != nil {
			resp.Metadata.Close()
		}
		if resp.Content != nil && !handedOff {
			resp.Content.Close()
		}
	}()

	if resp.Metadata != nil {
		switch {
		case metadata != nil:
			if err := metadata.Receive(resp.Metadata); err != nil {
				return nil, err
			}
		case carrier != nil:
			extracted := handle.NewMetadataHandle()
			if err := extracted.Receive(resp.Metadata); err != nil {
				return nil, err
			}
			carrier.SetExtractedMetadata(extracted.Get())
		}
	}
	if h == nil {
		return nil, nil
	}
	if err := h.Receive(resp.Content); err != nil {
		return nil, err
	}
	handedOff = owned
	m.logger.Debug("read document", "uri", uri, "handle", h.Name(), "txid", o.transaction.ID())
	return h, nil
}

// ReadMetadata reads only the metadata of a document into mh
func (m *Manager) ReadMetadata(ctx context.Context, uri string, mh handle.ReadHandle, opts ...Option) (handle.ReadHandle, error) {
	o := applyOptions(opts)
	o.metadata = mh
	if _, err := m.read(ctx, uri, nil, 0, 0, o); err != nil {
		return nil, err
	}
	return mh, nil
}

// Write stores the content of h, and the metadata given with WithMetadata.
// A handle without content fails with *handle.ContentStateError before
// anything is sent.
func (m *Manager) Write(ctx context.Context, uri string, h handle.WriteHandle, opts ...Option) error {
	o := applyOptions(opts)
	if err := m.prepare(h, "write", handle.Writable); err != nil {
		return err
	}
	content, err := h.Send()
	if err != nil {
		return err
	}
	req := &rest.WriteRequest{
		URI:         uri,
		Content:     content,
		Format:      h.Format(),
		MimeType:    h.MimeType(),
		Transaction: o.transaction,
		Categories:  []wire.Category{wire.CategoryContent},
	}
	if o.metadata != nil {
		metadata, err := sendMetadata(o.metadata)
		if err != nil {
			return err
		}
		req.Metadata = metadata
		req.Categories = append(req.Categories, o.metadataCategories()...)
	}
	if m.extractOnWrite && m.MetadataExtraction() != ExtractNone {
		req.Extract = wire.ExtractProperties
	}
	if err := m.services.Write(ctx, req); err != nil {
		return err
	}
	m.logger.Debug("wrote document", "uri", uri, "handle", h.Name(), "txid", o.transaction.ID())
	return nil
}

// WriteMetadata replaces the metadata categories of a document with those
// held by mh.
func (m *Manager) WriteMetadata(ctx context.Context, uri string, mh handle.WriteHandle, opts ...Option) error {
	o := applyOptions(opts)
	metadata, err := sendMetadata(mh)
	if err != nil {
		return err
	}
	return m.services.Write(ctx, &rest.WriteRequest{
		URI:         uri,
		Metadata:    metadata,
		Categories:  o.metadataCategories(),
		Transaction: o.transaction,
	})
}

func sendMetadata(h handle.Handle) (io.WriterTo, error) {
	wh, ok := h.(handle.WriteHandle)
	if !ok {
		return nil, &handle.CapabilityError{Handle: h.Name(), Operation: "write metadata", Missing: handle.Writable}
	}
	if err := handle.Require(wh, "write metadata", handle.Writable|handle.MetadataContent); err != nil {
		return nil, err
	}
	return wh.Send()
}

// Delete removes a document
func (m *Manager) Delete(ctx context.Context, uri string, opts ...Option) error {
	o := applyOptions(opts)
	if err := m.services.Delete(ctx, uri, o.transaction); err != nil {
		return err
	}
	m.logger.Debug("deleted document", "uri", uri, "txid", o.transaction.ID())
	return nil
}

// Exists returns the descriptor of a document, or nil if it does not exist
func (m *Manager) Exists(ctx context.Context, uri string, opts ...Option) (*wire.Descriptor, error) {
	o := applyOptions(opts)
	return m.services.Exists(ctx, uri, o.transaction)
}

// prepare gives a handle with no format the manager's format, then checks
// that it can carry the manager's content category.
func (m *Manager) prepare(h handle.Handle, operation string, direction handle.Capabilities) error {
	if h == nil {
		return handle.Require(nil, operation, direction)
	}
	if m.format != wire.FormatUnknown && h.Format() == wire.FormatUnknown {
		if err := h.SetFormat(m.format); err != nil {
			return err
		}
	}
	required := direction | handle.ContentCapability(m.format)
	if m.format == wire.FormatUnknown {
		// any content category will do
		if h.Capabilities()&handle.AnyContent == 0 {
			return &handle.CapabilityError{Handle: h.Name(), Operation: operation, Missing: handle.AnyContent}
		}
	}
	if err := handle.Require(h, operation, required); err != nil {
		return fmt.Errorf("%s manager: %w", m.formatName(), err)
	}
	return nil
}

func (m *Manager) formatName() string {
	if m.format == wire.FormatUnknown {
		return "generic"
	}
	return m.format.String()
}
