package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/deepnoodle-ai/docdb/handle"
	"github.com/deepnoodle-ai/docdb/rest"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/assert"
	"go.uber.org/mock/gomock"
)

func stream(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestReadRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)

	services.EXPECT().
		Read(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
			assert.Equal(t, "doc1", req.URI)
			assert.Equal(t, int64(10), req.Start)
			assert.Equal(t, int64(5), req.Length)
			assert.Equal(t, wire.FormatBinary, req.Format)
			assert.Equal(t, []wire.Category{wire.CategoryContent}, req.Categories)
			return &rest.ReadResponse{Content: io.NopCloser(bytes.NewReader([]byte{0, 1, 2, 3, 4}))}, nil
		}).
		Times(1)

	mgr := NewBinaryManager(services)
	h := handle.NewBytesHandle()
	got, err := mgr.ReadRange(context.Background(), "doc1", h, 10, 5)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, h.Get())
	assert.True(t, got == handle.ReadHandle(h))
	assert.Equal(t, wire.FormatBinary, h.Format())
}

func TestReadRangeValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mgr := NewBinaryManager(rest.NewMockServices(ctrl))

	_, err := mgr.ReadRange(context.Background(), "doc1", handle.NewBytesHandle(), -1, 5)
	assert.Error(t, err)
	_, err = mgr.ReadRange(context.Background(), "doc1", nil, 0, 5)
	var capErr *handle.CapabilityError
	assert.True(t, errors.As(err, &capErr))
}

func TestTransactionScopedRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	tx := rest.NewTransaction("tx-1", "import", time.Time{}, services)

	// any second, unscoped Read would fail the test as an unexpected call
	services.EXPECT().
		Read(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
			assert.True(t, req.Transaction == tx)
			return &rest.ReadResponse{Content: stream(`{"draft":true}`)}, nil
		}).
		Times(1)

	mgr := NewJSONManager(services)
	h := handle.NewJSONHandle[map[string]bool]()
	_, err := mgr.Read(context.Background(), "doc1", h, WithTransaction(tx))
	assert.NoError(t, err)
	assert.Equal(t, map[string]bool{"draft": true}, h.Get())
}

func TestTransportErrorsPassThrough(t *testing.T) {
	sentinels := []error{rest.ErrNotFound, rest.ErrRangeNotSatisfiable, rest.ErrTransport}
	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			services := rest.NewMockServices(ctrl)
			transportErr := fmt.Errorf("GET /v1/documents: %w", sentinel)
			services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(nil, transportErr)

			prior := []byte("prior")
			h := handle.NewBytesHandle(prior)
			_, err := NewBinaryManager(services).ReadRange(context.Background(), "doc1", h, 100, 10)
			assert.True(t, errors.Is(err, sentinel))
			assert.Equal(t, transportErr, err)
			for _, other := range sentinels {
				if other != sentinel {
					assert.False(t, errors.Is(err, other))
				}
			}
			assert.Equal(t, prior, h.Get())
		})
	}
}

func TestWriteWithoutContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	// no expectations: any transport call fails the test

	err := NewXMLManager(services).Write(context.Background(), "a.xml", handle.NewXMLHandle())
	var stateErr *handle.ContentStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestCapabilityChecks(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	ctx := context.Background()

	t.Run("text handle on binary manager", func(t *testing.T) {
		_, err := NewBinaryManager(services).Read(ctx, "a.bin", handle.NewStringHandle())
		var capErr *handle.CapabilityError
		assert.True(t, errors.As(err, &capErr))
		assert.Equal(t, handle.BinaryContent, capErr.Missing)
	})

	t.Run("read only handle on write", func(t *testing.T) {
		err := NewJSONManager(services).Write(ctx, "a.json", &readOnlyJSON{handle.NewSearchHandle()})
		var capErr *handle.CapabilityError
		assert.True(t, errors.As(err, &capErr))
	})

	t.Run("xml handle on json manager", func(t *testing.T) {
		_, err := NewJSONManager(services).Read(ctx, "a.json", handle.NewXMLHandle())
		assert.Error(t, err)
	})

	t.Run("content handle as metadata", func(t *testing.T) {
		_, err := NewTextManager(services).Read(ctx, "a.txt", handle.NewStringHandle(), WithMetadata(handle.NewStringHandle()))
		var capErr *handle.CapabilityError
		assert.True(t, errors.As(err, &capErr))
		assert.Equal(t, handle.MetadataContent, capErr.Missing)
	})

	t.Run("no handles", func(t *testing.T) {
		_, err := NewGenericManager(services).Read(ctx, "a", nil)
		assert.True(t, errors.Is(err, ErrNoHandle))
	})

	t.Run("metadata handle on generic manager", func(t *testing.T) {
		_, err := NewGenericManager(services).Read(ctx, "a", handle.NewMetadataHandle())
		var capErr *handle.CapabilityError
		assert.True(t, errors.As(err, &capErr))
	})
}

// readOnlyJSON makes a read-only handle satisfy WriteHandle so that the
// capability check, not the type system, rejects it.
type readOnlyJSON struct {
	*handle.SearchHandle
}

func (r *readOnlyJSON) Send() (io.WriterTo, error) {
	return nil, errors.New("not writable")
}

func TestReadWithMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().
		Read(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
			assert.Equal(t, []wire.Category{wire.CategoryContent, wire.CategoryCollections}, req.Categories)
			return &rest.ReadResponse{
				Content:  stream("<book/>"),
				Metadata: stream(`{"collections":["books"]}`),
			}, nil
		})

	h := handle.NewXMLHandle()
	mh := handle.NewMetadataHandle()
	_, err := NewXMLManager(services).Read(context.Background(), "b.xml", h,
		WithMetadata(mh), WithCategories(wire.CategoryCollections))
	assert.NoError(t, err)
	assert.Equal(t, "book", h.Get().Root().Tag)
	assert.Equal(t, []string{"books"}, mh.Get().Collections)
	assert.Nil(t, h.ExtractedMetadata())
}

func TestReadMetadataOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().
		Read(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
			assert.Equal(t, []wire.Category{wire.CategoryMetadata}, req.Categories)
			return &rest.ReadResponse{Metadata: stream(`{"quality":4}`)}, nil
		})

	mh := handle.NewMetadataHandle()
	got, err := NewGenericManager(services).ReadMetadata(context.Background(), "x", mh)
	assert.NoError(t, err)
	assert.True(t, got == handle.ReadHandle(mh))
	assert.Equal(t, 4, mh.Get().Quality)
}

func TestMetadataExtraction(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	mgr := NewBinaryManager(services)
	assert.Equal(t, ExtractNone, mgr.MetadataExtraction())
	ctx := context.Background()

	gomock.InOrder(
		services.EXPECT().
			Read(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
				assert.Equal(t, []wire.Category{wire.CategoryContent}, req.Categories)
				return &rest.ReadResponse{Content: stream("abc")}, nil
			}),
		services.EXPECT().
			Read(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.ReadRequest) (*rest.ReadResponse, error) {
				assert.Equal(t, []wire.Category{wire.CategoryContent, wire.CategoryProperties}, req.Categories)
				return &rest.ReadResponse{
					Content:  stream("abc"),
					Metadata: stream(`{"properties":{"content-length":"3"}}`),
				}, nil
			}),
		services.EXPECT().
			Write(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *rest.WriteRequest) error {
				assert.Equal(t, wire.ExtractProperties, req.Extract)
				assert.Equal(t, wire.FormatBinary, req.Format)
				return nil
			}),
	)

	h := handle.NewBytesHandle()
	_, err := mgr.Read(ctx, "a.bin", h)
	assert.NoError(t, err)
	assert.Nil(t, h.ExtractedMetadata())

	mgr.SetMetadataExtraction(ExtractProperties)
	_, err = mgr.Read(ctx, "a.bin", h)
	assert.NoError(t, err)
	assert.NotNil(t, h.ExtractedMetadata())
	assert.Equal(t, "3", h.ExtractedMetadata().Properties["content-length"])

	assert.NoError(t, mgr.Write(ctx, "b.bin", handle.NewBytesHandle([]byte("xyz"))))
}

func TestWriteWithMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().
		Write(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.WriteRequest) error {
			assert.Equal(t, "c.json", req.URI)
			assert.Equal(t, "tx-2", req.Transaction.ID())
			assert.Equal(t, "application/json", req.MimeType)
			assert.Equal(t, []wire.Category{wire.CategoryContent, wire.CategoryMetadata}, req.Categories)
			assert.Equal(t, "", req.Extract)

			var content, metadata bytes.Buffer
			_, err := req.Content.WriteTo(&content)
			assert.NoError(t, err)
			_, err = req.Metadata.WriteTo(&metadata)
			assert.NoError(t, err)
			assert.Equal(t, "{\"n\":1}\n", content.String())
			assert.Contains(t, metadata.String(), `"collections":["c"]`)
			return nil
		})

	meta := wire.NewMetadata()
	meta.AddCollections("c")
	tx := rest.NewTransaction("tx-2", "", time.Time{}, services)
	mgr := NewJSONManager(services, WithMetadataExtraction(ExtractAll))
	err := mgr.Write(context.Background(), "c.json", handle.NewJSONHandle[any](map[string]any{"n": 1}),
		WithMetadata(handle.NewMetadataHandle(meta)), WithTransaction(tx))
	assert.NoError(t, err)
}

func TestWriteMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	services.EXPECT().
		Write(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *rest.WriteRequest) error {
			assert.Nil(t, req.Content)
			assert.NotNil(t, req.Metadata)
			assert.Equal(t, []wire.Category{wire.CategoryQuality}, req.Categories)
			return nil
		})

	meta := wire.NewMetadata()
	meta.Quality = 9
	err := NewGenericManager(services).WriteMetadata(context.Background(), "d", handle.NewMetadataHandle(meta),
		WithCategories(wire.CategoryContent, wire.CategoryQuality))
	assert.NoError(t, err)

	err = NewGenericManager(services).WriteMetadata(context.Background(), "d", handle.NewMetadataHandle())
	var stateErr *handle.ContentStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestMalformedContentThroughManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	body := &trackingCloser{Reader: strings.NewReader("<root><unclosed>")}
	services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(&rest.ReadResponse{Content: body}, nil)

	_, err := NewXMLManager(services).Read(context.Background(), "bad.xml", handle.NewXMLHandle())
	var parseErr *handle.ContentParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.True(t, body.closed)
}

func TestStreamOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	body := &trackingCloser{Reader: strings.NewReader("streamed")}
	services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(&rest.ReadResponse{Content: body}, nil)

	h := handle.NewReaderHandle()
	_, err := NewGenericManager(services).Read(context.Background(), "s.txt", h)
	assert.NoError(t, err)
	assert.False(t, body.closed)

	data, err := io.ReadAll(h.Get())
	assert.NoError(t, err)
	assert.Equal(t, "streamed", string(data))
	assert.NoError(t, h.Get().Close())
	assert.True(t, body.closed)
}

func TestStreamClosedWhenMetadataFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	body := &trackingCloser{Reader: strings.NewReader("streamed")}
	services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(&rest.ReadResponse{
		Content:  body,
		Metadata: stream("{not json"),
	}, nil)

	h := handle.NewReaderHandle()
	_, err := NewGenericManager(services).Read(context.Background(), "s.txt", h,
		WithMetadata(handle.NewMetadataHandle()))
	assert.Error(t, err)
	assert.True(t, body.closed)
	assert.Nil(t, h.Get())
}

func TestStaleExtractedMetadataCleared(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	gomock.InOrder(
		services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(&rest.ReadResponse{
			Content:  stream("abc"),
			Metadata: stream(`{"properties":{"content-length":"3"}}`),
		}, nil),
		services.EXPECT().Read(gomock.Any(), gomock.Any()).Return(&rest.ReadResponse{
			Content: stream("abcd"),
		}, nil),
	)

	mgr := NewBinaryManager(services, WithMetadataExtraction(ExtractProperties))
	h := handle.NewBytesHandle()
	_, err := mgr.Read(context.Background(), "a.bin", h)
	assert.NoError(t, err)
	assert.NotNil(t, h.ExtractedMetadata())

	_, err = mgr.Read(context.Background(), "a.bin", h)
	assert.NoError(t, err)
	assert.Equal(t, []byte("abcd"), h.Get())
	assert.Nil(t, h.ExtractedMetadata())
}

func TestDeleteAndExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	services := rest.NewMockServices(ctrl)
	ctx := context.Background()

	services.EXPECT().Delete(gomock.Any(), "gone.txt", nil).Return(nil)
	services.EXPECT().Exists(gomock.Any(), "here.txt", nil).Return(&wire.Descriptor{URI: "here.txt", ByteLength: 4}, nil)
	services.EXPECT().Exists(gomock.Any(), "gone.txt", nil).Return(nil, nil)

	mgr := NewTextManager(services)
	assert.NoError(t, mgr.Delete(ctx, "gone.txt"))
	d, err := mgr.Exists(ctx, "here.txt")
	assert.NoError(t, err)
	assert.Equal(t, int64(4), d.ByteLength)
	d, err = mgr.Exists(ctx, "gone.txt")
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestParseMetadataExtraction(t *testing.T) {
	for name, expected := range map[string]MetadataExtraction{
		"":           ExtractNone,
		"none":       ExtractNone,
		"Properties": ExtractProperties,
		"all":        ExtractAll,
	} {
		got, err := ParseMetadataExtraction(name)
		assert.NoError(t, err)
		assert.Equal(t, expected, got)
	}
	_, err := ParseMetadataExtraction("some")
	assert.Error(t, err)
	assert.Equal(t, "properties", ExtractProperties.String())
}
