package handle

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/deepnoodle-ai/docdb/wire"
	"github.com/deepnoodle-ai/wonton/assert"
)

type testReadWriteHandle interface {
	ReadHandle
	WriteHandle
}

func TestRoundTrip(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("book")
	root.CreateAttr("id", "b1")
	root.CreateElement("title").SetText("Go & XML")

	meta := wire.NewMetadata()
	meta.AddCollections("books", "drafts")
	meta.SetProperty("author", "ada")
	meta.Quality = 3

	tests := []struct {
		name  string
		src   testReadWriteHandle
		dst   testReadWriteHandle
		check func(t *testing.T, src, dst testReadWriteHandle)
	}{
		{
			name: "bytes",
			src:  NewBytesHandle([]byte{0, 1, 2, 255}),
			dst:  NewBytesHandle(),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				assert.Equal(t, src.(*BytesHandle).Get(), dst.(*BytesHandle).Get())
			},
		},
		{
			name: "string",
			src:  NewStringHandle("héllo\nworld"),
			dst:  NewStringHandle(),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				assert.Equal(t, src.(*StringHandle).Get(), dst.(*StringHandle).Get())
			},
		},
		{
			name: "xml",
			src:  NewXMLHandle(doc),
			dst:  NewXMLHandle(),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				got := dst.(*XMLHandle).Get()
				assert.NotNil(t, got)
				assert.Equal(t, "book", got.Root().Tag)
				assert.Equal(t, "b1", got.Root().SelectAttrValue("id", ""))
				assert.Equal(t, "Go & XML", got.Root().SelectElement("title").Text())
			},
		},
		{
			name: "json",
			src:  NewJSONHandle[any](map[string]any{"name": "ada", "tags": []any{"a", "b"}, "n": 2.5}),
			dst:  NewJSONHandle[any](),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				assert.Equal(t, src.(*JSONHandle[any]).Get(), dst.(*JSONHandle[any]).Get())
			},
		},
		{
			name: "yaml",
			src:  NewYAMLHandle(map[string]string{"name": "ada", "lang": "go"}),
			dst:  NewYAMLHandle[map[string]string](),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				assert.Equal(t, src.(*YAMLHandle[map[string]string]).Get(), dst.(*YAMLHandle[map[string]string]).Get())
			},
		},
		{
			name: "metadata",
			src:  NewMetadataHandle(meta),
			dst:  NewMetadataHandle(),
			check: func(t *testing.T, src, dst testReadWriteHandle) {
				assert.Equal(t, src.(*MetadataHandle).Get(), dst.(*MetadataHandle).Get())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.src.Send()
			assert.NoError(t, err)
			var buf bytes.Buffer
			n, err := w.WriteTo(&buf)
			assert.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)
			assert.NoError(t, tt.dst.Receive(&buf))
			tt.check(t, tt.src, tt.dst)
		})
	}
}

func TestTypedJSONRoundTrip(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	src := NewJSONHandle(person{Name: "ada", Age: 36})
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	assert.NoError(t, err)

	dst := NewJSONHandle[person]()
	assert.False(t, dst.HasContent())
	assert.NoError(t, dst.Receive(&buf))
	assert.True(t, dst.HasContent())
	assert.Equal(t, person{Name: "ada", Age: 36}, dst.Get())
}

func TestSendWithoutContent(t *testing.T) {
	handles := []WriteHandle{
		NewBytesHandle(),
		NewStringHandle(),
		NewReaderHandle(),
		NewFileHandle(""),
		NewXMLHandle(),
		NewJSONHandle[any](),
		NewYAMLHandle[any](),
		NewMetadataHandle(),
	}
	for _, h := range handles {
		t.Run(h.Name(), func(t *testing.T) {
			w, err := h.Send()
			assert.Nil(t, w)
			var stateErr *ContentStateError
			assert.True(t, errors.As(err, &stateErr))
			assert.Equal(t, h.Name(), stateErr.Handle)
		})
	}
}

func TestWriteToWithoutContent(t *testing.T) {
	handles := []WriteHandle{
		NewBytesHandle(),
		NewStringHandle(),
		NewReaderHandle(),
		NewFileHandle(""),
		NewXMLHandle(),
		NewJSONHandle[any](),
		NewYAMLHandle[any](),
		NewMetadataHandle(),
	}
	for _, h := range handles {
		t.Run(h.Name(), func(t *testing.T) {
			w, ok := h.(io.WriterTo)
			assert.True(t, ok)
			var buf bytes.Buffer
			n, err := w.WriteTo(&buf)
			assert.Equal(t, int64(0), n)
			assert.Equal(t, 0, buf.Len())
			var stateErr *ContentStateError
			assert.True(t, errors.As(err, &stateErr))
			assert.Equal(t, h.Name(), stateErr.Handle)
			assert.Equal(t, "write", stateErr.Operation)
		})
	}
}

func TestEmptyStringIsContent(t *testing.T) {
	h := NewStringHandle("")
	assert.True(t, h.HasContent())
	w, err := h.Send()
	assert.NoError(t, err)
	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestReceiveNoContent(t *testing.T) {
	var nilBuffer *bytes.Buffer
	streams := map[string]io.Reader{
		"nil":       nil,
		"typed nil": nilBuffer,
		"empty":     strings.NewReader(""),
	}
	for name, r := range streams {
		t.Run(name, func(t *testing.T) {
			b := NewBytesHandle()
			assert.NoError(t, b.Receive(r))
			assert.Nil(t, b.Get())

			s := NewStringHandle()
			assert.NoError(t, s.Receive(r))
			assert.False(t, s.HasContent())

			x := NewXMLHandle()
			assert.NoError(t, x.Receive(r))
			assert.Nil(t, x.Get())

			j := NewJSONHandle[any]()
			assert.NoError(t, j.Receive(r))
			assert.False(t, j.HasContent())
			assert.Nil(t, j.Get())

			m := NewMetadataHandle()
			assert.NoError(t, m.Receive(r))
			assert.Nil(t, m.Get())

			rh := NewReaderHandle()
			assert.NoError(t, rh.Receive(r))
			assert.Nil(t, rh.Get())

			sh := NewSearchHandle()
			assert.NoError(t, sh.Receive(r))
			assert.Nil(t, sh.Get())
		})
	}
}

func TestReceiveNoContentKeepsPriorValue(t *testing.T) {
	h := NewStringHandle("kept")
	assert.NoError(t, h.Receive(strings.NewReader("")))
	assert.Equal(t, "kept", h.Get())
}

func TestFixedFormat(t *testing.T) {
	fixed := []Handle{
		NewXMLHandle(),
		NewJSONHandle[any](),
		NewYAMLHandle[any](),
		NewMetadataHandle(),
		NewSearchHandle(),
		NewValuesHandle(),
		NewTuplesHandle(),
		NewValuesListHandle(),
		NewOptionsListHandle(),
	}
	for _, h := range fixed {
		t.Run(h.Name(), func(t *testing.T) {
			original := h.Format()
			assert.NoError(t, h.SetFormat(original))
			for _, f := range []Format{FormatXML, FormatJSON, FormatText, FormatBinary, FormatUnknown} {
				if f == original {
					continue
				}
				err := h.SetFormat(f)
				var formatErr *UnsupportedFormatError
				assert.True(t, errors.As(err, &formatErr), "format %q", f)
				assert.Equal(t, f, formatErr.Format)
				assert.Equal(t, original, h.Format())
			}
		})
	}
}

func TestStringHandleFormats(t *testing.T) {
	h := NewStringHandle("<a/>")
	assert.Equal(t, FormatText, h.Format())
	assert.True(t, h.Capabilities().Has(TextContent))

	assert.NoError(t, h.SetFormat(FormatXML))
	assert.Equal(t, "application/xml", h.MimeType())
	assert.True(t, h.Capabilities().Has(XMLContent))
	assert.False(t, h.Capabilities().Has(TextContent))

	err := h.SetFormat(FormatBinary)
	var formatErr *UnsupportedFormatError
	assert.True(t, errors.As(err, &formatErr))
	assert.Equal(t, FormatXML, h.Format())
}

func TestSetFormatClearsMimeType(t *testing.T) {
	h := NewBytesHandle()
	assert.NoError(t, h.SetFormat(FormatBinary))
	h.SetMimeType("image/png")
	assert.Equal(t, "image/png", h.MimeType())
	assert.NoError(t, h.SetFormat(FormatBinary))
	assert.Equal(t, "image/png", h.MimeType())
	assert.NoError(t, h.SetFormat(FormatJSON))
	assert.Equal(t, "application/json", h.MimeType())
}

func TestMalformedContent(t *testing.T) {
	t.Run("truncated xml", func(t *testing.T) {
		prior := etree.NewDocument()
		prior.CreateElement("prior")
		h := NewXMLHandle(prior)

		err := h.Receive(strings.NewReader("<root><child>text</chi"))
		var parseErr *ContentParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.Equal(t, FormatXML, parseErr.Format)
		assert.NotNil(t, parseErr.Unwrap())
		assert.Equal(t, prior, h.Get())
	})

	t.Run("xml without root", func(t *testing.T) {
		h := NewXMLHandle()
		err := h.Receive(strings.NewReader("<?xml version=\"1.0\"?>"))
		assert.True(t, errors.Is(err, ErrNoRootElement))
		assert.Nil(t, h.Get())
	})

	t.Run("truncated json", func(t *testing.T) {
		h := NewJSONHandle[any](map[string]any{"prior": true})
		err := h.Receive(strings.NewReader(`{"name": "ada"`))
		var parseErr *ContentParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.Equal(t, FormatJSON, parseErr.Format)
		assert.Equal(t, map[string]any{"prior": true}, h.Get())
	})

	t.Run("json trailing data", func(t *testing.T) {
		h := NewJSONHandle[any]()
		err := h.Receive(strings.NewReader(`{"a": 1} {"b": 2}`))
		var parseErr *ContentParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.False(t, h.HasContent())
	})

	t.Run("metadata", func(t *testing.T) {
		prior := wire.NewMetadata()
		prior.Quality = 7
		h := NewMetadataHandle(prior)
		err := h.Receive(strings.NewReader(`{"quality": "high"}`))
		var parseErr *ContentParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 7, h.Get().Quality)
	})

	t.Run("yaml", func(t *testing.T) {
		h := NewYAMLHandle(map[string]int{"a": 1})
		err := h.Receive(strings.NewReader("a: [1, 2"))
		var parseErr *ContentParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.Equal(t, map[string]int{"a": 1}, h.Get())
	})
}

func TestJSONDecoderOptions(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	h := NewJSONHandle[item]()
	h.Decoder().DisallowUnknownFields = true
	err := h.Receive(strings.NewReader(`{"name": "x", "extra": 1}`))
	assert.Error(t, err)

	n := NewJSONHandle[any]()
	n.SetDecoder(&JSONDecoder{UseNumber: true})
	assert.NoError(t, n.Receive(strings.NewReader(`{"big": 12345678901234567890}`)))
	assert.Equal(t, "12345678901234567890", n.Get().(map[string]any)["big"].(json.Number).String())
}

func TestXMLOutputterLeavesDocumentUntouched(t *testing.T) {
	h := NewXMLHandle()
	assert.NoError(t, h.Receive(strings.NewReader("<a><b>1</b></a>")))
	h.Outputter().Indent = 2

	var buf bytes.Buffer
	_, err := h.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\n  <b>1</b>\n")

	compact, err := h.Get().WriteToString()
	assert.NoError(t, err)
	assert.Equal(t, "<a><b>1</b></a>", compact)
}

func TestBuilderReplacedAfterReceive(t *testing.T) {
	h := NewXMLHandle()
	assert.NoError(t, h.Receive(strings.NewReader("<a/>")))
	h.SetBuilder(&XMLBuilder{Settings: etree.ReadSettings{Permissive: true}})
	assert.Equal(t, "a", h.Get().Root().Tag)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteToPropagatesErrors(t *testing.T) {
	handles := []io.WriterTo{
		NewBytesHandle([]byte("data")),
		NewStringHandle("data"),
		NewJSONHandle[any](map[string]any{"a": 1}),
		NewYAMLHandle(map[string]int{"a": 1}),
	}
	for _, h := range handles {
		_, err := h.WriteTo(failingWriter{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	}
}

func TestReaderHandle(t *testing.T) {
	t.Run("receive takes ownership", func(t *testing.T) {
		h := NewReaderHandle()
		assert.True(t, h.OwnsStream())
		src := io.NopCloser(strings.NewReader("streamed"))
		assert.NoError(t, h.Receive(src))
		data, err := io.ReadAll(h.Get())
		assert.NoError(t, err)
		assert.Equal(t, "streamed", string(data))
		assert.NoError(t, h.Get().Close())
	})

	t.Run("write consumes the stream", func(t *testing.T) {
		h := NewReaderHandle(strings.NewReader("once"))
		var buf bytes.Buffer
		_, err := h.WriteTo(&buf)
		assert.NoError(t, err)
		assert.Equal(t, "once", buf.String())
	})
}

func TestFileHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.json")

	h := NewFileHandle(path)
	assert.Equal(t, FormatJSON, h.Format())
	assert.NoError(t, h.Receive(strings.NewReader(`{"a":1}`)))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	var buf bytes.Buffer
	_, err = h.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, buf.String())

	tmp := NewFileHandle("")
	assert.NoError(t, tmp.Receive(strings.NewReader("spill")))
	assert.NotEmpty(t, tmp.Get())
	t.Cleanup(func() { os.Remove(tmp.Get()) })
	data, err = os.ReadFile(tmp.Get())
	assert.NoError(t, err)
	assert.Equal(t, "spill", string(data))
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(NewBytesHandle(), "read", Readable|BinaryContent))
	assert.NoError(t, Require(NewXMLHandle(), "read", Readable|XMLContent|Structured))

	err := Require(NewSearchHandle(), "write", Writable)
	var capErr *CapabilityError
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, Writable, capErr.Missing)
	assert.Contains(t, err.Error(), "writable")

	err = Require(nil, "read", Readable)
	assert.True(t, errors.As(err, &capErr))

	b := NewBytesHandle()
	assert.NoError(t, b.SetFormat(FormatXML))
	assert.Error(t, Require(b, "read", Readable|BinaryContent))
}

func TestSearchHandleAccessors(t *testing.T) {
	h := NewSearchHandle()
	assert.Equal(t, int64(0), h.Total())
	_, ok := h.Facet("collection")
	assert.False(t, ok)

	body := `{"total": 2, "start": 1, "page_length": 10,
		"results": [{"uri": "/a.json", "index": 1, "score": 2}],
		"facets": [{"name": "collection", "values": [{"name": "books", "count": 2}]}]}`
	assert.NoError(t, h.Receive(strings.NewReader(body)))
	assert.Equal(t, int64(2), h.Total())
	assert.Len(t, h.Results(), 1)
	assert.Equal(t, "/a.json", h.Results()[0].URI)
	facet, ok := h.Facet("collection")
	assert.True(t, ok)
	assert.Equal(t, int64(2), facet.Values[0].Count)
}
