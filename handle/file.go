package handle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/deepnoodle-ai/docdb/wire"
)

var (
	_ ReadHandle  = &FileHandle{}
	_ WriteHandle = &FileHandle{}
)

// FileHandle reads content into, or writes content from, a file on disk
type FileHandle struct {
	base
	path string
}

// NewFileHandle returns a handle for the file at path. If path is empty,
// received content goes to a new temporary file. The format is inferred from
// the file extension.
func NewFileHandle(path string) *FileHandle {
	h := &FileHandle{
		base: newBase("file handle", Readable|Writable|AnyContent, FormatUnknown,
			FormatUnknown, FormatBinary, FormatText, FormatXML, FormatJSON),
	}
	h.Set(path)
	return h
}

// Get returns the file path
func (h *FileHandle) Get() string {
	return h.path
}

func (h *FileHandle) Set(path string) {
	h.path = path
	if path != "" && h.format == FormatUnknown {
		h.format = wire.FormatFromPath(path)
		h.mimeType = wire.MimeTypeFromPath(path)
	}
}

func (h *FileHandle) With(path string) *FileHandle {
	h.Set(path)
	return h
}

// Receive writes the stream to the file, replacing it only once the stream
// has been fully copied.
func (h *FileHandle) Receive(r io.Reader) error {
	br, ok, err := openContent(r)
	if err != nil || !ok {
		return err
	}
	dir := os.TempDir()
	if h.path != "" {
		dir = filepath.Dir(h.path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%s: create directory: %w", h.name, err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".docdb-*")
	if err != nil {
		return fmt.Errorf("%s: create file: %w", h.name, err)
	}
	if _, err := io.Copy(tmp, br); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: write file: %w", h.name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: write file: %w", h.name, err)
	}
	if h.path == "" {
		h.path = tmp.Name()
		return nil
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%s: replace file: %w", h.name, err)
	}
	return nil
}

func (h *FileHandle) Send() (io.WriterTo, error) {
	if h.path == "" {
		return nil, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	return h, nil
}

func (h *FileHandle) WriteTo(w io.Writer) (int64, error) {
	if h.path == "" {
		return 0, &ContentStateError{Handle: h.name, Operation: "write"}
	}
	f, err := os.Open(h.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
