package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
)

// MetaSuffix is appended to a content file's name to form its metadata file
const MetaSuffix = ".meta.json"

var _ Store = &FileSysStore{}

// FileSysStore implements Store using the local file system. Each document
// is a content file plus a JSON metadata file beside it. Apply holds the
// store lock for the whole batch but is not atomic across a crash.
type FileSysStore struct {
	rootDir string
	mutex   sync.RWMutex
	now     func() time.Time
}

// NewFileSysStore creates a store rooted at rootDir, creating the directory
// if needed.
func NewFileSysStore(rootDir string) (*FileSysStore, error) {
	if rootDir == "" {
		rootDir = "."
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for root directory: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileSysStore{rootDir: absRoot, now: time.Now}, nil
}

// Root returns the absolute root directory
func (s *FileSysStore) Root() string {
	return s.rootDir
}

// sanitizePath maps a URI to a path that is guaranteed to be inside the root
// directory.
func (s *FileSysStore) sanitizePath(uri string) (string, error) {
	if err := ValidateURI(uri); err != nil {
		return "", err
	}
	if strings.HasSuffix(uri, MetaSuffix) {
		return "", fmt.Errorf("document uri %q uses the reserved suffix %s", uri, MetaSuffix)
	}
	path := filepath.Clean("/" + filepath.FromSlash(uri))
	fullPath := filepath.Join(s.rootDir, path)
	if fullPath != s.rootDir && !strings.HasPrefix(fullPath, s.rootDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q attempts to escape root directory", uri)
	}
	if fullPath == s.rootDir {
		return "", fmt.Errorf("document uri %q names the root directory", uri)
	}
	return fullPath, nil
}

func (s *FileSysStore) Get(ctx context.Context, uri string) (*Record, error) {
	fullPath, err := s.sanitizePath(uri)
	if err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.read(uri, fullPath)
}

func (s *FileSysStore) read(uri, fullPath string) (*Record, error) {
	content, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", uri, err)
	}
	rec, err := s.readMeta(fullPath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		// a file dropped into the directory by hand
		info, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat document %q: %w", uri, err)
		}
		rec = &Record{
			Format:    wire.FormatFromPath(uri),
			MimeType:  wire.MimeTypeFromPath(uri),
			Metadata:  wire.NewMetadata(),
			UpdatedAt: info.ModTime().UTC(),
		}
	}
	rec.URI = uri
	rec.Content = content
	return rec, nil
}

func (s *FileSysStore) readMeta(fullPath string) (*Record, error) {
	data, err := os.ReadFile(fullPath + MetaSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid metadata file %s: %w", fullPath+MetaSuffix, err)
	}
	return &rec, nil
}

func (s *FileSysStore) Put(ctx context.Context, rec *Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.put(rec.URI, rec, s.now())
}

func (s *FileSysStore) put(uri string, rec *Record, now time.Time) error {
	fullPath, err := s.sanitizePath(uri)
	if err != nil {
		return err
	}
	previous, err := s.readMeta(fullPath)
	if err != nil {
		return err
	}
	stored := prepare(rec, previous, now)
	stored.URI = uri

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for document: %w", err)
	}
	if err := os.WriteFile(fullPath, stored.Content, 0644); err != nil {
		return fmt.Errorf("failed to write document to file: %w", err)
	}
	meta, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(fullPath+MetaSuffix, meta, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

func (s *FileSysStore) Delete(ctx context.Context, uri string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.delete(uri, true)
}

func (s *FileSysStore) delete(uri string, mustExist bool) error {
	fullPath, err := s.sanitizePath(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete document file: %w", err)
		}
		if mustExist {
			return fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
	}
	if err := os.Remove(fullPath + MetaSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata file: %w", err)
	}
	return nil
}

func (s *FileSysStore) List(ctx context.Context, prefix string) ([]*Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []*Record
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, MetaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}
		uri := "/" + filepath.ToSlash(rel)
		if meta, err := s.readMeta(path); err == nil && meta != nil && meta.URI != "" {
			uri = meta.URI
		}
		if !strings.HasPrefix(uri, prefix) {
			return nil
		}
		rec, err := s.read(uri, path)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.rootDir, err)
	}
	sortRecords(out)
	return out, nil
}

func (s *FileSysStore) Apply(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if _, err := s.sanitizePath(c.URI); err != nil {
			return err
		}
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for _, c := range changes {
		var err error
		if c.Record == nil {
			err = s.delete(c.URI, false)
		} else {
			err = s.put(c.URI, c.Record, now)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", c.URI, err)
		}
	}
	return nil
}

func (s *FileSysStore) Close() error {
	return nil
}
