package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/flatrest/internal/models"
)

const ext = ".json"

// FS implements RecordStore and DocumentStore on a single directory of
// <name>.json files.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the backing file for name without validating it.
func (f *FS) Path(name string) string {
	return filepath.Join(f.root, name+ext)
}

// safePath resolves name to a file directly under root and rejects
// anything that would land elsewhere.
func (f *FS) safePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty name")
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("storage: invalid name: %s", name)
	}
	abs := filepath.Join(f.root, name+ext)
	if filepath.Dir(abs) != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", name)
	}
	return abs, nil
}

// Names lists the base names of the .json files directly under root.
func (f *FS) Names() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(out)
	return out, nil
}

// List reads a collection. A missing file is created holding an empty array.
func (f *FS) List(name string) ([]models.Record, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		if err := f.writeAtomic(abs, []byte("[]")); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", name, err)
	}
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("storage: decode %s: record %d is null", name, i)
		}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// Replace overwrites a collection with records as indented JSON.
func (f *FS) Replace(name string, records []models.Record) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", name, err)
	}
	return f.writeAtomic(abs, data)
}

// ReadDocument returns the raw bytes of a document.
func (f *FS) ReadDocument(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// WriteDocument stores data re-indented with two spaces. Key order is kept.
func (f *FS) WriteDocument(name string, data []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("storage: indent %s: %w", name, err)
	}
	return f.writeAtomic(abs, buf.Bytes())
}

// writeAtomic writes content: tmp file → fsync → rename.
func (f *FS) writeAtomic(abs string, content []byte) error {
	tmp, err := os.CreateTemp(f.root, ".flatrest-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
