// Package store persists one JSON record per (kind, id) under the output
// directory. Records already on disk are never overwritten, which is what
// makes interrupted crawls resumable: a re-run skips everything that is
// already there and only fetches the gaps.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// ErrNotFound is reported when no readable record exists for a (kind, id).
// Corrupt files are reported as not found so the crawler re-fetches them.
var ErrNotFound = errors.New("record not found")

// PageStore is a filesystem-backed record store.
type PageStore struct {
	root   string
	logger *slog.Logger
}

// New creates a store rooted at dir. The directory tree is created lazily on
// first save per kind.
func New(dir string, logger *slog.Logger) (*PageStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store root must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &PageStore{root: dir, logger: logger}, nil
}

// Root returns the store's root directory.
func (s *PageStore) Root() string { return s.root }

// Path returns the file path backing a (kind, id) record.
func (s *PageStore) Path(kind types.Kind, id string) string {
	return filepath.Join(s.root, kind.Dir(), sanitizeID(id)+".json")
}

// Exists reports whether a record is already persisted for (kind, id).
func (s *PageStore) Exists(kind types.Kind, id string) bool {
	info, err := os.Stat(s.Path(kind, id))
	return err == nil && !info.IsDir()
}

// Load reads the record for (kind, id) into out. A missing or unparsable file
// reports ErrNotFound; corruption is additionally logged.
func (s *PageStore) Load(kind types.Kind, id string, out any) error {
	path := s.Path(kind, id)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
		}
		return fmt.Errorf("read record %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("corrupt record treated as missing", "kind", kind.String(), "id", id, "error", err)
		return fmt.Errorf("%s/%s: corrupt record: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Save writes the record for (kind, id) unless one already exists, in which
// case it is a no-op. The write is atomic: temp file in the same directory,
// then rename.
func (s *PageStore) Save(kind types.Kind, id string, record any) error {
	path := s.Path(kind, id)
	if s.Exists(kind, id) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", kind, id, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+sanitizeID(id)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write record %s/%s: %w", kind, id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename record %s/%s: %w", kind, id, err)
	}
	return nil
}

// Delete removes a persisted record if present. Used by forced single-page
// runs to allow overwrites.
func (s *PageStore) Delete(kind types.Kind, id string) error {
	err := os.Remove(s.Path(kind, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	return nil
}

// sanitizeID keeps record file names inside the kind directory even for
// hostile ids mined from page links.
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, string(os.PathSeparator), "_")
	id = strings.ReplaceAll(id, "..", "_")
	if id == "" {
		id = "_"
	}
	return id
}
