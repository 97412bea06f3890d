// Package pool provides the problem pool: a JSON document on disk holding
// previously generated math and english problems, plus selection and
// insertion over it.
package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/model"
)

// Mirror receives a copy of the pool file after every successful save.
type Mirror interface {
	Snapshot(ctx context.Context, data []byte) error
}

// mirrorTimeout bounds a single mirror upload.
const mirrorTimeout = 10 * time.Second

// Store reads and writes the pool document file.
// Store does no locking of its own; Pool serialises access.
type Store struct {
	path   string
	log    *logger.Logger
	mirror *snapshotWorker
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string, log *logger.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With("component", "pool_store", "path", path),
	}
}

// SetMirror sets the snapshot mirror. nil disables mirroring.
// Snapshots are uploaded in the background; call Close to flush.
func (s *Store) SetMirror(m Mirror) {
	if s.mirror != nil {
		s.mirror.close(context.Background())
		s.mirror = nil
	}
	if m != nil {
		s.mirror = newSnapshotWorker(m, s.log)
	}
}

// Close waits for the pending snapshot upload, if any, until ctx is done.
func (s *Store) Close(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.close(ctx)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backing file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the pool document. It never fails: a missing file yields an
// empty document, and an unreadable or corrupt file is moved aside to
// <path>.corrupt-<unix> before an empty document is returned.
func (s *Store) Load() *model.PoolDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Error("failed to read pool file", "error", err)
		}
		return model.NewPoolDocument()
	}

	doc, err := decode(data)
	if err != nil {
		s.log.Error("pool file is corrupt, starting from empty pool", "error", err)
		s.quarantine()
		return model.NewPoolDocument()
	}
	return doc
}

// Save writes the whole document, pretty-printed, via write-then-rename,
// and queues it for the mirror. Returns false if the write failed; the
// error is logged.
func (s *Store) Save(doc *model.PoolDocument) bool {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.log.Error("failed to encode pool document", "error", err)
		return false
	}
	if err := s.writeFile(data); err != nil {
		s.log.Error("failed to write pool file", "error", err)
		return false
	}

	if s.mirror != nil {
		s.mirror.enqueue(data)
	}
	return true
}

// Restore replaces the pool file with data after checking it decodes.
func (s *Store) Restore(data []byte) error {
	doc, err := decode(data)
	if err != nil {
		return fmt.Errorf("invalid pool snapshot: %w", err)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pool document: %w", err)
	}
	return s.writeFile(out)
}

func (s *Store) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create pool directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set pool file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace pool file: %w", err)
	}
	return nil
}

func (s *Store) quarantine() {
	target := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		s.log.Error("failed to move corrupt pool file aside", "error", err)
		return
	}
	s.log.Warn("moved corrupt pool file aside", "backup", target)
}

func decode(data []byte) (*model.PoolDocument, error) {
	var doc model.PoolDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}
