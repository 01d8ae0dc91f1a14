package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/renameio"
	"github.com/kozaktomas/face-index/internal/identity"
)

// FileStore keeps the index in a single gob file. Writes replace the file by
// rename so readers never observe a partial artifact, and are serialized by a
// mutex inside the process plus an advisory flock across processes.
type FileStore struct {
	path string
	dim  int
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path. dim fixes the
// embedding dimension; 0 lets the first append (or the existing file) decide.
func NewFileStore(path string, dim int) *FileStore {
	return &FileStore{path: path, dim: dim}
}

// Path returns the artifact path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the whole artifact. A missing file is an empty store.
func (s *FileStore) Load(ctx context.Context) ([]identity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := s.read()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return []identity.Entry{}, nil
	}
	return a.entries(), nil
}

// Count returns the number of stored entries.
func (s *FileStore) Count(ctx context.Context) (int, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// AppendAll appends entries under the writer lock with a read-modify-replace cycle.
func (s *FileStore) AppendAll(ctx context.Context, entries []identity.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	dim := s.dim
	var existing []identity.Entry
	if current != nil {
		existing = current.entries()
		if dim == 0 {
			dim = current.Dim
		}
		if s.dim > 0 && current.Dim > 0 && current.Dim != s.dim {
			return fmt.Errorf("%w: store file has %d, configured %d", identity.ErrDimensionMismatch, current.Dim, s.dim)
		}
	}

	dim, err = validateBatch(entries, dim)
	if err != nil {
		return err
	}

	merged := make([]identity.Entry, 0, len(existing)+len(entries))
	merged = append(merged, existing...)
	merged = append(merged, identity.CloneAll(entries)...)

	data, err := encodeArtifact(newArtifact(merged, dim))
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity store %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() (*artifact, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity store %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	a, err := decodeArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return a, nil
}

// lock takes an exclusive flock on a sibling .lock file. The artifact itself
// is replaced on every write, so it cannot carry the lock.
func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	lockPath := s.path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to acquire exclusive lock on %s: %w", lockPath, err)
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
