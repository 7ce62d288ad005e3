package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrArtifactNotFound is returned by Load when no artifact exists at the
// requested path. Callers treat it as "model not trained yet".
var ErrArtifactNotFound = errors.New("artifact not found")

// Store reads and writes msgpack artifacts under a base directory.
// Artifact paths from country configs are resolved relative to it.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path resolves an artifact path against the store root. Absolute paths
// pass through unchanged.
func (s *Store) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.baseDir, rel)
}

// Exists reports whether an artifact is present at the path.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

// Save marshals v and replaces the artifact at the path in one rename, so
// concurrent readers never observe a partial write.
func (s *Store) Save(rel string, v any) error {
	path := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads and unmarshals the artifact at the path into out.
func (s *Store) Load(rel string, out any) error {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactNotFound, rel)
		}
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal artifact %s: %w", rel, err)
	}
	return nil
}
