package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound   = errors.New("artifact: not found")
	ErrInvalidRef = errors.New("artifact: invalid reference")
)

// FileStore keeps rendered documents under a root directory. References are
// slash-separated paths relative to that root.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("artifact: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// Write streams fill into a temp file and renames it into place, so readers
// never see a partial document. A zero-byte result is removed and reported
// with size 0 and no error; the caller decides what that means.
func (s *FileStore) Write(ctx context.Context, name string, fill func(io.Writer) error) (string, int64, error) {
	ref, full, err := s.resolve(name)
	if err != nil {
		return "", 0, err
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("artifact: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("artifact: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return "", 0, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("artifact: sync: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("artifact: stat temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("artifact: close temp: %w", err)
	}
	if info.Size() == 0 {
		return ref, 0, nil
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", 0, fmt.Errorf("artifact: chmod: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return "", 0, fmt.Errorf("artifact: rename: %w", err)
	}
	return ref, info.Size(), nil
}

// Stat returns the size of a stored artifact, or ErrNotFound.
func (s *FileStore) Stat(_ context.Context, ref string) (int64, error) {
	_, full, err := s.resolve(ref)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("artifact: stat: %w", err)
	}
	if info.IsDir() {
		return 0, ErrNotFound
	}
	return info.Size(), nil
}

func (s *FileStore) Open(_ context.Context, ref string) (io.ReadCloser, int64, error) {
	_, full, err := s.resolve(ref)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("artifact: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("artifact: stat: %w", err)
	}
	return f, info.Size(), nil
}

// Path returns the absolute filesystem path for ref.
func (s *FileStore) Path(ref string) (string, error) {
	_, full, err := s.resolve(ref)
	return full, err
}

func (s *FileStore) Remove(_ context.Context, ref string) error {
	_, full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("artifact: remove: %w", err)
	}
	return nil
}

// resolve maps a reference to a path inside root, rejecting escapes.
func (s *FileStore) resolve(ref string) (string, string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", "", ErrInvalidRef
	}
	// legacy rows may hold absolute paths under root
	if filepath.IsAbs(trimmed) {
		rel, err := filepath.Rel(s.root, trimmed)
		if err != nil {
			return "", "", ErrInvalidRef
		}
		trimmed = rel
	}
	clean := filepath.Clean(filepath.FromSlash(trimmed))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", "", ErrInvalidRef
	}
	return filepath.ToSlash(clean), filepath.Join(s.root, clean), nil
}
