package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one file per slot inside dir. Files are written atomically with 0600
// permissions; the directory is created with 0700.
type FileStore struct {
	dir    string
	sealer *Sealer // nil stores plaintext
}

// NewFileStore creates the directory if needed. A non-empty secret enables at-rest encryption.
func NewFileStore(dir, secret string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file token store requires a directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	fs := &FileStore{dir: dir}
	if secret != "" {
		fs.sealer = NewSealer(secret)
	}
	return fs, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key)
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	value := strings.TrimRight(string(b), "\n")
	if f.sealer != nil {
		return f.sealer.Open(value)
	}
	return value, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data := value
	if f.sealer != nil {
		sealed, err := f.sealer.Seal(value)
		if err != nil {
			return err
		}
		data = sealed
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path(key))
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileStore) Close() error { return nil }
