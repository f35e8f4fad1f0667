package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStore writes images below dir and serves them from urlPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) *DiskStore {
	return &DiskStore{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func (s *DiskStore) Save(_ context.Context, kind Kind, name string, img Image) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	dir := filepath.Join(s.dir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	file := name + img.Extension()
	if err := os.WriteFile(filepath.Join(dir, file), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join(s.urlPrefix, string(kind), file), nil
}

// Delete removes name whatever extension it was saved with.
func (s *DiskStore) Delete(_ context.Context, kind Kind, name string) error {
	name = filepath.Base(name)
	files, err := filepath.Glob(filepath.Join(s.dir, string(kind), name+".*"))
	if err != nil {
		return fmt.Errorf("find image: %w", err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove image: %w", err)
		}
	}
	return nil
}
