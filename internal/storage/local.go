package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ateliercms/api/internal/imageref"
)

// Local stores images under an uploads root on the local filesystem.
// The root is injected, never derived from the working directory.
type Local struct {
	root string // filesystem directory containing the uploads/ tree
}

// NewLocal creates a local filesystem backend rooted at root.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Store(_ context.Context, namespace string, data []byte) (string, error) {
	addr := imageref.Prefix + namespace + "/" + uniqueName() + ".jpg"

	dest, err := imageref.ResolveLocal(l.root, addr)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", addr, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", addr, err)
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("writing file %s: %w", addr, err)
	}

	return addr, nil
}

// Delete removes the asset at addr. Addresses that resolve outside the
// uploads root are refused and reported as not deleted.
func (l *Local) Delete(_ context.Context, addr string) (bool, error) {
	dest, err := imageref.ResolveLocal(l.root, addr)
	if err != nil {
		if errors.Is(err, imageref.ErrOutsideRoot) {
			return false, err
		}
		return false, fmt.Errorf("resolving %s: %w", addr, err)
	}

	if err := os.Remove(dest); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("removing file %s: %w", addr, err)
	}
	return true, nil
}

// List walks the namespace directory and returns normalized addresses for
// every regular file found. A missing directory yields an empty list.
func (l *Local) List(_ context.Context, namespace string) ([]string, error) {
	dir := filepath.Join(l.root, "uploads", filepath.FromSlash(namespace))

	var addrs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		addrs = append(addrs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	return addrs, nil
}

// ModTime returns the modification time of the asset at addr. The orphan
// sweeper uses it to apply the grace window.
func (l *Local) ModTime(addr string) (time.Time, error) {
	dest, err := imageref.ResolveLocal(l.root, addr)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// uniqueName follows the upload naming scheme: millisecond timestamp plus a
// short random suffix. Collisions are negligible at this resolution.
func uniqueName() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), b.String())
}
