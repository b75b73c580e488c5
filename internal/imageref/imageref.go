// Package imageref canonicalizes stored image addresses. A reference is
// either a path relative to the uploads root (local storage) or an object
// id understood by the remote backend. All deletion paths go through
// ResolveLocal, which refuses anything that escapes the uploads root.
package imageref

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// Prefix is the storage namespace every local reference lives under.
const Prefix = "uploads/"

// ErrOutsideRoot is returned when a resolved path escapes the uploads root.
// Callers must treat the address as unresolvable and skip deletion.
var ErrOutsideRoot = errors.New("image path resolves outside the uploads root")

// Normalize canonicalizes a raw image path into the form
// "uploads/<namespace>/<file>". It converts backslashes to forward slashes,
// strips any leading slash, discards everything before an "uploads/"
// segment, and prepends "uploads/" when missing. Normalize is idempotent
// and never fails; containment is checked separately by ResolveLocal.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	p := strings.ReplaceAll(raw, "\\", "/")

	// Collapse duplicate slashes before searching for the uploads segment.
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	p = strings.TrimPrefix(p, "/")

	if idx := strings.Index(p, Prefix); idx != -1 {
		p = p[idx:]
	}
	if !strings.HasPrefix(p, Prefix) {
		p = Prefix + p
	}
	return p
}

// ResolveLocal maps a normalized address to an absolute filesystem path
// under root. It fails closed: any address whose cleaned absolute path does
// not lie under root/uploads yields ErrOutsideRoot.
func ResolveLocal(root, addr string) (string, error) {
	if addr == "" {
		return "", ErrOutsideRoot
	}

	abs, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(Normalize(addr))))
	if err != nil {
		return "", err
	}

	uploadsDir, err := filepath.Abs(filepath.Join(root, "uploads"))
	if err != nil {
		return "", err
	}

	if abs != uploadsDir && !strings.HasPrefix(abs, uploadsDir+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// RemoteObjectID derives the object id from a stored remote reference.
// Full URLs containing hostMarker are reduced to the path starting at the
// storage namespace with any file extension removed; everything else is
// treated as already being an object id.
func RemoteObjectID(ref, hostMarker string) string {
	if ref == "" {
		return ""
	}

	id := ref
	if hostMarker != "" && strings.Contains(ref, hostMarker) {
		if idx := strings.Index(ref, Prefix); idx != -1 {
			id = ref[idx:]
		}
	}

	if ext := path.Ext(id); ext != "" && !strings.Contains(ext, "/") {
		id = strings.TrimSuffix(id, ext)
	}
	return id
}

// IsRemote reports whether a stored reference points at the remote backend
// rather than the local uploads tree.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// DisplayPath converts a stored reference into the form clients consume:
// local paths gain a single leading slash so they are web-servable; remote
// references are already absolute URLs and pass through unchanged.
func DisplayPath(stored string) string {
	if stored == "" {
		return ""
	}
	if IsRemote(stored) {
		return stored
	}
	return "/" + strings.TrimPrefix(stored, "/")
}
