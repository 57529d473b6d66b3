package validation

import (
	"errors"
	"path"
	"strings"
)

// CleanUploadPath normalizes the relative path of an uploaded part.
// Directory uploads send names like "reports/2024/q1.pdf"; the
// directory portion namespaces the storage key. Anything that would
// escape the folder scope is rejected.
func CleanUploadPath(name string) (dir, base string, err error) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := path.Clean(name)

	if clean == "." || clean == "/" || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", "", errors.New("invalid file name")
	}

	base = path.Base(clean)
	if base == "." || base == ".." || base == "" {
		return "", "", errors.New("invalid file name")
	}

	dir = path.Dir(clean)
	if dir == "." {
		dir = ""
	}

	return dir, base, nil
}
