package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// ResolvePath converts a slash-separated path relative to root into an
// absolute filesystem path. Paths that are absolute or climb out of root
// are rejected.
func ResolvePath(root, file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	if strings.HasPrefix(file, "file://") {
		file = strings.TrimPrefix(file, "file://")
	}

	native := filepath.FromSlash(file)
	if filepath.IsAbs(native) {
		return "", fmt.Errorf("%w: %s is absolute", domain.ErrInvalidInput, file)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("root path error: %w", err)
	}
	full := filepath.Join(absRoot, native)

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the notes root", domain.ErrInvalidInput, file)
	}
	return full, nil
}
