package driven

import (
	"context"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// NoteSource enumerates the note files under one root directory.
type NoteSource interface {
	// Root returns the directory being scanned.
	Root() string

	// Fingerprint identifies the current file set from stat data only
	// (relative paths, sizes, modification times). A missing root has a
	// stable, empty-set fingerprint.
	Fingerprint(ctx context.Context) (string, error)

	// Scan reads every eligible file in sorted path order. Unreadable files
	// are reported as warnings and skipped. A missing root yields no notes
	// and no error.
	Scan(ctx context.Context) ([]domain.RawNote, []domain.LoadWarning, error)

	// Read loads one file by its relative path. Paths that leave the root
	// fail with domain.ErrInvalidInput; missing files with domain.ErrNotFound.
	Read(ctx context.Context, file string) (*domain.RawNote, error)

	// Watch emits a value whenever eligible files change. Consumers reload
	// the whole corpus; events carry no per-file detail.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close stops every watcher started by Watch.
	Close() error
}
