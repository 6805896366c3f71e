// Package filesystem reads notes from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/logger"
	"github.com/custodia-labs/margin/internal/memo"
)

// Ensure Connector implements the interface.
var _ driven.NoteSource = (*Connector)(nil)

// DefaultExtensions are the note file types read from the root.
var DefaultExtensions = []string{".md", ".txt"}

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Connector scans a notes directory. Hidden files and directories are
// skipped.
type Connector struct {
	rootPath   string
	extensions map[string]struct{}
	debounce   time.Duration

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithExtensions replaces the accepted extensions. Extensions are matched
// case-insensitively and must include the dot.
func WithExtensions(exts ...string) Option {
	return func(c *Connector) {
		c.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			c.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithDebounce sets the quiet period before Watch reports a change.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// New creates a connector for rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath: rootPath,
		debounce: DefaultDebounce,
	}
	WithExtensions(DefaultExtensions...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the directory being scanned.
func (c *Connector) Root() string {
	return c.rootPath
}

// fileEntry is one eligible file found by a walk.
type fileEntry struct {
	rel  string
	abs  string
	info fs.FileInfo
}

// walk lists eligible files in sorted relative path order. A missing root
// yields nothing.
func (c *Connector) walk(ctx context.Context) ([]fileEntry, []domain.LoadWarning, error) {
	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("notes root %s does not exist", c.rootPath)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	var entries []fileEntry
	var warnings []domain.LoadWarning

	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(c.rootPath, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			warnings = append(warnings, domain.LoadWarning{File: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !c.accepts(path) {
			return nil
		}

		fi, infoErr := d.Info()
		if infoErr != nil {
			warnings = append(warnings, domain.LoadWarning{File: rel, Err: infoErr})
			return nil
		}
		if !fi.Mode().IsRegular() {
			return nil
		}
		entries = append(entries, fileEntry{rel: rel, abs: path, info: fi})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
	return entries, warnings, nil
}

// Fingerprint hashes the relative path, size and modification time of every
// eligible file. File contents are not read.
func (c *Connector) Fingerprint(ctx context.Context) (string, error) {
	entries, _, err := c.walk(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(entries)*3)
	for _, e := range entries {
		parts = append(parts,
			e.rel,
			strconv.FormatInt(e.info.Size(), 10),
			strconv.FormatInt(e.info.ModTime().UnixNano(), 10),
		)
	}
	return memo.Fingerprint(parts...), nil
}

// Scan reads every eligible file. Files that cannot be read become warnings.
func (c *Connector) Scan(ctx context.Context) ([]domain.RawNote, []domain.LoadWarning, error) {
	entries, warnings, err := c.walk(ctx)
	if err != nil {
		return nil, nil, err
	}

	notes := make([]domain.RawNote, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		content, readErr := os.ReadFile(e.abs)
		if readErr != nil {
			logger.Warn("skipping %s: %v", e.rel, readErr)
			warnings = append(warnings, domain.LoadWarning{File: e.rel, Err: readErr})
			continue
		}
		notes = append(notes, domain.RawNote{
			Path:    e.rel,
			Content: content,
			Size:    e.info.Size(),
			ModTime: e.info.ModTime(),
		})
	}
	return notes, warnings, nil
}

// Read loads a single file relative to the root. Only files a scan would
// pick up can be read: hidden paths, foreign extensions and symlinks are
// refused.
func (c *Connector) Read(ctx context.Context, file string) (*domain.RawNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := ResolvePath(c.rootPath, file)
	if err != nil {
		return nil, err
	}
	if isHidden(file) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
	}

	info, err := os.Lstat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, file)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, file)
	}
	if !c.accepts(full) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, file)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, file)
	}
	if err := c.insideRoot(full); err != nil {
		return nil, fmt.Errorf("%w: %s", err, file)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	return &domain.RawNote{
		Path:    filepath.ToSlash(filepath.Clean(filepath.FromSlash(file))),
		Content: content,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// insideRoot checks that full, with symlinked directories resolved, is
// still under the root.
func (c *Connector) insideRoot(full string) error {
	realRoot, err := filepath.EvalSymlinks(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	realFull, err := filepath.EvalSymlinks(full)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(realRoot, realFull)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.ErrInvalidInput
	}
	return nil
}

// Watch reports changes to eligible files under the root. Bursts of events
// are coalesced into one signal after the debounce period. The channel is
// closed when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("connector is closed")
	}
	c.mu.Unlock()

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, errors.New("connector is closed")
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	changes := make(chan struct{}, 1)
	go c.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- struct{}) {
	defer close(changes)
	defer c.release(watcher)

	timer := time.NewTimer(c.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !c.handleFsEvent(watcher, event) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.debounce)
			pending = true

		case <-timer.C:
			pending = false
			select {
			case changes <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent reports whether event touches an eligible file. New
// directories are added to the watcher.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil || isHidden(filepath.ToSlash(rel)) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := c.addTree(watcher, event.Name); addErr != nil {
				logger.Warn("watch %s: %v", event.Name, addErr)
			}
			return true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// The path is gone; a removed directory has no extension.
		return c.accepts(event.Name) || filepath.Ext(event.Name) == ""
	}
	return c.accepts(event.Name)
}

// addTree watches dir and every non-hidden directory below it.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

func (c *Connector) release(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watchers {
		if w == watcher {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
	watcher.Close()
}

// Close stops all watchers. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

func (c *Connector) accepts(path string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// isHidden reports whether any element of a slash or native path starts
// with a dot. "." and ".." are not hidden.
func isHidden(path string) bool {
	path = filepath.ToSlash(path)
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
