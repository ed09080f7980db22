// Package watch re-checks mvdXML documents when they change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/mvdkit/config"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500

	defaultDebounce = 500 * time.Millisecond
)

// Operation indicates the type of file change.
type Operation string

// OpCreate, OpModify, and OpDelete enumerate the watched file operations.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event represents a document file change.
type Event struct {
	// Path is the file path relative to the watched directory.
	Path string

	// AbsPath is the file path as reported by the file system.
	AbsPath string

	Operation Operation
}

// Watcher watches a directory tree for document changes and emits events
// once a file has been quiet for the debounce period. Writes that leave the
// content unchanged are not reported.
type Watcher struct {
	root       string
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events  chan Event
	dropped atomic.Int64
}

// New creates a watcher over root.
func New(cfg config.WatchConfig, root string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := config.DefaultConfig().Watch
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = defaults.Extensions
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	dirs := cfg.ExcludeDirs
	if len(dirs) == 0 {
		dirs = defaults.ExcludeDirs
	}
	excludes := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		excludes[dir] = true
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		root:       root,
		debounce:   debounce,
		watcher:    fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of change events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds watches for root and its subdirectories and begins processing
// file system events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Document watcher started",
		"root", w.root,
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Seed records the content hash of every watched file under root so that
// the first write to an unchanged file is not reported. It returns the
// relative paths it found.
func (w *Watcher) Seed() ([]string, error) {
	var found []string
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && w.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.watched(path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel := w.rel(path)
		w.SetHash(rel, ContentHash(content))
		found = append(found, rel)
		return nil
	})
	return found, err
}

// SetHash records the content hash of a file.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// Hash returns the recorded content hash of a file.
func (w *Watcher) Hash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (w *Watcher) skipDir(base string) bool {
	return w.excludes[base] || (strings.HasPrefix(base, ".") && base != ".")
}

func (w *Watcher) watched(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return rel
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		w.addWatch(path)
		return nil
	})
}

func (w *Watcher) addWatch(path string) {
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		return
	}
	w.logger.Debug("Watching directory", "path", path)
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !w.watched(path) {
		// New directories need their own watch
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.skipDir(filepath.Base(path)) {
				if err := w.addWatchesRecursive(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}

	rel := w.rel(path)
	for _, dir := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if w.excludes[dir] {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Document change detected", "path", rel, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := maps.Clone(w.pending)
	clear(w.pending)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}

		rel := w.rel(path)
		event := Event{Path: rel, AbsPath: path}

		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			w.hashMu.Lock()
			_, tracked := w.hashes[rel]
			delete(w.hashes, rel)
			w.hashMu.Unlock()
			if tracked || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
				event.Operation = OpDelete
				w.send(event)
			}
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read file for hash check", "path", rel, "error", err)
			continue
		}

		newHash := ContentHash(content)
		oldHash, hadHash := w.Hash(rel)
		if hadHash && oldHash == newHash {
			continue
		}
		w.SetHash(rel, newHash)

		if hadHash {
			event.Operation = OpModify
		} else {
			event.Operation = OpCreate
		}
		w.send(event)
	}
}

func (w *Watcher) send(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}
