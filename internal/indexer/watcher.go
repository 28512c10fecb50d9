package indexer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the repository for changes to indexable files and
// triggers a rebuild after a quiet period. Rebuilds are full passes: the
// symbol table is built fresh from the complete symbol set every time, so
// there is no partial state to reconcile.
type Watcher struct {
	indexer      Indexer
	discovery    *FileDiscovery
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewWatcher creates a file watcher that reindexes via idx on changes.
func NewWatcher(idx Indexer, discovery *FileDiscovery, rootDir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		indexer:      idx,
		discovery:    discovery,
		rootDir:      rootDir,
		watcher:      fsw,
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	if err := w.addDirectoriesRecursively(rootDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	changedFiles := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			relPath, _ := filepath.Rel(w.rootDir, event.Name)
			changedFiles[relPath] = true

			// New directories must be added to the watcher before
			// events inside them can be seen.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if debounceTimer != nil {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
			}
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case reindexCh <- struct{}{}:
				default:
				}
			})

		case <-reindexCh:
			w.triggerReindex(ctx, changedFiles)
			changedFiles = make(map[string]bool)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// triggerReindex executes a full reindex pass.
func (w *Watcher) triggerReindex(ctx context.Context, changedFiles map[string]bool) {
	if len(changedFiles) == 0 {
		return
	}

	log.Printf("Reindexing due to changes in %d file(s)...", len(changedFiles))
	start := time.Now()

	stats, err := w.indexer.Index(ctx)
	if err != nil {
		log.Printf("Error during reindex: %v", err)
		return
	}
	log.Printf("Reindex complete in %v (%d nodes, %d edges)",
		time.Since(start), stats.NodeCount, stats.EdgeCount)
}

// shouldProcessEvent checks if an event should trigger reindexing.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	relPath, err := filepath.Rel(w.rootDir, event.Name)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	// Directory creations pass through so new trees get watched; removals
	// of a tracked file also pass through even though Matches sees only
	// the path.
	if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
		return !w.discovery.shouldIgnore(relPath)
	}
	return w.discovery.Matches(relPath)
}

// addDirectoriesRecursively adds all non-ignored directories to the watcher.
func (w *Watcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(w.rootDir, path)
		if relErr != nil {
			return nil
		}
		if path != w.rootDir && w.discovery.shouldIgnore(filepath.ToSlash(relPath)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
