package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
	"github.com/lodestone-labs/lodestone/internal/logger"
	"github.com/lodestone-labs/lodestone/internal/sidecar"
)

// watchSettle is how long a path must stay quiet before it is indexed,
// so editors that write in several bursts don't trigger partial reads.
const watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and index changes",
	Long: `Watches a directory and indexes files as they are created or
modified. Deleting a file removes its record from the index. Sidecar
(.meta) files re-index the file they describe. Stops on Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexerService == nil || contentStore == nil {
		return errors.New("indexer service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("watch target must be a directory")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	w := &watchSession{cmd: cmd, indexed: make(map[string]string), pending: make(map[string]time.Time)}

	ticker := time.NewTicker(watchSettle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case now := <-ticker.C:
			w.flushSettled(ctx, now)
		}
	}
}

// watchSession tracks what the watcher has indexed so deletions can be
// mapped back to content IDs, and debounces rapid write bursts.
type watchSession struct {
	cmd     *cobra.Command
	indexed map[string]string    // path -> content ID
	pending map[string]time.Time // path -> last event time
}

func (w *watchSession) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if ignoredPath(path) {
		return
	}

	// A sidecar change re-indexes the file it describes.
	if strings.HasSuffix(path, sidecar.Suffix) {
		path = strings.TrimSuffix(path, sidecar.Suffix)
		if _, err := os.Stat(path); err != nil {
			return
		}
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.pending[path] = time.Now()

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.pending, path)
		contentID, ok := w.indexed[path]
		if !ok {
			return
		}
		delete(w.indexed, path)
		if err := indexerService.Remove(ctx, contentID); err != nil {
			w.cmd.PrintErrf("  %s: remove failed: %v\n", path, err)
			return
		}
		w.cmd.Printf("  removed %s\n", filepath.Base(path))
	}
}

// flushSettled indexes paths whose last event is older than the settle
// window.
func (w *watchSession) flushSettled(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < watchSettle {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		if err := w.indexPath(ctx, path); err != nil {
			w.cmd.PrintErrf("  %s: %v\n", path, err)
		}
	}
}

func (w *watchSession) indexPath(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	contentID, err := contentStore.Store(ctx, data)
	if err != nil {
		return err
	}

	hints := driving.IndexHints{SourceName: filepath.Base(path)}
	if sidecarReader != nil {
		meta, err := sidecarReader.Read(path)
		if err != nil {
			return err
		}
		hints.Sidecar = meta
	}

	report, err := indexerService.IndexWithHints(ctx, contentID, hints)
	if err != nil {
		return err
	}

	// The same path may now hold different bytes; drop the old record.
	if old, ok := w.indexed[path]; ok && old != contentID {
		if err := indexerService.Remove(ctx, old); err != nil {
			logger.Warn("Failed to remove stale record %s: %v", old, err)
		}
	}
	w.indexed[path] = contentID

	status := ""
	if report.Degraded {
		status = " (degraded)"
	}
	w.cmd.Printf("  indexed %s -> %s: %d chunks%s\n",
		filepath.Base(path), shortID(contentID), report.ChunkCount, status)
	return nil
}

// ignoredPath filters dotfiles and editor temp files.
func ignoredPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	switch filepath.Ext(base) {
	case ".swp", ".tmp", ".part":
		return true
	}
	return strings.HasSuffix(base, "~")
}
