package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports external changes to the snapshot file. Events are debounced
// (editors and atomic renames produce bursts) and collapsed to a single tick
// on the returned channel. The watcher stops when ctx is cancelled.
func (s Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: atomic saves replace the file and
	// would drop a file-level watch.
	if err := w.Add(s.Dir); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	target := s.SnapshotFile()

	go func() {
		defer w.Close()
		defer close(out)

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(200 * time.Millisecond)
					timerC = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(200 * time.Millisecond)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case out <- struct{}{}:
				default:
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; external reloads degrade to
				// manual refresh.
			}
		}
	}()
	return out, nil
}
