package kvstore

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the keys changed by another writer.
type ChangeCallback func(keys []string)

const watchDebounce = 200 * time.Millisecond

// Watch reports keys whose files were changed by another writer (a second
// process or a manual edit) until ctx is cancelled. Bursts of events are
// coalesced with a short debounce; writes made through f are ignored.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}

	logger.Info("kvstore watcher: started", slog.String("root", f.root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("kvstore watcher: stopped")
			return nil

		case <-timerCh:
			var keys []string
			for k := range pending {
				keys = append(keys, k)
			}
			clear(pending)
			if len(keys) > 0 && cb != nil {
				cb(keys)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := f.keyFromPath(ev.Name)
			if !ok {
				continue
			}
			data, readErr := os.ReadFile(ev.Name)
			if readErr != nil {
				continue
			}
			if !f.foreign(key, data) {
				continue
			}
			logger.Debug("kvstore watcher: external change", slog.String("key", key))
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("kvstore watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
