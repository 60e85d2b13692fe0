package window

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/input"
)

// BindingWatcher reloads a bindings file when it changes on disk.
type BindingWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*input.Bindings)
	done     chan struct{}
	once     sync.Once
}

// NewBindingWatcher watches path and calls onChange with every successful
// reload. The parent directory is watched so editors that replace the file
// by rename are still seen.
func NewBindingWatcher(path string, onChange func(*input.Bindings)) (*BindingWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "resolve bindings path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "create file watcher")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "watch bindings directory")
	}

	w := &BindingWatcher{
		path:     abs,
		watcher:  watcher,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *BindingWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			b, err := input.LoadBindings(w.path)
			if err != nil {
				Logger().Warn("bindings reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			Logger().Info("bindings reloaded", zap.String("path", w.path))
			w.onChange(b)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("bindings watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *BindingWatcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}
