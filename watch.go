package stemcell

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/remotesyssupport/stemcell/repository"
)

// subscriber wraps a callback with a unique ID for reliable unsubscription.
type subscriber struct {
	id uint64
	fn func()
}

// Subscribe registers a callback invoked after every successful reload
// triggered by Watch. Returns an unsubscribe function that removes the
// callback; it is safe to call multiple times.
func (e *Expander) Subscribe(fn func()) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.subscribers {
			if sub.id == id {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notifySubscribers invokes all registered subscribers.
func (e *Expander) notifySubscribers() {
	e.mu.Lock()
	subscribers := append([]subscriber(nil), e.subscribers...)
	e.mu.Unlock()

	for _, sub := range subscribers {
		sub.fn()
	}
}

// WatchConfig configures the Watch behavior.
type WatchConfig struct {
	// DebounceDelay is the delay to wait for additional filesystem events
	// before triggering a reload, batching rapid successive changes.
	// Default: 100ms.
	DebounceDelay time.Duration

	// OnError is called when a watch or reload error occurs.
	// If nil, errors are silently dropped.
	OnError func(err error)
}

// DefaultWatchConfig returns the default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// Watch watches the configuration file and the roles directory for changes.
// On change, reloadable collaborators are reloaded and subscribers are
// notified. Watching stops when ctx is cancelled or the returned stop
// function is called.
//
// Watch only makes sense for filesystem-backed expanders: it watches the
// directories under the root path the Expander was constructed with. Role
// metadata is read from disk on every expansion, so for role files the
// reload step is notification only.
//
// Example:
//
//	stop, err := e.Watch(ctx, stemcell.DefaultWatchConfig())
//	if err != nil {
//	  return err
//	}
//	defer stop()
func (e *Expander) Watch(ctx context.Context, cfg WatchConfig) (stop func(), err error) {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultWatchConfig().DebounceDelay
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch directories rather than files so atomic replaces (write temp,
	// rename over target) are still observed.
	configDir := filepath.Dir(filepath.Join(e.rootPath, e.configFilename))
	if err := w.Add(configDir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", configDir, err)
	}
	rolesDir := filepath.Join(e.rootPath, repository.RolesDir)
	if rolesDir != configDir {
		// The roles directory may not exist yet; that is not fatal.
		if err := w.Add(rolesDir); err != nil && cfg.OnError != nil {
			cfg.OnError(fmt.Errorf("failed to watch %q: %w", rolesDir, err))
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go e.watchLoop(watchCtx, w, cfg, done)

	return func() {
		cancel()
		<-done
	}, nil
}

// watchLoop consumes filesystem events until ctx is cancelled, debouncing
// bursts into a single reload.
func (e *Expander) watchLoop(ctx context.Context, w *fsnotify.Watcher, cfg WatchConfig, done chan<- struct{}) {
	defer close(done)
	defer w.Close()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(cfg.DebounceDelay)
				fire = debounce.C
			} else {
				debounce.Reset(cfg.DebounceDelay)
			}

		case <-fire:
			debounce = nil
			fire = nil
			if err := e.reload(ctx); err != nil {
				if cfg.OnError != nil {
					cfg.OnError(err)
				}
				continue
			}
			e.notifySubscribers()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if cfg.OnError != nil {
				cfg.OnError(err)
			}
		}
	}
}

// reload re-reads reloadable collaborators.
func (e *Expander) reload(ctx context.Context) error {
	if r, ok := e.config.(Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return err
		}
	}
	if r, ok := e.roles.(Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return err
		}
	}
	return nil
}
