package services

import (
	"context"
	"errors"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 500 * time.Millisecond

// Refresher drives catalog refreshes: once at start, on every tick, on
// directory change events when watching is enabled, and on demand.
type Refresher struct {
	reconciler *Reconciler
	interval   time.Duration
	watch      bool
	log        zerolog.Logger
}

func NewRefresher(reconciler *Reconciler, interval time.Duration, watch bool, log zerolog.Logger) *Refresher {
	return &Refresher{
		reconciler: reconciler,
		interval:   interval,
		watch:      watch,
		log:        log.With().Str("component", "refresher").Logger(),
	}
}

// RefreshNow runs one refresh pass and returns its outcome.
func (r *Refresher) RefreshNow(ctx context.Context) (Result, error) {
	return r.reconciler.Refresh(ctx)
}

// Run blocks until ctx is cancelled. Failed passes are logged and retried
// on the next trigger.
func (r *Refresher) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	r.refresh(ctx, "startup")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if r.watch {
		watcher, err := r.newWatcher()
		if err != nil {
			r.log.Warn().Err(err).Msg("directory watch unavailable, polling only")
		} else {
			defer watcher.Close()
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	// debounce fires once a burst of filesystem events has settled
	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.refresh(ctx, "interval")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("directory event")
			debounce.Reset(watchDebounce)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			r.log.Warn().Err(err).Msg("directory watch error")
		case <-debounce.C:
			r.refresh(ctx, "watch")
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, trigger string) {
	res, err := r.reconciler.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.log.Error().Err(err).Str("trigger", trigger).Msg("catalog refresh failed")
		return
	}
	r.log.Debug().
		Str("trigger", trigger).
		Int("total", res.Total).
		Msg("catalog refreshed")
}

func (r *Refresher) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(r.reconciler.scanner.Dir()); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}
