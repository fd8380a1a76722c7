// Package daemon runs continuous catalog builds: an initial build, then a
// full rebuild on every debounced source change and on the optional cron
// schedule. Builds are serialized; triggers arriving mid-build coalesce.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/runnerforge/internal/build"
	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/events"
	"git.home.luguber.info/inful/runnerforge/internal/history"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
	"git.home.luguber.info/inful/runnerforge/internal/metrics"
)

// Daemon owns the continuous-build loop and its optional side channels
// (metrics endpoint, NATS events, build history).
type Daemon struct {
	cfg       *config.Config
	service   *build.Service
	opts      build.Options
	watcher   *SourceWatcher
	scheduler *Scheduler
	publisher *events.Publisher
	store     *history.Store
	server    *http.Server
}

// New wires a daemon from the configuration. The recorder registry is
// exposed over HTTP when daemon.metrics_addr is set.
func New(cfg *config.Config, newService func(metrics.Recorder) *build.Service, opts build.Options) (*Daemon, error) {
	d := &Daemon{cfg: cfg, opts: opts}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Daemon.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
		d.server = &http.Server{Addr: cfg.Daemon.MetricsAddr, Handler: mux}
	}
	d.service = newService(recorder)

	watcher, err := NewSourceWatcher(cfg.Source, time.Duration(cfg.Daemon.DebounceMS)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	d.watcher = watcher

	if cfg.Daemon.Events.Enabled {
		publisher, err := events.NewPublisher(cfg.Daemon.Events)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("event publisher: %w", err)
		}
		d.publisher = publisher
	}

	if cfg.Daemon.History.Enabled {
		store, err := history.Open(cfg.Daemon.History.Path)
		if err != nil {
			d.closeChannels()
			return nil, fmt.Errorf("history store: %w", err)
		}
		d.store = store
	}

	return d, nil
}

// Run blocks until ctx is canceled. The first build runs immediately.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.closeChannels()

	if d.server != nil {
		go func() {
			slog.Info("Serving metrics", slog.String("addr", d.server.Addr))
			if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = d.server.Shutdown(shutdownCtx)
		}()
	}

	scheduleTrigger := make(chan struct{}, 1)
	if d.cfg.Daemon.Schedule != "" {
		scheduler, err := NewScheduler(d.cfg.Daemon.Schedule, func() {
			select {
			case scheduleTrigger <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return err
		}
		d.scheduler = scheduler
		d.scheduler.Start()
		defer func() { _ = d.scheduler.Stop() }()
	}

	go d.watcher.Run(ctx)

	d.buildOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case <-d.watcher.Triggers():
			slog.Info("Source change triggered rebuild")
			d.buildOnce(ctx)
		case <-scheduleTrigger:
			slog.Info("Schedule triggered rebuild")
			d.buildOnce(ctx)
		}
	}
}

// buildOnce runs one full build. A failed build keeps the daemon alive; the
// next trigger retries from scratch.
func (d *Daemon) buildOnce(ctx context.Context) {
	started := time.Now()
	res, err := d.service.Run(ctx, d.opts)

	outcome := "success"
	runners := 0
	epoch := int64(0)
	if err != nil {
		outcome = "failed"
		slog.Error("Daemon build failed", logfields.Error(err))
	} else {
		epoch = res.Epoch
		if res.Catalog != nil {
			runners = len(res.Catalog.Runners)
		}
	}
	duration := time.Since(started)

	if d.publisher != nil {
		d.publisher.Publish(events.BuildEvent{
			Epoch:    epoch,
			Outcome:  outcome,
			Runners:  runners,
			Duration: duration.Milliseconds(),
			At:       started,
		})
	}
	if d.store != nil {
		rec := history.Record{Epoch: epoch, Outcome: outcome, Runners: runners, Duration: duration, Started: started}
		if err := d.store.Append(ctx, rec); err != nil {
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}
}

func (d *Daemon) closeChannels() {
	if d.watcher != nil {
		_ = d.watcher.Close()
		d.watcher = nil
	}
	if d.publisher != nil {
		d.publisher.Close()
		d.publisher = nil
	}
	if d.store != nil {
		_ = d.store.Close()
		d.store = nil
	}
}
