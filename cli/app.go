// ABOUTME: Shared CLI wiring
// ABOUTME: Builds the queue, entity store, decoder, connectivity monitor, and syncer from config
package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/purpledash/fieldsync/config"
	"github.com/purpledash/fieldsync/engine"
	"github.com/purpledash/fieldsync/metrics"
	"github.com/purpledash/fieldsync/queue"
	"github.com/purpledash/fieldsync/store"
	"github.com/purpledash/fieldsync/vindecode"
)

// App holds everything a command needs. Built once in main and torn down
// with Close.
type App struct {
	Config  *config.Config
	Queue   queue.Store
	Store   store.EntityStore
	Decoder vindecode.Decoder
	Monitor engine.ConnectivityMonitor
	Syncer  *engine.Syncer
	Metrics *metrics.Registry
}

// NewApp wires the application. With forceOffline the monitor is pinned
// offline and every submit goes straight to the queue.
func NewApp(cfg *config.Config, forceOffline bool) (*App, error) {
	q, err := openQueue(cfg)
	if err != nil {
		return nil, err
	}

	var st store.EntityStore
	if cfg.LocalMode() {
		sqlite, err := store.OpenSQLiteStore(cfg.SQLitePath())
		if err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("open local database: %w", err)
		}
		st = sqlite
	} else {
		st = store.NewRemoteStore(cfg.ServerURL, cfg.APIToken)
	}

	var decoder vindecode.Decoder
	if cfg.VinDecodeURL != "" {
		decoder = vindecode.NewHTTPDecoder(cfg.VinDecodeURL)
	}

	var monitor engine.ConnectivityMonitor
	if forceOffline {
		monitor = engine.NewStaticMonitor(false)
	} else if cfg.LocalMode() {
		// The local database is always reachable.
		monitor = engine.NewStaticMonitor(true)
	} else {
		probe := engine.NewProbeMonitor(st.Ping, cfg.SyncInterval())
		probe.Check(context.Background())
		monitor = probe
	}

	reg := metrics.NewRegistry()
	rec := engine.NewReconciler(st, decoder, monitor).WithMetrics(reg)
	syncer := engine.NewSyncer(q, rec, monitor).WithMetrics(reg).WithInterval(cfg.SyncInterval())

	return &App{
		Config:  cfg,
		Queue:   q,
		Store:   st,
		Decoder: decoder,
		Monitor: monitor,
		Syncer:  syncer,
		Metrics: reg,
	}, nil
}

func openQueue(cfg *config.Config) (queue.Store, error) {
	switch cfg.QueueBackend {
	case "badger", "":
		return queue.NewBadgerStore(cfg.QueueDir())
	case "pebble":
		return queue.NewPebbleStore(cfg.QueueDir())
	default:
		return nil, fmt.Errorf("unknown queue backend %q (want badger or pebble)", cfg.QueueBackend)
	}
}

func (a *App) Close() {
	if err := a.Queue.Close(); err != nil {
		log.Printf("close queue: %v", err)
	}
	if err := a.Store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
