// Package app wires configuration, logging, storage, the Telegram adapter and
// the background services into one process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"remindbot/internal/bot"
	"remindbot/internal/config"
	"remindbot/internal/digest"
	"remindbot/internal/notifier"
	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/storage"
	"remindbot/internal/transport"
	"remindbot/internal/transport/telegram"
	logx "remindbot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store    storage.Store
	adapter  *telegram.Adapter
	router   *bot.Router
	notifier *notifier.Service
	digest   *digest.Service

	sup *rtsup.Supervisor
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	mgr.SetValidator(config.Validate)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(loggingConfig(cfg))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	store, err := storage.Open(storageConfig(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	pollTimeout, _ := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	a := &App{
		cfgMgr:   mgr,
		logSvc:   logSvc,
		log:      log,
		store:    store,
		adapter:  adapter,
		router:   bot.NewRouter(store, adapter, log),
		notifier: notifier.New(notifierConfig(cfg), store, adapter, log),
		digest:   digest.New(digestConfig(cfg), store, adapter, log),
	}
	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log))

	updates := make(chan transport.Update, 256)
	if err := a.adapter.Start(ctx, updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}

	a.sup.Go0("bot.router", func(c context.Context) {
		a.router.Run(c, updates)
	})

	a.notifier.Start(ctx)

	if err := a.digest.Start(); err != nil {
		return fmt.Errorf("start digest: %w", err)
	}

	// Live-reload logging and notifier knobs on config file edits.
	a.sup.GoRestart("config.watch", func(c context.Context) error {
		return a.cfgMgr.Watch(c, a.applyConfig)
	})

	a.startSystemdNotify()
	a.log.Info("remindbot started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("shutting down")

	a.digest.Stop(ctx)
	if err := a.notifier.Stop(ctx); err != nil {
		a.log.Warn("notifier stop error", logx.Err(err))
	}
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("adapter stop error", logx.Err(err))
	}
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("supervisor stop error", logx.Err(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close error", logx.Err(err))
	}
	a.log.Info("shutdown complete")
	return a.logSvc.Close()
}

// applyConfig pushes reloadable settings into running services. Storage and
// the Telegram token require a restart and are deliberately not touched.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(loggingConfig(cfg))
	a.notifier.Apply(notifierConfig(cfg))
}

// startSystemdNotify reports readiness and, when the unit has WatchdogSec set,
// keeps the watchdog fed. Both are no-ops outside systemd.
func (a *App) startSystemdNotify() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify not available", logx.Err(err))
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-ticker.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

func loggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func storageConfig(cfg *config.Config) storage.Config {
	busy, _ := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}
}

func notifierConfig(cfg *config.Config) notifier.Config {
	enabled := true
	if cfg.Notifier.Enabled != nil {
		enabled = *cfg.Notifier.Enabled
	}
	interval, _ := config.ParseDurationOrDefault("notifier.interval", cfg.Notifier.Interval, 60*time.Second)
	sendTimeout, _ := config.ParseDurationOrDefault("notifier.send_timeout", cfg.Notifier.SendTimeout, 30*time.Second)
	return notifier.Config{
		Enabled:     enabled,
		Interval:    interval,
		RatePerSec:  cfg.Notifier.RatePerSec,
		SendTimeout: sendTimeout,
	}
}

func digestConfig(cfg *config.Config) digest.Config {
	return digest.Config{
		Enabled:  cfg.Digest.Enabled,
		Schedule: cfg.Digest.Schedule,
	}
}
