// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/config"
	"github.com/keshon/dsda-bot/internal/discord"
	"github.com/keshon/dsda-bot/internal/dsda"
	"github.com/keshon/dsda-bot/internal/metrics"
	"github.com/keshon/dsda-bot/internal/router"
	"github.com/keshon/dsda-bot/internal/storage"
	v "github.com/keshon/dsda-bot/internal/version"
	"github.com/keshon/dsda-bot/internal/watcher"
	"github.com/keshon/dsda-bot/pkg/jobmgr"
)

const watcherJob = "update-watcher"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := cfg.Logger()
	log.Infof("Starting %v bot %v...", v.AppName, v.Version)

	token, err := cfg.Token()
	if err != nil {
		log.WithError(err).Fatal("No Discord token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := dsda.NewHTTPClient(dsda.Config{
		BaseURL: cfg.DSDABaseURL,
		Rate:    cfg.DSDARate,
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create records site client")
	}

	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		log.WithError(err).Fatal("Failed to open marker store")
	}
	defer store.Close()

	rt := router.New(client, log,
		router.WithCommandPrefix(cfg.CommandPrefixes[0]+cfg.CommandGroup),
		router.WithMiddleware(
			router.WithCommandLogger(log.WithField("component", "commands")),
			router.WithMetrics(),
		),
	)

	bot, err := discord.New(token, rt, discord.Options{
		Prefixes:          cfg.CommandPrefixes,
		Group:             cfg.CommandGroup,
		InitSlashCommands: cfg.InitSlashCommands,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Discord bot")
	}

	w := watcher.New(client, store, bot.Sink(), watcher.Config{
		Destination: cfg.NotifyChannel,
		Interval:    cfg.PollInterval,
		Days:        cfg.Days,
		Message:     cfg.NotificationText(),
	}, log)

	jobs := jobmgr.NewManager(ctx, jobmgr.LogReporter(log))
	if err := jobs.StartAsync(watcherJob, w.Run); err != nil {
		log.WithError(err).Fatal("Failed to start update watcher")
	}
	log.Info(jobs.Status())

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Infof("Received signal %s, shutting down...", s)
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Discord bot error")
		}
	}
	cancel()

	if err := jobs.Stop(watcherJob); err != nil {
		log.WithError(err).Debug("Update watcher already stopped")
	}
	jobs.Wait()
	if err := <-errCh; err != nil {
		log.WithError(err).Warn("Discord session did not close cleanly")
	}

	log.Info("Discord bot exited cleanly")
}
