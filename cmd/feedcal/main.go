package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"feedcal/internal/agg"
	"feedcal/internal/config"
	"feedcal/internal/ics"
	appLog "feedcal/internal/log"
	"feedcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
}

func main() {
	appLog.Info("feedcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"window_days", conf.WindowDays,
		"sources_path", conf.SourcesPath,
		"jobs_path", conf.JobsPath,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sources := config.NewSourceStore(conf.SourcesPath)
	cache := ics.NewCache(ics.NewFetcher(), ics.DefaultCacheCapacity, ics.DefaultFreshness, nil)
	collector := agg.NewCollector(cache)
	server := web.NewServer(conf, sources, collector)

	// Periodic refresh keeps the default-window response warm so API
	// callers rarely pay the fetch cost themselves.
	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() { server.Refresh(ctx) }); err != nil {
		appLog.Error("invalid refresh schedule; periodic refresh disabled", err, "refresh", conf.RefreshCron)
	} else {
		sched.Start()
		defer sched.Stop()
	}

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}

	appLog.Info("feedcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/feedcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")

	flag.Parse()

	return cfg
}
