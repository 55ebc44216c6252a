package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ibeckermayer/xsweep/internal/app"
	"github.com/ibeckermayer/xsweep/internal/auth"
	"github.com/ibeckermayer/xsweep/internal/config"
	"github.com/ibeckermayer/xsweep/internal/logging"
	"github.com/ibeckermayer/xsweep/internal/report"
	"github.com/ibeckermayer/xsweep/internal/scheduler"
	"github.com/ibeckermayer/xsweep/internal/xapi"
)

func main() {
	configPath := flag.String("config", "", "config file (default: user config dir)")
	dryRun := flag.Bool("dry-run", false, "only report what would be deleted")
	destructive := flag.Bool("delete", false, "really delete posts (asks for confirmation)")
	maxPosts := flag.Int("max", -1, "maximum posts to process (0 = all)")
	delay := flag.Duration("delay", 0, "pause between deletions")
	schedule := flag.Bool("schedule", false, "run on the configured cron schedule until interrupted")
	flag.Parse()

	cfg := loadConfig(*configPath)
	logging.Setup(cfg.Log.Level)

	opts := app.OptionsFromConfig(cfg)
	switch {
	case *dryRun:
		opts.DryRun = true
	case *destructive:
		opts.DryRun = false
	}
	if *maxPosts >= 0 {
		opts.Executor.MaxCount = *maxPosts
	}
	if *delay > 0 {
		opts.Executor.Delay = *delay
	}

	consumerKey, consumerSecret := cfg.Credentials()
	tokenStorePath, err := auth.DefaultTokenStorePath()
	if err != nil {
		slog.Error("Failed to get token store path", "error", err)
		os.Exit(1)
	}
	authManager := auth.NewManager(auth.NewTokenStore(tokenStorePath), consumerKey, consumerSecret)

	accessToken, accessSecret, err := authManager.AccessToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := xapi.NewOAuth1(consumerKey, consumerSecret, accessToken, accessSecret, xapi.Options{
		BaseURL:          cfg.API.BaseURL,
		RateLimitRetries: cfg.API.RateLimitRetries,
		MaxRateLimitWait: cfg.API.MaxRateLimitWait.Duration,
		Timeout:          cfg.API.RequestTimeout.Duration,
	})

	reports, err := report.New()
	if err != nil {
		slog.Error("Failed to build reports", "error", err)
		os.Exit(1)
	}

	a := app.New(cfg, client, reports, os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// A second Ctrl+C kills the process.
		<-ctx.Done()
		stop()
	}()

	if *schedule {
		os.Exit(runScheduled(ctx, cfg, a, opts))
	}

	_, err = a.Run(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "\n"+app.Explain(err))
		slog.Debug("run error", "error", err)
		if errors.Is(err, app.ErrAborted) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err == nil {
		return cfg
	}

	if os.IsNotExist(err) && path == "" {
		// First run - create default config
		cfg = config.Default()
		if err := cfg.Save(); err != nil {
			slog.Warn("Could not save default config", "error", err)
		} else {
			p, _ := config.ConfigPath()
			slog.Info("Created default config", "path", p)
		}
		return cfg
	}

	slog.Warn("Could not load config, using defaults", "error", err)
	return config.Default()
}

// runScheduled runs the cleanup on cfg.Schedule.Cron until ctx is done.
// Without schedule.unattended there is nobody to confirm, so runs stay dry.
func runScheduled(ctx context.Context, cfg *config.Config, a *app.App, opts app.Options) int {
	if !opts.DryRun && !cfg.Schedule.Unattended {
		slog.Warn("Scheduled runs are dry runs unless schedule.unattended = true")
		opts.DryRun = true
	}
	opts.Unattended = true

	s, err := scheduler.New(ctx, cfg.Schedule.Timezone)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		return 1
	}

	err = s.AddJob("cleanup", cfg.Schedule.Cron, func(ctx context.Context) error {
		_, err := a.Run(ctx, opts)
		return err
	})
	if err != nil {
		slog.Error("Failed to schedule cleanup", "error", err)
		return 1
	}

	s.Start()
	for _, job := range s.ListJobs() {
		slog.Info("Next run", "job", job.Name, "at", job.NextRun.Format(time.RFC1123))
	}

	<-ctx.Done()
	<-s.Stop().Done()
	return 0
}
