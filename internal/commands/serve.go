package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appLog "trainingcal/internal/log"
	"trainingcal/internal/scheduler"
	"trainingcal/internal/viewstate"
	"trainingcal/internal/web"
)

func addServe(topLevel *cobra.Command, ro *RootOptions) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar HTTP API.",
		Example: `
trainingcal serve --config ./trainingcal.yaml
trainingcal serve --listen 0.0.0.0:8080 --dev
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe(cmd.Context(), ro, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "",
		"HTTP listen address (overrides config if set).")

	topLevel.AddCommand(cmd)
}

func runServe(parent context.Context, ro *RootOptions, listen string) error {
	if parent == nil {
		parent = context.Background()
	}
	appLog.Info("trainingcal starting", "version", version)

	a, err := ro.load()
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", ro.ConfigPath)
		return err
	}
	cfg := a.cfg

	if listen != "" {
		cfg.Listen = listen
	}
	if cfg.Log.File != "" {
		closer := appLog.EnableFile(appLog.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		defer closer.Close()
	}

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"cache_ttl", cfg.CacheTTL().String(),
		"event_service", cfg.EventService.BaseURL != "",
		"ics_count", len(cfg.ICS),
		"state_dir", filepath.Clean(cfg.StateDir),
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	state := viewstate.NewDiskStore(cfg.StateDir)
	srv := web.NewServer(web.Options{
		Config:   cfg,
		Location: a.loc,
		Source:   a.source,
		Mutator:  a.mutator,
		State:    state,
	})

	if cfg.RefreshCron != "" {
		sched, err := scheduler.New(cfg.RefreshCron, state, srv)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			sched.Stop(stopCtx)
		}()
	}

	if err := srv.Run(ctx); err != nil {
		appLog.Error("http server failed", err, "listen", cfg.Listen)
		return err
	}
	appLog.Info("trainingcal exiting")
	return nil
}
