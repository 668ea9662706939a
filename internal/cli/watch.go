package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/balchk/internal/server"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check the balance on a schedule and notify on changes",
	Long: `watch runs the --notify check on the schedule.cron expression until it is
interrupted. With --serve (or server.enabled) it also serves the status API.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("schedule", "", "cron expression (default from config)")
	watchCmd.Flags().Bool("serve", false, "serve the status API")
	watchCmd.Flags().String("listen", "", "status API listen address (default from config)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if schedule, _ := cmd.Flags().GetString("schedule"); schedule != "" {
		cfg.Schedule.Cron = schedule
	}
	if serve, _ := cmd.Flags().GetBool("serve"); serve {
		cfg.Server.Enabled = true
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	logger := newLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	check := func() {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		result, err := a.checker.Run(runCtx, a.creds)
		if err != nil {
			logger.Error("scheduled check failed", "error", err)
			return
		}
		if result.Decision.ShouldNotify {
			logger.Info("notification sent",
				"reason", result.Decision.Reason,
				"delivered", result.Delivered,
				"failed", result.Failed,
			)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.Schedule.Cron, check); err != nil {
		return fmt.Errorf("register schedule %q: %w", cfg.Schedule.Cron, err)
	}

	var srv *http.Server
	errCh := make(chan error, 1)
	if cfg.Server.Enabled {
		api := server.NewServer(a.checker, a.creds, logger)
		srv = &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      api.Handler(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		}
		go func() {
			logger.Info("status api started", "listen", cfg.Server.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if cfg.Schedule.RunOnStart {
		check()
	}

	c.Start()
	logger.Info("watch started", "schedule", cfg.Schedule.Cron)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	<-c.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("watch stopped")
	return runErr
}
