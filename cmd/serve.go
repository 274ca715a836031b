package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/humcp/humcp/internal/config"
	"github.com/humcp/humcp/internal/dependency"
)

var (
	servePort   int
	serveFilter string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the humcp server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveFilter, "tools-config", "", "Tool filter YAML path (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveFilter != "" {
		cfg.FilterPath = serveFilter
	}

	// The whole catalog is built here, before anything listens. Discovery,
	// filter, and registration failures abort startup.
	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	slog.Info("Registry frozen", "tools", container.Registry().Len(),
		"categories", len(container.Registry().Categories()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Periodic skills rescan so SKILL.md edits show up without a restart.
	// The registry itself stays frozen.
	if spec := cfg.Server.SkillsRefresh; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if err := container.Skills().Refresh(); err != nil {
				slog.Warn("Skills refresh failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid skills refresh spec %q: %w", spec, err)
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: container.Server().Router(),
	}

	g.Go(func() error {
		slog.Info("Serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}
