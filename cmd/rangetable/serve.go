package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/henderiw/rangetable/pkg/payload"
	"github.com/henderiw/rangetable/pkg/rangetable"
	"github.com/henderiw/rangetable/pkg/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand returns the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the range table over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serveCommandFunc,
	}
}

func serveCommandFunc(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var initEntries []any
	if cfg.DefaultRangesFile != "" {
		raw, err := os.ReadFile(cfg.DefaultRangesFile)
		if err != nil {
			return err
		}
		if initEntries, err = payload.Decode(raw); err != nil {
			return err
		}
	}
	t, err := rangetable.NewWithEntries(cfg.MaxX, log, initEntries)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: net.JoinHostPort("", cfg.AppPort),
		Handler: server.NewRouter(t, log, server.Config{
			AllowOrigins:      cfg.AllowOrigins,
			MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Int64("maxX", cfg.MaxX), zap.Int("ranges", t.Count()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
