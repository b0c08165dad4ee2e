package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"homedash/internal/dashboard"
	"homedash/internal/history"
	"homedash/internal/monitor"
	"homedash/internal/server"
	"homedash/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and monitor configured apps.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backend, err := storage.Open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = backend.Close() }()

	store := dashboard.NewStore(a.logger, backend)
	if err := store.Load(ctx); err != nil {
		return err
	}

	recorder := history.NewRecorder(history.DefaultRetention)
	board := monitor.NewStatusBoard(recorder)
	checker := a.newChecker()

	scheduler, err := monitor.New(monitor.Dependencies{
		Logger:   a.logger,
		Apps:     store,
		Checker:  checker,
		Internet: a.newInternetChecker(),
		Board:    board,
	}, a.cfg.Monitor.Interval())
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	followDone := make(chan struct{})
	go func() {
		defer close(followDone)
		monitor.Follow(ctx, scheduler, store)
	}()

	srv, err := server.New(a.cfg.Addr, server.Dependencies{
		Logger:         a.logger,
		Store:          store,
		Board:          board,
		Checker:        checker,
		History:        recorder,
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown", "error", err)
		}
	}()

	a.logger.Info("homedash starting",
		"addr", a.cfg.Addr,
		"backend", a.cfg.Storage.Backend,
		"interval", a.cfg.Monitor.Interval(),
	)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-followDone
		return fmt.Errorf("server error: %w", err)
	}
	<-followDone
	a.logger.Info("shutdown complete")
	return nil
}
