package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campfire-games/lobby-backend/internal/audit"
	"github.com/campfire-games/lobby-backend/internal/config"
	"github.com/campfire-games/lobby-backend/internal/directory"
	"github.com/campfire-games/lobby-backend/internal/dispatch"
	"github.com/campfire-games/lobby-backend/internal/handlers"
	"github.com/campfire-games/lobby-backend/internal/httpapi"
	"github.com/campfire-games/lobby-backend/internal/hub"
	"github.com/campfire-games/lobby-backend/internal/provision"
	"github.com/campfire-games/lobby-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var logger *zap.Logger
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exporter audit.Exporter = audit.Nop{}
	if cfg.AuditDBPath != "" {
		store, err := audit.Open(cfg.AuditDBPath)
		if err != nil {
			logger.Fatal("open audit store", zap.Error(err))
		}
		defer store.Close()
		exporter = store
	}

	dir := directory.New()
	d := dispatch.New()

	// The gateway is both the hub's prompt sink and the sessions' notifier,
	// so it is built first and bound to the hub afterwards.
	gw := ws.NewGateway(nil, d, dir, logger)
	h := hub.NewHub(ctx, hub.Options{Logger: logger, Sink: gw})
	gw.BindHub(h)

	handlers.RegisterAll(handlers.Deps{
		Base:           ctx,
		Hub:            h,
		Dispatch:       d,
		Provision:      provision.UUID{},
		Directory:      dir,
		Notifier:       gw,
		Audit:          exporter,
		Logger:         logger,
		BallotDuration: cfg.BallotDuration,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, d, gw),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
