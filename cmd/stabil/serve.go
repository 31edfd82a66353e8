package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stabil-sim/stabil/internal/api"
	"github.com/stabil-sim/stabil/internal/db"
	"github.com/stabil-sim/stabil/internal/monitoring"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	configureLogs(cfg)

	store, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return fmt.Errorf("failed to open session database: %w", err)
	}
	defer store.Close()

	env, err := newEnvironment(cfg, *devMode)
	if err != nil {
		return err
	}
	manager := api.NewManager(env.runner, env.sources, store)
	server := api.NewServer(manager, store, cfg.GetUserID())

	mux := server.ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    cfg.GetListen(),
		Handler: api.LoggingMiddleware(mux),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			log.Printf("session shutdown: %v", err)
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
	}()

	monitoring.Logf("listening on %s (dev=%v, db=%s)", cfg.GetListen(), *devMode, cfg.GetDBPath())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		wg.Wait()
		return fmt.Errorf("failed to start server: %w", err)
	}
	wg.Wait()
	log.Printf("Graceful shutdown complete")
	return nil
}
