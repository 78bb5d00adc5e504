package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/router"
	"github.com/blueprinthub/gateway/internal/store"
	"github.com/blueprinthub/gateway/internal/tools"
)

func main() {
	cfg := config.Load()

	s, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("store open: %v", err)
	}
	defer s.Close()

	if err := s.Migrate(); err != nil {
		log.Fatalf("store migrate: %v", err)
	}
	log.Println("database migrations applied")

	cache := store.NewAccessCache(cfg)
	objects, err := store.NewObjects(cfg)
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}

	registry, err := tools.LoadRegistry(cfg)
	if err != nil {
		log.Fatalf("tools registry: %v", err)
	}

	handler := router.New(cfg, s, cache, objects, registry)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams need unlimited write timeout
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gateway listening on :%s (driver=%s)", cfg.Port, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-done
	log.Println("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("stopped")
}
