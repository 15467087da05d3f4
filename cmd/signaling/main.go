package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/signaling"
)

func main() {
	cfg := config.ParseSignalingFlags()

	log.Printf("dvsview signaling starting")
	log.Printf("  Listen: %s", cfg.Addr)

	mux := http.NewServeMux()
	mux.Handle("/ws", signaling.NewServer())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("signaling server: %v", err)
	}
}
