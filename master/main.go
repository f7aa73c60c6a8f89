package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/shared/logging"
	"go.uber.org/zap"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	ttl := flag.Duration("ttl", 90*time.Second, "Relay TTL before expiry")
	flag.Parse()

	log := logging.Must(config.Log)
	defer log.Sync()
	log = log.Named("master")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := NewRegistry(*ttl, log)
	go reg.Run(30*time.Second, ctx.Done())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: newMux(reg, log),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting", zap.String("addr", srv.Addr), zap.Duration("ttl", *ttl))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("fatal", zap.Error(err))
	}
}
