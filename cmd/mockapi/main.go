package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dscott-devops/chunky-loadgen/internal/config"
	"github.com/dscott-devops/chunky-loadgen/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":9000", "Listen address")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	server := &http.Server{
		Addr:    *addr,
		Handler: mockapi.New(cfg.UserPassword).Handler(),
	}

	go func() {
		logrus.WithField("addr", *addr).Info("Mock sports-content API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
}
