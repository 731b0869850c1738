package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"linkshort/internal/config"
	"linkshort/internal/handler"
	"linkshort/internal/logger"
	"linkshort/internal/repository"
	"linkshort/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	l := logger.Init(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.Open(ctx, cfg, l)
	cancel()
	if err != nil {
		l.Error("open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	svc := service.NewService(store, l, service.Options{
		ShortLen:        cfg.Shortener.CodeLength,
		MaxAttempts:     cfg.Shortener.MaxAttempts,
		RetryOnConflict: cfg.Shortener.RetryOnConflict,
	})
	h := handler.NewHandler(svc, l)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler.Middleware(h.Routes(), l, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     logger.StdLogger(l, slog.LevelWarn),
	}

	serverErrors := make(chan error, 1)
	go func() {
		l.Info("server listening", "addr", srv.Addr, "driver", cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			l.Error("server error", "error", err)
			exitCode = 1
		}
	case sig := <-quit:
		l.Info("shutting down server", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := srv.Shutdown(ctx); err != nil {
			l.Error("server shutdown", "error", err)
			_ = srv.Close()
			exitCode = 1
		}
		cancel()
	}

	if err := store.Close(); err != nil {
		l.Error("close store", "error", err)
		exitCode = 1
	}
	l.Info("server stopped")
	os.Exit(exitCode)
}
