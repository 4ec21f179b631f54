package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/muniledger/internal/app"
	"github.com/MrJamesThe3rd/muniledger/internal/config"
	apiHttp "github.com/MrJamesThe3rd/muniledger/internal/http"
	documentHandler "github.com/MrJamesThe3rd/muniledger/internal/http/document"
	ingestHandler "github.com/MrJamesThe3rd/muniledger/internal/http/ingest"
	stagingHandler "github.com/MrJamesThe3rd/muniledger/internal/http/staging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var (
		documentH = documentHandler.NewHandler(a.Documents, cfg.Storage.UploadMaxBytes)
		ingestH   = ingestHandler.NewHandler(a.Ingest, a.Documents)
		stagingH  = stagingHandler.NewHandler(a.Staging)
	)

	router := apiHttp.New(documentH, ingestH, stagingH, apiHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr, "app", cfg.App.Name)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
