package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/haiintel/dashboard/internal/analysis/match"
	"github.com/haiintel/dashboard/internal/config"
	"github.com/haiintel/dashboard/internal/handler"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/response"
	"github.com/haiintel/dashboard/internal/service/auth"
	"github.com/haiintel/dashboard/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(nil, "info").Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.NewFromFormat(cfg.Log.Format, cfg.Log.Level)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	responses, err := loadResponses(cfg.Chat.ResponsesFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load response table")
	}

	authSvc, err := auth.NewService(cfg.Auth, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	router := handler.NewRouter(handler.Deps{
		Config:    cfg,
		Auth:      authSvc,
		Responses: responses,
		Matcher:   match.New(responses),
		Scopes:    storage.NewMemoryRegistry(cfg.Chat.StorageQuota),
		Log:       log,
	})

	startServer(ctx, cfg.Server, router, log)
}

func loadResponses(path string, log *logging.Logger) (*response.Table, error) {
	if path == "" {
		return response.MustDefault(), nil
	}
	table, err := response.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("responses", table.Len()).Msg("loaded response table")
	return table, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *logging.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("HaiIntel dashboard listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
