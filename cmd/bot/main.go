package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cs2-tracker/internal/bot"
	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	fxmodules "cs2-tracker/internal/fx"
	"cs2-tracker/internal/repository"
	"cs2-tracker/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer, runBot),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	apiServer *server.Server,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

func runBot(
	lc fx.Lifecycle,
	b *bot.Bot,
	source repository.EndpointSource,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := source.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing roster source")
			}
			if err := b.Stop(); err != nil {
				logger.Error().Err(err).Msg("discord session close failed")
				return err
			}
			logger.Info().Msg("bot stopped")
			return nil
		},
	})
}
