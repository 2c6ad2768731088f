package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mcdev12/draftroom/go/internal/draft/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "draftd",
		Short:        "Live fantasy draft server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(os.Getenv("LOG_LEVEL"))
		},
	}
	root.AddCommand(newServeCommand(), newCommishCommand(), newTokenCommand())
	return root
}

func setupLogging(level string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func newServeCommand() *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the draft engine with its websocket and RPC surfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if fixture != "" {
				cfg.FixturePath = fixture
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "league fixture file (overrides LEAGUE_FIXTURE)")
	return cmd
}

func serve(parent context.Context, cfg Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewPrometheus(reg)

	services, err := setupServices(ctx, cfg, m, metrics.Handler(reg))
	if err != nil {
		return err
	}
	defer services.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		services.Run(ctx)
	}()

	server := setupServer(cfg, services)
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("fixture", cfg.FixturePath).
			Bool("database", cfg.DatabaseEnabled).
			Msg("draft server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	case <-parent.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := services.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("draft engine shutdown failed")
	}
	cancel()
	<-done

	log.Info().Msg("draft server shutdown complete")
	return runErr
}
