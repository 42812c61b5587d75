package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/triage/internal/config"
	"github.com/ehr/triage/internal/domain/collect"
	"github.com/ehr/triage/internal/domain/triage"
	"github.com/ehr/triage/internal/platform/middleware"
	"github.com/ehr/triage/internal/platform/remote"
	"github.com/ehr/triage/internal/platform/simulator"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Patient risk triage pipeline",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(simulateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, classify and submit a patient risk assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runPipeline(dryRun)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Build the assessment without submitting it")
	return cmd
}

func runPipeline(dryRun bool) error {
	logger := newLogger().With().Str("run_id", uuid.New().String()).Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.ValidateRun(); err != nil {
		logger.Fatal().Err(err).Msg("incomplete config")
	}

	ctx := context.Background()

	client := remote.NewClient(cfg.APIBaseURL, cfg.APIKey, logger,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		remote.WithPageLimit(cfg.PageLimit),
		remote.WithBackoff(cfg.RateLimitBaseDelay, cfg.TransientRetryDelay),
	)

	collector := collect.New(client, collect.Options{
		MaxPages:        cfg.MaxPages,
		FirstPassBudget: cfg.FirstPassRetries,
		RecoveryBudget:  cfg.RecoveryRetries,
		DedupPolicy:     cfg.DedupPolicy,
	}, logger)

	result := collector.Collect(ctx)
	report := triage.Classify(result.Records)

	logger.Info().
		Int("patients", len(result.Records)).
		Int("lost_pages", len(result.LostPages)).
		Int("high_risk", len(report.HighRiskPatients)).
		Int("fever", len(report.FeverPatients)).
		Int("data_quality", len(report.DataQualityIssues)).
		Msg("assessment built")

	if dryRun {
		logger.Info().Msg("dry run, skipping submission")
		return nil
	}

	// A submission failure is reported to the operator, never retried,
	// and the run still ends normally.
	if err := client.SubmitAssessment(ctx, report); err != nil {
		logger.Error().Err(err).Msg("assessment submission failed")
	}
	return nil
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated patient service for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulator()
		},
	}
	return cmd
}

func runSimulator() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	simCfg := simulator.DefaultConfig()
	simCfg.Seed = cfg.SimSeed
	if cfg.APIKey != "" {
		simCfg.APIKey = cfg.APIKey
	}
	sim := simulator.New(simCfg, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	sim.Register(e)

	go func() {
		logger.Info().
			Str("port", cfg.SimPort).
			Str("api_key", simCfg.APIKey).
			Int("patients", len(sim.Patients())).
			Msg("simulator listening")
		if err := e.Start(":" + cfg.SimPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("simulator failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("simulator stopped")
	return nil
}
