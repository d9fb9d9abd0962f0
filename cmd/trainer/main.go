package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"landlord-rl/internal/config"
	"landlord-rl/internal/monitoring"
	"landlord-rl/internal/stats"
	"landlord-rl/internal/training"
	"landlord-rl/internal/web"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	actors := flag.Int("actors", -1, "Number of self-play actors (-1 to use config default)")
	totalFrames := flag.Uint64("total-frames", 0, "Stop after this many trained frames (0 to use config default)")
	checkpoint := flag.String("checkpoint", "", "Checkpoint file path (empty to use config default)")
	objective := flag.String("objective", "", "Training objective: winloss or margin (empty to use config default)")
	seed := flag.Int64("seed", -1, "Base RNG seed (-1 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Parse()

	// Load .env before reading any environment-backed settings
	_ = godotenv.Load()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}

	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *actors == -1 {
		*actors = cfg.Training.Actors
	}
	if *totalFrames == 0 {
		*totalFrames = cfg.Training.TotalFrames
	}
	if *checkpoint == "" {
		*checkpoint = cfg.Checkpoint.Path
	}
	if *objective == "" {
		*objective = cfg.Training.Objective
	}
	if *seed == -1 {
		*seed = cfg.Training.Seed
	}
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}

	// Setup logging
	setupLogging(*logLevel, cfg.Logging.Format)

	log.Info().
		Int("actors", *actors).
		Int("batch_size", cfg.Training.BatchSize).
		Str("objective", *objective).
		Uint64("total_frames", *totalFrames).
		Str("checkpoint", *checkpoint).
		Msg("Starting trainer")

	pipelineCfg := training.PipelineConfig{
		NumActors:           *actors,
		BatchSize:           cfg.Training.BatchSize,
		BufferBatches:       cfg.Training.BufferBatches,
		LearningRate:        float32(cfg.Training.LearningRate),
		Momentum:            float32(cfg.Training.Momentum),
		Epsilon:             cfg.Training.Epsilon,
		Objective:           *objective,
		TotalFrames:         *totalFrames,
		CheckpointPath:      *checkpoint,
		CheckpointInterval:  cfg.Checkpoint.IntervalDuration(),
		PushStallTimeout:    cfg.Training.PushStallTimeoutDuration(),
		MaxConsecutiveSkips: cfg.Training.MaxConsecutiveSkips,
		Seed:                *seed,
	}

	pipeline, err := training.NewPipeline(pipelineCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build training pipeline")
	}

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	var wg sync.WaitGroup

	// Optional stats recording
	if cfg.Stats.Enabled {
		dsn := os.Getenv(cfg.Stats.DSNEnv)
		if dsn == "" {
			log.Fatal().Str("env", cfg.Stats.DSNEnv).Msg("Stats enabled but DSN environment variable is empty")
		}
		db, err := stats.Open(ctx, dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to stats database")
		}
		defer db.Close()
		if err := stats.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate stats schema")
		}
		runID, err := db.InsertRun(ctx, cfg.Stats.RunName, *objective, *actors, cfg.Training.BatchSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to register training run")
		}
		log.Info().Int64("run_id", runID).Msg("Recording training statistics")

		recorder := stats.NewRecorder(db, runID, pipeline, cfg.Stats.IntervalDuration(), log.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(ctx)
		}()
	}

	// Optional status server
	if cfg.Server.Enabled {
		server := web.NewServer(cfg.Server.Addr, pipeline, log.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
	}

	monitor := monitoring.NewProgressMonitor(pipeline, 30*time.Second, log.Logger)
	monitor.Start()

	runErr := pipeline.Run(ctx)

	monitor.Stop()
	cancel()
	wg.Wait()

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Training pipeline failed")
	}
	log.Info().Uint64("total_frames", pipeline.TotalFrames()).Msg("Trainer shutdown complete")
}

func setupLogging(level, format string) {
	// Parse log level
	var logLevel zerolog.Level
	switch level {
	case "trace":
		logLevel = zerolog.TraceLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	if format == "json" {
		// JSON output for production
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Pretty console output for development
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
