package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/livespiff/livespiffd/internal/config"
	"github.com/livespiff/livespiffd/internal/daemon"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.config/livespiff/daemon.yaml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg.LogLevel)

	clock := clockwork.NewRealClock()
	svc := daemon.NewService(clock)

	if cfg.RunFile != "" {
		if ok, msg := svc.LoadRun(cfg.RunFile); !ok {
			log.Warn().Str("path", cfg.RunFile).Str("reason", msg).Msg("startup run not loaded, keeping default run")
		}
	}

	handler := daemon.NewHandler(svc)
	stream := daemon.NewStreamHandler(svc, clock, time.Duration(cfg.StreamIntervalMs)*time.Millisecond)
	srv := daemon.NewServer(cfg.Listen, handler, stream)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		// Includes the duplicate-instance case: a second daemon must not
		// keep running beside the first.
		log.Fatal().Err(err).Msg("daemon exited")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}
