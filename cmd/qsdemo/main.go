// Package main is the entry point for the qsdemo music player.
//
// qsdemo boots, loops a title track, then plays the configured playlist
// with crossfades until the session length is up or it is interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/qslib/internal/config"
	"github.com/Faultbox/qslib/internal/engine/audio"
	"github.com/Faultbox/qslib/internal/engine/audio/device"
	"github.com/Faultbox/qslib/internal/game"
	"github.com/Faultbox/qslib/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()
	os.Exit(run(&device.Speaker{}))
}

// run plays one session on out and returns the process exit code. Deferred
// cleanup has finished by the time it returns.
func run(out audio.Output) int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	log := logger.Named("qsdemo")
	log.Info("=== qsdemo ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// Create and run game
	g, err := game.New(cfg, out)
	if err != nil {
		log.Error("failed to create game", zap.Error(err))
		return 1
	}
	defer g.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := g.Run(ctx); err != nil {
		log.Error("game error", zap.Error(err))
		return 1
	}

	log.Info("game closed normally")
	return 0
}
