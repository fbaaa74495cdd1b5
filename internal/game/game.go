// Package game implements the main game loop and state management.
package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/qslib/internal/assets"
	"github.com/Faultbox/qslib/internal/config"
	"github.com/Faultbox/qslib/internal/engine/audio"
	"github.com/Faultbox/qslib/internal/game/states"
	"github.com/Faultbox/qslib/internal/logger"
	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/datatable"
	"github.com/Faultbox/qslib/pkg/notifier"
)

// Game is the main game instance.
type Game struct {
	config  *config.Config
	events  *notifier.Notifier
	audio   *audio.Manager
	ctx     *states.Context
	machine *states.Machine
	log     *zap.Logger
}

// New creates a new game instance. out may be nil, in which case the mix
// is produced but not played.
func New(cfg *config.Config, out audio.Output) (*Game, error) {
	log := logger.Named("game")
	log.Info("initializing game",
		zap.Bool("audio", cfg.Audio.Enabled),
		zap.Int("tick_rate", cfg.Game.TickRate),
		zap.Int("tracks", len(cfg.Audio.Playlist)),
	)

	g := &Game{
		config: cfg,
		events: notifier.New(),
		log:    log,
	}

	g.audio = audio.New(audio.Options{
		SampleRate: cfg.Audio.SampleRate,
		SFXVoices:  cfg.Audio.SFXVoices,
		Events:     g.events,
		Logger:     logger.Named("audio"),
	})
	g.audio.SetMasterVolume(cfg.Audio.MasterVolume)
	g.audio.SetBGMVolume(cfg.Audio.MusicVolume)
	g.audio.SetSFXVolume(cfg.Audio.SFXVolume)
	g.audio.SetMuted(cfg.Audio.Muted)

	if cfg.Audio.Enabled && out != nil {
		if err := g.audio.Init(out); err != nil {
			return nil, fmt.Errorf("failed to init audio: %w", err)
		}
	}

	files := assets.NewManager()
	for _, dir := range cfg.Audio.AssetDirs {
		if err := files.AddRoot(dir); err != nil {
			return nil, err
		}
	}

	g.ctx = &states.Context{
		Audio:  &audioPort{Manager: g.audio, files: files, clips: assets.NewCache[*audio.Clip]()},
		Events: g.events,
		Data:   datatable.New(),
		Config: cfg,
		Log:    logger.Named("states"),
	}
	g.machine = states.NewMachine(g.ctx)

	log.Info("game initialized successfully")
	return g, nil
}

// Step advances the game by dt seconds.
func (g *Game) Step(dt float64) {
	g.machine.Update(dt)
	g.audio.Update(dt)
}

// Run ticks the game at the configured rate until the session ends or ctx
// is cancelled.
func (g *Game) Run(ctx context.Context) error {
	interval := g.config.TickInterval()
	if interval <= 0 {
		return errors.New("tick rate must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Timing
	lastTime := time.Now()
	frameCount := 0
	statsTimer := lastTime

	g.log.Info("starting game loop", zap.Duration("tick", interval))

	for !g.ctx.Done() {
		select {
		case <-ctx.Done():
			g.log.Info("game loop interrupted", zap.Error(ctx.Err()))
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			g.Step(dt)

			frameCount++
			if now.Sub(statsTimer) >= time.Second {
				g.log.Debug("ticks", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
				frameCount = 0
				statsTimer = now
			}
		}
	}

	g.log.Info("session finished")
	return nil
}

// Done reports whether the session has ended.
func (g *Game) Done() bool {
	return g.ctx.Done()
}

// State returns the kind of the current state.
func (g *Game) State() (states.Kind, bool) {
	cur := g.machine.Current()
	if cur == nil {
		return 0, false
	}
	return cur.Kind(), true
}

// Events returns the notifier game and audio messages are published on.
func (g *Game) Events() *notifier.Notifier {
	return g.events
}

// Audio returns the sound system.
func (g *Game) Audio() *audio.Manager {
	return g.audio
}

// Session returns the session data table.
func (g *Game) Session() *datatable.Table {
	return g.ctx.Data
}

// Close cleans up game resources.
func (g *Game) Close() {
	g.log.Info("closing game")
	g.machine.Clear(true)
	g.audio.Close()
}

// audioPort adapts the audio manager to the states. Clips are decoded once
// per path so a track listed twice is the same clip.
type audioPort struct {
	*audio.Manager
	files *assets.Manager
	clips *assets.Cache[*audio.Clip]
}

func (p *audioPort) Load(path string) (bgm.Clip, error) {
	if clip, ok := p.clips.Get(path); ok {
		return clip, nil
	}
	data, err := p.files.Load(path)
	if err != nil {
		return nil, err
	}
	clip, err := p.LoadClip(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	p.clips.Set(path, clip)
	return clip, nil
}
