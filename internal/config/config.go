// Package config handles qsdemo configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Audio   AudioConfig   `yaml:"audio" envPrefix:"AUDIO_"`
	Game    GameConfig    `yaml:"game" envPrefix:"GAME_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	SampleRate   int     `yaml:"sample_rate" env:"SAMPLE_RATE"`
	MasterVolume float64 `yaml:"master_volume" env:"MASTER_VOLUME"`
	MusicVolume  float64 `yaml:"music_volume" env:"MUSIC_VOLUME"`
	SFXVolume    float64 `yaml:"sfx_volume" env:"SFX_VOLUME"`
	Muted        bool    `yaml:"muted" env:"MUTED"`
	SFXVoices    int     `yaml:"sfx_voices" env:"SFX_VOICES"`

	// Searched for relative clip paths, last one first
	AssetDirs    []string      `yaml:"asset_dirs" env:"ASSET_DIRS" envSeparator:","`
	LoopPlaylist bool          `yaml:"loop_playlist" env:"LOOP_PLAYLIST"`
	TitleTrack   string        `yaml:"title_track" env:"TITLE_TRACK"`
	Playlist     []TrackConfig `yaml:"playlist"`
}

// TrackConfig is one BGM playlist entry.
type TrackConfig struct {
	Path      string        `yaml:"path"`
	Crossfade time.Duration `yaml:"crossfade"` // Fade-in time of this track
}

// GameConfig holds game loop settings.
type GameConfig struct {
	// Updates per second
	TickRate      int           `yaml:"tick_rate" env:"TICK_RATE"`
	TitleDuration time.Duration `yaml:"title_duration" env:"TITLE_DURATION"`
	// 0 runs until interrupted
	SessionLength time.Duration `yaml:"session_length" env:"SESSION_LENGTH"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" env:"LEVEL"`
	LogFile string `yaml:"log_file" env:"FILE"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Enabled:      true,
			SampleRate:   44100,
			MasterVolume: 0.8,
			MusicVolume:  0.7,
			SFXVolume:    0.8,
			Muted:        false,
			SFXVoices:    8,
			LoopPlaylist: true,
		},
		Game: GameConfig{
			TickRate:      60,
			TitleDuration: 5 * time.Second,
			SessionLength: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TickInterval returns the time between two game updates.
func (c *Config) TickInterval() time.Duration {
	if c.Game.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Game.TickRate)
}

// Validate checks value ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	volumes := []struct {
		name string
		v    float64
	}{
		{"audio.master_volume", c.Audio.MasterVolume},
		{"audio.music_volume", c.Audio.MusicVolume},
		{"audio.sfx_volume", c.Audio.SFXVolume},
	}
	for _, vol := range volumes {
		if vol.v < 0 || vol.v > 1 {
			return fmt.Errorf("%w: %s %.2f out of range [0,1]", ErrInvalid, vol.name, vol.v)
		}
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio.sample_rate must be positive", ErrInvalid)
	}
	if c.Audio.SFXVoices < 0 {
		return fmt.Errorf("%w: audio.sfx_voices must not be negative", ErrInvalid)
	}
	for i, track := range c.Audio.Playlist {
		if track.Path == "" {
			return fmt.Errorf("%w: audio.playlist[%d] has no path", ErrInvalid, i)
		}
		if track.Crossfade < 0 {
			return fmt.Errorf("%w: audio.playlist[%d] crossfade is negative", ErrInvalid, i)
		}
	}
	if c.Game.TickRate <= 0 {
		return fmt.Errorf("%w: game.tick_rate must be positive", ErrInvalid)
	}
	if c.Game.TitleDuration < 0 || c.Game.SessionLength < 0 {
		return fmt.Errorf("%w: game durations must not be negative", ErrInvalid)
	}
	return nil
}
