package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagMute    = flag.Bool("mute", false, "Start with audio muted")
	flagTick    = flag.Int("tick", 0, "Game updates per second")
	flagSession = flag.Duration("session", 0, "Session length before shutdown")
	flagVolume  = flag.Float64("volume", -1, "Master volume (0.0 to 1.0)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMute {
		cfg.Audio.Muted = true
	}
	if *flagTick > 0 {
		cfg.Game.TickRate = *flagTick
	}
	if *flagSession > 0 {
		cfg.Game.SessionLength = *flagSession
	}
	if *flagVolume >= 0 {
		cfg.Audio.MasterVolume = *flagVolume
	}
}
