package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagSource     = flag.String("source", "", "Frame source: synthetic or v4l2")
	flagDevice     = flag.String("device", "", "V4L2 device node")
	flagCapWidth   = flag.Int("capture-width", 0, "Requested capture width")
	flagCapHeight  = flag.Int("capture-height", 0, "Requested capture height")
	flagReplay     = flag.String("replay", "", "Replay file with scripted detections")
	flagMode       = flag.String("mode", "", "Detection mode")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
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
		cfg.Display.ShowFPS = true
	}
	if *flagSource != "" {
		cfg.Camera.Source = *flagSource
	}
	if *flagDevice != "" {
		cfg.Camera.Device = *flagDevice
		if *flagSource == "" {
			cfg.Camera.Source = SourceV4L2
		}
	}
	if *flagCapWidth > 0 {
		cfg.Camera.Width = *flagCapWidth
	}
	if *flagCapHeight > 0 {
		cfg.Camera.Height = *flagCapHeight
	}
	if *flagReplay != "" {
		cfg.Estimator.ReplayFile = *flagReplay
	}
	if *flagMode != "" {
		cfg.Estimator.Mode = *flagMode
	}
	if *flagWindowed {
		cfg.Display.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Display.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Display.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Display.Height = *flagHeight
	}
}
