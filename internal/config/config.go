// Package config handles preview configuration loading and management.
package config

// Config holds all preview settings.
type Config struct {
	Camera      CameraConfig      `yaml:"camera"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Estimator   EstimatorConfig   `yaml:"estimator"`
	Display     DisplayConfig     `yaml:"display"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Frame sources.
const (
	SourceSynthetic = "synthetic"
	SourceV4L2      = "v4l2"
)

// CameraConfig holds capture settings.
type CameraConfig struct {
	Source             string `yaml:"source"` // synthetic or v4l2
	Device             string `yaml:"device"`
	Width              int    `yaml:"width"`
	Height             int    `yaml:"height"`
	FPS                int    `yaml:"fps"`
	MaxProcessingWidth int    `yaml:"max_processing_width"`
	Autofocus          bool   `yaml:"autofocus"`
}

// CalibrationConfig holds camera intrinsics in processing-resolution pixels.
// Zero focal lengths select the default calibration.
type CalibrationConfig struct {
	Fx         float64   `yaml:"fx"`
	Fy         float64   `yaml:"fy"`
	Cx         float64   `yaml:"cx"`
	Cy         float64   `yaml:"cy"`
	Distortion []float64 `yaml:"distortion"`
}

// IsSet reports whether explicit intrinsics were configured.
func (c CalibrationConfig) IsSet() bool {
	return c.Fx != 0 || c.Fy != 0
}

// EstimatorConfig holds pose estimator settings.
type EstimatorConfig struct {
	Mode         string  `yaml:"mode"`
	ReplayFile   string  `yaml:"replay_file"`
	TagConfig    string  `yaml:"tag_config"`
	OmitUnlisted bool    `yaml:"omit_unlisted"`
	MarkerSize   float64 `yaml:"marker_size"`
	Preset       string  `yaml:"preset"`
}

// DisplayConfig holds window settings.
type DisplayConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	ShowFPS    bool   `yaml:"show_fps"`
}

// SnapshotConfig holds snapshot export settings.
type SnapshotConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	Format string `yaml:"format"` // png or jpg
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Source:             SourceSynthetic,
			Device:             "/dev/video0",
			Width:              640,
			Height:             480,
			FPS:                30,
			MaxProcessingWidth: 640,
			Autofocus:          true,
		},
		Estimator: EstimatorConfig{
			Mode:       "track_and_detect",
			MarkerSize: 20,
			Preset:     "fast",
		},
		Display: DisplayConfig{
			Title:  "tagoverlay",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Snapshot: SnapshotConfig{
			Dir:    "snapshots",
			Prefix: "tagoverlay",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
