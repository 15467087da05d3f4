package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Modes selectable with -mode. Empty means ask on the terminal.
const (
	ModeRecord = "record"
	ModeReplay = "replay"
	ModeExport = "export"
)

// Config holds all runtime configuration for the viewer.
type Config struct {
	Mode      string `yaml:"mode"`
	FileName  string `yaml:"file"`
	Overwrite bool   `yaml:"overwrite"`
	Headless  bool   `yaml:"headless"`

	RecordingDir   string `yaml:"recording_dir"`
	MarkerDir      string `yaml:"marker_dir"`
	CalibrationDir string `yaml:"calibration_dir"`
	ExportDir      string `yaml:"export_dir"`

	Camera  CameraConfig  `yaml:"camera"`
	Replay  ReplayConfig  `yaml:"replay"`
	Export  ExportConfig  `yaml:"export"`
	Helpers HelperConfig  `yaml:"helpers"`
	Preview PreviewConfig `yaml:"preview"`
	Broker  BrokerConfig  `yaml:"broker"`
}

// CameraConfig covers live sessions.
type CameraConfig struct {
	FPS               int           `yaml:"fps"`
	BatchEvents       int           `yaml:"batch_events"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`

	// Size of the simulated camera.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ReplayConfig covers file playback. Times are in microseconds.
type ReplayConfig struct {
	FPS    int   `yaml:"fps"`
	Window int64 `yaml:"window_us"`
	Step   int64 `yaml:"step_us"`
}

// ExportConfig selects how PNGs are taken from a recording: either Count
// images spread over the recording, or one every Interval microseconds.
type ExportConfig struct {
	Count    int   `yaml:"count"`
	Interval int64 `yaml:"interval_us"`
}

// HelperConfig names the helper scripts run around each session.
// An empty path skips that helper.
type HelperConfig struct {
	Interpreter string `yaml:"interpreter"`
	RecordSetup string `yaml:"record_setup"`
	RecordPeer  string `yaml:"record_peer"`
	ReplaySetup string `yaml:"replay_setup"`
	ReplayPeer  string `yaml:"replay_peer"`
}

// PreviewConfig controls remote preview streaming over WebRTC. ICEServers
// lists STUN/TURN URLs; empty uses public STUN, "none" disables.
type PreviewConfig struct {
	Enabled      bool     `yaml:"enabled"`
	SignalingURL string   `yaml:"signaling_url"`
	HostID       string   `yaml:"host_id"`
	FPS          int      `yaml:"fps"`
	Quality      int      `yaml:"quality"`
	ICEServers   []string `yaml:"ice_servers"`
}

// BrokerConfig enables the MQTT control bridge when Address is set.
type BrokerConfig struct {
	Address  string `yaml:"address"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RecordingDir:   "recordings",
		MarkerDir:      "recordings/temp",
		CalibrationDir: "recordings/cali/dvsense",
		ExportDir:      "recordings/dvsense",
		Camera: CameraConfig{
			FPS:               30,
			BatchEvents:       10000,
			ReconnectInterval: time.Second,
			Width:             640,
			Height:            480,
		},
		Replay: ReplayConfig{
			FPS:    25,
			Window: 10000,
			Step:   40000,
		},
		Helpers: HelperConfig{
			Interpreter: "python3",
		},
		Preview: PreviewConfig{
			SignalingURL: "ws://localhost:8080/ws",
			FPS:          15,
			Quality:      70,
		},
		Broker: BrokerConfig{
			Topic: "dvsview",
		},
	}
}

// ParseFlags parses the process arguments.
func ParseFlags() *Config {
	LoadEnv()
	cfg, err := Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse layers defaults, an optional YAML file and explicitly set flags, in
// that order.
func Parse(args []string) (*Config, error) {
	cfg := Default()
	flags := flag.NewFlagSet("dvsview", flag.ContinueOnError)

	configPath := flags.String("config", os.Getenv("DVSVIEW_CONFIG"), "YAML configuration file")
	flags.StringVar(&cfg.Mode, "mode", "", "record | replay | export (empty shows a menu)")
	flags.StringVar(&cfg.FileName, "file", "", "Recording file name inside the recording dir (must end with .raw)")
	flags.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing recording without asking")
	flags.BoolVar(&cfg.Headless, "headless", false, "Run without a window")
	flags.StringVar(&cfg.RecordingDir, "recordings", cfg.RecordingDir, "Recording directory")
	flags.StringVar(&cfg.MarkerDir, "markers", cfg.MarkerDir, "Marker directory shared with helper scripts")
	flags.StringVar(&cfg.CalibrationDir, "cali", cfg.CalibrationDir, "Calibration snapshot directory")
	flags.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "PNG export directory")
	flags.IntVar(&cfg.Camera.FPS, "fps", cfg.Camera.FPS, "Live display frames per second")
	flags.IntVar(&cfg.Camera.BatchEvents, "batch", cfg.Camera.BatchEvents, "Events per camera batch")
	flags.IntVar(&cfg.Camera.Width, "width", cfg.Camera.Width, "Simulated sensor width")
	flags.IntVar(&cfg.Camera.Height, "height", cfg.Camera.Height, "Simulated sensor height")
	flags.DurationVar(&cfg.Camera.ReconnectInterval, "reconnect", cfg.Camera.ReconnectInterval, "Camera reconnect poll interval")
	flags.IntVar(&cfg.Replay.FPS, "replay-fps", cfg.Replay.FPS, "Replay frames per second")
	flags.Int64Var(&cfg.Replay.Window, "window", cfg.Replay.Window, "Replay read window (us)")
	flags.Int64Var(&cfg.Replay.Step, "step", cfg.Replay.Step, "Replay time advance per frame (us)")
	flags.IntVar(&cfg.Export.Count, "count", 0, "Export: number of PNGs spread over the recording")
	flags.Int64Var(&cfg.Export.Interval, "interval", 0, "Export: one PNG every interval (us)")
	flags.StringVar(&cfg.Helpers.Interpreter, "python", cfg.Helpers.Interpreter, "Interpreter for helper scripts")
	flags.BoolVar(&cfg.Preview.Enabled, "preview", false, "Stream the display to remote viewers")
	flags.StringVar(&cfg.Preview.SignalingURL, "signaling", envOr("DVSVIEW_SIGNALING", cfg.Preview.SignalingURL), "Signaling server WebSocket URL")
	flags.StringVar(&cfg.Preview.HostID, "id", "", "Host ID (auto-generated if empty)")
	flags.Func("ice", "Comma-separated STUN/TURN URLs for the preview (\"none\" for LAN only)", func(v string) error {
		cfg.Preview.ICEServers = splitList(v)
		return nil
	})
	flags.IntVar(&cfg.Preview.FPS, "preview-fps", cfg.Preview.FPS, "Preview frames per second (1-60)")
	flags.IntVar(&cfg.Preview.Quality, "quality", cfg.Preview.Quality, "Preview JPEG quality (1-100)")
	flags.StringVar(&cfg.Helpers.RecordSetup, "record-setup", "", "Helper run before a live session")
	flags.StringVar(&cfg.Helpers.RecordPeer, "record-peer", "", "Helper run alongside a live session")
	flags.StringVar(&cfg.Helpers.ReplaySetup, "replay-setup", "", "Helper run before a replay")
	flags.StringVar(&cfg.Helpers.ReplayPeer, "replay-peer", "", "Helper run alongside a replay")
	flags.StringVar(&cfg.Broker.Address, "broker", os.Getenv("DVSVIEW_BROKER"), "MQTT broker host:port (empty disables)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if *configPath != "" {
		if err := cfg.load(*configPath); err != nil {
			return nil, err
		}
		// Flags given on the command line win over the file.
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
	}

	if cfg.Preview.HostID == "" {
		cfg.Preview.HostID = "dvs-" + uuid.NewString()[:8]
	}
	if cfg.Broker.ClientID == "" {
		cfg.Broker.ClientID = cfg.Preview.HostID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and combinations.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeRecord, ModeReplay, ModeExport:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Camera.FPS < 1 || c.Camera.FPS > 120 {
		return fmt.Errorf("fps must be 1-120, got %d", c.Camera.FPS)
	}
	if c.Replay.FPS < 1 || c.Replay.FPS > 120 {
		return fmt.Errorf("replay fps must be 1-120, got %d", c.Replay.FPS)
	}
	if c.Camera.Width < 1 || c.Camera.Width > math.MaxUint16 || c.Camera.Height < 1 || c.Camera.Height > math.MaxUint16 {
		return fmt.Errorf("camera size must be 1-%d per side, got %dx%d", math.MaxUint16, c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.BatchEvents <= 0 {
		return fmt.Errorf("batch must be positive, got %d", c.Camera.BatchEvents)
	}
	if c.Camera.ReconnectInterval <= 0 {
		return errors.New("reconnect interval must be positive")
	}
	if c.Replay.Window <= 0 || c.Replay.Step <= 0 {
		return fmt.Errorf("replay window and step must be positive, got %d/%d", c.Replay.Window, c.Replay.Step)
	}
	if c.Export.Count < 0 || c.Export.Interval < 0 {
		return errors.New("export count and interval must not be negative")
	}
	if c.Export.Count > 0 && c.Export.Interval > 0 {
		return errors.New("export: set either count or interval, not both")
	}
	if c.RecordingDir == "" || c.MarkerDir == "" {
		return errors.New("recording and marker directories are required")
	}
	if c.Preview.Enabled && c.Preview.SignalingURL == "" {
		return errors.New("preview needs a signaling URL")
	}
	if c.Preview.FPS < 1 || c.Preview.FPS > 60 {
		return fmt.Errorf("preview fps must be 1-60, got %d", c.Preview.FPS)
	}
	return nil
}

// ViewerConfig holds configuration for the remote viewer binary.
type ViewerConfig struct {
	SignalingURL string
	ViewerID     string
	HostID       string
	ICEServers   []string
}

// ParseViewerFlags parses flags for the viewer binary.
func ParseViewerFlags() *ViewerConfig {
	LoadEnv()
	cfg := &ViewerConfig{}
	flag.StringVar(&cfg.SignalingURL, "signaling", envOr("DVSVIEW_SIGNALING", "ws://localhost:8080/ws"), "Signaling server WebSocket URL")
	flag.StringVar(&cfg.ViewerID, "id", "", "Viewer ID (auto-generated if empty)")
	flag.StringVar(&cfg.HostID, "host", "", "Host ID to connect to (required)")
	ice := flag.String("ice", os.Getenv("DVSVIEW_ICE"), "Comma-separated STUN/TURN URLs (\"none\" for LAN only)")
	flag.Parse()

	cfg.ICEServers = splitList(*ice)

	if cfg.ViewerID == "" {
		cfg.ViewerID = "viewer-" + uuid.NewString()[:8]
	}
	return cfg
}

// SignalingConfig holds configuration for the signaling server binary.
type SignalingConfig struct {
	Addr string
}

// ParseSignalingFlags parses flags for the signaling server.
func ParseSignalingFlags() *SignalingConfig {
	LoadEnv()
	cfg := &SignalingConfig{}
	flag.StringVar(&cfg.Addr, "addr", envOr("DVSVIEW_SIGNALING_ADDR", ":8080"), "Listen address")
	flag.Parse()
	return cfg
}

// LoadEnv loads a .env file from the working directory if there is one.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
