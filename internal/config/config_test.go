package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Camera.FPS != 30 || cfg.Replay.FPS != 25 {
		t.Errorf("fps = %d/%d, want 30/25", cfg.Camera.FPS, cfg.Replay.FPS)
	}
	if cfg.Replay.Window != 10000 || cfg.Replay.Step != 40000 {
		t.Errorf("replay window/step = %d/%d, want 10000/40000", cfg.Replay.Window, cfg.Replay.Step)
	}
	if cfg.Camera.BatchEvents != 10000 || cfg.Camera.ReconnectInterval != time.Second {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if !strings.HasPrefix(cfg.Preview.HostID, "dvs-") {
		t.Errorf("HostID = %q, want dvs- prefix", cfg.Preview.HostID)
	}
	if cfg.Broker.ClientID != cfg.Preview.HostID {
		t.Errorf("broker client id = %q, want host id", cfg.Broker.ClientID)
	}
}

func TestParseFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dvsview.yaml")
	yml := `
mode: replay
recording_dir: /data/rec
camera:
  fps: 20
  reconnect_interval: 3s
replay:
  step_us: 20000
helpers:
  interpreter: /usr/bin/python3
  replay_setup: read1.py
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"-config", path, "-fps", "10", "-file", "a.raw"})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Mode != ModeReplay {
		t.Errorf("Mode = %q, want replay from file", cfg.Mode)
	}
	if cfg.Camera.FPS != 10 {
		t.Errorf("FPS = %d, want flag value 10", cfg.Camera.FPS)
	}
	if cfg.Camera.ReconnectInterval != 3*time.Second {
		t.Errorf("ReconnectInterval = %v, want 3s", cfg.Camera.ReconnectInterval)
	}
	if cfg.Replay.Step != 20000 || cfg.Replay.Window != 10000 {
		t.Errorf("replay = %+v, want step from file and default window", cfg.Replay)
	}
	if cfg.RecordingDir != "/data/rec" || cfg.FileName != "a.raw" {
		t.Errorf("RecordingDir/FileName = %q/%q", cfg.RecordingDir, cfg.FileName)
	}
	if cfg.Helpers.ReplaySetup != "read1.py" || cfg.Helpers.Interpreter != "/usr/bin/python3" {
		t.Errorf("helpers = %+v", cfg.Helpers)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"-mode", "dance"}},
		{"fps zero", []string{"-fps", "0"}},
		{"count and interval", []string{"-count", "3", "-interval", "1000"}},
		{"negative window", []string{"-window", "-1"}},
		{"missing config file", []string{"-config", "/nonexistent/dvsview.yaml"}},
		{"unknown flag", []string{"-nope"}},
		{"zero width", []string{"-width", "0"}},
		{"height too large", []string{"-height", "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.args); err == nil {
				t.Errorf("Parse(%v) succeeded, want error", tt.args)
			}
		})
	}
}
