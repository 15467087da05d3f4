package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junsooki/dvsview/internal/broker"
	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/control"
	"github.com/junsooki/dvsview/internal/display"
	"github.com/junsooki/dvsview/internal/encoder"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/launcher"
	"github.com/junsooki/dvsview/internal/marker"
	"github.com/junsooki/dvsview/internal/preview"
	"github.com/junsooki/dvsview/internal/prompt"
	"github.com/junsooki/dvsview/internal/session"
	"github.com/junsooki/dvsview/internal/snapshot"
	"github.com/junsooki/dvsview/internal/source/csvfile"
	"github.com/junsooki/dvsview/internal/source/sim"
)

func main() {
	cfg := config.ParseFlags()

	mode, path, err := choose(cfg)
	if errors.Is(err, prompt.ErrCancelled) {
		log.Println("Cancelled")
		return
	}
	if err != nil {
		log.Fatalf("select session: %v", err)
	}

	log.Printf("dvsview starting")
	log.Printf("  Mode:       %s", mode)
	log.Printf("  File:       %s", path)
	log.Printf("  Markers:    %s", cfg.MarkerDir)
	log.Printf("  Host ID:    %s", cfg.Preview.HostID)
	if cfg.Preview.Enabled {
		log.Printf("  Signaling:  %s", cfg.Preview.SignalingURL)
	}
	if cfg.Broker.Address != "" {
		log.Printf("  Broker:     %s (%s)", cfg.Broker.Address, cfg.Broker.Topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if mode == config.ModeExport {
		runExport(ctx, cfg, path)
		return
	}

	markers, err := marker.NewDir(cfg.MarkerDir)
	if err != nil {
		log.Fatalf("markers: %v", err)
	}
	if err := markers.Clear(); err != nil {
		log.Printf("clear markers: %v", err)
	}

	queue := control.NewQueue(control.DefaultQueueSize)
	watcher := marker.NewWatcher(markers, queue)
	if err := watcher.Start(); err != nil {
		log.Printf("marker notifications unavailable, polling only: %v", err)
	}
	defer watcher.Close()

	announcers := control.Announcers{markers}
	if cfg.Broker.Address != "" {
		bridge := broker.NewBridge(cfg.Broker, queue)
		if err := bridge.Connect(); err != nil {
			log.Printf("broker disabled: %v", err)
		} else {
			defer bridge.Close()
			announcers = append(announcers, bridge)
		}
	}

	env := session.Env{
		Queue:     queue,
		Announcer: announcers,
		Watcher:   watcher,
		Markers:   markers,
	}

	replay := mode == config.ModeReplay
	if cfg.Preview.Enabled {
		streamer := preview.NewStreamer(encoder.NewJPEGEncoder(cfg.Preview.Quality), cfg.Preview.FPS)
		env.Preview = streamer
		closePreview := startPreview(ctx, cfg.Preview, streamer, func(k input.Key) {
			if kind, ok := session.KeyKind(replay, k); ok {
				queue.Post(control.Signal{Kind: kind, Origin: control.Remote})
			}
		})
		defer closePreview()
	}

	helpers := launcher.New(cfg.Helpers.Interpreter)
	setup, peerScript := cfg.Helpers.RecordSetup, cfg.Helpers.RecordPeer
	if replay {
		setup, peerScript = cfg.Helpers.ReplaySetup, cfg.Helpers.ReplayPeer
	}
	if err := helpers.Run(ctx, setup); err != nil {
		log.Printf("helper %s: %v", setup, err)
	}
	// The peer helper exits on the stop marker, not on session end.
	helper, err := helpers.Detach(ctx, peerScript)
	if err != nil {
		log.Printf("helper %s: %v", peerScript, err)
	}

	var window *display.EbitenDisplay
	if cfg.Headless {
		env.Display = display.NewHeadless()
	} else {
		window = display.NewEbitenDisplay("dvsview " + mode)
		env.Display = window
	}

	var run func(context.Context) error
	if replay {
		reader, err := csvfile.Open(path)
		if err != nil {
			log.Fatalf("open recording: %v", err)
		}
		defer reader.Close()
		run = session.NewReplay(cfg.Replay, reader, env).Run
	} else {
		calib, err := snapshot.NewSaver(cfg.CalibrationDir)
		if err != nil {
			log.Fatalf("calibration dir: %v", err)
		}
		run = session.NewLive(cfg.Camera, cameras(cfg.Camera), path, calib, env).Run
	}

	if window == nil {
		if err := run(ctx); err != nil {
			log.Printf("session: %v", err)
		}
	} else {
		// Ebitengine RunGame must be on the main goroutine.
		done := make(chan error, 1)
		go func() {
			done <- run(ctx)
			window.Close()
		}()
		if err := window.Run(); err != nil {
			log.Printf("display: %v", err)
		}
		stop()
		if err := <-done; err != nil {
			log.Printf("session: %v", err)
		}
	}

	if helper != nil {
		log.Println("Waiting for helper to exit...")
		helper.Wait()
	}
	log.Println("Shutting down...")
}

// choose resolves the session mode and file, asking on the terminal for
// whatever the flags left open.
func choose(cfg *config.Config) (string, string, error) {
	p := prompt.New(os.Stdin, os.Stdout)
	mode := cfg.Mode
	if mode == "" {
		m, exp, err := p.Menu()
		if err != nil {
			return "", "", err
		}
		mode = m
		if exp != nil {
			cfg.Export.Count, cfg.Export.Interval = exp.Count, exp.Interval
		}
	}

	var path string
	var err error
	switch {
	case mode == config.ModeRecord && cfg.FileName != "":
		path, err = prompt.RecordingPath(cfg.RecordingDir, cfg.FileName, cfg.Overwrite)
	case mode == config.ModeRecord:
		path, err = p.NewRecording(cfg.RecordingDir)
	case cfg.FileName != "":
		path, err = prompt.ExistingPath(cfg.RecordingDir, cfg.FileName)
	default:
		path, err = p.ExistingRecording(cfg.RecordingDir)
	}
	if err != nil {
		return "", "", err
	}
	if mode == config.ModeRecord {
		if err := os.MkdirAll(cfg.RecordingDir, 0755); err != nil {
			return "", "", err
		}
	}
	return mode, path, nil
}

// cameras returns the camera manager. Without a vendor driver the viewer
// runs against one simulated camera.
func cameras(cfg config.CameraConfig) *sim.Manager {
	mgr := sim.NewManager()
	mgr.Plug(sim.NewCamera("sim-0", cfg.Width, cfg.Height, 10*time.Millisecond))
	return mgr
}

func runExport(ctx context.Context, cfg *config.Config, path string) {
	reader, err := csvfile.Open(path)
	if err != nil {
		log.Fatalf("open recording: %v", err)
	}
	defer reader.Close()

	saver, err := snapshot.NewSaver(cfg.ExportDir)
	if err != nil {
		log.Fatalf("export dir: %v", err)
	}
	n, err := session.NewExport(cfg.Export, cfg.Replay.Window, reader, saver).Run(ctx)
	if err != nil {
		log.Printf("export: %v", err)
	}
	log.Printf("Saved %d images to %s", n, cfg.ExportDir)
}
