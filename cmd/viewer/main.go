package main

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/decoder"
	"github.com/junsooki/dvsview/internal/display"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/peer"
	"github.com/junsooki/dvsview/internal/signaling"
)

func main() {
	cfg := config.ParseViewerFlags()

	if cfg.HostID == "" {
		log.Fatal("Usage: dvsview-viewer -signaling <url> -host <host-id>")
	}

	log.Printf("dvsview viewer starting")
	log.Printf("  Viewer ID:   %s", cfg.ViewerID)
	log.Printf("  Signaling:   %s", cfg.SignalingURL)
	log.Printf("  Target host: %s", cfg.HostID)

	dec := decoder.NewJPEGDecoder()
	disp := display.NewEbitenDisplay("dvsview viewer: " + cfg.HostID)

	var (
		mu         sync.Mutex
		viewerPeer *peer.Viewer
	)
	current := func() *peer.Viewer {
		mu.Lock()
		defer mu.Unlock()
		return viewerPeer
	}

	// Keys pressed in the window go back to the host.
	go func() {
		for k := range disp.Keys() {
			v := current()
			if v == nil {
				continue
			}
			data, err := input.Marshal(k)
			if err != nil {
				continue
			}
			if err := v.Transport().SendControl(data); err != nil {
				log.Printf("send key %s: %v", k, err)
			}
		}
	}()

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL, cfg.ViewerID, signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() {
			log.Println("Registered with signaling server")

			v, err := peer.NewViewer(sig, cfg.HostID, cfg.ICEServers)
			if err != nil {
				log.Printf("create viewer peer: %v", err)
				os.Exit(1)
			}

			var w, h int
			v.Transport().OnFrame(func(data []byte) {
				img, err := dec.Decode(data)
				if err != nil {
					return
				}
				if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
					w, h = b.Dx(), b.Dy()
					disp.Resize(w, h)
				}
				disp.Show(img)
			})

			mu.Lock()
			viewerPeer = v
			mu.Unlock()

			if err := v.Connect(); err != nil {
				log.Printf("viewer connect: %v", err)
			}
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if v := current(); v != nil {
				if err := v.HandleAnswer(payload); err != nil {
					log.Printf("handle answer: %v", err)
				}
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if v := current(); v != nil {
				if err := v.HandleICECandidate(payload); err != nil {
					log.Printf("handle ICE candidate: %v", err)
				}
			}
		},
		OnHostDisconnected: func(hostID string) {
			if hostID == cfg.HostID {
				log.Printf("Host %s disconnected", hostID)
				disp.Close()
			}
		},
		OnError: func(msg string) {
			log.Printf("signaling error: %s", msg)
		},
	})

	if err := sig.Connect(); err != nil {
		log.Fatalf("signaling connect: %v", err)
	}
	defer sig.Close()

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	if err := disp.Run(); err != nil {
		log.Fatalf("display: %v", err)
	}

	if v := current(); v != nil {
		v.Close()
	}
}
