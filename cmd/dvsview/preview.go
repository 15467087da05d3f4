package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/peer"
	"github.com/junsooki/dvsview/internal/preview"
	"github.com/junsooki/dvsview/internal/signaling"
)

// startPreview registers as a host with the signaling server and streams
// the session to whichever viewer connects last. Keys typed on the viewer
// are handed to onKey.
func startPreview(ctx context.Context, cfg config.PreviewConfig, streamer *preview.Streamer, onKey func(input.Key)) func() {
	var (
		mu         sync.Mutex
		hostPeer   *peer.Host
		stopStream context.CancelFunc
		sig        *signaling.Client
	)

	closePeer := func() {
		if hostPeer != nil {
			stopStream()
			hostPeer.Close()
			hostPeer = nil
		}
	}

	sig = signaling.NewClient(cfg.SignalingURL, cfg.HostID, signaling.ClientTypeHost, signaling.Handler{
		OnRegistered: func() {
			log.Printf("Registered with signaling server. Share this ID with viewers: %s", cfg.HostID)
		},
		OnOffer: func(from string, payload json.RawMessage) {
			log.Printf("Received offer from %s", from)
			mu.Lock()
			defer mu.Unlock()
			closePeer()

			h, err := peer.NewHost(sig, cfg.ICEServers)
			if err != nil {
				log.Printf("create host peer: %v", err)
				return
			}
			h.Transport().OnControl(func(data []byte) {
				k, err := input.Parse(data)
				if err != nil {
					log.Printf("remote key: %v", err)
					return
				}
				onKey(k)
			})

			streamCtx, cancel := context.WithCancel(ctx)
			h.OnFramesOpen(func() {
				go streamer.Run(streamCtx, h.Transport())
			})
			if err := h.HandleOffer(from, payload); err != nil {
				log.Printf("handle offer: %v", err)
				cancel()
				h.Close()
				return
			}
			hostPeer, stopStream = h, cancel
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()
			if hostPeer != nil {
				if err := hostPeer.HandleICECandidate(payload); err != nil {
					log.Printf("handle ICE candidate: %v", err)
				}
			}
		},
		OnError: func(msg string) {
			log.Printf("signaling error: %s", msg)
		},
	})

	if err := sig.Connect(); err != nil {
		log.Printf("preview disabled: %v", err)
		return func() {}
	}

	return func() {
		mu.Lock()
		closePeer()
		mu.Unlock()
		sig.Close()
		st := streamer.Stats()
		log.Printf("preview: %d frames sent, %d dropped, %d failed", st.Sent, st.Dropped, st.Failed)
	}
}
