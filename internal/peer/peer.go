// Package peer manages the WebRTC connections of the preview: the recording
// host answers, remote viewers offer.
package peer

import (
	"encoding/json"
	"log"

	"github.com/pion/webrtc/v4"
)

// DefaultSTUN is used when no ICE servers are configured.
var DefaultSTUN = []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}

// NewPeerConnection creates a PeerConnection using the given STUN/TURN URLs.
// An empty list falls back to DefaultSTUN; "none" disables ICE servers for
// LAN-only use.
func NewPeerConnection(iceURLs []string) (*webrtc.PeerConnection, error) {
	if len(iceURLs) == 0 {
		iceURLs = DefaultSTUN
	}
	var servers []webrtc.ICEServer
	if !(len(iceURLs) == 1 && iceURLs[0] == "none") {
		servers = []webrtc.ICEServer{{URLs: iceURLs}}
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("peer connection state: %s", state.String())
	})
	return pc, nil
}

func addCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return pc.AddICECandidate(candidate)
}
