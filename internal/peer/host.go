package peer

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/dvsview/internal/signaling"
	"github.com/junsooki/dvsview/internal/transport"
)

// Host manages the recording side of a preview connection. The viewer is
// the offerer and creates both data channels; the host answers and adopts
// them.
type Host struct {
	pc        *webrtc.PeerConnection
	sig       *signaling.Client
	transport *transport.DataChannelTransport

	mu     sync.Mutex
	peerID string // the viewer we're connected to
	onOpen func()
}

// NewHost creates a Host peer manager.
func NewHost(sig *signaling.Client, iceURLs []string) (*Host, error) {
	pc, err := NewPeerConnection(iceURLs)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil, nil),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		log.Printf("data channel received: %s", dc.Label())
		switch dc.Label() {
		case transport.LabelFrames:
			dc.OnOpen(func() {
				log.Println("frames data channel open")
				h.mu.Lock()
				cb := h.onOpen
				h.mu.Unlock()
				if cb != nil {
					cb()
				}
			})
			h.transport.SetFramesChannel(dc)
		case transport.LabelControl:
			h.transport.SetControlChannel(dc)
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		h.mu.Lock()
		target := h.peerID
		h.mu.Unlock()
		if c == nil || target == "" {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			log.Printf("marshal ICE candidate: %v", err)
			return
		}
		_ = sig.SendICECandidate(target, data)
	})

	return h, nil
}

// Transport returns the DataChannelTransport for sending frames and receiving keys.
func (h *Host) Transport() *transport.DataChannelTransport {
	return h.transport
}

// OnFramesOpen registers a callback run once the frames channel is usable.
func (h *Host) OnFramesOpen(cb func()) {
	h.mu.Lock()
	h.onOpen = cb
	h.mu.Unlock()
}

// HandleOffer processes an incoming offer from a viewer.
func (h *Host) HandleOffer(from string, payload json.RawMessage) error {
	h.mu.Lock()
	h.peerID = from
	h.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}
	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return h.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(h.pc, payload)
}

// Close shuts down the peer connection.
func (h *Host) Close() {
	if h.pc != nil {
		h.pc.Close()
	}
}
