package peer

import (
	"encoding/json"
	"log"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/dvsview/internal/signaling"
	"github.com/junsooki/dvsview/internal/transport"
)

// Viewer manages the remote preview side of the connection.
type Viewer struct {
	pc        *webrtc.PeerConnection
	sig       *signaling.Client
	transport *transport.DataChannelTransport
	hostID    string
}

// NewViewer creates a Viewer peer manager and its data channels.
func NewViewer(sig *signaling.Client, hostID string, iceURLs []string) (*Viewer, error) {
	pc, err := NewPeerConnection(iceURLs)
	if err != nil {
		return nil, err
	}

	// Frames are disposable: a late preview frame is worse than a lost one.
	framesOrdered := false
	framesMaxRetransmits := uint16(0)
	framesDC, err := pc.CreateDataChannel(transport.LabelFrames, &webrtc.DataChannelInit{
		Ordered:        &framesOrdered,
		MaxRetransmits: &framesMaxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	controlOrdered := true
	controlDC, err := pc.CreateDataChannel(transport.LabelControl, &webrtc.DataChannelInit{
		Ordered: &controlOrdered,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}
	controlDC.OnOpen(func() {
		log.Println("control data channel open")
	})

	v := &Viewer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(framesDC, controlDC),
		hostID:    hostID,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			log.Printf("marshal ICE candidate: %v", err)
			return
		}
		_ = sig.SendICECandidate(hostID, data)
	})

	return v, nil
}

// Transport returns the DataChannelTransport.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := v.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return v.sig.SendOffer(v.hostID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	return v.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
}
