package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Data channel labels.
const (
	LabelFrames  = "frames"
	LabelControl = "control"
)

var ErrChannelNotSet = errors.New("data channel not set")

// DataChannelTransport carries preview frames and control keys over two
// WebRTC DataChannels.
type DataChannelTransport struct {
	mu        sync.RWMutex
	framesDC  *webrtc.DataChannel
	controlDC *webrtc.DataChannel

	onFrame   func(data []byte)
	onControl func(data []byte)
}

// NewDataChannelTransport wraps two DataChannels. Either may be nil and set
// later when the remote side announces it.
func NewDataChannelTransport(framesDC, controlDC *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if controlDC != nil {
		t.SetControlChannel(controlDC)
	}
	return t
}

func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.mu.RLock()
	dc := t.framesDC
	t.mu.RUnlock()
	if dc == nil {
		return ErrChannelNotSet
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) SendControl(data []byte) error {
	t.mu.RLock()
	dc := t.controlDC
	t.mu.RUnlock()
	if dc == nil {
		return ErrChannelNotSet
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnControl(cb func(data []byte)) {
	t.mu.Lock()
	t.onControl = cb
	t.mu.Unlock()
}

// SetFramesChannel sets or replaces the frames DataChannel.
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.RLock()
		cb := t.onFrame
		t.mu.RUnlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}

// SetControlChannel sets or replaces the control DataChannel.
func (t *DataChannelTransport) SetControlChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.controlDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.RLock()
		cb := t.onControl
		t.mu.RUnlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}

var (
	_ FrameSender     = (*DataChannelTransport)(nil)
	_ FrameReceiver   = (*DataChannelTransport)(nil)
	_ ControlSender   = (*DataChannelTransport)(nil)
	_ ControlReceiver = (*DataChannelTransport)(nil)
)
