package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/junsooki/dvsview/internal/control"
)

// Request is the payload accepted on <topic>/request.
type Request struct {
	Signal string `json:"signal"`
}

// Announcement is the payload published on <topic>/announce.
type Announcement struct {
	Signal    string `json:"signal"`
	Host      string `json:"host"`
	Timestamp string `json:"timestamp"`
}

// requestable lists the signals peers may ask for over the broker. Toggle
// and replay only make sense as local keys.
var requestable = map[control.Kind]bool{
	control.Stop:           true,
	control.StartRecording: true,
	control.StopRecording:  true,
	control.Calibrate:      true,
}

// DecodeRequest parses a request payload.
func DecodeRequest(payload []byte) (control.Kind, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return 0, fmt.Errorf("decode request: %w", err)
	}
	k, ok := control.ParseKind(req.Signal)
	if !ok || !requestable[k] {
		return 0, fmt.Errorf("unsupported signal %q", req.Signal)
	}
	return k, nil
}

// EncodeAnnouncement builds an announcement payload.
func EncodeAnnouncement(k control.Kind, host string, at time.Time) ([]byte, error) {
	return json.Marshal(Announcement{
		Signal:    k.String(),
		Host:      host,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	})
}
