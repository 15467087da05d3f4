// Package control funnels every external and local request (key presses,
// marker files, remote viewers, broker messages) into one ordered queue and
// resolves recording state with a single state machine.
package control

import "fmt"

// Kind identifies what is being requested.
type Kind int

const (
	Stop Kind = iota + 1
	StartRecording
	StopRecording
	ToggleRecording
	Calibrate
	Replay
)

var kindNames = map[Kind]string{
	Stop:            "stop",
	StartRecording:  "start-recording",
	StopRecording:   "stop-recording",
	ToggleRecording: "toggle-recording",
	Calibrate:       "calibrate",
	Replay:          "replay",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Origin records where a signal came from.
type Origin int

const (
	Key Origin = iota + 1
	Marker
	Remote
	Broker
)

func (o Origin) String() string {
	switch o {
	case Key:
		return "key"
	case Marker:
		return "marker"
	case Remote:
		return "remote"
	case Broker:
		return "broker"
	}
	return fmt.Sprintf("origin(%d)", int(o))
}

// Local reports whether the request was made at this process, in which case
// peers are told about the resulting action.
func (o Origin) Local() bool {
	return o == Key || o == Remote
}

// Signal is one queued request.
type Signal struct {
	Kind   Kind
	Origin Origin
}

func (s Signal) String() string {
	return s.Kind.String() + "/" + s.Origin.String()
}
