package input

import (
	"encoding/json"
	"fmt"
)

// Key identifies a key the viewer reacts to.
type Key string

const (
	KeyQ      Key = "q"
	KeyC      Key = "c"
	KeySpace  Key = "space"
	KeyEscape Key = "escape"
)

// EventType identifies the kind of input event.
type EventType string

const (
	EventKeyDown EventType = "key_down"
)

// KeyEvent is the wire format for key presses sent from a remote viewer over
// the control data channel.
type KeyEvent struct {
	Type EventType `json:"type"`
	Key  Key       `json:"key"`
}

// Marshal encodes a key-down event.
func Marshal(k Key) ([]byte, error) {
	return json.Marshal(KeyEvent{Type: EventKeyDown, Key: k})
}

// Parse decodes a key event and rejects anything but key-down of a known key.
func Parse(data []byte) (Key, error) {
	var evt KeyEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return "", err
	}
	if evt.Type != EventKeyDown {
		return "", fmt.Errorf("unsupported input event %q", evt.Type)
	}
	switch evt.Key {
	case KeyQ, KeyC, KeySpace, KeyEscape:
		return evt.Key, nil
	}
	return "", fmt.Errorf("unknown key %q", evt.Key)
}
