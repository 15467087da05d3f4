package transport

// FrameSender sends encoded preview frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded preview frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}

// ControlSender sends serialized key events back to the host.
type ControlSender interface {
	SendControl(data []byte) error
}

// ControlReceiver receives serialized key events.
type ControlReceiver interface {
	OnControl(callback func(data []byte))
}
