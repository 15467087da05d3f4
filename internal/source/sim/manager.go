package sim

import (
	"fmt"
	"sync"

	"github.com/junsooki/dvsview/internal/source"
)

// Manager exposes a set of simulated cameras that can be plugged and unplugged.
type Manager struct {
	mu      sync.Mutex
	cameras map[string]*Camera
	order   []string
}

func NewManager() *Manager {
	return &Manager{cameras: make(map[string]*Camera)}
}

// Plug makes a camera discoverable.
func (m *Manager) Plug(cam *Camera) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cameras[cam.serial]; !ok {
		m.order = append(m.order, cam.serial)
	}
	m.cameras[cam.serial] = cam
}

// Unplug disconnects and removes a camera.
func (m *Manager) Unplug(serial string) {
	m.mu.Lock()
	cam, ok := m.cameras[serial]
	delete(m.cameras, serial)
	for i, s := range m.order {
		if s == serial {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if ok {
		cam.Disconnect()
	}
}

func (m *Manager) Cameras() []source.Description {
	m.mu.Lock()
	defer m.mu.Unlock()
	descs := make([]source.Description, 0, len(m.order))
	for _, s := range m.order {
		descs = append(descs, source.Description{Manufacturer: "sim", Serial: s})
	}
	return descs
}

func (m *Manager) Open(serial string) (source.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cam, ok := m.cameras[serial]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", serial, source.ErrNoCamera)
	}
	return cam, nil
}
