package operation

import "sync"

// Memory is a backend that only remembers what it was told. Used for
// `backend: none` and in tests.
type Memory struct {
	mu         sync.Mutex
	brightness int
	alpha      int
	err        error
}

func NewMemory(brightness int) *Memory {
	return &Memory{brightness: brightness}
}

// Fail makes every following call return err until Fail(nil).
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Brightness() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brightness, m.err
}

func (m *Memory) SetBrightness(percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.brightness = percent
	return nil
}

func (m *Memory) SetOverlayAlpha(alpha int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alpha = alpha
	return nil
}

func (m *Memory) Alpha() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alpha
}
