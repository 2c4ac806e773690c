package drivetrain

import (
	"fmt"
	"sync"

	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Outputs is one set of wheel commands.
type Outputs struct {
	Left, Right, Bottom float64
}

// MockHAL stands in for motor controllers and the gyro. It records every
// output written and can be told to reject writes.
type MockHAL struct {
	mu      sync.Mutex
	history []Outputs
	angle   float64
	fail    error
}

var _ HAL = (*MockHAL)(nil)

func NewMockHAL() *MockHAL {
	return &MockHAL{}
}

func (h *MockHAL) SetOutputs(left, right, bottom float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fail != nil {
		return h.fail
	}
	for _, v := range []float64{left, right, bottom} {
		if v < -1 || v > 1 {
			return fmt.Errorf("motor output %v out of range", v)
		}
	}
	h.history = append(h.history, Outputs{Left: left, Right: right, Bottom: bottom})
	log.Debug("[HAL-Mock] Motors set", "left", left, "right", right, "bottom", bottom)
	return nil
}

func (h *MockHAL) GyroAngle() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.angle
}

func (h *MockHAL) ZeroGyro() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.angle = 0
}

// SetAngle moves the simulated gyro.
func (h *MockHAL) SetAngle(deg float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.angle = deg
}

// FailWith makes subsequent SetOutputs calls return err. nil clears it.
func (h *MockHAL) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fail = err
}

// Last returns the most recent outputs written.
func (h *MockHAL) Last() (Outputs, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.history) == 0 {
		return Outputs{}, false
	}
	return h.history[len(h.history)-1], true
}

// Writes is the number of successful SetOutputs calls.
func (h *MockHAL) Writes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}
