package recognizer

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// MockDetector is a test implementation of the Detector interface.
// It replays queued detections in order and then keeps returning the last one.
type MockDetector struct {
	mu         sync.Mutex
	detections []detector.Detection
	next       int
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetection makes every subsequent Detect call return d.
func (m *MockDetector) SetDetection(d detector.Detection) {
	m.SetSequence([]detector.Detection{d})
}

// SetSequence queues detections to be returned one per Detect call.
func (m *MockDetector) SetSequence(ds []detector.Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = ds
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued detection or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (detector.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return detector.Detection{}, m.err
	}
	if len(m.detections) == 0 {
		return detector.Detection{Handedness: detector.Unknown}, nil
	}

	d := m.detections[m.next]
	if m.next < len(m.detections)-1 {
		m.next++
	}
	return d, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
