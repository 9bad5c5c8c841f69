// Package timing controls how fast the emulator is allowed to advance.
package timing

import "time"

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()

	// Stop releases any resources held by the limiter.
	Stop()
}

// NewNoOpLimiter returns a limiter that doesn't limit (unlimited speed).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}
func (n *noOpLimiter) Stop()             {}

// Constants for Game Boy timing
const (
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single frame at the
// given speed level. Level 1 is real hardware speed, higher levels
// divide the frame time accordingly.
func FrameDuration(speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	return time.Duration(float64(time.Second) / (TargetFPS() * float64(speed)))
}
