// Package machine abstracts the emulator the coordinator drives. The
// coordinator goroutine is the only caller; implementations are not
// required to be safe for concurrent use.
package machine

import (
	"fmt"
	"image"
	"strings"
)

// Button identifies a Game Boy hardware control.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonStart
	ButtonSelect
)

var buttonNames = map[string]Button{
	"up":     ButtonUp,
	"down":   ButtonDown,
	"left":   ButtonLeft,
	"right":  ButtonRight,
	"a":      ButtonA,
	"b":      ButtonB,
	"start":  ButtonStart,
	"select": ButtonSelect,
}

// ParseButton maps a command token to a Button. Matching is
// case-insensitive.
func ParseButton(name string) (Button, error) {
	b, ok := buttonNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown button: %q", name)
	}
	return b, nil
}

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonStart:
		return "start"
	case ButtonSelect:
		return "select"
	}
	return "unknown"
}

// Machine is the simulation the coordinator advances one frame at a
// time. Tick returns false when the machine has no more frames to run
// (window closed, frame budget exhausted, fatal emulation error).
type Machine interface {
	Tick() bool
	Press(b Button)
	Release(b Button)

	// SetSpeed changes the emulation speed level. 0 means unlimited,
	// 1 is real hardware speed, higher values are multiples of it.
	SetSpeed(level int)

	// Frame returns the current framebuffer as packed RGBA pixels in
	// row-major order, plus its dimensions.
	Frame() (pixels []uint32, width, height int)

	// Screenshot returns the current frame as an image.
	Screenshot() (image.Image, error)

	SaveState(path string) error
	LoadState(path string) error
}
