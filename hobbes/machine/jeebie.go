package machine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/valerio/go-jeebie/jeebie"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/video"

	"github.com/mots/hobbes/hobbes/timing"
)

// ErrStateUnsupported is returned for save/load state requests when the
// emulator core has no snapshot support.
var ErrStateUnsupported = errors.New("save states are not supported by this emulator core")

// Jeebie drives a go-jeebie emulator instance one frame at a time.
type Jeebie struct {
	emu     *jeebie.DMG
	limiter timing.Limiter
}

// NewJeebie loads a ROM into a fresh emulator and fast-forwards through
// skipFrames of the title screen before handing control to the caller.
func NewJeebie(romPath string, speed, skipFrames int) (*Jeebie, error) {
	emu, err := jeebie.NewWithFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ROM %s: %w", romPath, err)
	}

	m := &Jeebie{emu: emu}
	m.SetSpeed(speed)

	if skipFrames > 0 {
		slog.Info("Skipping through start screen", "frames", skipFrames)
		for i := 0; i < skipFrames; i++ {
			if err := emu.RunUntilFrame(); err != nil {
				return nil, fmt.Errorf("emulation failed during frame skip: %w", err)
			}
		}
	}

	return m, nil
}

// Tick advances the emulation by one frame, pacing against the
// configured speed limiter.
func (m *Jeebie) Tick() bool {
	if err := m.emu.RunUntilFrame(); err != nil {
		slog.Error("Emulation error", "error", err)
		return false
	}
	m.limiter.WaitForNextFrame()
	return true
}

func (m *Jeebie) Press(b Button) {
	m.emu.HandleKeyPress(joypadKey(b))
}

func (m *Jeebie) Release(b Button) {
	m.emu.HandleKeyRelease(joypadKey(b))
}

// SetSpeed swaps the frame limiter. Level 0 removes pacing entirely.
func (m *Jeebie) SetSpeed(level int) {
	if m.limiter != nil {
		m.limiter.Stop()
	}
	if level <= 0 {
		m.limiter = timing.NewNoOpLimiter()
		return
	}
	m.limiter = timing.NewTickerLimiter(level)
}

func (m *Jeebie) Frame() ([]uint32, int, int) {
	fb := m.emu.GetCurrentFrame()
	return fb.ToSlice(), video.FramebufferWidth, video.FramebufferHeight
}

func (m *Jeebie) Screenshot() (image.Image, error) {
	pixels, w, h := m.Frame()
	return FrameToImage(pixels, w, h)
}

func (m *Jeebie) SaveState(path string) error {
	return ErrStateUnsupported
}

func (m *Jeebie) LoadState(path string) error {
	return ErrStateUnsupported
}

func joypadKey(b Button) memory.JoypadKey {
	switch b {
	case ButtonUp:
		return memory.JoypadUp
	case ButtonDown:
		return memory.JoypadDown
	case ButtonLeft:
		return memory.JoypadLeft
	case ButtonRight:
		return memory.JoypadRight
	case ButtonA:
		return memory.JoypadA
	case ButtonB:
		return memory.JoypadB
	case ButtonStart:
		return memory.JoypadStart
	case ButtonSelect:
		return memory.JoypadSelect
	}
	return memory.JoypadA
}

var _ Machine = (*Jeebie)(nil)
