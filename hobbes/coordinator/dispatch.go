package coordinator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mots/hobbes/hobbes/command"
	"github.com/mots/hobbes/hobbes/machine"
)

// framesPerSecond converts wait durations into simulation frames so
// waits track emulation time, not wall-clock time.
const framesPerSecond = 60

// StatePathFor derives the save-state file path from the ROM path.
func StatePathFor(romPath string) string {
	base := strings.TrimSuffix(romPath, filepath.Ext(romPath))
	return base + ".state"
}

// processCommand maps a command to machine operations. Returns true
// when the command requests shutdown. Malformed commands are logged
// and ignored.
func (c *Coordinator) processCommand(cmd command.Command) bool {
	if cmd.IsEmpty() {
		slog.Warn("Empty command received")
		return false
	}

	c.history.add(strings.TrimSpace(cmd.Raw))

	switch {
	case command.IsButton(cmd.Name):
		c.pressButton(cmd.Name)

	case cmd.Name == "wait" && len(cmd.Args) > 0:
		seconds, err := strconv.ParseFloat(cmd.Args[0], 64)
		if err != nil || seconds < 0 {
			slog.Error("Invalid wait duration", "duration", cmd.Args[0])
			return false
		}
		c.advanceFrames(int(seconds * framesPerSecond))

	case cmd.Name == "sequence" && len(cmd.Args) > 0:
		slog.Info("Executing sequence", "commands", strings.Join(cmd.Args, " "))
		for _, sub := range cmd.Args {
			if c.stopped {
				return false
			}
			if !command.IsButton(sub) {
				slog.Error("Unknown command in sequence", "command", sub)
				continue
			}
			c.pressButton(sub)
			c.advanceFrames(c.cfg.SequenceDelayFrames)
		}

	case cmd.Name == "quit":
		slog.Info("Quit requested")
		return true

	case cmd.Name == "speed" && len(cmd.Args) > 0:
		level, err := strconv.Atoi(cmd.Args[0])
		if err != nil || level < 0 {
			slog.Error("Invalid speed value", "value", cmd.Args[0])
			return false
		}
		c.machine.SetSpeed(level)
		slog.Info("Emulation speed changed", "level", level)

	case cmd.Name == "debug":
		switch {
		case len(cmd.Args) == 0:
			c.debugMode = !c.debugMode
		case cmd.Args[0] == "on":
			c.debugMode = true
		case cmd.Args[0] == "off":
			c.debugMode = false
		default:
			slog.Error("Invalid debug option", "option", cmd.Args[0])
			return false
		}
		slog.Info("Debug mode", "enabled", c.debugMode)

	case cmd.Name == "screenshot":
		c.saveScreenshot()

	case cmd.Name == "save":
		if err := c.machine.SaveState(c.cfg.StatePath); err != nil {
			slog.Error("Failed to save state", "path", c.cfg.StatePath, "error", err)
		} else {
			slog.Info("Game state saved", "path", c.cfg.StatePath)
		}

	case cmd.Name == "load":
		if err := c.machine.LoadState(c.cfg.StatePath); err != nil {
			slog.Error("Failed to load state", "path", c.cfg.StatePath, "error", err)
		} else {
			slog.Info("Game state loaded", "path", c.cfg.StatePath)
		}

	default:
		slog.Warn("Unknown command", "command", cmd.Name)
	}

	return false
}

// pressButton holds a button for the configured number of frames and
// releases it.
func (c *Coordinator) pressButton(name string) {
	b, err := machine.ParseButton(name)
	if err != nil {
		slog.Warn("Unknown button", "button", name)
		return
	}
	slog.Info("Pressing button", "button", name)
	c.machine.Press(b)
	c.advanceFrames(c.cfg.HoldFrames)
	c.machine.Release(b)
}

// advanceFrames ticks the machine n frames, honoring stop signals.
func (c *Coordinator) advanceFrames(n int) {
	for i := 0; i < n && !c.stopped; i++ {
		if !c.machine.Tick() {
			c.stopped = true
			return
		}
		c.countFrame()
	}
}

func (c *Coordinator) saveScreenshot() {
	img, err := c.machine.Screenshot()
	if err != nil {
		slog.Error("Failed to capture screenshot", "error", err)
		return
	}

	path := fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405"))
	f, err := os.Create(path)
	if err != nil {
		slog.Error("Failed to save screenshot", "path", path, "error", err)
		return
	}
	defer f.Close()

	if err := machine.EncodePNG(f, img); err != nil {
		slog.Error("Failed to encode screenshot", "path", path, "error", err)
		return
	}
	slog.Info("Screenshot saved", "path", path)
}
