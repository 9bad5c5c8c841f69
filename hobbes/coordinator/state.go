package coordinator

// historySize is how many recent commands the display keeps.
const historySize = 10

// State is a read-only snapshot of the coordinator handed to display
// collaborators after each tick.
type State struct {
	WaitingForAgent bool
	Thinking        string
	// RecentCommands holds the last dispatched commands, newest first.
	RecentCommands []string
	// AgentCommands is the command list of the last completed agent
	// turn.
	AgentCommands []string
	DebugMode     bool
	FrameCount    int
	TurnCounter   int
	Stopped       bool

	// Frame is the current framebuffer (packed RGBA, row-major).
	Frame       []uint32
	FrameWidth  int
	FrameHeight int
}

func (c *Coordinator) snapshot() State {
	pixels, w, h := c.machine.Frame()
	return State{
		WaitingForAgent: c.requestState == RequestPending,
		Thinking:        c.thinking,
		RecentCommands:  c.history.recent(),
		AgentCommands:   append([]string(nil), c.agentCommands...),
		DebugMode:       c.debugMode,
		FrameCount:      c.frameCount,
		TurnCounter:     c.turnCounter,
		Stopped:         c.stopped,
		Frame:           pixels,
		FrameWidth:      w,
		FrameHeight:     h,
	}
}

// historyRing keeps the last n command strings.
type historyRing struct {
	entries []string
	size    int
}

func newHistoryRing(size int) *historyRing {
	return &historyRing{size: size}
}

func (h *historyRing) add(s string) {
	h.entries = append(h.entries, s)
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
}

// recent returns the entries newest first.
func (h *historyRing) recent() []string {
	out := make([]string, 0, len(h.entries))
	for i := len(h.entries) - 1; i >= 0; i-- {
		out = append(out, h.entries[i])
	}
	return out
}
