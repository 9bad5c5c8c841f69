// Package coordinator runs the turn-taking loop: it drains command
// queues in a fixed priority order, keeps at most one agent request in
// flight, and advances the emulator exactly one frame per iteration.
package coordinator

import (
	"log/slog"
	"sync/atomic"

	"github.com/mots/hobbes/hobbes/agent"
	"github.com/mots/hobbes/hobbes/command"
	"github.com/mots/hobbes/hobbes/machine"
)

// RequestState tracks the lifecycle of an agent request.
type RequestState int

const (
	// RequestIdle means no agent request is outstanding.
	RequestIdle RequestState = iota
	// RequestPending means a request is in flight on the worker
	// goroutine. At most one request may be pending at a time.
	RequestPending
	// RequestCompleted means the result has arrived and is being
	// folded back into the loop. Transient within a single tick.
	RequestCompleted
)

func (s RequestState) String() string {
	switch s {
	case RequestIdle:
		return "idle"
	case RequestPending:
		return "pending"
	case RequestCompleted:
		return "completed"
	}
	return "unknown"
}

// Config controls the coordinator's behavior.
type Config struct {
	// Headless disables the human command source and auto-triggers
	// agent turns on a frame counter.
	Headless bool
	// TurnThreshold is the number of frames between automatic agent
	// turns in headless mode.
	TurnThreshold int
	// HoldFrames is how many frames a button stays pressed.
	HoldFrames int
	// SequenceDelayFrames is the delay between commands of a sequence.
	SequenceDelayFrames int
	// MaxFrames stops the loop after this many frames (0 = unlimited).
	MaxFrames int
	// StatePath is where save/load commands persist the machine state.
	StatePath string
}

const (
	defaultTurnThreshold = 180
	defaultHoldFrames    = 5
	defaultSequenceDelay = 30
)

func (c Config) withDefaults() Config {
	if c.TurnThreshold <= 0 {
		c.TurnThreshold = defaultTurnThreshold
	}
	if c.HoldFrames <= 0 {
		c.HoldFrames = defaultHoldFrames
	}
	if c.SequenceDelayFrames <= 0 {
		c.SequenceDelayFrames = defaultSequenceDelay
	}
	return c
}

// Coordinator owns the machine and runs the per-tick algorithm. All
// fields except the queues and the result channel are touched only by
// the goroutine calling Run/Step.
type Coordinator struct {
	machine   machine.Machine
	requester agent.Requester
	conv      *agent.Conversation
	cfg       Config

	humanQueue *command.Queue
	agentQueue *command.Queue
	results    chan agent.Result

	requestState RequestState
	turnCounter  int
	frameCount   int
	debugMode    bool
	stopped      bool

	stopRequested atomic.Bool

	thinking      string
	agentCommands []string
	history       *historyRing

	listeners []func(State)
}

// New creates a coordinator for the given machine and requester. The
// conversation is owned by the coordinator and handed to the requester
// for the duration of each request.
func New(m machine.Machine, r agent.Requester, conv *agent.Conversation, cfg Config) *Coordinator {
	return &Coordinator{
		machine:    m,
		requester:  r,
		conv:       conv,
		cfg:        cfg.withDefaults(),
		humanQueue: command.NewQueue(),
		agentQueue: command.NewQueue(),
		// Buffered so the worker's single completion never blocks.
		results: make(chan agent.Result, 1),
		history: newHistoryRing(historySize),
	}
}

// HumanQueue is where interactive producers (terminal UI, stdin
// reader) enqueue commands.
func (c *Coordinator) HumanQueue() *command.Queue {
	return c.humanQueue
}

// OnState registers a read-only listener notified with a fresh State
// snapshot after every tick. Listeners run on the coordinator
// goroutine and must not block.
func (c *Coordinator) OnState(fn func(State)) {
	c.listeners = append(c.listeners, fn)
}

// Stopped reports whether the loop has terminated.
func (c *Coordinator) Stopped() bool {
	return c.stopped
}

// RequestStop asks the loop to stop at the next tick boundary. Safe to
// call from any goroutine; this is how signal handlers shut down a
// headless run, where no human queue is drained.
func (c *Coordinator) RequestStop() {
	c.stopRequested.Store(true)
}

// Run executes ticks until the loop stops.
func (c *Coordinator) Run() {
	slog.Info("Coordinator started",
		"headless", c.cfg.Headless,
		"turn_threshold", c.cfg.TurnThreshold)
	for !c.stopped {
		c.Step()
	}
	slog.Info("Coordinator stopped", "frames", c.frameCount)
}

// Step runs one iteration of the loop. Exposed so tests can drive the
// coordinator tick by tick.
func (c *Coordinator) Step() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unexpected error during tick", "panic", r, "frame", c.frameCount)
		}
	}()

	if c.stopRequested.Load() {
		slog.Info("Stop requested")
		c.stopped = true
		c.notify()
		return
	}

	c.collectAgentResult()

	if c.cfg.Headless && c.requestState == RequestIdle &&
		(c.turnCounter == 0 || c.turnCounter >= c.cfg.TurnThreshold) {
		c.requestAgentTurn()
	}

	c.dispatchAgentCommands()

	if !c.stopped && !c.cfg.Headless {
		c.dispatchHumanCommands()
	}

	if !c.stopped {
		if !c.machine.Tick() {
			slog.Info("Simulation signaled stop")
			c.stopped = true
		} else {
			c.countFrame()
		}
	}

	if c.cfg.Headless {
		c.turnCounter++
	}

	c.notify()
}

// collectAgentResult folds a completed agent round trip back into the
// loop: commands are enqueued for dispatch and the request slot is
// freed. Non-blocking.
func (c *Coordinator) collectAgentResult() {
	if c.requestState != RequestPending {
		return
	}
	select {
	case res := <-c.results:
		c.requestState = RequestCompleted
		if res.Err != nil {
			slog.Error("Agent turn failed", "error", res.Err)
			c.turnCounter = 0
		} else {
			if res.Thinking != "" {
				c.thinking = res.Thinking
			}
			c.agentCommands = res.Commands
			for _, line := range res.Commands {
				c.agentQueue.Enqueue(command.Parse(line))
			}
		}
		c.requestState = RequestIdle
	default:
	}
}

// requestAgentTurn captures the screen on this goroutine and hands the
// round trip to the requester. A synchronous failure leaves the
// request slot idle so the loop cannot get stuck.
func (c *Coordinator) requestAgentTurn() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Error dispatching agent request", "panic", r)
			c.requestState = RequestIdle
			c.turnCounter = 0
		}
	}()

	shot, err := c.captureScreenshot()
	if err != nil {
		slog.Error("Failed to capture screenshot for agent turn", "error", err)
		c.turnCounter = 0
		return
	}

	slog.Info("Requesting agent turn", "frame", c.frameCount)
	c.turnCounter = 0
	c.requestState = RequestPending
	c.requester.Request(c.conv, agent.Snapshot{ImageBase64: shot}, func(res agent.Result) {
		c.results <- res
	})
}

func (c *Coordinator) dispatchAgentCommands() {
	for _, cmd := range c.agentQueue.DrainAll() {
		if c.stopped {
			return
		}
		slog.Info("Executing agent command", "command", cmd.Raw)
		if c.processCommand(cmd) {
			c.stopped = true
			return
		}
	}
}

func (c *Coordinator) dispatchHumanCommands() {
	for _, cmd := range c.humanQueue.DrainAll() {
		if c.stopped {
			return
		}
		if cmd.IsTrigger() {
			// The trigger token requests an agent turn instead of being
			// forwarded to the simulation.
			if c.requestState == RequestIdle {
				slog.Info("Triggering agent for next move")
				c.requestAgentTurn()
			} else {
				slog.Warn("Agent request already in flight, ignoring trigger")
			}
			continue
		}
		if c.processCommand(cmd) {
			c.stopped = true
			return
		}
	}
}

// countFrame advances the frame counter and applies the headless frame
// budget.
func (c *Coordinator) countFrame() {
	c.frameCount++
	if c.cfg.MaxFrames > 0 && c.frameCount >= c.cfg.MaxFrames {
		slog.Info("Frame budget exhausted", "frames", c.frameCount)
		c.stopped = true
	}
}

func (c *Coordinator) captureScreenshot() (string, error) {
	img, err := c.machine.Screenshot()
	if err != nil {
		return "", err
	}
	return machine.EncodeBase64PNG(img)
}

func (c *Coordinator) notify() {
	if len(c.listeners) == 0 {
		return
	}
	state := c.snapshot()
	for _, fn := range c.listeners {
		fn(state)
	}
}
