// Package ui renders the session in a terminal: the game screen on
// the left, agent thinking, command history, and logs on the right,
// and a command prompt at the bottom.
package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/mots/hobbes/hobbes/command"
	"github.com/mots/hobbes/hobbes/coordinator"
)

const (
	logBufferSize = 100

	agentPanelHeight = 12
	historyHeight    = 8
	minTermWidth     = 80
	minTermHeight    = 24
)

// View draws coordinator state with tcell and feeds typed commands
// into the human queue. Update runs on the coordinator goroutine, once
// per tick, the same way the emulation loop drives its display.
type View struct {
	screen    tcell.Screen
	queue     *command.Queue
	logBuffer *LogBuffer
	input     []rune
	running   bool
}

func NewView(queue *command.Queue) *View {
	return &View{
		queue:     queue,
		logBuffer: NewLogBuffer(logBufferSize),
	}
}

// Init takes over the terminal and routes the default logger into the
// on-screen log panel.
func (v *View) Init() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	v.screen = screen
	v.running = true

	slog.SetDefault(slog.New(NewLogBufferHandler(v.logBuffer, slog.LevelDebug)))

	v.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	v.screen.Clear()

	slog.Info("Terminal view initialized")
	return nil
}

// Update processes pending input and redraws the screen.
func (v *View) Update(state coordinator.State) {
	for v.screen.HasPendingEvent() {
		ev := v.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			v.processKey(ev)
		case *tcell.EventResize:
			v.screen.Sync()
		}
	}

	if !v.running {
		return
	}

	v.render(state)
	v.screen.Show()
}

// Cleanup releases the terminal.
func (v *View) Cleanup() {
	if v.screen != nil {
		v.screen.Fini()
	}
}

func (v *View) processKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.running = false
		v.queue.Enqueue(command.Parse("quit"))
	case tcell.KeyEnter:
		line := strings.TrimSpace(string(v.input))
		v.input = v.input[:0]
		if line != "" {
			v.queue.Enqueue(command.Parse(line))
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
	}
}

func (v *View) render(state coordinator.State) {
	termWidth, termHeight := v.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		v.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		v.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	v.screen.Clear()

	dividerX := state.FrameWidth + 2
	rightX := dividerX + 2
	rightWidth := termWidth - rightX
	if rightWidth < 0 {
		rightWidth = 0
	}

	v.drawBorders(termWidth, termHeight, dividerX)
	v.drawGame(state)
	v.drawAgentPanel(rightX, 1, rightWidth, state)
	v.drawHistory(rightX, agentPanelHeight+2, rightWidth, state)
	v.drawLogs(rightX, agentPanelHeight+historyHeight+3, rightWidth, termHeight)
	v.drawPrompt(termWidth, termHeight)
}

func (v *View) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight-2; y++ {
		if dividerX < termWidth {
			v.screen.SetContent(dividerX, y, '│', nil, borderStyle)
		}
	}

	agentEndY := agentPanelHeight + 1
	historyEndY := agentEndY + historyHeight + 1
	for x := dividerX + 1; x < termWidth; x++ {
		v.screen.SetContent(x, agentEndY, '─', nil, borderStyle)
		v.screen.SetContent(x, historyEndY, '─', nil, borderStyle)
	}
	v.screen.SetContent(dividerX, agentEndY, '├', nil, borderStyle)
	v.screen.SetContent(dividerX, historyEndY, '├', nil, borderStyle)

	for x := 0; x < termWidth; x++ {
		v.screen.SetContent(x, termHeight-2, '─', nil, borderStyle)
	}

	v.drawText(1, 0, dividerX-1, " Game Boy ", titleStyle)
	v.drawText(dividerX+2, 0, termWidth-dividerX-2, " Agent ", titleStyle)
	v.drawText(dividerX+2, agentEndY, termWidth-dividerX-2, " Commands ", titleStyle)
	v.drawText(dividerX+2, historyEndY, termWidth-dividerX-2, " Logs ", titleStyle)
}

// drawGame renders the framebuffer two pixels per cell using half
// blocks, top pixel in the foreground and bottom pixel in the
// background.
func (v *View) drawGame(state coordinator.State) {
	width, height := state.FrameWidth, state.FrameHeight
	if len(state.Frame) < width*height {
		return
	}
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := state.Frame[y*width+x]
			bottom := uint32(0xFFFFFFFF)
			if y+1 < height {
				bottom = state.Frame[(y+1)*width+x]
			}
			style := tcell.StyleDefault.
				Foreground(pixelColor(top)).
				Background(pixelColor(bottom))
			v.screen.SetContent(x, y/2+1, '▀', nil, style)
		}
	}
}

// pixelColor maps a packed 0xRRGGBBAA pixel to a terminal color.
func pixelColor(pixel uint32) tcell.Color {
	r := int32((pixel >> 24) & 0xFF)
	g := int32((pixel >> 16) & 0xFF)
	b := int32((pixel >> 8) & 0xFF)
	return tcell.NewRGBColor(r, g, b)
}

func (v *View) drawAgentPanel(startX, startY, width int, state coordinator.State) {
	if width <= 0 {
		return
	}

	statusStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	status := "idle"
	if state.WaitingForAgent {
		status = "thinking..."
		statusStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
	v.drawText(startX, startY, width, "Status: "+status, statusStyle)

	thinkStyle := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	lines := wrapText(state.Thinking, width)
	for i, line := range lines {
		y := startY + 2 + i
		if y > agentPanelHeight {
			break
		}
		v.drawText(startX, y, width, line, thinkStyle)
	}
}

func (v *View) drawHistory(startX, startY, width int, state coordinator.State) {
	if width <= 0 {
		return
	}

	agentStyle := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	if len(state.AgentCommands) > 0 {
		v.drawText(startX, startY, width, "Agent: "+strings.Join(state.AgentCommands, ", "), agentStyle)
	}

	histStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, cmd := range state.RecentCommands {
		y := startY + 1 + i
		if y >= startY+historyHeight-1 {
			break
		}
		v.drawText(startX, y, width, cmd, histStyle)
	}
}

func (v *View) drawLogs(startX, startY, width, termHeight int) {
	available := termHeight - 2 - startY
	if width <= 0 || available <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range v.logBuffer.Recent(available) {
		style := infoStyle
		switch entry.Level {
		case slog.LevelDebug:
			style = debugStyle
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}
		v.drawText(startX, startY+i, width, truncateCells(formatLogEntry(entry), width), style)
	}
}

func (v *View) drawPrompt(termWidth, termHeight int) {
	promptStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	line := "> " + string(v.input)
	v.drawText(0, termHeight-1, termWidth, line, promptStyle)
	v.screen.ShowCursor(len(line), termHeight-1)
}

func (v *View) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= maxWidth {
			break
		}
		v.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}

// truncateCells limits text to max terminal cells without splitting a
// rune, appending an ellipsis when something was cut.
func truncateCells(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max > 3 {
		return string(runes[:max-3]) + "..."
	}
	return string(runes[:max])
}

// wrapText breaks text into lines no wider than width, on word
// boundaries where possible.
func wrapText(text string, width int) []string {
	if width <= 0 || text == "" {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line += " " + word
		}
		lines = append(lines, line)
	}
	return lines
}
