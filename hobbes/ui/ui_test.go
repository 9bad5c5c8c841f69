package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mots/hobbes/hobbes/command"
)

func TestLogBufferKeepsNewestFirst(t *testing.T) {
	lb := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		lb.Add(LogEntry{Level: slog.LevelInfo, Message: fmt.Sprintf("msg %d", i)})
	}

	recent := lb.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "msg 5", recent[0].Message)
	assert.Equal(t, "msg 4", recent[1].Message)
	assert.Equal(t, "msg 3", recent[2].Message)

	limited := lb.Recent(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "msg 5", limited[0].Message)
}

func TestLogBufferHandlerCapturesAttrs(t *testing.T) {
	lb := NewLogBuffer(10)
	logger := slog.New(NewLogBufferHandler(lb, slog.LevelInfo))

	logger.Info("Pressing button", "button", "a")
	logger.Debug("dropped below level")

	recent := lb.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "Pressing button button=a", recent[0].Message)
}

func TestWrapText(t *testing.T) {
	lines := wrapText("I should head north to reach Viridian City", 16)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 16)
	}
	assert.Equal(t, "I should head", lines[0])

	assert.Nil(t, wrapText("", 10))
	assert.Nil(t, wrapText("anything", 0))
}

func TestStdinReaderEnqueuesLines(t *testing.T) {
	queue := command.NewQueue()
	r := NewStdinReader(strings.NewReader("a\n  \nwait 2\n"), queue)

	require.NoError(t, r.Run(context.Background()))

	cmds := queue.DrainAll()
	require.Len(t, cmds, 3)
	assert.Equal(t, "a", cmds[0].Name)
	assert.Equal(t, "wait", cmds[1].Name)
	// EOF enqueues quit.
	assert.Equal(t, "quit", cmds[2].Name)
}

func TestStdinReaderStopsOnCancel(t *testing.T) {
	// A pipe that never delivers data keeps the scanner blocked in Read,
	// which is exactly the state a reader is in when the session ends.
	pr, pw := io.Pipe()
	defer pw.Close()

	queue := command.NewQueue()
	r := NewStdinReader(pr, queue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.Equal(t, 0, queue.Len())
}

func TestDrawTextMultibyteRunes(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	defer sim.Fini()
	sim.SetSize(20, 3)

	v := &View{screen: sim}
	// "héllo" is 6 bytes but 5 cells; runes must land in consecutive
	// columns and the cutoff must count cells, not bytes.
	v.drawText(0, 0, 5, "héllo wörld", tcell.StyleDefault)
	sim.Show()

	ch, _, _, _ := sim.GetContent(1, 0)
	assert.Equal(t, 'é', ch)
	ch, _, _, _ = sim.GetContent(4, 0)
	assert.Equal(t, 'o', ch)
	ch, _, _, _ = sim.GetContent(5, 0)
	assert.Equal(t, ' ', ch, "text past the cell limit must not be drawn")
}

func TestTruncateCells(t *testing.T) {
	assert.Equal(t, "short", truncateCells("short", 10))
	assert.Equal(t, "exact", truncateCells("exact", 5))

	out := truncateCells("wörld wörld wörld", 10)
	assert.Equal(t, "wörld w...", out)
	// Never splits a rune mid-sequence.
	assert.True(t, strings.HasSuffix(out, "..."))

	assert.Equal(t, "wör", truncateCells("wörld", 3))
}
