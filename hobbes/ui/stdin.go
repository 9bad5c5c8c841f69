package ui

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/mots/hobbes/hobbes/command"
)

// StdinReader feeds lines from a plain input stream into the human
// queue. It backs the --no-ui mode, where the game screen is not
// rendered but typed commands still work.
type StdinReader struct {
	in    io.Reader
	queue *command.Queue
}

func NewStdinReader(in io.Reader, queue *command.Queue) *StdinReader {
	return &StdinReader{in: in, queue: queue}
}

// Run reads until EOF or ctx cancellation. EOF enqueues a quit so
// closing stdin shuts the session down cleanly. The scan itself runs
// on a side goroutine so cancellation is honored even while blocked
// waiting for input.
func (r *StdinReader) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			if err != nil {
				slog.Error("Input stream error", "error", err)
				return err
			}
			slog.Info("Input stream closed, quitting")
			r.queue.Enqueue(command.Parse("quit"))
			return nil
		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			r.queue.Enqueue(command.Parse(line))
		}
	}
}
