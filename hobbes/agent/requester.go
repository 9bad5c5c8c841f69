package agent

import (
	"context"
	"log/slog"
	"time"
)

// maxFormatAttempts bounds how many times a request is retried when the
// model ignores the required response format.
const maxFormatAttempts = 3

const formatReminder = "Remember to format your response with <thinking> and <commands> sections. You MUST include a <commands> section with one command per line."

// Snapshot is the world state handed to the requester: the current
// screen, captured by the coordinator before dispatch.
type Snapshot struct {
	ImageBase64 string
}

// Result is what a completed request delivers. On failure Commands and
// Thinking are empty and Err records the cause; the coordinator is
// unblocked either way.
type Result struct {
	Commands []string
	Thinking string
	Err      error
}

// Requester asynchronously asks the reasoning service for the next
// move. Request must not block the caller; done is invoked exactly
// once, on the worker goroutine, for both success and failure. The
// conversation is mutated only for the duration of the request.
type Requester interface {
	Request(conv *Conversation, snap Snapshot, done func(Result))
}

// DelimitedRequester implements the <thinking>/<commands> response
// contract.
type DelimitedRequester struct {
	client  Completer
	timeout time.Duration
}

// NewDelimitedRequester creates a requester using the given completion
// client.
func NewDelimitedRequester(client Completer) *DelimitedRequester {
	return &DelimitedRequester{client: client, timeout: 5 * time.Minute}
}

// Request runs the round trip on a worker goroutine.
func (r *DelimitedRequester) Request(conv *Conversation, snap Snapshot, done func(Result)) {
	go func() {
		done(r.roundTrip(conv, snap))
	}()
}

func (r *DelimitedRequester) roundTrip(conv *Conversation, snap Snapshot) Result {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	conv.AddUserTurn(userTurnText, snap.ImageBase64)

	var lastErr error
	for attempt := 0; attempt < maxFormatAttempts; attempt++ {
		messages := conv.Messages
		if attempt > 0 {
			slog.Warn("Retrying agent request with format reminder", "attempt", attempt+1)
			messages = append(append([]Message{}, conv.Messages...), Message{
				Role:    "user",
				Content: formatReminder,
			})
		}

		resp, err := r.client.Complete(ctx, messages, nil)
		if err != nil {
			// Transport failures are not recoverable by reminding the
			// model about formatting.
			lastErr = err
			break
		}

		thinking, commands, err := ParseResponse(resp.Content)
		if err != nil {
			lastErr = err
			continue
		}

		conv.AddAssistant(resp)
		slog.Info("Agent responded", "commands", len(commands))
		return Result{Commands: commands, Thinking: thinking}
	}

	slog.Error("Agent request failed", "error", lastErr)
	return Result{Err: lastErr}
}

var _ Requester = (*DelimitedRequester)(nil)
