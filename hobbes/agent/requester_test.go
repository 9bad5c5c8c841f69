package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns canned responses in order and records every
// request it sees.
type fakeCompleter struct {
	responses []ResponseMessage
	errs      []error
	calls     [][]Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message, _ []Tool) (ResponseMessage, error) {
	f.calls = append(f.calls, messages)
	i := len(f.calls) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return ResponseMessage{}, f.errs[i]
	}
	if i >= len(f.responses) {
		return ResponseMessage{}, errors.New("no more canned responses")
	}
	return f.responses[i], nil
}

func awaitResult(t *testing.T, req Requester, conv *Conversation) Result {
	t.Helper()
	results := make(chan Result, 1)
	req.Request(conv, Snapshot{ImageBase64: "aGk="}, func(r Result) {
		results <- r
	})
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
		return Result{}
	}
}

func TestDelimitedRequesterSuccess(t *testing.T) {
	client := &fakeCompleter{
		responses: []ResponseMessage{
			{Content: "<thinking>go up</thinking><commands>\nup\nup\n</commands>"},
		},
	}
	conv := NewConversation(SystemPrompt)

	result := awaitResult(t, NewDelimitedRequester(client), conv)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"up", "up"}, result.Commands)
	assert.Equal(t, "go up", result.Thinking)
	// system + user turn + assistant reply
	assert.Equal(t, 3, conv.Len())
	assert.Len(t, client.calls, 1)
}

func TestDelimitedRequesterFormatRetry(t *testing.T) {
	client := &fakeCompleter{
		responses: []ResponseMessage{
			{Content: "I think I should press A."},
			{Content: "Pressing A now, for sure."},
			{Content: "<commands>\na\n</commands>"},
		},
	}
	conv := NewConversation(SystemPrompt)

	result := awaitResult(t, NewDelimitedRequester(client), conv)

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"a"}, result.Commands)
	require.Len(t, client.calls, 3)

	// Retries carry an extra reminder message that is not persisted in
	// the conversation.
	first, second := client.calls[0], client.calls[1]
	assert.Len(t, second, len(first)+1)
	assert.Equal(t, formatReminder, second[len(second)-1].Content)
	assert.Equal(t, 3, conv.Len())
}

func TestDelimitedRequesterExhaustsRetries(t *testing.T) {
	client := &fakeCompleter{
		responses: []ResponseMessage{
			{Content: "nope"},
			{Content: "still nope"},
			{Content: "never"},
		},
	}
	conv := NewConversation(SystemPrompt)

	result := awaitResult(t, NewDelimitedRequester(client), conv)

	assert.ErrorIs(t, result.Err, ErrNoCommands)
	assert.Empty(t, result.Commands)
	assert.Empty(t, result.Thinking)
	// Exactly 3 attempts: the original call plus 2 retries.
	assert.Len(t, client.calls, 3)
}

func TestDelimitedRequesterTransportFailure(t *testing.T) {
	client := &fakeCompleter{
		errs: []error{errors.New("connection refused")},
	}
	conv := NewConversation(SystemPrompt)

	result := awaitResult(t, NewDelimitedRequester(client), conv)

	assert.Error(t, result.Err)
	assert.Empty(t, result.Commands)
	// Transport errors are not retried.
	assert.Len(t, client.calls, 1)
}

func TestDelimitedRequesterCallbackOnce(t *testing.T) {
	client := &fakeCompleter{
		responses: []ResponseMessage{
			{Content: "<commands>\nb\n</commands>"},
		},
	}
	conv := NewConversation(SystemPrompt)

	calls := 0
	done := make(chan struct{})
	NewDelimitedRequester(client).Request(conv, Snapshot{}, func(Result) {
		calls++
		close(done)
	})
	<-done
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, calls)
}
