package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNoToolCalls is returned when the model answers with plain text
// instead of a tool call.
var ErrNoToolCalls = errors.New("no tool calls found in response")

const toolFormatReminder = "Remember to respond using the tool calling functionality. You MUST use the tool calling functionality."

const (
	notesSchemaJSON = `{
		"type": "object",
		"properties": {
			"action": {
				"type": "string",
				"enum": ["list", "read", "add", "edit", "delete"],
				"description": "The action to perform on your notes"
			},
			"note_name": {
				"type": "string",
				"description": "The name of the note to read, add, edit, or delete"
			},
			"content": {
				"type": "string",
				"description": "The content to add or edit in the note (required for add/edit actions)"
			}
		},
		"required": ["action"]
	}`

	inputSchemaJSON = `{
		"type": "object",
		"properties": {
			"commands": {
				"type": "array",
				"items": {
					"type": "string",
					"enum": ["up", "down", "left", "right", "a", "b", "start", "select"]
				},
				"description": "A series of Game Boy button commands to execute"
			}
		},
		"required": ["commands"]
	}`

	broSchemaJSON = `{
		"type": "object",
		"properties": {
			"question": {
				"type": "string",
				"description": "The question or request for advice you want to ask your big brother"
			}
		},
		"required": ["question"]
	}`
)

var (
	notesSchema = jsonschema.MustCompileString("notes.json", notesSchemaJSON)
	inputSchema = jsonschema.MustCompileString("input.json", inputSchemaJSON)
	broSchema   = jsonschema.MustCompileString("bro.json", broSchemaJSON)
)

// NotesStore is the knowledge base the notes tool operates on.
type NotesStore interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name, content string) error
	Delete(ctx context.Context, name string) error
}

// ToolRequester is the tool-calling variant of the agent contract. The
// model acts through notes/input/bro function calls; button presses
// requested via the input tool are returned as commands for the
// coordinator to execute, never run from the worker goroutine.
type ToolRequester struct {
	client  Completer
	notes   NotesStore
	timeout time.Duration
}

// NewToolRequester creates a tool-calling requester backed by the given
// notes store.
func NewToolRequester(client Completer, notes NotesStore) *ToolRequester {
	return &ToolRequester{client: client, notes: notes, timeout: 5 * time.Minute}
}

// Request runs the round trip on a worker goroutine.
func (r *ToolRequester) Request(conv *Conversation, snap Snapshot, done func(Result)) {
	go func() {
		done(r.roundTrip(conv, snap))
	}()
}

// Tools returns the tool definitions advertised to the model.
func Tools() []Tool {
	return []Tool{
		{
			Type: "function",
			Function: ToolFunction{
				Name:        "notes",
				Description: "Manage your knowledge base by listing, reading, adding, editing, or deleting notes",
				Parameters:  json.RawMessage(notesSchemaJSON),
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        "input",
				Description: "Input a command or series of commands to be executed by the Game Boy emulator",
				Parameters:  json.RawMessage(inputSchemaJSON),
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        "bro",
				Description: "Ask your big brother AI for help with the game",
				Parameters:  json.RawMessage(broSchemaJSON),
			},
		},
	}
}

func (r *ToolRequester) roundTrip(conv *Conversation, snap Snapshot) Result {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	conv.AddUserTurn(toolUserTurnText, snap.ImageBase64)

	var lastErr error
	for attempt := 0; attempt < maxFormatAttempts; attempt++ {
		messages := conv.Messages
		if attempt > 0 {
			slog.Warn("Retrying agent request with tool reminder", "attempt", attempt+1)
			messages = append(append([]Message{}, conv.Messages...), Message{
				Role:    "user",
				Content: toolFormatReminder,
			})
		}

		resp, err := r.client.Complete(ctx, messages, Tools())
		if err != nil {
			lastErr = err
			break
		}
		if len(resp.ToolCalls) == 0 {
			lastErr = ErrNoToolCalls
			continue
		}

		conv.AddAssistant(resp)

		var commands []string
		for _, call := range resp.ToolCalls {
			result, cmds := r.execute(ctx, call)
			commands = append(commands, cmds...)
			conv.AddToolResult(call.ID, call.Function.Name, result)
		}

		slog.Info("Agent responded via tools", "tool_calls", len(resp.ToolCalls), "commands", len(commands))
		return Result{Commands: commands, Thinking: resp.Content}
	}

	slog.Error("Agent request failed", "error", lastErr)
	return Result{Err: lastErr}
}

// execute runs a single tool call and returns its result plus any
// emulator commands it produced.
func (r *ToolRequester) execute(ctx context.Context, call ToolCall) (any, []string) {
	args, err := decodeArguments(call)
	if err != nil {
		slog.Warn("Invalid tool call arguments", "tool", call.Function.Name, "error", err)
		return map[string]string{"error": err.Error()}, nil
	}

	switch call.Function.Name {
	case "notes":
		return r.executeNotes(ctx, args), nil
	case "input":
		return r.executeInput(args)
	case "bro":
		question, _ := args["question"].(string)
		slog.Info("Big brother was asked", "question", question)
		return map[string]string{
			"advice": "Big brother is unavailable right now. Trust your own read of the screen and keep moving.",
		}, nil
	default:
		return map[string]string{"error": fmt.Sprintf("unknown tool: %s", call.Function.Name)}, nil
	}
}

func (r *ToolRequester) executeNotes(ctx context.Context, args map[string]any) any {
	action, _ := args["action"].(string)
	name, _ := args["note_name"].(string)
	content, _ := args["content"].(string)

	fail := func(err error) any {
		slog.Warn("Notes operation failed", "action", action, "note", name, "error", err)
		return map[string]string{"error": err.Error()}
	}

	switch action {
	case "list":
		names, err := r.notes.List(ctx)
		if err != nil {
			return fail(err)
		}
		return map[string]any{"notes": names}
	case "read":
		text, err := r.notes.Get(ctx, name)
		if err != nil {
			return fail(err)
		}
		return map[string]string{"note": text}
	case "add":
		if err := r.notes.Put(ctx, name, content); err != nil {
			return fail(err)
		}
		return map[string]string{"status": "Note added successfully"}
	case "edit":
		exists, err := r.notes.Exists(ctx, name)
		if err != nil {
			return fail(err)
		}
		if !exists {
			return map[string]string{"status": "Note not found"}
		}
		if err := r.notes.Put(ctx, name, content); err != nil {
			return fail(err)
		}
		return map[string]string{"status": "Note edited successfully"}
	case "delete":
		if err := r.notes.Delete(ctx, name); err != nil {
			return fail(err)
		}
		return map[string]string{"status": "Note deleted successfully"}
	default:
		return map[string]string{"error": fmt.Sprintf("unknown notes action: %s", action)}
	}
}

func (r *ToolRequester) executeInput(args map[string]any) (any, []string) {
	rawCommands, _ := args["commands"].([]any)
	commands := make([]string, 0, len(rawCommands))
	for _, raw := range rawCommands {
		if s, ok := raw.(string); ok {
			commands = append(commands, s)
		}
	}
	return map[string]any{"status": "Commands queued", "queued": commands}, commands
}

// decodeArguments unmarshals and schema-validates a tool call's
// arguments.
func decodeArguments(call ToolCall) (map[string]any, error) {
	var schema *jsonschema.Schema
	switch call.Function.Name {
	case "notes":
		schema = notesSchema
	case "input":
		schema = inputSchema
	case "bro":
		schema = broSchema
	default:
		return nil, fmt.Errorf("unknown tool: %s", call.Function.Name)
	}

	var decoded any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &decoded); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	args, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments are not an object")
	}
	return args, nil
}

var _ Requester = (*ToolRequester)(nil)
