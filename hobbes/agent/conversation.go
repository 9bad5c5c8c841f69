// Package agent talks to the external reasoning service: it holds the
// conversation state, performs the asynchronous round trip, and turns
// responses into emulator commands.
package agent

import "encoding/json"

// Message is a single chat-completion message. Content is either a
// plain string or a list of ContentPart for multimodal turns.
type Message struct {
	Role       string     `json:"role"`
	Content    any        `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an inline base64 image for the model.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Conversation is the ordered message history for one play session. It
// is owned by the coordinator; a requester mutates it only while a
// request is in flight, which the at-most-one-pending invariant keeps
// free of overlap.
type Conversation struct {
	Messages []Message
}

// NewConversation starts a history with the given system prompt.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		Messages: []Message{{Role: "system", Content: systemPrompt}},
	}
}

// AddUserTurn appends a user message carrying the prompt text and the
// current screenshot.
func (c *Conversation) AddUserTurn(text, imageBase64 string) {
	c.Messages = append(c.Messages, Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: text},
			{
				Type: "image_url",
				ImageURL: &ImageURL{
					URL:    "data:image/png;base64," + imageBase64,
					Detail: "low",
				},
			},
		},
	})
}

// AddAssistant appends the model's reply, preserving tool calls.
func (c *Conversation) AddAssistant(msg ResponseMessage) {
	c.Messages = append(c.Messages, Message{
		Role:      "assistant",
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
	})
}

// AddToolResult appends the result of an executed tool call.
func (c *Conversation) AddToolResult(callID, name string, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"unencodable tool result"}`)
	}
	c.Messages = append(c.Messages, Message{
		Role:       "tool",
		ToolCallID: callID,
		Name:       name,
		Content:    string(payload),
	})
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	return len(c.Messages)
}
