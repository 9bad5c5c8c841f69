package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogEntry is a single captured log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// LogBuffer is a thread-safe circular buffer for log entries. The view
// reads from it; the slog handler writes into it from any goroutine.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	index   int
	count   int
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: make([]LogEntry, size)}
}

func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries[lb.index] = entry
	lb.index = (lb.index + 1) % len(lb.entries)
	if lb.count < len(lb.entries) {
		lb.count++
	}
}

// Recent returns up to max entries, newest first.
func (lb *LogBuffer) Recent(max int) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	count := lb.count
	if max > 0 && max < count {
		count = max
	}
	if count == 0 {
		return nil
	}

	out := make([]LogEntry, count)
	for i := 0; i < count; i++ {
		out[i] = lb.entries[(lb.index-1-i+len(lb.entries))%len(lb.entries)]
	}
	return out
}

// LogBufferHandler is a slog.Handler that captures records into a
// LogBuffer so they can be drawn inside the terminal view instead of
// corrupting the tcell screen.
type LogBufferHandler struct {
	buffer *LogBuffer
	level  slog.Level
}

func NewLogBufferHandler(buffer *LogBuffer, level slog.Level) *LogBufferHandler {
	return &LogBufferHandler{buffer: buffer, level: level}
}

func (h *LogBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogBufferHandler) Handle(_ context.Context, record slog.Record) error {
	message := record.Message
	record.Attrs(func(a slog.Attr) bool {
		message += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})

	h.buffer.Add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: message,
	})
	return nil
}

func (h *LogBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *LogBufferHandler) WithGroup(name string) slog.Handler {
	return h
}

func formatLogEntry(entry LogEntry) string {
	levelStr := "???"
	switch entry.Level {
	case slog.LevelDebug:
		levelStr = "DBG"
	case slog.LevelInfo:
		levelStr = "INF"
	case slog.LevelWarn:
		levelStr = "WRN"
	case slog.LevelError:
		levelStr = "ERR"
	}
	return fmt.Sprintf("%s [%s] %s", entry.Time.Format("15:04:05"), levelStr, entry.Message)
}
