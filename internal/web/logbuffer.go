package web

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// logRecord is one captured log entry as served by the diagnostics API.
type logRecord struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logBuffer retains the most recent log entries flowing through the
// application logger. It implements the logrus Hook interface so it can be
// attached directly.
type logBuffer struct {
	mu      sync.RWMutex
	items   []logRecord
	limit   int
	enabled atomic.Bool
}

func newLogBuffer(limit int) *logBuffer {
	if limit <= 0 {
		limit = 200
	}
	buffer := &logBuffer{limit: limit}
	buffer.enabled.Store(true)
	return buffer
}

func (b *logBuffer) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (b *logBuffer) Fire(entry *logrus.Entry) error {
	if !b.enabled.Load() {
		return nil
	}

	record := logRecord{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
	}
	if component, ok := entry.Data["component"].(string); ok {
		record.Component = component
	}
	if len(entry.Data) > 0 {
		record.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if k == "component" {
				continue
			}
			switch val := v.(type) {
			case error:
				record.Fields[k] = val.Error()
			case fmt.Stringer:
				record.Fields[k] = val.String()
			default:
				record.Fields[k] = val
			}
		}
	}

	b.mu.Lock()
	b.items = append(b.items, record)
	if len(b.items) > b.limit {
		b.items = append([]logRecord(nil), b.items[len(b.items)-b.limit:]...)
	}
	b.mu.Unlock()
	return nil
}

func (b *logBuffer) snapshot() []logRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]logRecord, len(b.items))
	copy(out, b.items)
	return out
}

func (b *logBuffer) close() {
	b.enabled.Store(false)
}
