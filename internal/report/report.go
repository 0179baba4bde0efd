// Package report is the status channel: informational, warning and error
// messages for the operator. Messages never drive control flow.
package report

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Severity represents the importance of a status message.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Message is a single status message.
type Message struct {
	Severity Severity
	Text     string
}

// Reporter receives status messages.
type Reporter interface {
	Report(sev Severity, format string, args ...any)
}

// Discard drops every message.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Severity, string, ...any) {}

// LogReporter routes status messages to a zap logger.
type LogReporter struct {
	Log *zap.Logger
}

// NewLogReporter creates a reporter writing to log.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{Log: log}
}

// Report logs the message at the matching level.
func (r *LogReporter) Report(sev Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch sev {
	case Error:
		r.Log.Error(msg)
	case Warning:
		r.Log.Warn(msg)
	default:
		r.Log.Info(msg)
	}
}

// Recorder collects messages and optionally forwards them.
type Recorder struct {
	Next Reporter

	mu       sync.Mutex
	messages []Message
}

// Report records the message.
func (r *Recorder) Report(sev Severity, format string, args ...any) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Severity: sev, Text: fmt.Sprintf(format, args...)})
	r.mu.Unlock()

	if r.Next != nil {
		r.Next.Report(sev, format, args...)
	}
}

// Messages returns a copy of recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Count returns how many messages of the given severity were recorded.
func (r *Recorder) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// Last returns the most recent message of the given severity.
func (r *Recorder) Last(sev Severity) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Severity == sev {
			return r.messages[i], true
		}
	}
	return Message{}, false
}
