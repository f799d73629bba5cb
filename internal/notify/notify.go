// Package notify delivers user-facing notices about the outcome of actions.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Level of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short message about an action's outcome.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Success builds a success notice.
func Success(title, message string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Message: message}
}

// Info builds an informational notice.
func Info(title, message string) Notice {
	return Notice{Level: LevelInfo, Title: title, Message: message}
}

// Failure builds an error notice. The cause, when present, follows message.
func Failure(message string, err error) Notice {
	switch {
	case err == nil:
	case message == "":
		message = err.Error()
	default:
		message = message + ": " + err.Error()
	}
	return Notice{Level: LevelError, Title: "Error", Message: message}
}

// Nop drops every notice.
type Nop struct{}

func (Nop) Notify(Notice) {}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger discards output.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notice) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.logger.Warn("notice", fields...)
		return
	}
	l.logger.Info("notice", fields...)
}

// WriterNotifier prints notices as single lines, for terminals.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a WriterNotifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (p *WriterNotifier) Notify(n Notice) {
	mark := map[Level]string{LevelSuccess: "✓", LevelError: "✗", LevelInfo: "•"}[n.Level]
	if mark == "" {
		mark = "•"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.Message == "" {
		fmt.Fprintf(p.w, "%s %s\n", mark, n.Title)
		return
	}
	fmt.Fprintf(p.w, "%s %s: %s\n", mark, n.Title, n.Message)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of what has been recorded.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
