// Package notify is the user-facing message surface of the client: success,
// informational, and error notices that in the original product appeared as
// toasts. Session lifecycle transitions (login, logout, expiry, refresh
// failure) always go through this surface so the user can tell why they were
// returned to a logged-out state.
package notify

import (
	"time"

	"github.com/rs/zerolog"
)

type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Log is a Notifier backed by a zerolog logger. The CLI wires it to a
// console writer on stderr.
type Log struct {
	Logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{Logger: logger}
}

func (l *Log) Success(msg string) { l.Logger.Info().Str("kind", "success").Msg(msg) }
func (l *Log) Info(msg string)    { l.Logger.Info().Str("kind", "info").Msg(msg) }
func (l *Log) Error(msg string)   { l.Logger.Error().Str("kind", "error").Msg(msg) }

// Delayed fires fn after d on its own goroutine and returns the timer so the
// caller can cancel it. Used for the post-login welcome notice, which is
// cosmetic and must not block the login path.
func Delayed(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, fn)
}

// Nop discards all notifications. Useful in tests and library embedding.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Info(string)    {}
func (Nop) Error(string)   {}
