package domain

import "sync/atomic"

// SessionState models the dictation session lifecycle. Stopped is both the
// initial state before Starting and the terminal state.
type SessionState string

const (
	SessionStateStopped      SessionState = "stopped"
	SessionStateStarting     SessionState = "starting"
	SessionStateReady        SessionState = "ready"
	SessionStateRecording    SessionState = "recording"
	SessionStateTranscribing SessionState = "transcribing"
	SessionStateStopping     SessionState = "stopping"
)

// KeyEdgeKind identifies one discrete signal from the key reader.
type KeyEdgeKind string

const (
	KeyEdgePress       KeyEdgeKind = "press"
	KeyEdgeRelease     KeyEdgeKind = "release"
	KeyEdgeReaderError KeyEdgeKind = "reader_error"
)

// KeyEdge is one press/release transition of the watched key, or a fatal
// reader failure. Err is set only for KeyEdgeReaderError.
type KeyEdge struct {
	Kind KeyEdgeKind
	Err  string
}

// ShutdownFlag is the single piece of state shared without a channel between
// the controller, the key reader, and external signal sources. Write-once:
// once requested it never resets for the life of the session.
type ShutdownFlag struct {
	requested atomic.Bool
}

// Request marks shutdown as requested. Idempotent and safe from any
// goroutine, including signal handlers.
func (f *ShutdownFlag) Request() {
	f.requested.Store(true)
}

// Requested reports whether shutdown has been requested.
func (f *ShutdownFlag) Requested() bool {
	return f.requested.Load()
}
