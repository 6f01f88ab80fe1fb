// Package session holds recorded audio segments for one recording session.
package session

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of a session's chunk store.
type State int

const (
	// StateOpen - Segments may be appended.
	StateOpen State = iota
	// StateClosed - Finalized; the ordered snapshot has been handed out.
	StateClosed
	// StateDiscarded - Segments were dropped. Terminal until Reset.
	StateDiscarded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateDiscarded:
		return "DISCARDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// AcceptsSegments returns true if Append is allowed in this state.
func (s State) AcceptsSegments() bool {
	return s == StateOpen
}

// Errors for invalid store operations.
var (
	ErrInvalidOrdinal  = errors.New("segment ordinal out of sequence")
	ErrSessionClosed   = errors.New("session is closed")
	ErrEmptySegment    = errors.New("segment payload is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrSegmentTooLarge = errors.New("segment exceeds size limit")
	ErrTooManySegments = errors.New("session segment limit reached")
	ErrSessionExpired  = errors.New("session exceeded its maximum duration")
)
