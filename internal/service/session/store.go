package session

import (
	"fmt"
	"sync"

	"voice-notes-service/internal/models"
)

// Store is the ordered, append-only chunk store of one session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	OPEN ──Finalize()──→ CLOSED ──Discard()──→ DISCARDED
//	  │                                            │
//	  └──────────────Reset() from any state ◄──────┘
//
// Rules:
//   - OPEN: Append accepts exactly the next ordinal (Len()).
//   - CLOSED: Append fails with ErrSessionClosed; Finalize returns the same snapshot.
//   - DISCARDED: segments are gone; Append fails with ErrSessionClosed.
type Store struct {
	mu       sync.RWMutex
	state    State
	segments []models.AudioSegment
	bytes    int64
	limits   Limits
}

// Limits bounds what a store accepts. Zero values mean unlimited.
type Limits struct {
	MaxSegmentBytes int64 // largest single segment payload
	MaxSegments     int   // segments per session
}

// NewStore creates an empty, unbounded store in OPEN state.
func NewStore() *Store {
	return NewStoreWithLimits(Limits{})
}

// NewStoreWithLimits creates an empty store in OPEN state with limits.
func NewStoreWithLimits(limits Limits) *Store {
	return &Store{state: StateOpen, limits: limits}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Len returns the number of appended segments, which is also the next ordinal.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// Bytes returns the total payload size held by the store.
func (s *Store) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Append adds a segment. The ordinal must equal Len().
// The payload is copied so the caller may reuse its buffer.
func (s *Store) Append(seg models.AudioSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(seg)
}

// AppendNext adds a payload at the next ordinal and returns that ordinal.
func (s *Store) AppendNext(payload []byte, mediaType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordinal := len(s.segments)
	if err := s.appendLocked(models.AudioSegment{Ordinal: ordinal, Payload: payload, MediaType: mediaType}); err != nil {
		return 0, err
	}
	return ordinal, nil
}

func (s *Store) appendLocked(seg models.AudioSegment) error {
	if !s.state.AcceptsSegments() {
		return ErrSessionClosed
	}
	if seg.Ordinal != len(s.segments) {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidOrdinal, seg.Ordinal, len(s.segments))
	}
	if len(seg.Payload) == 0 {
		return ErrEmptySegment
	}
	if limit := s.limits.MaxSegmentBytes; limit > 0 && int64(len(seg.Payload)) > limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrSegmentTooLarge, len(seg.Payload), limit)
	}
	if limit := s.limits.MaxSegments; limit > 0 && len(s.segments) >= limit {
		return fmt.Errorf("%w: limit %d", ErrTooManySegments, limit)
	}
	if seg.MediaType == "" {
		seg.MediaType = models.DefaultMediaType
	}

	payload := make([]byte, len(seg.Payload))
	copy(payload, seg.Payload)
	seg.Payload = payload

	s.segments = append(s.segments, seg)
	s.bytes += int64(len(payload))
	return nil
}

// Finalize closes the store and returns the ordered segments.
// Idempotent while CLOSED. Returns ErrSessionClosed once discarded.
func (s *Store) Finalize() ([]models.AudioSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDiscarded {
		return nil, ErrSessionClosed
	}
	s.state = StateClosed
	return s.snapshotLocked(), nil
}

// Segments returns a copy of the ordered segments without changing state.
func (s *Store) Segments() []models.AudioSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Discard drops all segments and moves the store to DISCARDED.
// Returns false if the store was already discarded.
func (s *Store) Discard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDiscarded {
		return false
	}
	s.segments = nil
	s.bytes = 0
	s.state = StateDiscarded
	return true
}

// Reset drops all segments and reopens an empty store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.bytes = 0
	s.state = StateOpen
}

// snapshotLocked copies the segment slice header-by-header. Payload bytes
// are shared: they are never written after Append.
func (s *Store) snapshotLocked() []models.AudioSegment {
	out := make([]models.AudioSegment, len(s.segments))
	copy(out, s.segments)
	return out
}
