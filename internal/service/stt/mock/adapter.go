// Package mock provides a scripted STT adapter for local development and
// tests without cloud credentials.
//
// Each ordinal may be given a sequence of steps, consumed one per attempt;
// the last step repeats. Unscripted ordinals succeed with a placeholder text.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

// Step is the scripted outcome of one Transcribe call.
type Step struct {
	Text  string
	Err   error
	Delay time.Duration // simulated provider latency, honours ctx
}

// Adapter implements stt.Client with scripted responses.
type Adapter struct {
	mu       sync.Mutex
	script   map[int][]Step
	attempts map[int]int
	calls    []int
	inFlight int
	peak     int
}

// New creates a new mock STT adapter.
func New() *Adapter {
	return &Adapter{
		script:   make(map[int][]Step),
		attempts: make(map[int]int),
	}
}

// On scripts the outcomes for an ordinal, one step per attempt.
func (a *Adapter) On(ordinal int, steps ...Step) *Adapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.script[ordinal] = steps
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "mock"
}

// Transcribe returns the next scripted step for the segment's ordinal.
func (a *Adapter) Transcribe(ctx context.Context, seg models.AudioSegment) (string, error) {
	if len(seg.Payload) == 0 {
		return "", stt.Rejected("mock", stt.ErrEmptyPayload)
	}

	a.mu.Lock()
	attempt := a.attempts[seg.Ordinal]
	a.attempts[seg.Ordinal]++
	a.calls = append(a.calls, seg.Ordinal)
	a.inFlight++
	if a.inFlight > a.peak {
		a.peak = a.inFlight
	}
	step, scripted := a.stepLocked(seg.Ordinal, attempt)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight--
		a.mu.Unlock()
	}()

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if !scripted {
		return fmt.Sprintf("segment %d (%d bytes)", seg.Ordinal, len(seg.Payload)), nil
	}
	if step.Err != nil {
		return "", step.Err
	}
	return step.Text, nil
}

func (a *Adapter) stepLocked(ordinal, attempt int) (Step, bool) {
	steps, ok := a.script[ordinal]
	if !ok || len(steps) == 0 {
		return Step{}, false
	}
	if attempt >= len(steps) {
		attempt = len(steps) - 1
	}
	return steps[attempt], true
}

// Calls returns the ordinals in the order Transcribe was invoked.
func (a *Adapter) Calls() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int{}, a.calls...)
}

// Attempts returns how many times an ordinal was transcribed.
func (a *Adapter) Attempts(ordinal int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts[ordinal]
}

// PeakConcurrency returns the highest number of simultaneous calls observed.
func (a *Adapter) PeakConcurrency() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}
