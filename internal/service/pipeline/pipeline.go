// Package pipeline turns an ordered list of audio segments into one
// transcript by fanning out provider calls and merging results by ordinal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/observability/metrics"
	"voice-notes-service/internal/service/stt"
)

// Errors returned before any provider call.
var (
	ErrEmptyInput      = errors.New("no audio segments to transcribe")
	ErrOrdinalSequence = errors.New("segment ordinals must be 0..N-1 in order")
)

// Config bounds a pipeline run.
type Config struct {
	Concurrency  int           // simultaneous provider calls
	MaxRetries   int           // extra attempts on retryable failures
	RetryBackoff time.Duration // initial backoff between attempts; 0 retries immediately
	CallTimeout  time.Duration // deadline of each provider call
}

// DefaultConfig returns sensible default pipeline settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:  4,
		MaxRetries:   2,
		RetryBackoff: 250 * time.Millisecond,
		CallTimeout:  30 * time.Second,
	}
}

// Result is the outcome of one segment.
type Result struct {
	Ordinal  int
	Text     string
	Err      error
	Attempts int
}

// Failed reports whether the segment produced no text.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Outcome is a successful run. Warnings lists the segments that were left
// out of the transcript, ordered by ordinal.
type Outcome struct {
	Transcript string
	Results    []Result
	Warnings   []Result
}

// FailedOrdinals returns the ordinals of skipped segments.
func (o *Outcome) FailedOrdinals() []int {
	ordinals := make([]int, 0, len(o.Warnings))
	for _, w := range o.Warnings {
		ordinals = append(ordinals, w.Ordinal)
	}
	return ordinals
}

// Partial reports whether some segments were skipped.
func (o *Outcome) Partial() bool {
	return len(o.Warnings) > 0
}

// TotalFailure is returned when every segment failed.
type TotalFailure struct {
	Failures []Result
}

func (e *TotalFailure) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("transcription failed for the only segment: %v", e.Failures[0].Err)
	}
	return fmt.Sprintf("transcription failed for all %d segments", len(e.Failures))
}

// Pipeline drives an stt.Client over every segment of a session.
// Safe for concurrent use; each Run is self-contained.
type Pipeline struct {
	client  stt.Client
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a pipeline. Zero config fields fall back to DefaultConfig.
func New(client stt.Client, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	return &Pipeline{
		client:  client,
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}
}

// Provider returns the name of the underlying client.
func (p *Pipeline) Provider() string {
	return p.client.Name()
}

// Run transcribes segments and merges the results strictly by ordinal.
//
// Per-segment failures are isolated: the run succeeds when at least one
// segment produced text. If every segment failed, the error is a
// *TotalFailure. Cancelling ctx stops issuing new calls and returns ctx.Err().
func (p *Pipeline) Run(ctx context.Context, segments []models.AudioSegment) (*Outcome, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().
		Str("component", "pipeline").
		Str("sttProvider", p.client.Name()).
		Logger()

	if len(segments) == 0 {
		p.metrics.RecordPipelineRun("empty_input", time.Since(start).Seconds())
		return nil, ErrEmptyInput
	}
	for i, seg := range segments {
		if seg.Ordinal != i {
			return nil, fmt.Errorf("%w: position %d has ordinal %d", ErrOrdinalSequence, i, seg.Ordinal)
		}
	}

	results := make([]Result, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, seg := range segments {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot may free up after cancellation; never start a call then.
			if err := gctx.Err(); err != nil {
				results[seg.Ordinal] = Result{Ordinal: seg.Ordinal, Err: err}
				return nil
			}
			results[seg.Ordinal] = p.transcribe(gctx, seg)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		p.metrics.RecordPipelineRun("cancelled", time.Since(start).Seconds())
		logger.Warn().Err(err).Int("segments", len(segments)).Msg("Transcription cancelled")
		return nil, err
	}

	outcome := merge(results)
	if len(outcome.Warnings) == len(results) {
		p.metrics.RecordPipelineRun("total_failure", time.Since(start).Seconds())
		logger.Error().Int("segments", len(segments)).Msg("Every segment failed to transcribe")
		return nil, &TotalFailure{Failures: outcome.Warnings}
	}

	label := "success"
	if outcome.Partial() {
		label = "partial"
		logger.Warn().
			Ints("failedOrdinals", outcome.FailedOrdinals()).
			Int("segments", len(segments)).
			Msg("Transcript is missing segments")
	}
	p.metrics.RecordPipelineRun(label, time.Since(start).Seconds())
	logger.Info().
		Int("segments", len(segments)).
		Int("chars", len(outcome.Transcript)).
		Dur("duration", time.Since(start)).
		Msg("Transcription completed")

	return outcome, nil
}

// merge concatenates successful texts in ordinal order, one per line.
func merge(results []Result) *Outcome {
	var b strings.Builder
	outcome := &Outcome{Results: results}
	for _, r := range results {
		if r.Failed() {
			outcome.Warnings = append(outcome.Warnings, r)
			continue
		}
		b.WriteString(r.Text)
		b.WriteByte('\n')
	}
	outcome.Transcript = strings.TrimRightFunc(b.String(), unicode.IsSpace)
	return outcome
}

// transcribe runs one segment with bounded retries on retryable failures.
func (p *Pipeline) transcribe(ctx context.Context, seg models.AudioSegment) Result {
	provider := p.client.Name()
	logger := zerolog.Ctx(ctx).With().
		Int("ordinal", seg.Ordinal).
		Str("sttProvider", provider).
		Logger()

	attempts := 0
	operation := func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", backoff.Permanent(err)
		}
		attempts++
		if attempts > 1 {
			p.metrics.RecordSTTRetry(provider)
		}
		text, err := p.call(ctx, seg)
		if err != nil && !stt.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return text, err
	}

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(p.cfg.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug().Err(err).Dur("backoff", next).Int("attempt", attempts).Msg("Retrying segment")
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}

	if err != nil {
		kind := "cancelled"
		if k, ok := stt.KindOf(err); ok {
			kind = k.String()
		}
		if ctx.Err() == nil {
			p.metrics.RecordSegmentFailed(provider, kind)
			logger.Warn().Err(err).Int("attempts", attempts).Str("kind", kind).Msg("Segment dropped from transcript")
		}
	}

	return Result{Ordinal: seg.Ordinal, Text: text, Err: err, Attempts: attempts}
}

// call performs a single provider call under the per-call deadline.
func (p *Pipeline) call(ctx context.Context, seg models.AudioSegment) (string, error) {
	provider := p.client.Name()
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	text, err := p.client.Transcribe(callCtx, seg)
	latency := time.Since(start).Seconds()

	if err == nil {
		p.metrics.RecordSTTCall(provider, "success", latency)
		return text, nil
	}

	switch {
	case ctx.Err() != nil:
		// The run itself was cancelled; not a provider failure.
		p.metrics.RecordSTTCall(provider, "cancelled", latency)
		return "", ctx.Err()
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		if kind, _ := stt.KindOf(err); kind != stt.KindTimeout {
			err = stt.Timeout(provider, err)
		}
	default:
		if _, ok := stt.KindOf(err); !ok {
			err = stt.Unavailable(provider, err)
		}
	}

	kind, _ := stt.KindOf(err)
	p.metrics.RecordSTTCall(provider, kind.String(), latency)
	return "", err
}

func (p *Pipeline) newBackOff() backoff.BackOff {
	if p.cfg.RetryBackoff <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.RetryBackoff
	b.MaxInterval = 5 * time.Second
	return b
}
