// Package clean turns raw positioning fixes into accepted, smoothed fixes.
package clean

import (
	"context"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/stream"
	"github.com/rotblauer/catpace/types/fix"
)

// Result is the outcome of processing one fix.
// Rejections are ordinary results, never errors.
type Result struct {
	Accepted bool
	Fix      fix.Fix // smoothed, when accepted
	Reason   Reason
}

// Pipeline runs fixes through ordered gates, short-circuiting on the first rejection:
// accuracy, coordinate validity, ordering, stationary drift, Kalman smoothing, minimum distance.
// A Pipeline is not safe for concurrent use; its owner serializes calls.
type Pipeline struct {
	config *params.FilterConfig
	kalman kalman

	// last is the last accepted (smoothed) fix.
	last *fix.Fix

	reg      metrics.Registry
	counters map[Reason]metrics.Counter
}

// NewPipeline returns a pipeline using config, or params.DefaultFilterConfig if nil.
func NewPipeline(config *params.FilterConfig) *Pipeline {
	if config == nil {
		config = params.DefaultFilterConfig
	}
	p := &Pipeline{
		config:   config,
		reg:      metrics.NewRegistry(),
		counters: make(map[Reason]metrics.Counter, len(AllReasons)),
	}
	for _, r := range AllReasons {
		p.counters[r] = metrics.NewRegisteredCounter("clean/"+r.String(), p.reg)
	}
	return p
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() *params.FilterConfig {
	return p.config
}

// Reset clears the estimator and the last accepted fix.
// Counters are kept; they describe the pipeline's lifetime.
func (p *Pipeline) Reset() {
	p.kalman.reset()
	p.last = nil
}

// Last returns the last accepted fix, or nil.
func (p *Pipeline) Last() *fix.Fix {
	if p.last == nil {
		return nil
	}
	cp := *p.last
	return &cp
}

func (p *Pipeline) reject(f fix.Fix, r Reason) Result {
	p.counters[r].Inc(1)
	return Result{Fix: f, Reason: r}
}

// Process runs one fix through the gates.
func (p *Pipeline) Process(f fix.Fix) Result {
	if !FilterPoorAccuracy(p.config, f) {
		return p.reject(f, RejectAccuracy)
	}
	if !FilterInvalidCoordinates(f) {
		return p.reject(f, RejectInvalid)
	}
	if p.config.RejectOutOfOrder && !FilterOutOfOrder(p.last, f) {
		return p.reject(f, RejectOutOfOrder)
	}
	if !FilterStationary(p.config, p.last, f) {
		return p.reject(f, RejectStationary)
	}

	// The estimator keeps this observation even if the smoothed fix is then rejected.
	smoothed := p.kalman.observe(f, p.config.ProcessNoise, p.config.MeasurementNoise)

	if !FilterMinDistance(p.config, p.last, smoothed) {
		return p.reject(smoothed, RejectMinDistance)
	}

	p.last = &smoothed
	p.counters[Accepted].Inc(1)
	return Result{Accepted: true, Fix: smoothed, Reason: Accepted}
}

// Stats returns the number of fixes seen per outcome.
func (p *Pipeline) Stats() map[Reason]int64 {
	out := make(map[Reason]int64, len(p.counters))
	for r, c := range p.counters {
		out[r] = c.Snapshot().Count()
	}
	return out
}

// LogArgs returns the stats as slog key/value pairs.
func (p *Pipeline) LogArgs() []any {
	stats := p.Stats()
	args := make([]any, 0, 2*len(AllReasons))
	for _, r := range AllReasons {
		args = append(args, r.String(), stats[r])
	}
	return args
}

// Stream runs each fix from in through the pipeline, in order.
// The pipeline must not be used elsewhere until the stream is drained.
func (p *Pipeline) Stream(ctx context.Context, in <-chan fix.Fix) <-chan Result {
	return stream.Transform(ctx, p.Process, in)
}

// AcceptedFixes yields the smoothed fixes of accepted results.
func AcceptedFixes(ctx context.Context, in <-chan Result) <-chan fix.Fix {
	return stream.Transform(ctx, func(r Result) fix.Fix { return r.Fix },
		stream.Filter(ctx, func(r Result) bool { return r.Accepted }, in))
}
