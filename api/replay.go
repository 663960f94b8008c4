package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotblauer/catpace/stream"
	"github.com/rotblauer/catpace/types/fix"
)

// ReplayProvider is a LocationProvider that plays back recorded fixes.
// It doubles as a clock (see Clock) so sessions measure replayed time, not wall time.
type ReplayProvider struct {
	fixes   []fix.Fix
	speedup float64

	now    atomic.Int64 // unix nanos of the last replayed fix
	paused atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stepsFn func(int)
	cadence float64
}

// NewReplayProvider replays fixes in order, spaced by their timestamps divided by speedup.
// A speedup <= 0 replays as fast as the session takes them.
func NewReplayProvider(fixes []fix.Fix, speedup float64) *ReplayProvider {
	p := &ReplayProvider{
		fixes:   fixes,
		speedup: speedup,
		done:    make(chan struct{}),
	}
	if len(fixes) > 0 {
		p.now.Store(fixes[0].Time.UnixNano())
	}
	return p
}

// Clock returns the replay time: the time of the last replayed fix,
// or of the first fix before any are replayed.
func (p *ReplayProvider) Clock() func() time.Time {
	return func() time.Time {
		return time.Unix(0, p.now.Load()).UTC()
	}
}

// Done is closed when every fix has been replayed, or the replay is stopped.
func (p *ReplayProvider) Done() <-chan struct{} {
	return p.done
}

func (p *ReplayProvider) Permission(ctx context.Context) error {
	if len(p.fixes) == 0 {
		return errors.New("nothing to replay")
	}
	return ctx.Err()
}

func (p *ReplayProvider) Start(ctx context.Context, sink func(fix.Fix)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("replay already started")
	}
	ctx, p.cancel = context.WithCancel(ctx)
	meter := stream.NewTickMeter("Replayed fixes", 10*time.Second)
	paced := stream.Paced(ctx, func(f fix.Fix) time.Time { return f.Time }, p.speedup, stream.Slice(ctx, p.fixes))
	go func() {
		defer close(p.done)
		defer meter.Stop()
		for f := range paced {
			p.now.Store(f.Time.UnixNano())
			meter.Mark(f.Time)
			if p.paused.Load() {
				continue
			}
			sink(f)
			p.mu.Lock()
			steps, cadence := p.stepsFn, p.cadence
			p.mu.Unlock()
			if steps != nil {
				steps(int(cadence * f.Time.Sub(p.fixes[0].Time).Seconds()))
			}
		}
	}()
	return nil
}

func (p *ReplayProvider) Pause() {
	p.paused.Store(true)
}

func (p *ReplayProvider) Resume() {
	p.paused.Store(false)
}

// Stop ends the replay and waits for the replay goroutine to finish.
func (p *ReplayProvider) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-p.done
	return nil
}

// StepProvider returns a StepProvider that reports steps at a constant cadence
// (steps per second) of replayed time. A cadence <= 0 is unavailable.
func (p *ReplayProvider) StepProvider(cadence float64) StepProvider {
	return &replaySteps{p: p, cadence: cadence}
}

type replaySteps struct {
	p       *ReplayProvider
	cadence float64
}

func (s *replaySteps) Available() bool {
	return s.cadence > 0
}

func (s *replaySteps) Start(ctx context.Context, sink func(cumulative int)) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.stepsFn, s.p.cadence = sink, s.cadence
	return nil
}

func (s *replaySteps) Stop() error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.stepsFn = nil
	return nil
}
