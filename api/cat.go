package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/events"
	"github.com/rotblauer/catpace/geo/clean"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/records"
	"github.com/rotblauer/catpace/session"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/rotblauer/catpace/types/fix"
)

// ErrPersist wraps failures to save a completed activity.
// The activity is still returned; the session is over regardless.
var ErrPersist = errors.New("failed to persist activity")

// Store is the activity history the Cat saves to and computes records from.
type Store interface {
	Save(run *catrun.CatRun) error
	List(q state.Query) ([]*catrun.CatRun, error)
}

// Cat is the controller for one person's walks and runs.
// It owns one session tracker, wires the providers to it,
// and persists and scores each activity when it stops.
type Cat struct {
	Tracker *session.Tracker

	store    Store
	location LocationProvider
	steps    StepProvider
	dedupe   func(fix.Fix) bool
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

type CatConfig struct {
	Session *params.SessionConfig
	Filter  *params.FilterConfig
}

type Option func(c *catOptions)

type catOptions struct {
	location       LocationProvider
	steps          StepProvider
	trackerOptions []session.Option
	logger         *slog.Logger
}

func WithLocationProvider(p LocationProvider) Option {
	return func(o *catOptions) { o.location = p }
}

func WithStepProvider(p StepProvider) Option {
	return func(o *catOptions) { o.steps = p }
}

func WithTrackerOptions(opts ...session.Option) Option {
	return func(o *catOptions) { o.trackerOptions = append(o.trackerOptions, opts...) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *catOptions) { o.logger = logger }
}

// NewCat returns an idle controller. A nil config uses the defaults.
// With no location provider, fixes arrive only through HandleFix.
func NewCat(config *CatConfig, store Store, opts ...Option) *Cat {
	if config == nil {
		config = &CatConfig{}
	}
	filter := config.Filter
	if filter == nil {
		filter = params.DefaultFilterConfig
	}
	o := &catOptions{logger: slog.With("pkg", "api")}
	for _, opt := range opts {
		opt(o)
	}
	trackerOpts := append([]session.Option{session.WithLogger(o.logger.With("pkg", "session"))}, o.trackerOptions...)
	return &Cat{
		Tracker:  session.NewTracker(config.Session, clean.NewPipeline(filter), trackerOpts...),
		store:    store,
		location: o.location,
		steps:    o.steps,
		dedupe:   clean.NewDedupeFunc(filter.DedupeCacheSize),
		logger:   o.logger,
	}
}

// Start checks location permission, starts a session, and starts the providers.
func (c *Cat) Start(ctx context.Context, act activity.Activity) (conceptual.ActivityID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.location != nil {
		if err := c.location.Permission(ctx); err != nil {
			return "", err
		}
	}
	id, err := c.Tracker.Start(act)
	if err != nil {
		return "", err
	}

	pctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if c.steps != nil && c.steps.Available() {
		if err := c.steps.Start(pctx, c.HandleSteps); err != nil {
			// Steps degrade to zero.
			c.logger.Warn("Step provider failed to start", "error", err)
		}
	}
	if c.location != nil {
		if err := c.location.Start(pctx, c.HandleFix); err != nil {
			c.stopProviders()
			if _, stopErr := c.Tracker.Stop(); stopErr != nil {
				c.logger.Error("Failed to discard session", "error", stopErr)
			}
			return "", fmt.Errorf("start location provider: %w", err)
		}
	}
	return id, nil
}

func (c *Cat) Pause() error {
	if err := c.Tracker.Pause(); err != nil {
		return err
	}
	if c.location != nil {
		c.location.Pause()
	}
	return nil
}

func (c *Cat) Resume() error {
	if err := c.Tracker.Resume(); err != nil {
		return err
	}
	if c.location != nil {
		c.location.Resume()
	}
	return nil
}

// StopResult is what a finished activity earned.
type StopResult struct {
	Run     *catrun.CatRun          `json:"run"`
	Broken  []records.Broken        `json:"broken,omitempty"`
	Records records.PersonalRecords `json:"records"`
}

// Stop finalizes the session, stops the providers, saves the activity,
// and scores it against the records held by all other stored activities.
// A save failure is returned as ErrPersist alongside the finalized result.
func (c *Cat) Stop() (*StopResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, err := c.Tracker.Stop()
	if err != nil {
		return nil, err
	}
	c.stopProviders()

	result := &StopResult{Run: run}
	var persistErr error
	if c.store != nil {
		if err := c.store.Save(run); err != nil {
			persistErr = fmt.Errorf("%w: %w", ErrPersist, err)
			c.logger.Error("Failed to save activity", "id", run.ID, "error", err)
		} else {
			events.StoredRunFeed.Send(run)
		}
	}
	events.CompletedRunFeed.Send(run)

	previous, err := c.history(state.Query{ExceptID: run.ID})
	if err != nil {
		c.logger.Error("Failed to read activity history", "error", err)
		return result, errors.Join(persistErr, err)
	}
	current := records.Compute(previous)
	result.Broken = records.DetectBroken(run, current)
	result.Records = records.Compute(append(previous, run))
	if len(result.Broken) > 0 {
		for _, b := range result.Broken {
			c.logger.Info("Personal record", "kind", b.Kind, "old", b.OldValue, "new", b.NewValue)
		}
		events.BrokenRecordsFeed.Send(events.RecordsBroken{Run: run, Broken: result.Broken})
	}
	return result, persistErr
}

func (c *Cat) stopProviders() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.location != nil {
		if err := c.location.Stop(); err != nil {
			c.logger.Warn("Failed to stop location provider", "error", err)
		}
	}
	if c.steps != nil && c.steps.Available() {
		if err := c.steps.Stop(); err != nil {
			c.logger.Warn("Failed to stop step provider", "error", err)
		}
	}
}

func (c *Cat) history(q state.Query) ([]*catrun.CatRun, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.List(q)
}

// Records computes personal records over all stored activities.
func (c *Cat) Records() (records.PersonalRecords, error) {
	runs, err := c.history(state.Query{})
	if err != nil {
		return records.PersonalRecords{}, err
	}
	return records.Compute(runs), nil
}

// HandleFix is the sink for every location provider.
// Duplicates and fixes arriving with no session are dropped.
func (c *Cat) HandleFix(f fix.Fix) {
	if !c.dedupe(f) {
		c.logger.Debug("Dropping duplicate fix", "time", f.Time)
		return
	}
	if err := c.Tracker.OnLocationFix(f); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			c.logger.Debug("Dropping fix, no active session")
			return
		}
		c.logger.Error("Failed to handle fix", "error", err)
	}
}

// HandleSteps is the sink for the step provider.
func (c *Cat) HandleSteps(cumulative int) {
	if err := c.Tracker.OnStepUpdate(cumulative); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			c.logger.Debug("Dropping steps, no active session")
			return
		}
		c.logger.Error("Failed to handle steps", "error", err)
	}
}
