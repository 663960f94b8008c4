// Package session runs the lifecycle of one walk or run:
// Idle, Active and Paused, until it is stopped and becomes a completed CatRun.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/geo/clean"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/rotblauer/catpace/types/fix"
	"github.com/rotblauer/catpace/types/trackpoint"
)

var (
	ErrAlreadyActive   = errors.New("session already active")
	ErrNoActiveSession = errors.New("no active session")
)

type Status int

const (
	Idle Status = iota
	Active
	Paused
	Completed
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	}
	return "idle"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ActiveSession is the mutable state of the session in progress.
type ActiveSession struct {
	ID          conceptual.ActivityID `json:"id"`
	Activity    activity.Activity     `json:"activity"`
	Start       time.Time             `json:"start"`
	PausedTotal time.Duration         `json:"paused_total"`
	PausedSince *time.Time            `json:"paused_since,omitempty"`
	Route       trackpoint.Route      `json:"route"`
	Steps       int                   `json:"steps"`
	Status      Status                `json:"status"`

	// distance is the running route length, kept for cheap live metrics.
	distance float64
}

// ActiveDuration excludes all paused time, including a pause in progress.
func (s *ActiveSession) ActiveDuration(now time.Time) time.Duration {
	d := now.Sub(s.Start) - s.PausedTotal
	if s.PausedSince != nil {
		d -= now.Sub(*s.PausedSince)
	}
	if d < 0 {
		return 0
	}
	return d
}

const qualityKey = "last"

// qualitySample is an accepted fix's raw accuracy, stamped with the tracker clock.
type qualitySample struct {
	accuracy float64
	at       time.Time
}

type Option func(t *Tracker)

// WithClock replaces time.Now, eg. for replays and tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// Tracker owns at most one session at a time.
// All methods are safe for concurrent use; provider callbacks and the
// refresh loop serialize on one mutex for their whole gate-and-append sequence.
type Tracker struct {
	config   *params.SessionConfig
	pipeline *clean.Pipeline
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.Mutex
	session     *ActiveSession
	lastPublish time.Time
	tickCancel  context.CancelFunc
	tickDone    chan struct{}

	// quality remembers the last accepted fix's accuracy for QualityTTL.
	quality    *ttlcache.Cache[string, qualitySample]
	qualityTTL time.Duration

	metricsFeed event.FeedOf[metrics.Live]
}

// NewTracker returns an idle tracker.
// A nil config uses params.DefaultSessionConfig; a nil pipeline uses the default filter.
func NewTracker(config *params.SessionConfig, pipeline *clean.Pipeline, opts ...Option) *Tracker {
	if config == nil {
		config = params.DefaultSessionConfig
	}
	if pipeline == nil {
		pipeline = clean.NewPipeline(nil)
	}
	ttl := config.QualityTTL
	if ttl <= 0 {
		ttl = params.DefaultGPSQualityTTL
	}
	t := &Tracker{
		config:   config,
		pipeline: pipeline,
		now:      time.Now,
		logger:   slog.With("pkg", "session"),
		quality: ttlcache.New[string, qualitySample](
			ttlcache.WithTTL[string, qualitySample](ttl),
			ttlcache.WithDisableTouchOnHit[string, qualitySample](),
		),
		qualityTTL: ttl,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SubscribeMetrics delivers live metrics while a session is active.
// Sends block until every subscriber receives; use a buffered channel and keep up.
func (t *Tracker) SubscribeMetrics(ch chan<- metrics.Live) event.Subscription {
	return t.metricsFeed.Subscribe(ch)
}

// Start begins a new session and returns its id.
func (t *Tracker) Start(act activity.Activity) (conceptual.ActivityID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		return "", ErrAlreadyActive
	}
	t.pipeline.Reset()
	t.quality.DeleteAll()
	t.session = &ActiveSession{
		ID:       conceptual.ActivityID(uuid.NewString()),
		Activity: act,
		Start:    t.now(),
		Route:    trackpoint.Route{},
		Status:   Active,
	}
	t.lastPublish = time.Time{}
	if t.config.TickInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		t.tickCancel = cancel
		t.tickDone = make(chan struct{})
		go t.tick(ctx, t.tickDone)
	}
	t.logger.Info("Session started", "id", t.session.ID, "activity", act)
	return t.session.ID, nil
}

// Pause stops accruing active time. Pausing a paused session is a no-op.
func (t *Tracker) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ErrNoActiveSession
	}
	if t.session.Status == Paused {
		t.logger.Debug("Pause ignored, already paused", "id", t.session.ID)
		return nil
	}
	now := t.now()
	t.session.PausedSince = &now
	t.session.Status = Paused
	t.logger.Info("Session paused", "id", t.session.ID, "active", t.session.ActiveDuration(now).Round(time.Second))
	return nil
}

// Resume continues a paused session. Resuming an active session is a no-op.
func (t *Tracker) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ErrNoActiveSession
	}
	if t.session.Status != Paused {
		t.logger.Debug("Resume ignored, not paused", "id", t.session.ID)
		return nil
	}
	now := t.now()
	t.session.PausedTotal += now.Sub(*t.session.PausedSince)
	t.session.PausedSince = nil
	t.session.Status = Active
	t.logger.Info("Session resumed", "id", t.session.ID, "paused", t.session.PausedTotal.Round(time.Second))
	return nil
}

// Stop finalizes the session into a CatRun and returns the tracker to idle.
func (t *Tracker) Stop() (*catrun.CatRun, error) {
	t.mu.Lock()
	s := t.session
	if s == nil {
		t.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	now := t.now()
	if s.PausedSince != nil {
		s.PausedTotal += now.Sub(*s.PausedSince)
		s.PausedSince = nil
	}
	s.Status = Completed
	run := t.complete(s, now)
	final := t.liveLocked(now)

	t.session = nil
	t.pipeline.Reset()
	t.quality.DeleteAll()
	cancel, done := t.tickCancel, t.tickDone
	t.tickCancel, t.tickDone = nil, nil
	stats := t.pipeline.LogArgs()
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.metricsFeed.Send(final)

	t.logger.Info("Session stopped", append([]any{
		"id", run.ID,
		"activity", run.Activity,
		"distance", common.DecimalToFixed(run.Distance, 1),
		"duration", run.Duration.Round(time.Second),
		"points", len(run.Route),
	}, stats...)...)
	return run, nil
}

func (t *Tracker) complete(s *ActiveSession, now time.Time) *catrun.CatRun {
	route := s.Route.Copy()
	duration := s.ActiveDuration(now)
	distance := metrics.TotalDistance(route)
	return &catrun.CatRun{
		ID:            s.ID,
		Activity:      s.Activity,
		Start:         s.Start,
		End:           now,
		Duration:      duration,
		Distance:      distance,
		Steps:         s.Steps,
		Route:         route,
		AveragePace:   metrics.AveragePace(duration, distance),
		MaxPace:       metrics.MaxPace(route, t.config.MaxPaceWindowPoints),
		Calories:      metrics.Calories(s.Activity, distance, duration, t.config.BodyWeightKg),
		ElevationGain: metrics.ElevationGain(route),
		ElevationLoss: metrics.ElevationLoss(route),
		Splits:        metrics.Splits(route, t.config.SplitDistance),
		AccuracyMean:  metrics.AccuracyMean(route),
		Created:       now,
	}
}

// OnLocationFix runs a provider fix through the filter pipeline and,
// while active, appends accepted fixes to the route.
// Fixes arriving while paused are dropped.
func (t *Tracker) OnLocationFix(f fix.Fix) error {
	t.mu.Lock()
	s := t.session
	if s == nil {
		t.mu.Unlock()
		return ErrNoActiveSession
	}
	if s.Status != Active {
		t.mu.Unlock()
		return nil
	}
	res := t.pipeline.Process(f)
	if !res.Accepted {
		t.mu.Unlock()
		t.logger.Debug("Fix rejected", "reason", res.Reason, "accuracy", f.Accuracy)
		return nil
	}
	tp := trackpoint.FromFix(res.Fix)
	if n := len(s.Route); n > 0 {
		s.distance += common.Haversine(s.Route[n-1].Point(), tp.Point())
	}
	s.Route = append(s.Route, tp)
	now := t.now()
	t.quality.Set(qualityKey, qualitySample{accuracy: f.Accuracy, at: now}, ttlcache.DefaultTTL)

	publish := now.Sub(t.lastPublish) >= t.config.TickInterval
	var live metrics.Live
	if publish {
		t.lastPublish = now
		live = t.liveLocked(now)
	}
	t.mu.Unlock()

	if publish {
		t.metricsFeed.Send(live)
	}
	return nil
}

// OnStepUpdate sets the cumulative step count. Decreasing counts are ignored.
func (t *Tracker) OnStepUpdate(cumulative int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ErrNoActiveSession
	}
	if cumulative < t.session.Steps {
		t.logger.Debug("Step count went backwards, ignoring", "have", t.session.Steps, "got", cumulative)
		return nil
	}
	t.session.Steps = cumulative
	return nil
}

func (t *Tracker) tick(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		t.mu.Lock()
		if t.session == nil || t.session.Status != Active {
			t.mu.Unlock()
			continue
		}
		now := t.now()
		t.lastPublish = now
		live := t.liveLocked(now)
		t.mu.Unlock()
		t.metricsFeed.Send(live)
	}
}

func (t *Tracker) liveLocked(now time.Time) metrics.Live {
	s := t.session
	duration := s.ActiveDuration(now)
	return metrics.Live{
		CurrentPace: metrics.CurrentPace(s.Route, now, t.config.CurrentPaceWindow),
		AveragePace: metrics.AveragePace(duration, s.distance),
		Distance:    s.distance,
		Duration:    duration,
		Steps:       s.Steps,
		Calories:    metrics.Calories(s.Activity, s.distance, duration, t.config.BodyWeightKg),
		Status:      s.Status.String(),
		Time:        now,
	}
}

// ActiveDuration returns the current session's active time, or 0 when idle.
func (t *Tracker) ActiveDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0
	}
	return t.session.ActiveDuration(t.now())
}

func (t *Tracker) IsActive() bool {
	return t.Status() == Active
}

func (t *Tracker) IsPaused() bool {
	return t.Status() == Paused
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Idle
	}
	return t.session.Status
}

// Metrics returns a live snapshot. When idle, only Status is set.
func (t *Tracker) Metrics() metrics.Live {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.session == nil {
		return metrics.Live{Status: Idle.String(), Time: now}
	}
	return t.liveLocked(now)
}

// Session returns a copy of the current session, or nil when idle.
func (t *Tracker) Session() *ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	cp := *t.session
	cp.Route = t.session.Route.Copy()
	if t.session.PausedSince != nil {
		since := *t.session.PausedSince
		cp.PausedSince = &since
	}
	return &cp
}

// GPSQuality buckets the accuracy of the last accepted fix.
// It is unknown with no fix, or when that fix is older than QualityTTL
// by the tracker clock. The cache also evicts on wall time.
func (t *Tracker) GPSQuality() metrics.Quality {
	item := t.quality.Get(qualityKey)
	if item == nil {
		return metrics.Quality{Tier: metrics.QualityUnknown}
	}
	sample := item.Value()
	if t.now().Sub(sample.at) > t.qualityTTL {
		return metrics.Quality{Tier: metrics.QualityUnknown}
	}
	return metrics.QualityFor(sample.accuracy)
}
