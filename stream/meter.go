package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/catpace/common"
)

// TickMeter logs throughput of a long-running feed at an interval,
// eg. fixes replayed from a file.
type TickMeter struct {
	name     string
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	label time.Time // any value, eg fix.time

	reg   metrics.Registry
	count metrics.Counter
	meter metrics.Meter
}

// NewTickMeter starts logging immediately; call Stop to end it.
func NewTickMeter(name string, interval time.Duration) *TickMeter {
	reg := metrics.NewRegistry()
	tm := &TickMeter{
		name:     name,
		interval: interval,
		started:  time.Now(),
		done:     make(chan struct{}),
		reg:      reg,
		count:    metrics.NewRegisteredCounter(name+".count", reg),
		meter:    metrics.NewRegisteredMeter(name+".meter", reg),
	}
	tm.ticker = time.NewTicker(interval)
	go tm.run()
	return tm
}

// Mark counts one item, labeled with its own timestamp.
func (tm *TickMeter) Mark(label time.Time) {
	tm.mu.Lock()
	tm.label = label
	tm.mu.Unlock()
	tm.count.Inc(1)
	tm.meter.Mark(1)
}

// Count returns the number of items marked.
func (tm *TickMeter) Count() int64 {
	return tm.count.Snapshot().Count()
}

func (tm *TickMeter) run() {
	for {
		select {
		case <-tm.done:
			return
		case <-tm.ticker.C:
			tm.log()
		}
	}
}

func (tm *TickMeter) log() {
	snap := tm.meter.Snapshot()
	tm.mu.Lock()
	label := tm.label
	tm.mu.Unlock()
	slog.Info(tm.name, "n", humanize.Comma(snap.Count()),
		"last", label.Format(time.DateTime),
		"rate", common.DecimalToFixed(snap.Rate1(), 1),
		"running", time.Since(tm.started).Round(time.Second))
}

// Stop ends the logger with a final line. It is safe to call more than once.
func (tm *TickMeter) Stop() {
	if tm == nil {
		return
	}
	tm.stopOnce.Do(func() {
		tm.ticker.Stop()
		close(tm.done)
		tm.meter.Stop()
		tm.log()
	})
}
