package webd

import (
	"context"
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/rotblauer/catpace/events"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/records"
	"github.com/rotblauer/catpace/types/catrun"
)

type websocketAction string

var (
	websocketActionLive      websocketAction = "live"
	websocketActionRecords   websocketAction = "records"
	websocketActionCompleted websocketAction = "completed"
)

type broadcats struct {
	Action websocketAction  `json:"action"`
	Live   *metrics.Live    `json:"live,omitempty"`
	Run    *catrun.CatRun   `json:"run,omitempty"`
	Broken []records.Broken `json:"broken,omitempty"`
}

// completedBroadcast announces a finished activity without its route.
func completedBroadcast(run *catrun.CatRun) broadcats {
	summary := *run
	summary.Route = nil
	return broadcats{Action: websocketActionCompleted, Run: &summary}
}

// initMelody sets up the websocket handler.
// New clients are sent the most recent live snapshots.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(sess *melody.Session) {
		s.logger.Info("Websocket connected", "remote", sess.Request.RemoteAddr)
		for _, live := range s.recent.Get() {
			b, err := json.Marshal(broadcats{Action: websocketActionLive, Live: &live})
			if err != nil {
				continue
			}
			if err := sess.Write(b); err != nil {
				s.logger.Warn("Failed to write recent metrics", "error", err)
				return
			}
		}
	})

	// Clients have nothing to say. Log and drop.
	s.melodyInstance.HandleMessage(func(sess *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", sess.Request.RemoteAddr, "msg", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(sess *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", sess.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(sess *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", sess.Request.RemoteAddr, "error", e)
	})
}

// broadcastMetrics relays live metrics, completed activities and broken
// records to all connected clients until the context is canceled.
func (s *WebDaemon) broadcastMetrics(ctx context.Context) {
	lives := make(chan metrics.Live, s.Config.MetricsBuffer)
	liveSub := s.Cat.Tracker.SubscribeMetrics(lives)
	defer liveSub.Unsubscribe()

	broken := make(chan events.RecordsBroken, 1)
	brokenSub := events.BrokenRecordsFeed.Subscribe(broken)
	defer brokenSub.Unsubscribe()

	completed := make(chan *catrun.CatRun, 1)
	completedSub := events.CompletedRunFeed.Subscribe(completed)
	defer completedSub.Unsubscribe()

	for {
		var bc broadcats
		select {
		case <-ctx.Done():
			return
		case live := <-lives:
			s.recent.Add(live)
			bc = broadcats{Action: websocketActionLive, Live: &live}
		case run := <-completed:
			bc = completedBroadcast(run)
		case ev := <-broken:
			bc = broadcats{Action: websocketActionRecords, Broken: ev.Broken}
		case err := <-liveSub.Err():
			if err != nil {
				s.logger.Error("Live metrics subscription failed", "error", err)
			}
			return
		}
		b, err := json.Marshal(bc)
		if err != nil {
			s.logger.Error("Failed to marshal broadcast", "error", err)
			continue
		}
		if err := s.melodyInstance.Broadcast(b); err != nil {
			s.logger.Warn("Failed to broadcast", "action", bc.Action, "error", err)
		}
	}
}
