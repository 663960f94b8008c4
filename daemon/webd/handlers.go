package webd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/catpace/api"
	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/session"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/rotblauer/catpace/types/fix"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrAlreadyActive), errors.Is(err, session.ErrNoActiveSession):
		status = http.StatusConflict
	case errors.Is(err, api.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, state.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fix.ErrDecodeFix), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, state.ErrReadOnly):
		status = http.StatusMethodNotAllowed
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	Session   string                  `json:"session"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Config:    s.Config,
		Session:   s.Cat.Tracker.Status().String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
	})
}

type sessionResponse struct {
	Status  session.Status         `json:"status"`
	Session *session.ActiveSession `json:"session,omitempty"`
	Metrics metrics.Live           `json:"metrics"`
	GPS     metrics.Quality        `json:"gps"`
}

func (s *WebDaemon) handleGetSession(w http.ResponseWriter, r *http.Request) {
	t := s.Cat.Tracker
	writeJSON(w, http.StatusOK, sessionResponse{
		Status:  t.Status(),
		Session: t.Session(),
		Metrics: t.Metrics(),
		GPS:     t.GPSQuality(),
	})
}

func (s *WebDaemon) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cat.Tracker.Metrics())
}

func (s *WebDaemon) handleGetGPSQuality(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cat.Tracker.GPSQuality())
}

type startRequest struct {
	Activity activity.Activity `json:"activity"`
}

type startResponse struct {
	ID conceptual.ActivityID `json:"id"`
}

// handleStart starts a session. The activity is read from
// the ?activity= param, or a JSON body {"activity": "Running"}.
func (s *WebDaemon) handleStart(w http.ResponseWriter, r *http.Request) {
	req := startRequest{Activity: activity.FromString(r.URL.Query().Get("activity"))}
	if !req.Activity.IsKnown() && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Join(errBadRequest, err))
			return
		}
	}
	if !req.Activity.IsKnown() {
		writeError(w, errors.Join(errBadRequest, errors.New("activity must be one of Walking, Running")))
		return
	}
	id, err := s.Cat.Start(r.Context(), req.Activity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{ID: id})
}

func (s *WebDaemon) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.Cat.Pause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Cat.Tracker.Metrics())
}

func (s *WebDaemon) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.Cat.Resume(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Cat.Tracker.Metrics())
}

type stopResponse struct {
	*api.StopResult
	Error string `json:"error,omitempty"`
}

// handleStop finalizes the session. A failed save still returns the
// activity, with a 500 status and the error.
func (s *WebDaemon) handleStop(w http.ResponseWriter, r *http.Request) {
	result, err := s.Cat.Stop()
	if result == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, stopResponse{StopResult: result, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stopResponse{StopResult: result})
}

type fixesResponse struct {
	Received int `json:"received"`
	Route    int `json:"route"`
}

// handlePostFixes accepts fixes as NDJSON, a JSON array, or GeoJSON.
// Fixes posted while paused are received but not added to the route.
func (s *WebDaemon) handlePostFixes(w http.ResponseWriter, r *http.Request) {
	if s.Cat.Tracker.Status() == session.Idle {
		writeError(w, session.ErrNoActiveSession)
		return
	}
	fixes, err := fix.DecodeAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, f := range fixes {
		s.Cat.HandleFix(f)
	}
	res := fixesResponse{Received: len(fixes)}
	if sess := s.Cat.Tracker.Session(); sess != nil {
		res.Route = len(sess.Route)
	}
	writeJSON(w, http.StatusOK, res)
}

type stepsRequest struct {
	Steps int `json:"steps"`
}

func (s *WebDaemon) handlePostSteps(w http.ResponseWriter, r *http.Request) {
	req := stepsRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(errBadRequest, err))
		return
	}
	if err := s.Cat.Tracker.OnStepUpdate(req.Steps); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Cat.Tracker.Metrics())
}

func (s *WebDaemon) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Cat.Records()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// queryFromRequest reads ?activity=&from=&to=&limit=. Times are RFC3339.
func queryFromRequest(r *http.Request) (state.Query, error) {
	values := r.URL.Query()
	q := state.Query{Activity: activity.FromString(values.Get("activity"))}
	var err error
	if v := values.Get("from"); v != "" {
		if q.From, err = time.Parse(time.RFC3339, v); err != nil {
			return q, errors.Join(errBadRequest, err)
		}
	}
	if v := values.Get("to"); v != "" {
		if q.To, err = time.Parse(time.RFC3339, v); err != nil {
			return q, errors.Join(errBadRequest, err)
		}
	}
	if v := values.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return q, errors.Join(errBadRequest, err)
		}
	}
	return q, nil
}

func wantsGeoJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "geojson"
}

func (s *WebDaemon) handleListActivities(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := s.store.List(q)
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsGeoJSON(r) {
		w.Header().Set("Content-Type", "application/geo+json")
		writeJSON(w, http.StatusOK, catrun.FeatureCollection(runs))
		return
	}
	if runs == nil {
		runs = []*catrun.CatRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *WebDaemon) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(conceptual.ActivityID(mux.Vars(r)["id"]))
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsGeoJSON(r) {
		w.Header().Set("Content-Type", "application/geo+json")
		writeJSON(w, http.StatusOK, run.Feature())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *WebDaemon) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(conceptual.ActivityID(mux.Vars(r)["id"])); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
