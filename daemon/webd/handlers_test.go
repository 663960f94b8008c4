package webd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotblauer/catpace/api"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/session"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/testing/testdata"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"github.com/tidwall/gjson"
)

func newTestWebDaemon(t *testing.T) (*WebDaemon, *mux.Router) {
	t.Helper()
	config := params.DefaultWebDaemonConfig()
	config.DataDir = t.TempDir()
	sessionConfig := params.DefaultSessionConfig.Copy()
	sessionConfig.TickInterval = 0
	d, err := NewWebDaemon(config, &api.CatConfig{Session: sessionConfig})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, d.NewRouter()
}

func do(t *testing.T, router http.Handler, method, target string, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, "http://localhost"+target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestWebDaemon_ping(t *testing.T) {
	_, router := newTestWebDaemon(t)
	code, body := do(t, router, http.MethodGet, "/ping", nil)
	if code != http.StatusOK {
		t.Fatalf("got %d, want 200", code)
	}
	if string(body) != "pong" {
		t.Errorf("got %q, want pong", body)
	}
}

func TestWebDaemon_statusReport(t *testing.T) {
	_, router := newTestWebDaemon(t)
	code, body := do(t, router, http.MethodGet, "/status", nil)
	if code != http.StatusOK {
		t.Fatalf("got %d, want 200", code)
	}
	if got := gjson.GetBytes(body, "session").String(); got != "idle" {
		t.Errorf("got %q, want idle", got)
	}
	if gjson.GetBytes(body, "uptime").String() == "" {
		t.Error("uptime is empty")
	}
}

func fixesNDJSON(t *testing.T, n int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, f := range testdata.MeridianFixes(n, 10, 10*time.Second, 5) {
		if err := enc.Encode(f); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestWebDaemon_sessionLifecycle(t *testing.T) {
	_, router := newTestWebDaemon(t)

	code, body := do(t, router, http.MethodPost, "/session/start?activity=running", nil)
	if code != http.StatusOK {
		t.Fatalf("start: got %d %s", code, body)
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		t.Fatal("start: missing id")
	}

	code, body = do(t, router, http.MethodPost, "/fix", fixesNDJSON(t, 6))
	if code != http.StatusOK {
		t.Fatalf("fix: got %d %s", code, body)
	}
	if got := gjson.GetBytes(body, "received").Int(); got != 6 {
		t.Errorf("fix: got %d received, want 6", got)
	}
	route := gjson.GetBytes(body, "route").Int()
	if route < 2 {
		t.Errorf("fix: got %d route points, want some accepted", route)
	}

	code, body = do(t, router, http.MethodPost, "/steps", []byte(`{"steps": 42}`))
	if code != http.StatusOK {
		t.Fatalf("steps: got %d %s", code, body)
	}
	if got := gjson.GetBytes(body, "steps").Int(); got != 42 {
		t.Errorf("steps: got %d, want 42", got)
	}

	code, body = do(t, router, http.MethodGet, "/session", nil)
	if code != http.StatusOK {
		t.Fatalf("session: got %d", code)
	}
	if got := gjson.GetBytes(body, "status").String(); got != "active" {
		t.Errorf("session: got %q, want active", got)
	}
	if got := gjson.GetBytes(body, "gps.tier").String(); got != "excellent" {
		t.Errorf("gps: got %q, want excellent", got)
	}

	code, body = do(t, router, http.MethodPost, "/session/pause", nil)
	if code != http.StatusOK || gjson.GetBytes(body, "status").String() != "paused" {
		t.Fatalf("pause: got %d %s", code, body)
	}
	// Paused fixes are received and dropped.
	code, body = do(t, router, http.MethodPost, "/fix", fixesNDJSON(t, 8))
	if code != http.StatusOK {
		t.Fatalf("fix while paused: got %d %s", code, body)
	}
	if got := gjson.GetBytes(body, "route").Int(); got != route {
		t.Errorf("fix while paused: got %d route points, want %d", got, route)
	}
	code, _ = do(t, router, http.MethodPost, "/session/resume", nil)
	if code != http.StatusOK {
		t.Fatalf("resume: got %d", code)
	}

	code, body = do(t, router, http.MethodPost, "/session/stop", nil)
	if code != http.StatusOK {
		t.Fatalf("stop: got %d %s", code, body)
	}
	if got := gjson.GetBytes(body, "run.id").String(); got != id {
		t.Errorf("stop: got run %q, want %q", got, id)
	}
	if got := gjson.GetBytes(body, "records.longest_distance.activity_id").String(); got != id {
		t.Errorf("stop: got record holder %q, want %q", got, id)
	}

	code, body = do(t, router, http.MethodGet, "/activities", nil)
	if code != http.StatusOK {
		t.Fatalf("activities: got %d", code)
	}
	if got := len(gjson.ParseBytes(body).Array()); got != 1 {
		t.Errorf("activities: got %d, want 1", got)
	}

	code, body = do(t, router, http.MethodGet, "/activities?format=geojson", nil)
	if code != http.StatusOK {
		t.Fatalf("geojson: got %d", code)
	}
	if got := gjson.GetBytes(body, "type").String(); got != "FeatureCollection" {
		t.Errorf("geojson: got %q, want FeatureCollection", got)
	}

	code, body = do(t, router, http.MethodGet, "/records", nil)
	if code != http.StatusOK {
		t.Fatalf("records: got %d", code)
	}
	if got := gjson.GetBytes(body, "most_steps.value").Float(); got != 42 {
		t.Errorf("records: got %v steps, want 42", got)
	}

	code, _ = do(t, router, http.MethodGet, "/activities/"+id, nil)
	if code != http.StatusOK {
		t.Errorf("get: got %d, want 200", code)
	}
	code, _ = do(t, router, http.MethodDelete, "/activities/"+id, nil)
	if code != http.StatusNoContent {
		t.Errorf("delete: got %d, want 204", code)
	}
	code, _ = do(t, router, http.MethodGet, "/activities/"+id, nil)
	if code != http.StatusNotFound {
		t.Errorf("get deleted: got %d, want 404", code)
	}
}

func TestWebDaemon_closeWhilePaused(t *testing.T) {
	d, router := newTestWebDaemon(t)

	code, body := do(t, router, http.MethodPost, "/session/start?activity=walking", nil)
	if code != http.StatusOK {
		t.Fatalf("start: got %d %s", code, body)
	}
	id := gjson.GetBytes(body, "id").String()
	if code, body = do(t, router, http.MethodPost, "/fix", fixesNDJSON(t, 6)); code != http.StatusOK {
		t.Fatalf("fix: got %d %s", code, body)
	}
	if code, body = do(t, router, http.MethodPost, "/session/pause", nil); code != http.StatusOK {
		t.Fatalf("pause: got %d %s", code, body)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if got := d.Cat.Tracker.Status(); got != session.Idle {
		t.Errorf("got status %v, want idle", got)
	}

	store, err := state.Open(d.Config.DataDir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.List(state.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d activities, want 1", len(runs))
	}
	if got := runs[0].ID.String(); got != id {
		t.Errorf("got activity %q, want %q", got, id)
	}
}

func TestCompletedBroadcast(t *testing.T) {
	run := &catrun.CatRun{
		ID:       "run-1",
		Activity: activity.Running,
		Distance: 1200,
		Route:    testdata.MeridianRoute(3, 600, time.Minute),
	}
	b, err := json.Marshal(completedBroadcast(run))
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(b, "action").String(); got != "completed" {
		t.Errorf("got action %q, want completed", got)
	}
	if got := gjson.GetBytes(b, "run.id").String(); got != "run-1" {
		t.Errorf("got run %q, want run-1", got)
	}
	if got := gjson.GetBytes(b, "run.distance").Float(); got != 1200 {
		t.Errorf("got distance %v, want 1200", got)
	}
	if got := len(gjson.GetBytes(b, "run.route").Array()); got != 0 {
		t.Errorf("got %d route points, want none", got)
	}
	if len(run.Route) != 3 {
		t.Errorf("got %d route points on the run, want it untouched", len(run.Route))
	}
}

func TestWebDaemon_errors(t *testing.T) {
	_, router := newTestWebDaemon(t)

	cases := []struct {
		name   string
		method string
		target string
		body   []byte
		want   int
	}{
		{"stop idle", http.MethodPost, "/session/stop", nil, http.StatusConflict},
		{"pause idle", http.MethodPost, "/session/pause", nil, http.StatusConflict},
		{"fix idle", http.MethodPost, "/fix", fixesNDJSON(t, 1), http.StatusConflict},
		{"bad activity", http.MethodPost, "/session/start?activity=swim", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/activities?limit=many", nil, http.StatusBadRequest},
		{"missing activity", http.MethodGet, "/activities/nope", nil, http.StatusNotFound},
		{"start", http.MethodPost, "/session/start", []byte(`{"activity": "Walking"}`), http.StatusOK},
		{"start twice", http.MethodPost, "/session/start?activity=walking", nil, http.StatusConflict},
		{"bad fix", http.MethodPost, "/fix", []byte(`{"lat": "north"}`), http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, body := do(t, router, c.method, c.target, c.body)
			if code != c.want {
				t.Errorf("got %d, want %d: %s", code, c.want, body)
			}
		})
	}
}

func TestWebDaemon_tokenAuthentication(t *testing.T) {
	t.Setenv("CATPACE_TOKEN", "meow")
	_, router := newTestWebDaemon(t)

	code, _ := do(t, router, http.MethodPost, "/session/start?activity=running", nil)
	if code != http.StatusForbidden {
		t.Errorf("got %d, want 403", code)
	}
	code, _ = do(t, router, http.MethodPost, "/session/start?activity=running&api_token=meow", nil)
	if code != http.StatusOK {
		t.Errorf("got %d, want 200", code)
	}
	code, _ = do(t, router, http.MethodGet, "/session", nil)
	if code != http.StatusOK {
		t.Errorf("reads are open: got %d, want 200", code)
	}
}
