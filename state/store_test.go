package state

import (
	"errors"
	"testing"
	"time"

	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/testing/testdata"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
)

func testRun(id string, day int, act activity.Activity) *catrun.CatRun {
	start := testdata.T0.AddDate(0, 0, day)
	route := testdata.MeridianRoute(3, 10, 10*time.Second)
	return &catrun.CatRun{
		ID:       conceptual.ActivityID(id),
		Activity: act,
		Start:    start,
		End:      start.Add(time.Minute),
		Duration: time.Minute,
		Distance: 20,
		Route:    route,
		Created:  start.Add(time.Minute),
	}
}

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func ids(runs []*catrun.CatRun) []conceptual.ActivityID {
	out := make([]conceptual.ActivityID, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}

func TestStore_SaveList(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	for _, r := range []*catrun.CatRun{
		testRun("c", 3, activity.Running),
		testRun("a", 1, activity.Walking),
		testRun("b", 2, activity.Running),
	} {
		if err := s.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		name string
		q    Query
		want []conceptual.ActivityID
	}{
		{"all", Query{}, []conceptual.ActivityID{"a", "b", "c"}},
		{"running", Query{Activity: activity.Running}, []conceptual.ActivityID{"b", "c"}},
		{"except", Query{ExceptID: "b"}, []conceptual.ActivityID{"a", "c"}},
		{"from", Query{From: testdata.T0.AddDate(0, 0, 2)}, []conceptual.ActivityID{"b", "c"}},
		{"to", Query{To: testdata.T0.AddDate(0, 0, 1)}, []conceptual.ActivityID{"a"}},
		{"limit", Query{Limit: 2}, []conceptual.ActivityID{"b", "c"}},
	}
	for _, c := range cases {
		got, err := s.List(c.q)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if g := ids(got); len(g) != len(c.want) {
			t.Errorf("%s: got %v, want %v", c.name, g, c.want)
		} else {
			for i := range g {
				if g[i] != c.want[i] {
					t.Errorf("%s: got %v, want %v", c.name, g, c.want)
					break
				}
			}
		}
	}

	// Reopen without the cache.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s = openTestStore(t, dir)
	defer s.Close()
	got, err := s.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	if got.Activity != activity.Running || len(got.Route) != 3 || !got.Start.Equal(testdata.T0.AddDate(0, 0, 2)) {
		t.Errorf("got %+v after reopen", got)
	}
	all, err := s.List(Query{})
	if err != nil || len(all) != 3 {
		t.Errorf("got %d activities, err %v, want 3", len(all), err)
	}
}

func TestStore_GetDelete(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty store: got %v, want %v", err, ErrNotFound)
	}
	if err := s.Save(testRun("a", 1, activity.Walking)); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want %v after delete", err, ErrNotFound)
	}
	if err := s.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want %v deleting twice", err, ErrNotFound)
	}
}

func TestStore_SaveInvalid(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()
	bad := testRun("", 1, activity.Walking)
	if err := s.Save(bad); !errors.Is(err, catrun.ErrInvalidCatRun) {
		t.Errorf("got %v, want %v", err, catrun.ErrInvalidCatRun)
	}
	got, err := s.List(Query{})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v %v, want nothing stored", got, err)
	}
}

func TestStore_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	if err := s.Save(testRun("a", 1, activity.Walking)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	ro, err := Open(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	if err := ro.Save(testRun("b", 2, activity.Walking)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("got %v, want %v", err, ErrReadOnly)
	}
	if got, err := ro.List(Query{}); err != nil || len(got) != 1 {
		t.Errorf("got %v %v, want one activity", got, err)
	}
}
