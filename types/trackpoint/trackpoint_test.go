package trackpoint

import (
	"testing"
	"time"

	"github.com/rotblauer/catpace/types/fix"
)

func TestFromFix(t *testing.T) {
	alt := 246.0
	f := fix.Fix{Lat: 44.98, Lng: -93.25, Altitude: &alt, Accuracy: 4.2, Time: time.Unix(1731711463, 0)}
	tp := FromFix(f)
	if tp.Lat != f.Lat || tp.Lng != f.Lng || tp.Accuracy != f.Accuracy || !tp.Time.Equal(f.Time) {
		t.Errorf("got %+v, want fields of %+v", tp, f)
	}
	if tp.Elevation == nil || *tp.Elevation != alt {
		t.Fatalf("got elevation %v, want %v", tp.Elevation, alt)
	}
	alt = 0
	if *tp.Elevation != 246.0 {
		t.Error("elevation aliases the fix altitude")
	}
}

func TestRoute_Since(t *testing.T) {
	start := time.Unix(0, 0)
	var r Route
	for i := 0; i < 5; i++ {
		r = append(r, TrackPoint{Lat: float64(i), Time: start.Add(time.Duration(i) * 10 * time.Second)})
	}
	cases := []struct {
		since time.Time
		want  int
	}{
		{start.Add(-time.Second), 5},
		{start.Add(20 * time.Second), 3},
		{start.Add(25 * time.Second), 2},
		{start.Add(time.Hour), 0},
	}
	for _, c := range cases {
		if got := len(r.Since(c.since)); got != c.want {
			t.Errorf("Since(%v): got %d, want %d", c.since, got, c.want)
		}
	}
	if got := r.Span(); got != 40*time.Second {
		t.Errorf("got span %v, want 40s", got)
	}
	if got := len(r.LineString()); got != 5 {
		t.Errorf("got %d line points, want 5", got)
	}
}
