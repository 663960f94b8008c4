package activity

import (
	"encoding/json"
	"testing"

	"github.com/rotblauer/catpace/common"
)

func TestFromString(t *testing.T) {
	cases := []struct {
		in   string
		want Activity
	}{
		{"walking", Walking},
		{"Walking", Walking},
		{"hike", Walking},
		{"running", Running},
		{"RUN", Running},
		{"jogging", Running},
		{"", Unknown},
		{"cycling", Unknown},
	}
	for _, c := range cases {
		if got := FromString(c.in); got != c.want {
			t.Errorf("FromString(%q): got %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInferFromSpeed(t *testing.T) {
	cases := []struct {
		speed float64
		want  Activity
	}{
		{0, Unknown},
		{common.SpeedOfWalkingMin, Walking},
		{common.SpeedOfWalkingMean, Walking},
		{common.SpeedOfWalkingMax, Walking},
		{common.SpeedOfRunningMean, Running},
	}
	for _, c := range cases {
		if got := InferFromSpeed(c.speed); got != c.want {
			t.Errorf("InferFromSpeed(%v): got %v, want %v", c.speed, got, c.want)
		}
	}
}

func TestActivity_JSON(t *testing.T) {
	b, err := json.Marshal(struct{ A Activity }{Running})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"A":"Running"}` {
		t.Errorf("got %s", b)
	}
	var v struct{ A Activity }
	if err := json.Unmarshal([]byte(`{"A":"Walking"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != Walking {
		t.Errorf("got %v, want %v", v.A, Walking)
	}
	if err := json.Unmarshal([]byte(`{"A":"Swimming"}`), &v); err == nil {
		t.Error("want error for unknown activity")
	}
}
