package fix

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestFix_Validate(t *testing.T) {
	now := time.Date(2024, 11, 15, 22, 57, 43, 0, time.UTC)
	cases := []struct {
		name string
		f    Fix
		want error
	}{
		{"ok", Fix{Lat: 44.98, Lng: -93.25, Accuracy: 4, Time: now}, nil},
		{"lat range", Fix{Lat: 91, Lng: 0, Accuracy: 4, Time: now}, ErrInvalidCoordinates},
		{"lng nan", Fix{Lat: 0, Lng: math.NaN(), Accuracy: 4, Time: now}, ErrInvalidCoordinates},
		{"negative accuracy", Fix{Lat: 0, Lng: 0, Accuracy: -1, Time: now}, ErrInvalidAccuracy},
		{"zero time", Fix{Lat: 0, Lng: 0, Accuracy: 4}, ErrMissingTime},
	}
	for _, c := range cases {
		err := c.f.Validate()
		if c.want == nil && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}
}

func TestFix_HasSpeed(t *testing.T) {
	if (Fix{}).HasSpeed() {
		t.Error("nil speed should not count")
	}
	if (Fix{Speed: Float(-1)}).HasSpeed() {
		t.Error("negative speed should not count")
	}
	if !(Fix{Speed: Float(0)}).HasSpeed() {
		t.Error("zero speed is a reported speed")
	}
}

func TestDecodeAll_NDJSON(t *testing.T) {
	in := `
{"lat":44.98,"long":-93.25,"accuracy":4.2,"time":"2024-11-15T22:57:43.999Z","speed":1.1,"elevation":246.0}
{"lat":44.99,"lng":-93.26,"accuracy":5,"time":1731711464}
`
	fixes, err := DecodeAll(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(fixes) != 2 {
		t.Fatalf("got %d fixes, want 2", len(fixes))
	}
	if fixes[0].Lng != -93.25 || fixes[0].Speed == nil || *fixes[0].Speed != 1.1 {
		t.Errorf("unexpected first fix: %+v", fixes[0])
	}
	if fixes[0].Altitude == nil || *fixes[0].Altitude != 246.0 {
		t.Errorf("got altitude %v, want 246", fixes[0].Altitude)
	}
	if fixes[1].Speed != nil || fixes[1].Altitude != nil {
		t.Errorf("want absent optionals, got %+v", fixes[1])
	}
	if fixes[1].Time.Unix() != 1731711464 {
		t.Errorf("got time %v", fixes[1].Time)
	}
}

func TestDecodeAll_GeoJSON(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-93.25,44.98,250]},"properties":{"Accuracy":3,"Time":"2024-11-15T22:57:43Z"}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-93.26,44.99]},"properties":{"Accuracy":6,"UnixTime":1731711470,"Speed":2.5}}
]}`
	fixes, err := DecodeAll(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(fixes) != 2 {
		t.Fatalf("got %d fixes, want 2", len(fixes))
	}
	if fixes[0].Lat != 44.98 || fixes[0].Altitude == nil || *fixes[0].Altitude != 250 {
		t.Errorf("unexpected first fix: %+v", fixes[0])
	}
	if !fixes[1].HasSpeed() || *fixes[1].Speed != 2.5 {
		t.Errorf("unexpected second fix: %+v", fixes[1])
	}
}

func TestDecodeAll_Array(t *testing.T) {
	in := ` [{"lat":1,"lng":2,"accuracy":3,"time":"2024-01-01T00:00:00Z"},{"lat":1.1,"lng":2,"accuracy":3,"time":"2024-01-01T00:00:01Z"}]`
	fixes, err := DecodeAll(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(fixes) != 2 {
		t.Errorf("got %d fixes, want 2", len(fixes))
	}
}

func TestDecodeAll_Invalid(t *testing.T) {
	in := `{"lat":1,"accuracy":3,"time":"2024-01-01T00:00:00Z"}`
	if _, err := DecodeAll(strings.NewReader(in)); !errors.Is(err, ErrDecodeFix) {
		t.Errorf("got %v, want %v", err, ErrDecodeFix)
	}
	if fixes, err := DecodeAll(strings.NewReader("")); err != nil || len(fixes) != 0 {
		t.Errorf("empty input: got %v %v", fixes, err)
	}
}
