package fix

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/gjson"
)

var ErrDecodeFix = errors.New("could not decode as fix or geojson feature")

// ScanJSONMessages reads a stream of JSON messages from an io.Reader,
// and calls onEach for each decoded message.
// If the stream is encoded as a JSON array, onEach is called for each element.
// A GeoJSON FeatureCollection is a single object;
// use DecodeJSONObject to handle the 'features' within.
func ScanJSONMessages(body io.Reader, onEach func(message json.RawMessage) error) error {
	buf := bufio.NewReader(body)
	first, err := skipSpace(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	dec := json.NewDecoder(buf)
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	for dec.More() {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode err: %T %w", err, err)
		}
		if err := onEach(msg); err != nil {
			return err
		}
	}
	return nil
}

// DecodeJSONObject decodes a JSON object into one or more fixes.
// It accepts flat fix objects ({"lat":..,"lng"|"long":..,"time":..}),
// GeoJSON Features with the fix fields in properties,
// and GeoJSON FeatureCollections, which call onEach for each feature.
func DecodeJSONObject(msg []byte, onEach func(f Fix) error) error {
	parsed := gjson.ParseBytes(msg)
	if !parsed.IsObject() {
		return fmt.Errorf("%w: not an object", ErrDecodeFix)
	}

	switch parsed.Get("type").String() {
	case "FeatureCollection":
		feats := parsed.Get("features")
		if !feats.Exists() {
			return errors.New("no 'features' attribute present in feature collection")
		}
		for _, el := range feats.Array() {
			if err := DecodeJSONObject([]byte(el.Raw), onEach); err != nil {
				return err
			}
		}
		return nil
	case "Feature":
		f, err := decodeFeature(parsed)
		if err != nil {
			return err
		}
		return onEach(f)
	}

	f, err := decodeFlat(parsed)
	if err != nil {
		return err
	}
	return onEach(f)
}

// DecodeAll reads all fixes from r. See ScanJSONMessages and DecodeJSONObject.
func DecodeAll(r io.Reader) ([]Fix, error) {
	var out []Fix
	err := ScanJSONMessages(r, func(msg json.RawMessage) error {
		return DecodeJSONObject(msg, func(f Fix) error {
			out = append(out, f)
			return nil
		})
	})
	return out, err
}

// skipSpace advances past leading whitespace and returns the next byte without consuming it.
func skipSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, r.UnreadByte()
	}
}

func decodeFlat(r gjson.Result) (Fix, error) {
	lat, lng := r.Get("lat"), r.Get("lng")
	if !lng.Exists() {
		lng = r.Get("long")
	}
	if !lat.Exists() || !lng.Exists() {
		return Fix{}, fmt.Errorf("%w: missing lat/lng", ErrDecodeFix)
	}
	f := Fix{
		Lat:      lat.Float(),
		Lng:      lng.Float(),
		Accuracy: r.Get("accuracy").Float(),
		Speed:    optional(r.Get("speed")),
		Heading:  optional(r.Get("heading")),
	}
	f.Altitude = optional(r.Get("altitude"))
	if f.Altitude == nil {
		f.Altitude = optional(r.Get("elevation"))
	}
	t, err := decodeTime(r.Get("time"))
	if err != nil {
		return Fix{}, err
	}
	f.Time = t
	return f, f.Validate()
}

func decodeFeature(r gjson.Result) (Fix, error) {
	if gt := r.Get("geometry.type").String(); gt != "Point" {
		return Fix{}, fmt.Errorf("%w: geometry type %q", ErrDecodeFix, gt)
	}
	coords := r.Get("geometry.coordinates").Array()
	if len(coords) < 2 {
		return Fix{}, fmt.Errorf("%w: short coordinates", ErrDecodeFix)
	}
	props := r.Get("properties")
	f := Fix{
		Lng:      coords[0].Float(),
		Lat:      coords[1].Float(),
		Accuracy: props.Get("Accuracy").Float(),
		Speed:    optional(props.Get("Speed")),
		Heading:  optional(props.Get("Heading")),
	}
	if len(coords) > 2 {
		f.Altitude = Float(coords[2].Float())
	} else {
		f.Altitude = optional(props.Get("Elevation"))
	}
	tm := props.Get("Time")
	if !tm.Exists() {
		tm = props.Get("UnixTime")
	}
	t, err := decodeTime(tm)
	if err != nil {
		return Fix{}, err
	}
	f.Time = t
	return f, f.Validate()
}

// decodeTime accepts RFC3339 strings or unix seconds.
func decodeTime(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, r.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", ErrDecodeFix, err)
		}
		return t, nil
	case gjson.Number:
		return time.Unix(r.Int(), 0).UTC(), nil
	}
	return time.Time{}, ErrMissingTime
}

func optional(r gjson.Result) *float64 {
	if !r.Exists() || r.Type != gjson.Number {
		return nil
	}
	return Float(r.Float())
}
