package testdata

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catpace/common"
	"github.com/rotblauer/catpace/types/fix"
	"github.com/rotblauer/catpace/types/trackpoint"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(basepath, rel)
}

// Source_Walk_Loring is a short NDJSON walk with GPS noise, one fix per second.
var Source_Walk_Loring = "./walk_loring.ndjson"

// ReadFixes decodes all fixes in the file at path (relative to this directory).
func ReadFixes(path string) ([]fix.Fix, error) {
	f, err := os.Open(Path(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fix.DecodeAll(f)
}

// Origin is a fixed point (Loring Park, Minneapolis) used as the start of synthesized tracks.
var Origin = orb.Point{-93.2824, 44.9691}

// T0 is a fixed start time for synthesized tracks.
var T0 = time.Date(2024, 12, 23, 15, 0, 0, 0, time.UTC)

// MeridianFixes returns n fixes heading due north from Origin, spaced step meters
// and interval apart, all reporting the given accuracy and no speed.
func MeridianFixes(n int, step float64, interval time.Duration, accuracy float64) []fix.Fix {
	out := make([]fix.Fix, 0, n)
	for i := 0; i < n; i++ {
		p := common.Offset(Origin, step*float64(i), 0)
		out = append(out, fix.Fix{
			Lat:      p.Lat(),
			Lng:      p.Lon(),
			Accuracy: accuracy,
			Time:     T0.Add(time.Duration(i) * interval),
		})
	}
	return out
}

// MeridianRoute is like MeridianFixes but returns route points, as if already filtered.
func MeridianRoute(n int, step float64, interval time.Duration) trackpoint.Route {
	fixes := MeridianFixes(n, step, interval, 5)
	out := make(trackpoint.Route, 0, n)
	for _, f := range fixes {
		out = append(out, trackpoint.FromFix(f))
	}
	return out
}
