package clean

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/catpace/types/fix"
)

// dedupeKey is the hashed identity of a fix.
// time.Time has no exported fields, so the instant is carried as nanos.
type dedupeKey struct {
	Lat, Lng, Accuracy float64
	UnixNano           int64
}

// NewDedupeFunc returns a function reporting true the first time a fix is seen,
// and false for repeats among the last size distinct fixes.
// Foreground and background providers may deliver the same fix twice.
func NewDedupeFunc(size int) func(f fix.Fix) bool {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[uint64, struct{}](size)
	if err != nil {
		panic(err)
	}
	return func(f fix.Fix) bool {
		hash, err := hashstructure.Hash(dedupeKey{
			Lat: f.Lat, Lng: f.Lng, Accuracy: f.Accuracy, UnixNano: f.Time.UnixNano(),
		}, hashstructure.FormatV2, nil)
		if err != nil {
			return true
		}
		seen, _ := cache.ContainsOrAdd(hash, struct{}{})
		return !seen
	}
}
