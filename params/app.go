package params

import (
	"path/filepath"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mitchellh/go-homedir"
)

func init() {
	// Pipeline counters are no-ops without this global setting.
	metrics.Enabled = true
}

var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".catpace")
}()

const ActivitiesDBName = "activities.db"

var ActivitiesBucket = []byte("activities")

// ActivityCacheSize is the number of decoded activities the store keeps in memory.
var ActivityCacheSize = 256
