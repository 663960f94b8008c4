package params

import "os"

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether enough is configured to attempt an export.
func (c *InfluxConfig) Enabled() bool {
	return c != nil && c.URL != "" && c.Bucket != ""
}

// DefaultInfluxConfig is read from the environment. Exports are skipped when unset.
var DefaultInfluxConfig = &InfluxConfig{
	URL:    os.Getenv("INFLUXDB_URL"),
	Token:  os.Getenv("INFLUXDB_TOKEN"),
	Org:    os.Getenv("INFLUXDB_ORG"),
	Bucket: os.Getenv("INFLUXDB_BUCKET"),
}
