package influxdb

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/catpace/events"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/types/catrun"
)

var ErrNotConfigured = errors.New("influxdb not configured")

// RunPoints returns one "catrun" summary point for the run,
// and one "catrun_split" point per split, stamped at the run's end.
func RunPoints(run *catrun.CatRun) []*write.Point {
	summary := influxdb2.NewPointWithMeasurement("catrun").
		SetTime(run.Start).
		AddTag("id", run.ID.String()).
		AddTag("activity", run.Activity.String()).
		AddField("distance", run.Distance).
		AddField("duration", run.Duration.Seconds()).
		AddField("steps", run.Steps).
		AddField("calories", run.Calories).
		AddField("pace_average", run.AveragePace).
		AddField("pace_max", run.MaxPace).
		AddField("accuracy_mean", run.AccuracyMean).
		AddField("points", len(run.Route))
	if run.ElevationGain != nil {
		summary.AddField("elevation_gain", *run.ElevationGain)
	}
	if run.ElevationLoss != nil {
		summary.AddField("elevation_loss", *run.ElevationLoss)
	}
	points := []*write.Point{summary}

	for _, split := range run.Splits {
		p := influxdb2.NewPointWithMeasurement("catrun_split").
			SetTime(run.End).
			AddTag("id", run.ID.String()).
			AddTag("activity", run.Activity.String()).
			AddTag("split", strconv.Itoa(split.Index)).
			AddField("distance", split.Distance).
			AddField("duration", split.Duration.Seconds()).
			AddField("pace", split.Pace).
			AddField("elevation", split.Elevation)
		points = append(points, p)
	}
	return points
}

// ExportCatRuns posts runs to an InfluxDB Write API.
// The Write API will buffer and flush; the last error encountered is returned.
func ExportCatRuns(config *params.InfluxConfig, runs []*catrun.CatRun) error {
	if !config.Enabled() {
		return ErrNotConfigured
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Second)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// Errors must be drained or the writer blocks.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, run := range runs {
		for _, p := range RunPoints(run) {
			writeAPI.WritePoint(p)
		}
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}

// Exporter posts every stored run until the context is canceled.
// It is a no-op when the config is not enabled.
func Exporter(ctx context.Context, config *params.InfluxConfig) {
	if !config.Enabled() {
		slog.Debug("InfluxDB export disabled")
		return
	}
	ch := make(chan *catrun.CatRun, 8)
	sub := events.StoredRunFeed.Subscribe(ch)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				slog.Error("InfluxDB export subscription failed", "error", err)
			}
			return
		case run := <-ch:
			if err := ExportCatRuns(config, []*catrun.CatRun{run}); err != nil {
				slog.Error("Failed to export activity to InfluxDB", "id", run.ID, "error", err)
				continue
			}
			slog.Info("Exported activity to InfluxDB", "id", run.ID, "url", config.URL)
		}
	}
}
