package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/fogleman/poissondisc"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/royalcat/airplaces/geocoder"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/royalcat/airplaces/internal/stats"
	"github.com/royalcat/airplaces/loader"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"
)

const (
	defaultStatsInterval = 500 * time.Millisecond
	benchBatchSize       = 1000
)

// contiguous United States
var benchBound = struct{ minLat, minLon, maxLat, maxLon float64 }{24.5, -124.8, 49.4, -66.9}

func bench(ctx *cli.Context) error {
	log := slog.Default()

	workers := int(ctx.Int("workers"))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queries := int(ctx.Int("queries"))
	if queries <= 0 {
		return fmt.Errorf("queries must be positive")
	}
	opts := loader.Options{Logger: log, Progress: ctx.Bool("progress")}

	var airports *geocoder.Airports
	if path := ctx.String("airports"); path != "" {
		records, _, err := loader.LoadAirports(path, opts)
		if err != nil {
			return err
		}
		airports = geocoder.NewAirports(records, geocoder.WithLogger(log))
	}

	var cities *geocoder.Cities
	var names []string
	if path := ctx.String("cities"); path != "" {
		records, _, err := loader.LoadCities(path, opts)
		if err != nil {
			return err
		}
		names = make([]string, len(records))
		for i, c := range records {
			names[i] = c.Name
		}
		cities = geocoder.NewCities(records, geocoder.WithLogger(log))
	}

	if airports == nil && cities == nil {
		return fmt.Errorf("at least one of --airports or --cities is required")
	}

	work := benchQueries{airports: airports, cities: cities, points: benchPoints(queries), names: names}
	if work.empty() {
		return errNothingToQuery
	}
	log.Info("Benchmark starting", "queries", queries, "workers", workers, "sample_points", len(work.points))

	counter := xsync.NewCounter()
	collector, err := stats.NewCollector(ctx.Duration("stats-interval"), counter.Value)
	if err != nil {
		return err
	}

	bar := pb.Full.Start(queries)
	collector.Start()
	start := time.Now()

	p := pool.New().WithMaxGoroutines(workers)
	for batch := 0; batch < queries; batch += benchBatchSize {
		end := min(batch+benchBatchSize, queries)
		p.Go(func() {
			for i := batch; i < end; i++ {
				work.run(i)
				counter.Inc()
			}
			bar.Add(end - batch)
		})
	}
	p.Wait()

	elapsed := time.Since(start)
	bar.Finish()
	rt := collector.Stop()

	fmt.Printf("Queries:    %s\n", humanize.Comma(counter.Value()))
	fmt.Printf("Elapsed:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput: %s queries/s\n", humanize.CommafWithDigits(float64(queries)/elapsed.Seconds(), 0))
	fmt.Printf("Peak heap:  %s\n", humanize.IBytes(rt.Summary.PeakHeapAlloc))

	if file := ctx.String("stats-file"); file != "" {
		if err := rt.SaveToFile(file); err != nil {
			return err
		}
		log.Info("Runtime statistics saved", "file", file)
	}

	return nil
}

var errNothingToQuery = errors.New("loaded data files contain no records")

type benchQueries struct {
	airports *geocoder.Airports
	cities   *geocoder.Cities
	points   []geomodel.Location
	names    []string
}

func (q *benchQueries) canLocate() bool {
	return q.airports != nil && q.airports.Size() > 0 && len(q.points) > 0
}

func (q *benchQueries) canName() bool {
	return q.cities != nil && len(q.names) > 0
}

func (q *benchQueries) empty() bool {
	return !q.canLocate() && !q.canName()
}

// run alternates nearest and city queries when both indexes have records.
func (q *benchQueries) run(i int) {
	switch {
	case q.canLocate() && (!q.canName() || i%2 == 0):
		q.airports.Nearest(q.points[i%len(q.points)])
	case q.canName():
		q.cities.Query(q.names[i%len(q.names)], "")
	}
}

// benchPoints returns evenly spread query locations, about n of them.
func benchPoints(n int) []geomodel.Location {
	b := benchBound
	area := (b.maxLat - b.minLat) * (b.maxLon - b.minLon)
	// a poisson disc sample of radius r covers roughly 1.5 r^2 per point
	r := math.Sqrt(area / (1.5 * float64(n)))

	sample := poissondisc.Sample(b.minLon, b.minLat, b.maxLon, b.maxLat, r, 10, nil)
	points := make([]geomodel.Location, len(sample))
	for i, p := range sample {
		points[i] = geomodel.Location{Lat: p.Y, Lon: p.X}
	}
	if len(points) == 0 {
		points = append(points, geomodel.Location{Lat: b.minLat, Lon: b.minLon})
	}
	return points
}
