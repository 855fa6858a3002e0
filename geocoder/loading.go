package geocoder

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/royalcat/airplaces/citytrie"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/royalcat/airplaces/kdtree"
	"github.com/royalcat/airplaces/loader"
)

const defaultTimeout = 5 * time.Second

func loadOptions(opts ...Option) options {
	options := options{
		logger:  slog.Default(),
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o.apply(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	return options
}

func (o options) loaderOptions() loader.Options {
	return loader.Options{Logger: o.logger, Progress: o.progress}
}

// NewAirports builds the spatial index, it takes ownership of airports.
func NewAirports(airports []geomodel.Airport, opts ...Option) *Airports {
	options := loadOptions(opts...)
	start := time.Now()

	points := make([]kdtree.Point[geomodel.Airport], len(airports))
	for i, a := range airports {
		points[i] = kdtree.Point[geomodel.Airport]{Lat: a.Lat, Lon: a.Lon, Data: a}
	}
	tree := kdtree.New(points)

	options.logger.Info("Airports index built", "size", tree.Len(), "took", time.Since(start))

	return &Airports{tree: tree}
}

func LoadAirportsFromReader(r io.Reader, opts ...Option) (*Airports, error) {
	options := loadOptions(opts...)

	airports, _, err := loader.ReadAirports(r, "reader", options.logger)
	if err != nil {
		return nil, fmt.Errorf("error loading airports: %w", err)
	}
	return NewAirports(airports, opts...), nil
}

func LoadAirportsFromFile(file string, opts ...Option) (*Airports, error) {
	options := loadOptions(opts...)

	airports, _, err := loader.LoadAirports(file, options.loaderOptions())
	if err != nil {
		return nil, fmt.Errorf("error loading airports: %w", err)
	}
	return NewAirports(airports, opts...), nil
}

// NewCities builds the name index, it takes ownership of cities.
func NewCities(cities []geomodel.City, opts ...Option) *Cities {
	options := loadOptions(opts...)
	start := time.Now()

	trie := citytrie.New(cities)

	options.logger.Info("Cities index built", "size", trie.Len(), "took", time.Since(start))

	return &Cities{trie: trie}
}

func LoadCitiesFromReader(r io.Reader, opts ...Option) (*Cities, error) {
	options := loadOptions(opts...)

	cities, _, err := loader.ReadCities(r, "reader", options.logger)
	if err != nil {
		return nil, fmt.Errorf("error loading cities: %w", err)
	}
	return NewCities(cities, opts...), nil
}

func LoadCitiesFromFile(file string, opts ...Option) (*Cities, error) {
	options := loadOptions(opts...)

	cities, _, err := loader.LoadCities(file, options.loaderOptions())
	if err != nil {
		return nil, fmt.Errorf("error loading cities: %w", err)
	}
	return NewCities(cities, opts...), nil
}
