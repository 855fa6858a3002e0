package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/royalcat/airplaces/geomodel"
)

var ErrPlaceNotFound = errors.New("place not found")

// AmbiguousPlaceError is returned when a place query matches several cities.
type AmbiguousPlaceError struct {
	Query      string
	State      string
	Candidates []geomodel.City
}

func (e *AmbiguousPlaceError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("place %q (%s) is ambiguous: %d candidates", e.Query, e.State, len(e.Candidates))
	}
	return fmt.Sprintf("place %q is ambiguous: %d candidates", e.Query, len(e.Candidates))
}

// Places resolves a city and finds the airports closest to it.
type Places struct {
	cities   *Cities
	airports AirportFinder

	logger *slog.Logger
}

func NewPlaces(cities *Cities, airports AirportFinder, opts ...Option) *Places {
	options := loadOptions(opts...)

	return &Places{
		cities:   cities,
		airports: airports,
		logger:   options.logger,
	}
}

func (p *Places) Lookup(ctx context.Context, name, state string) (geomodel.PlaceAirports, error) {
	res := p.cities.Query(name, state)
	if res.Ambiguous {
		return geomodel.PlaceAirports{}, &AmbiguousPlaceError{
			Query:      name,
			State:      state,
			Candidates: res.Cities,
		}
	}
	if len(res.Cities) == 0 {
		return geomodel.PlaceAirports{}, fmt.Errorf("%w: %q", ErrPlaceNotFound, name)
	}

	place := res.Cities[0]
	airports, err := p.airports.NearestAirports(ctx, place.Location)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error finding airports", "place", place.Name, "state", place.State, "error", err)
		return geomodel.PlaceAirports{}, fmt.Errorf("error finding airports near %s, %s: %w", place.Name, place.State, err)
	}

	return geomodel.PlaceAirports{Place: place, Airports: airports}, nil
}
