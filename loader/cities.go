package loader

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/royalcat/airplaces/geomodel"
)

// fixed-width columns of a places file line
const (
	stateEnd    = 2
	nameStart   = 9
	nameEnd     = 73
	latStart    = 143
	lonStart    = 153
	cityLineLen = 163
)

// census designated places are not cities
const skippedPlaceType = "CDP"

// LoadCities reads a fixed-width places file.
func LoadCities(path string, opts Options) ([]geomodel.City, Stats, error) {
	r, err := Open(path, opts.Progress)
	if err != nil {
		return nil, Stats{}, err
	}
	defer r.Close()

	return ReadCities(r, path, opts.logger())
}

// ReadCities parses city records from r, name is used in errors and logs.
func ReadCities(r io.Reader, name string, log *slog.Logger) ([]geomodel.City, Stats, error) {
	var st Stats
	var cities []geomodel.City

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		st.Lines++
		line := trimCR(sc.Text())
		if line == "" {
			continue
		}

		c, ok, err := parseCity(line)
		if err != nil {
			return nil, st, &FormatError{Path: name, Line: st.Lines, Text: line, Err: err}
		}
		if !ok {
			st.Skipped++
			continue
		}
		cities = append(cities, c)
		st.Records++
	}
	if err := sc.Err(); err != nil {
		return nil, st, fmt.Errorf("error reading %s: %w", name, err)
	}

	log.Info("Cities loaded", "source", name, "stats", st)

	return cities, st, nil
}

func parseCity(line string) (geomodel.City, bool, error) {
	if len(line) < cityLineLen {
		return geomodel.City{}, false, errShortLine
	}

	name, placeType := splitPlaceType(line[nameStart:nameEnd])
	if placeType == skippedPlaceType || name == "" {
		return geomodel.City{}, false, nil
	}

	lat, err := parseCoordinate(line[latStart:lonStart])
	if err != nil {
		return geomodel.City{}, false, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoordinate(line[lonStart:cityLineLen])
	if err != nil {
		return geomodel.City{}, false, fmt.Errorf("longitude: %w", err)
	}

	return geomodel.City{
		Name:     name,
		State:    strings.TrimSpace(line[:stateEnd]),
		Location: geomodel.Location{Lat: lat, Lon: lon},
	}, true, nil
}

// splitPlaceType separates the trailing place type ("city", "town", "CDP") from a name.
func splitPlaceType(s string) (name, placeType string) {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return "", s
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return strings.TrimSpace(s[:i]), s[i+size:]
}
