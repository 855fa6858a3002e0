package loader

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/royalcat/airplaces/geomodel"
)

// LoadAirports reads an airport locations file.
//
// The first line is a header. Every other non-blank line looks like
//
//	[ORD] 41.98 -87.90 Chicago O'Hare International, IL
func LoadAirports(path string, opts Options) ([]geomodel.Airport, Stats, error) {
	r, err := Open(path, opts.Progress)
	if err != nil {
		return nil, Stats{}, err
	}
	defer r.Close()

	return ReadAirports(r, path, opts.logger())
}

// ReadAirports parses airport records from r, name is used in errors and logs.
func ReadAirports(r io.Reader, name string, log *slog.Logger) ([]geomodel.Airport, Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, st, fmt.Errorf("error reading %s: %w", name, err)
		}
		return nil, st, &FormatError{Path: name, Line: 1, Err: errMissingHeader}
	}
	st.Lines++

	header := trimCR(sc.Text())
	if len(header) < 10 || header[1:4] != "air" {
		return nil, st, &FormatError{Path: name, Line: 1, Text: header, Err: errBadHeader}
	}

	var airports []geomodel.Airport
	for sc.Scan() {
		st.Lines++
		line := trimCR(sc.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		a, err := parseAirport(line)
		if err != nil {
			return nil, st, &FormatError{Path: name, Line: st.Lines, Text: line, Err: err}
		}
		airports = append(airports, a)
		st.Records++
	}
	if err := sc.Err(); err != nil {
		return nil, st, fmt.Errorf("error reading %s: %w", name, err)
	}

	log.Info("Airports loaded", "source", name, "stats", st)

	return airports, st, nil
}

func parseAirport(line string) (geomodel.Airport, error) {
	code, rest := nextField(line)
	latText, rest := nextField(rest)
	lonText, rest := nextField(rest)

	if len(code) != 5 || code[0] != '[' || code[4] != ']' {
		return geomodel.Airport{}, errBadCode
	}
	lat, err := parseCoordinate(latText)
	if err != nil {
		return geomodel.Airport{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoordinate(lonText)
	if err != nil {
		return geomodel.Airport{}, fmt.Errorf("longitude: %w", err)
	}

	comma := strings.LastIndexByte(rest, ',')
	if comma < 0 {
		return geomodel.Airport{}, errMissingState
	}
	name := strings.TrimSpace(rest[:comma])
	state := strings.TrimSpace(rest[comma+1:])
	if name == "" {
		return geomodel.Airport{}, errMissingName
	}
	if state == "" {
		return geomodel.Airport{}, errMissingState
	}

	return geomodel.Airport{
		Code:     code[1:4],
		Name:     name,
		State:    state,
		Location: geomodel.Location{Lat: lat, Lon: lon},
	}, nil
}

func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errBadCoordinate
	}
	return v, nil
}
