package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/royalcat/airplaces/geocoder"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/royalcat/airplaces/server"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const testHost = "http://airplaces"

func startServer(t *testing.T) *fasthttp.Client {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opt := geocoder.WithLogger(log)
	airports := geocoder.NewAirports([]geomodel.Airport{
		{Code: "ORD", Name: "Chicago O'Hare International", State: "IL", Location: geomodel.Location{Lat: 41.9786, Lon: -87.9048}},
		{Code: "MDW", Name: "Chicago Midway International", State: "IL", Location: geomodel.Location{Lat: 41.7861, Lon: -87.7522}},
		{Code: "SPI", Name: "Abraham Lincoln Capital", State: "IL", Location: geomodel.Location{Lat: 39.8441, Lon: -89.6779}},
		{Code: "BOS", Name: "Logan International", State: "MA", Location: geomodel.Location{Lat: 42.3643, Lon: -71.0052}},
	}, opt)
	cities := geocoder.NewCities([]geomodel.City{
		{Name: "Chicago", State: "IL", Location: geomodel.Location{Lat: 41.837, Lon: -87.685}},
		{Name: "Springfield", State: "IL", Location: geomodel.Location{Lat: 39.782, Lon: -89.650}},
		{Name: "Springfield", State: "MA", Location: geomodel.Location{Lat: 42.115, Lon: -72.540}},
		{Name: "St. Louis", State: "MO", Location: geomodel.Location{Lat: 38.627, Lon: -90.199}},
	}, opt)

	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln, server.Services{
			Airports: airports,
			Cities:   cities,
			Places:   geocoder.NewPlaces(cities, airports, opt),
			Logger:   log,
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
}

func TestQueryPlace(t *testing.T) {
	client := startServer(t)

	var out bytes.Buffer
	err := queryPlace(context.Background(), client, testHost, "springfield", "il", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected place and 4 airports, got %q", out.String())
	}
	if lines[0] != "Springfield, IL : 39.782, -89.65" {
		t.Fatalf("unexpected place line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "distance=") || !strings.Contains(lines[1], "code=SPI, state=IL, name=Abraham Lincoln Capital") {
		t.Fatalf("unexpected first airport line %q", lines[1])
	}
}

func TestQueryPlaceMultiWord(t *testing.T) {
	client := startServer(t)

	for _, name := range []string{"St. Louis", "st. l"} {
		var out bytes.Buffer
		if err := queryPlace(context.Background(), client, testHost, name, "", &out); err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if lines[0] != "St. Louis, MO : 38.627, -90.199" {
			t.Fatalf("%q: unexpected place line %q", name, lines[0])
		}
		if !strings.Contains(lines[1], "code=SPI") {
			t.Fatalf("%q: unexpected first airport line %q", name, lines[1])
		}
	}
}

func TestQueryPositionUnwrappedLongitude(t *testing.T) {
	client := startServer(t)

	var want, got bytes.Buffer
	if err := queryPosition(context.Background(), client, testHost, geomodel.Location{Lat: 41.85, Lon: -87.65}, &want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := queryPosition(context.Background(), client, testHost, geomodel.Location{Lat: 41.85, Lon: 272.35}, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantLines := strings.Split(strings.TrimSpace(want.String()), "\n")
	gotLines := strings.Split(strings.TrimSpace(got.String()), "\n")
	if len(wantLines) != len(gotLines) {
		t.Fatalf("expected %q, got %q", want.String(), got.String())
	}
	for i := range wantLines {
		// distances may differ in the last printed digit
		w := wantLines[i][strings.Index(wantLines[i], ", code="):]
		g := gotLines[i][strings.Index(gotLines[i], ", code="):]
		if w != g {
			t.Fatalf("line %d: expected %q, got %q", i, wantLines[i], gotLines[i])
		}
	}
}

func TestQueryPlaceAmbiguous(t *testing.T) {
	client := startServer(t)

	var out bytes.Buffer
	err := queryPlace(context.Background(), client, testHost, "Springfield", "", &out)

	var ambiguous *geocoder.AmbiguousPlaceError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", ambiguous.Candidates)
	}
	if !strings.Contains(out.String(), "Springfield, IL") || !strings.Contains(out.String(), "Springfield, MA") {
		t.Fatalf("candidates not printed: %q", out.String())
	}
}

func TestQueryPlaceNotFound(t *testing.T) {
	client := startServer(t)

	var out bytes.Buffer
	err := queryPlace(context.Background(), client, testHost, "Gotham City", "NJ", &out)
	if !errors.Is(err, geocoder.ErrPlaceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestQueryPosition(t *testing.T) {
	client := startServer(t)

	var out bytes.Buffer
	err := queryPosition(context.Background(), client, testHost, geomodel.Location{Lat: 41.85, Lon: -87.65}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 airports, got %q", out.String())
	}
	if !strings.Contains(lines[0], "code=MDW") {
		t.Fatalf("unexpected nearest airport %q", lines[0])
	}
}

func TestQueryPositionInvalid(t *testing.T) {
	client := startServer(t)

	err := queryPosition(context.Background(), client, testHost, geomodel.Location{Lat: 123, Lon: 0}, io.Discard)
	if !errors.Is(err, geocoder.ErrRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestWriteAirports(t *testing.T) {
	var list geomodel.AirportList
	list[0] = geomodel.NearestAirport{
		Airport:  geomodel.Airport{Code: "SEA", Name: "Seattle-Tacoma International", State: "WA"},
		Distance: 12.3456789,
	}

	var out bytes.Buffer
	writeAirports(&out, &list)

	expected := "distance=12.3457, code=SEA, state=WA, name=Seattle-Tacoma International\n"
	if out.String() != expected {
		t.Fatalf("expected %q, got %q", expected, out.String())
	}
}

func TestBenchPoints(t *testing.T) {
	points := benchPoints(1000)
	if len(points) < 500 {
		t.Fatalf("expected about 1000 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Lat < benchBound.minLat || p.Lat > benchBound.maxLat || p.Lon < benchBound.minLon || p.Lon > benchBound.maxLon {
			t.Fatalf("point %+v outside bound", p)
		}
	}
}
