// Package server exposes the airport and place indexes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/royalcat/airplaces/geocoder"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

const shutdownTimeout = 5 * time.Second

const instrumentation = "github.com/royalcat/airplaces/server"

var (
	meter  = otel.Meter(instrumentation)
	tracer = otel.Tracer(instrumentation)
)

// Services are the indexes served, routes of nil services are not registered.
type Services struct {
	Airports *geocoder.Airports
	Cities   *geocoder.Cities
	Places   *geocoder.Places

	Logger *slog.Logger
}

// Run listens on address and serves until ctx is canceled.
func Run(ctx context.Context, address string, svc Services) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return Serve(ctx, ln, svc)
}

// Serve serves on ln until ctx is canceled, then shuts the server down gracefully.
func Serve(ctx context.Context, ln net.Listener, svc Services) error {
	s, err := newServer(svc)
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		Name:               "airplaces",
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
		Logger:             fasthttpLogger{s.log.With("component", "fasthttp")},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	s.log.Info("Server listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = server.ShutdownWithContext(shutdownCtx)
	s.log.Info("Server stopped")
	return err
}

type fasthttpLogger struct {
	*slog.Logger
}

func (l fasthttpLogger) Printf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

type server struct {
	airports *geocoder.Airports
	cities   *geocoder.Cities
	places   *geocoder.Places

	log *slog.Logger

	metricRequestCount  metric.Int64Counter
	metricPointsLocated metric.Int64Counter
	metricPlaceLookups  metric.Int64Counter
}

func newServer(svc Services) (*server, error) {
	requestCount, err := meter.Int64Counter("http_request_total")
	if err != nil {
		return nil, err
	}
	pointsLocated, err := meter.Int64Counter("points_located_total")
	if err != nil {
		return nil, err
	}
	placeLookups, err := meter.Int64Counter("place_lookup_total")
	if err != nil {
		return nil, err
	}

	log := svc.Logger
	if log == nil {
		log = slog.Default()
	}

	return &server{
		airports: svc.Airports,
		cities:   svc.Cities,
		places:   svc.Places,
		log:      log,

		metricRequestCount:  requestCount,
		metricPointsLocated: pointsLocated,
		metricPlaceLookups:  placeLookups,
	}, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	if s.airports != nil {
		r.GET("/airports/nearest/{lat}/{lon}", s.NearestHandler)
		r.POST("/airports/nearest", s.NearestMultipleHandler)
		r.GET("/airports/within/{lat}/{lon}/{miles}", s.WithinHandler)
	}
	if s.cities != nil {
		r.GET("/places/{name}", s.PlacesHandler)
	}
	if s.places != nil {
		r.GET("/places/{name}/airports", s.PlaceAirportsHandler)
	}
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

func (s *server) countRequest(ctx context.Context, handler string) {
	s.metricRequestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("handler", handler)))
}

var reqPointsPool = sync.Pool{
	New: func() any {
		return new([][2]float64)
	},
}

func (s *server) NearestHandler(ctx *fasthttp.RequestCtx) {
	s.countRequest(ctx, "nearest")

	loc, ok := locationParam(ctx)
	if !ok {
		return
	}

	_, span := tracer.Start(ctx, "airports.nearest", trace.WithAttributes(
		attribute.Float64("latitude", loc.Lat),
		attribute.Float64("longitude", loc.Lon),
	))
	list := s.airports.Nearest(loc)
	span.End()
	s.metricPointsLocated.Add(ctx, 1)

	if string(ctx.QueryArgs().Peek("format")) == "geojson" {
		data, err := list.FeatureCollection().MarshalJSON()
		if err != nil {
			writeError(ctx, http.StatusInternalServerError, "failed to marshal response")
			return
		}
		ctx.SetContentType("application/geo+json")
		ctx.SetBody(data)
		return
	}

	writeJSON(ctx, http.StatusOK, &list)
}

func (s *server) NearestMultipleHandler(ctx *fasthttp.RequestCtx) {
	s.countRequest(ctx, "nearest_multiple")

	req := reqPointsPool.Get().(*[][2]float64) // lat, lon
	defer reqPointsPool.Put(req)

	points, err := parsePoints(ctx.Request.Body(), (*req)[:0])
	*req = points
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "failed to parse request: "+err.Error())
		return
	}
	for _, p := range points {
		if !validLocation(p[0], p[1]) {
			writeError(ctx, http.StatusBadRequest, "invalid coordinates")
			return
		}
	}

	s.metricPointsLocated.Add(ctx, int64(len(points)))

	res := make([]geomodel.AirportList, len(points))
	for i, p := range points {
		res[i] = s.airports.Nearest(geomodel.Location{Lat: p[0], Lon: p[1]})
	}

	w := jwriter.Writer{}
	geomodel.WriteAirportLists(&w, res)
	writeBuffer(ctx, http.StatusOK, &w)
}

func (s *server) WithinHandler(ctx *fasthttp.RequestCtx) {
	s.countRequest(ctx, "within")

	loc, ok := locationParam(ctx)
	if !ok {
		return
	}
	miles, err := strconv.ParseFloat(ctx.UserValue("miles").(string), 64)
	if err != nil || miles < 0 || math.IsInf(miles, 0) || math.IsNaN(miles) {
		writeError(ctx, http.StatusBadRequest, "invalid radius")
		return
	}

	res := s.airports.Within(loc, miles)
	s.metricPointsLocated.Add(ctx, 1)

	w := jwriter.Writer{}
	geomodel.WriteNearestList(&w, res)
	writeBuffer(ctx, http.StatusOK, &w)
}

func (s *server) PlacesHandler(ctx *fasthttp.RequestCtx) {
	s.countRequest(ctx, "places")

	name, ok := nameParam(ctx)
	if !ok {
		return
	}
	state := string(ctx.QueryArgs().Peek("state"))

	res := s.cities.Query(name, state)
	matches := geomodel.CityMatches{Ambiguous: res.Ambiguous, Places: res.Cities}

	status := http.StatusOK
	if len(res.Cities) == 0 {
		status = http.StatusNotFound
	}
	writeJSON(ctx, status, matches)
}

func (s *server) PlaceAirportsHandler(ctx *fasthttp.RequestCtx) {
	s.countRequest(ctx, "place_airports")

	name, ok := nameParam(ctx)
	if !ok {
		return
	}
	state := string(ctx.QueryArgs().Peek("state"))

	spanCtx, span := tracer.Start(ctx, "places.lookup", trace.WithAttributes(
		attribute.String("name", name),
		attribute.String("state", state),
	))
	res, err := s.places.Lookup(spanCtx, name, state)
	span.End()

	var ambiguous *geocoder.AmbiguousPlaceError
	switch {
	case err == nil:
		s.countLookup(ctx, "found")
		writeJSON(ctx, http.StatusOK, res)
	case errors.Is(err, geocoder.ErrPlaceNotFound):
		s.countLookup(ctx, "not_found")
		writeError(ctx, http.StatusNotFound, err.Error())
	case errors.As(err, &ambiguous):
		s.countLookup(ctx, "ambiguous")
		writeJSON(ctx, http.StatusMultipleChoices, geomodel.CityMatches{
			Ambiguous: true,
			Places:    ambiguous.Candidates,
		})
	default:
		s.countLookup(ctx, "error")
		s.log.Error("Place lookup failed", "name", name, "state", state, "error", err)
		writeError(ctx, http.StatusBadGateway, err.Error())
	}
}

func (s *server) countLookup(ctx context.Context, result string) {
	s.metricPlaceLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// nameParam returns the decoded place name; the router matches on the raw path.
func nameParam(ctx *fasthttp.RequestCtx) (string, bool) {
	name, err := url.PathUnescape(ctx.UserValue("name").(string))
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid place name")
		return "", false
	}
	return name, true
}

func locationParam(ctx *fasthttp.RequestCtx) (geomodel.Location, bool) {
	lat, err := strconv.ParseFloat(ctx.UserValue("lat").(string), 64)
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid latitude")
		return geomodel.Location{}, false
	}
	lon, err := strconv.ParseFloat(ctx.UserValue("lon").(string), 64)
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid longitude")
		return geomodel.Location{}, false
	}
	if !validLocation(lat, lon) {
		writeError(ctx, http.StatusBadRequest, "invalid coordinates")
		return geomodel.Location{}, false
	}
	return geomodel.Location{Lat: lat, Lon: lon}, true
}

func validLocation(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && !math.IsInf(lon, 0) && !math.IsNaN(lon)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v easyjson.Marshaler) {
	w := jwriter.Writer{}
	v.MarshalEasyJSON(&w)
	writeBuffer(ctx, status, &w)
}

func writeBuffer(ctx *fasthttp.RequestCtx, status int, w *jwriter.Writer) {
	data, err := w.BuildBytes()
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	w := jwriter.Writer{}
	w.RawString(`{"error":`)
	w.String(msg)
	w.RawByte('}')
	writeBuffer(ctx, status, &w)
}
