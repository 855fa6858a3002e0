package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/royalcat/airplaces/geocoder"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/urfave/cli/v3"
	"github.com/valyala/fasthttp"
)

const queryTimeout = 10 * time.Second

var errUsage = errors.New("usage: query [--host url] <city> [state] | query -p [--host url] <latitude> <longitude>")

func query(ctx *cli.Context) error {
	host := strings.TrimSuffix(ctx.String("host"), "/")
	args := ctx.Args()
	client := &fasthttp.Client{Name: appName}

	if ctx.Bool("position") {
		if args.Len() != 2 {
			return errUsage
		}
		lat, err := strconv.ParseFloat(args.Get(0), 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %w", err)
		}
		lon, err := strconv.ParseFloat(args.Get(1), 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %w", err)
		}
		return queryPosition(ctx.Context, client, host, geomodel.Location{Lat: lat, Lon: lon}, os.Stdout)
	}

	if args.Len() < 1 || args.Len() > 2 {
		return errUsage
	}
	return queryPlace(ctx.Context, client, host, args.Get(0), args.Get(1), os.Stdout)
}

func queryPosition(ctx context.Context, client *fasthttp.Client, host string, loc geomodel.Location, w io.Writer) error {
	remote := geocoder.NewRemoteAirports(host, client, geocoder.WithTimeout(queryTimeout))

	list, err := remote.NearestAirports(ctx, loc)
	if err != nil {
		return err
	}
	writeAirports(w, &list)
	return nil
}

func queryPlace(ctx context.Context, client *fasthttp.Client, host, name, state string, w io.Writer) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	uri := host + "/places/" + url.PathEscape(name) + "/airports"
	if state != "" {
		uri += "?state=" + url.QueryEscape(state)
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := queryTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if err := client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("error requesting %s: %w", uri, err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
		var res geomodel.PlaceAirports
		if err := easyjson.Unmarshal(resp.Body(), &res); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		writePlace(w, res.Place)
		writeAirports(w, &res.Airports)
		return nil
	case fasthttp.StatusMultipleChoices:
		var matches geomodel.CityMatches
		if err := easyjson.Unmarshal(resp.Body(), &matches); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		fmt.Fprintln(w, "Candidates:")
		for _, c := range matches.Places {
			writePlace(w, c)
		}
		return &geocoder.AmbiguousPlaceError{Query: name, State: state, Candidates: matches.Places}
	case fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %q", geocoder.ErrPlaceNotFound, name)
	default:
		return fmt.Errorf("%w: status %d: %s", geocoder.ErrRemote, resp.StatusCode(), resp.Body())
	}
}

func writePlace(w io.Writer, c geomodel.City) {
	fmt.Fprintf(w, "%s, %s : %.6g, %.6g\n", c.Name, c.State, c.Lat, c.Lon)
}

func writeAirports(w io.Writer, list *geomodel.AirportList) {
	for i := range list.Len() {
		a := &list[i]
		fmt.Fprintf(w, "distance=%.6g, code=%s, state=%s, name=%s\n", a.Distance, a.Code, a.State, a.Name)
	}
}
