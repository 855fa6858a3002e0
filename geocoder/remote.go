package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/royalcat/airplaces/geomodel"
	"github.com/valyala/fasthttp"
)

// ErrRemote is matched by errors returned by a remote airports service.
var ErrRemote = errors.New("remote airports service error")

// RemoteAirports queries the nearest airports endpoint of another airplaces instance.
type RemoteAirports struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRemoteAirports creates a finder for the instance at baseURL ("http://host:port").
// A nil client uses a default fasthttp client.
func NewRemoteAirports(baseURL string, client *fasthttp.Client, opts ...Option) *RemoteAirports {
	options := loadOptions(opts...)
	if client == nil {
		client = &fasthttp.Client{Name: "airplaces"}
	}

	return &RemoteAirports{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: options.timeout,
		logger:  options.logger,
	}
}

func (r *RemoteAirports) NearestAirports(ctx context.Context, loc geomodel.Location) (geomodel.AirportList, error) {
	var list geomodel.AirportList

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if err := ctx.Err(); err != nil {
		return list, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.baseURL + "/airports/nearest/" +
		strconv.FormatFloat(loc.Lat, 'f', -1, 64) + "/" +
		strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	req.Header.SetMethod(fasthttp.MethodGet)

	start := time.Now()
	if err := r.client.DoTimeout(req, resp, timeout); err != nil {
		return list, fmt.Errorf("error requesting %s: %w", req.URI(), err)
	}
	r.logger.Debug("Remote airports request",
		"uri", req.URI().String(),
		"status", resp.StatusCode(),
		"took", time.Since(start),
	)

	if resp.StatusCode() != fasthttp.StatusOK {
		return list, fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode(), resp.Body())
	}
	if err := easyjson.Unmarshal(resp.Body(), &list); err != nil {
		return list, fmt.Errorf("%w: invalid response: %w", ErrRemote, err)
	}

	return list, nil
}
