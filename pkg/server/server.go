package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/geometry"
)

const maxBodyBytes = 8 << 20

type Server struct {
	store     Store
	converter converters.CoordinateConverter
	srid      int
}

// New serves store. Query geometries are expressed in srid unless a request overrides it with
// the srid parameter; converter turns them into lon/lat.
func New(store Store, converter converters.CoordinateConverter, srid int) *Server {
	return &Server{store: store, converter: converter, srid: srid}
}

// BuildRoutes returns the query routes together with /metrics.
func (s *Server) BuildRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bounds", s.instrument("bounds", s.handleBounds))
	mux.HandleFunc("GET /tiles", s.instrument("tiles", s.handleTiles))
	mux.HandleFunc("GET /tile/{z}/{x}/{y}", s.instrument("tile", s.handleTile))
	mux.HandleFunc("POST /aggregate", s.instrument("aggregate", s.handleAggregate))
	mux.HandleFunc("GET /aggregate", s.instrument("aggregate", s.handleAggregate))
	mux.Handle("GET /metrics", MetricsHandler())
	return mux
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.BuildRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		glog.Infof("listening on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type handler func(w http.ResponseWriter, r *http.Request) (int, error)

func (s *Server) instrument(route string, h handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		RequestsTotal.WithLabelValues(route).Inc()

		status, err := h(w, r)
		switch {
		case err != nil:
			BadRequestsTotal.WithLabelValues(route).Inc()
			glog.V(1).Infof("%s %s: %v", r.Method, r.URL, err)
			http.Error(w, err.Error(), status)
		case status == http.StatusNoContent:
			EmptyResultsTotal.WithLabelValues(route).Inc()
			w.WriteHeader(status)
		}
		RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) (int, error) {
	b := s.store.Bounds()
	writeJSON(w, map[string]float64{
		"west":  b.Min.X(),
		"south": b.Min.Y(),
		"east":  b.Max.X(),
		"north": b.Max.Y(),
	})
	return http.StatusOK, nil
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) (int, error) {
	level, err := intParam(r, "level", 0)
	if err != nil {
		return http.StatusBadRequest, err
	}
	region, err := s.region(r, nil)
	if err != nil {
		return http.StatusBadRequest, err
	}

	tiles := s.store.Tiles(region, level)
	TilesReturned.Observe(float64(len(tiles)))
	writeJSON(w, tiles)
	return http.StatusOK, nil
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) (int, error) {
	var address [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(r.PathValue(name))
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("invalid tile %s %q", name, r.PathValue(name))
		}
		address[i] = v
	}
	x, y, z := address[0], address[1], address[2]

	if r.URL.Query().Get("format") == "png" {
		if !s.store.CanRender() {
			return http.StatusNotAcceptable, errors.New("tiles of this dataset cannot be rendered")
		}
		w.Header().Set("content-type", "image/png")
		found, err := s.store.WriteTilePNG(w, x, y, z)
		if err != nil {
			glog.Errorf("rendering tile %d/%d/%d: %v", z, x, y, err)
			return http.StatusOK, nil
		}
		if !found {
			w.Header().Del("content-type")
			return http.StatusNoContent, nil
		}
		return http.StatusOK, nil
	}

	tile, ok := s.store.Tile(x, y, z)
	if !ok {
		return http.StatusNoContent, nil
	}
	writeJSON(w, tile)
	return http.StatusOK, nil
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) (int, error) {
	var body []byte
	if r.Method == http.MethodPost {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return http.StatusBadRequest, err
		}
	}
	region, err := s.region(r, body)
	if err != nil {
		return http.StatusBadRequest, err
	}

	aggregate, ok := s.store.Aggregate(region)
	if !ok {
		return http.StatusNoContent, nil
	}
	writeJSON(w, aggregate)
	return http.StatusOK, nil
}

// region reads the query area from a GeoJSON body or the bbox parameter and falls back to the
// whole tree.
func (s *Server) region(r *http.Request, body []byte) (geometry.Region, error) {
	srid, err := intParam(r, "srid", s.srid)
	if err != nil {
		return nil, err
	}

	var g orb.Geometry
	switch bbox := r.URL.Query().Get("bbox"); {
	case len(body) > 0:
		if g, err = geometry.ParseGeoJSON(body); err != nil {
			return nil, err
		}
	case bbox != "":
		if g, err = geometry.ParseBound(bbox); err != nil {
			return nil, err
		}
	default:
		return geometry.NewRect(s.store.Bounds()), nil
	}
	return ResolveRegion(s.converter, srid, g)
}

// ResolveRegion converts g from srid to lon/lat and wraps it as a Region.
func ResolveRegion(converter converters.CoordinateConverter, srid int, g orb.Geometry) (geometry.Region, error) {
	if srid != converters.WGS84Srid {
		if converter == nil {
			return nil, fmt.Errorf("%w: %d", converters.ErrUnknownSrid, srid)
		}
		converted, err := converter.ConvertGeometryToWGS84(srid, g)
		if err != nil {
			return nil, err
		}
		g = converted
	}
	region, ok := geometry.RegionFromGeometry(g)
	if !ok {
		return nil, geometry.ErrNotAreal
	}
	return region, nil
}

func intParam(r *http.Request, name string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("encoding response: %v", err)
	}
}
