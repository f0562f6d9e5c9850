package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/internal/storage"
)

// kilometers treats EPSG:3857 coordinates as thousandths of a degree.
type kilometers struct{}

func (kilometers) ConvertPointToWGS84(srid int, p orb.Point) (orb.Point, error) {
	if srid != 3857 {
		return orb.Point{}, converters.ErrUnknownSrid
	}
	return orb.Point{p.X() / 1000, p.Y() / 1000}, nil
}

func (k kilometers) ConvertGeometryToWGS84(srid int, g orb.Geometry) (orb.Geometry, error) {
	return converters.TransformGeometry(g, func(p orb.Point) (orb.Point, error) {
		return k.ConvertPointToWGS84(srid, p)
	})
}

func (kilometers) Cleanup() {}

func newTestServer(t *testing.T) *httptest.Server {
	data := make([][]int32, 4)
	for y := range data {
		data[y] = []int32{int32(4 * y), int32(4*y + 1), int32(4*y + 2), int32(4*y + 3)}
	}
	grid := datasets.NewCountGrid(data, orb.Bound{Max: orb.Point{4, 4}}, datasets.NewShape(2, 2, 0))

	root, err := quadtree.Build[int32, int64](grid)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = storage.Serialize(&buf, root)
	require.NoError(t, err)
	tree, err := storage.FromBytes[int32, int64](buf.Bytes(), grid)
	require.NoError(t, err)

	srv := httptest.NewServer(New(NewStore(tree), kilometers{}, converters.WGS84Srid).BuildRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[V any](t *testing.T, resp *http.Response) V {
	var v V
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type tileBody struct {
	storage.TileMetadata
	Data [][]int32 `json:"data"`
}

type aggregateBody struct {
	Value        int64  `json:"value"`
	Formatted    string `json:"formatted"`
	NodesVisited int    `json:"nodes_visited"`
}

func TestTile(t *testing.T) {
	srv := newTestServer(t)

	tile := decode[tileBody](t, get(t, srv, "/tile/1/0/0"))
	require.Equal(t, [][]int32{{0, 1}, {4, 5}}, tile.Data)
	require.Equal(t, storage.TileMetadata{NorthWestLat: 4, NorthWestLon: 0, SouthEastLat: 2, SouthEastLon: 2, Width: 2, Height: 2}, tile.TileMetadata)

	root := decode[tileBody](t, get(t, srv, "/tile/0/0/0"))
	require.Equal(t, [][]int32{{10, 18}, {42, 50}}, root.Data)
}

func TestTileNotFound(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusNoContent, get(t, srv, "/tile/1/2/0").StatusCode)
	require.Equal(t, http.StatusNoContent, get(t, srv, "/tile/2/0/0").StatusCode)
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/tile/1/a/0").StatusCode)
	require.Equal(t, http.StatusNoContent, get(t, srv, "/tile/1/2/0?format=png").StatusCode)
}

func TestTilePNG(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/tile/1/1/1?format=png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("content-type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 2, img.Bounds().Dx())
}

func TestTiles(t *testing.T) {
	srv := newTestServer(t)

	require.Len(t, decode[[]tileBody](t, get(t, srv, "/tiles?level=0")), 1)
	require.Len(t, decode[[]tileBody](t, get(t, srv, "/tiles?level=1")), 4)

	southWest := decode[[]tileBody](t, get(t, srv, "/tiles?level=1&bbox=0,0,1,1"))
	require.Len(t, southWest, 1)
	require.Equal(t, [][]int32{{8, 9}, {12, 13}}, southWest[0].Data)

	require.Empty(t, decode[[]tileBody](t, get(t, srv, "/tiles?level=3")))
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/tiles?level=x").StatusCode)
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/tiles?bbox=1,2").StatusCode)
}

func TestAggregate(t *testing.T) {
	srv := newTestServer(t)

	all := decode[aggregateBody](t, get(t, srv, "/aggregate"))
	require.Equal(t, int64(120), all.Value)
	require.Equal(t, "120", all.Formatted)
	require.Equal(t, 1, all.NodesVisited)

	northWest := decode[aggregateBody](t, get(t, srv, "/aggregate?bbox=0,2,2,4"))
	require.Equal(t, int64(10), northWest.Value)

	require.Equal(t, http.StatusNoContent, get(t, srv, "/aggregate?bbox=100,100,101,101").StatusCode)
}

func TestAggregatePolygonBody(t *testing.T) {
	srv := newTestServer(t)

	body := `{"type":"Polygon","coordinates":[[[0,2],[2,2],[2,4],[0,4],[0,2]]]}`
	resp, err := http.Post(srv.URL+"/aggregate", "application/geo+json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, int64(10), decode[aggregateBody](t, resp).Value)

	resp, err = http.Post(srv.URL+"/aggregate", "application/geo+json", strings.NewReader(`{"type":"Point","coordinates":[1,1]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAggregateInOtherSrid(t *testing.T) {
	srv := newTestServer(t)

	northWest := decode[aggregateBody](t, get(t, srv, "/aggregate?bbox=0,2000,2000,4000&srid=3857"))
	require.Equal(t, int64(10), northWest.Value)

	require.Equal(t, http.StatusBadRequest, get(t, srv, "/aggregate?bbox=0,2,2,4&srid=2154").StatusCode)
}

func TestBoundsAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	bounds := decode[map[string]float64](t, get(t, srv, "/bounds"))
	require.Equal(t, map[string]float64{"west": 0, "south": 0, "east": 4, "north": 4}, bounds)

	resp := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "raster_tiler_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/tiles", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
