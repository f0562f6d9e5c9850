package proj4_coordinate_converter

import (
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/xeonx/proj4"

	"github.com/ecopia-map/raster_tiler/internal/converters"
)

// proj4 definitions of the reference systems query geometries may be expressed in.
var epsgDatabase = map[int]string{
	4326:   "+proj=longlat +datum=WGS84 +no_defs",
	4258:   "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	3857:   "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	900913: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	3395:   "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
	32632:  "+proj=utm +zone=32 +datum=WGS84 +units=m +no_defs",
	32633:  "+proj=utm +zone=33 +datum=WGS84 +units=m +no_defs",
}

type proj4CoordinateConverter struct {
	projectionsCache map[int]*proj4.Proj
	sync.Mutex
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projectionsCache: make(map[int]*proj4.Proj),
	}
}

// IsSupported reports whether srid can be converted.
func IsSupported(srid int) bool {
	_, ok := epsgDatabase[srid]
	return ok
}

func (cc *proj4CoordinateConverter) ConvertPointToWGS84(sourceSrid int, point orb.Point) (orb.Point, error) {
	if sourceSrid == converters.WGS84Srid {
		return point, nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.getProjection(sourceSrid)
	if err != nil {
		return orb.Point{}, err
	}
	dst, err := cc.getProjection(converters.WGS84Srid)
	if err != nil {
		return orb.Point{}, err
	}
	return executeConversion(point, src, dst)
}

func (cc *proj4CoordinateConverter) ConvertGeometryToWGS84(sourceSrid int, geometry orb.Geometry) (orb.Geometry, error) {
	if sourceSrid == converters.WGS84Srid {
		return geometry, nil
	}
	return converters.TransformGeometry(geometry, func(point orb.Point) (orb.Point, error) {
		return cc.ConvertPointToWGS84(sourceSrid, point)
	})
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()

	for _, val := range cc.projectionsCache {
		val.Close()
	}
	cc.projectionsCache = make(map[int]*proj4.Proj)
}

func executeConversion(point orb.Point, sourceProj *proj4.Proj, destinationProj *proj4.Proj) (orb.Point, error) {
	x, y := point.X(), point.Y()
	if sourceProj.IsLatLong() {
		x, y = toRadians(x), toRadians(y)
	}
	xs, ys, zs := []float64{x}, []float64{y}, []float64{0}

	if err := proj4.TransformRaw(sourceProj, destinationProj, xs, ys, zs); err != nil {
		return orb.Point{}, err
	}
	if destinationProj.IsLatLong() {
		return orb.Point{toDegrees(xs[0]), toDegrees(ys[0])}, nil
	}
	return orb.Point{xs[0], ys[0]}, nil
}

// Returns the projection corresponding to the given EPSG code, storing it in the relevant EpsgDatabase entry for caching
func (cc *proj4CoordinateConverter) getProjection(code int) (*proj4.Proj, error) {
	if val, ok := cc.projectionsCache[code]; ok {
		return val, nil
	}

	definition, ok := epsgDatabase[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", converters.ErrUnknownSrid, code)
	}
	proj, err := proj4.InitPlus(definition)
	if err != nil {
		return nil, err
	}
	cc.projectionsCache[code] = proj
	return proj, nil
}

func toRadians(input float64) float64 {
	return input * math.Pi / 180
}

func toDegrees(input float64) float64 {
	return input * 180 / math.Pi
}
