package common

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the spherical earth radius, in meters, used by Haversine.
// Note that orb.EarthRadius is the WGS84 equatorial radius (6378137);
// cat paces are measured on the mean radius.
const EarthRadius = 6371000.0

// Haversine returns the great-circle distance in meters between two points.
// It is the one distance primitive for filtering, metrics, and records.
func Haversine(a, b orb.Point) float64 {
	lat1, lat2 := deg2rad(a.Lat()), deg2rad(b.Lat())
	dLat := lat2 - lat1
	dLng := deg2rad(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Offset returns the point displaced north and east of p by the given meters,
// using a local equirectangular approximation on the same sphere as Haversine.
// A purely northward offset is exact: Haversine(p, Offset(p, d, 0)) == d.
func Offset(p orb.Point, north, east float64) orb.Point {
	dLat := rad2deg(north / EarthRadius)
	dLng := rad2deg(east / (EarthRadius * math.Cos(deg2rad(p.Lat()))))
	return orb.Point{p.Lon() + dLng, p.Lat() + dLat}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
