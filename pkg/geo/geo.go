package geo

import "math"

const EarthRadiusMeters = 6371000.0

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewPoint(latitude, longitude float64) Point {
	return Point{Latitude: latitude, Longitude: longitude}
}

// Distance returns the great-circle distance in metres between two lat/lon pairs
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func (p Point) DistanceTo(o Point) float64 {
	return Distance(p.Latitude, p.Longitude, o.Latitude, o.Longitude)
}

// ProjectOntoSegment finds the foot of the perpendicular from p onto the segment ab.
// The parameter t is computed on plain lon/lat coordinates and clamped to [0,1],
// the returned distance is the haversine distance from p to the interpolated point.
func ProjectOntoSegment(p Point, a Point, b Point) (float64, float64) {
	C := b.Longitude - a.Longitude
	D := b.Latitude - a.Latitude

	lenSq := C*C + D*D
	if lenSq == 0 {
		return 0, p.DistanceTo(a)
	}

	A := p.Longitude - a.Longitude
	B := p.Latitude - a.Latitude

	t := (A*C + B*D) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return t, p.DistanceTo(Interpolate(a, b, t))
}

func Interpolate(a Point, b Point, t float64) Point {
	return Point{
		Latitude:  a.Latitude + t*(b.Latitude-a.Latitude),
		Longitude: a.Longitude + t*(b.Longitude-a.Longitude),
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
