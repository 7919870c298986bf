package geo

// Bounds is a lat/lon bounding box. The zero value accepts every point.
type Bounds struct {
	MinLatitude  float64 `yaml:"min_lat"`
	MaxLatitude  float64 `yaml:"max_lat"`
	MinLongitude float64 `yaml:"min_lon"`
	MaxLongitude float64 `yaml:"max_lon"`
}

func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

func (b Bounds) Contains(p Point) bool {
	if b.IsZero() {
		return true
	}

	return p.Latitude >= b.MinLatitude && p.Latitude <= b.MaxLatitude &&
		p.Longitude >= b.MinLongitude && p.Longitude <= b.MaxLongitude
}
