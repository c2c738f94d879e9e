// Package geo converts between geographic coordinates and percentage positions
// on the map overlay image. The transform is a pair of affine maps relative to
// a fixed bounding box; nothing here knows about pins or storage.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// ErrInvalidBox is returned by NewBox for degenerate or non-finite edges.
var ErrInvalidBox = errors.New("invalid bounding box")

// Box is the immutable geographic rectangle the overlay covers.
// Internally it is an orb.Bound with X = longitude and Y = latitude.
type Box struct {
	bound orb.Bound
}

// Hidalgo is the bounding box of the state of Hidalgo, Mexico.
var Hidalgo = MustBox(21.4, 19.6, -97.8, -99.8)

// NewBox builds a Box from its four edges in degrees.
// It fails when north <= south, east <= west, or any edge is not finite,
// so a bad configuration is caught at startup instead of dividing by zero
// at request time.
func NewBox(north, south, east, west float64) (Box, error) {
	for _, v := range []float64{north, south, east, west} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, fmt.Errorf("%w: non-finite edge", ErrInvalidBox)
		}
	}
	if north <= south {
		return Box{}, fmt.Errorf("%w: north (%g) must be greater than south (%g)", ErrInvalidBox, north, south)
	}
	if east <= west {
		return Box{}, fmt.Errorf("%w: east (%g) must be greater than west (%g)", ErrInvalidBox, east, west)
	}
	return Box{bound: orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}}, nil
}

// MustBox is like NewBox but panics on error. Use it only for compile-time constants.
func MustBox(north, south, east, west float64) Box {
	b, err := NewBox(north, south, east, west)
	if err != nil {
		panic(err)
	}
	return b
}

// North is the northern edge latitude.
func (b Box) North() float64 { return b.bound.Top() }

// South is the southern edge latitude.
func (b Box) South() float64 { return b.bound.Bottom() }

// East is the eastern edge longitude.
func (b Box) East() float64 { return b.bound.Right() }

// West is the western edge longitude.
func (b Box) West() float64 { return b.bound.Left() }

// Bound exposes the underlying orb.Bound (lng/lat ordering).
func (b Box) Bound() orb.Bound { return b.bound }

// Center returns the geographic centre of the box.
func (b Box) Center() domain.LatLng {
	c := b.bound.Center()
	return domain.LatLng{Lat: c.Lat(), Lng: c.Lon()}
}

// Contains reports whether c lies inside the box, edges included.
// Non-finite coordinates are never contained.
func (b Box) Contains(c domain.LatLng) bool {
	if !Finite(c) {
		return false
	}
	return b.bound.Contains(orb.Point{c.Lng, c.Lat})
}

// ToPercent maps a geographic coordinate onto the overlay. The vertical axis
// is inverted: latitude grows northward while screen Y grows downward.
// Coordinates outside the box yield values outside [0,100]; callers decide
// whether to Clamp.
func (b Box) ToPercent(lat, lng float64) domain.Percent {
	return domain.Percent{
		X: (lng - b.West()) / (b.East() - b.West()) * 100,
		Y: (b.North() - lat) / (b.North() - b.South()) * 100,
	}
}

// ToGeo is the exact inverse of ToPercent.
func (b Box) ToGeo(x, y float64) domain.LatLng {
	return domain.LatLng{
		Lat: b.North() - y/100*(b.North()-b.South()),
		Lng: b.West() + x/100*(b.East()-b.West()),
	}
}

// ToPercentPtr is ToPercent for an optional coordinate. Absence propagates as nil.
func (b Box) ToPercentPtr(c *domain.LatLng) *domain.Percent {
	if c == nil {
		return nil
	}
	p := b.ToPercent(c.Lat, c.Lng)
	return &p
}

// ToGeoPtr is ToGeo for an optional position. Absence propagates as nil.
func (b Box) ToGeoPtr(p *domain.Percent) *domain.LatLng {
	if p == nil {
		return nil
	}
	c := b.ToGeo(p.X, p.Y)
	return &c
}

// Clamp limits a percent position to [0,100] on both axes.
func Clamp(p domain.Percent) domain.Percent {
	return p.Clamp()
}

// Finite reports whether both halves of c are real numbers.
func Finite(c domain.LatLng) bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// ClampGeo pulls c onto the nearest edge when it lies outside the box. It
// absorbs float drift when converting clamped overlay positions back to degrees.
func (b Box) ClampGeo(c domain.LatLng) domain.LatLng {
	return domain.LatLng{
		Lat: math.Min(math.Max(c.Lat, b.South()), b.North()),
		Lng: math.Min(math.Max(c.Lng, b.West()), b.East()),
	}
}
