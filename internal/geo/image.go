package geo

import (
	"math"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// Image is the pixel size of the overlay image.
type Image struct {
	Width  int
	Height int
}

// HidalgoImage is the size of the bundled Hidalgo overlay.
var HidalgoImage = Image{Width: 384, Height: 384}

// ToPixels maps a geographic coordinate to whole pixels on img.
func (b Box) ToPixels(c domain.LatLng, img Image) (x, y int) {
	p := b.ToPercent(c.Lat, c.Lng)
	return int(math.Round(p.X / 100 * float64(img.Width))),
		int(math.Round(p.Y / 100 * float64(img.Height)))
}

// RoundPercent truncates a percent position to two decimals for display.
func RoundPercent(p domain.Percent) domain.Percent {
	return domain.Percent{X: roundTo(p.X, 2), Y: roundTo(p.Y, 2)}
}

// RoundGeo truncates a coordinate to six decimals (about 0.1 m).
func RoundGeo(c domain.LatLng) domain.LatLng {
	return domain.LatLng{Lat: roundTo(c.Lat, 6), Lng: roundTo(c.Lng, 6)}
}

func roundTo(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
