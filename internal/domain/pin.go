// Package domain contains the core data types for the aquamap application.
// It is imported by every other internal package (geo, repo, service, handler,
// authority) and depends on nothing inside this module.
package domain

import (
	"strings"
	"time"
)

// Category is the kind of aquatic feature a pin marks.
type Category string

const (
	CategoryRiver  Category = "rio"
	CategoryLake   Category = "lago"
	CategoryDam    Category = "presa"
	CategorySpring Category = "manantial"
)

// DefaultStatus is the status given to pins created without one.
const DefaultStatus = "activo"

// categoryAliases maps every accepted spelling to its canonical Category.
var categoryAliases = map[string]Category{
	"rio":       CategoryRiver,
	"río":       CategoryRiver,
	"river":     CategoryRiver,
	"lago":      CategoryLake,
	"lake":      CategoryLake,
	"presa":     CategoryDam,
	"dam":       CategoryDam,
	"manantial": CategorySpring,
	"spring":    CategorySpring,
}

// ParseCategory normalises s (case-insensitive, English or Spanish) to a
// canonical Category. ok is false when s names no known category.
func ParseCategory(s string) (c Category, ok bool) {
	c, ok = categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// Pin is one mapped ecosystem feature as held by the entity store.
//
// Latitude and Longitude are the last-known canonical geographic position and
// are nullable independently. A pin lacking either is unpositioned; it is
// never treated as (0,0).
type Pin struct {
	ID          int64
	Name        string
	Category    Category
	Description string
	Status      string
	OwnerID     *int64  // nil once the owning user is deleted
	OwnerName   *string // display name joined from users; nil when there is no owner
	Active      bool
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // set by soft delete
}

// LatLng returns the pin's stored geographic position, or nil when either
// coordinate is missing.
func (p Pin) LatLng() *LatLng {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &LatLng{Lat: *p.Latitude, Lng: *p.Longitude}
}

// PinDescriptor is the input for creating a pin. Position is optional.
type PinDescriptor struct {
	Name        string
	Category    string
	Description string
	Status      string
	OwnerID     *int64
	Position    *LatLng
}

// PinPatch carries a partial update. Nil fields are left untouched.
type PinPatch struct {
	Name        *string
	Category    *Category
	Description *string
	Status      *string
	Latitude    *float64
	Longitude   *float64
}

// IsEmpty reports whether the patch sets no field at all.
func (p PinPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Description == nil &&
		p.Status == nil && p.Latitude == nil && p.Longitude == nil
}

// MapPin is the merged view of a pin handed to the map UI: descriptive fields
// from the entity store and the position resolved from the coordinate authority.
type MapPin struct {
	Pin
	Position Position
}

// Positioned reports whether the pin can be rendered on the map.
func (m MapPin) Positioned() bool {
	return m.Position.Source != PositionNone
}

// ListFilter narrows a merged pin listing.
type ListFilter struct {
	// Categories keeps only pins of the given categories. Empty keeps all.
	Categories []Category
	// PositionedOnly drops unpositioned pins (the set rendered on the map).
	PositionedOnly bool
}

// Matches reports whether m passes the filter.
func (f ListFilter) Matches(m MapPin) bool {
	if f.PositionedOnly && !m.Positioned() {
		return false
	}
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if m.Category == c {
			return true
		}
	}
	return false
}
