package issue

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies the kind of community problem being reported.
type Category string

const (
	CategoryWaterSupply Category = "water-supply"
	CategoryPuddle      Category = "puddle"
	CategoryRoad        Category = "road"
	CategoryGarbage     Category = "garbage"
	CategoryElectricity Category = "electricity"
	CategoryStreetlight Category = "streetlight"
	CategoryOther       Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryWaterSupply,
	CategoryPuddle,
	CategoryRoad,
	CategoryGarbage,
	CategoryElectricity,
	CategoryStreetlight,
	CategoryOther,
}

// IsValid reports whether the category is one of the known categories.
func (c Category) IsValid() bool {
	for _, valid := range Categories {
		if c == valid {
			return true
		}
	}
	return false
}

// Status represents the triage state of an issue. Statuses are movable in any
// order; no linear progression is enforced.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// IsValid reports whether the status is one of the known statuses.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

// Image is a hosted photo attached to an issue. URL is the stable public
// address; Key is the deletable reference at the image host and never leaves
// the service.
type Image struct {
	URL string
	Key string
}

// MaxImagesPerIssue caps the number of photos a single report may carry.
const MaxImagesPerIssue = 5

// Issue represents a geolocated community problem reported by an account.
// ReporterID is the owning account; ownership never transfers. The reporter's
// identity is resolvable internally for ownership checks but is never exposed
// outward.
type Issue struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    Category
	Status      Status

	// Longitude first, matching the GeoJSON point convention.
	Longitude float64
	Latitude  float64
	Address   *string

	Images []Image

	ReporterID uuid.UUID
	Anonymous  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NearFilter restricts a listing to issues within RadiusKm of a point,
// measured with the Haversine formula.
type NearFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Filter represents filtering options for listing issues
type Filter struct {
	Category   *Category
	Status     *Status
	ReporterID *uuid.UUID
	Near       *NearFilter

	Page     int
	PageSize int
}

// Statistics represents aggregate issue counts for the admin dashboard.
type Statistics struct {
	TotalIssues int
	ByStatus    map[string]int
	ByCategory  map[string]int
}
