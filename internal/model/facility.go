package model

import (
	"strings"

	"github.com/paulmach/orb"
)

// Facility is a candidate site record from the rich dataset: authoritative
// attributes, possibly missing coordinates.
type Facility struct {
	ID       string
	Name     string
	Region   string // denormalized administrative-region label, may be stale
	Location string // free-text location description
	Area     float64

	// Point is nil when the source record has no usable coordinates.
	// Stored as [lng, lat] like all geometry in the system.
	Point *orb.Point
}

// FacilityID derives a stable identifier from a facility name.
func FacilityID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "-")
	return id
}

// FacilityPG model for PostgreSQL storage
type FacilityPG struct {
	ID       string  `gorm:"primaryKey"`
	Name     string  `gorm:"size:255;not null"`
	Region   string  `gorm:"size:255;index"`
	Location string  `gorm:"type:text"`
	Area     float64 `gorm:"not null"`
	Lat      *float64
	Lng      *float64
}

// TableName overrides the table name
func (FacilityPG) TableName() string {
	return "facilities"
}

// FacilityFromPG creates a Facility from FacilityPG
func FacilityFromPG(pg *FacilityPG) *Facility {
	f := &Facility{
		ID:       pg.ID,
		Name:     pg.Name,
		Region:   pg.Region,
		Location: pg.Location,
		Area:     pg.Area,
	}
	if pg.Lat != nil && pg.Lng != nil {
		f.Point = &orb.Point{*pg.Lng, *pg.Lat}
	}
	return f
}

// Contribution is one (sub-region, contribution value) pair from a scored
// facility's coverage row. Values are non-negative; the solver never invents
// them.
type Contribution struct {
	SubRegionCode string  `json:"subRegion"`
	Value         float64 `json:"value"`
}

// ScoredFacility is a candidate site record from the scored dataset: it
// carries demand-coverage data but looser naming than the rich dataset.
type ScoredFacility struct {
	Name           string
	CoverageScore  float64
	SubRegionCount int
	Contributions  []Contribution // ordered as in the source
}

// ScoredFacilityPG model for PostgreSQL storage
type ScoredFacilityPG struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"size:255;not null;uniqueIndex"`
	CoverageScore  float64
	SubRegionCount int
	Contributions  string `gorm:"type:text"` // JSON array, source order preserved
}

// TableName overrides the table name
func (ScoredFacilityPG) TableName() string {
	return "scored_facilities"
}
