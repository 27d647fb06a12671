package model

import (
	"github.com/paulmach/orb"
)

// SubRegion is a demand sub-region: the smallest geographic unit demand is
// tracked at. Immutable once loaded.
type SubRegion struct {
	Code         string
	Name         string
	ParentRegion string // derived from the structured boundary name, not stored in the source
	Geometry     orb.MultiPolygon

	// Cached data for quick access
	BoundingBox *orb.Bound // Bounds of the geometry for quick checks
}

// Bound returns the cached bounding box, computing it on first use.
func (s *SubRegion) Bound() orb.Bound {
	if s.BoundingBox == nil {
		b := s.Geometry.Bound()
		s.BoundingBox = &b
	}
	return *s.BoundingBox
}

// SubRegionPG model for PostgreSQL storage
type SubRegionPG struct {
	Code         string `gorm:"primaryKey"`
	RawName      string `gorm:"type:text;not null"` // structured name exactly as supplied by the source
	Name         string `gorm:"size:255;not null"`
	ParentRegion string `gorm:"size:255;not null;index"`
	Geometry     string `gorm:"type:text;not null"` // GeoJSON multipolygon as a string
}

// TableName overrides the table name
func (SubRegionPG) TableName() string {
	return "sub_regions"
}

// DemandIndex maps an administrative-region name to its demand imbalance
// score. Higher means more underserved.
type DemandIndex map[string]float64

// DemandEntryPG model for PostgreSQL storage
type DemandEntryPG struct {
	Region string  `gorm:"primaryKey"`
	Score  float64 `gorm:"not null"`
}

// TableName overrides the table name
func (DemandEntryPG) TableName() string {
	return "demand_index"
}
