package model

import (
	"time"

	"github.com/paulmach/orb"
)

// ResolvedFacility is the merge of a scored record with its best-matching
// rich record. Mutable only during the resolution step; read-only afterward.
type ResolvedFacility struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"` // scored dataset name, the resolution key
	Region   string     `json:"region,omitempty"`
	Location string     `json:"location,omitempty"`
	Area     float64    `json:"area,omitempty"`
	Point    *orb.Point `json:"point,omitempty"` // nil when unmatched or the rich record had no coordinates

	CoverageScore  float64        `json:"coverageScore"`
	SubRegionCount int            `json:"subRegionCount"`
	Contributions  []Contribution `json:"contributions,omitempty"`

	// Matched is false when no rich record cleared the similarity threshold.
	// Similarity and MatchedName are only meaningful when Matched is true.
	Matched     bool    `json:"matched"`
	Similarity  float64 `json:"similarity,omitempty"`
	MatchedName string  `json:"matchedName,omitempty"`

	ResolvedAt time.Time `json:"resolvedAt"`
}

// ResolvedFacilityPG model for PostgreSQL storage
type ResolvedFacilityPG struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"size:255;not null"`
	Region         string `gorm:"size:255;index"`
	Location       string `gorm:"type:text"`
	Area           float64
	Lat            *float64
	Lng            *float64
	CoverageScore  float64
	SubRegionCount int
	Contributions  string `gorm:"type:text"` // JSON array of contribution pairs
	Matched        bool   `gorm:"not null"`
	Similarity     float64
	MatchedName    string    `gorm:"size:255"`
	ResolvedAt     time.Time `gorm:"column:resolved_at"`
}

// TableName overrides the table name
func (ResolvedFacilityPG) TableName() string {
	return "resolved_facilities"
}
