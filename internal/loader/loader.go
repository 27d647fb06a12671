// Package loader reads the four input datasets from disk: boundary GeoJSON,
// demand index JSON, and the rich and scored facility JSON files. Loaders
// only parse and shape records; all reconciliation happens downstream.
package loader

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"siteplan/internal/model"
	"siteplan/internal/service/boundary"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadBoundaries parses a GeoJSON FeatureCollection of sub-region polygons.
// The feature code is taken from the "code" property (falling back to "id"),
// the structured name from "name". Features with unsupported geometry are
// skipped with a log line.
func LoadBoundaries(path string) ([]boundary.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing boundary geojson: %w", err)
	}

	features := make([]boundary.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		name, _ := f.Properties["name"].(string)
		code, _ := f.Properties["code"].(string)
		if code == "" {
			code, _ = f.Properties["id"].(string)
		}

		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			log.Printf("Skipping boundary feature %q: unsupported geometry %T", code, f.Geometry)
			continue
		}

		features = append(features, boundary.Feature{
			Code:     code,
			Name:     name,
			Geometry: mp,
		})
	}

	log.Printf("Loaded %d boundary features from %s", len(features), path)
	return features, nil
}

// LoadDemandIndex parses a JSON object mapping region name to imbalance
// score.
func LoadDemandIndex(path string) (model.DemandIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading demand index file: %w", err)
	}

	var idx model.DemandIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing demand index: %w", err)
	}

	log.Printf("Loaded demand index with %d regions from %s", len(idx), path)
	return idx, nil
}

// richFacilityJSON is the wire form of a rich dataset record. Coordinate
// fields arrive as strings and may be present but empty, which counts as
// absent.
type richFacilityJSON struct {
	Name     string  `json:"name"`
	Region   string  `json:"region"`
	Location string  `json:"location"`
	Area     float64 `json:"area"`
	Lat      string  `json:"lat"`
	Lng      string  `json:"lng"`
}

// LoadRichFacilities parses the rich facility dataset.
func LoadRichFacilities(path string) ([]*model.Facility, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rich facility file: %w", err)
	}

	var raw []richFacilityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rich facility dataset: %w", err)
	}

	facilities := make([]*model.Facility, 0, len(raw))
	for _, r := range raw {
		f := &model.Facility{
			ID:       model.FacilityID(r.Name),
			Name:     r.Name,
			Region:   r.Region,
			Location: r.Location,
			Area:     r.Area,
		}
		if p, ok := parsePoint(r.Lat, r.Lng); ok {
			f.Point = p
		}
		facilities = append(facilities, f)
	}

	log.Printf("Loaded %d rich facility records from %s", len(facilities), path)
	return facilities, nil
}

// parsePoint converts string coordinate fields to a point. Empty or
// unparsable fields mean the record has no usable coordinates.
func parsePoint(latStr, lngStr string) (*orb.Point, bool) {
	latStr, lngStr = strings.TrimSpace(latStr), strings.TrimSpace(lngStr)
	if latStr == "" || lngStr == "" {
		return nil, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, false
	}

	return &orb.Point{lng, lat}, true
}

// scoredFacilityJSON is the wire form of a scored dataset record.
type scoredFacilityJSON struct {
	Name           string               `json:"name"`
	CoverageScore  float64              `json:"coverageScore"`
	SubRegionCount int                  `json:"subRegionCount"`
	Contributions  []model.Contribution `json:"contributions"`
}

// LoadScoredFacilities parses the scored facility dataset.
func LoadScoredFacilities(path string) ([]*model.ScoredFacility, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scored facility file: %w", err)
	}

	var raw []scoredFacilityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scored facility dataset: %w", err)
	}

	facilities := make([]*model.ScoredFacility, 0, len(raw))
	for _, r := range raw {
		facilities = append(facilities, &model.ScoredFacility{
			Name:           r.Name,
			CoverageScore:  r.CoverageScore,
			SubRegionCount: r.SubRegionCount,
			Contributions:  r.Contributions,
		})
	}

	log.Printf("Loaded %d scored facility records from %s", len(facilities), path)
	return facilities, nil
}
