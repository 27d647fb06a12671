package postgres

import (
	"encoding/json"
	"fmt"

	"siteplan/internal/model"
	"siteplan/internal/service/boundary"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm/clause"
)

// subRegionRow converts a boundary feature to its storage row. Names that do
// not parse still persist, with the parsed columns empty and the raw name
// intact.
func subRegionRow(f boundary.Feature, suffix string) (model.SubRegionPG, error) {
	parent, sub, err := boundary.ParseStructuredName(f.Name, suffix)
	if err != nil {
		parent, sub = "", f.Name
	}

	geom, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
	if err != nil {
		return model.SubRegionPG{}, fmt.Errorf("marshaling geometry for %q: %w", f.Code, err)
	}

	return model.SubRegionPG{
		Code:         f.Code,
		RawName:      f.Name,
		Name:         sub,
		ParentRegion: parent,
		Geometry:     string(geom),
	}, nil
}

// subRegionFeature restores a boundary feature from its storage row. The raw
// structured name round-trips verbatim.
func subRegionFeature(row model.SubRegionPG) (boundary.Feature, error) {
	geom, err := geojson.UnmarshalGeometry([]byte(row.Geometry))
	if err != nil {
		return boundary.Feature{}, fmt.Errorf("parsing stored geometry for %q: %w", row.Code, err)
	}

	var mp orb.MultiPolygon
	switch g := geom.Geometry().(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		mp = g
	}

	return boundary.Feature{
		Code:     row.Code,
		Name:     row.RawName,
		Geometry: mp,
	}, nil
}

// SaveBoundaries upserts boundary features, storing geometry as GeoJSON text
// and the raw structured name so the containment index can be rebuilt from
// the database alone.
func SaveBoundaries(features []boundary.Feature, suffix string) error {
	rows := make([]model.SubRegionPG, 0, len(features))
	for _, f := range features {
		row, err := subRegionRow(f, suffix)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil
	}
	return DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

// LoadBoundaries reads all persisted sub-regions back into boundary features.
func LoadBoundaries() ([]boundary.Feature, error) {
	var rows []model.SubRegionPG
	if err := DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	features := make([]boundary.Feature, 0, len(rows))
	for _, row := range rows {
		f, err := subRegionFeature(row)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}

	return features, nil
}

// SaveDemandIndex replaces the stored demand index.
func SaveDemandIndex(idx model.DemandIndex) error {
	rows := make([]model.DemandEntryPG, 0, len(idx))
	for region, score := range idx {
		rows = append(rows, model.DemandEntryPG{Region: region, Score: score})
	}

	if len(rows) == 0 {
		return nil
	}
	return DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

// LoadDemandIndex reads the stored demand index.
func LoadDemandIndex() (model.DemandIndex, error) {
	var rows []model.DemandEntryPG
	if err := DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	idx := make(model.DemandIndex, len(rows))
	for _, row := range rows {
		idx[row.Region] = row.Score
	}
	return idx, nil
}

// SaveFacilities upserts rich facility records.
func SaveFacilities(facilities []*model.Facility) error {
	rows := make([]model.FacilityPG, 0, len(facilities))
	for _, f := range facilities {
		row := model.FacilityPG{
			ID:       f.ID,
			Name:     f.Name,
			Region:   f.Region,
			Location: f.Location,
			Area:     f.Area,
		}
		if f.Point != nil {
			lat, lng := f.Point[1], f.Point[0]
			row.Lat, row.Lng = &lat, &lng
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil
	}
	return DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

// LoadFacilities reads all rich facility records.
func LoadFacilities() ([]*model.Facility, error) {
	var rows []model.FacilityPG
	if err := DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	facilities := make([]*model.Facility, len(rows))
	for i := range rows {
		facilities[i] = model.FacilityFromPG(&rows[i])
	}
	return facilities, nil
}

// SaveScoredFacilities replaces the stored scored dataset. Rows are written
// in input order so the autoincrement key preserves it.
func SaveScoredFacilities(facilities []*model.ScoredFacility) error {
	if err := DB.Where("1 = 1").Delete(&model.ScoredFacilityPG{}).Error; err != nil {
		return err
	}

	rows := make([]model.ScoredFacilityPG, 0, len(facilities))
	for _, sf := range facilities {
		contribs, err := json.Marshal(sf.Contributions)
		if err != nil {
			return fmt.Errorf("marshaling contributions for %q: %w", sf.Name, err)
		}
		rows = append(rows, model.ScoredFacilityPG{
			Name:           sf.Name,
			CoverageScore:  sf.CoverageScore,
			SubRegionCount: sf.SubRegionCount,
			Contributions:  string(contribs),
		})
	}

	if len(rows) == 0 {
		return nil
	}
	return DB.Create(&rows).Error
}

// LoadScoredFacilities reads the stored scored dataset in input order.
func LoadScoredFacilities() ([]*model.ScoredFacility, error) {
	var rows []model.ScoredFacilityPG
	if err := DB.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	facilities := make([]*model.ScoredFacility, 0, len(rows))
	for _, row := range rows {
		var contribs []model.Contribution
		if row.Contributions != "" {
			if err := json.Unmarshal([]byte(row.Contributions), &contribs); err != nil {
				return nil, fmt.Errorf("parsing stored contributions for %q: %w", row.Name, err)
			}
		}
		facilities = append(facilities, &model.ScoredFacility{
			Name:           row.Name,
			CoverageScore:  row.CoverageScore,
			SubRegionCount: row.SubRegionCount,
			Contributions:  contribs,
		})
	}
	return facilities, nil
}

// SaveResolvedFacilities upserts the output of an entity-resolution run.
func SaveResolvedFacilities(resolved []*model.ResolvedFacility) error {
	rows := make([]model.ResolvedFacilityPG, 0, len(resolved))
	for _, rf := range resolved {
		contribs, err := json.Marshal(rf.Contributions)
		if err != nil {
			return fmt.Errorf("marshaling contributions for %q: %w", rf.ID, err)
		}

		row := model.ResolvedFacilityPG{
			ID:             rf.ID,
			Name:           rf.Name,
			Region:         rf.Region,
			Location:       rf.Location,
			Area:           rf.Area,
			CoverageScore:  rf.CoverageScore,
			SubRegionCount: rf.SubRegionCount,
			Contributions:  string(contribs),
			Matched:        rf.Matched,
			Similarity:     rf.Similarity,
			MatchedName:    rf.MatchedName,
			ResolvedAt:     rf.ResolvedAt,
		}
		if rf.Point != nil {
			lat, lng := rf.Point[1], rf.Point[0]
			row.Lat, row.Lng = &lat, &lng
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil
	}
	return DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}
