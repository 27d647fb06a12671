package boundary

import (
	"fmt"
	"log"
	"sync"
	"time"

	"siteplan/internal/model"
	"siteplan/internal/service/storage"
	"siteplan/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Feature is one raw boundary dataset entry: a structured name plus the
// sub-region geometry. Names are parsed during index construction.
type Feature struct {
	Code     string
	Name     string // "<city-level> <parent-region> <sub-region>"
	Geometry orb.MultiPolygon
}

// SubRegionSpatial represents a sub-region with its spatial information for
// R-tree indexing
type SubRegionSpatial struct {
	Code        string
	SubRegion   *model.SubRegion
	BoundingBox *orb.Bound
}

// Bounds implements the rtreego.Spatial interface
// Returns the bounding rectangle of the sub-region for R-tree indexing
func (s *SubRegionSpatial) Bounds() rtreego.Rect {
	minX, minY := s.BoundingBox.Min[0], s.BoundingBox.Min[1]
	maxX, maxY := s.BoundingBox.Max[0], s.BoundingBox.Max[1]

	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)

	return rect
}

// ValidationReport is the result of checking a built index for data-integrity
// problems. Issues are descriptive, one per problem found.
type ValidationReport struct {
	RegionCount    int      `json:"regionCount"`
	SubRegionCount int      `json:"subRegionCount"`
	Issues         []string `json:"issues"`
}

// Service owns the region containment index: a lookup from administrative
// region name to its constituent sub-regions, plus an R-tree over sub-region
// bounding boxes for point queries.
type Service struct {
	subRegions   storage.Storage[string, *model.SubRegion]
	byRegion     map[string][]string // region name -> sub-region codes, input order
	regionOrder  []string            // region names in order of first appearance
	spatialIndex *rtreego.Rtree
	indexMutex   sync.RWMutex
	initialized  bool
}

// NewService creates an empty boundary service. BuildIndex must be called
// before any lookup.
func NewService() *Service {
	return &Service{
		subRegions:   storage.NewMemoryStorage[string, *model.SubRegion](),
		byRegion:     make(map[string][]string),
		spatialIndex: rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
	}
}

// BuildIndex parses every feature's structured name and builds the
// region -> sub-regions mapping and the spatial index. Features whose name
// cannot be parsed are counted as data-quality failures and excluded; the
// error return is reserved for an empty result.
func (s *Service) BuildIndex(features []Feature, suffix string) error {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	log.Printf("Building region containment index from %d boundary features", len(features))
	startTime := time.Now()

	s.subRegions = storage.NewMemoryStorage[string, *model.SubRegion]()
	s.byRegion = make(map[string][]string)
	s.regionOrder = nil
	s.spatialIndex = rtreego.NewTree(2, 25, 50)

	skipped := 0
	for _, f := range features {
		parent, sub, err := ParseStructuredName(f.Name, suffix)
		if err != nil {
			log.Printf("Skipping boundary feature %q: %v", f.Code, err)
			skipped++
			continue
		}

		sr := &model.SubRegion{
			Code:         f.Code,
			Name:         sub,
			ParentRegion: parent,
			Geometry:     f.Geometry,
		}
		bound := sr.Bound()

		s.subRegions.Set(sr.Code, sr)
		if _, seen := s.byRegion[parent]; !seen {
			s.regionOrder = append(s.regionOrder, parent)
		}
		s.byRegion[parent] = append(s.byRegion[parent], sr.Code)

		if len(f.Geometry) > 0 {
			s.spatialIndex.Insert(&SubRegionSpatial{
				Code:        sr.Code,
				SubRegion:   sr,
				BoundingBox: &bound,
			})
		}
	}

	if s.subRegions.Count() == 0 {
		return fmt.Errorf("no usable boundary features (%d skipped)", skipped)
	}

	s.initialized = true
	log.Printf("Containment index built: %d regions, %d sub-regions, %d skipped, took %v",
		len(s.byRegion), s.subRegions.Count(), skipped, time.Since(startTime))
	return nil
}

// Regions returns all administrative region names in order of first
// appearance in the boundary dataset.
func (s *Service) Regions() []string {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	out := make([]string, len(s.regionOrder))
	copy(out, s.regionOrder)
	return out
}

// SubRegionsOf returns the sub-regions of the given administrative region in
// input order. Returns nil when the region is unknown.
func (s *Service) SubRegionsOf(region string) []*model.SubRegion {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	codes, ok := s.byRegion[region]
	if !ok {
		return nil
	}

	result := make([]*model.SubRegion, 0, len(codes))
	for _, code := range codes {
		if sr, exists := s.subRegions.Get(code); exists {
			result = append(result, sr)
		}
	}
	return result
}

// SubRegion returns a single sub-region by code.
func (s *Service) SubRegion(code string) (*model.SubRegion, bool) {
	return s.subRegions.Get(code)
}

// SubRegionCount returns the total number of indexed sub-regions.
func (s *Service) SubRegionCount() int {
	return s.subRegions.Count()
}

// Validate checks the built index for integrity problems: regions with zero
// sub-regions and a region count that does not match the expected count for
// the dataset's geography. expectedRegions <= 0 disables the count check.
func (s *Service) Validate(expectedRegions int) ValidationReport {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	report := ValidationReport{
		RegionCount:    len(s.byRegion),
		SubRegionCount: s.subRegions.Count(),
	}

	for _, region := range s.regionOrder {
		if len(s.byRegion[region]) == 0 {
			report.Issues = append(report.Issues,
				fmt.Sprintf("region %q has no sub-regions", region))
		}
	}

	if expectedRegions > 0 && len(s.byRegion) != expectedRegions {
		report.Issues = append(report.Issues,
			fmt.Sprintf("expected %d regions, found %d", expectedRegions, len(s.byRegion)))
	}

	return report
}

// SubRegionsAtPoint returns all sub-regions containing the given point. The
// R-tree narrows candidates by bounding box; the precise containment test is
// the even-odd ray cast.
func (s *Service) SubRegionsAtPoint(lat, lng float64) []*model.SubRegion {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	if !s.initialized {
		return nil
	}

	point := orb.Point{lng, lat}

	// Create a small search rectangle around the point
	// This helps with the initial filtering using the R-tree
	searchRect, err := rtreego.NewRect(
		rtreego.Point{lng, lat},
		[]float64{0.0001, 0.0001}, // Small radius for point search
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	spatialResults := s.spatialIndex.SearchIntersect(searchRect)
	if len(spatialResults) == 0 {
		return nil
	}

	var result []*model.SubRegion
	for _, item := range spatialResults {
		srs := item.(*SubRegionSpatial)

		// Perform precise point-in-polygon check
		if util.PointInMultiPolygon(srs.SubRegion.Geometry, point) {
			result = append(result, srs.SubRegion)
		}
	}

	return result
}
