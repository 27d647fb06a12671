package assign

import (
	"log"

	"siteplan/internal/model"
	"siteplan/internal/service/boundary"

	"github.com/paulmach/orb"
)

// RejectReason explains why a candidate was excluded from a region.
type RejectReason string

const (
	// ReasonMissingCoordinates - the record carries no usable point.
	ReasonMissingCoordinates RejectReason = "missing_coordinates"
	// ReasonOutOfBounds - the point falls outside the dataset's sanity
	// bounding box.
	ReasonOutOfBounds RejectReason = "out_of_bounds"
	// ReasonOutsideRegion - no sub-region polygon of the target region
	// contains the point.
	ReasonOutsideRegion RejectReason = "outside_region"
)

// Rejection pairs an excluded candidate with the reason it was excluded.
type Rejection struct {
	Facility *model.ResolvedFacility
	Reason   RejectReason
}

// Assigner verifies facility-to-region membership geometrically instead of
// trusting the denormalized region label on the record. It holds no per-call
// state and must be re-run when the target region changes.
type Assigner struct {
	boundaries *boundary.Service
	sanityBox  orb.Bound // [lng, lat] degrees
}

// NewAssigner creates an assigner over the given containment index.
// sanityBox is the coordinate range considered plausible for the dataset's
// geography; anything outside it is rejected before containment testing.
func NewAssigner(boundaries *boundary.Service, sanityBox orb.Bound) *Assigner {
	return &Assigner{
		boundaries: boundaries,
		sanityBox:  sanityBox,
	}
}

// Filter keeps only the candidates whose point lies inside at least one
// sub-region polygon of the target region. Rejected candidates are returned
// alongside, tagged with why.
func (a *Assigner) Filter(region string, candidates []*model.ResolvedFacility) (kept []*model.ResolvedFacility, rejected []Rejection) {
	if len(a.boundaries.SubRegionsOf(region)) == 0 {
		log.Printf("Spatial assigner: region %q has no sub-regions in the containment index", region)
	}

	for _, f := range candidates {
		// Cheap rejections before any containment test.
		if f.Point == nil {
			rejected = append(rejected, Rejection{Facility: f, Reason: ReasonMissingCoordinates})
			continue
		}
		if !a.sanityBox.Contains(*f.Point) {
			rejected = append(rejected, Rejection{Facility: f, Reason: ReasonOutOfBounds})
			continue
		}

		// The R-tree narrows to the sub-regions containing the point; the
		// parent region of any hit decides membership.
		contained := false
		for _, sr := range a.boundaries.SubRegionsAtPoint(f.Point[1], f.Point[0]) {
			if sr.ParentRegion == region {
				contained = true
				break
			}
		}

		if contained {
			kept = append(kept, f)
		} else {
			rejected = append(rejected, Rejection{Facility: f, Reason: ReasonOutsideRegion})
		}
	}

	if len(rejected) > 0 {
		log.Printf("Spatial assigner: region %q kept %d, rejected %d candidates",
			region, len(kept), len(rejected))
	}
	return kept, rejected
}
