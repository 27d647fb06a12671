package model

// SelectedSite is one solver pick: the facility, its marginal score at the
// moment of selection, and the sub-regions it newly added to the covered set.
type SelectedSite struct {
	Facility      *ResolvedFacility `json:"facility"`
	Iteration     int               `json:"iteration"`
	MarginalScore float64           `json:"marginalScore"`
	NewlyCovered  []string          `json:"newlyCovered"`
}

// SelectionResult is the ordered output of one solver run. Immutable once
// returned; each run builds a fresh result.
type SelectionResult struct {
	Selected []SelectedSite `json:"selected"`
	Regions  []string       `json:"regions"`  // the top-K regions the run was restricted to, in rank order
	Warnings []string       `json:"warnings"` // data-quality notes (missing contribution rows etc.)
}

// CoveredCount returns the number of distinct sub-regions covered by the
// selected sites.
func (r *SelectionResult) CoveredCount() int {
	seen := make(map[string]bool)
	for _, s := range r.Selected {
		for _, code := range s.NewlyCovered {
			seen[code] = true
		}
	}
	return len(seen)
}
