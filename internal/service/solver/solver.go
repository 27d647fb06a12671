package solver

import (
	"fmt"
	"log"
	"sort"

	"siteplan/internal/model"
)

// RankRegions orders region names by demand index value, descending. The
// sort is stable: regions with equal scores keep their input order. Regions
// with no demand entry score 0. At most k names are returned; k <= 0 returns
// the full ranking.
func RankRegions(demand model.DemandIndex, regions []string, k int) []string {
	ranked := make([]string, len(regions))
	copy(ranked, regions)

	sort.SliceStable(ranked, func(i, j int) bool {
		return demand[ranked[i]] > demand[ranked[j]]
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Select runs the greedy maximal-covering-location loop: in each of up to k
// iterations it rescores every remaining candidate against the sub-regions
// not yet covered, picks the highest-scoring positive candidate, and marks
// that facility's whole contribution footprint as covered. The result is in
// selection order, each pick tagged with its marginal score and the
// sub-regions it newly covered.
//
// Candidates are restricted to the top-k regions of the demand ranking. An
// absent demand index cannot rank regions and yields an empty result; a
// candidate with no contribution row scores 0 forever and is reported as a
// data-quality warning. Running out of positive-scoring candidates before k
// picks is a defined terminal state, not an error.
func Select(k int, demand model.DemandIndex, regions []string, candidates []*model.ResolvedFacility) *model.SelectionResult {
	result := &model.SelectionResult{}

	if len(demand) == 0 {
		log.Println("Solver: demand index missing, cannot rank regions")
		result.Warnings = append(result.Warnings, "demand index missing: no regions ranked")
		return result
	}

	topRegions := RankRegions(demand, regions, k)
	result.Regions = topRegions

	inScope := make(map[string]bool, len(topRegions))
	for _, r := range topRegions {
		inScope[r] = true
	}

	// Restrict candidates to the top-k regions, preserving input order.
	pool := make([]*model.ResolvedFacility, 0, len(candidates))
	for _, c := range candidates {
		if !inScope[c.Region] {
			continue
		}
		if len(c.Contributions) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("facility %q has no coverage contribution row", c.Name))
			log.Printf("Solver: facility %q has no contribution row, scoring 0", c.Name)
		}
		pool = append(pool, c)
	}

	log.Printf("Solver: k=%d, %d regions in scope, %d candidates", k, len(topRegions), len(pool))

	covered := make(map[string]bool)
	selected := make(map[string]bool)

	type scored struct {
		facility *model.ResolvedFacility
		score    float64
	}

	for iteration := 1; iteration <= k; iteration++ {
		// Rescore every remaining candidate against what is still uncovered.
		remaining := make([]scored, 0, len(pool))
		for _, c := range pool {
			if selected[c.ID] {
				continue
			}
			current := 0.0
			for _, contrib := range c.Contributions {
				if !covered[contrib.SubRegionCode] {
					current += contrib.Value
				}
			}
			remaining = append(remaining, scored{facility: c, score: current})
		}

		// Stable sort keeps candidate input order on ties.
		sort.SliceStable(remaining, func(i, j int) bool {
			return remaining[i].score > remaining[j].score
		})

		var pick *scored
		for i := range remaining {
			if remaining[i].score > 0 {
				pick = &remaining[i]
				break
			}
		}
		if pick == nil {
			log.Printf("Solver: no positive-scoring candidate left at iteration %d, stopping", iteration)
			break
		}

		// A built facility serves its whole footprint: mark every sub-region
		// in its row covered, not only those that contributed this iteration.
		var newly []string
		for _, contrib := range pick.facility.Contributions {
			if !covered[contrib.SubRegionCode] {
				newly = append(newly, contrib.SubRegionCode)
				covered[contrib.SubRegionCode] = true
			}
		}

		selected[pick.facility.ID] = true
		result.Selected = append(result.Selected, model.SelectedSite{
			Facility:      pick.facility,
			Iteration:     iteration,
			MarginalScore: pick.score,
			NewlyCovered:  newly,
		})

		log.Printf("Solver: iteration %d selected %q (marginal %.3f, %d sub-regions newly covered, %d covered total)",
			iteration, pick.facility.Name, pick.score, len(newly), len(covered))
	}

	return result
}
