package resolve

import (
	"log"
	"strings"
	"time"

	"siteplan/internal/model"

	"github.com/agnivade/levenshtein"
)

// DefaultStripTokens are conventional facility-type designators that the two
// source datasets attach inconsistently. They are removed as whole tokens
// before comparison.
var DefaultStripTokens = []string{"citypark", "greenspace", "recreationground"}

// DefaultThreshold is the minimum similarity a match must strictly exceed.
const DefaultThreshold = 0.5

// strippedChars are removed from names entirely, along with all whitespace.
const strippedChars = "<>()_"

// Resolver reconciles facility records from the rich dataset against the
// scored dataset by normalized fuzzy name matching.
type Resolver struct {
	threshold   float64
	stripTokens []string
}

// NewResolver creates a resolver with the given acceptance threshold and the
// default strip-token set. threshold <= 0 falls back to DefaultThreshold.
func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{
		threshold:   threshold,
		stripTokens: DefaultStripTokens,
	}
}

// Normalize lower-cases the name, drops conventional designator tokens, and
// removes all whitespace plus the characters < > ( ) _.
func (r *Resolver) Normalize(name string) string {
	lower := strings.ToLower(name)

	tokens := strings.Fields(lower)
	kept := tokens[:0]
	for _, tok := range tokens {
		skip := false
		for _, strip := range r.stripTokens {
			if tok == strip {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, tok)
		}
	}

	joined := strings.Join(kept, "")
	return strings.Map(func(c rune) rune {
		if strings.ContainsRune(strippedChars, c) {
			return -1
		}
		return c
	}, joined)
}

// Similarity is normalized Levenshtein similarity between two already
// normalized names: (maxLen - editDistance) / maxLen, in [0, 1]. Two empty
// strings are identical by definition.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// Resolve produces one merged record per scored facility. Each scored record
// independently picks its single best rich match and accepts it only when
// similarity strictly exceeds the threshold; duplicate best-matches across
// scored records are allowed. Empty inputs yield every scored record
// unmatched, not an error.
func (r *Resolver) Resolve(rich []*model.Facility, scored []*model.ScoredFacility) []*model.ResolvedFacility {
	log.Printf("Resolving %d scored facilities against %d rich records", len(scored), len(rich))
	startTime := time.Now()

	normalizedRich := make([]string, len(rich))
	for i, f := range rich {
		normalizedRich[i] = r.Normalize(f.Name)
	}

	now := time.Now()
	matched := 0
	result := make([]*model.ResolvedFacility, 0, len(scored))

	for _, sf := range scored {
		normScored := r.Normalize(sf.Name)

		bestIdx := -1
		bestSim := -1.0
		for i := range rich {
			sim := Similarity(normScored, normalizedRich[i])
			if sim > bestSim {
				bestSim = sim
				bestIdx = i
			}
		}

		rf := &model.ResolvedFacility{
			ID:             model.FacilityID(sf.Name),
			Name:           sf.Name,
			CoverageScore:  sf.CoverageScore,
			SubRegionCount: sf.SubRegionCount,
			Contributions:  sf.Contributions,
			ResolvedAt:     now,
		}

		if bestIdx >= 0 && bestSim > r.threshold {
			best := rich[bestIdx]
			rf.Matched = true
			rf.Similarity = bestSim
			rf.MatchedName = best.Name
			rf.Region = best.Region
			rf.Location = best.Location
			rf.Area = best.Area
			if best.Point != nil {
				p := *best.Point
				rf.Point = &p
			}
			matched++
		}

		result = append(result, rf)
	}

	log.Printf("Resolution complete: %d/%d matched in %v", matched, len(scored), time.Since(startTime))
	return result
}
