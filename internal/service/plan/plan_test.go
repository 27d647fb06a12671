package plan

import (
	"testing"

	"siteplan/internal/config"
	"siteplan/internal/model"
	"siteplan/internal/service/boundary"

	"github.com/paulmach/orb"
)

func square(minX, minY, size float64) orb.MultiPolygon {
	return orb.MultiPolygon{
		{
			{
				{minX, minY},
				{minX + size, minY},
				{minX + size, minY + size},
				{minX, minY + size},
				{minX, minY},
			},
		},
	}
}

// Three regions with two sub-regions each, laid out on a grid.
func boundaryFixture() []boundary.Feature {
	return []boundary.Feature{
		{Code: "a", Name: "Metro Riverside District Ash Ward", Geometry: square(0, 0, 1)},
		{Code: "b", Name: "Metro Riverside District Birch Ward", Geometry: square(1, 0, 1)},
		{Code: "c", Name: "Metro Hillside District Cedar Ward", Geometry: square(0, 2, 1)},
		{Code: "d", Name: "Metro Hillside District Dogwood Ward", Geometry: square(1, 2, 1)},
		{Code: "e", Name: "Metro Lakeview District Elm Ward", Geometry: square(0, 4, 1)},
		{Code: "f", Name: "Metro Lakeview District Fir Ward", Geometry: square(1, 4, 1)},
	}
}

func demandFixture() model.DemandIndex {
	return model.DemandIndex{
		"Riverside District": 0.9,
		"Hillside District":  0.4,
		"Lakeview District":  0.1,
	}
}

func richFixture() []*model.Facility {
	return []*model.Facility{
		{
			ID:     "two-ward-grounds",
			Name:   "Two Ward Grounds Citypark",
			Region: "Riverside District",
			Area:   30000,
			Point:  &orb.Point{0.5, 0.5}, // inside sub-region a
		},
		{
			ID:     "single-ward-grounds",
			Name:   "Single Ward Grounds Citypark",
			Region: "Riverside District",
			Area:   12000,
			Point:  &orb.Point{1.5, 0.5}, // inside sub-region b
		},
	}
}

func scoredFixture() []*model.ScoredFacility {
	return []*model.ScoredFacility{
		{
			Name:           "TwoWardGrounds",
			CoverageScore:  1.0,
			SubRegionCount: 2,
			Contributions: []model.Contribution{
				{SubRegionCode: "a", Value: 0.6},
				{SubRegionCode: "b", Value: 0.4},
			},
		},
		{
			Name:           "SingleWardGrounds",
			CoverageScore:  0.9,
			SubRegionCount: 1,
			Contributions: []model.Contribution{
				{SubRegionCode: "b", Value: 0.9},
			},
		},
	}
}

func testConfig() config.Config {
	return config.Config{
		SimilarityThreshold: 0.5,
		ExpectedRegionCount: 3,
		DefaultK:            3,
		RegionSuffix:        "District",
		MinLat:              -10,
		MaxLat:              10,
		MinLng:              -10,
		MaxLng:              10,
	}
}

func newTestService(t *testing.T, rich []*model.Facility, scored []*model.ScoredFacility) *Service {
	t.Helper()
	svc := NewService(testConfig())
	if err := svc.LoadDatasets(boundaryFixture(), demandFixture(), rich, scored); err != nil {
		t.Fatalf("LoadDatasets failed: %v", err)
	}
	return svc
}

// Scenario A: with K=1 the solver must pick by total contribution (1.0),
// not per-sub-region peak (0.9).
func TestRunSelectionPicksByTotal(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	run := svc.RunSelection(1)
	if len(run.Selection.Selected) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(run.Selection.Selected))
	}

	pick := run.Selection.Selected[0]
	if pick.Facility.Name != "TwoWardGrounds" {
		t.Errorf("expected TwoWardGrounds, got %q", pick.Facility.Name)
	}
	if pick.MarginalScore != 1.0 {
		t.Errorf("expected marginal score 1.0, got %v", pick.MarginalScore)
	}
}

// Scenario B: K=2, but the first pick covers {a, b}, so the second
// candidate's marginal score is 0 and the run ends with one selection.
func TestRunSelectionTerminatesEarly(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	run := svc.RunSelection(2)
	if len(run.Selection.Selected) != 1 {
		t.Fatalf("expected early termination with 1 selection, got %d", len(run.Selection.Selected))
	}
}

// "Two Ward Grounds Citypark" (rich) and "TwoWardGrounds" (scored)
// normalize to the same string and match with similarity 1.0.
func TestRunSelectionEntityResolution(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	resolved := svc.ResolvedFacilities()
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved facilities, got %d", len(resolved))
	}
	for _, rf := range resolved {
		if !rf.Matched || rf.Similarity != 1.0 {
			t.Errorf("facility %q should match at similarity 1.0, got %+v", rf.Name, rf)
		}
		if rf.Region != "Riverside District" {
			t.Errorf("rich region label not merged for %q", rf.Name)
		}
	}
}

// Scenario D: a facility whose label claims Riverside but whose point lies in
// no Riverside sub-region is dropped by the assigner before the solver.
func TestRunSelectionExcludesGeometricallyInconsistent(t *testing.T) {
	rich := append(richFixture(), &model.Facility{
		ID:     "stray",
		Name:   "Stray Grounds Citypark",
		Region: "Riverside District",
		Point:  &orb.Point{0.5, 4.5}, // actually inside Lakeview's Elm Ward
	})
	scored := append(scoredFixture(), &model.ScoredFacility{
		Name:          "StrayGrounds",
		CoverageScore: 5.0,
		Contributions: []model.Contribution{
			{SubRegionCode: "a", Value: 5.0},
		},
	})

	svc := newTestService(t, rich, scored)
	run := svc.RunSelection(1)

	for _, s := range run.Selection.Selected {
		if s.Facility.Name == "StrayGrounds" {
			t.Fatal("geometrically inconsistent facility must not be selected")
		}
	}

	found := false
	for _, rej := range run.Rejections {
		if rej.Facility.Name == "StrayGrounds" {
			found = true
		}
	}
	if !found {
		t.Error("rejected facility should be reported with a reason")
	}
}

func TestRunSelectionMissingDemandIndex(t *testing.T) {
	svc := NewService(testConfig())
	if err := svc.LoadDatasets(boundaryFixture(), model.DemandIndex{}, richFixture(), scoredFixture()); err != nil {
		t.Fatalf("LoadDatasets failed: %v", err)
	}

	run := svc.RunSelection(2)
	if len(run.Selection.Selected) != 0 {
		t.Error("missing demand index must yield an empty selection")
	}
	if len(run.Selection.Warnings) == 0 {
		t.Error("missing demand index must be reported as a warning")
	}
}

func TestRunSelectionBeforeLoad(t *testing.T) {
	svc := NewService(testConfig())
	run := svc.RunSelection(1)
	if len(run.Selection.Selected) != 0 || len(run.Selection.Warnings) == 0 {
		t.Error("running before datasets are loaded must yield an empty, flagged result")
	}
}

// Repeated runs over the same session are independent: the solver's covered
// set is transient per run.
func TestRunSelectionRepeatable(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	first := svc.RunSelection(2)
	second := svc.RunSelection(2)

	if len(first.Selection.Selected) != len(second.Selection.Selected) {
		t.Fatal("repeated runs must produce identical selections")
	}
	for i := range first.Selection.Selected {
		a, b := first.Selection.Selected[i], second.Selection.Selected[i]
		if a.Facility.ID != b.Facility.ID || a.MarginalScore != b.MarginalScore {
			t.Errorf("run results differ at index %d", i)
		}
	}
}

// A region-restricted run considers only that region's candidates, demand
// ranking notwithstanding.
func TestRunSelectionInRegion(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	run := svc.RunSelectionInRegion(1, "Lakeview District")
	if len(run.Selection.Selected) != 0 {
		t.Errorf("Lakeview has no candidates, expected empty selection, got %d", len(run.Selection.Selected))
	}
	if len(run.Selection.Regions) != 1 || run.Selection.Regions[0] != "Lakeview District" {
		t.Errorf("run should be scoped to Lakeview District, got %v", run.Selection.Regions)
	}

	run = svc.RunSelectionInRegion(1, "Riverside District")
	if len(run.Selection.Selected) != 1 || run.Selection.Selected[0].Facility.Name != "TwoWardGrounds" {
		t.Errorf("unexpected Riverside-scoped selection: %+v", run.Selection.Selected)
	}
}

// The selection cache is strictly optional: with no Redis client configured,
// runs proceed and no last selection is served.
func TestLastSelectionWithoutCache(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	if svc.LastSelection() != nil {
		t.Error("LastSelection must be nil before any run")
	}

	run := svc.RunSelection(1)
	if len(run.Selection.Selected) != 1 {
		t.Fatalf("run should succeed without a cache, got %d selections", len(run.Selection.Selected))
	}
	if svc.LastSelection() != nil {
		t.Error("LastSelection must stay nil when no cache is configured")
	}
}

func TestDirtyResolvedLifecycle(t *testing.T) {
	svc := newTestService(t, richFixture(), scoredFixture())

	dirty := svc.DirtyResolved()
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty resolved facilities after load, got %d", len(dirty))
	}

	ids := make([]string, 0, len(dirty))
	for id := range dirty {
		ids = append(ids, id)
	}
	svc.ClearDirtyResolved(ids)

	if len(svc.DirtyResolved()) != 0 {
		t.Error("dirty set should be empty after clearing")
	}
}
