package boundary

import (
	"testing"

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

func testFeatures() []Feature {
	return []Feature{
		{Code: "R1-A", Name: "Metro Riverside District Ash Ward", Geometry: square(0, 0, 1)},
		{Code: "R1-B", Name: "Metro Riverside District Birch Ward", Geometry: square(1, 0, 1)},
		{Code: "R2-A", Name: "Metro Hillside District Cedar Ward", Geometry: square(0, 2, 1)},
		{Code: "R2-B", Name: "Metro Hillside District Dogwood Ward", Geometry: square(1, 2, 1)},
		{Code: "R3-A", Name: "Metro Lakeview District Elm Ward", Geometry: square(0, 4, 1)},
		{Code: "R3-B", Name: "Metro Lakeview District Fir Ward", Geometry: square(1, 4, 1)},
	}
}

func TestParseStructuredName(t *testing.T) {
	tests := []struct {
		name       string
		wantParent string
		wantSub    string
		wantErr    bool
	}{
		{"Metro Riverside District Ash Ward", "Riverside District", "Ash Ward", false},
		{"Metro Upper Hillside District Cedar", "Upper Hillside District", "Cedar", false},
		{"Metro Riverside", "", "", true},          // too few tokens
		{"Metro Riverside Ash Ward", "", "", true}, // no suffix token
	}

	for _, tt := range tests {
		parent, sub, err := ParseStructuredName(tt.name, "District")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStructuredName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if parent != tt.wantParent || sub != tt.wantSub {
			t.Errorf("ParseStructuredName(%q) = (%q, %q), want (%q, %q)",
				tt.name, parent, sub, tt.wantParent, tt.wantSub)
		}
	}
}

func TestBuildIndex(t *testing.T) {
	svc := NewService()
	if err := svc.BuildIndex(testFeatures(), "District"); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	regions := svc.Regions()
	if len(regions) != 3 {
		t.Fatalf("expected 3 regions, got %d: %v", len(regions), regions)
	}

	// Region order follows input order of first appearance.
	want := []string{"Riverside District", "Hillside District", "Lakeview District"}
	for i, r := range want {
		if regions[i] != r {
			t.Errorf("regions[%d] = %q, want %q", i, regions[i], r)
		}
	}

	// Sub-region ordering within a region follows input order.
	subs := svc.SubRegionsOf("Riverside District")
	if len(subs) != 2 || subs[0].Code != "R1-A" || subs[1].Code != "R1-B" {
		t.Errorf("unexpected Riverside sub-regions: %+v", subs)
	}

	if svc.SubRegionsOf("Nowhere District") != nil {
		t.Error("unknown region should return nil")
	}
}

func TestSubRegionCountsSumToTotal(t *testing.T) {
	svc := NewService()
	features := testFeatures()
	if err := svc.BuildIndex(features, "District"); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	sum := 0
	for _, region := range svc.Regions() {
		sum += len(svc.SubRegionsOf(region))
	}
	if sum != svc.SubRegionCount() || sum != len(features) {
		t.Errorf("per-region counts sum to %d, want %d", sum, len(features))
	}
}

func TestValidate(t *testing.T) {
	svc := NewService()
	if err := svc.BuildIndex(testFeatures(), "District"); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	report := svc.Validate(3)
	if report.RegionCount != 3 || report.SubRegionCount != 6 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if len(report.Issues) != 0 {
		t.Errorf("expected no issues, got %v", report.Issues)
	}

	// Wrong expected region count is surfaced, not silently tolerated.
	report = svc.Validate(25)
	if len(report.Issues) == 0 {
		t.Error("expected an issue for mismatched region count")
	}
}

func TestBuildIndexSkipsUnparsableNames(t *testing.T) {
	features := append(testFeatures(), Feature{
		Code:     "BAD",
		Name:     "Nameless",
		Geometry: square(5, 5, 1),
	})

	svc := NewService()
	if err := svc.BuildIndex(features, "District"); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if svc.SubRegionCount() != 6 {
		t.Errorf("unparsable feature should be excluded, got %d sub-regions", svc.SubRegionCount())
	}
}

func TestBuildIndexAllUnusable(t *testing.T) {
	svc := NewService()
	err := svc.BuildIndex([]Feature{{Code: "X", Name: "Nameless"}}, "District")
	if err == nil {
		t.Error("expected error when no feature is usable")
	}
}

func TestSubRegionsAtPoint(t *testing.T) {
	svc := NewService()
	if err := svc.BuildIndex(testFeatures(), "District"); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	// Inside R1-A: lat 0.5, lng 0.5 (geometry is [lng, lat]).
	subs := svc.SubRegionsAtPoint(0.5, 0.5)
	if len(subs) != 1 || subs[0].Code != "R1-A" {
		t.Errorf("expected R1-A at (0.5, 0.5), got %+v", subs)
	}

	if subs := svc.SubRegionsAtPoint(10, 10); subs != nil {
		t.Errorf("expected no sub-regions at (10, 10), got %+v", subs)
	}
}
