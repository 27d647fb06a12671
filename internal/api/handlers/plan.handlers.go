package routes

import (
	"log"
	"net/http"

	"siteplan/internal/model"
	"siteplan/internal/service/plan"

	"github.com/gin-gonic/gin"
)

// SetupPlanHandlers registers the siting pipeline endpoints
func SetupPlanHandlers(router *gin.RouterGroup) {
	planGroup := router.Group("/plan")
	planGroup.POST("/select", RunSelection)
	planGroup.GET("/last", GetLastSelection)

	router.GET("/health", Health)
	router.GET("/facilities/resolved", GetResolvedFacilities)
	router.GET("/boundaries/validate", ValidateBoundaries)
}

// selectRequest is the body of a selection run request. Region, when set,
// restricts the run to that region instead of the top-k demand ranking.
type selectRequest struct {
	K      int    `json:"k"`
	Region string `json:"region"`
}

// selectedSiteResponse is the wire form of one solver pick.
type selectedSiteResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Region        string   `json:"region"`
	Iteration     int      `json:"iteration"`
	MarginalScore float64  `json:"marginalScore"`
	NewlyCovered  []string `json:"newlyCovered"`
}

// RunSelection executes a full pipeline run and returns the ordered site
// selection.
func RunSelection(c *gin.Context) {
	var req selectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	svc := plan.GetPlanService()
	var run *plan.RunResult
	if req.Region != "" {
		run = svc.RunSelectionInRegion(req.K, req.Region)
	} else {
		run = svc.RunSelection(req.K)
	}
	log.Printf("Selection run via API: k=%d, %d sites selected, %d rejections",
		req.K, len(run.Selection.Selected), len(run.Rejections))

	selected := make([]selectedSiteResponse, 0, len(run.Selection.Selected))
	for _, s := range run.Selection.Selected {
		selected = append(selected, selectedSiteResponse{
			ID:            s.Facility.ID,
			Name:          s.Facility.Name,
			Region:        s.Facility.Region,
			Iteration:     s.Iteration,
			MarginalScore: s.MarginalScore,
			NewlyCovered:  s.NewlyCovered,
		})
	}

	rejections := make([]gin.H, 0, len(run.Rejections))
	for _, r := range run.Rejections {
		rejections = append(rejections, gin.H{
			"id":     r.Facility.ID,
			"name":   r.Facility.Name,
			"reason": r.Reason,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"regions":      run.Selection.Regions,
		"selected":     selected,
		"coveredCount": run.Selection.CoveredCount(),
		"warnings":     run.Selection.Warnings,
		"rejections":   rejections,
	})
}

// GetLastSelection returns the most recently cached selection run.
func GetLastSelection(c *gin.Context) {
	selection := plan.GetPlanService().LastSelection()
	if selection == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached selection available"})
		return
	}
	c.JSON(http.StatusOK, selection)
}

// resolvedFacilityResponse is the wire form of one merged/resolved record.
type resolvedFacilityResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Region         string               `json:"region,omitempty"`
	Location       string               `json:"location,omitempty"`
	Area           float64              `json:"area,omitempty"`
	Lat            *float64             `json:"lat,omitempty"`
	Lng            *float64             `json:"lng,omitempty"`
	CoverageScore  float64              `json:"coverageScore"`
	SubRegionCount int                  `json:"subRegionCount"`
	Contributions  []model.Contribution `json:"contributions,omitempty"`
	Matched        bool                 `json:"matched"`
	Similarity     float64              `json:"similarity,omitempty"`
	MatchedName    string               `json:"matchedName,omitempty"`
}

// GetResolvedFacilities returns the full resolved facility set, unmatched
// entries explicitly flagged.
func GetResolvedFacilities(c *gin.Context) {
	resolved := plan.GetPlanService().ResolvedFacilities()

	out := make([]resolvedFacilityResponse, 0, len(resolved))
	for _, rf := range resolved {
		resp := resolvedFacilityResponse{
			ID:             rf.ID,
			Name:           rf.Name,
			Region:         rf.Region,
			Location:       rf.Location,
			Area:           rf.Area,
			CoverageScore:  rf.CoverageScore,
			SubRegionCount: rf.SubRegionCount,
			Contributions:  rf.Contributions,
			Matched:        rf.Matched,
			Similarity:     rf.Similarity,
			MatchedName:    rf.MatchedName,
		}
		if rf.Point != nil {
			lat, lng := rf.Point[1], rf.Point[0]
			resp.Lat, resp.Lng = &lat, &lng
		}
		out = append(out, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(out),
		"facilities": out,
	})
}

// ValidateBoundaries reports containment-index integrity.
func ValidateBoundaries(c *gin.Context) {
	boundaries := plan.GetPlanService().Boundaries()
	if boundaries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "boundary dataset not loaded"})
		return
	}

	report := boundaries.Validate(plan.GetPlanService().ExpectedRegionCount())
	c.JSON(http.StatusOK, report)
}
