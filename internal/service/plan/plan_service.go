package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"siteplan/internal/config"
	"siteplan/internal/loader"
	"siteplan/internal/model"
	pg "siteplan/internal/postgres"
	redis_client "siteplan/internal/redis"
	"siteplan/internal/service/assign"
	"siteplan/internal/service/boundary"
	"siteplan/internal/service/resolve"
	"siteplan/internal/service/solver"
	"siteplan/internal/service/storage"

	"github.com/paulmach/orb"
)

const (
	selectionRedisKey     = "selection"
	lastSelectionRedisKey = "selection:last"
)

// RunResult is the output of one full pipeline run: the solver's selection
// plus the spatial assigner's rejections, for observability.
type RunResult struct {
	Selection  *model.SelectionResult
	Rejections []assign.Rejection
}

// Service orchestrates the siting pipeline: containment index -> entity
// resolution -> spatial assignment -> greedy coverage solve. Datasets are
// loaded once per session and read-only afterward; each run builds its own
// transient state.
type Service struct {
	cfg config.Config

	boundaries *boundary.Service
	resolver   *resolve.Resolver
	assigner   *assign.Assigner

	demand model.DemandIndex
	rich   []*model.Facility
	scored []*model.ScoredFacility

	resolved      storage.Storage[string, *model.ResolvedFacility]
	resolvedOrder []string // resolution output order, the solver's tie-break order

	initialized bool
	initMutex   sync.RWMutex
}

var (
	planServiceInstance *Service
	planServiceOnce     sync.Once
)

// GetPlanService returns the singleton instance of the plan service.
func GetPlanService() *Service {
	planServiceOnce.Do(func() {
		planServiceInstance = NewService(config.Config{})
	})
	return planServiceInstance
}

// NewService creates a plan service with the given configuration.
func NewService(cfg config.Config) *Service {
	return &Service{
		cfg:      cfg,
		resolver: resolve.NewResolver(cfg.SimilarityThreshold),
		resolved: storage.NewMemoryStorage[string, *model.ResolvedFacility](),
	}
}

// InitService loads the four datasets from PostgreSQL, builds the containment
// index, and runs entity resolution.
func (s *Service) InitService(ctx context.Context, cfg config.Config) error {
	s.initMutex.Lock()
	if s.initialized {
		s.initMutex.Unlock()
		log.Println("PlanService already initialized, skipping")
		return nil
	}
	s.cfg = cfg
	s.resolver = resolve.NewResolver(cfg.SimilarityThreshold)
	s.initMutex.Unlock()

	log.Println("Initializing PlanService from PostgreSQL...")
	startTime := time.Now()

	features, err := pg.LoadBoundaries()
	if err != nil {
		return fmt.Errorf("failed to load boundaries from PostgreSQL: %w", err)
	}
	demand, err := pg.LoadDemandIndex()
	if err != nil {
		return fmt.Errorf("failed to load demand index from PostgreSQL: %w", err)
	}
	rich, err := pg.LoadFacilities()
	if err != nil {
		return fmt.Errorf("failed to load facilities from PostgreSQL: %w", err)
	}
	scored, err := pg.LoadScoredFacilities()
	if err != nil {
		return fmt.Errorf("failed to load scored facilities from PostgreSQL: %w", err)
	}

	if err := s.LoadDatasets(features, demand, rich, scored); err != nil {
		return err
	}

	log.Printf("PlanService initialization complete in %v", time.Since(startTime))
	return nil
}

// InitFromFiles loads the four datasets from the files named in the
// configuration. Used by the importer and by file-based startup.
func (s *Service) InitFromFiles(cfg config.Config) error {
	s.initMutex.Lock()
	s.cfg = cfg
	s.resolver = resolve.NewResolver(cfg.SimilarityThreshold)
	s.initMutex.Unlock()

	features, err := loader.LoadBoundaries(cfg.BoundaryFile)
	if err != nil {
		return err
	}
	demand, err := loader.LoadDemandIndex(cfg.DemandIndexFile)
	if err != nil {
		return err
	}
	rich, err := loader.LoadRichFacilities(cfg.RichFile)
	if err != nil {
		return err
	}
	scored, err := loader.LoadScoredFacilities(cfg.ScoredFile)
	if err != nil {
		return err
	}

	return s.LoadDatasets(features, demand, rich, scored)
}

// LoadDatasets wires already-parsed datasets into the service: builds the
// containment index, the spatial assigner, and the resolved facility set.
func (s *Service) LoadDatasets(features []boundary.Feature, demand model.DemandIndex, rich []*model.Facility, scored []*model.ScoredFacility) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	s.boundaries = boundary.NewService()
	if err := s.boundaries.BuildIndex(features, s.regionSuffix()); err != nil {
		return fmt.Errorf("failed to build containment index: %w", err)
	}

	report := s.boundaries.Validate(s.cfg.ExpectedRegionCount)
	for _, issue := range report.Issues {
		log.Printf("Boundary validation: %s", issue)
	}

	s.assigner = assign.NewAssigner(s.boundaries, s.sanityBox())
	s.demand = demand
	s.rich = rich
	s.scored = scored

	resolvedList := s.resolver.Resolve(rich, scored)
	s.resolved = storage.NewMemoryStorage[string, *model.ResolvedFacility]()
	s.resolvedOrder = make([]string, 0, len(resolvedList))
	for _, rf := range resolvedList {
		s.resolved.Set(rf.ID, rf)
		s.resolvedOrder = append(s.resolvedOrder, rf.ID)
	}

	s.initialized = true

	// A new session invalidates any selection cached by a previous one.
	s.invalidateCachedSelection()
	return nil
}

func (s *Service) regionSuffix() string {
	if s.cfg.RegionSuffix == "" {
		return "District"
	}
	return s.cfg.RegionSuffix
}

func (s *Service) sanityBox() orb.Bound {
	// Zero config means the whole globe.
	if s.cfg.MinLat == 0 && s.cfg.MaxLat == 0 && s.cfg.MinLng == 0 && s.cfg.MaxLng == 0 {
		return orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	}
	return orb.Bound{
		Min: orb.Point{s.cfg.MinLng, s.cfg.MinLat},
		Max: orb.Point{s.cfg.MaxLng, s.cfg.MaxLat},
	}
}

// ExpectedRegionCount returns the configured expected number of
// administrative regions for boundary validation.
func (s *Service) ExpectedRegionCount() int {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()
	return s.cfg.ExpectedRegionCount
}

// Boundaries exposes the containment index for the API layer.
func (s *Service) Boundaries() *boundary.Service {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()
	return s.boundaries
}

// ResolvedFacilities returns the full merged/resolved facility set in
// resolution order, unmatched entries included.
func (s *Service) ResolvedFacilities() []*model.ResolvedFacility {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()

	result := make([]*model.ResolvedFacility, 0, len(s.resolvedOrder))
	for _, id := range s.resolvedOrder {
		if rf, ok := s.resolved.Get(id); ok {
			result = append(result, rf)
		}
	}
	return result
}

// DirtyResolved returns resolved facilities not yet persisted, for the
// persistence worker.
func (s *Service) DirtyResolved() map[string]*model.ResolvedFacility {
	return s.resolved.GetDirty()
}

// ClearDirtyResolved marks the given resolved facilities as persisted.
func (s *Service) ClearDirtyResolved(ids []string) {
	s.resolved.ClearDirty(ids)
}

// RunSelection executes one full pipeline run for the top-k demand regions
// and returns a fresh, immutable result. k <= 0 falls back to the configured
// default.
func (s *Service) RunSelection(k int) *RunResult {
	return s.runSelection(k, "")
}

// RunSelectionInRegion restricts a run to a single named region instead of
// the top-k demand ranking.
func (s *Service) RunSelectionInRegion(k int, region string) *RunResult {
	return s.runSelection(k, region)
}

func (s *Service) runSelection(k int, region string) *RunResult {
	s.initMutex.RLock()
	defer s.initMutex.RUnlock()

	if k <= 0 {
		k = s.cfg.DefaultK
	}
	if k <= 0 {
		k = 3
	}

	run := &RunResult{Selection: &model.SelectionResult{}}

	if !s.initialized {
		log.Println("RunSelection called before datasets were loaded")
		run.Selection.Warnings = append(run.Selection.Warnings, "datasets not loaded")
		return run
	}
	if len(s.demand) == 0 {
		log.Println("RunSelection: demand index missing")
		run.Selection.Warnings = append(run.Selection.Warnings, "demand index missing: no regions ranked")
		return run
	}

	regions := s.boundaries.Regions()
	if region != "" {
		regions = []string{region}
	}
	topRegions := solver.RankRegions(s.demand, regions, k)

	// Spatially validate the candidates of each in-scope region. The
	// denormalized region label only nominates candidates; geometry decides.
	var candidates []*model.ResolvedFacility
	for _, region := range topRegions {
		var nominated []*model.ResolvedFacility
		for _, id := range s.resolvedOrder {
			rf, ok := s.resolved.Get(id)
			if ok && rf.Region == region {
				nominated = append(nominated, rf)
			}
		}

		kept, rejected := s.assigner.Filter(region, nominated)
		candidates = append(candidates, kept...)
		run.Rejections = append(run.Rejections, rejected...)
	}

	run.Selection = solver.Select(k, s.demand, regions, candidates)
	s.cacheSelection(k, region, run.Selection)
	return run
}

// cacheSelection stores the serialized result in Redis when a client is
// configured. Cache failures are logged, never propagated.
func (s *Service) cacheSelection(k int, region string, selection *model.SelectionResult) {
	if redis_client.GetClient() == nil {
		return
	}

	data, err := json.Marshal(selection)
	if err != nil {
		log.Printf("Failed to marshal selection for caching: %v", err)
		return
	}

	key := fmt.Sprintf("%s:k=%d", selectionRedisKey, k)
	if region != "" {
		key = fmt.Sprintf("%s:k=%d:region=%s", selectionRedisKey, k, region)
	}
	if err := redis_client.Set(key, data, config.SelectionCacheTTL); err != nil {
		log.Printf("Failed to cache selection in Redis: %v", err)
	}
	if err := redis_client.Set(lastSelectionRedisKey, data, config.SelectionCacheTTL); err != nil {
		log.Printf("Failed to cache last selection in Redis: %v", err)
	}
}

// LastSelection returns the most recently cached selection result, or nil
// when no cache is configured or no run has been cached yet.
func (s *Service) LastSelection() *model.SelectionResult {
	if redis_client.GetClient() == nil {
		return nil
	}

	data, err := redis_client.Get(lastSelectionRedisKey)
	if err != nil {
		return nil
	}

	var selection model.SelectionResult
	if err := json.Unmarshal([]byte(data), &selection); err != nil {
		log.Printf("Failed to decode cached selection: %v", err)
		return nil
	}
	return &selection
}

func (s *Service) invalidateCachedSelection() {
	if redis_client.GetClient() == nil {
		return
	}
	if err := redis_client.Delete(lastSelectionRedisKey); err != nil {
		log.Printf("Failed to invalidate cached selection: %v", err)
	}
}
