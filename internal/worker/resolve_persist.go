package worker

import (
	"log"
	"time"

	"siteplan/internal/config"
	"siteplan/internal/model"
	"siteplan/internal/postgres"
	"siteplan/internal/service/plan"
)

// StartResolvePersistWorker starts the worker that flushes resolved
// facilities with unsaved changes to PostgreSQL
func StartResolvePersistWorker() {
	planService := plan.GetPlanService()

	ticker := time.NewTicker(config.ResolvePersistInterval)
	go func() {
		for range ticker.C {
			persistDirtyResolved(planService)
		}
	}()

	log.Println("Resolve persistence worker started with interval:", config.ResolvePersistInterval)
}

func persistDirtyResolved(planService *plan.Service) {
	dirty := planService.DirtyResolved()
	if len(dirty) == 0 {
		return
	}

	batch := make([]*model.ResolvedFacility, 0, len(dirty))
	ids := make([]string, 0, len(dirty))
	for id, rf := range dirty {
		batch = append(batch, rf)
		ids = append(ids, id)
	}

	if err := postgres.SaveResolvedFacilities(batch); err != nil {
		log.Printf("Failed to persist %d resolved facilities: %v", len(batch), err)
		return
	}

	planService.ClearDirtyResolved(ids)
	log.Printf("Persisted %d resolved facilities to PostgreSQL", len(batch))
}
