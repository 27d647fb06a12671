// siteplan-import loads the four input datasets from files into PostgreSQL
// so the service can initialize from the database alone.
package main

import (
	"flag"
	"log"

	"siteplan/internal/config"
	"siteplan/internal/loader"
	"siteplan/internal/postgres"
)

func main() {
	var (
		boundaryFile = flag.String("boundaries", "", "Path to boundary GeoJSON file")
		demandFile   = flag.String("demand", "", "Path to demand index JSON file")
		richFile     = flag.String("rich", "", "Path to rich facility JSON file")
		scoredFile   = flag.String("scored", "", "Path to scored facility JSON file")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override configured paths.
	if *boundaryFile != "" {
		cfg.BoundaryFile = *boundaryFile
	}
	if *demandFile != "" {
		cfg.DemandIndexFile = *demandFile
	}
	if *richFile != "" {
		cfg.RichFile = *richFile
	}
	if *scoredFile != "" {
		cfg.ScoredFile = *scoredFile
	}

	postgres.Init(cfg.DBUrl)
	defer postgres.Close()

	if cfg.BoundaryFile != "" {
		features, err := loader.LoadBoundaries(cfg.BoundaryFile)
		if err != nil {
			log.Fatalf("Failed to load boundaries: %v", err)
		}
		if err := postgres.SaveBoundaries(features, cfg.RegionSuffix); err != nil {
			log.Fatalf("Failed to save boundaries: %v", err)
		}
		log.Printf("Imported %d boundary features", len(features))
	}

	if cfg.DemandIndexFile != "" {
		demand, err := loader.LoadDemandIndex(cfg.DemandIndexFile)
		if err != nil {
			log.Fatalf("Failed to load demand index: %v", err)
		}
		if err := postgres.SaveDemandIndex(demand); err != nil {
			log.Fatalf("Failed to save demand index: %v", err)
		}
		log.Printf("Imported demand index with %d regions", len(demand))
	}

	if cfg.RichFile != "" {
		rich, err := loader.LoadRichFacilities(cfg.RichFile)
		if err != nil {
			log.Fatalf("Failed to load rich facilities: %v", err)
		}
		if err := postgres.SaveFacilities(rich); err != nil {
			log.Fatalf("Failed to save facilities: %v", err)
		}
		log.Printf("Imported %d rich facility records", len(rich))
	}

	if cfg.ScoredFile != "" {
		scored, err := loader.LoadScoredFacilities(cfg.ScoredFile)
		if err != nil {
			log.Fatalf("Failed to load scored facilities: %v", err)
		}
		if err := postgres.SaveScoredFacilities(scored); err != nil {
			log.Fatalf("Failed to save scored facilities: %v", err)
		}
		log.Printf("Imported %d scored facility records", len(scored))
	}

	log.Println("Import complete")
}
