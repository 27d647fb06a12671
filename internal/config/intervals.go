package config

import "time"

// Worker intervals
const (
	// ResolvePersistInterval defines how often resolved facilities with
	// unsaved changes are flushed to PostgreSQL
	ResolvePersistInterval = 60 * time.Second

	// SelectionCacheTTL defines how long a cached selection result stays
	// valid in Redis
	SelectionCacheTTL = 10 * time.Minute
)
