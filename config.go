package cm3

import "log"

// Config holds the simulation-wide tuning values shared by the dispatcher,
// the manifolds and the world.
type Config struct {
	// Contacts
	ContactBreakingThreshold float64 `json:"contactBreakingThreshold"` // Distance beyond which a cached contact point is dropped

	// Sleeping
	DeactivationTime    float64 `json:"deactivationTime"`    // Seconds at rest before an object wants to sleep
	DisableDeactivation bool    `json:"disableDeactivation"` // Keeps every object awake

	// Continuous collision
	AllowedCcdPenetration float64 `json:"allowedCcdPenetration"` // Penetration tolerated by time of impact queries

	// Broad phase
	ForceUpdateAllAabbs bool `json:"forceUpdateAllAabbs"` // Update AABBs of sleeping objects too

	// Solvers
	GjkMaxIterations int     `json:"gjkMaxIterations"` // Upper bound of GJK refinement steps
	EpaMaxIterations int     `json:"epaMaxIterations"` // Upper bound of polytope expansions
	EpaTolerance     float64 `json:"epaTolerance"`     // Convergence distance of the polytope expansion

	Logger           *log.Logger          `json:"-"`
	ContactAdded     ContactAddedFunc     `json:"-"`
	ContactProcessed ContactProcessedFunc `json:"-"`
	ContactDestroyed ContactDestroyedFunc `json:"-"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		ContactBreakingThreshold: 0.02,

		DeactivationTime:    2.0,
		DisableDeactivation: false,

		AllowedCcdPenetration: 0.04,

		ForceUpdateAllAabbs: true,

		GjkMaxIterations: 1000,
		EpaMaxIterations: 128,
		EpaTolerance:     1e-4,
	}
}

func (cfg *Config) logger() *log.Logger {
	if cfg == nil || cfg.Logger == nil {
		return log.Default()
	}
	return cfg.Logger
}

func (cfg *Config) warn(v ...any) {
	cfg.logger().Println(append([]any{"Warning:"}, v...)...)
}
