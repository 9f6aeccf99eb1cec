package maintenance

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/database"
)

const (
	// DefaultOptimizeSchedule runs planner stat refresh and WAL
	// checkpointing nightly.
	DefaultOptimizeSchedule = "0 3 * * *"
	// DefaultVacuumSchedule rebuilds the database file weekly.
	DefaultVacuumSchedule = "0 4 * * 0"
)

// Scheduler runs periodic database upkeep. It deliberately does not
// evict expired sessions: session expiry is advisory and recomputed at
// read time.
type Scheduler struct {
	db   *database.DB
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// New creates a maintenance scheduler
func New(db *database.DB) *Scheduler {
	return &Scheduler{
		db:   db,
		cron: cron.New(),
	}
}

// Start registers the upkeep jobs and starts the cron scheduler.
// Schedules are settings-overridable (maintenance.optimize_schedule,
// maintenance.vacuum_schedule).
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	loader := config.NewLoader(s.db)
	optimizeSpec := loader.String("maintenance.optimize_schedule", DefaultOptimizeSchedule)
	vacuumSpec := loader.String("maintenance.vacuum_schedule", DefaultVacuumSchedule)

	if _, err := s.cron.AddFunc(optimizeSpec, s.runOptimize); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(vacuumSpec, s.runVacuum); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	log.Info().
		Str("optimize", optimizeSpec).
		Str("vacuum", vacuumSpec).
		Msg("Maintenance scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	log.Debug().Msg("Maintenance scheduler stopped")
}

func (s *Scheduler) runOptimize() {
	if err := s.db.Optimize(); err != nil {
		log.Error().Err(err).Msg("Database optimize failed")
	}
	if err := s.db.CheckpointWAL(); err != nil {
		log.Error().Err(err).Msg("WAL checkpoint failed")
	}
	log.Debug().Msg("Database optimize pass complete")
}

func (s *Scheduler) runVacuum() {
	if err := s.db.Vacuum(); err != nil {
		log.Error().Err(err).Msg("Database vacuum failed")
		return
	}
	log.Info().Msg("Database vacuum complete")
}
