package controller

import (
	"fmt"

	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/rs/zerolog"
)

// Mountable is a spawned vehicle entity
type Mountable interface {
	Chassis() physics.RigidBody
	Despawn()
}

// SpawnFunc creates a fresh vehicle entity
type SpawnFunc func() (Mountable, error)

// RespawnConfig sets when a fallen vehicle is replaced
type RespawnConfig struct {
	ThresholdY float64 // chassis Y below which the vehicle counts as fallen
	Delay      float64 // seconds between despawn and spawn
}

// DefaultRespawnConfig returns the demo scene thresholds
func DefaultRespawnConfig() RespawnConfig {
	return RespawnConfig{ThresholdY: -10, Delay: 0.5}
}

// Respawner destroys a vehicle that fell off the track and spawns a new one
// after a delay. It never resets the fallen body.
type Respawner struct {
	cfg    RespawnConfig
	spawn  SpawnFunc
	logger zerolog.Logger

	current Mountable
	pending bool
	waited  float64
	count   int

	// OnSpawn is called with every entity the respawner mounts
	OnSpawn func(Mountable)
	// OnDespawn is called right after a fallen entity is despawned
	OnDespawn func()
}

// NewRespawner creates a respawner. Call Start to mount the first entity.
func NewRespawner(cfg RespawnConfig, spawn SpawnFunc, logger zerolog.Logger) *Respawner {
	return &Respawner{
		cfg:    cfg,
		spawn:  spawn,
		logger: logger.With().Str("component", "respawn").Logger(),
	}
}

// Start spawns the first entity
func (r *Respawner) Start() error {
	return r.mount()
}

func (r *Respawner) mount() error {
	e, err := r.spawn()
	if err != nil {
		return fmt.Errorf("spawn vehicle: %w", err)
	}
	r.current = e
	r.pending = false
	r.waited = 0
	if r.OnSpawn != nil {
		r.OnSpawn(e)
	}
	return nil
}

// Current returns the mounted entity, or nil while waiting to respawn
func (r *Respawner) Current() Mountable {
	return r.current
}

// Pending reports whether a respawn is scheduled
func (r *Respawner) Pending() bool {
	return r.pending
}

// Respawns returns how many times a fallen vehicle has been replaced
func (r *Respawner) Respawns() int {
	return r.count
}

// Update checks the mounted chassis and advances a pending respawn by dt.
// It reports true on the call that mounts a replacement. Run it outside the
// physics step so the world is not mutated mid-step.
func (r *Respawner) Update(dt float64) (bool, error) {
	if r.pending {
		r.waited += dt
		if r.waited < r.cfg.Delay {
			return false, nil
		}
		if err := r.mount(); err != nil {
			// Stay pending and retry on the next update.
			r.pending = true
			return false, err
		}
		r.count++
		r.logger.Info().Int("respawns", r.count).Msg("vehicle respawned")
		return true, nil
	}

	if r.current == nil {
		return false, nil
	}
	ch := r.current.Chassis()
	if ch == nil || !ch.Valid() {
		return false, nil
	}
	if y := ch.Translation().Y(); y < r.cfg.ThresholdY {
		r.logger.Info().Float64("y", y).Float64("threshold", r.cfg.ThresholdY).Msg("vehicle fell off the track")
		r.current.Despawn()
		r.current = nil
		r.pending = true
		r.waited = 0
		if r.OnDespawn != nil {
			r.OnDespawn()
		}
	}
	return false, nil
}
