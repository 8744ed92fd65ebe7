// Package vehicle spawns and despawns drivable cars: a chassis body in a world
// plus the raycast vehicle that drives it.
package vehicle

import (
	"fmt"

	"github.com/golangdaddy/driveport/pkg/models/car"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/golangdaddy/driveport/pkg/raycast"
	"github.com/rs/zerolog"
)

// World is a physics world that bodies can be added to and removed from
type World interface {
	physics.World
	AddBody(b *physics.Body)
	RemoveBody(b *physics.Body)
}

// Entity is one spawned car. Renderers look wheel poses up by index.
type Entity struct {
	Preset *car.Car

	world   World
	body    *physics.Body
	raycast *raycast.Vehicle
	logger  zerolog.Logger
}

// Spawn creates the chassis body in world, builds the raycast vehicle and adds
// the preset's wheels. Nothing is left in the world if it fails.
func Spawn(world World, preset *car.Car, logger zerolog.Logger, opts ...raycast.Option) (*Entity, error) {
	if preset == nil {
		return nil, fmt.Errorf("spawn: nil preset")
	}
	logger = logger.With().Str("car", preset.Name()).Logger()

	body, err := physics.NewBody(preset.BodyOptions())
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", preset.Name(), err)
	}
	world.AddBody(body)

	opts = append([]raycast.Option{raycast.WithLogger(logger)}, opts...)
	rv, err := raycast.New(world, body, raycast.DefaultAxes, opts...)
	if err != nil {
		world.RemoveBody(body)
		return nil, fmt.Errorf("spawn %s: %w", preset.Name(), err)
	}

	for i := range preset.WheelPositions {
		wo, err := preset.WheelOptions(i)
		if err == nil {
			_, err = rv.AddWheel(wo)
		}
		if err != nil {
			world.RemoveBody(body)
			return nil, fmt.Errorf("spawn %s: wheel %d: %w", preset.Name(), i, err)
		}
	}

	logger.Debug().
		Int("wheels", rv.NumWheels()).
		Float64("x", preset.SpawnPosition.X()).
		Float64("y", preset.SpawnPosition.Y()).
		Float64("z", preset.SpawnPosition.Z()).
		Msg("vehicle spawned")

	return &Entity{
		Preset:  preset,
		world:   world,
		body:    body,
		raycast: rv,
		logger:  logger,
	}, nil
}

// Despawn removes the chassis from the world. The raycast vehicle sees a stale
// chassis from then on. Calling it twice is harmless.
func (e *Entity) Despawn() {
	if !e.body.Valid() {
		return
	}
	e.world.RemoveBody(e.body)
	e.logger.Debug().Msg("vehicle despawned")
}

// Alive reports whether the entity is still in its world
func (e *Entity) Alive() bool {
	return e.body.Valid()
}

// Chassis returns the chassis body handle
func (e *Entity) Chassis() physics.RigidBody {
	return e.body
}

// Body returns the concrete chassis body
func (e *Entity) Body() *physics.Body {
	return e.body
}

// Raycast returns the vehicle simulation driving this entity
func (e *Entity) Raycast() *raycast.Vehicle {
	return e.raycast
}

// Wheels returns the number of wheels
func (e *Entity) Wheels() int {
	return e.raycast.NumWheels()
}

// WheelPose returns wheel i's world transform from the last update
func (e *Entity) WheelPose(i int) (raycast.Transform, bool) {
	w, ok := e.raycast.Wheel(i)
	if !ok {
		return raycast.Transform{}, false
	}
	return w.WorldTransform, true
}
