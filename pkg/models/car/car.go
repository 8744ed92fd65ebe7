package car

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/golangdaddy/driveport/pkg/raycast"
)

// Brakes represents the braking system of a car
type Brakes struct {
	Type          string  `json:"type"`
	StoppingPower float64 `json:"stopping_power"` // scales the controller's max brake
}

// Suspension is shared by every wheel of a car
type Suspension struct {
	RestLength         float64 `json:"rest_length"`
	Stiffness          float64 `json:"stiffness"`
	MaxTravel          float64 `json:"max_travel"`
	MaxForce           float64 `json:"max_force"`
	DampingCompression float64 `json:"damping_compression"`
	DampingRelaxation  float64 `json:"damping_relaxation"`
}

// Tyres is the grip model shared by every wheel of a car
type Tyres struct {
	Radius                       float64 `json:"radius"`
	FrictionSlip                 float64 `json:"friction_slip"`
	SideFrictionStiffness        float64 `json:"side_friction_stiffness"`
	RollInfluence                float64 `json:"roll_influence"`
	CustomSlidingRotationalSpeed float64 `json:"custom_sliding_rotational_speed"`
	UseCustomSlidingRotation     bool    `json:"use_custom_sliding_rotation"`
	ForwardAcceleration          float64 `json:"forward_acceleration"`
	SideAcceleration             float64 `json:"side_acceleration"`
}

// Car is a drivable preset: chassis body, wheel layout and tuning
type Car struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`

	Mass           float64    `json:"mass"` // chassis mass
	HalfExtents    mgl64.Vec3 `json:"half_extents"`
	ColliderOffset mgl64.Vec3 `json:"collider_offset"`
	SpawnPosition  mgl64.Vec3 `json:"spawn_position"`
	SpawnYaw       float64    `json:"spawn_yaw"` // radians about +Y

	WheelDirection mgl64.Vec3   `json:"wheel_direction"`
	WheelAxle      mgl64.Vec3   `json:"wheel_axle"`
	WheelPositions []mgl64.Vec3 `json:"wheel_positions"` // front pair first, then the driven pair

	Suspension Suspension `json:"suspension"`
	Tyres      Tyres      `json:"tyres"`
	Brakes     Brakes     `json:"brakes"`
}

// NewCar creates a car with the demo scene's chassis, wheel layout and tuning
func NewCar(make, model string, year int) *Car {
	return &Car{
		Make:           make,
		Model:          model,
		Year:           year,
		Mass:           50,
		HalfExtents:    mgl64.Vec3{2.39, 0.67, 1},
		ColliderOffset: mgl64.Vec3{-0.1, -0.09, 0},
		SpawnPosition:  mgl64.Vec3{-80.9, 4, 0},
		SpawnYaw:       0.2,
		WheelDirection: mgl64.Vec3{0, -1.3, 0},
		WheelAxle:      mgl64.Vec3{0, 0, 1},
		WheelPositions: []mgl64.Vec3{
			{1.45, -0.35, 0.85},
			{1.45, -0.35, -0.85},
			{-1.38, -0.35, 0.85},
			{-1.38, -0.35, -0.85},
		},
		Suspension: Suspension{
			RestLength:         0.3,
			Stiffness:          30,
			MaxTravel:          0.3,
			MaxForce:           100000,
			DampingCompression: 4.4,
			DampingRelaxation:  2.3,
		},
		Tyres: Tyres{
			Radius:                       0.4,
			FrictionSlip:                 1.4,
			SideFrictionStiffness:        1,
			RollInfluence:                0.01,
			CustomSlidingRotationalSpeed: -30,
			UseCustomSlidingRotation:     true,
			ForwardAcceleration:          5,
			SideAcceleration:             3,
		},
		Brakes: Brakes{
			Type:          "Standard",
			StoppingPower: 1,
		},
	}
}

// Name is the make and model, used to pick a preset by name
func (c *Car) Name() string {
	return c.Make + " " + c.Model
}

// BodyOptions describes the chassis rigid body at its spawn pose
func (c *Car) BodyOptions() physics.BodyOptions {
	return physics.BodyOptions{
		Mass:           c.Mass,
		HalfExtents:    c.HalfExtents,
		ColliderOffset: c.ColliderOffset,
		Position:       c.SpawnPosition,
		Rotation:       mgl64.QuatRotate(c.SpawnYaw, mgl64.Vec3{0, 1, 0}),
		Friction:       0.5,
		AngularDamping: 0.5,
	}
}

// WheelOptions builds the raycast options for wheel i
func (c *Car) WheelOptions(i int) (raycast.WheelOptions, error) {
	if i < 0 || i >= len(c.WheelPositions) {
		return raycast.WheelOptions{}, fmt.Errorf("%s has no wheel %d", c.Name(), i)
	}
	return raycast.WheelOptions{
		ChassisConnectionPointLocal:     c.WheelPositions[i],
		DirectionLocal:                  c.WheelDirection,
		AxleLocal:                       c.WheelAxle,
		Radius:                          c.Tyres.Radius,
		SuspensionRestLength:            c.Suspension.RestLength,
		SuspensionStiffness:             c.Suspension.Stiffness,
		MaxSuspensionTravel:             c.Suspension.MaxTravel,
		MaxSuspensionForce:              c.Suspension.MaxForce,
		DampingCompression:              c.Suspension.DampingCompression,
		DampingRelaxation:               c.Suspension.DampingRelaxation,
		FrictionSlip:                    c.Tyres.FrictionSlip,
		SideFrictionStiffness:           c.Tyres.SideFrictionStiffness,
		RollInfluence:                   c.Tyres.RollInfluence,
		CustomSlidingRotationalSpeed:    c.Tyres.CustomSlidingRotationalSpeed,
		UseCustomSlidingRotationalSpeed: c.Tyres.UseCustomSlidingRotation,
		ForwardAcceleration:             c.Tyres.ForwardAcceleration,
		SideAcceleration:                c.Tyres.SideAcceleration,
	}, nil
}
