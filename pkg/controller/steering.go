package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// headingMinSpeed is the horizontal speed below which the velocity is too
// noisy to give a heading and the chassis axis is used instead.
const headingMinSpeed = 0.1

// RampSteering moves steer one step toward ±max while a direction is held
// (dir > 0 is left) and one step back toward zero when released, stopping at
// zero rather than overshooting.
func RampSteering(steer float64, dir int, step, max float64) float64 {
	switch {
	case dir > 0:
		return math.Min(steer+step, max)
	case dir < 0:
		return math.Max(steer-step, -max)
	}
	if math.Abs(steer) <= step {
		return 0
	}
	return steer - math.Copysign(step, steer)
}

// NormalizeDegrees wraps an angle into [-180, 180]
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a < -180 {
		a += 360
	}
	return a
}

// ScreenYaw converts a world direction into the screen-space angle used by the
// joystick. The drive camera looks down -X, so -Z is screen right and -X is
// screen up.
func ScreenYaw(d mgl64.Vec3) float64 {
	return mgl64.RadToDeg(math.Atan2(-d.X(), -d.Z()))
}

func (c *Controller) keyboardCommand(in Input) Command {
	dir := 0
	if in.Left {
		dir++
	}
	if in.Right {
		dir--
	}
	c.steering = RampSteering(c.steering, dir, c.cfg.StepSteer, c.cfg.MaxSteer)

	var engine float64
	if in.Forward {
		engine += c.cfg.MaxForce
	}
	if in.Backward {
		engine -= c.cfg.MaxForce
	}

	var brake float64
	if in.Brake {
		brake = c.cfg.MaxBrake
	}
	return Command{Steering: c.steering, Engine: engine, Brake: brake}
}

// heading returns the screen-space angle the vehicle is travelling toward and
// the chassis speed along its own forward axis.
func (c *Controller) heading() (float64, float64) {
	chassis := c.vehicle.Chassis()
	forward := c.vehicle.ChassisForward()
	vel := chassis.LinearVelocity()
	forwardSpeed := vel.Dot(forward)

	flat := mgl64.Vec3{vel.X(), 0, vel.Z()}
	if flat.Len() < headingMinSpeed || forwardSpeed < 0 {
		return ScreenYaw(forward), forwardSpeed
	}
	return ScreenYaw(flat), forwardSpeed
}

// joystickCommand steers toward the world direction the stick points at and
// infers braking when the stick is released or pulled against the motion.
func (c *Controller) joystickCommand(js Joystick) Command {
	engine := c.cfg.MaxForce * mgl64.Clamp(js.Distance, 0, 1)
	heading, forwardSpeed := c.heading()
	speed := c.vehicle.Chassis().LinearVelocity().Len()

	if engine == 0 {
		c.steering = RampSteering(c.steering, 0, c.cfg.StepSteer, c.cfg.MaxSteer)
		var brake float64
		if speed > c.cfg.AutoBrakeSpeed {
			brake = c.cfg.MaxBrake
		}
		return Command{Steering: c.steering, Brake: brake}
	}

	delta := NormalizeDegrees(js.AngleDegrees - heading)
	steerRange := c.cfg.JoystickSteerRange
	if steerRange <= 0 {
		steerRange = 45
	}
	c.steering = mgl64.Clamp(delta/steerRange*c.cfg.MaxSteer, -c.cfg.MaxSteer, c.cfg.MaxSteer)

	cmd := Command{Steering: c.steering, Engine: engine}
	if math.Abs(delta) > 90 && forwardSpeed > c.cfg.AutoBrakeSpeed {
		cmd.Engine = 0
		cmd.Brake = c.cfg.MaxBrake
	}
	return cmd
}
