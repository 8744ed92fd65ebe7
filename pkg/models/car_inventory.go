package models

import (
	"strings"

	"github.com/golangdaddy/driveport/pkg/models/car"
)

// DefaultCar is the preset spawned when none is configured
const DefaultCar = "BMW E30"

// CarInventory manages the collection of available cars
var CarInventory = &carInventory{
	cars: []*car.Car{
		car.NewCar("BMW", "E30", 1988),
		rally(car.NewCar("Lancia", "Delta Integrale", 1992)),
		heavy(car.NewCar("Volvo", "240 Estate", 1990)),
		stiff(car.NewCar("Porsche", "964", 1991)),
	},
}

type carInventory struct {
	cars []*car.Car
}

// GetAllCars returns all available cars
func (ci *carInventory) GetAllCars() []*car.Car {
	return ci.cars
}

// Find returns the car whose name matches, ignoring case
func (ci *carInventory) Find(name string) (*car.Car, bool) {
	for _, c := range ci.cars {
		if strings.EqualFold(c.Name(), name) {
			return c, true
		}
	}
	return nil, false
}

// rally grips harder and lets the tail slide less
func rally(c *car.Car) *car.Car {
	c.Tyres.FrictionSlip = 1.8
	c.Tyres.SideAcceleration = 4
	c.Suspension.MaxTravel = 0.4
	c.Suspension.DampingCompression = 3.5
	return c
}

// heavy is a long, soft, slow estate
func heavy(c *car.Car) *car.Car {
	c.Mass = 65
	c.HalfExtents[0] = 2.6
	c.Suspension.Stiffness = 26
	c.Tyres.ForwardAcceleration = 4
	c.Brakes.StoppingPower = 0.8
	return c
}

// stiff sits low on short springs
func stiff(c *car.Car) *car.Car {
	c.Suspension.RestLength = 0.25
	c.Suspension.Stiffness = 40
	c.Suspension.DampingCompression = 5
	c.Tyres.RollInfluence = 0.005
	c.Brakes.Type = "Performance"
	c.Brakes.StoppingPower = 1.3
	return c
}
