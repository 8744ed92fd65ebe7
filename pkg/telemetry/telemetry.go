// Package telemetry counts simulation events through OpenTelemetry metric
// instruments. Without a configured provider the global meter is a no-op and
// only the local counts remain.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/golangdaddy/driveport/pkg/telemetry"

// Meter returns the meter from the global provider
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Counts is a point-in-time copy of the local counters
type Counts struct {
	Ticks        int64
	SkippedTicks int64
	ContactLoss  int64
	Respawns     int64
}

// Instruments implements the vehicle recorder and controller metrics hooks
type Instruments struct {
	ctx context.Context

	ticks       metric.Int64Counter
	skipped     metric.Int64Counter
	contactLoss metric.Int64Counter
	respawns    metric.Int64Counter

	nTicks, nSkipped, nContactLoss, nRespawns atomic.Int64
}

// New creates the instruments on m
func New(m metric.Meter) (*Instruments, error) {
	in := &Instruments{ctx: context.Background()}

	var err error
	in.ticks, err = m.Int64Counter(
		"vehicle.ticks",
		metric.WithDescription("Physics ticks that updated a mounted vehicle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	in.skipped, err = m.Int64Counter(
		"vehicle.ticks.skipped",
		metric.WithDescription("Physics ticks skipped because the chassis was stale"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped ticks counter: %w", err)
	}

	in.contactLoss, err = m.Int64Counter(
		"vehicle.wheel.contact_lost",
		metric.WithDescription("Wheels that left the ground"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating contact loss counter: %w", err)
	}

	in.respawns, err = m.Int64Counter(
		"vehicle.respawns",
		metric.WithDescription("Vehicles replaced after falling off the track"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating respawn counter: %w", err)
	}

	return in, nil
}

func (in *Instruments) TickCompleted() {
	in.nTicks.Add(1)
	in.ticks.Add(in.ctx, 1)
}

func (in *Instruments) TickSkipped() {
	in.nSkipped.Add(1)
	in.skipped.Add(in.ctx, 1)
}

// StaleTick counts a tick the raycast vehicle itself refused to run
func (in *Instruments) StaleTick() {
	in.TickSkipped()
}

func (in *Instruments) WheelContactLost(wheel int) {
	in.nContactLoss.Add(1)
	in.contactLoss.Add(in.ctx, 1, metric.WithAttributes(attribute.Int("wheel", wheel)))
}

func (in *Instruments) Respawned() {
	in.nRespawns.Add(1)
	in.respawns.Add(in.ctx, 1)
}

// Counts returns the local counter values
func (in *Instruments) Counts() Counts {
	return Counts{
		Ticks:        in.nTicks.Load(),
		SkippedTicks: in.nSkipped.Load(),
		ContactLoss:  in.nContactLoss.Load(),
		Respawns:     in.nRespawns.Load(),
	}
}
