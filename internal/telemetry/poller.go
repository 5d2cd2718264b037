// Package telemetry polls the backend's fleet view on a fixed interval.
package telemetry

import (
	"context"
	"errors"
	"log"
	"time"

	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/models"
)

const (
	MasterPath   = "/vehicles/master"
	SnapshotType = "fleet_snapshot"
)

// Sink receives every successful snapshot.
type Sink func(models.FleetSnapshot)

// Poller fetches the fleet through one session's gateway client. Each
// caller runs its own poller; results are not shared between users.
type Poller struct {
	client   *gateway.Client
	interval time.Duration
	sink     Sink
}

func NewPoller(client *gateway.Client, interval time.Duration, sink Sink) *Poller {
	return &Poller{client: client, interval: interval, sink: sink}
}

// Poll performs a single fetch.
func (p *Poller) Poll(ctx context.Context) (models.FleetSnapshot, error) {
	var vehicles []models.Vehicle
	if _, err := p.client.Get(ctx, MasterPath, &vehicles); err != nil {
		return models.FleetSnapshot{}, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return models.FleetSnapshot{
		Type:      SnapshotType,
		Vehicles:  vehicles,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Run polls immediately and then every interval until ctx is done or the
// session is invalidated. Other failures are logged and the next tick
// tries again.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		snap, err := p.Poll(ctx)
		switch {
		case err == nil:
			p.sink(snap)
		case errors.Is(err, gateway.ErrSessionInvalidated):
			log.Printf("🔐 Telemetry stopped: %v", err)
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			log.Printf("⚠️  Telemetry poll failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
