// Package status composes the runtime status record answered by the
// control channel. Build is pure: no IO, no bus, no stored state.
package status

import (
	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/telemetry"
)

// RuntimeStatus is one independently consistent view of the daemon.
type RuntimeStatus struct {
	Metrics             telemetry.Metrics `json:"metrics"`
	Health              bus.HealthStatus  `json:"health"`
	State               State             `json:"state"`
	SnapshotTimestampMS uint64            `json:"snapshot_timestamp_ms"`
}

// Build composes a RuntimeStatus from snapshots taken by the caller.
func Build(metrics telemetry.Metrics, health bus.HealthStatus, state State, nowMS uint64) RuntimeStatus {
	return RuntimeStatus{
		Metrics:             metrics,
		Health:              health,
		State:               state,
		SnapshotTimestampMS: nowMS,
	}
}
