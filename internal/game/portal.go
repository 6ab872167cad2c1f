package game

import (
	"time"

	"github.com/realmgo/server/internal/tilemap"
)

// VaultTarget is the sentinel portal target: entry resolves to the
// entering account's private vault instance.
const VaultTarget = "vault"

// Portal links to another instance. A zero ExpiresAt means permanent.
type Portal struct {
	Entity
	TargetInstance string
	TargetKind     string
	DisplayName    string
	ExpiresAt      time.Time
	SpawnedAt      time.Time
	Visible        bool
}

// NewPortal creates a portal. expiresAt may be the zero time.
func NewPortal(pos tilemap.Vec2, targetInstance, targetKind, name string, expiresAt, now time.Time) *Portal {
	return &Portal{
		Entity:         newEntity(pos, 0.6),
		TargetInstance: targetInstance,
		TargetKind:     targetKind,
		DisplayName:    name,
		ExpiresAt:      expiresAt,
		SpawnedAt:      now,
		Visible:        true,
	}
}

// blinkPeriod picks the blink cadence for the remaining lifetime.
// Steady when >=30s remain, then 500ms, 250ms, and 100ms tiers.
func blinkPeriod(remaining time.Duration) time.Duration {
	switch {
	case remaining >= 30*time.Second:
		return 0
	case remaining >= 10*time.Second:
		return 500 * time.Millisecond
	case remaining >= 3*time.Second:
		return 250 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// update advances blink visibility and self-removes at expiry.
// Visibility alternates on even/odd buckets of elapsed time since
// spawn, so the cadence is stable across ticks.
func (po *Portal) update(now time.Time) {
	if po.ExpiresAt.IsZero() {
		po.Visible = true
		return
	}
	if !now.Before(po.ExpiresAt) {
		po.Remove = true
		return
	}
	period := blinkPeriod(po.ExpiresAt.Sub(now))
	if period == 0 {
		po.Visible = true
		return
	}
	bucket := now.Sub(po.SpawnedAt) / period
	po.Visible = bucket%2 == 0
}
