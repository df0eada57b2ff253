package locate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// StaticProbe always reports the same position.
type StaticProbe struct {
	Lat      float64
	Lng      float64
	Accuracy float64
	now      func() time.Time
}

// NewStaticProbe returns a probe fixed at lat/lng.
func NewStaticProbe(lat, lng float64) *StaticProbe {
	return &StaticProbe{Lat: lat, Lng: lng, now: time.Now}
}

// Locate implements Probe.
func (p *StaticProbe) Locate(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, Classify(eris.Wrap(err, "static probe"))
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	return Position{Lat: p.Lat, Lng: p.Lng, Accuracy: p.Accuracy, Timestamp: now()}, nil
}

// DisabledProbe models location access switched off: every call is
// permission-denied.
type DisabledProbe struct{}

// Locate implements Probe.
func (DisabledProbe) Locate(context.Context, Options) (Position, error) {
	return Position{}, NewError(CodePermissionDenied, nil)
}
