package locate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/metrics"
)

// Locator applies Options to a Probe: it answers from the cache when a
// fresh enough position exists, bounds the probe by Timeout and
// classifies every failure as an *Error.
type Locator struct {
	probe Probe
	cache PositionCache
	now   func() time.Time
}

// NewLocator wraps probe. cache may be nil.
func NewLocator(probe Probe, cache PositionCache) *Locator {
	return &Locator{probe: probe, cache: cache, now: time.Now}
}

// Locate implements Probe.
func (l *Locator) Locate(ctx context.Context, opts Options) (Position, error) {
	key := RequesterFrom(ctx)
	if key == "" {
		key = "local"
	}

	if l.cache != nil && opts.MaximumAge > 0 {
		p, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("locate: cache read failed", zap.Error(err))
		}
		fresh := ok && l.now().Sub(p.Timestamp) <= opts.MaximumAge
		metrics.ObservePositionCache(fresh)
		if fresh {
			metrics.ObserveLocate("cached")
			return p, nil
		}
	}

	probeCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	p, err := l.probe.Locate(probeCtx, opts)
	if err == nil && probeCtx.Err() != nil {
		err = probeCtx.Err()
	}
	if err != nil {
		le := Classify(err)
		if le.Code == CodeUnknown && probeCtx.Err() == context.DeadlineExceeded {
			le = NewError(CodeTimeout, err)
		}
		metrics.ObserveLocate(le.Code.String())
		zap.L().Info("locate: probe failed", zap.String("code", le.Code.String()), zap.Error(err))
		return Position{}, le
	}

	if p.Timestamp.IsZero() {
		p.Timestamp = l.now()
	}
	if l.cache != nil && opts.MaximumAge > 0 {
		if err := l.cache.Set(ctx, key, p, opts.MaximumAge); err != nil {
			zap.L().Warn("locate: cache write failed", zap.Error(err))
		}
	}
	metrics.ObserveLocate("ok")
	return p, nil
}
