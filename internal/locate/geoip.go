package locate

import (
	"context"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CityReader is the lookup half of *geoip2.Reader.
type CityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// GeoIPProbe locates the requester by its network address using a
// MaxMind city database.
type GeoIPProbe struct {
	reader  CityReader
	closeFn func() error
	now     func() time.Time
}

// OpenGeoIP opens the database at path.
func OpenGeoIP(path string) (*GeoIPProbe, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoip: open %s", path)
	}
	return &GeoIPProbe{reader: r, closeFn: r.Close, now: time.Now}, nil
}

// NewGeoIPProbe wraps an already opened reader.
func NewGeoIPProbe(r CityReader) *GeoIPProbe {
	return &GeoIPProbe{reader: r, now: time.Now}
}

// Close releases the database.
func (p *GeoIPProbe) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

// Locate implements Probe. Loopback, private and unparsable addresses
// have no position.
func (p *GeoIPProbe) Locate(ctx context.Context, opts Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, Classify(err)
	}

	addr := RequesterFrom(ctx)
	ip := net.ParseIP(addr)
	if ip == nil {
		return Position{}, NewError(CodePositionUnavailable, eris.Errorf("geoip: unparsable address %q", addr))
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return Position{}, NewError(CodePositionUnavailable, eris.Errorf("geoip: non-routable address %s", ip))
	}

	rec, err := p.reader.City(ip)
	if err != nil {
		return Position{}, NewError(CodeUnknown, eris.Wrap(err, "geoip: lookup"))
	}
	if rec == nil || (rec.Location.Latitude == 0 && rec.Location.Longitude == 0) {
		return Position{}, NewError(CodePositionUnavailable, eris.Errorf("geoip: no location for %s", ip))
	}

	if opts.EnableHighAccuracy {
		zap.L().Debug("geoip: high accuracy requested, using city-level fix", zap.String("ip", ip.String()))
	}

	return Position{
		Lat:       rec.Location.Latitude,
		Lng:       rec.Location.Longitude,
		Accuracy:  float64(rec.Location.AccuracyRadius) * 1000,
		Timestamp: p.now(),
	}, nil
}
