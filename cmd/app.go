package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/explorer"
	"github.com/sells-group/map-explorer/internal/locate"
	"github.com/sells-group/map-explorer/internal/metrics"
	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/resilience"
	"github.com/sells-group/map-explorer/internal/scene"
	"github.com/sells-group/map-explorer/internal/store"
	"github.com/sells-group/map-explorer/pkg/geocode"
)

// initStore loads the location set from the configured driver.
func initStore(ctx context.Context) (*store.Store, error) {
	var loader store.Loader
	switch cfg.Store.Driver {
	case "builtin":
		loader = store.BuiltinLoader{}
	case "yaml":
		loader = store.YAMLLoader{Path: cfg.Store.Path}
	case "xlsx":
		loader = store.XLSXLoader{Path: cfg.Store.Path}
	case "sqlite":
		loader = store.SQLiteLoader{DSN: cfg.Store.Path}
	case "postgres":
		pg, err := store.NewPostgresLoader(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// The set is read once at startup.
		defer pg.Close()
		loader = pg
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	return store.Load(ctx, loader)
}

func initGeocoder() geocode.Client {
	if cfg.Geocode.APIKey == "" {
		zap.L().Warn("geocode: no API key configured; address search will fail")
	}
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithAPIKey(cfg.Geocode.APIKey),
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second}),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRecorder(metrics.Recorder{}),
	)
}

// initProbe builds the configured position source behind a cache. The
// returned func releases the GeoIP database and the Redis client.
func initProbe() (locate.Probe, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var base locate.Probe
	switch cfg.Locate.Provider {
	case "geoip":
		p, err := locate.OpenGeoIP(cfg.Locate.GeoIPPath)
		if err != nil {
			// Search and display keep working; locate reports that
			// location access is unavailable.
			zap.L().Warn("locate: geoip database unavailable, disabling locate",
				zap.String("path", cfg.Locate.GeoIPPath),
				zap.Error(err),
			)
			base = locate.DisabledProbe{}
			break
		}
		closers = append(closers, func() { _ = p.Close() })
		base = p
	case "static":
		base = locate.NewStaticProbe(cfg.Locate.StaticLat, cfg.Locate.StaticLng)
	case "disabled":
		base = locate.DisabledProbe{}
	default:
		return nil, nil, eris.Errorf("unsupported locate provider: %s", cfg.Locate.Provider)
	}

	var cache locate.PositionCache = locate.NewMemoryCache()
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		cache = locate.NewRedisCache(rdb)
		zap.L().Info("locate: caching positions in redis", zap.String("addr", cfg.Cache.RedisAddr))
	}

	return locate.NewLocator(base, cache), closeAll, nil
}

func locateOptions() locate.Options {
	return locate.Options{
		EnableHighAccuracy: cfg.Locate.HighAccuracy,
		Timeout:            cfg.Locate.Timeout(),
		MaximumAge:         cfg.Locate.MaximumAge(),
	}
}

// session is one explorer wired to its scene.
type session struct {
	Store    *store.Store
	Scene    *scene.Scene
	Explorer *explorer.Explorer

	closeProbe func()
}

// Close stops background work and releases probe resources.
func (s *session) Close() {
	s.Explorer.Close()
	s.Scene.Status.Stop()
	s.closeProbe()
}

func initSession(ctx context.Context) (*session, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	probe, closeProbe, err := initProbe()
	if err != nil {
		return nil, err
	}

	center := model.Coordinates{Lat: cfg.Display.CenterLat, Lng: cfg.Display.CenterLng}
	sc := scene.New(scene.Options{
		Center:    center,
		Zoom:      cfg.Display.InitialZoom,
		StatusTTL: time.Duration(cfg.Display.StatusTTLSecs) * time.Second,
	})

	var breaker *resilience.Breaker
	if cfg.Display.AnnotateAddresses && cfg.Display.AnnotateBreakerThreshold > 0 {
		breaker = resilience.NewBreaker(resilience.BreakerConfig{
			Name:      "popup-annotations",
			Threshold: cfg.Display.AnnotateBreakerThreshold,
			Cooldown:  time.Duration(cfg.Display.AnnotateBreakerCooldownSecs) * time.Second,
			Trips:     geocode.IsServiceFailure,
		})
	}

	exp := explorer.New(st, initGeocoder(), probe, explorer.Views{
		Map:      sc.Map,
		List:     sc.List,
		Status:   sc.Status,
		Controls: sc.Controls,
		Coords:   sc.Coords,
	}, explorer.Config{
		Center:            center,
		InitialZoom:       cfg.Display.InitialZoom,
		FocusZoom:         cfg.Display.FocusZoom,
		PinTTL:            time.Duration(cfg.Display.CurrentPinTTLSecs) * time.Second,
		AnnotateAddresses: cfg.Display.AnnotateAddresses,
		LocateMode:        cfg.Locate.Mode,
		LocateOptions:     locateOptions(),
		AnnotationBreaker: breaker,
	})

	return &session{Store: st, Scene: sc, Explorer: exp, closeProbe: closeProbe}, nil
}
