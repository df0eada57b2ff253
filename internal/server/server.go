// Package server exposes the explorer over a JSON HTTP API. Every mutating
// endpoint answers with the resulting view so a front end can redraw from
// one response.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/map-explorer/internal/explorer"
	"github.com/sells-group/map-explorer/internal/locate"
	"github.com/sells-group/map-explorer/internal/metrics"
	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/scene"
	"github.com/sells-group/map-explorer/pkg/geocode"
)

// Explorer is the controller surface the API drives.
type Explorer interface {
	Filter(query string, category model.Category) model.ResultSet
	SearchAddress(ctx context.Context, text string) (*model.LocationRecord, error)
	Locate(ctx context.Context) (*model.LocationRecord, error)
	Select(id string) (*model.LocationRecord, error)
	InspectPoint(ctx context.Context, lat, lng float64) (model.AddressInfo, error)
	FitResults() bool
	Read(fn func(explorer.State))
}

// Server serves one explorer session and the scene it draws into.
type Server struct {
	exp        Explorer
	scene      *scene.Scene
	categories []model.Category
	origins    []string
}

// New creates a Server. categories feeds the category selector; origins
// lists allowed CORS origins.
func New(exp Explorer, sc *scene.Scene, categories []model.Category, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{exp: exp, scene: sc, categories: categories, origins: origins}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Post("/locations", s.handleLocations)
		r.Get("/locations.geojson", s.handleGeoJSON)
		r.Get("/categories", s.handleCategories)
		r.Get("/inspect", s.handleInspect)
		r.Post("/search", s.handleSearch)
		r.Post("/locate", s.handleLocate)
		r.Post("/select/{id}", s.handleSelect)
		r.Post("/fit", s.handleFit)
	})
	return r
}

// View is the response body of every explorer endpoint.
type View struct {
	scene.Snapshot
	Results  model.ResultSet       `json:"results"`
	Selected string                `json:"selected,omitempty"`
	Busy     []string              `json:"busy,omitempty"`
	Record   *model.LocationRecord `json:"record,omitempty"`
	Address  *model.AddressInfo    `json:"address,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// view reads the scene while the explorer state is locked so the two
// agree.
func (s *Server) view() View {
	var v View
	s.exp.Read(func(st explorer.State) {
		v.Snapshot = s.scene.Snapshot()
		v.Results = st.Results
		v.Selected = st.Selected
		v.Busy = st.Busy
	})
	return v
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

type filterRequest struct {
	Query    string         `json:"query"`
	Category model.Category `json:"category"`
}

// handleLocations replaces the displayed results, so it is a POST. An
// empty body shows the whole store.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.exp.Filter(req.Query, req.Category)
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	var rs model.ResultSet
	s.exp.Read(func(st explorer.State) { rs = st.Results })

	body, err := scene.FeatureCollection(rs)
	if err != nil {
		zap.L().Error("server: encode geojson", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not encode locations"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type categoryOption struct {
	Value string     `json:"value"`
	Label string     `json:"label"`
	Icon  model.Icon `json:"icon"`
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	out := make([]categoryOption, 0, len(s.categories)+1)
	out = append(out, categoryOption{Value: string(model.CategoryAll), Label: model.CategoryAll.Label(), Icon: model.FallbackIcon})
	for _, c := range s.categories {
		out = append(out, categoryOption{Value: string(c), Label: c.Label(), Icon: model.IconFor(c)})
	}
	writeJSON(w, http.StatusOK, out)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.exp.SearchAddress(r.Context(), req.Query)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	v := s.view()
	v.Record = rec
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	ctx := locate.WithRequester(r.Context(), clientIP(r))
	rec, err := s.exp.Locate(ctx)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	v := s.view()
	v.Record = rec
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	rec, err := s.exp.Select(chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	v := s.view()
	v.Record = rec
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		s.writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}

	addr, err := s.exp.InspectPoint(r.Context(), lat, lng)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	v := s.view()
	v.Address = &addr
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFit(w http.ResponseWriter, _ *http.Request) {
	if !s.exp.FitResults() {
		s.writeError(w, http.StatusConflict, "no locations to frame")
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		zap.L().Warn("server: request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeError(w, status, msg)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	v := s.view()
	v.Error = msg
	writeJSON(w, status, v)
}

// classify maps an explorer error to a status code and the message shown
// to the user.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, explorer.ErrControlBusy):
		return http.StatusConflict, "request already in progress"
	case errors.Is(err, explorer.ErrSuperseded):
		return http.StatusConflict, "superseded by a newer request"
	case errors.Is(err, explorer.ErrNotFound):
		return http.StatusNotFound, "location not found"
	case errors.Is(err, explorer.ErrInvalidCoordinates):
		return http.StatusBadRequest, "coordinates out of range"
	}

	var le *locate.Error
	if errors.As(err, &le) {
		switch le.Code {
		case locate.CodePermissionDenied:
			return http.StatusForbidden, le.Message()
		case locate.CodeTimeout:
			return http.StatusGatewayTimeout, le.Message()
		default:
			return http.StatusServiceUnavailable, le.Message()
		}
	}

	var ge *geocode.Error
	if errors.As(err, &ge) {
		switch ge.Kind {
		case geocode.KindInput:
			return http.StatusBadRequest, ge.Reason
		case geocode.KindNoResults:
			return http.StatusNotFound, "Search failed: " + ge.Reason
		default:
			return http.StatusBadGateway, "Search failed: " + ge.Reason
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// clientIP returns the caller address. RealIP has already applied
// X-Forwarded-For and X-Real-IP to RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTP(route, status, elapsed)
		zap.L().Debug("http: request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
