package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	canteenDomain "github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	canteenService "github.com/reshetovitsme/campus-bot/internal/modules/canteen/service"
	feedService "github.com/reshetovitsme/campus-bot/internal/modules/feed/service"
	menuDomain "github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	menuService "github.com/reshetovitsme/campus-bot/internal/modules/menu/service"
	"github.com/reshetovitsme/campus-bot/internal/shared/config"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	sloghttp "github.com/samber/slog-http"
)

// Server exposes canteen lookups and menu feeds over HTTP
type Server struct {
	cfg            *config.Config
	canteenService *canteenService.Service
	menuService    *menuService.Service
	lookup         *menuService.Lookup
	feedService    *feedService.Service
	logger         *slog.Logger
	server         *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, canteens *canteenService.Service, menu *menuService.Service, lookup *menuService.Lookup, feeds *feedService.Service) *Server {
	return &Server{
		cfg:            cfg,
		canteenService: canteens,
		menuService:    menu,
		lookup:         lookup,
		feedService:    feeds,
		logger:         slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the routes wrapped in logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/canteens", s.handleListCanteens)
	mux.HandleFunc("GET /api/canteens/{canteenID}", s.handleGetCanteen)
	mux.HandleFunc("GET /api/canteens/{canteenID}/days", s.handleListDays)
	mux.HandleFunc("GET /api/lookup", s.handleLookup)
	mux.HandleFunc("GET /rss/{canteenID}", s.handleRSSFeed)

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCanteens(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	canteens, err := s.canteenService.ListCanteens(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canteens)
}

func (s *Server) handleGetCanteen(w http.ResponseWriter, r *http.Request) {
	canteen, err := s.canteenService.GetCanteen(r.Context(), r.PathValue("canteenID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canteen)
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	var start time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := menuDomain.ParseDate(raw)
		if err != nil {
			s.writeError(w, errors.ErrInvalidDate)
			return
		}
		start = parsed
	}

	days, err := s.menuService.ListDays(r.Context(), r.PathValue("canteenID"), start)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.lookup.Resolve(r.Context(), q.Get("canteen"), q.Get("day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRSSFeed(w http.ResponseWriter, r *http.Request) {
	canteenID := r.PathValue("canteenID")

	date, err := menuService.ResolveDayToken(r.URL.Query().Get("day"), s.menuService.Today())
	if err != nil && !stderrors.Is(err, errors.ErrDateInPast) {
		s.writeError(w, err)
		return
	}

	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)
	feed, err := s.feedService.GenerateFeed(r.Context(), canteenID, date, baseURL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func parseFilter(r *http.Request) (*canteenDomain.Filter, error) {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil, nil
	}

	filter := &canteenDomain.Filter{}
	if q.Has("lat") || q.Has("long") || q.Has("dist") {
		values, ok := parseFloats(q.Get("lat"), q.Get("long"), q.Get("dist"))
		if !ok {
			return nil, errors.ErrInvalidArgument
		}
		filter.Near = &canteenDomain.Radius{
			Center:     canteenDomain.Coordinates{Latitude: values[0], Longitude: values[1]},
			DistanceKm: values[2],
		}
	}
	if q.Has("ids") {
		filter.IDs = q["ids"]
	}
	if q.Has("hasCoordinates") {
		has, err := strconv.ParseBool(q.Get("hasCoordinates"))
		if err != nil {
			return nil, errors.ErrInvalidArgument
		}
		filter.HasCoordinates = lo.ToPtr(has)
	}
	return filter, nil
}

func parseFloats(raw ...string) ([]float64, bool) {
	values := make([]float64, 0, len(raw))
	for _, r := range raw {
		f, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, f)
	}
	return values, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidArgument), stderrors.Is(err, errors.ErrInvalidDate):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrNotFound), stderrors.Is(err, errors.ErrNoOpenDayFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrUpstreamUnavailable), stderrors.Is(err, errors.ErrUpstreamMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
