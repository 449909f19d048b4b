package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/store"
)

// Prometheus metrics
var (
	animesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anime_bot_animes_total",
		Help: "Total number of anime detail records in the catalog",
	})

	activeJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anime_bot_active_jobs",
		Help: "Number of registered weekly notification triggers",
	})

	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_bot_notifications_total",
		Help: "Total number of airing notification deliveries",
	}, []string{"status"})

	syncDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "anime_bot_sync_duration_seconds",
		Help:    "Duration of catalog sync runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_bot_errors_total",
		Help: "Total number of errors",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(animesTotal)
	prometheus.MustRegister(activeJobs)
	prometheus.MustRegister(notificationsTotal)
	prometheus.MustRegister(syncDurationSeconds)
	prometheus.MustRegister(errorsTotal)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Server handles HTTP requests for health checks and metrics
type Server struct {
	store     store.Store
	router    *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(store store.Store) *Server {
	s := &Server{
		store:     store,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start begins listening on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth returns JSON with status, database connectivity, and uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	if count, err := s.store.CountDetails(ctx); err == nil {
		animesTotal.Set(float64(count))
	}

	uptime := time.Since(s.startTime).Round(time.Second).String()

	status := "healthy"
	if dbStatus != "healthy" {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   uptime,
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SetAnimeCount updates the animes_total metric
func SetAnimeCount(count int64) {
	animesTotal.Set(float64(count))
}

// SetActiveJobs updates the active_jobs metric
func SetActiveJobs(count int) {
	activeJobs.Set(float64(count))
}

// RecordNotification records a notification delivery metric
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}

// RecordSyncDuration records the duration of a sync run
func RecordSyncDuration(duration time.Duration) {
	syncDurationSeconds.Observe(duration.Seconds())
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.startTime)
}
