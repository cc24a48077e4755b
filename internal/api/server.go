// Package api serves the launchpad HTTP API: token metadata, presale
// views, positions, activity and a websocket feed of presale snapshots.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"core-launchpad/internal/activity"
	"core-launchpad/internal/cache"
	"core-launchpad/internal/discovery"
	"core-launchpad/internal/observability"
	"core-launchpad/internal/presale"
	"core-launchpad/internal/storage"
)

// Options for creating a Server. Only Metadata is required; routes whose
// dependency is missing answer 503.
type Options struct {
	Metadata storage.TokenMetadataStore
	Reader   *presale.Reader
	Presales *presale.Service
	Tracker  *discovery.Tracker
	Activity *activity.Feed
	Cache    cache.Cache // optional presale-data response cache

	ActivityLimit int
	Logger        *zap.Logger
}

// Server holds the API dependencies and the gin engine.
type Server struct {
	metadata      storage.TokenMetadataStore
	reader        *presale.Reader
	presales      *presale.Service
	tracker       *discovery.Tracker
	activity      *activity.Feed
	cache         cache.Cache
	activityLimit int
	logger        *zap.Logger
	hub           *Hub
	started       time.Time

	engine *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	s := &Server{
		metadata:      opts.Metadata,
		reader:        opts.Reader,
		presales:      opts.Presales,
		tracker:       opts.Tracker,
		activity:      opts.Activity,
		cache:         opts.Cache,
		activityLimit: opts.ActivityLimit,
		logger:        logger,
		started:       time.Now(),
	}
	if s.activityLimit <= 0 {
		s.activityLimit = activity.DefaultLimit
	}
	if s.tracker != nil {
		s.hub = NewHub(s.tracker, logger)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(logger), metrics())
	s.engine = engine
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)
	r.GET("/status", s.status)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api")
	api.POST("/token-metadata", s.saveMetadata)
	api.GET("/token-metadata", s.getMetadata)
	api.GET("/presale-data", s.presaleData)
	api.GET("/presales", s.listPresales)
	api.GET("/presales/featured", s.featuredPresales)
	api.GET("/positions", s.positions)
	api.GET("/activity", s.recentActivity)

	r.GET("/ws/presales", s.serveWS)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	body := gin.H{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.tracker != nil {
		snap := s.tracker.Snapshot()
		body["tracker_ready"] = s.tracker.Ready()
		body["known_presales"] = len(snap.Presales)
		if !snap.RefreshedAt.IsZero() {
			body["last_refresh"] = snap.RefreshedAt.UTC().Format(time.RFC3339)
			body["last_trigger"] = snap.Trigger
		}
	}
	if s.hub != nil {
		body["websocket_clients"] = s.hub.Clients()
	}
	c.JSON(http.StatusOK, body)
}
