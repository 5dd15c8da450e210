package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AleksKim19/testvideospkbot/internal/catalog"
	"github.com/AleksKim19/testvideospkbot/internal/metrics"
	"github.com/AleksKim19/testvideospkbot/internal/services"
)

type Options struct {
	Production      bool
	VideosDir       string
	VideosURLPrefix string

	// PublicDir holds the web app; requests no route matches are served
	// from it when it exists.
	PublicDir string
}

type Server struct {
	router    *gin.Engine
	store     *catalog.Store
	refresher *services.Refresher
	opts      Options
	log       zerolog.Logger
}

func NewServer(store *catalog.Store, refresher *services.Refresher, opts Options, log zerolog.Logger) *Server {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.VideosURLPrefix == "" {
		opts.VideosURLPrefix = "/videos"
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics(), cors.Default())

	s := &Server{
		router:    router,
		store:     store,
		refresher: refresher,
		opts:      opts,
		log:       log.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/videos", s.listVideos)
		api.GET("/video/:id", s.getVideo)
		api.GET("/refresh", s.refresh)
	}

	s.router.Static(s.opts.VideosURLPrefix, s.opts.VideosDir)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.NoRoute(s.serveWebApp)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) listVideos(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List(c.Query("city")))
}

func (s *Server) getVideo(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video ID"})
		return
	}

	video, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, video)
}

func (s *Server) refresh(c *gin.Context) {
	res, err := s.refresher.RefreshNow(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("on-demand refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "video list refreshed",
		"count":   res.Total,
	})
}

func (s *Server) serveWebApp(c *gin.Context) {
	if s.opts.PublicDir == "" || c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	name := filepath.Join(s.opts.PublicDir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
	}
	if _, err := os.Stat(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.File(name)
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
