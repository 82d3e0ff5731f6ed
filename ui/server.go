package ui

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"
	"chillerdash/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the gin front end of the dashboard
type Server struct {
	router    *gin.Engine
	dashboard *Dashboard
	gatherer  prometheus.Gatherer
	logger    *internal.Logger
}

// NewServer creates the gin server. A nil gatherer serves the default registry on /metrics.
func NewServer(dashboard *Dashboard, gatherer prometheus.Gatherer, logger *internal.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:    gin.New(),
		dashboard: dashboard,
		gatherer:  gatherer,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the router for use in an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestLogger(s.logger), gin.Recovery())
	s.router.StaticFS("/static", http.FS(s.dashboard.Renderer().Static()))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/classic", s.handleClassic)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/mapping", s.handleMapping)

	api := s.router.Group("/api")
	{
		api.GET("/uploads", s.handleListUploads)
		api.GET("/uploads/:id", s.handleGetUpload)
		api.DELETE("/uploads/:id", s.handleDeleteUpload)
		api.GET("/uploads/:id/mapping", s.handleGetMapping)
		api.GET("/tariffs", s.handleTariffs)
	}

	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

func (s *Server) handleIndex(c *gin.Context) {
	s.render(c, http.StatusOK, "index.html", s.dashboard.Page())
}

func (s *Server) handleClassic(c *gin.Context) {
	s.render(c, http.StatusOK, "classic.html", s.dashboard.Page())
}

// handleUpload answers the page script with a fragment and plain form posts with the classic page
func (s *Server) handleUpload(c *gin.Context) {
	s.dashboard.limitBody(c.Writer, c.Request)
	async := isAsync(c.Request)

	req, closeFile, err := uploadRequest(c.Request)
	if err != nil {
		s.renderUploadError(c, async, nil, err)
		return
	}
	defer closeFile()

	result, u, err := s.dashboard.Upload(c.Request.Context(), req)
	if err != nil {
		s.renderUploadError(c, async, u, err)
		return
	}

	if async {
		s.render(c, http.StatusOK, "upload_result.html", result)
		return
	}
	page := s.dashboard.Page()
	page.Result = result
	s.render(c, http.StatusOK, "classic.html", page)
}

func (s *Server) renderUploadError(c *gin.Context, async bool, u *upload.Upload, err error) {
	s.logger.Warn("[UploadHandler] Upload failed: %v", err)
	view := s.dashboard.ErrorView(u, err)
	if async {
		s.render(c, view.Status, "upload_error.html", view)
		return
	}
	page := s.dashboard.Page()
	page.Error = view
	s.render(c, view.Status, "classic.html", page)
}

// handleMapping answers the page script with a fragment and plain form posts with the classic page
func (s *Server) handleMapping(c *gin.Context) {
	var (
		form MappingForm
		view *MappingView
	)
	err := c.ShouldBind(&form)
	if err != nil {
		err = errors.InvalidInput("Select an uploaded file before saving the mapping")
	} else {
		view, err = s.dashboard.SaveMapping(c.Request.Context(), form)
	}
	if err != nil {
		s.logger.Warn("[MappingHandler] Mapping rejected: %v", err)
	}

	if !isAsync(c.Request) {
		s.render(c, mappingStatus(err), "classic.html", s.dashboard.MappingPage(c.Request.Context(), form, view, err))
		return
	}
	if err != nil {
		errView := s.dashboard.MappingErrorView(err)
		s.render(c, errView.Status, "upload_error.html", errView)
		return
	}
	s.render(c, http.StatusOK, "mapping_saved.html", view)
}

func (s *Server) handleListUploads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	uploads, err := s.dashboard.ListUploads(c.Request.Context(), limit, offset)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads, "count": len(uploads)})
}

func (s *Server) handleGetUpload(c *gin.Context) {
	u, err := s.dashboard.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleDeleteUpload(c *gin.Context) {
	if err := s.dashboard.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		s.apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetMapping(c *gin.Context) {
	m, err := s.dashboard.GetMapping(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleTariffs(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.Catalog())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) apiError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[APIHandler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, newAPIError(err))
}

// render writes a template through the shared renderer
func (s *Server) render(c *gin.Context, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.dashboard.Renderer().Render(&buf, name, data); err != nil {
		s.logger.Error("[Server] Template error for %s: %v", name, err)
		c.String(http.StatusInternalServerError, "Template error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
