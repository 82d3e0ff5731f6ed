package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is the chi front end of the dashboard, used by the lite binary
type App struct {
	router    *chi.Mux
	dashboard *Dashboard
	gatherer  prometheus.Gatherer
	logger    *internal.Logger
}

// NewApp creates the chi application. A nil gatherer serves the default registry on /metrics.
func NewApp(dashboard *Dashboard, gatherer prometheus.Gatherer, logger *internal.Logger) *App {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:    chi.NewRouter(),
		dashboard: dashboard,
		gatherer:  gatherer,
		logger:    logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// ServeHTTP makes App an http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	staticFS := http.FileServer(http.FS(a.dashboard.Renderer().Static()))
	a.router.Handle("/static/*", http.StripPrefix("/static/", staticFS))

	a.router.Get("/", a.handleIndex)
	a.router.Get("/classic", a.handleClassic)
	a.router.Post("/upload", a.handleUpload)
	a.router.Post("/mapping", a.handleMapping)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/uploads", a.handleListUploads)
		r.Get("/uploads/{id}", a.handleGetUpload)
		r.Delete("/uploads/{id}", a.handleDeleteUpload)
		r.Get("/uploads/{id}/mapping", a.handleGetMapping)
		r.Get("/tariffs", a.handleTariffs)
	})

	a.router.Get("/healthz", a.handleHealth)
	a.router.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "index.html", a.dashboard.Page())
}

func (a *App) handleClassic(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "classic.html", a.dashboard.Page())
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	a.dashboard.limitBody(w, r)
	async := isAsync(r)

	req, closeFile, err := uploadRequest(r)
	if err != nil {
		a.renderUploadError(w, async, nil, err)
		return
	}
	defer closeFile()

	result, u, err := a.dashboard.Upload(r.Context(), req)
	if err != nil {
		a.renderUploadError(w, async, u, err)
		return
	}

	if async {
		a.render(w, http.StatusOK, "upload_result.html", result)
		return
	}
	page := a.dashboard.Page()
	page.Result = result
	a.render(w, http.StatusOK, "classic.html", page)
}

func (a *App) renderUploadError(w http.ResponseWriter, async bool, u *upload.Upload, err error) {
	a.logger.Warn("[UploadHandler] Upload failed: %v", err)
	view := a.dashboard.ErrorView(u, err)
	if async {
		a.render(w, view.Status, "upload_error.html", view)
		return
	}
	page := a.dashboard.Page()
	page.Error = view
	a.render(w, view.Status, "classic.html", page)
}

func (a *App) handleMapping(w http.ResponseWriter, r *http.Request) {
	var (
		form MappingForm
		view *MappingView
	)
	err := binding.Form.Bind(r, &form)
	if err != nil {
		err = errors.InvalidInput("Select an uploaded file before saving the mapping")
	} else {
		view, err = a.dashboard.SaveMapping(r.Context(), form)
	}
	if err != nil {
		a.logger.Warn("[MappingHandler] Mapping rejected: %v", err)
	}

	if !isAsync(r) {
		a.render(w, mappingStatus(err), "classic.html", a.dashboard.MappingPage(r.Context(), form, view, err))
		return
	}
	if err != nil {
		errView := a.dashboard.MappingErrorView(err)
		a.render(w, errView.Status, "upload_error.html", errView)
		return
	}
	a.render(w, http.StatusOK, "mapping_saved.html", view)
}

func (a *App) handleListUploads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	uploads, err := a.dashboard.ListUploads(r.Context(), limit, offset)
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uploads": uploads, "count": len(uploads)})
}

func (a *App) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	u, err := a.dashboard.GetUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *App) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.dashboard.DeleteUpload(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := a.dashboard.GetMapping(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) handleTariffs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dashboard.Catalog())
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (a *App) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("[APIHandler] %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, newAPIError(err))
}

// render writes a template through the shared renderer
func (a *App) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.dashboard.Renderer().Render(&buf, name, data); err != nil {
		a.logger.Error("[App] Template error for %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
