// Package ui serves the chiller energy dashboard: the upload pages, the
// fragments the upload form injects, and a small JSON API over uploads,
// column mappings and tariffs. The gin Server and the chi App expose the
// same routes over one Dashboard.
package ui

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	"chillerdash/domain/tariff"
	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"
	"chillerdash/ports"
)

const (
	pageTitle         = "Chiller Energy Dashboard"
	defaultListLimit  = 50
	maxListLimit      = 500
	multipartOverhead = 1 << 20
)

// UploadProcessor is the part of the upload pipeline the web surface drives
type UploadProcessor interface {
	Process(ctx context.Context, req *upload.Request) (*upload.Upload, error)
	Delete(ctx context.Context, id core.ID) error
}

// DashboardConfig holds web surface settings
type DashboardConfig struct {
	MaxUploadBytes int64
}

// Dashboard holds what both HTTP front ends need to answer a request
type Dashboard struct {
	processor UploadProcessor
	uploads   ports.UploadRepository
	mappings  ports.MappingRepository
	catalog   *tariff.Catalog
	renderer  *Renderer
	config    DashboardConfig
	logger    *internal.Logger
}

// NewDashboard wires the dashboard and parses its templates
func NewDashboard(processor UploadProcessor, uploads ports.UploadRepository, mappings ports.MappingRepository,
	catalog *tariff.Catalog, config DashboardConfig, logger *internal.Logger) (*Dashboard, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Dashboard{
		processor: processor,
		uploads:   uploads,
		mappings:  mappings,
		catalog:   catalog,
		renderer:  renderer,
		config:    config,
		logger:    logger,
	}, nil
}

// Renderer returns the template renderer
func (d *Dashboard) Renderer() *Renderer {
	return d.renderer
}

// PageData is the model of index.html and classic.html
type PageData struct {
	Title  string
	Accept string
	Roles  []mapping.RoleSpec
	Result *ResultView
	Error  *ErrorView
}

// ResultView is the model of the upload result fragment. The classic page also
// fills in the outcome of a mapping post.
type ResultView struct {
	Upload         *upload.Upload
	Roles          []RoleField
	Tariffs        []TariffGroup
	SelectedTariff string
	Mapping        *MappingView
	MappingError   *ErrorView
}

// RoleField is one column-mapping dropdown
type RoleField struct {
	mapping.RoleSpec
	Options  []string
	Selected string
}

// TariffGroup is an optgroup of the tariff dropdown
type TariffGroup struct {
	Label   string
	Tariffs []string
}

// ErrorView is the model of the upload error fragment
type ErrorView struct {
	Title    string
	Errors   []string
	Warnings []string
	Tips     string
	Status   int
}

// MappingView is the model of the mapping saved fragment
type MappingView struct {
	Upload  *upload.Upload
	Mapping *mapping.ColumnMapping
	Rows    []MappingRow
	Tariff  *tariff.Entry
}

// MappingRow pairs a role label with the column assigned to it
type MappingRow struct {
	Label  string
	Column string
}

// MappingForm is the column-mapping form post
type MappingForm struct {
	UploadID    string `form:"upload_id" json:"upload_id" binding:"required,uuid"`
	Time        string `form:"time" json:"time"`
	Power       string `form:"power" json:"power"`
	Flow        string `form:"flow" json:"flow"`
	SupplyTemp  string `form:"supply_temp" json:"supply_temp"`
	ReturnTemp  string `form:"return_temp" json:"return_temp"`
	CoolingLoad string `form:"cooling_load" json:"cooling_load"`
	Tariff      string `form:"tariff" json:"tariff"`
}

// Columns returns the form's role assignments
func (f MappingForm) Columns() map[mapping.Role]string {
	return map[mapping.Role]string{
		mapping.RoleTime:        f.Time,
		mapping.RolePower:       f.Power,
		mapping.RoleFlow:        f.Flow,
		mapping.RoleSupplyTemp:  f.SupplyTemp,
		mapping.RoleReturnTemp:  f.ReturnTemp,
		mapping.RoleCoolingLoad: f.CoolingLoad,
	}
}

// Page builds the model of a full page
func (d *Dashboard) Page() PageData {
	return PageData{
		Title:  pageTitle,
		Accept: strings.Join(upload.AllowedExtensions, ","),
		Roles:  mapping.Roles,
	}
}

// Upload processes one uploaded file. A failed upload that was stored comes
// back together with the error so its problems can be listed.
func (d *Dashboard) Upload(ctx context.Context, req *upload.Request) (*ResultView, *upload.Upload, error) {
	u, err := d.processor.Process(ctx, req)
	if err != nil {
		return nil, u, err
	}
	return d.resultView(u), u, nil
}

func (d *Dashboard) resultView(u *upload.Upload) *ResultView {
	suggested := mapping.Suggest(u.Columns)
	names := u.ColumnNames()

	roles := make([]RoleField, len(mapping.Roles))
	for i, spec := range mapping.Roles {
		roles[i] = RoleField{RoleSpec: spec, Options: names, Selected: suggested[spec.Role]}
	}
	return &ResultView{Upload: u, Roles: roles, Tariffs: d.tariffGroups()}
}

func (d *Dashboard) tariffGroups() []TariffGroup {
	if d.catalog == nil {
		return nil
	}
	var groups []TariffGroup
	for _, cat := range d.catalog.Categories {
		for _, g := range cat.Groups {
			if len(g.Tariffs) == 0 {
				continue
			}
			group := TariffGroup{Label: cat.Name + " / " + g.Name}
			for _, t := range g.Tariffs {
				group.Tariffs = append(group.Tariffs, t.Name)
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// ErrorView describes a failed upload for the error fragment
func (d *Dashboard) ErrorView(u *upload.Upload, err error) *ErrorView {
	view := &ErrorView{
		Title:  "File validation failed",
		Tips:   troubleshooting(),
		Status: statusFor(err),
	}
	if u != nil && len(u.Errors) > 0 {
		view.Errors = u.Errors
	} else {
		view.Errors = []string{errors.UserMessage(err)}
	}
	if u != nil {
		view.Warnings = u.Warnings
	}
	return view
}

// MappingErrorView describes a rejected column mapping, one line per problem
func (d *Dashboard) MappingErrorView(err error) *ErrorView {
	view := &ErrorView{
		Title:  "Column mapping was not saved",
		Status: statusFor(err),
	}
	var mappingErr *mapping.ValidationError
	if stderrors.As(err, &mappingErr) {
		view.Errors = mappingErr.Problems
	} else {
		view.Errors = []string{errors.UserMessage(err)}
	}
	return view
}

// SaveMapping validates a column mapping against its upload and stores it
func (d *Dashboard) SaveMapping(ctx context.Context, form MappingForm) (*MappingView, error) {
	u, err := d.GetUpload(ctx, form.UploadID)
	if err != nil {
		return nil, err
	}
	if !u.IsReady() {
		return nil, errors.WithCode(errors.CodeValidationError, fmt.Errorf("%w: %s", core.ErrUploadNotReady, u.Status))
	}

	m := mapping.New(u.ID)
	for role, column := range form.Columns() {
		m.Set(role, column)
	}

	var entry *tariff.Entry
	if name := strings.TrimSpace(form.Tariff); name != "" && d.catalog != nil {
		found, err := d.catalog.Find(name)
		if err != nil {
			return nil, errors.WithCode(errors.CodeValidationError, err)
		}
		m.Tariff = found.Tariff.Name
		entry = &found
	}

	if err := m.Validate(u.Columns); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	if err := d.mappings.Save(ctx, m); err != nil {
		return nil, errors.DatabaseError("failed to save column mapping", err)
	}
	d.logger.Info("[Dashboard] Saved column mapping for upload %s", u.ID)

	view := &MappingView{Upload: u, Mapping: m, Tariff: entry}
	for _, spec := range mapping.Roles {
		if col := m.Column(spec.Role); col != "" {
			view.Rows = append(view.Rows, MappingRow{Label: spec.Label, Column: col})
		}
	}
	return view, nil
}

// MappingPage rebuilds the classic page after a mapping post: the upload result
// with the posted choices kept, and the saved mapping or its problems under the
// form. saved is nil when err is set.
func (d *Dashboard) MappingPage(ctx context.Context, form MappingForm, saved *MappingView, err error) PageData {
	page := d.Page()

	var u *upload.Upload
	if saved != nil {
		u = saved.Upload
	} else if found, lookupErr := d.GetUpload(ctx, form.UploadID); lookupErr == nil && found.IsReady() {
		u = found
	}
	if u == nil {
		page.Error = d.MappingErrorView(err)
		return page
	}

	result := d.resultView(u)
	columns := form.Columns()
	for i := range result.Roles {
		result.Roles[i].Selected = columns[result.Roles[i].Role]
	}
	result.SelectedTariff = strings.TrimSpace(form.Tariff)
	if saved != nil {
		result.Mapping = saved
		result.SelectedTariff = saved.Mapping.Tariff
	}
	if err != nil {
		result.MappingError = d.MappingErrorView(err)
	}
	page.Result = result
	return page
}

// ListUploads returns a page of upload history, newest first
func (d *Dashboard) ListUploads(ctx context.Context, limit, offset int) ([]*upload.Upload, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	uploads, err := d.uploads.List(ctx, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list uploads", err)
	}
	return uploads, nil
}

// GetUpload looks an upload up by its string id
func (d *Dashboard) GetUpload(ctx context.Context, rawID string) (*upload.Upload, error) {
	id, err := core.ParseID(rawID)
	if err != nil {
		return nil, errors.InvalidInput("Invalid upload id")
	}
	u, err := d.uploads.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Upload")
	}
	return u, nil
}

// GetMapping returns the saved column mapping of an upload
func (d *Dashboard) GetMapping(ctx context.Context, rawID string) (*mapping.ColumnMapping, error) {
	u, err := d.GetUpload(ctx, rawID)
	if err != nil {
		return nil, err
	}
	m, err := d.mappings.GetByUpload(ctx, u.ID)
	if err != nil {
		return nil, lookupError(err, "Column mapping")
	}
	return m, nil
}

// DeleteUpload removes an upload with its mapping and stored file
func (d *Dashboard) DeleteUpload(ctx context.Context, rawID string) error {
	u, err := d.GetUpload(ctx, rawID)
	if err != nil {
		return err
	}
	if err := d.mappings.DeleteByUpload(ctx, u.ID); err != nil {
		return errors.DatabaseError("failed to delete column mapping", err)
	}
	if err := d.processor.Delete(ctx, u.ID); err != nil {
		return lookupError(err, "Upload")
	}
	d.logger.Info("[Dashboard] Deleted upload %s", u.ID)
	return nil
}

// Catalog returns the tariff catalog, or an empty one when none is configured
func (d *Dashboard) Catalog() *tariff.Catalog {
	if d.catalog == nil {
		return &tariff.Catalog{}
	}
	return d.catalog
}

// uploadRequest pulls the "file" field out of a multipart request
func uploadRequest(r *http.Request) (*upload.Request, func(), error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			size := r.ContentLength
			if size <= 0 {
				size = tooLarge.Limit
			}
			return nil, nil, errors.FileTooLarge(size, tooLarge.Limit-multipartOverhead)
		}
		return nil, nil, errors.InvalidInput("No file uploaded")
	}
	req := &upload.Request{
		Filename: header.Filename,
		File:     file,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
	}
	return req, func() { file.Close() }, nil
}

// limitBody caps the request body at the upload limit plus room for the multipart envelope
func (d *Dashboard) limitBody(w http.ResponseWriter, r *http.Request) {
	if d.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, d.config.MaxUploadBytes+multipartOverhead)
	}
}

// isAsync reports whether the request came from the page's script rather than a plain form post
func isAsync(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" || r.Header.Get("HX-Request") == "true"
}

func lookupError(err error, resource string) error {
	if stderrors.Is(err, core.ErrNotFound) {
		return errors.NotFound(resource)
	}
	if errors.IsAppError(err) {
		return err
	}
	return errors.DatabaseError(fmt.Sprintf("failed to load %s", strings.ToLower(resource)), err)
}

func mappingStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return statusFor(err)
}

func statusFor(err error) int {
	if !errors.IsAppError(err) && stderrors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	return errors.HTTPStatus(err)
}

// apiError is the JSON error body of the API routes
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newAPIError(err error) apiError {
	return apiError{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
}
