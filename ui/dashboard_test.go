package ui

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"chillerdash/adapters/memory"
	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"
	"chillerdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUploadProcessor struct {
	mock.Mock
}

func (m *MockUploadProcessor) Process(ctx context.Context, req *upload.Request) (*upload.Upload, error) {
	args := m.Called(ctx, req)
	if u, ok := args.Get(0).(*upload.Upload); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUploadProcessor) Delete(ctx context.Context, id core.ID) error {
	return m.Called(ctx, id).Error(0)
}

func newMockDashboard(t *testing.T, processor UploadProcessor) (*Dashboard, *memory.UploadRepository) {
	t.Helper()
	uploads := memory.NewUploadRepository()
	logger := internal.NewLoggerWithWriter(internal.LogLevelError, io.Discard)
	d, err := NewDashboard(processor, uploads, memory.NewMappingRepository(), nil, DashboardConfig{}, logger)
	require.NoError(t, err)
	return d, uploads
}

func TestDashboardUploadSuggestsColumns(t *testing.T) {
	u := testkit.ReadyUpload("plant.csv", time.Now())
	processor := new(MockUploadProcessor)
	processor.On("Process", mock.Anything, mock.Anything).Return(u, nil)

	d, _ := newMockDashboard(t, processor)
	view, got, err := d.Upload(context.Background(), &upload.Request{Filename: "plant.csv"})
	require.NoError(t, err)
	assert.Same(t, u, got)

	require.Len(t, view.Roles, len(mapping.Roles))
	assert.Equal(t, mapping.RoleTime, view.Roles[0].Role)
	assert.Equal(t, "Timestamp", view.Roles[0].Selected)
	assert.Equal(t, "kW", view.Roles[1].Selected)
	assert.Equal(t, []string{"Timestamp", "kW", "RT"}, view.Roles[2].Options)
	assert.Empty(t, view.Tariffs, "no catalog, no tariff choices")
	processor.AssertExpectations(t)
}

func TestDashboardErrorView(t *testing.T) {
	d, _ := newMockDashboard(t, new(MockUploadProcessor))

	failed := upload.New("plant.csv")
	failed.Errors = []string{"File is empty", "File has no columns"}
	failed.Warnings = []string{"File read with latin-1 encoding. Some characters might appear differently."}

	view := d.ErrorView(failed, errors.EmptyFile("File is empty"))
	assert.Equal(t, failed.Errors, view.Errors)
	assert.Equal(t, failed.Warnings, view.Warnings)
	assert.Equal(t, http.StatusUnprocessableEntity, view.Status)
	assert.NotEmpty(t, view.Tips)

	view = d.ErrorView(nil, errors.Wrap(errors.FileTooLarge(60<<20, 50<<20), "failed to store upload"))
	assert.Equal(t, []string{"failed to store upload"}, view.Errors)
	assert.Equal(t, http.StatusRequestEntityTooLarge, view.Status)
}

func TestDashboardSaveMappingRequiresReadyUpload(t *testing.T) {
	d, uploads := newMockDashboard(t, new(MockUploadProcessor))

	u := testkit.ReadyUpload("plant.csv", time.Now())
	u.Status = upload.StatusFailed
	require.NoError(t, uploads.Create(context.Background(), u))

	_, err := d.SaveMapping(context.Background(), MappingForm{UploadID: u.ID.String(), Time: "Timestamp", Power: "kW"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUploadNotReady)
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(err))
}

func TestDashboardSaveMappingTwiceShowsStoredID(t *testing.T) {
	ctx := context.Background()
	d, uploads := newMockDashboard(t, new(MockUploadProcessor))
	u := testkit.ReadyUpload("plant.csv", time.Now())
	require.NoError(t, uploads.Create(ctx, u))

	form := MappingForm{UploadID: u.ID.String(), Time: "Timestamp", Power: "kW"}
	first, err := d.SaveMapping(ctx, form)
	require.NoError(t, err)

	form.CoolingLoad = "RT"
	second, err := d.SaveMapping(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, first.Mapping.ID, second.Mapping.ID)

	stored, err := d.GetMapping(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, stored.ID, second.Mapping.ID)
	assert.Equal(t, "RT", stored.Column(mapping.RoleCoolingLoad))
}

func TestDashboardMappingPage(t *testing.T) {
	ctx := context.Background()
	d, uploads := newMockDashboard(t, new(MockUploadProcessor))
	u := testkit.ReadyUpload("plant.csv", time.Now())
	require.NoError(t, uploads.Create(ctx, u))

	form := MappingForm{UploadID: u.ID.String(), Time: "Timestamp", CoolingLoad: "RT"}
	_, err := d.SaveMapping(ctx, form)
	require.Error(t, err)

	page := d.MappingPage(ctx, form, nil, err)
	require.NotNil(t, page.Result)
	assert.Nil(t, page.Error)
	assert.Nil(t, page.Result.Mapping)
	require.NotNil(t, page.Result.MappingError)
	assert.Contains(t, page.Result.MappingError.Errors, "Chiller Power (kW) column is required")
	for _, role := range page.Result.Roles {
		switch role.Role {
		case mapping.RoleTime:
			assert.Equal(t, "Timestamp", role.Selected)
		case mapping.RoleCoolingLoad:
			assert.Equal(t, "RT", role.Selected)
		default:
			assert.Empty(t, role.Selected, role.Role)
		}
	}

	missing := d.MappingPage(ctx, MappingForm{}, nil, errors.InvalidInput("Select an uploaded file before saving the mapping"))
	assert.Nil(t, missing.Result)
	require.NotNil(t, missing.Error)
	assert.Equal(t, http.StatusBadRequest, missing.Error.Status)
}

func TestDashboardListUploadsClampsPaging(t *testing.T) {
	d, uploads := newMockDashboard(t, new(MockUploadProcessor))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, uploads.Create(context.Background(), testkit.ReadyUpload("plant.csv", base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := d.ListUploads(context.Background(), 0, -4)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := d.ListUploads(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestDashboardDeleteUploadPropagatesNotFound(t *testing.T) {
	processor := new(MockUploadProcessor)
	d, uploads := newMockDashboard(t, processor)

	u := testkit.ReadyUpload("plant.csv", time.Now())
	require.NoError(t, uploads.Create(context.Background(), u))
	processor.On("Delete", mock.Anything, u.ID).Return(core.ErrUploadNotFound)

	err := d.DeleteUpload(context.Background(), u.ID.String())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	processor.AssertExpectations(t)
}
