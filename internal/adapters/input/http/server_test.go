package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/domain/service"
	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) GetSwitches(ctx context.Context) ([]*model.SwitchView, error) {
	args := m.Called(ctx)
	views, _ := args.Get(0).([]*model.SwitchView)
	return views, args.Error(1)
}

func (m *MockBridge) GetSwitch(ctx context.Context, id string) (*model.SwitchView, error) {
	args := m.Called(ctx, id)
	view, _ := args.Get(0).(*model.SwitchView)
	return view, args.Error(1)
}

func (m *MockBridge) SetSwitch(ctx context.Context, id string, on bool) error {
	args := m.Called(ctx, id, on)
	return args.Error(0)
}

func (m *MockBridge) Refresh() {
	m.Called()
}

func (m *MockBridge) GetConfig(ctx context.Context) (*model.Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*model.Config)
	return cfg, args.Error(1)
}

func (m *MockBridge) AddEntry(ctx context.Context, entry *model.ConfigEntry) (*model.ConfigEntry, error) {
	args := m.Called(ctx, entry)
	added, _ := args.Get(0).(*model.ConfigEntry)
	return added, args.Error(1)
}

func (m *MockBridge) RemoveEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var lockView = &model.SwitchView{ID: "AC2729-abc-cl", EntryID: "e1", Name: "Nursery Child Lock", Kind: "cl", On: true}

func newTestServer(b *MockBridge) http.Handler {
	return NewServer(b, "10.0.0.2", 80, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Lights(t *testing.T) {
	b := new(MockBridge)
	b.On("GetSwitches", mock.Anything).Return([]*model.SwitchView{lockView}, nil)
	h := newTestServer(b)

	rec := do(h, http.MethodGet, "/api/admin/lights", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lights map[string]*huego.Light
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lights))
	require.Contains(t, lights, "AC2729-abc-cl")
	assert.Equal(t, "Nursery Child Lock", lights["AC2729-abc-cl"].Name)
	assert.True(t, lights["AC2729-abc-cl"].State.On)

	rec = do(h, http.MethodGet, "/api/admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lights"`)
}

func TestServer_GetLight(t *testing.T) {
	b := new(MockBridge)
	b.On("GetSwitch", mock.Anything, "AC2729-abc-cl").Return(lockView, nil)
	b.On("GetSwitch", mock.Anything, "nope").Return(nil, service.ErrSwitchNotFound)
	h := newTestServer(b)

	rec := do(h, http.MethodGet, "/api/admin/lights/AC2729-abc-cl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nursery Child Lock")

	rec = do(h, http.MethodGet, "/api/admin/lights/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SetLightState(t *testing.T) {
	b := new(MockBridge)
	b.On("SetSwitch", mock.Anything, "AC2729-abc-cl", false).Return(nil).Once()
	b.On("SetSwitch", mock.Anything, "AC2729-abc-cl", true).Return(errors.New("no ack")).Once()
	h := newTestServer(b)

	rec := do(h, http.MethodPut, "/api/admin/lights/AC2729-abc-cl/state", `{"on": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/lights/AC2729-abc-cl/state/on")

	rec = do(h, http.MethodPut, "/api/admin/lights/AC2729-abc-cl/state", `{"on": true}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(h, http.MethodPut, "/api/admin/lights/AC2729-abc-cl/state", `{"bri": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/api/admin/lights/AC2729-abc-cl/state", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	b.AssertExpectations(t)
}

func TestServer_Register(t *testing.T) {
	h := newTestServer(new(MockBridge))
	rec := do(h, http.MethodPost, "/api", `{"devicetype":"echo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)

	rec = do(h, http.MethodGet, "/description.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://10.0.0.2:80/")
}

func TestServer_Entries(t *testing.T) {
	b := new(MockBridge)
	b.On("AddEntry", mock.Anything, &model.ConfigEntry{Host: "10.0.0.5", Model: "AC4236"}).
		Return(&model.ConfigEntry{EntryID: "e1", Host: "10.0.0.5", Model: "AC4236", Name: "AC4236"}, nil)
	b.On("AddEntry", mock.Anything, &model.ConfigEntry{Model: "AC4236"}).
		Return(nil, service.ErrInvalidEntry)
	b.On("RemoveEntry", mock.Anything, "e1").Return(nil)
	b.On("RemoveEntry", mock.Anything, "e2").Return(service.ErrEntryNotFound)
	b.On("GetConfig", mock.Anything).Return(&model.Config{Entries: []*model.ConfigEntry{{EntryID: "e1"}}}, nil)
	h := newTestServer(b)

	rec := do(h, http.MethodPost, "/admin/entries", `{"host":"10.0.0.5","model":"AC4236"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entry_id":"e1"`)

	rec = do(h, http.MethodPost, "/admin/entries", `{"model":"AC4236"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/admin/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries"`)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/admin/entries/e1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/admin/entries/e2", "").Code)
}

func TestAdminRefresh(t *testing.T) {
	b := new(MockBridge)
	b.On("Refresh").Return().Once()

	rec := do(newTestServer(b), http.MethodPost, "/admin/refresh", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	b.AssertExpectations(t)
}
