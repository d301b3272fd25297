package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
)

type MockBridgePort struct {
	mock.Mock
}

func (m *MockBridgePort) GetDevices(ctx context.Context) ([]*model.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]*model.Device)
	return devices, args.Error(1)
}

func (m *MockBridgePort) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockBridgePort) UpdateDeviceState(ctx context.Context, id string, state map[string]interface{}) error {
	return m.Called(ctx, id, state).Error(0)
}

func (m *MockBridgePort) CreateDevice(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockBridgePort) CreateDeviceSettings() []model.Setting {
	settings, _ := m.Called().Get(0).([]model.Setting)
	return settings
}

func (m *MockBridgePort) GetSettings(ctx context.Context, id string) ([]model.Setting, error) {
	args := m.Called(ctx, id)
	settings, _ := args.Get(0).([]model.Setting)
	return settings, args.Error(1)
}

func (m *MockBridgePort) PutSetting(ctx context.Context, id, key, value string) error {
	return m.Called(ctx, id, key, value).Error(0)
}

const (
	lightID  = "1"
	nativeID = "foscamfl:0a1b2c3d4e5f6071"
)

var porch = &model.Device{
	ID:       lightID,
	NativeID: nativeID,
	Name:     "Porch",
	Type:     model.DeviceTypeLight,
	State:    &huego.State{On: true, Bri: 127, Reachable: true},
}

func newTestServer(t *testing.T) (*MockBridgePort, http.Handler) {
	t.Helper()
	bridge := new(MockBridgePort)
	bridge.Test(t)
	return bridge, NewServer(bridge, "192.168.1.5", 8080, logging.Discard()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDescription(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/description.xml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<URLBase>http://192.168.1.5:8080/</URLBase>")
}

func TestRegister(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api", `{"devicetype":"echo"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"success":{"username":"admin"}}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetLights(t *testing.T) {
	bridge, h := newTestServer(t)
	bridge.On("GetDevices", mock.Anything).Return([]*model.Device{porch}, nil)

	rec := do(t, h, http.MethodGet, "/api/admin/lights", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lights map[string]huego.Light
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lights))
	require.Contains(t, lights, lightID)
	assert.Equal(t, "Porch", lights[lightID].Name)
	assert.Equal(t, "Dimmable light", lights[lightID].Type)
	assert.Equal(t, "LWB010", lights[lightID].ModelID)
	assert.Equal(t, uint8(127), lights[lightID].State.Bri)
	assert.Equal(t, nativeID, lights[lightID].UniqueID)

	for id := range lights {
		_, err := strconv.Atoi(id)
		assert.NoError(t, err, "light id %q is not numeric", id)
	}
}

func TestFullState(t *testing.T) {
	bridge, h := newTestServer(t)
	bridge.On("GetDevices", mock.Anything).Return([]*model.Device{porch}, nil)

	rec := do(t, h, http.MethodGet, "/api/admin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Contains(t, state, "lights")
	assert.Contains(t, state, "config")
}

func TestGetLight(t *testing.T) {
	bridge, h := newTestServer(t)
	bridge.On("GetDevice", mock.Anything, lightID).Return(porch, nil)
	bridge.On("GetDevice", mock.Anything, "9").Return(nil, model.ErrDeviceNotFound)

	rec := do(t, h, http.MethodGet, "/api/admin/lights/"+lightID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Porch"`)

	rec = do(t, h, http.MethodGet, "/api/admin/lights/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetLightState(t *testing.T) {
	bridge, h := newTestServer(t)
	bridge.On("UpdateDeviceState", mock.Anything, lightID, map[string]interface{}{"on": true}).Return(nil)
	bridge.On("UpdateDeviceState", mock.Anything, lightID, map[string]interface{}{"bri": float64(10)}).
		Return(errors.Join(model.ErrTransport, errors.New("dial tcp: timeout")))

	rec := do(t, h, http.MethodPut, "/api/admin/lights/"+lightID+"/state", `{"on":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"success":{"/lights/`+lightID+`/state/on":true}}]`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/admin/lights/"+lightID+"/state", `{"bri":10}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/admin/lights/"+lightID+"/state", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/admin/lights/"+lightID+"/state", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDevices(t *testing.T) {
	bridge, h := newTestServer(t)
	bridge.On("GetDevices", mock.Anything).Return([]*model.Device{porch}, nil)
	bridge.On("CreateDeviceSettings").Return([]model.Setting{{Key: "floodlight-ip", Title: "IP Address"}})
	bridge.On("CreateDevice", mock.Anything, "Garage").Return("foscamfl:ffff000011112222", nil)

	rec := do(t, h, http.MethodGet, "/admin/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"devices": [{"id":"`+nativeID+`","hue_id":"1","name":"Porch","on":true,"bri":127}],
		"settings": [{"key":"floodlight-ip","title":"IP Address","type":"","value":""}]
	}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/admin/devices", `{"name":"Garage"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"foscamfl:ffff000011112222"}`, rec.Body.String())
}

func TestAdminSettings(t *testing.T) {
	bridge, h := newTestServer(t)
	settings := []model.Setting{{Key: "floodlight-ip", Title: "IP Address", Value: "10.0.0.9"}}
	bridge.On("GetSettings", mock.Anything, nativeID).Return(settings, nil)
	bridge.On("PutSetting", mock.Anything, nativeID, "floodlight-ip", "10.0.0.9").Return(nil).Once()
	bridge.On("PutSetting", mock.Anything, nativeID, "floodlight-username", "admin").Return(nil).Once()
	bridge.On("PutSetting", mock.Anything, nativeID, "bogus", "x").Return(model.ErrUnknownSetting)

	rec := do(t, h, http.MethodGet, "/admin/devices/"+nativeID+"/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10.0.0.9")

	rec = do(t, h, http.MethodPut, "/admin/devices/"+nativeID+"/settings",
		`{"floodlight-username":"admin","floodlight-ip":"10.0.0.9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/admin/devices/"+nativeID+"/settings", `{"bogus":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bridge.AssertExpectations(t)
}

func TestAdminPage(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Floodlight Bridge Admin")

	// device names are user input and must only reach the DOM as text
	assert.NotContains(t, rec.Body.String(), "d.name + '</td>")
	assert.NotRegexp(t, `innerHTML\s*=\s*[^'"\s;]`, rec.Body.String())
	assert.NotRegexp(t, `innerHTML\s*=\s*'[^']`, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "td.textContent = v;")
}
