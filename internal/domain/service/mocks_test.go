package service

import (
	"context"
	"sync"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockFloodlightPort struct {
	mock.Mock

	countMu sync.Mutex
	counts  map[string]int
}

func (m *MockFloodlightPort) called(method string, args ...interface{}) mock.Arguments {
	m.countMu.Lock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[method]++
	m.countMu.Unlock()
	return m.MethodCalled(method, args...)
}

// calls is safe to use while a workaround loop is calling the mock.
func (m *MockFloodlightPort) calls(method string) int {
	m.countMu.Lock()
	defer m.countMu.Unlock()
	return m.counts[method]
}

func (m *MockFloodlightPort) GetWhiteLightBrightness(ctx context.Context, creds model.Credentials) (model.WhiteLight, error) {
	args := m.called("GetWhiteLightBrightness", ctx, creds)
	return args.Get(0).(model.WhiteLight), args.Error(1)
}

func (m *MockFloodlightPort) SetWhiteLightBrightness(ctx context.Context, creds model.Credentials, cmd model.WhiteLightCommand) error {
	args := m.called("SetWhiteLightBrightness", ctx, creds, cmd)
	return args.Error(0)
}

func (m *MockFloodlightPort) GetHdrMode(ctx context.Context, creds model.Credentials) (int, error) {
	args := m.called("GetHdrMode", ctx, creds)
	return args.Int(0), args.Error(1)
}

func (m *MockFloodlightPort) SetHdrMode(ctx context.Context, creds model.Credentials, mode int) error {
	args := m.called("SetHdrMode", ctx, creds, mode)
	return args.Error(0)
}

func (m *MockFloodlightPort) GetDevState(ctx context.Context, creds model.Credentials) (model.DevState, error) {
	args := m.called("GetDevState", ctx, creds)
	return args.Get(0).(model.DevState), args.Error(1)
}

type MockDeviceManager struct {
	mock.Mock
}

func (m *MockDeviceManager) OnDeviceDiscovered(ctx context.Context, device model.DiscoveredDevice) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceManager) NativeIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDeviceManager) Device(ctx context.Context, nativeID string) (*model.DiscoveredDevice, error) {
	args := m.Called(ctx, nativeID)
	dev, _ := args.Get(0).(*model.DiscoveredDevice)
	return dev, args.Error(1)
}

// memSettings is an in-memory SettingsRepository.
type memSettings struct {
	mu    sync.Mutex
	items map[string]map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{items: make(map[string]map[string]string)}
}

func (s *memSettings) GetItem(_ context.Context, nativeID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[nativeID][key]
	if !ok {
		return "", ports.ErrSettingNotFound
	}
	return v, nil
}

func (s *memSettings) SetItem(_ context.Context, nativeID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[nativeID] == nil {
		s.items[nativeID] = make(map[string]string)
	}
	s.items[nativeID][key] = value
	return nil
}

func (s *memSettings) delete(nativeID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[nativeID], key)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.DeviceEvent
}

func (n *recordingNotifier) OnDeviceEvent(_ context.Context, event model.DeviceEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) byInterface(iface model.Interface) []model.DeviceEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.DeviceEvent
	for _, e := range n.events {
		if e.Interface == iface {
			out = append(out, e)
		}
	}
	return out
}

// memRegistry is an in-memory DeviceManager that keeps registration order.
type memRegistry struct {
	mu      sync.Mutex
	order   []string
	devices map[string]model.DiscoveredDevice
}

func newMemRegistry(devices ...model.DiscoveredDevice) *memRegistry {
	r := &memRegistry{devices: make(map[string]model.DiscoveredDevice)}
	for _, d := range devices {
		_ = r.OnDeviceDiscovered(context.Background(), d)
	}
	return r
}

func (r *memRegistry) OnDeviceDiscovered(_ context.Context, device model.DiscoveredDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.NativeID]; !ok {
		r.order = append(r.order, device.NativeID)
	}
	r.devices[device.NativeID] = device
	return nil
}

func (r *memRegistry) NativeIDs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...), nil
}

func (r *memRegistry) Device(_ context.Context, nativeID string) (*model.DiscoveredDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[nativeID]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	return &d, nil
}

func (r *memRegistry) remove(nativeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, nativeID)
	for i, id := range r.order {
		if id == nativeID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
