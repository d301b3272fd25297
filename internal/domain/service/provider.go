package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
	"floodlight-bridge/internal/ports"
)

// NativeIDPrefix prefixes every identifier created by the provider.
const NativeIDPrefix = "foscamfl:"

var floodlightInterfaces = []model.Interface{
	model.InterfaceOnOff,
	model.InterfaceBrightness,
	model.InterfaceSettings,
}

// Provider maps native identifiers to Floodlight instances. Each instance is
// created on first use and cached for the lifetime of the process.
type Provider struct {
	manager  ports.DeviceManager
	settings ports.SettingsRepository
	device   ports.FloodlightPort
	notifier ports.Notifier
	logger   *logging.Logger
	opts     Options

	mu      sync.Mutex
	devices map[string]*Floodlight
	hueIDs  map[string]string // native ID -> Hue light ID

	// hueMu serializes Hue ID assignment.
	hueMu sync.Mutex
}

func NewProvider(manager ports.DeviceManager, settings ports.SettingsRepository, device ports.FloodlightPort, notifier ports.Notifier, logger *logging.Logger, opts Options) *Provider {
	return &Provider{
		manager:  manager,
		settings: settings,
		device:   device,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		devices:  make(map[string]*Floodlight),
		hueIDs:   make(map[string]string),
	}
}

// Restore creates a Floodlight for every identifier the device manager knows,
// assigning a Hue ID to devices registered without one.
func (p *Provider) Restore(ctx context.Context) error {
	ids, err := p.manager.NativeIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing known devices: %w", err)
	}
	restored := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := p.ensureHueID(ctx, id); err != nil {
			p.logger.Warn("restoring floodlight failed", "native_id", id, "error", err)
			continue
		}
		if _, err := p.GetDevice(ctx, id); err != nil {
			p.logger.Warn("restoring floodlight failed", "native_id", id, "error", err)
			continue
		}
		restored++
	}
	p.logger.Info("floodlights restored", "count", restored, "known", len(ids))
	return nil
}

// GetDevice returns the Floodlight for nativeID, creating it and reading its
// status on first use.
func (p *Provider) GetDevice(ctx context.Context, nativeID string) (*Floodlight, error) {
	p.mu.Lock()
	if d, ok := p.devices[nativeID]; ok {
		p.mu.Unlock()
		return d, nil
	}

	info, err := p.manager.Device(ctx, nativeID)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("looking up %s: %w", nativeID, err)
	}

	d := NewFloodlight(nativeID, info.Name, &deviceStorage{repo: p.settings, nativeID: nativeID},
		p.device, p.notifier, p.logger, p.opts)
	p.devices[nativeID] = d
	p.hueIDs[nativeID] = info.HueID
	p.mu.Unlock()

	d.ReadStatus(ctx)
	return d, nil
}

// HueID returns the Hue light ID of an instantiated floodlight.
func (p *Provider) HueID(nativeID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hueIDs[nativeID]
}

// DeviceByHueID returns the Floodlight registered under a Hue light ID.
func (p *Provider) DeviceByHueID(ctx context.Context, hueID string) (*Floodlight, error) {
	if hueID != "" {
		p.mu.Lock()
		for nativeID, h := range p.hueIDs {
			if h == hueID {
				d := p.devices[nativeID]
				p.mu.Unlock()
				return d, nil
			}
		}
		p.mu.Unlock()

		ids, err := p.manager.NativeIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing known devices: %w", err)
		}
		for _, id := range ids {
			info, err := p.manager.Device(ctx, id)
			if err != nil {
				continue
			}
			if info.HueID == hueID {
				return p.GetDevice(ctx, id)
			}
		}
	}
	return nil, fmt.Errorf("%w: hue light %q", model.ErrDeviceNotFound, hueID)
}

// Devices returns every instantiated Floodlight ordered by native ID.
func (p *Provider) Devices() []*Floodlight {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Floodlight, 0, len(p.devices))
	for _, d := range p.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].nativeID < out[j].nativeID })
	return out
}

// CreateDeviceSettings describes the fields CreateDevice accepts.
func (p *Provider) CreateDeviceSettings() []model.Setting {
	return []model.Setting{
		{
			Key:         "name",
			Title:       "Floodlight Name",
			Type:        model.SettingTypeString,
			Placeholder: "Floodlight",
		},
	}
}

// CreateDevice registers a new floodlight under a random identifier and
// returns that identifier.
func (p *Provider) CreateDevice(ctx context.Context, name string) (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", fmt.Errorf("generating device id: %w", err)
	}
	nativeID := NativeIDPrefix + suffix
	if name == "" {
		name = "Floodlight"
	}

	p.hueMu.Lock()
	defer p.hueMu.Unlock()

	hueID, err := p.nextHueID(ctx)
	if err != nil {
		return "", err
	}

	err = p.manager.OnDeviceDiscovered(ctx, model.DiscoveredDevice{
		NativeID:   nativeID,
		HueID:      hueID,
		Name:       name,
		Interfaces: floodlightInterfaces,
		Type:       model.DeviceTypeLight,
	})
	if err != nil {
		return "", fmt.Errorf("registering %s: %w", nativeID, err)
	}

	p.logger.Info("floodlight created", "native_id", nativeID, "hue_id", hueID, "name", name)
	return nativeID, nil
}

// nextHueID returns the lowest positive number no registered device uses as
// its Hue ID. Callers hold hueMu.
func (p *Provider) nextHueID(ctx context.Context) (string, error) {
	ids, err := p.manager.NativeIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("listing known devices: %w", err)
	}
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		info, err := p.manager.Device(ctx, id)
		if err != nil {
			return "", fmt.Errorf("looking up %s: %w", id, err)
		}
		used[info.HueID] = true
	}
	for n := 1; ; n++ {
		if id := strconv.Itoa(n); !used[id] {
			return id, nil
		}
	}
}

func (p *Provider) ensureHueID(ctx context.Context, nativeID string) error {
	p.hueMu.Lock()
	defer p.hueMu.Unlock()

	info, err := p.manager.Device(ctx, nativeID)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", nativeID, err)
	}
	if info.HueID != "" {
		return nil
	}
	dev := *info
	if dev.HueID, err = p.nextHueID(ctx); err != nil {
		return err
	}
	if err := p.manager.OnDeviceDiscovered(ctx, dev); err != nil {
		return fmt.Errorf("registering %s: %w", nativeID, err)
	}
	p.logger.Info("assigned hue id", "native_id", nativeID, "hue_id", dev.HueID)
	return nil
}

// Close stops every workaround loop.
func (p *Provider) Close() {
	for _, d := range p.Devices() {
		d.Close()
	}
}

// randomSuffix returns 16 hex characters taken from a random UUID.
func randomSuffix() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(u[:8]), nil
}

// deviceStorage scopes a SettingsRepository to one device.
type deviceStorage struct {
	repo     ports.SettingsRepository
	nativeID string
}

func (s *deviceStorage) GetItem(ctx context.Context, key string) (string, error) {
	return s.repo.GetItem(ctx, s.nativeID, key)
}

func (s *deviceStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.SetItem(ctx, s.nativeID, key, value)
}
