package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/ports"
)

// JSONRepository keeps registered devices and their settings in one JSON file.
type JSONRepository struct {
	filepath string
	mu       sync.RWMutex
}

type fileData struct {
	Devices []*deviceRecord `json:"devices"`
}

type deviceRecord struct {
	model.DiscoveredDevice
	Settings map[string]string `json:"settings,omitempty"`
}

func NewJSONRepository(filepath string) *JSONRepository {
	return &JSONRepository{filepath: filepath}
}

func (r *JSONRepository) OnDeviceDiscovered(ctx context.Context, device model.DiscoveredDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}
	if rec := data.find(device.NativeID); rec != nil {
		rec.DiscoveredDevice = device
	} else {
		data.Devices = append(data.Devices, &deviceRecord{DiscoveredDevice: device})
	}
	return r.save(data)
}

func (r *JSONRepository) NativeIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(data.Devices))
	for _, rec := range data.Devices {
		ids = append(ids, rec.NativeID)
	}
	return ids, nil
}

func (r *JSONRepository) Device(ctx context.Context, nativeID string) (*model.DiscoveredDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}
	rec := data.find(nativeID)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, nativeID)
	}
	dev := rec.DiscoveredDevice
	return &dev, nil
}

func (r *JSONRepository) GetItem(ctx context.Context, nativeID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := r.load()
	if err != nil {
		return "", err
	}
	rec := data.find(nativeID)
	if rec == nil {
		return "", ports.ErrSettingNotFound
	}
	v, ok := rec.Settings[key]
	if !ok {
		return "", ports.ErrSettingNotFound
	}
	return v, nil
}

func (r *JSONRepository) SetItem(ctx context.Context, nativeID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}
	rec := data.find(nativeID)
	if rec == nil {
		return fmt.Errorf("%w: %s", model.ErrDeviceNotFound, nativeID)
	}
	if rec.Settings == nil {
		rec.Settings = make(map[string]string)
	}
	rec.Settings[key] = value
	return r.save(data)
}

func (r *JSONRepository) load() (*fileData, error) {
	raw, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileData{Devices: []*deviceRecord{}}, nil
		}
		return nil, err
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.filepath, err)
	}
	return &data, nil
}

// save replaces the store file atomically.
func (r *JSONRepository) save(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.filepath), ".floodlights-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.filepath)
}

func (d *fileData) find(nativeID string) *deviceRecord {
	for _, rec := range d.Devices {
		if rec.NativeID == nativeID {
			return rec
		}
	}
	return nil
}
