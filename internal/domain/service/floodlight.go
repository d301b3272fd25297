package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/infrastructure/logging"
	"floodlight-bridge/internal/ports"
)

// Setting keys stored per floodlight.
const (
	SettingIP         = "floodlight-ip"
	SettingUsername   = "floodlight-username"
	SettingPassword   = "floodlight-password"
	SettingWorkaround = "floodlight-hdr-workaround"
)

const (
	MinBrightness = 0
	MaxBrightness = 100
)

// Options tunes the timing of the HDR workaround loop.
type Options struct {
	PollInterval time.Duration
	ReapplyDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		PollInterval: 2 * time.Second,
		ReapplyDelay: 2 * time.Second,
	}
}

// Floodlight keeps a local model of one Foscam floodlight in sync with the
// device. Device requests are serialized: at most one is outstanding.
type Floodlight struct {
	nativeID string
	name     string
	storage  ports.Storage
	device   ports.FloodlightPort
	notifier ports.Notifier
	logger   *logging.Logger

	reqMu sync.Mutex

	mu       sync.RWMutex
	state    model.LightState
	infraLed int
	// infraLedSeen is false until the workaround loop has observed the sensor.
	infraLedSeen bool

	workaround *hdrWorkaround
}

func NewFloodlight(nativeID, name string, storage ports.Storage, device ports.FloodlightPort, notifier ports.Notifier, logger *logging.Logger, opts Options) *Floodlight {
	d := &Floodlight{
		nativeID: nativeID,
		name:     name,
		storage:  storage,
		device:   device,
		notifier: notifier,
		logger:   logger.With("component", "floodlight", "native_id", nativeID),
		state:    model.LightState{LightInterval: model.DefaultLightInterval},
	}
	d.workaround = newHdrWorkaround(d, opts)
	return d
}

func (d *Floodlight) NativeID() string { return d.nativeID }

func (d *Floodlight) Name() string { return d.name }

func (d *Floodlight) State() model.LightState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Floodlight) IsOn() bool { return d.State().On }

func (d *Floodlight) Brightness() int { return d.State().Brightness }

func (d *Floodlight) LightInterval() int { return d.State().LightInterval }

// InfraLedState returns the last sensor state seen by the workaround loop.
func (d *Floodlight) InfraLedState() (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.infraLed, d.infraLedSeen
}

// WorkaroundRunning reports whether the HDR workaround loop is active.
func (d *Floodlight) WorkaroundRunning() bool {
	return d.workaround.running()
}

// ReadStatus refreshes the light state from the device. Failures are logged
// and leave the cached state untouched. The workaround loop is started or
// stopped afterwards to match the current settings.
func (d *Floodlight) ReadStatus(ctx context.Context) {
	creds := d.credentials(ctx)
	if !creds.Configured() {
		d.logger.Debug("floodlight not configured, skipping status read")
		d.syncWorkaround(ctx, creds)
		return
	}

	var wl model.WhiteLight
	err := d.exclusive(func() error {
		var err error
		wl, err = d.device.GetWhiteLightBrightness(ctx, creds)
		return err
	})
	if err != nil {
		d.logger.Warn("reading white light state failed", "ip", creds.Address, "error", err)
	} else {
		d.logger.Debug("white light state", "ip", creds.Address,
			"enable", wl.Enable, "brightness", wl.Brightness, "lightinterval", wl.LightInterval)
		d.applyWhiteLight(ctx, wl)
	}

	d.syncWorkaround(ctx, creds)
}

func (d *Floodlight) TurnOn(ctx context.Context) error {
	d.logger.Info("sending white light turn on request")
	return d.setWhiteLightState(ctx, true)
}

func (d *Floodlight) TurnOff(ctx context.Context) error {
	d.logger.Info("sending white light turn off request")
	return d.setWhiteLightState(ctx, false)
}

// SetBrightness stores level locally, then enables the light when level is
// positive and disables it otherwise. Like TurnOn and TurnOff it waits for the
// device to acknowledge before changing the on state.
func (d *Floodlight) SetBrightness(ctx context.Context, level int) error {
	if level < MinBrightness {
		level = MinBrightness
	}
	if level > MaxBrightness {
		level = MaxBrightness
	}
	d.logger.Info("setting brightness", "brightness", level)

	d.mu.Lock()
	changed := d.state.Brightness != level
	d.state.Brightness = level
	d.mu.Unlock()
	if changed {
		d.notify(ctx, model.InterfaceBrightness, "brightness", level)
	}

	return d.setWhiteLightState(ctx, level > 0)
}

func (d *Floodlight) setWhiteLightState(ctx context.Context, enable bool) error {
	creds := d.credentials(ctx)
	if !creds.Configured() {
		d.logger.Warn("cannot set white light state", "error", model.ErrNotConfigured)
		return model.ErrNotConfigured
	}

	st := d.State()
	cmd := model.WhiteLightCommand{
		Enable:        enable,
		Brightness:    st.Brightness,
		LightInterval: st.LightInterval,
	}
	err := d.exclusive(func() error {
		return d.device.SetWhiteLightBrightness(ctx, creds, cmd)
	})
	if err != nil {
		d.logger.Warn("setting white light state failed", "ip", creds.Address, "enable", enable, "error", err)
		return fmt.Errorf("setting white light state: %w", err)
	}

	d.setOn(ctx, enable)
	return nil
}

// Settings describes the four user-settable keys with their current values.
func (d *Floodlight) Settings(ctx context.Context) []model.Setting {
	return []model.Setting{
		{
			Key:         SettingIP,
			Title:       "Floodlight IP",
			Description: "The floodlight ip address.",
			Type:        model.SettingTypeString,
			Placeholder: "192.168.0.100:88",
			Value:       d.item(ctx, SettingIP),
		},
		{
			Key:   SettingUsername,
			Title: "Username",
			Type:  model.SettingTypeString,
			Value: d.item(ctx, SettingUsername),
		},
		{
			Key:   SettingPassword,
			Title: "Password",
			Type:  model.SettingTypePassword,
			Value: d.item(ctx, SettingPassword),
		},
		{
			Key:         SettingWorkaround,
			Title:       "HDR Workaround",
			Description: "Re-apply HDR mode after the night vision LEDs switch, for firmware that resets it.",
			Type:        model.SettingTypeBoolean,
			Value:       strconv.FormatBool(d.workaroundEnabled(ctx)),
		},
	}
}

// PutSetting stores one recognized setting, refreshes the device state and
// notifies listeners that the settings changed.
func (d *Floodlight) PutSetting(ctx context.Context, key, value string) error {
	switch key {
	case SettingIP, SettingUsername, SettingPassword:
	case SettingWorkaround:
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", model.ErrInvalidSettingValue, key, value)
		}
		value = strconv.FormatBool(enabled)
	default:
		return fmt.Errorf("%w: %s", model.ErrUnknownSetting, key)
	}

	if err := d.storage.SetItem(ctx, key, value); err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}

	d.ReadStatus(ctx)
	d.notify(ctx, model.InterfaceSettings, key, nil)
	return nil
}

// Close stops the workaround loop.
func (d *Floodlight) Close() {
	d.workaround.stop()
}

func (d *Floodlight) syncWorkaround(ctx context.Context, creds model.Credentials) {
	if creds.Configured() && d.workaroundEnabled(ctx) {
		d.workaround.start(ctx)
		return
	}
	d.workaround.stop()
}

func (d *Floodlight) credentials(ctx context.Context) model.Credentials {
	return model.Credentials{
		Address:  d.item(ctx, SettingIP),
		Username: d.item(ctx, SettingUsername),
		Password: d.item(ctx, SettingPassword),
	}
}

func (d *Floodlight) workaroundEnabled(ctx context.Context) bool {
	enabled, err := strconv.ParseBool(d.item(ctx, SettingWorkaround))
	return err == nil && enabled
}

// item returns the stored value of key, or "" when it is absent or unreadable.
func (d *Floodlight) item(ctx context.Context, key string) string {
	v, err := d.storage.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrSettingNotFound) {
			d.logger.Warn("reading setting failed", "key", key, "error", err)
		}
		return ""
	}
	return v
}

func (d *Floodlight) exclusive(fn func() error) error {
	d.reqMu.Lock()
	defer d.reqMu.Unlock()
	return fn()
}

func (d *Floodlight) applyWhiteLight(ctx context.Context, wl model.WhiteLight) {
	d.mu.Lock()
	onChanged := d.state.On != wl.Enable
	briChanged := d.state.Brightness != wl.Brightness
	d.state = model.LightState{
		On:            wl.Enable,
		Brightness:    wl.Brightness,
		LightInterval: wl.LightInterval,
	}
	d.mu.Unlock()

	if onChanged {
		d.notify(ctx, model.InterfaceOnOff, "on", wl.Enable)
	}
	if briChanged {
		d.notify(ctx, model.InterfaceBrightness, "brightness", wl.Brightness)
	}
}

func (d *Floodlight) setOn(ctx context.Context, on bool) {
	d.mu.Lock()
	changed := d.state.On != on
	d.state.On = on
	d.mu.Unlock()
	if changed {
		d.notify(ctx, model.InterfaceOnOff, "on", on)
	}
}

func (d *Floodlight) setInfraLedState(state int) {
	d.mu.Lock()
	d.infraLed = state
	d.infraLedSeen = true
	d.mu.Unlock()
}

func (d *Floodlight) resetInfraLedState() {
	d.mu.Lock()
	d.infraLed = 0
	d.infraLedSeen = false
	d.mu.Unlock()
}

func (d *Floodlight) notify(ctx context.Context, iface model.Interface, key string, value interface{}) {
	if d.notifier == nil {
		return
	}
	d.notifier.OnDeviceEvent(ctx, model.DeviceEvent{
		NativeID:  d.nativeID,
		Interface: iface,
		Key:       key,
		Value:     value,
		Time:      time.Now(),
	})
}
