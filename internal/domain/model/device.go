package model

import "github.com/amimof/huego"

type DeviceType string

const (
	DeviceTypeLight DeviceType = "light"
)

// Interface names a capability a device registers with the device manager.
type Interface string

const (
	InterfaceOnOff      Interface = "OnOff"
	InterfaceBrightness Interface = "Brightness"
	InterfaceSettings   Interface = "Settings"
)

// Device is the Hue-facing view of one floodlight. ID is the numeric Hue
// light ID; NativeID is the registry identifier.
type Device struct {
	ID       string
	NativeID string
	Name     string
	Type     DeviceType
	State    *huego.State
}

// DiscoveredDevice is what the provider registers with the device manager.
type DiscoveredDevice struct {
	NativeID   string      `json:"native_id"`
	HueID      string      `json:"hue_id,omitempty"`
	Name       string      `json:"name"`
	Interfaces []Interface `json:"interfaces"`
	Type       DeviceType  `json:"type"`
}

// DefaultLightInterval is the floodlight's factory light interval in seconds.
const DefaultLightInterval = 60

// LightState mirrors the last acknowledged white light response.
type LightState struct {
	On            bool `json:"on"`
	Brightness    int  `json:"brightness"`
	LightInterval int  `json:"light_interval"`
}

type Credentials struct {
	Address  string
	Username string
	Password string
}

// Configured reports whether every credential is present.
func (c Credentials) Configured() bool {
	return c.Address != "" && c.Username != "" && c.Password != ""
}

// HueMetadata is how a device type presents itself on the Hue API.
type HueMetadata struct {
	Type             string
	ModelID          string
	ManufacturerName string
}
