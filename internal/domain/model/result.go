package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured       = errors.New("floodlight credentials not configured")
	ErrTransport           = errors.New("floodlight transport failure")
	ErrMalformedResponse   = errors.New("malformed CGI response")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrUnknownSetting      = errors.New("unknown setting")
	ErrInvalidSettingValue = errors.New("invalid setting value")
	ErrEmptyCommand        = errors.New("command has no on or brightness")
)

// ResultError is returned when the device answers with a non-zero result code.
type ResultError struct {
	Command string
	Code    int
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: device returned result %d", e.Command, e.Code)
}

// WhiteLight is the decoded payload of getWhiteLightBrightness.
type WhiteLight struct {
	Enable        bool
	Brightness    int
	LightInterval int
}

// WhiteLightCommand carries the parameters of setWhiteLightBrightness.
type WhiteLightCommand struct {
	Enable        bool
	Brightness    int
	LightInterval int
}

// HDR modes reported by getHdrMode.
const (
	HdrModeOff = 0
	HdrModeOn  = 1
)

// DevState is the subset of getDevState the workaround needs.
type DevState struct {
	InfraLedState int
}
