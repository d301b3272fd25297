package model

import "time"

// DeviceEvent is emitted whenever a floodlight's state or settings change.
type DeviceEvent struct {
	NativeID  string      `json:"native_id"`
	Interface Interface   `json:"interface"`
	Key       string      `json:"key,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	Time      time.Time   `json:"time"`
}
