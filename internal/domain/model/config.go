package model

type SettingType string

const (
	SettingTypeString   SettingType = "string"
	SettingTypePassword SettingType = "password"
	SettingTypeBoolean  SettingType = "boolean"
)

// Setting describes one user-settable key for the generic settings UI.
type Setting struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Type        SettingType `json:"type"`
	Placeholder string      `json:"placeholder,omitempty"`
	Value       string      `json:"value"`
}
