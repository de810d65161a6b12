package model

// ControlPointDescriptor describes one switch kind the bridge knows how to drive.
type ControlPointDescriptor struct {
	Kind           string `yaml:"kind" json:"kind"`
	On             any    `yaml:"on" json:"on"`
	Off            any    `yaml:"off" json:"off"`
	DeviceClass    string `yaml:"device_class,omitempty" json:"device_class,omitempty"`
	Icon           string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Label          string `yaml:"label" json:"label"`
	EntityCategory string `yaml:"entity_category,omitempty" json:"entity_category,omitempty"`
}

// Family is one level of a device model hierarchy and the switch kinds it adds.
type Family struct {
	Name     string   `yaml:"name"`
	Parent   string   `yaml:"parent,omitempty"`
	Switches []string `yaml:"switches"`
}

// SwitchView is what the input adapters render for a switch.
type SwitchView struct {
	ID             string `json:"id"`
	EntryID        string `json:"entry_id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	DeviceClass    string `json:"device_class,omitempty"`
	Icon           string `json:"icon,omitempty"`
	EntityCategory string `json:"entity_category,omitempty"`
	On             bool   `json:"on"`
}
