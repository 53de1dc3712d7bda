// Package config stores user-side metadata for known soundbars: named
// devices with their addresses, and application preferences. It holds no
// device state — everything in here is client bookkeeping.
package config

import "time"

// Registry is the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is one known soundbar.
type Device struct {
	Host     string    `yaml:"host"`                // IP address or hostname
	Port     int       `yaml:"port,omitempty"`      // control port; 0 means the default (9741)
	Model    string    `yaml:"model,omitempty"`     // e.g. "SP8YA", from PRODUCT_INFO
	LastSeen time.Time `yaml:"last_seen,omitempty"` // last discovery or successful connection
}

// Preferences are application-wide user preferences.
type Preferences struct {
	DefaultDevice   string `yaml:"default_device,omitempty"` // device used when no --host/name is given
	DiscoverTimeout int    `yaml:"discover_timeout"`         // mDNS discovery timeout in seconds
	CallTimeout     int    `yaml:"call_timeout"`             // per-command response timeout in seconds
}

// NewRegistry creates a Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			DiscoverTimeout: 10,
			CallTimeout:     5,
		},
	}
}

// GetDevice retrieves a device by name, nil if unknown.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the named device entry, creating it if needed.
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device, exists := r.Devices[name]; exists {
		return device
	}
	device := &Device{}
	r.Devices[name] = device
	return device
}

// RememberDevice records a device's address and bumps its last-seen time.
func (r *Registry) RememberDevice(name, host string, port int) {
	device := r.EnsureDevice(name)
	device.Host = host
	device.Port = port
	device.LastSeen = time.Now()
}
