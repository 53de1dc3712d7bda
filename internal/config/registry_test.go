package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}
	if !strings.Contains(configDir, "lgbar") {
		t.Errorf("GetConfigDir() = %v, should contain 'lgbar'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	default:
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}
	if reg.Preferences.CallTimeout != 5 {
		t.Errorf("CallTimeout = %v, want 5", reg.Preferences.CallTimeout)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	device := reg.EnsureDevice("living-room")
	if device == nil {
		t.Fatal("EnsureDevice returned nil")
	}

	// Second call returns the same entry.
	device.Host = "192.168.1.50"
	if again := reg.EnsureDevice("living-room"); again.Host != "192.168.1.50" {
		t.Error("EnsureDevice created a new entry instead of returning the existing one")
	}

	// EnsureDevice on a nil map must not panic.
	reg.Devices = nil
	if reg.EnsureDevice("bedroom") == nil {
		t.Error("EnsureDevice with nil map returned nil")
	}
}

func TestRegistryRememberDevice(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RememberDevice("living-room", "192.168.1.50", 9741)

	device := reg.GetDevice("living-room")
	if device == nil {
		t.Fatal("device not recorded")
	}
	if device.Host != "192.168.1.50" || device.Port != 9741 {
		t.Errorf("device = %+v", device)
	}
	if device.LastSeen.Before(before) {
		t.Error("LastSeen not updated")
	}
}

func TestRegistryGetDeviceUnknown(t *testing.T) {
	reg := NewRegistry()
	if reg.GetDevice("nope") != nil {
		t.Error("GetDevice on unknown name should return nil")
	}
}
