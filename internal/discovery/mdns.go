package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service LG wifi audio devices advertise.
	ServiceType = "_lg-smart-speaker-disc._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// DefaultScanTimeout is the default discovery window.
	DefaultScanTimeout = 10 * time.Second

	// DefaultControlPort is the soundbar control protocol port. Some
	// firmware advertises the discovery HTTP port instead of the control
	// port, so entries without a usable port fall back to this.
	DefaultControlPort = 9741
)

// Scanner performs mDNS discovery.
type Scanner struct {
	// Timeout is the maximum time to listen for announcements.
	Timeout time.Duration
}

// NewScanner returns a Scanner with the default timeout.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// ScanForDevices discovers all soundbars on the local network within the
// scanner's timeout.
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers soundbars until the timeout or the
// context expires, whichever comes first.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			if device := parseServiceEntry(entry); device != nil {
				devices = append(devices, device)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-collected

	return devices, nil
}

// FindDevice waits for a device whose instance name matches (contains,
// case-insensitively) the given name.
func (s *Scanner) FindDevice(ctx context.Context, name string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	deviceChan := make(chan *Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device != nil && strings.Contains(strings.ToLower(device.Name), strings.ToLower(name)) {
				deviceChan <- device
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no device matching %q found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf entry to a Device. Returns nil
// for entries without a resolvable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		}
	}

	return &Device{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         DefaultControlPort,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForDevices is a convenience wrapper using a one-off scanner with
// the given timeout.
func ScanForDevices(timeout time.Duration) ([]*Device, error) {
	scanner := &Scanner{Timeout: timeout}
	return scanner.ScanForDevices()
}
