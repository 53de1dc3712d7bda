// Package discovery finds LG soundbars on the local network via
// mDNS/DNS-SD. Discovery is best effort: a device with mDNS disabled can
// still be reached by address, so callers always accept an explicit host
// as an alternative.
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device is a soundbar found on the network.
type Device struct {
	// Name is the mDNS instance name, usually the user-visible device
	// name (e.g. "LG SP8YA").
	Name string

	// Hostname is the mDNS hostname.
	Hostname string

	// IP is the IPv4 address (IPv6 when no IPv4 record exists).
	IP string

	// Port is the control protocol port, normally 9741.
	Port int

	// Metadata holds the mDNS TXT record data.
	Metadata map[string]string

	// DiscoveredAt is when the device was seen.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the device.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", d.Name, d.Hostname, d.IP, d.Port)
}

// Addr returns the host:port address to dial.
func (d *Device) Addr() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a TXT record value, empty string if absent.
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
