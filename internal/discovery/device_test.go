package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestDeviceAddr(t *testing.T) {
	device := &Device{IP: "192.168.1.42", Port: 9741}
	if got := device.Addr(); got != "192.168.1.42:9741" {
		t.Errorf("Addr() = %q, want 192.168.1.42:9741", got)
	}
}

func TestDeviceGetMetadata(t *testing.T) {
	device := &Device{Metadata: map[string]string{"ver": "1.2.3"}}
	if got := device.GetMetadata("ver"); got != "1.2.3" {
		t.Errorf("GetMetadata(ver) = %q, want 1.2.3", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	var bare Device
	if got := bare.GetMetadata("ver"); got != "" {
		t.Errorf("GetMetadata on nil map = %q, want empty", got)
	}
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		want  *Device
	}{
		{
			name: "ipv4 entry with txt records",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "LG SP8YA"},
				HostName:      "lgsoundbar.local.",
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.42")},
				Text:          []string{"ver=1.2.3", "malformed"},
			},
			want: &Device{
				Name:     "LG SP8YA",
				Hostname: "lgsoundbar.local.",
				IP:       "192.168.1.42",
				Port:     DefaultControlPort,
				Metadata: map[string]string{"ver": "1.2.3"},
			},
		},
		{
			name: "ipv6 only entry",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "LG S95QR"},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			want: &Device{Name: "LG S95QR", IP: "fe80::1", Port: DefaultControlPort, Metadata: map[string]string{}},
		},
		{
			name:  "entry without addresses is dropped",
			entry: &zeroconf.ServiceEntry{ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseServiceEntry(tt.entry)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("parseServiceEntry() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}
			if got.Name != tt.want.Name || got.IP != tt.want.IP || got.Port != tt.want.Port || got.Hostname != tt.want.Hostname {
				t.Errorf("parseServiceEntry() = %+v, want %+v", got, tt.want)
			}
			for k, v := range tt.want.Metadata {
				if got.Metadata[k] != v {
					t.Errorf("Metadata[%q] = %q, want %q", k, got.Metadata[k], v)
				}
			}
			if time.Since(got.DiscoveredAt) > time.Minute {
				t.Error("DiscoveredAt not set")
			}
		})
	}
}
