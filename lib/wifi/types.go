// Package wifi is the external tool adapter. It drives the iw/ip and
// aircrack-ng suite binaries as child processes with bounded timeouts and
// translates their exit codes and output into structured results. No raw
// process output crosses the package boundary.
package wifi

import (
	"context"
	"errors"
)

// Encryption classifications as reported by the scan adapter.
const (
	EncryptionOpen    = "Open"
	EncryptionWEP     = "WEP"
	EncryptionWPA     = "WPA"
	EncryptionWPA2    = "WPA2"
	EncryptionWPA3    = "WPA3"
	EncryptionUnknown = "Unknown"
)

// Network is one access point observed by a scan.
type Network struct {
	SSID       string `json:"ssid"`
	BSSID      string `json:"bssid"`
	Signal     int    `json:"signal"`
	Channel    int    `json:"channel,omitempty"`
	Encryption string `json:"encryption"`
}

var (
	// ErrToolTimeout is returned when an external tool exceeds its deadline.
	ErrToolTimeout = errors.New("tool timed out")
	// ErrToolFailed is returned when an external tool exits non-zero.
	ErrToolFailed = errors.New("tool failed")
	// ErrNoCaptureFile is returned when the capture tool never produced a file.
	ErrNoCaptureFile = errors.New("capture file not created")
)

// CaptureSession is a running packet capture. Stop is idempotent.
type CaptureSession interface {
	// File returns the path of the capture file being written.
	File() string
	// Stop terminates the capture process and waits for it to exit.
	Stop() error
}

// Adapter is the interface the attack engine drives. Every call is bounded
// by a timeout and returns a structured result; adapter failures never carry
// raw tool output.
type Adapter interface {
	ScanNetworks(ctx context.Context, iface string) ([]Network, error)
	EnableMonitorMode(ctx context.Context, iface string) error
	EnableManagedMode(ctx context.Context, iface string) error
	SetChannel(ctx context.Context, iface string, channel int) error
	StartCapture(ctx context.Context, iface, bssid string, channel int) (CaptureSession, error)
	SendDeauth(ctx context.Context, iface, bssid string, count int) error
	CheckHandshake(ctx context.Context, capFile, bssid string) (bool, error)
	CrackLocal(ctx context.Context, capFile, wordlist, bssid string) (string, error)
}
