// Package display provides output and logging functions for the WaveCrack coordinator.
package display

import (
	"github.com/dustin/go-humanize"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/wordlist"
)

// Startup logs an informational message indicating the start of the coordinator.
func Startup() {
	coordstate.Logger.Info("Starting WaveCrack coordinator", "version", coordstate.Version)
}

// Listening logs the address the HTTP API is serving on.
func Listening(addr string) {
	coordstate.Logger.Info("HTTP API listening", "address", addr)
}

// ToolsMissing warns that some required external binaries were not found.
func ToolsMissing(missing []string) {
	coordstate.Logger.Warn("Required tools missing, attacks will fail until installed", "tools", missing)
}

// InterfacesDetected logs the wireless interfaces found at startup and which
// were selected for scanning and capture.
func InterfacesDetected(all []string, scanIface, monIface string) {
	coordstate.Logger.Info("Wireless interfaces detected",
		"interfaces", all, "scan", scanIface, "monitor", monIface)
}

// WordlistsFound logs the dictionaries available for local cracking.
func WordlistsFound(lists []wordlist.Wordlist) {
	var total int64
	for _, wl := range lists {
		total += wl.SizeBytes
	}

	coordstate.Logger.Info("Wordlists available",
		"count", len(lists), "total_size", humanize.Bytes(uint64(total))) //nolint:gosec // Sizes are non-negative
}

// ShuttingDown logs an informational message indicating the shutdown of the coordinator.
func ShuttingDown() {
	coordstate.Logger.Info("Shutting down WaveCrack coordinator")
}
