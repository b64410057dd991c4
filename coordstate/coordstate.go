// Package coordstate provides the shared runtime state and logging instances
// used across the WaveCrack coordinator.
package coordstate

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Version is the current version of the coordinator.
const Version = "1.2.0"

// State represents the configuration and runtime state of the coordinator.
var State = coordinatorState{} //nolint:gochecknoglobals // Global coordinator state

// coordinatorState holds the configuration settings of the coordinator.
// All plain fields are set once during startup, before any goroutine is
// spawned, and are treated as immutable for the process lifetime.
// Fields accessed across goroutines (HTTP handlers + attack task) are
// synchronized; use the getter/setter methods for those.
type coordinatorState struct {
	ListenAddr     string        // ListenAddr is the address the HTTP API listens on.
	APIKey         string        // APIKey is the pre-shared key required by authenticated endpoints.
	RateLimit      int           // RateLimit is the per-source-address request budget per minute.
	ScanIface      string        // ScanIface is the wireless interface used for network scans.
	MonIface       string        // MonIface is the wireless interface placed in monitor mode for captures.
	CaptureDir     string        // CaptureDir is the directory holding capture artifacts.
	WordlistDir    string        // WordlistDir is the directory searched for crack dictionaries.
	HistoryPath    string        // HistoryPath is the path to the sqlite attack history database.
	AttackTimeout  time.Duration // AttackTimeout bounds a whole attack, including the GPU wait.
	DeauthRounds   int           // DeauthRounds is the number of deauth bursts per capture attempt.
	DeauthCount    int           // DeauthCount is the number of deauth frames sent per burst.
	GPUEnabled     bool          // GPUEnabled specifies whether capture offload to the remote worker is configured.
	GPUWorkerURL   string        // GPUWorkerURL is the base URL of the remote crack worker.
	GPUStagingDir  string        // GPUStagingDir is where captures are staged for worker pickup.
	Debug          bool          // Debug specifies whether the coordinator is running in debug mode.
	ExtraDebugging bool          // ExtraDebugging enables per-poll debug output on the status endpoints.

	// Synchronized fields, written by startup probes and read by HTTP
	// handlers.
	toolsAvailable atomic.Bool
	ifaceMu        sync.RWMutex
	interfaces     []string
}

// GetToolsAvailable reports whether the required external tools were found.
func (s *coordinatorState) GetToolsAvailable() bool {
	return s.toolsAvailable.Load()
}

// SetToolsAvailable records whether the required external tools were found.
func (s *coordinatorState) SetToolsAvailable(v bool) {
	s.toolsAvailable.Store(v)
}

// GetInterfaces returns the detected wireless interface names (thread-safe).
func (s *coordinatorState) GetInterfaces() []string {
	s.ifaceMu.RLock()
	defer s.ifaceMu.RUnlock()

	out := make([]string, len(s.interfaces))
	copy(out, s.interfaces)

	return out
}

// SetInterfaces records the detected wireless interface names (thread-safe).
func (s *coordinatorState) SetInterfaces(ifaces []string) {
	s.ifaceMu.Lock()
	defer s.ifaceMu.Unlock()
	s.interfaces = append([]string(nil), ifaces...)
}

// Logger is a shared logging instance configured to output logs at InfoLevel with timestamps to os.Stdout.
var Logger = log.NewWithOptions(os.Stdout, log.Options{ //nolint:gochecknoglobals // Global logger instance
	Level:           log.InfoLevel,
	ReportTimestamp: true,
})

// ErrorLogger is a logger instance for logging critical errors with detailed error information.
var ErrorLogger = Logger.With() //nolint:gochecknoglobals // Global error logger instance
