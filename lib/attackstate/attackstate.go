// Package attackstate holds the single shared attack record and its
// lock-guarded store. The attack engine is the only writer; every status
// endpoint is a pure projection of a Snapshot.
package attackstate

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Phase is the high-level stage of the running attack.
type Phase string

// Phase values, in the order an attack moves through them. The only
// out-of-order transitions are the jump to PhaseError and the reset to a
// fresh record when a new attack begins.
const (
	PhaseIdle        Phase = "idle"
	PhaseScanning    Phase = "scanning"
	PhaseCapture     Phase = "capture"
	PhaseTransfer    Phase = "transfer"
	PhaseGPUReady    Phase = "gpu_ready"
	PhaseGPUCracking Phase = "gpu_cracking"
	PhaseCracking    Phase = "cracking"
	PhaseComplete    Phase = "complete"
	PhaseError       Phase = "error"
)

// ResultNotFound is the sentinel result for an attack that completed without
// recovering the password.
const ResultNotFound = "NOT FOUND"

const (
	maxTargetDisplay = 16 // SSID truncation for the embedded text protocol
	maxResultDisplay = 20 // result truncation for the embedded text protocol
)

// ErrAlreadyRunning is returned when a new attack is requested while one is in progress.
var ErrAlreadyRunning = errors.New("attack already running")

// Attack is the externally observable state of the current (or most recent)
// attack. It is copied out whole on every read so callers never see a
// partially updated record.
type Attack struct {
	Running           bool   `json:"running"`
	Phase             Phase  `json:"phase"`
	Step              string `json:"step"`
	Progress          int    `json:"progress"`
	SubProgress       int    `json:"sub_progress"`
	TargetSSID        string `json:"target"`
	TargetBSSID       string `json:"target_bssid,omitempty"`
	TargetChannel     int    `json:"target_channel,omitempty"`
	NetworksFound     int    `json:"networks_found"`
	HandshakeCaptured bool   `json:"handshake_captured"`
	GPUProcessing     bool   `json:"gpu_processing"`
	GPUEnabled        bool   `json:"gpu_enabled"`
	CurrentWordlist   string `json:"current_wordlist,omitempty"`
	Result            string `json:"result,omitempty"`
	Completed         bool   `json:"completed"`
	Failed            bool   `json:"failed"`
	StartTime         int64  `json:"start_time,omitempty"`
	EndTime           int64  `json:"end_time,omitempty"`
	LastUpdate        int64  `json:"last_update,omitempty"`
	CancelRequested   bool   `json:"cancel_requested"`
}

// Runtime returns the attack duration in seconds as of now (or as of EndTime
// once the attack has finished).
func (a Attack) Runtime(now time.Time) int64 {
	if a.StartTime == 0 {
		return 0
	}

	end := now.Unix()
	if a.EndTime != 0 {
		end = a.EndTime
	}

	return end - a.StartTime
}

// TextLine renders the ultra-minimal embedded display protocol:
// running|progress|phase|target|result. The first field stays 1 after a
// successful completion so the display holds the result screen instead of
// dropping back to idle.
func (a Attack) TextLine() string {
	live := "0"
	if a.Running || a.Completed {
		live = "1"
	}

	result := ""
	if a.Completed {
		result = truncate(a.Result, maxResultDisplay)
	}

	return fmt.Sprintf("%s|%d|%s|%s|%s", live, a.Progress, a.Phase, truncate(a.TargetSSID, maxTargetDisplay), result)
}

// SimpleLine renders the compact pipe-delimited status:
// running|progress|phase|target|gpu_processing|gpu_enabled.
func (a Attack) SimpleLine() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s",
		bit(a.Running), a.Progress, a.Phase, a.TargetSSID, bit(a.GPUProcessing), bit(a.GPUEnabled))
}

// ResultsLine renders the compact results protocol: RUNNING|..., SUCCESS|<password>
// or FAILED|NOT FOUND.
func (a Attack) ResultsLine() string {
	if a.Running {
		return "RUNNING|Attack in progress"
	}

	if a.Completed && a.Result != ResultNotFound && a.Result != "" {
		return "SUCCESS|" + a.Result
	}

	return "FAILED|" + ResultNotFound
}

func bit(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}

	return s
}

// Store owns the shared attack record. All reads and writes go through the
// one mutex so readers never observe a half-written transition.
type Store struct {
	mu         sync.RWMutex
	attack     Attack
	gpuEnabled bool
	now        func() time.Time
}

// NewStore returns a Store holding a fresh idle record.
func NewStore(gpuEnabled bool) *Store {
	return &Store{
		attack:     Attack{Phase: PhaseIdle, GPUEnabled: gpuEnabled},
		gpuEnabled: gpuEnabled,
		now:        time.Now,
	}
}

// Snapshot returns a copy of the current attack record.
func (s *Store) Snapshot() Attack {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.attack
}

// TryBegin atomically claims the store for a new attack. It fails with
// ErrAlreadyRunning, leaving the existing record untouched, if an attack is
// in progress; otherwise it replaces the record with a fresh running one.
func (s *Store) TryBegin(ssid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attack.Running {
		return ErrAlreadyRunning
	}

	now := s.now().Unix()
	s.attack = Attack{
		Running:    true,
		Phase:      PhaseScanning,
		Step:       "preparing",
		TargetSSID: ssid,
		GPUEnabled: s.gpuEnabled,
		StartTime:  now,
		LastUpdate: now,
	}

	return nil
}

// Update applies fn to the attack record under the store lock. Only the
// attack engine may call it; the whole mutation is one atomic transition.
func (s *Store) Update(fn func(*Attack)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.attack)
	s.attack.LastUpdate = s.now().Unix()
}

// RequestCancel marks the running attack for cancellation. It reports whether
// there was a running attack to cancel; calling it while idle is a no-op.
func (s *Store) RequestCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attack.Running {
		return false
	}

	s.attack.CancelRequested = true

	return true
}

// CancelRequested reports whether cancellation has been requested for the
// current attack.
func (s *Store) CancelRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.attack.CancelRequested
}
