package wifi

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nxadm/tail"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const captureFileWait = 30 * time.Second

// airodumpSession is a running airodump-ng capture. The pcap file path is
// known once airodump creates it; the companion CSV is tailed so station
// activity shows up in the debug log.
type airodumpSession struct {
	capFile string
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	tailer  *tail.Tail
	stop    sync.Once
	stopErr error
}

// StartCapture launches a packet capture filtered to the target BSSID and
// channel. It blocks until the capture file exists on disk (or the wait
// budget expires) so callers can hand the path straight to the handshake
// checker.
func (a *ToolAdapter) StartCapture(ctx context.Context, iface, bssid string, channel int) (CaptureSession, error) {
	if err := os.MkdirAll(a.captureDir, 0o750); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}

	base := filepath.Join(a.captureDir,
		strings.ReplaceAll(bssid, ":", "")+"-"+strconv.FormatInt(time.Now().Unix(), 10))

	args := []string{
		"-w", base,
		"--output-format", "pcap,csv",
		"--write-interval", "1",
		"--bssid", bssid,
	}
	if channel > 0 {
		args = append(args, "--channel", strconv.Itoa(channel))
	}

	args = append(args, iface)

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, "airodump-ng", args...)
	// Process group so Stop can take down airodump's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	coordstate.Logger.Debug("Starting capture", "command", cmd.String())

	if err := cmd.Start(); err != nil {
		cancel()

		return nil, fmt.Errorf("%w: airodump-ng: %w", ErrToolFailed, err)
	}

	sess := &airodumpSession{
		capFile: base + "-01.cap",
		cmd:     cmd,
		cancel:  cancel,
	}

	if err := waitForFile(ctx, a.captureDir, sess.capFile, captureFileWait); err != nil {
		_ = sess.Stop()

		return nil, err
	}

	if tailer, err := tail.TailFile(base+"-01.csv",
		tail.Config{Follow: true, ReOpen: true, Logger: coordstate.Logger.StandardLog()}); err == nil {
		sess.tailer = tailer

		go func() {
			for line := range tailer.Lines {
				if coordstate.State.ExtraDebugging {
					coordstate.Logger.Debug("airodump", "line", line.Text)
				}
			}
		}()
	}

	coordstate.Logger.Info("Capture started", "file", sess.capFile, "bssid", bssid, "channel", channel)

	return sess, nil
}

// waitForFile blocks until path exists, using a directory watch with a stat
// fallback for filesystems that drop events.
func waitForFile(ctx context.Context, dir, path string, budget time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer func() { _ = watcher.Close() }()

		if addErr := watcher.Add(dir); addErr != nil {
			coordstate.Logger.Debug("Watch failed, falling back to polling", "dir", dir, "error", addErr)
		}
	}

	deadline := time.After(budget)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}

		var events chan fsnotify.Event
		if watcher != nil {
			events = watcher.Events
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w: %s", ErrNoCaptureFile, path)
		case ev := <-events:
			if ev.Name == path && ev.Has(fsnotify.Create) {
				return nil
			}
		case <-ticker.C:
		}
	}
}

// File returns the pcap path airodump is writing.
func (s *airodumpSession) File() string {
	return s.capFile
}

// Stop terminates the capture process group and waits for it. Safe to call
// more than once.
func (s *airodumpSession) Stop() error {
	s.stop.Do(func() {
		if s.tailer != nil {
			_ = s.tailer.Stop()
		}

		if s.cmd.Process != nil {
			// SIGINT first so airodump flushes its output files.
			if pgid, err := syscall.Getpgid(s.cmd.Process.Pid); err == nil {
				_ = syscall.Kill(-pgid, syscall.SIGINT)
			}
		}

		done := make(chan error, 1)
		go func() { done <- s.cmd.Wait() }()

		select {
		case err := <-done:
			s.stopErr = err
		case <-time.After(5 * time.Second):
			s.cancel()
			s.stopErr = <-done
		}

		s.cancel()
	})

	return s.stopErr
}
