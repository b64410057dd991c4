package wifi

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
)

const (
	handshakeCheckTimeout = 30 * time.Second
	localCrackTimeout     = 30 * time.Minute
)

var (
	handshakeRe = regexp.MustCompile(`(\d+)\s+handshake`)
	keyFoundRe  = regexp.MustCompile(`KEY FOUND!\s*\[\s*(.+?)\s*\]`)
)

// CheckHandshake reports whether the capture file contains at least one
// complete WPA handshake for the target BSSID.
func (a *ToolAdapter) CheckHandshake(ctx context.Context, capFile, bssid string) (bool, error) {
	args := []string{"-q"}
	if bssid != "" {
		args = append(args, "-b", bssid)
	}

	args = append(args, capFile)

	out, err := runTool(ctx, handshakeCheckTimeout, "aircrack-ng", args...)
	if err != nil {
		return false, err
	}

	return parseHandshakeCount(out) > 0, nil
}

// CrackLocal runs a dictionary attack against the capture file. It returns
// the recovered key, or the empty string when the wordlist is exhausted
// without a match.
func (a *ToolAdapter) CrackLocal(ctx context.Context, capFile, wordlist, bssid string) (string, error) {
	coordstate.Logger.Info("Cracking locally", "capture", capFile, "wordlist", wordlist)

	args := []string{"-w", wordlist, "-q"}
	if bssid != "" {
		args = append(args, "-b", bssid)
	}

	args = append(args, capFile)

	out, err := runTool(ctx, localCrackTimeout, "aircrack-ng", args...)
	if key := parseKeyFound(out); key != "" {
		// aircrack exits non-zero in some configurations even on success,
		// so the key match wins over the exit status.
		return key, nil
	}

	if err != nil {
		return "", err
	}

	return "", nil
}

func parseHandshakeCount(out string) int {
	m := handshakeRe.FindStringSubmatch(out)
	if m == nil {
		return 0
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}

	return n
}

func parseKeyFound(out string) string {
	m := keyFoundRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}

	return m[1]
}
