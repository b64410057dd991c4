package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wavecrack/wavecrackd/coordstate"
)

// RequiredTools are the external binaries the adapter shells out to.
var RequiredTools = []string{"iw", "ip", "airodump-ng", "aireplay-ng", "aircrack-ng"} //nolint:gochecknoglobals // Static tool list

// ToolAdapter implements Adapter on top of the iw/ip and aircrack-ng suite
// binaries.
type ToolAdapter struct {
	captureDir string
}

// NewToolAdapter returns an adapter writing capture files under captureDir.
func NewToolAdapter(captureDir string) *ToolAdapter {
	return &ToolAdapter{captureDir: captureDir}
}

// CheckTools returns the names of required external binaries missing from PATH.
func CheckTools() []string {
	var missing []string

	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	return missing
}

// DetectInterfaces lists the wireless interface names known to the kernel.
func (a *ToolAdapter) DetectInterfaces(ctx context.Context) ([]string, error) {
	out, err := runTool(ctx, shortToolTimeout, "iw", "dev")
	if err != nil {
		return nil, err
	}

	var ifaces []string

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "Interface ") {
			ifaces = append(ifaces, strings.TrimPrefix(line, "Interface "))
		}
	}

	return ifaces, nil
}

// EnableMonitorMode places the interface into monitor mode and verifies the
// switch took effect.
func (a *ToolAdapter) EnableMonitorMode(ctx context.Context, iface string) error {
	return a.setInterfaceType(ctx, iface, "monitor")
}

// EnableManagedMode returns the interface to managed mode.
func (a *ToolAdapter) EnableManagedMode(ctx context.Context, iface string) error {
	return a.setInterfaceType(ctx, iface, "managed")
}

func (a *ToolAdapter) setInterfaceType(ctx context.Context, iface, mode string) error {
	// Already in the requested mode; avoid bouncing the link.
	if info, err := runTool(ctx, shortToolTimeout, "iw", "dev", iface, "info"); err == nil &&
		strings.Contains(info, "type "+mode) {
		return nil
	}

	steps := [][]string{
		{"ip", "link", "set", iface, "down"},
		{"iw", "dev", iface, "set", "type", mode},
		{"ip", "link", "set", iface, "up"},
	}

	for _, step := range steps {
		if _, err := runTool(ctx, shortToolTimeout, step[0], step[1:]...); err != nil {
			return fmt.Errorf("set %s %s: %w", iface, mode, err)
		}
	}

	info, err := runTool(ctx, shortToolTimeout, "iw", "dev", iface, "info")
	if err != nil {
		return err
	}

	if !strings.Contains(info, "type "+mode) {
		return fmt.Errorf("%w: %s did not enter %s mode", ErrToolFailed, iface, mode)
	}

	coordstate.Logger.Info("Interface mode changed", "interface", iface, "mode", mode)

	return nil
}

// SetChannel locks the interface to the given channel.
func (a *ToolAdapter) SetChannel(ctx context.Context, iface string, channel int) error {
	_, err := runTool(ctx, shortToolTimeout, "iw", "dev", iface, "set", "channel", strconv.Itoa(channel))

	return err
}
