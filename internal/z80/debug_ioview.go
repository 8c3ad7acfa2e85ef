// debug_ioview.go - I/O register viewer for the machine monitor.
//
// The CPC's chips are port-mapped and mostly write-only from the CPU
// side, so the monitor cannot render them by peeking memory the way
// it renders RAM. The machine wiring that owns the devices registers
// a view callback per device instead; the monitor's `io` command
// lists and invokes them.

package z80

import (
	"fmt"
	"sort"
)

// IORegisterView renders one device's register state as display lines.
type IORegisterView func() []string

var ioViews = map[string]IORegisterView{}

// RegisterIOView installs (or replaces) the named device view.
func RegisterIOView(name string, view IORegisterView) {
	ioViews[name] = view
}

// listIODevices returns the registered device names, sorted.
func listIODevices() []string {
	names := make([]string, 0, len(ioViews))
	for name := range ioViews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatIOView renders the register view for a device.
func formatIOView(cpu DebuggableCPU, deviceName string) []string {
	view, ok := ioViews[deviceName]
	if !ok {
		return []string{fmt.Sprintf("Unknown device: %s", deviceName)}
	}
	lines := []string{fmt.Sprintf("--- %s registers ---", deviceName)}
	return append(lines, view()...)
}
