// debug_commands.go - the monitor's command surface.
//
// Commands live in a registry (name, aliases, usage, handler), so
// the help text, the dispatcher, and the docs can never drift apart.
// Address, value and length arguments go through EvalAddress, which
// accepts the CPC's ampersand hex alongside register names, so
// `m HL+&10` works the way a CPC owner expects a monitor to work;
// counts and depths are plain decimal.

package z80

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MonitorCommand is a parsed command line: name plus arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and
// arguments.
func ParseCommand(input string) MonitorCommand {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return MonitorCommand{}
	}
	return MonitorCommand{Name: strings.ToLower(parts[0]), Args: parts[1:]}
}

// ParseAddress parses one monitor number: &hex (CPC convention),
// $hex, 0xhex, #decimal, or bare hex.
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, false
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	case strings.HasPrefix(s, "&") || strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress evaluates <term> [+|- <term>]* where each term is a
// register name or a number.
func EvalAddress(expr string, cpu DebuggableCPU) (uint64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	var result uint64
	op := byte('+')
	term := strings.Builder{}

	apply := func() bool {
		text := strings.TrimSpace(term.String())
		term.Reset()
		if text == "" {
			return false
		}
		var val uint64
		var ok bool
		if cpu != nil {
			val, ok = cpu.GetRegister(strings.ToUpper(text))
		}
		if !ok {
			val, ok = ParseAddress(text)
		}
		if !ok {
			return false
		}
		if op == '-' {
			result -= val
		} else {
			result += val
		}
		return true
	}

	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 {
			if !apply() {
				return 0, false
			}
			op = ch
			continue
		}
		term.WriteByte(ch)
	}
	if !apply() {
		return 0, false
	}
	return result, true
}

// monitorCmd is one registry entry. Handlers run with m.mu held and
// return true when the monitor should exit.
type monitorCmd struct {
	names []string
	usage string
	help  string
	fn    func(m *MachineMonitor, args []string) bool
}

var monitorCmds = []monitorCmd{
	{[]string{"r"}, "r [reg val]", "Show registers, or set one", (*MachineMonitor).cmdRegisters},
	{[]string{"d"}, "d [addr] [count]", "Disassemble (default: at PC)", (*MachineMonitor).cmdDisassemble},
	{[]string{"m"}, "m [addr] [count]", "Dump memory", (*MachineMonitor).cmdMemoryDump},
	{[]string{"w"}, "w addr byte [byte...]", "Write bytes to memory", (*MachineMonitor).cmdWrite},
	{[]string{"f"}, "f addr len byte", "Fill memory", (*MachineMonitor).cmdFill},
	{[]string{"h"}, "h addr len byte [byte...]", "Hunt for a byte pattern", (*MachineMonitor).cmdHunt},
	{[]string{"s"}, "s [count]", "Step instructions", (*MachineMonitor).cmdStep},
	{[]string{"bs"}, "bs", "Backstep one instruction", (*MachineMonitor).cmdBackstep},
	{[]string{"g"}, "g [addr]", "Resume (optionally from addr)", (*MachineMonitor).cmdGo},
	{[]string{"u"}, "u addr", "Run until addr", (*MachineMonitor).cmdRunUntil},
	{[]string{"b"}, "b addr [if cond]", "Set breakpoint (A==&FC style condition)", (*MachineMonitor).cmdBreakpointSet},
	{[]string{"bc"}, "bc [addr]", "Clear breakpoint (all if no addr)", (*MachineMonitor).cmdBreakpointClear},
	{[]string{"bl"}, "bl", "List breakpoints", (*MachineMonitor).cmdBreakpointList},
	{[]string{"ww"}, "ww addr", "Set write watchpoint", (*MachineMonitor).cmdWatchpointSet},
	{[]string{"wc"}, "wc [addr]", "Clear watchpoint (all if no addr)", (*MachineMonitor).cmdWatchpointClear},
	{[]string{"wl"}, "wl", "List watchpoints", (*MachineMonitor).cmdWatchpointList},
	{[]string{"bt"}, "bt [depth]", "Stack backtrace", (*MachineMonitor).cmdBacktrace},
	{[]string{"io"}, "io [device]", "Show chip registers (crtc, gatearray, ppi, psg, fdc)", (*MachineMonitor).cmdIOView},
	{[]string{"trace"}, "trace count [file]", "Step count instructions, logging each", (*MachineMonitor).cmdTrace},
	{[]string{"ss"}, "ss file addr len", "Save memory range to file", (*MachineMonitor).cmdSaveMemory},
	{[]string{"sl"}, "sl file addr", "Load file into memory", (*MachineMonitor).cmdLoadMemory},
	{[]string{"save"}, "save file", "Save CPU+RAM state", (*MachineMonitor).cmdSaveState},
	{[]string{"load"}, "load file", "Load CPU+RAM state", (*MachineMonitor).cmdLoadState},
	{[]string{"freeze"}, "freeze", "Freeze the CPU", (*MachineMonitor).cmdFreeze},
	{[]string{"thaw"}, "thaw", "Resume the CPU, stay in the monitor", (*MachineMonitor).cmdThaw},
	{[]string{"fa"}, "fa", "Freeze (mute) audio", (*MachineMonitor).cmdFreezeAudio},
	{[]string{"ta"}, "ta", "Thaw audio", (*MachineMonitor).cmdThawAudio},
	{[]string{"x"}, "x", "Exit the monitor and resume", (*MachineMonitor).cmdExit},
}

// The help row is appended in init because cmdHelp ranges over
// monitorCmds, which a literal entry would turn into an
// initialization cycle.
func init() {
	monitorCmds = append(monitorCmds, monitorCmd{[]string{"?", "help"}, "?", "Show this help", (*MachineMonitor).cmdHelp})
}

// ExecuteCommand dispatches one input line. Returns true when the
// monitor should exit.
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	for _, entry := range monitorCmds {
		for _, name := range entry.names {
			if name == cmd.Name {
				return entry.fn(m, cmd.Args)
			}
		}
	}
	m.appendOutput(fmt.Sprintf("Unknown command: %s (? for help)", cmd.Name), colorRed)
	return false
}

// requireCPU reports and fails when no CPU is attached yet.
func (m *MachineMonitor) requireCPU() bool {
	if m.cpu == nil {
		m.appendOutput("No CPU attached", colorRed)
		return false
	}
	return true
}

// evalArg evaluates one numeric/register-expression argument.
func (m *MachineMonitor) evalArg(arg, what string) (uint64, bool) {
	val, ok := EvalAddress(arg, m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Bad %s: %s", what, arg), colorRed)
	}
	return val, ok
}

// ---- registers ----

func (m *MachineMonitor) cmdRegisters(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) == 2 {
		value, ok := m.evalArg(args[1], "value")
		if !ok {
			return false
		}
		name := strings.ToUpper(args[0])
		if !m.cpu.SetRegister(name, value) {
			m.appendOutput("Unknown register: "+name, colorRed)
			return false
		}
		m.appendOutput(fmt.Sprintf("%s = &%X", name, value), colorGreen)
		return false
	}
	m.showRegisters()
	return false
}

// flagImage renders F the way CPC monitors print it: SZYHXPNC, with
// a dot for each clear bit.
func flagImage(f uint64) string {
	names := "SZYHXPNC"
	img := make([]byte, 8)
	for i := 0; i < 8; i++ {
		if f&(0x80>>i) != 0 {
			img[i] = names[i]
		} else {
			img[i] = '.'
		}
	}
	return string(img)
}

func (m *MachineMonitor) showRegisters() {
	regs := m.cpu.GetRegisters()
	var main, shadow, rest []string
	var fVal uint64
	for _, r := range regs {
		entry := fmt.Sprintf("%s=%0*X", r.Name, r.BitWidth/4, r.Value)
		if m.prevRegs[r.Name] != r.Value {
			entry = entry + "*"
		}
		switch {
		case r.Name == "F":
			fVal = r.Value
			main = append(main, entry)
		case strings.HasSuffix(r.Name, "'"):
			shadow = append(shadow, entry)
		case r.Group == "status" || r.Group == "index":
			rest = append(rest, entry)
		default:
			main = append(main, entry)
		}
	}
	m.appendOutput(strings.Join(main, " "), colorWhite)
	m.appendOutput(strings.Join(shadow, " "), colorDim)
	m.appendOutput(strings.Join(rest, " ")+"  F="+flagImage(fVal), colorWhite)
	m.saveCurrentRegs()
}

// ---- memory and disassembly ----

func (m *MachineMonitor) cmdDisassemble(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	addr := m.cpu.GetPC()
	count := 16
	if len(args) >= 1 {
		v, ok := m.evalArg(args[0], "address")
		if !ok {
			return false
		}
		addr = v
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			count = n
		}
	}
	m.showDisassemblyAt(addr, count)
	return false
}

// showDisassemblyAtPC lists count instructions from the current PC.
func (m *MachineMonitor) showDisassemblyAtPC(count int) {
	if m.cpu == nil {
		return
	}
	m.showDisassemblyAt(m.cpu.GetPC(), count)
}

func (m *MachineMonitor) showDisassemblyAt(addr uint64, count int) {
	pc := m.cpu.GetPC()
	for _, line := range m.cpu.Disassemble(addr, count) {
		marker := "  "
		color := uint32(colorWhite)
		if line.Address == pc {
			marker = "> "
			color = colorCyan
		}
		bpMark := " "
		if m.cpu.HasBreakpoint(line.Address) {
			bpMark = "*"
			color = colorRed
		}
		m.appendOutput(fmt.Sprintf("%s%s&%04X  %-12s %s", marker, bpMark, line.Address, line.HexBytes, line.Mnemonic), color)
	}
}

func (m *MachineMonitor) cmdMemoryDump(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	addr := m.cpu.GetPC()
	count := 128
	if len(args) >= 1 {
		v, ok := m.evalArg(args[0], "address")
		if !ok {
			return false
		}
		addr = v
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			count = n
		}
	}

	for offset := 0; offset < count; offset += 16 {
		n := count - offset
		if n > 16 {
			n = 16
		}
		row := m.cpu.ReadMemory(addr+uint64(offset), n)
		hexPart := make([]string, 0, 16)
		ascii := make([]byte, 0, 16)
		for _, b := range row {
			hexPart = append(hexPart, fmt.Sprintf("%02X", b))
			if b >= 0x20 && b < 0x7F {
				ascii = append(ascii, b)
			} else {
				ascii = append(ascii, '.')
			}
		}
		m.appendOutput(fmt.Sprintf("&%04X  %-47s  %s", addr+uint64(offset), strings.Join(hexPart, " "), ascii), colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdWrite(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) < 2 {
		m.appendOutput("Usage: w addr byte [byte...]", colorYellow)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}
	data := make([]byte, 0, len(args)-1)
	for _, arg := range args[1:] {
		v, ok := m.evalArg(arg, "byte")
		if !ok {
			return false
		}
		data = append(data, byte(v))
	}
	m.cpu.WriteMemory(addr, data)
	m.appendOutput(fmt.Sprintf("Wrote %d bytes at &%04X", len(data), addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdFill(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 3 {
		m.appendOutput("Usage: f addr len byte", colorYellow)
		return false
	}
	addr, ok1 := m.evalArg(args[0], "address")
	length, ok2 := m.evalArg(args[1], "length")
	value, ok3 := m.evalArg(args[2], "byte")
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	data := make([]byte, length)
	for i := range data {
		data[i] = byte(value)
	}
	m.cpu.WriteMemory(addr, data)
	m.appendOutput(fmt.Sprintf("Filled &%04X..&%04X with &%02X", addr, addr+length-1, byte(value)), colorGreen)
	return false
}

func (m *MachineMonitor) cmdHunt(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) < 3 {
		m.appendOutput("Usage: h addr len byte [byte...]", colorYellow)
		return false
	}
	addr, ok1 := m.evalArg(args[0], "address")
	length, ok2 := m.evalArg(args[1], "length")
	if !ok1 || !ok2 {
		return false
	}
	pattern := make([]byte, 0, len(args)-2)
	for _, arg := range args[2:] {
		v, ok := m.evalArg(arg, "byte")
		if !ok {
			return false
		}
		pattern = append(pattern, byte(v))
	}

	haystack := m.cpu.ReadMemory(addr, int(length))
	found := 0
	for i := 0; i+len(pattern) <= len(haystack); i++ {
		match := true
		for j, p := range pattern {
			if haystack[i+j] != p {
				match = false
				break
			}
		}
		if match {
			m.appendOutput(fmt.Sprintf("  &%04X", addr+uint64(i)), colorWhite)
			found++
			if found >= 32 {
				m.appendOutput("  (more...)", colorDim)
				break
			}
		}
	}
	if found == 0 {
		m.appendOutput("Not found", colorYellow)
	}
	return false
}

// ---- execution control ----

func (m *MachineMonitor) cmdStep(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	count := 1
	if len(args) >= 1 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			count = n
		}
	}
	for i := 0; i < count; i++ {
		m.pushBackstep()
		m.cpu.Step()
	}
	m.showRegisters()
	m.showDisassemblyAtPC(4)
	return false
}

// pushBackstep snapshots the machine before a step so bs can rewind.
func (m *MachineMonitor) pushBackstep() {
	m.stepHistory = append(m.stepHistory, TakeSnapshot(m.cpu))
	if len(m.stepHistory) > m.maxBackstep {
		m.stepHistory = m.stepHistory[len(m.stepHistory)-m.maxBackstep:]
	}
}

func (m *MachineMonitor) cmdBackstep(_ []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(m.stepHistory) == 0 {
		m.appendOutput("No step history", colorYellow)
		return false
	}
	snap := m.stepHistory[len(m.stepHistory)-1]
	m.stepHistory = m.stepHistory[:len(m.stepHistory)-1]
	RestoreSnapshot(m.cpu, snap)
	m.appendOutput("Stepped back (device state stays live)", colorYellow)
	m.showRegisters()
	m.showDisassemblyAtPC(4)
	return false
}

func (m *MachineMonitor) cmdGo(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) >= 1 {
		addr, ok := m.evalArg(args[0], "address")
		if !ok {
			return false
		}
		m.cpu.SetPC(addr)
	}
	m.stepHistory = nil
	m.cpu.Resume()
	m.appendOutput("Running", colorGreen)
	return false
}

func (m *MachineMonitor) cmdRunUntil(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 1 {
		m.appendOutput("Usage: u addr", colorYellow)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}

	// If the user already has a conditional breakpoint here, suspend
	// its condition for the trip so the stop is unconditional.
	if bp := m.cpu.GetConditionalBreakpoint(addr); bp != nil {
		if bp.Condition != nil {
			m.savedConditions[addr] = bp.Condition
			bp.Condition = nil
		}
	} else {
		m.cpu.SetBreakpoint(addr)
		m.tempBreakpoints[addr] = true
	}

	m.stepHistory = nil
	m.cpu.Resume()
	m.appendOutput(fmt.Sprintf("Running until &%04X", addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdExit(_ []string) bool {
	return true
}

func (m *MachineMonitor) cmdFreeze(_ []string) bool {
	if !m.requireCPU() {
		return false
	}
	if m.cpu.IsRunning() {
		m.cpu.Freeze()
	}
	m.appendOutput("CPU frozen", colorYellow)
	return false
}

func (m *MachineMonitor) cmdThaw(_ []string) bool {
	if !m.requireCPU() {
		return false
	}
	if !m.cpu.IsRunning() {
		m.cpu.Resume()
	}
	m.appendOutput("CPU running", colorGreen)
	return false
}

func (m *MachineMonitor) cmdFreezeAudio(_ []string) bool {
	if m.audioMute == nil {
		m.appendOutput("No audio wired", colorYellow)
		return false
	}
	m.audioMute(true)
	m.appendOutput("Audio muted", colorYellow)
	return false
}

func (m *MachineMonitor) cmdThawAudio(_ []string) bool {
	if m.audioMute == nil {
		m.appendOutput("No audio wired", colorYellow)
		return false
	}
	m.audioMute(false)
	m.appendOutput("Audio live", colorGreen)
	return false
}

// ---- breakpoints and watchpoints ----

func (m *MachineMonitor) cmdBreakpointSet(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) < 1 {
		m.appendOutput("Usage: b addr [if cond]", colorYellow)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}

	if len(args) >= 3 && strings.EqualFold(args[1], "if") {
		cond, err := ParseCondition(strings.Join(args[2:], ""))
		if err != nil {
			m.appendOutput("Bad condition: "+err.Error(), colorRed)
			return false
		}
		m.cpu.SetConditionalBreakpoint(addr, cond)
		m.appendOutput(fmt.Sprintf("Breakpoint at &%04X if %s", addr, FormatCondition(cond)), colorGreen)
		return false
	}

	m.cpu.SetBreakpoint(addr)
	m.appendOutput(fmt.Sprintf("Breakpoint at &%04X", addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) == 0 {
		m.cpu.ClearAllBreakpoints()
		m.tempBreakpoints = make(map[uint64]bool)
		m.savedConditions = make(map[uint64]*BreakpointCondition)
		m.appendOutput("All breakpoints cleared", colorGreen)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}
	if m.cpu.ClearBreakpoint(addr) {
		delete(m.tempBreakpoints, addr)
		delete(m.savedConditions, addr)
		m.appendOutput(fmt.Sprintf("Breakpoint at &%04X cleared", addr), colorGreen)
	} else {
		m.appendOutput(fmt.Sprintf("No breakpoint at &%04X", addr), colorYellow)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(_ []string) bool {
	if !m.requireCPU() {
		return false
	}
	bps := m.cpu.ListConditionalBreakpoints()
	if len(bps) == 0 {
		m.appendOutput("No breakpoints", colorDim)
		return false
	}
	for _, bp := range bps {
		line := fmt.Sprintf("  &%04X  hits=%d", bp.Address, bp.HitCount)
		if bp.Condition != nil {
			line += "  if " + FormatCondition(bp.Condition)
		}
		if m.tempBreakpoints[bp.Address] {
			line += "  (run-until)"
		}
		m.appendOutput(line, colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdWatchpointSet(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 1 {
		m.appendOutput("Usage: ww addr", colorYellow)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}
	m.cpu.SetWatchpoint(addr)
	m.appendOutput(fmt.Sprintf("Watchpoint at &%04X", addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdWatchpointClear(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) == 0 {
		m.cpu.ClearAllWatchpoints()
		m.appendOutput("All watchpoints cleared", colorGreen)
		return false
	}
	addr, ok := m.evalArg(args[0], "address")
	if !ok {
		return false
	}
	if m.cpu.ClearWatchpoint(addr) {
		m.appendOutput(fmt.Sprintf("Watchpoint at &%04X cleared", addr), colorGreen)
	} else {
		m.appendOutput(fmt.Sprintf("No watchpoint at &%04X", addr), colorYellow)
	}
	return false
}

func (m *MachineMonitor) cmdWatchpointList(_ []string) bool {
	if !m.requireCPU() {
		return false
	}
	wps := m.cpu.ListWatchpoints()
	if len(wps) == 0 {
		m.appendOutput("No watchpoints", colorDim)
		return false
	}
	for _, addr := range wps {
		m.appendOutput(fmt.Sprintf("  &%04X", addr), colorWhite)
	}
	return false
}

// ---- inspection ----

func (m *MachineMonitor) cmdBacktrace(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	depth := 8
	if len(args) >= 1 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			depth = n
		}
	}
	m.appendOutput(fmt.Sprintf("PC = &%04X", m.cpu.GetPC()), colorCyan)
	for i, addr := range backtrace(m.cpu, depth) {
		m.appendOutput(fmt.Sprintf("  SP+%-2d -> &%04X", i*2, addr), colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdIOView(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) == 0 {
		m.appendOutput("Devices: "+strings.Join(listIODevices(), ", "), colorCyan)
		return false
	}
	for _, line := range formatIOView(m.cpu, strings.ToLower(args[0])) {
		m.appendOutput(line, colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdTrace(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) < 1 {
		m.appendOutput("Usage: trace count [file]", colorYellow)
		return false
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count <= 0 {
		m.appendOutput("Bad count: "+args[0], colorRed)
		return false
	}

	var out *os.File
	if len(args) >= 2 {
		out, err = os.Create(args[1])
		if err != nil {
			m.appendOutput("Cannot open trace file: "+err.Error(), colorRed)
			return false
		}
		defer out.Close()
	}

	const echoLimit = 64
	for i := 0; i < count; i++ {
		lines := m.cpu.Disassemble(m.cpu.GetPC(), 1)
		if len(lines) == 1 {
			text := fmt.Sprintf("&%04X  %-12s %s", lines[0].Address, lines[0].HexBytes, lines[0].Mnemonic)
			if out != nil {
				fmt.Fprintln(out, text)
			}
			if i < echoLimit {
				m.appendOutput(text, colorDim)
			}
		}
		m.cpu.Step()
	}
	if count > echoLimit && out == nil {
		m.appendOutput(fmt.Sprintf("(%d more not shown - pass a file to keep the full trace)", count-echoLimit), colorYellow)
	}
	m.showRegisters()
	return false
}

// ---- files ----

func (m *MachineMonitor) cmdSaveMemory(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 3 {
		m.appendOutput("Usage: ss file addr len", colorYellow)
		return false
	}
	addr, ok1 := m.evalArg(args[1], "address")
	length, ok2 := m.evalArg(args[2], "length")
	if !ok1 || !ok2 {
		return false
	}
	data := m.cpu.ReadMemory(addr, int(length))
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		m.appendOutput("Save failed: "+err.Error(), colorRed)
		return false
	}
	m.appendOutput(fmt.Sprintf("Saved &%04X..&%04X to %s", addr, addr+length-1, args[0]), colorGreen)
	return false
}

func (m *MachineMonitor) cmdLoadMemory(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 2 {
		m.appendOutput("Usage: sl file addr", colorYellow)
		return false
	}
	addr, ok := m.evalArg(args[1], "address")
	if !ok {
		return false
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		m.appendOutput("Load failed: "+err.Error(), colorRed)
		return false
	}
	m.cpu.WriteMemory(addr, data)
	m.appendOutput(fmt.Sprintf("Loaded %d bytes at &%04X", len(data), addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdSaveState(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 1 {
		m.appendOutput("Usage: save file", colorYellow)
		return false
	}
	if err := SaveSnapshotToFile(TakeSnapshot(m.cpu), args[0]); err != nil {
		m.appendOutput("Save failed: "+err.Error(), colorRed)
		return false
	}
	m.appendOutput("State saved to "+args[0], colorGreen)
	return false
}

func (m *MachineMonitor) cmdLoadState(args []string) bool {
	if !m.requireCPU() {
		return false
	}
	if len(args) != 1 {
		m.appendOutput("Usage: load file", colorYellow)
		return false
	}
	snap, err := LoadSnapshotFromFile(args[0])
	if err != nil {
		m.appendOutput("Load failed: "+err.Error(), colorRed)
		return false
	}
	RestoreSnapshot(m.cpu, snap)
	m.appendOutput("State loaded from "+args[0], colorGreen)
	m.showRegisters()
	return false
}

// ---- help ----

func (m *MachineMonitor) cmdHelp(_ []string) bool {
	m.appendOutput("Monitor commands (numbers: &hex, #dec, register names, +/-):", colorCyan)
	for _, entry := range monitorCmds {
		m.appendOutput(fmt.Sprintf("  %-24s %s", entry.usage, entry.help), colorWhite)
	}
	return false
}
