package iodispatch

import "testing"

type fakeHandler struct {
	name    string
	enabled bool
	match   bool
	value   byte

	inCalls  int
	outCalls int
	lastPort uint16
	lastVal  byte
}

func (f *fakeHandler) In(port uint16) (byte, bool) {
	f.inCalls++
	f.lastPort = port
	return f.value, f.match
}

func (f *fakeHandler) Out(port uint16, value byte) bool {
	f.outCalls++
	f.lastPort = port
	f.lastVal = value
	return f.match
}

func (f *fakeHandler) Enabled() bool { return f.enabled }
func (f *fakeHandler) Name() string  { return f.name }

type fakeReadHook struct {
	enabled bool
	mask    byte
	lines   []int
}

func (h *fakeReadHook) ReadMask(line int) byte {
	h.lines = append(h.lines, line)
	return h.mask
}

func (h *fakeReadHook) Enabled() bool { return h.enabled }

type fakeNotify struct {
	enabled bool
	values  []int
}

func (h *fakeNotify) Notify(value int) { h.values = append(h.values, value) }
func (h *fakeNotify) Enabled() bool    { return h.enabled }

func TestDispatchOutRunsHandlerOnce(t *testing.T) {
	tbl := New()
	h := &fakeHandler{name: "test", enabled: true, match: true}
	tbl.RegisterOut(0xFF, h)

	tbl.DispatchOut(0xFF00, 0x42)

	if h.outCalls != 1 {
		t.Fatalf("handler ran %d times, want 1", h.outCalls)
	}
	if h.lastVal != 0x42 || h.lastPort != 0xFF00 {
		t.Errorf("handler saw port %04X value %02X", h.lastPort, h.lastVal)
	}
}

func TestDispatchOutSkipsOtherHighBytes(t *testing.T) {
	tbl := New()
	h := &fakeHandler{name: "test", enabled: true, match: true}
	tbl.RegisterOut(0xFF, h)

	tbl.DispatchOut(0xFE00, 0x42)

	if h.outCalls != 0 {
		t.Errorf("handler ran for the wrong high byte")
	}
}

func TestDispatchOutDisabledHandlerSkipped(t *testing.T) {
	tbl := New()
	h := &fakeHandler{name: "off", enabled: false, match: true}
	tbl.RegisterOut(0xFF, h)

	tbl.DispatchOut(0xFF00, 0x42)

	if h.outCalls != 0 {
		t.Errorf("disabled handler must not run")
	}
}

func TestDispatchOutAllEnabledHandlersRun(t *testing.T) {
	tbl := New()
	a := &fakeHandler{name: "a", enabled: true, match: true}
	b := &fakeHandler{name: "b", enabled: true, match: false}
	tbl.RegisterOut(0xFB, a)
	tbl.RegisterOut(0xFB, b)

	tbl.DispatchOut(0xFB7E, 0x01)

	if a.outCalls != 1 || b.outCalls != 1 {
		t.Errorf("both handlers must observe a shared port write (a=%d b=%d)", a.outCalls, b.outCalls)
	}
}

func TestDispatchInLastMatchWins(t *testing.T) {
	tbl := New()
	a := &fakeHandler{name: "a", enabled: true, match: true, value: 0x11}
	b := &fakeHandler{name: "b", enabled: true, match: true, value: 0x22}
	tbl.RegisterIn(0xFD, a)
	tbl.RegisterIn(0xFD, b)

	if got := tbl.DispatchIn(0xFD00, 0xFF); got != 0x22 {
		t.Errorf("got %02X, want the later handler's 0x22", got)
	}
}

func TestDispatchInUnmatchedLeavesCurrent(t *testing.T) {
	tbl := New()
	h := &fakeHandler{name: "nomatch", enabled: true, match: false, value: 0x11}
	tbl.RegisterIn(0xFD, h)

	if got := tbl.DispatchIn(0xFD00, 0xAB); got != 0xAB {
		t.Errorf("got %02X, want the composed value 0xAB untouched", got)
	}
	if h.inCalls != 1 {
		t.Errorf("handler must still be offered the port")
	}
}

func TestRegistrationCapSilentlyDrops(t *testing.T) {
	tbl := New()
	handlers := make([]*fakeHandler, 6)
	for i := range handlers {
		handlers[i] = &fakeHandler{enabled: true, match: true}
		tbl.RegisterOut(0x80, handlers[i])
	}

	tbl.DispatchOut(0x8000, 1)

	for i, h := range handlers {
		want := 1
		if i >= maxPortHandlers {
			want = 0
		}
		if h.outCalls != want {
			t.Errorf("handler %d ran %d times, want %d", i, h.outCalls, want)
		}
	}
}

func TestKeyboardReadHooksANDTogether(t *testing.T) {
	tbl := New()
	a := &fakeReadHook{enabled: true, mask: 0xFE}
	b := &fakeReadHook{enabled: true, mask: 0x7F}
	off := &fakeReadHook{enabled: false, mask: 0x00}
	tbl.RegisterKeyboardReadHook(a)
	tbl.RegisterKeyboardReadHook(b)
	tbl.RegisterKeyboardReadHook(off)

	if got := tbl.FireKeyboardReadHooks(9); got != 0x7E {
		t.Errorf("mask = %02X, want FE & 7F = 7E", got)
	}
	if len(a.lines) != 1 || a.lines[0] != 9 {
		t.Errorf("hook saw lines %v", a.lines)
	}
	if len(off.lines) != 0 {
		t.Errorf("disabled hook must not be consulted")
	}
}

func TestKeyboardReadHooksIdentityWhenEmpty(t *testing.T) {
	tbl := New()
	if got := tbl.FireKeyboardReadHooks(0); got != 0xFF {
		t.Errorf("mask = %02X, want identity 0xFF", got)
	}
}

func TestMotorHooksCarryOnOff(t *testing.T) {
	tbl := New()
	tape := &fakeNotify{enabled: true}
	fdcH := &fakeNotify{enabled: true}
	tbl.RegisterTapeMotorHook(tape)
	tbl.RegisterFDCMotorHook(fdcH)

	tbl.FireTapeMotorHooks(true)
	tbl.FireTapeMotorHooks(false)
	tbl.FireFDCMotorHooks(true)

	if len(tape.values) != 2 || tape.values[0] != 1 || tape.values[1] != 0 {
		t.Errorf("tape hook saw %v", tape.values)
	}
	if len(fdcH.values) != 1 || fdcH.values[0] != 1 {
		t.Errorf("fdc hook saw %v", fdcH.values)
	}
}

func TestClearDropsEverything(t *testing.T) {
	tbl := New()
	h := &fakeHandler{enabled: true, match: true}
	n := &fakeNotify{enabled: true}
	tbl.RegisterOut(0xFF, h)
	tbl.RegisterKeyboardLineHook(n)

	tbl.Clear()
	tbl.DispatchOut(0xFF00, 1)
	tbl.FireKeyboardLineHooks(3)

	if h.outCalls != 0 || len(n.values) != 0 {
		t.Errorf("Clear left registrations behind")
	}
}
