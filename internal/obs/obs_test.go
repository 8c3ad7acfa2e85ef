package obs

import "testing"

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("not-a-level", FormatConsole); err == nil {
		t.Fatal("expected an error for an invalid log level")
	}
}

func TestNew_NamedChildDoesNotPanic(t *testing.T) {
	log, err := New("debug", FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fdc := log.Named("fdc")
	fdc.Infof("seek track %d", 4)
	fdc.With("drive", 0).Warnf("recalibrate")
	if err := log.Sync(); err != nil {
		// Syncing stderr commonly fails under test harnesses; only
		// fail on an unexpected error type surfacing as a panic.
		t.Logf("Sync: %v", err)
	}
}

func TestNop_NeverPanics(t *testing.T) {
	log := Nop()
	log.Debugf("x")
	log.Named("crtc").Errorf("y")
}
