package console

import (
	"bytes"
	"testing"
)

func TestReadLine_Empty(t *testing.T) {
	c := NewConsole()
	if _, ok := c.ReadLine(); ok {
		t.Error("expected no line on a fresh console")
	}
}

func TestReadLine_CompleteLine(t *testing.T) {
	c := NewConsole()
	for _, b := range []byte("help\n") {
		c.EnqueueByte(b)
	}
	if !c.LineAvailable() {
		t.Fatal("expected LineAvailable after newline")
	}
	line, ok := c.ReadLine()
	if !ok || line != "help" {
		t.Errorf("got (%q, %v), want (\"help\", true)", line, ok)
	}
	if c.LineAvailable() {
		t.Error("line should be consumed")
	}
}

func TestReadLine_PartialLineNotAvailable(t *testing.T) {
	c := NewConsole()
	for _, b := range []byte("hel") {
		c.EnqueueByte(b)
	}
	if c.LineAvailable() {
		t.Error("partial line must not be available")
	}
	if _, ok := c.ReadLine(); ok {
		t.Error("ReadLine must not return a partial line")
	}
}

func TestReadLine_MultipleLines(t *testing.T) {
	c := NewConsole()
	for _, b := range []byte("one\ntwo\n") {
		c.EnqueueByte(b)
	}
	first, ok := c.ReadLine()
	if !ok || first != "one" {
		t.Fatalf("first line: got (%q, %v)", first, ok)
	}
	second, ok := c.ReadLine()
	if !ok || second != "two" {
		t.Fatalf("second line: got (%q, %v)", second, ok)
	}
}

func TestReadLine_EmptyLine(t *testing.T) {
	c := NewConsole()
	c.EnqueueByte('\n')
	line, ok := c.ReadLine()
	if !ok || line != "" {
		t.Errorf("got (%q, %v), want (\"\", true)", line, ok)
	}
}

func TestRouteHostKey_LineMode(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	for _, b := range []byte("run\n") {
		c.RouteHostKey(b)
	}
	line, ok := c.ReadLine()
	if !ok || line != "run" {
		t.Errorf("got (%q, %v)", line, ok)
	}
	if c.KeyPending() {
		t.Error("line-mode input must not land in the key queue")
	}
}

func TestRouteHostKey_RawMode(t *testing.T) {
	c := NewConsole()
	c.RouteHostKey('x')
	if c.LineAvailable() {
		t.Error("raw-mode input must not land in the line queue")
	}
	b, ok := c.ReadKey()
	if !ok || b != 'x' {
		t.Errorf("got (%q, %v)", b, ok)
	}
	if _, ok := c.ReadKey(); ok {
		t.Error("key should be consumed")
	}
}

func TestRouteHostKey_BackspaceEditsPendingLine(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	for _, b := range []byte("rxn") {
		c.RouteHostKey(b)
	}
	c.RouteHostKey(0x08)
	c.RouteHostKey(0x08)
	for _, b := range []byte("un\n") {
		c.RouteHostKey(b)
	}
	line, ok := c.ReadLine()
	if !ok || line != "run" {
		t.Errorf("got (%q, %v), want (\"run\", true)", line, ok)
	}
}

func TestRouteHostKey_BackspaceOnEmptyLineIgnored(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	c.RouteHostKey(0x08)
	c.RouteHostKey('a')
	c.RouteHostKey('\n')
	line, ok := c.ReadLine()
	if !ok || line != "a" {
		t.Errorf("got (%q, %v)", line, ok)
	}
}

func TestRouteHostKey_BackspaceStopsAtCompletedLine(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	for _, b := range []byte("ok\n") {
		c.RouteHostKey(b)
	}
	c.RouteHostKey(0x08) // must not eat the completed line's newline
	line, ok := c.ReadLine()
	if !ok || line != "ok" {
		t.Errorf("got (%q, %v)", line, ok)
	}
}

func TestEcho_LineMode(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	var out bytes.Buffer
	c.SetEcho(&out)
	for _, b := range []byte("m\n") {
		c.RouteHostKey(b)
	}
	if got := out.String(); got != "m\r\n" {
		t.Errorf("echo = %q, want %q", got, "m\r\n")
	}
}

func TestEcho_BackspaceErases(t *testing.T) {
	c := NewConsole()
	c.SetLineMode(true)
	var out bytes.Buffer
	c.SetEcho(&out)
	c.RouteHostKey('a')
	c.RouteHostKey(0x08)
	if got := out.String(); got != "a\b \b" {
		t.Errorf("echo = %q, want %q", got, "a\b \b")
	}
}

func TestEcho_RawModeSilent(t *testing.T) {
	c := NewConsole()
	var out bytes.Buffer
	c.SetEcho(&out)
	c.RouteHostKey('a')
	if out.Len() != 0 {
		t.Errorf("raw-mode keys must not echo, got %q", out.String())
	}
}

func TestRawKeySequencePreserved(t *testing.T) {
	c := NewConsole()
	for _, b := range []byte("abc") {
		c.EnqueueRawKey(b)
	}
	for _, want := range []byte("abc") {
		got, ok := c.ReadKey()
		if !ok || got != want {
			t.Fatalf("got (%q, %v), want %q", got, ok, want)
		}
	}
}

func TestRawKeyBufferFullDropsNewest(t *testing.T) {
	c := NewConsole()
	for i := 0; i < 300; i++ {
		c.EnqueueRawKey(byte(i))
	}
	count := 0
	for {
		if _, ok := c.ReadKey(); !ok {
			break
		}
		count++
	}
	if count != 256 {
		t.Errorf("buffered %d keys, want 256", count)
	}
}

func TestLineBufferWrap(t *testing.T) {
	c := NewConsole()
	// Fill and drain repeatedly so head/tail wrap the ring.
	for round := 0; round < 5; round++ {
		for _, b := range []byte("wrap test line\n") {
			c.EnqueueByte(b)
		}
		line, ok := c.ReadLine()
		if !ok || line != "wrap test line" {
			t.Fatalf("round %d: got (%q, %v)", round, line, ok)
		}
	}
}
