// console.go - host-side input console for the debugger REPL.
//
// Console is a pure state machine: it owns a line-input ring buffer,
// a raw-keystroke ring buffer, a mode flag choosing between them, and
// an optional echo sink. Tests inject characters via EnqueueByte();
// the host adapter (Host) feeds stdin bytes through RouteHostKey.
package console

import (
	"io"
	"sync"
)

type Console struct {
	mu sync.Mutex

	// Line-input ring buffer
	lineBuf  [1024]byte
	lineHead int // next read position
	lineTail int // next write position
	lineLen  int // number of bytes in buffer
	newlines int // count of '\n' in buffer (for LineAvailable)

	// Raw keystroke ring buffer for per-key input.
	rawKeyBuf  [256]byte
	rawKeyHead int
	rawKeyTail int
	rawKeyLen  int

	lineMode bool

	// echo, when non-nil, receives typed characters in line mode so
	// the user can see what they are typing under a raw-mode tty.
	echo io.Writer
}

// NewConsole creates a console in raw-keystroke mode with no echo.
func NewConsole() *Console {
	return &Console{}
}

// SetEcho routes typed line-mode characters to w. Pass nil to
// silence echo again.
func (c *Console) SetEcho(w io.Writer) {
	c.mu.Lock()
	c.echo = w
	c.mu.Unlock()
}

// SetLineMode switches between whole-line input (ReadLine) and
// per-keystroke input (ReadKey).
func (c *Console) SetLineMode(on bool) {
	c.mu.Lock()
	c.lineMode = on
	c.mu.Unlock()
}

func (c *Console) LineMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lineMode
}

// RouteHostKey atomically checks line mode and routes the key to
// exactly one queue. In line mode a backspace edits the pending
// line in place rather than being queued.
func (c *Console) RouteHostKey(b byte) {
	var echoFn io.Writer
	var echoSeq []byte

	c.mu.Lock()
	if !c.lineMode {
		c.enqueueRawKeyLocked(b)
		c.mu.Unlock()
		return
	}
	switch b {
	case 0x08:
		if c.dropPendingByteLocked() {
			echoSeq = []byte("\b \b")
		}
	case '\n':
		c.enqueueLineByteLocked(b)
		echoSeq = []byte("\r\n")
	default:
		c.enqueueLineByteLocked(b)
		echoSeq = []byte{b}
	}
	echoFn = c.echo
	c.mu.Unlock()

	// Echo outside the lock: the sink is usually stdout, which can
	// block.
	if echoFn != nil && len(echoSeq) > 0 {
		echoFn.Write(echoSeq)
	}
}

// EnqueueByte adds a byte straight to the line-input buffer,
// bypassing mode routing and echo. Test injection path.
func (c *Console) EnqueueByte(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLineByteLocked(b)
}

// EnqueueRawKey adds a byte straight to the raw-keystroke buffer.
func (c *Console) EnqueueRawKey(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueRawKeyLocked(b)
}

// LineAvailable reports whether a complete '\n'-terminated line is
// buffered.
func (c *Console) LineAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newlines > 0
}

// ReadLine dequeues one complete line, without its trailing newline.
// The second return is false when no full line is buffered yet.
func (c *Console) ReadLine() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.newlines == 0 {
		return "", false
	}
	var line []byte
	for {
		b := c.dequeueLineByteLocked()
		if b == '\n' {
			return string(line), true
		}
		line = append(line, b)
	}
}

// ReadKey dequeues one raw keystroke. The second return is false
// when none is pending.
func (c *Console) ReadKey() (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rawKeyLen == 0 {
		return 0, false
	}
	b := c.rawKeyBuf[c.rawKeyHead]
	c.rawKeyHead = (c.rawKeyHead + 1) % len(c.rawKeyBuf)
	c.rawKeyLen--
	return b, true
}

// KeyPending reports whether ReadKey would succeed.
func (c *Console) KeyPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawKeyLen > 0
}

func (c *Console) enqueueLineByteLocked(b byte) {
	if c.lineLen >= len(c.lineBuf) {
		return
	}
	c.lineBuf[c.lineTail] = b
	c.lineTail = (c.lineTail + 1) % len(c.lineBuf)
	c.lineLen++
	if b == '\n' {
		c.newlines++
	}
}

func (c *Console) dequeueLineByteLocked() byte {
	b := c.lineBuf[c.lineHead]
	c.lineHead = (c.lineHead + 1) % len(c.lineBuf)
	c.lineLen--
	if b == '\n' {
		c.newlines--
	}
	return b
}

// dropPendingByteLocked removes the most recently queued byte of the
// line being edited. It refuses to eat a previously completed line's
// newline.
func (c *Console) dropPendingByteLocked() bool {
	if c.lineLen == 0 {
		return false
	}
	last := (c.lineTail - 1 + len(c.lineBuf)) % len(c.lineBuf)
	if c.lineBuf[last] == '\n' {
		return false
	}
	c.lineTail = last
	c.lineLen--
	return true
}

func (c *Console) enqueueRawKeyLocked(b byte) {
	if c.rawKeyLen >= len(c.rawKeyBuf) {
		return
	}
	c.rawKeyBuf[c.rawKeyTail] = b
	c.rawKeyTail = (c.rawKeyTail + 1) % len(c.rawKeyBuf)
	c.rawKeyLen++
}
