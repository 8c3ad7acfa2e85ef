// autotype.go - Scripted keyboard-injection queue.
//
// A text string is parsed once into a queue of press/release/pause actions, then
// drained one action per Tick call so the host can feed it through
// the same key-apply path as a human keystroke. `~NAME~` presses a
// named key on one Tick and releases it on the next; `~+NAME~`/`~-NAME~` hold it
// open across multiple Tick calls; `~PAUSE n~` idles n frames; `~~`
// is a literal tilde, which has no CPC mapping and is dropped exactly
// like any other unmappable input character.
package autotype

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is an opaque CPC keyboard-matrix key identifier; the machine
// package supplies the concrete mapping to matrix row/column.
type Key uint16

type actionType int

const (
	actionCharPressRelease actionType = iota
	actionKeyPress
	actionKeyRelease
	actionPause
)

type action struct {
	kind   actionType
	key    Key
	frames int
}

// namedKeys resolves the `~NAME~` tokens Enqueue understands.
var namedKeys = map[string]Key{
	"ESC": keyEsc, "RETURN": keyReturn, "ENTER": keyReturn,
	"SPACE": keySpace, "TAB": keyTab, "DEL": keyDel,
	"COPY": keyCopy, "CONTROL": keyControl, "CTRL": keyControl,
	"SHIFT": keyLShift, "LSHIFT": keyLShift, "RSHIFT": keyRShift,
	"UP": keyCurUp, "DOWN": keyCurDown, "LEFT": keyCurLeft, "RIGHT": keyCurRight,
	"CLR": keyClr,
	"F0":  keyF0, "F1": keyF1, "F2": keyF2, "F3": keyF3, "F4": keyF4,
	"F5": keyF5, "F6": keyF6, "F7": keyF7, "F8": keyF8, "F9": keyF9,
	"J0_UP": keyJ0Up, "J0_DOWN": keyJ0Down, "J0_LEFT": keyJ0Left, "J0_RIGHT": keyJ0Right,
	"J0_FIRE1": keyJ0Fire1, "J0_FIRE2": keyJ0Fire2,
	"J1_UP": keyJ1Up, "J1_DOWN": keyJ1Down, "J1_LEFT": keyJ1Left, "J1_RIGHT": keyJ1Right,
	"J1_FIRE1": keyJ1Fire1, "J1_FIRE2": keyJ1Fire2,
}

// charToKey maps plain input characters to key identifiers.
var charToKey = map[rune]Key{
	'a': keyA, 'b': keyB, 'c': keyC, 'd': keyD, 'e': keyE, 'f': keyF, 'g': keyG,
	'h': keyH, 'i': keyI, 'j': keyJ, 'k': keyK, 'l': keyL, 'm': keyM, 'n': keyN,
	'o': keyO, 'p': keyP, 'q': keyQ, 'r': keyR, 's': keyS, 't': keyT, 'u': keyU,
	'v': keyV, 'w': keyW, 'x': keyX, 'y': keyY, 'z': keyZ,
	'A': keyShiftA, 'B': keyShiftB, 'C': keyShiftC, 'D': keyShiftD, 'E': keyShiftE,
	'F': keyShiftF, 'G': keyShiftG, 'H': keyShiftH, 'I': keyShiftI, 'J': keyShiftJ,
	'K': keyShiftK, 'L': keyShiftL, 'M': keyShiftM, 'N': keyShiftN, 'O': keyShiftO,
	'P': keyShiftP, 'Q': keyShiftQ, 'R': keyShiftR, 'S': keyShiftS, 'T': keyShiftT,
	'U': keyShiftU, 'V': keyShiftV, 'W': keyShiftW, 'X': keyShiftX, 'Y': keyShiftY,
	'Z': keyShiftZ,
	'0': key0, '1': key1, '2': key2, '3': key3, '4': key4,
	'5': key5, '6': key6, '7': key7, '8': key8, '9': key9,
	' ': keySpace, '\n': keyReturn, '\r': keyReturn,
	'.': keyPeriod, ',': keyComma, ';': keySemicolon, ':': keyColon,
	'-': keyMinus, '+': keyPlus, '/': keySlash, '*': keyAsterisk, '=': keyEqual,
	'(': keyLeftParen, ')': keyRightParen, '[': keyLBracket, ']': keyRBracket,
	'{': keyLCBrace, '}': keyRCBrace, '<': keyLess, '>': keyGreater,
	'?': keyQuestion, '!': keyExclaim, '@': keyAt, '#': keyHash, '$': keyDollar,
	'%': keyPercent, '^': keyPower, '&': keyAmpersand, '|': keyPipe, '\\': keyBackslash,
	'"': keyDblQuote, '\'': keyQuote, '`': keyBackquote, '_': keyUnderscore,
}

func resolveKeyName(name string) (Key, bool) {
	if k, ok := namedKeys[strings.ToUpper(name)]; ok {
		return k, true
	}
	if len([]rune(name)) == 1 {
		if k, ok := charToKey[[]rune(name)[0]]; ok {
			return k, true
		}
	}
	return 0, false
}

// Queue holds pending autotype actions and the press/release/pause
// state machine driving them one Tick at a time.
type Queue struct {
	actions []action

	awaitingRelease  bool
	pendingReleaseKey Key
	pauseCounter     int
}

// New returns an empty queue.
func New() *Queue { return &Queue{} }

// Enqueue parses text and appends its actions to the queue. On a
// parse error the queue is left unchanged and the error describes
// the bad token.
func (q *Queue) Enqueue(text string) error {
	var parsed []action
	runes := []rune(text)

	for i := 0; i < len(runes); {
		if runes[i] == '~' {
			if i+1 < len(runes) && runes[i+1] == '~' {
				i += 2
				continue
			}
			close := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '~' {
					close = j
					break
				}
			}
			if close < 0 {
				return fmt.Errorf("autotype: unclosed ~ at position %d", i)
			}
			tag := string(runes[i+1 : close])
			if tag == "" {
				return fmt.Errorf("autotype: empty ~~ tag at position %d", i)
			}

			switch {
			case len(tag) > 6 && strings.EqualFold(tag[:6], "PAUSE "):
				n, err := strconv.Atoi(strings.TrimSpace(tag[6:]))
				if err != nil || n < 1 {
					return fmt.Errorf("autotype: bad PAUSE value: %s", tag)
				}
				parsed = append(parsed, action{kind: actionPause, frames: n})

			case len(tag) >= 2 && (tag[0] == '+' || tag[0] == '-'):
				press := tag[0] == '+'
				key, ok := resolveKeyName(tag[1:])
				if !ok {
					return fmt.Errorf("autotype: unknown key: %s", tag[1:])
				}
				kind := actionKeyRelease
				if press {
					kind = actionKeyPress
				}
				parsed = append(parsed, action{kind: kind, key: key})

			default:
				key, ok := resolveKeyName(tag)
				if !ok {
					return fmt.Errorf("autotype: unknown key: %s", tag)
				}
				parsed = append(parsed, action{kind: actionCharPressRelease, key: key})
			}
			i = close + 1
			continue
		}

		key, ok := charToKey[runes[i]]
		if !ok {
			i++
			continue
		}
		parsed = append(parsed, action{kind: actionCharPressRelease, key: key})
		i++
	}

	q.actions = append(q.actions, parsed...)
	return nil
}

// Tick drains at most one action, invoking apply(key, pressed) as
// needed, and reports whether the queue still has work pending.
func (q *Queue) Tick(apply func(key Key, pressed bool)) bool {
	if q.awaitingRelease {
		apply(q.pendingReleaseKey, false)
		q.awaitingRelease = false
		q.pendingReleaseKey = 0
		return len(q.actions) > 0
	}

	if q.pauseCounter > 0 {
		q.pauseCounter--
		return true
	}

	if len(q.actions) == 0 {
		return false
	}

	a := q.actions[0]
	q.actions = q.actions[1:]

	switch a.kind {
	case actionCharPressRelease:
		apply(a.key, true)
		q.awaitingRelease = true
		q.pendingReleaseKey = a.key
		return true
	case actionKeyPress:
		apply(a.key, true)
		return len(q.actions) > 0 || q.awaitingRelease
	case actionKeyRelease:
		apply(a.key, false)
		return len(q.actions) > 0 || q.awaitingRelease
	case actionPause:
		q.pauseCounter = a.frames - 1
		return true
	}
	return false
}

// IsActive reports whether the queue has pending actions, a latched
// release, or an in-progress pause.
func (q *Queue) IsActive() bool {
	return len(q.actions) > 0 || q.awaitingRelease || q.pauseCounter > 0
}

// Remaining reports the number of un-started actions (excludes any
// latched pending release).
func (q *Queue) Remaining() int { return len(q.actions) }

// Clear discards all queued actions and resets the state machine.
func (q *Queue) Clear() {
	q.actions = nil
	q.pauseCounter = 0
	q.awaitingRelease = false
	q.pendingReleaseKey = 0
}
