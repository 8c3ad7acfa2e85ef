// blocks.go - TZX/CDT block-level parsing.
//
// Each block starts with a one-byte type ID; the ID determines how
// the block's length is found and whether it carries playable data.
// Unknown IDs of 0x50 and above carry a 4-byte little-endian length
// prefix, so newer block types skip cleanly.

package tape

import (
	"encoding/binary"
	"fmt"
)

// block is one parsed TZX block: its ID, its total on-image size
// (including the ID byte), and its playable payload (nil for the
// informational block types).
type block struct {
	ID        byte
	TotalSize int
	Data      []byte
}

func le16(b []byte) int { return int(binary.LittleEndian.Uint16(b)) }

func le24(b []byte) int { return int(b[0]) | int(b[1])<<8 | int(b[2])<<16 }

func le32(b []byte) int { return int(binary.LittleEndian.Uint32(b)) }

// need reports an error when data holds fewer than n bytes past the
// ID byte.
func need(data []byte, n int) error {
	if len(data) < 1+n {
		return fmt.Errorf("tape: truncated block 0x%02X", data[0])
	}
	return nil
}

// parseBlock decodes the block starting at data[0]. Only the three
// data-bearing kinds (standard speed 0x10, turbo speed 0x11, pure
// data 0x14) yield a payload; everything else is parsed for its size
// alone.
func parseBlock(data []byte) (block, error) {
	if len(data) == 0 {
		return block{}, fmt.Errorf("tape: empty block")
	}
	id := data[0]
	body := data[1:]

	fixed := func(n int) (block, error) {
		if err := need(data, n); err != nil {
			return block{}, err
		}
		return block{ID: id, TotalSize: 1 + n}, nil
	}
	withPayload := func(header, length int) (block, error) {
		if err := need(data, header+length); err != nil {
			return block{}, err
		}
		return block{ID: id, TotalSize: 1 + header + length, Data: body[header : header+length]}, nil
	}

	switch id {
	case 0x10: // standard speed data: pause(2) len(2) data
		if err := need(data, 4); err != nil {
			return block{}, err
		}
		return withPayload(4, le16(body[2:4]))
	case 0x11: // turbo speed data: timing(15) len(3) data
		if err := need(data, 18); err != nil {
			return block{}, err
		}
		return withPayload(18, le24(body[15:18]))
	case 0x12: // pure tone: pulse length(2) count(2)
		return fixed(4)
	case 0x13: // pulse sequence: count(1) + 2*count
		if err := need(data, 1); err != nil {
			return block{}, err
		}
		return fixed(1 + 2*int(body[0]))
	case 0x14: // pure data: zero(2) one(2) used(1) pause(2) len(3) data
		if err := need(data, 10); err != nil {
			return block{}, err
		}
		return withPayload(10, le24(body[7:10]))
	case 0x15: // direct recording: tstates(2) pause(2) used(1) len(3) data
		if err := need(data, 8); err != nil {
			return block{}, err
		}
		return fixed(8 + le24(body[5:8]))
	case 0x20: // pause / stop the tape
		return fixed(2)
	case 0x21: // group start: name length(1) + name
		if err := need(data, 1); err != nil {
			return block{}, err
		}
		return fixed(1 + int(body[0]))
	case 0x22: // group end
		return fixed(0)
	case 0x30: // text description: length(1) + text
		if err := need(data, 1); err != nil {
			return block{}, err
		}
		return fixed(1 + int(body[0]))
	case 0x31: // message: display time(1) length(1) + text
		if err := need(data, 2); err != nil {
			return block{}, err
		}
		return fixed(2 + int(body[1]))
	case 0x32: // archive info: length(2) + entries
		if err := need(data, 2); err != nil {
			return block{}, err
		}
		return fixed(2 + le16(body[0:2]))
	case 0x33: // hardware type: count(1) + 3*count
		if err := need(data, 1); err != nil {
			return block{}, err
		}
		return fixed(1 + 3*int(body[0]))
	case 0x34: // emulation info
		return fixed(8)
	case 0x35: // custom info: id(16) length(4) + payload
		if err := need(data, 20); err != nil {
			return block{}, err
		}
		return fixed(20 + le32(body[16:20]))
	case 0x40: // snapshot (deprecated): type(1) length(3) + payload
		if err := need(data, 4); err != nil {
			return block{}, err
		}
		return fixed(4 + le24(body[1:4]))
	case 0x5A: // glue block
		return fixed(9)
	default:
		if id >= 0x50 { // forward compatibility: 4-byte length prefix
			if err := need(data, 4); err != nil {
				return block{}, err
			}
			return fixed(4 + le32(body[0:4]))
		}
		return block{}, fmt.Errorf("tape: unknown block type 0x%02X", id)
	}
}
