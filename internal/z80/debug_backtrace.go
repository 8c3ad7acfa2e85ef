// debug_backtrace.go - stack walk for the monitor's bt command.

package z80

import "encoding/binary"

// backtrace reads up to depth 16-bit little-endian words from SP
// upward. On a Z80 there is no frame-pointer chain to follow, so
// every stacked word is shown and the reader decides which are
// return addresses and which are PUSHed data.
func backtrace(cpu DebuggableCPU, depth int) []uint64 {
	sp, _ := cpu.GetRegister("SP")
	result := make([]uint64, 0, depth)
	for range depth {
		data := cpu.ReadMemory(sp, 2)
		if len(data) < 2 {
			break
		}
		result = append(result, uint64(binary.LittleEndian.Uint16(data)))
		sp += 2
	}
	return result
}
