// debug_disasm_z80.go - Z80 disassembler for the machine monitor.
//
// Decode mirrors cpu_z80.go's algebraic x/y/z field walk, so the two
// stay in lockstep: an opcode the core executes is an opcode this
// prints, prefix chains and the undocumented IXH/IXL column included.
// Output follows the CPC assembler convention (Maxam, and every
// listing printed in Amstrad Action): hex is written with a leading
// ampersand, so a breakpoint target reads LD HL,&C000, not $C000.

package z80

import (
	"fmt"
	"strings"
)

var (
	dzReg8   = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	dzPair   = [4]string{"BC", "DE", "HL", "SP"}
	dzStack  = [4]string{"BC", "DE", "HL", "AF"}
	dzCond   = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	dzALU    = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	dzRot    = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
	dzRotA   = [4]string{"RLCA", "RRCA", "RLA", "RRA"}
	dzMiscX0 = [4]string{"DAA", "CPL", "SCF", "CCF"}
	dzBlock  = [4][4]string{
		{"LDI", "CPI", "INI", "OUTI"},
		{"LDD", "CPD", "IND", "OUTD"},
		{"LDIR", "CPIR", "INIR", "OTIR"},
		{"LDDR", "CPDR", "INDR", "OTDR"},
	}
)

// dzCursor walks the byte stream while a single instruction decodes,
// so operand fetches and the final size fall out of one counter.
type dzCursor struct {
	data []byte
	pos  int
	ok   bool
}

func (cu *dzCursor) u8() byte {
	if cu.pos >= len(cu.data) {
		cu.ok = false
		return 0
	}
	b := cu.data[cu.pos]
	cu.pos++
	return b
}

func (cu *dzCursor) u16() uint16 {
	low := cu.u8()
	return uint16(cu.u8())<<8 | uint16(low)
}

func (cu *dzCursor) disp() int8 { return int8(cu.u8()) }

func hx8(v byte) string    { return fmt.Sprintf("&%02X", v) }
func hx16(v uint16) string { return fmt.Sprintf("&%04X", v) }

// idxOperand renders (IX+d) / (IY-d) with a signed displacement.
func idxOperand(idx string, d int8) string {
	if d < 0 {
		return fmt.Sprintf("(%s-&%02X)", idx, -int(d))
	}
	return fmt.Sprintf("(%s+&%02X)", idx, d)
}

// disassembleZ80 decodes count instructions starting at addr,
// flagging the control-flow ones so the monitor can draw branch
// arrows and resolve step-over targets.
func disassembleZ80(readMem func(addr uint64, size int) []byte, addr uint64, count int) []DisassembledLine {
	var lines []DisassembledLine
	for range count {
		data := readMem(addr, 6) // longest form: DD 36 d n and friends
		if len(data) < 1 {
			break
		}
		cu := &dzCursor{data: data, ok: true}
		mnemonic := decodeOne(cu, uint16(addr))
		size := cu.pos
		if !cu.ok {
			mnemonic = "db " + hx8(data[0])
			size = 1
		}

		var hexParts []string
		for j := 0; j < size && j < len(data); j++ {
			hexParts = append(hexParts, fmt.Sprintf("%02X", data[j]))
		}
		line := DisassembledLine{
			Address:  addr,
			HexBytes: strings.Join(hexParts, " "),
			Mnemonic: mnemonic,
			Size:     size,
		}
		line.IsBranch, line.BranchTarget = branchTarget(data, uint16(addr))

		lines = append(lines, line)
		addr += uint64(size)
	}
	return lines
}

// branchTarget recognises the absolute and relative jumps whose
// destination is knowable statically.
func branchTarget(data []byte, pc uint16) (bool, uint64) {
	op := data[0]
	x := op >> 6
	z := op & 0x07
	switch {
	case op == 0xC3 || op == 0xCD || (x == 3 && (z == 2 || z == 4)): // JP/CALL [cc,]nn
		if len(data) >= 3 {
			return true, uint64(uint16(data[1]) | uint16(data[2])<<8)
		}
		return true, 0
	case op == 0x18 || op == 0x10 || (op >= 0x20 && op <= 0x38 && z == 0): // JR/DJNZ
		if len(data) >= 2 {
			return true, uint64(pc + 2 + uint16(int8(data[1])))
		}
		return true, 0
	}
	return false, 0
}

func decodeOne(cu *dzCursor, pc uint16) string {
	op := cu.u8()
	switch op {
	case 0xCB:
		return decodeCBPage(cu.u8(), "")
	case 0xED:
		return decodeEDPage(cu)
	case 0xDD:
		return decodeIndexedPage(cu, pc, "IX")
	case 0xFD:
		return decodeIndexedPage(cu, pc, "IY")
	}
	return decodeBasePage(cu, pc, op, "")
}

// decodeBasePage renders an unprefixed opcode. idx is empty for the
// true base page; under a prefix it names the index register so the
// undocumented H/L substitutions print as IXH/IYL.
func decodeBasePage(cu *dzCursor, pc uint16, op byte, idx string) string {
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07
	p := y >> 1
	q := y & 1

	r8 := func(code byte) string {
		if idx != "" && (code == 4 || code == 5) {
			return idx + dzReg8[code]
		}
		return dzReg8[code]
	}

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return "NOP"
			case 1:
				return "EX AF,AF'"
			case 2:
				return "DJNZ " + hx16(pc+2+uint16(cu.disp()))
			case 3:
				return "JR " + hx16(pc+2+uint16(cu.disp()))
			default:
				return fmt.Sprintf("JR %s,%s", dzCond[y-4], hx16(pc+2+uint16(cu.disp())))
			}
		case 1:
			if q == 0 {
				return fmt.Sprintf("LD %s,%s", dzPair[p], hx16(cu.u16()))
			}
			return "ADD HL," + dzPair[p]
		case 2:
			switch y {
			case 0:
				return "LD (BC),A"
			case 1:
				return "LD A,(BC)"
			case 2:
				return "LD (DE),A"
			case 3:
				return "LD A,(DE)"
			case 4:
				return fmt.Sprintf("LD (%s),HL", hx16(cu.u16()))
			case 5:
				return fmt.Sprintf("LD HL,(%s)", hx16(cu.u16()))
			case 6:
				return fmt.Sprintf("LD (%s),A", hx16(cu.u16()))
			default:
				return fmt.Sprintf("LD A,(%s)", hx16(cu.u16()))
			}
		case 3:
			if q == 0 {
				return "INC " + dzPair[p]
			}
			return "DEC " + dzPair[p]
		case 4:
			return "INC " + r8(y)
		case 5:
			return "DEC " + r8(y)
		case 6:
			return fmt.Sprintf("LD %s,%s", r8(y), hx8(cu.u8()))
		default:
			if y < 4 {
				return dzRotA[y]
			}
			return dzMiscX0[y-4]
		}

	case 1:
		if op == 0x76 {
			return "HALT"
		}
		return fmt.Sprintf("LD %s,%s", r8(y), r8(z))

	case 2:
		return dzALU[y] + r8(z)

	default:
		switch z {
		case 0:
			return "RET " + dzCond[y]
		case 1:
			if q == 0 {
				return "POP " + dzStack[p]
			}
			switch p {
			case 0:
				return "RET"
			case 1:
				return "EXX"
			case 2:
				return "JP (HL)"
			default:
				return "LD SP,HL"
			}
		case 2:
			return fmt.Sprintf("JP %s,%s", dzCond[y], hx16(cu.u16()))
		case 3:
			switch y {
			case 0:
				return "JP " + hx16(cu.u16())
			case 2:
				return fmt.Sprintf("OUT (%s),A", hx8(cu.u8()))
			case 3:
				return fmt.Sprintf("IN A,(%s)", hx8(cu.u8()))
			case 4:
				return "EX (SP),HL"
			case 5:
				return "EX DE,HL"
			case 6:
				return "DI"
			default:
				return "EI"
			}
		case 4:
			return fmt.Sprintf("CALL %s,%s", dzCond[y], hx16(cu.u16()))
		case 5:
			if q == 0 {
				return "PUSH " + dzStack[p]
			}
			return "CALL " + hx16(cu.u16()) // q==1 p==0; prefixes handled earlier
		case 6:
			return dzALU[y] + hx8(cu.u8())
		default:
			return "RST " + hx8(y*8)
		}
	}
}

func decodeCBPage(op byte, operand string) string {
	y := (op >> 3) & 0x07
	z := op & 0x07
	if operand == "" {
		operand = dzReg8[z]
	}
	switch op >> 6 {
	case 0:
		return fmt.Sprintf("%s %s", dzRot[y], operand)
	case 1:
		return fmt.Sprintf("BIT %d,%s", y, operand)
	case 2:
		return fmt.Sprintf("RES %d,%s", y, operand)
	default:
		return fmt.Sprintf("SET %d,%s", y, operand)
	}
}

func decodeEDPage(cu *dzCursor) string {
	op := cu.u8()
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07
	p := y >> 1
	q := y & 1

	switch x {
	case 1:
		switch z {
		case 0:
			if y == 6 {
				return "IN (C)"
			}
			return fmt.Sprintf("IN %s,(C)", dzReg8[y])
		case 1:
			if y == 6 {
				return "OUT (C),0"
			}
			return fmt.Sprintf("OUT (C),%s", dzReg8[y])
		case 2:
			if q == 0 {
				return "SBC HL," + dzPair[p]
			}
			return "ADC HL," + dzPair[p]
		case 3:
			if q == 0 {
				return fmt.Sprintf("LD (%s),%s", hx16(cu.u16()), dzPair[p])
			}
			return fmt.Sprintf("LD %s,(%s)", dzPair[p], hx16(cu.u16()))
		case 4:
			return "NEG"
		case 5:
			if y == 1 {
				return "RETI"
			}
			return "RETN"
		case 6:
			switch y {
			case 2, 6:
				return "IM 1"
			case 3, 7:
				return "IM 2"
			default:
				return "IM 0"
			}
		default:
			switch y {
			case 0:
				return "LD I,A"
			case 1:
				return "LD R,A"
			case 2:
				return "LD A,I"
			case 3:
				return "LD A,R"
			case 4:
				return "RRD"
			case 5:
				return "RLD"
			default:
				return "db &ED," + hx8(op)
			}
		}
	case 2:
		if z <= 3 && y >= 4 {
			return dzBlock[y-4][z]
		}
	}
	return "db &ED," + hx8(op)
}

func decodeIndexedPage(cu *dzCursor, pc uint16, idx string) string {
	op := cu.u8()
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07

	switch {
	case op == 0x21:
		return fmt.Sprintf("LD %s,%s", idx, hx16(cu.u16()))
	case op == 0x22:
		return fmt.Sprintf("LD (%s),%s", hx16(cu.u16()), idx)
	case op == 0x2A:
		return fmt.Sprintf("LD %s,(%s)", idx, hx16(cu.u16()))
	case op == 0x23:
		return "INC " + idx
	case op == 0x2B:
		return "DEC " + idx
	case op == 0x09 || op == 0x19 || op == 0x29 || op == 0x39:
		operand := dzPair[(op>>4)&0x03]
		if operand == "HL" {
			operand = idx
		}
		return fmt.Sprintf("ADD %s,%s", idx, operand)
	case op == 0x34:
		return "INC " + idxOperand(idx, cu.disp())
	case op == 0x35:
		return "DEC " + idxOperand(idx, cu.disp())
	case op == 0x36:
		operand := idxOperand(idx, cu.disp())
		return fmt.Sprintf("LD %s,%s", operand, hx8(cu.u8()))
	case x == 1 && op != 0x76 && z == 6:
		return fmt.Sprintf("LD %s,%s", dzReg8[y], idxOperand(idx, cu.disp()))
	case x == 1 && op != 0x76 && y == 6:
		operand := idxOperand(idx, cu.disp())
		return fmt.Sprintf("LD %s,%s", operand, dzReg8[z])
	case x == 2 && z == 6:
		return dzALU[y] + idxOperand(idx, cu.disp())
	case op == 0xCB:
		d := cu.disp()
		sub := cu.u8()
		operand := idxOperand(idx, d)
		if sub&0x07 != 6 && sub>>6 != 1 {
			// Undocumented copy-to-register forms.
			operand = fmt.Sprintf("%s,%s", operand, dzReg8[sub&0x07])
		}
		return decodeCBPage(sub, operand)
	case op == 0xE1:
		return "POP " + idx
	case op == 0xE3:
		return "EX (SP)," + idx
	case op == 0xE5:
		return "PUSH " + idx
	case op == 0xE9:
		return fmt.Sprintf("JP (%s)", idx)
	case op == 0xF9:
		return "LD SP," + idx
	default:
		// Prefix fallthrough: the instruction is the base-page one,
		// with IXH/IXL standing in for H/L.
		if op == 0xDD || op == 0xED || op == 0xFD {
			cu.pos-- // let the next pass re-decode the chained prefix
			return "NOP*"
		}
		// The base instruction runs one byte later than usual, which
		// shifts relative-jump targets by the prefix length.
		return decodeBasePage(cu, pc+1, op, idx)
	}
}
