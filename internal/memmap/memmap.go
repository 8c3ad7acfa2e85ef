// memmap.go - 4-slot bank switcher for the CPC's 64 KiB address space.
//
// The CPU addresses 64 KiB through four 16 KiB slots. Reconfigure()
// recomputes all four slot pointers from the gate array's current
// RAM_config/RAM_ext/ROM_config state and the MF2 overlay flag; it is
// called after every OUT that can change the map, so it must stay
// cheap — no allocation on the hot path.
//
// Slots never hold raw pointers into host memory outside this
// package: each Slot is a bounded sub-slice of one of the owned
// backing arrays (base RAM, expansion RAM, ROM images, MF2 RAM).

package memmap

const (
	SlotSize = 16 * 1024
	NumSlots = 4

	BaseRAMSize = 64 * 1024

	// ExpansionPageSize is the unit RAM_config bits 5-3 (standard) or
	// RAM_ext (Yarek) select: one 64 KiB page, split into 4 quarters.
	ExpansionPageSize = 64 * 1024

	MaxExpansionPagesStandard = 8  // 512 KiB, total 576 KiB with base RAM
	MaxExpansionPagesYarek    = 64 // 4 MiB

	ROMSize      = 16 * 1024
	NumUpperROMs = 256

	MF2ROMSize = 8 * 1024
	MF2RAMSize = 8 * 1024
)

// RAMExtMode resolves the open "expansion-bank addressing" question:
// the standard 576 KiB machine only ever uses RAM_config's own 3
// high bits to pick an expansion page; the Yarek 4 MiB extension
// widens that to the full inverted 6-bit RAM_ext port decode.
// Unknown/unset values default to Standard.
type RAMExtMode int

const (
	RAMExtModeStandard RAMExtMode = iota
	RAMExtModeYarek
)

// bankMapTable[config] lists, for slots 0-3, which physical 16 KiB
// quarter is mapped: 0-3 address base RAM quarters, 4-7 address the
// currently selected expansion page's quarters 0-3.
var bankMapTable = [8][4]int{
	{0, 1, 2, 3},
	{0, 1, 2, 7},
	{4, 5, 6, 7},
	{0, 3, 2, 7},
	{0, 4, 2, 3},
	{0, 5, 2, 3},
	{0, 6, 2, 3},
	{0, 7, 2, 3},
}

// Slot is a sub-slice view into one of Map's owned backing buffers.
type Slot struct {
	Read  []byte
	Write []byte // nil means writes are discarded (ROM-backed)
}

// Map owns every physical memory buffer the CPC address space can be
// built from and the 4 active slot views the CPU reads and writes
// through.
type Map struct {
	baseRAM      []byte // 64 KiB, 4 quarters
	expansionRAM []byte // up to 4 MiB, organised in 64 KiB pages

	lowerROM  []byte // 16 KiB
	upperROMs [NumUpperROMs][]byte

	// mf2 is the Multiface 2's full 16 KiB window: the 8 KiB ROM in
	// the lower half, its battery-backed 8 KiB RAM in the upper. The
	// whole window pages into the lower-ROM slot; Write8 keeps the
	// ROM half read-only.
	mf2       []byte
	mf2HasROM bool
	mf2Active bool

	discard [SlotSize]byte // write sink for ROM-overlaid slots

	slots [NumSlots]Slot

	// Gate array state consumed by Reconfigure.
	RAMConfig     byte
	RAMExt        byte
	RAMExtMode    RAMExtMode
	LowerROMOff   bool // ROM_config bit 2: lower ROM disabled
	UpperROMOff   bool // ROM_config bit 3: upper ROM disabled
	UpperROMIndex byte
	LowerROMSlot  int // 6128+: which slot the lower ROM overlays (RMR2); 0 elsewhere
	RegisterPage  bool // 6128+: register page mapped into slot 1
}

// NewMap allocates the base RAM and the expansion RAM sized for mode.
func NewMap(mode RAMExtMode) *Map {
	m := &Map{
		baseRAM:    make([]byte, BaseRAMSize),
		RAMExtMode: mode,
	}
	pages := MaxExpansionPagesStandard
	if mode == RAMExtModeYarek {
		pages = MaxExpansionPagesYarek
	}
	m.expansionRAM = make([]byte, pages*ExpansionPageSize)
	m.mf2 = make([]byte, SlotSize)
	m.Reconfigure()
	return m
}

// LoadLowerROM installs the 16 KiB OS ROM image.
func (m *Map) LoadLowerROM(data []byte) {
	m.lowerROM = cloneROM(data, ROMSize)
}

// LoadUpperROM installs a 16 KiB expansion ROM image at the given slot index (0-255).
func (m *Map) LoadUpperROM(index byte, data []byte) {
	m.upperROMs[index] = cloneROM(data, ROMSize)
}

// LoadMF2ROM installs the Multiface 2's 8 KiB ROM image into the
// lower half of its 16 KiB window.
func (m *Map) LoadMF2ROM(data []byte) {
	copy(m.mf2[:MF2ROMSize], cloneROM(data, MF2ROMSize))
	m.mf2HasROM = true
}

func cloneROM(data []byte, size int) []byte {
	rom := make([]byte, size)
	copy(rom, data)
	return rom
}

// SetMF2Active pages the Multiface 2 overlay in or out.
func (m *Map) SetMF2Active(active bool) {
	m.mf2Active = active
}

// expansionPage returns the currently selected 64 KiB expansion page index.
func (m *Map) expansionPage() int {
	var page int
	if m.RAMExtMode == RAMExtModeYarek {
		page = int(m.RAMExt & 0x3F)
	} else {
		page = int((m.RAMConfig >> 3) & 0x07)
	}
	pages := len(m.expansionRAM) / ExpansionPageSize
	if page >= pages {
		return 0
	}
	return page
}

// quarter returns a 16 KiB read/write view for bank index 0-7 per bankMapTable.
func (m *Map) quarter(bank int) []byte {
	if bank < 4 {
		return m.baseRAM[bank*SlotSize : (bank+1)*SlotSize]
	}
	page := m.expansionPage()
	base := page*ExpansionPageSize + (bank-4)*SlotSize
	return m.expansionRAM[base : base+SlotSize]
}

// Reconfigure recomputes all four slot pointers from current state.
// Overlay priority, highest first: MF2, lower ROM, 6128+ register
// page, upper ROM.
func (m *Map) Reconfigure() {
	table := bankMapTable[m.RAMConfig&0x07]
	for slot := 0; slot < NumSlots; slot++ {
		bank := m.quarter(table[slot])
		m.slots[slot] = Slot{Read: bank, Write: bank}
	}

	s := m.LowerROMSlot
	if s < 0 || s >= NumSlots {
		s = 0
	}
	if m.mf2Active && m.mf2HasROM {
		// The MF2 window replaces the whole lower-ROM slot: ROM in the
		// lower 8 KiB, its own RAM in the upper. Write8 refuses writes
		// into the ROM half.
		m.slots[s] = Slot{Read: m.mf2, Write: m.mf2}
	} else if !m.LowerROMOff && m.lowerROM != nil {
		writeBack := m.slots[s].Write
		m.slots[s] = Slot{Read: m.lowerROM, Write: writeBack}
	}

	if m.RegisterPage && !(m.mf2Active && m.mf2HasROM) {
		// 6128+ register page occupies slot 1's read view only; writes
		// still land in whatever RAM quarter is currently banked there.
		m.slots[1].Read = m.discard[:]
	}

	if !m.UpperROMOff {
		rom := m.upperROMs[m.UpperROMIndex]
		if rom != nil {
			writeBack := m.slots[3].Write
			m.slots[3] = Slot{Read: rom, Write: writeBack}
		}
	}
}

// Read8 reads one byte from the 64 KiB CPU address space.
func (m *Map) Read8(addr uint16) byte {
	slot := addr >> 14
	off := addr & (SlotSize - 1)
	return m.slots[slot].Read[off]
}

// Write8 writes one byte, silently discarding writes to ROM-overlaid
// slots and to the ROM half of a paged-in MF2 window.
func (m *Map) Write8(addr uint16, value byte) {
	slot := addr >> 14
	off := addr & (SlotSize - 1)
	w := m.slots[slot].Write
	if w == nil {
		return
	}
	if m.mf2Active && m.mf2HasROM && &w[0] == &m.mf2[0] && off < MF2ROMSize {
		return
	}
	w[off] = value
}

// Slots returns a read-only snapshot of the four current slot views,
// for debugger inspection and the memory-reconfiguration test scenario.
func (m *Map) Slots() [NumSlots]Slot {
	return m.slots
}

// BaseRAM exposes the base 64 KiB for snapshot save/restore.
func (m *Map) BaseRAM() []byte { return m.baseRAM }

// ExpansionRAM exposes the expansion banks for snapshot save/restore
// and silicon-disc backing.
func (m *Map) ExpansionRAM() []byte { return m.expansionRAM }
