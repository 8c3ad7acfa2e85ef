// fdc.go - NEC uPD765A floppy disc controller.
//
// A three-phase machine (command, execution, result) built from the
// documented uPD765A command set: a small state struct driven by
// IN/OUT, publishing status through a readable register, with sector
// access delegated to the attached dsk.Drive's track store.
package fdc

import "github.com/cpcdevtools/cpcore/internal/dsk"

// Phase is the controller's current stage within a command.
type Phase int

const (
	PhaseCommand Phase = iota
	PhaseExecution
	PhaseResult
)

// Command identifies a decoded uPD765A command.
type Command int

const (
	CmdReadData Command = iota
	CmdReadDeletedData
	CmdWriteData
	CmdWriteDeletedData
	CmdReadTrack
	CmdReadID
	CmdFormatTrack
	CmdScanEqual
	CmdSeek
	CmdRecalibrate
	CmdSenseInterruptStatus
	CmdSenseDriveStatus
	CmdSpecify
	CmdInvalid
)

// opcode table: low 5 bits of the first command byte to Command,
// and expected total command-byte count (including the opcode).
var opTable = map[byte]struct {
	cmd   Command
	bytes int
}{
	0x06: {CmdReadData, 9},
	0x0C: {CmdReadDeletedData, 9},
	0x05: {CmdWriteData, 9},
	0x09: {CmdWriteDeletedData, 9},
	0x02: {CmdReadTrack, 9},
	0x0A: {CmdReadID, 2},
	0x0D: {CmdFormatTrack, 6},
	0x11: {CmdScanEqual, 9},
	0x0F: {CmdSeek, 3},
	0x07: {CmdRecalibrate, 2},
	0x08: {CmdSenseInterruptStatus, 1},
	0x04: {CmdSenseDriveStatus, 2},
	0x03: {CmdSpecify, 3},
}

const (
	mainStatusFDD0Busy = 1 << 0
	mainStatusCmdBusy  = 1 << 4
	mainStatusExecMode = 1 << 5
	mainStatusDIO      = 1 << 6 // 1 = controller to CPU
	mainStatusRQM      = 1 << 7 // 1 = ready for data transfer
)

// Controller is a single-drive uPD765A (the CPC only ever has the
// one internal drive wired to it; a second external drive can be
// plugged into the same data/motor ports in hardware but this core
// only models drive A).
type Controller struct {
	drive *dsk.Drive

	phase   Phase
	cmdBuf  []byte
	cmd     Command
	wantLen int

	resultBuf []byte
	resultPos int

	execData []byte
	execPos  int
	writing  bool

	// parameters latched from the current command
	curC, curH, curR, curN byte
	eot                    byte
	multiTrack             bool
	mfm                    bool
	skip                   bool

	motorOn bool

	scanTarget []byte // sector payload a Scan Equal compares against
	fmtSC      byte   // Format Track: sectors per track
	fmtFiller  byte   // Format Track: data filler byte

	st0, st1, st2, st3 byte
	pcn                byte // present cylinder number

	motorHook func(on bool)
}

// New returns a freshly reset controller with no drive attached.
func New() *Controller {
	return &Controller{phase: PhaseCommand}
}

// SetDrive attaches (or detaches, with nil) the disc store this
// controller operates against.
func (c *Controller) SetDrive(d *dsk.Drive) { c.drive = d }

// SetMotorHook installs the callback fired when the motor-enable bit changes.
func (c *Controller) SetMotorHook(fn func(on bool)) { c.motorHook = fn }

// WriteMotor handles an OUT to the FDC motor-control port (0xFA):
// bit 0 is the motor-enable line.
func (c *Controller) WriteMotor(val byte) {
	on := val&0x01 != 0
	if on != c.motorOn {
		c.motorOn = on
		if c.motorHook != nil {
			c.motorHook(on)
		}
	}
}

// ReadStatus returns the main status register (port 0xFB, even
// low-byte half of the FDC's port pair; the machine package decides
// the exact sub-address).
func (c *Controller) ReadStatus() byte {
	status := byte(mainStatusRQM)
	if c.motorOn {
		status |= mainStatusFDD0Busy
	}
	switch c.phase {
	case PhaseExecution:
		status |= mainStatusCmdBusy | mainStatusExecMode
		if c.writing {
			// DIO clear: CPU -> controller
		} else {
			status |= mainStatusDIO
		}
	case PhaseResult:
		status |= mainStatusCmdBusy | mainStatusDIO
	case PhaseCommand:
		if len(c.cmdBuf) > 0 {
			status |= mainStatusCmdBusy
		}
	}
	return status
}

// ReadData services an IN on the FDC data port (0xFB): pulls the
// next execution-phase or result byte.
func (c *Controller) ReadData() byte {
	switch c.phase {
	case PhaseExecution:
		if c.writing || c.execPos >= len(c.execData) {
			return 0xFF
		}
		v := c.execData[c.execPos]
		c.execPos++
		if c.execPos >= len(c.execData) {
			c.advanceAfterExecution()
		}
		return v
	case PhaseResult:
		if c.resultPos >= len(c.resultBuf) {
			return 0xFF
		}
		v := c.resultBuf[c.resultPos]
		c.resultPos++
		if c.resultPos >= len(c.resultBuf) {
			c.phase = PhaseCommand
			c.cmdBuf = nil
		}
		return v
	default:
		return 0xFF
	}
}

// WriteData services an OUT on the FDC data port: either appends a
// command byte (command phase) or accepts a data byte being written
// to disc (execution phase, write commands only).
func (c *Controller) WriteData(val byte) {
	switch c.phase {
	case PhaseCommand:
		if len(c.cmdBuf) == 0 {
			op, ok := opTable[val&0x1F]
			if !ok {
				c.cmd = CmdInvalid
				c.wantLen = 1
			} else {
				c.cmd = op.cmd
				c.wantLen = op.bytes
			}
		}
		c.cmdBuf = append(c.cmdBuf, val)
		if len(c.cmdBuf) >= c.wantLen {
			c.execute()
		}
	case PhaseExecution:
		if c.writing && c.execPos < len(c.execData) {
			c.execData[c.execPos] = val
			c.execPos++
			if c.execPos >= len(c.execData) {
				c.commitWrite()
				c.advanceAfterExecution()
			}
		}
	}
}

// advanceAfterExecution ends the execution phase: result bytes are
// rebuilt from the current ST0-ST2/CHRN state before the CPU may
// start draining them.
func (c *Controller) advanceAfterExecution() {
	c.resultBuf = c.statusBytes()
	c.resultPos = 0
	c.phase = PhaseResult
}

// commitWrite distributes the execution-phase buffer back over the
// sectors it was sized for, advancing R per sector.
func (c *Controller) commitWrite() {
	if c.drive == nil {
		return
	}
	if c.cmd == CmdFormatTrack {
		c.commitFormat()
		return
	}
	if c.cmd == CmdScanEqual {
		c.finishScan()
		return
	}
	off := 0
	for off < len(c.execData) {
		data, err := c.drive.SectorRead(int(c.curC), int(c.curH), c.curR)
		if err != nil {
			c.st0, c.st1 = 0x40, 0x04
			return
		}
		n := len(data)
		if off+n > len(c.execData) {
			n = len(c.execData) - off
		}
		_ = c.drive.SectorWrite(int(c.curC), int(c.curH), c.curR, c.execData[off:off+n])
		off += n
		if c.curR == c.eot {
			break
		}
		c.curR++
	}
}

// statusBytes builds the 7-byte result phase (ST0, ST1, ST2, C, H,
// R, N) for the common success/error case.
func (c *Controller) statusBytes() []byte {
	return []byte{c.st0, c.st1, c.st2, c.curC, c.curH, c.curR, c.curN}
}

func (c *Controller) execute() {
	defer func() { c.cmdBuf = nil }()
	cmd := c.cmdBuf

	switch c.cmd {
	case CmdSpecify:
		c.phase = PhaseCommand

	case CmdRecalibrate:
		c.pcn = 0
		c.st0 = 0x20 // seek end
		c.phase = PhaseCommand

	case CmdSeek:
		if len(cmd) >= 3 {
			c.pcn = cmd[2]
		}
		c.st0 = 0x20
		c.phase = PhaseCommand

	case CmdSenseInterruptStatus:
		c.resultBuf = []byte{c.st0, c.pcn}
		c.resultPos = 0
		c.phase = PhaseResult

	case CmdSenseDriveStatus:
		var st3 byte
		if c.drive != nil && c.drive.Inserted() {
			st3 |= 0x20 // ready
		}
		c.resultBuf = []byte{st3}
		c.resultPos = 0
		c.phase = PhaseResult

	case CmdReadID:
		c.readID()

	case CmdReadData, CmdReadDeletedData:
		c.readData()

	case CmdWriteData, CmdWriteDeletedData:
		c.beginWrite()

	case CmdReadTrack:
		c.readTrack()

	case CmdFormatTrack:
		c.formatTrack()

	case CmdScanEqual:
		c.beginScan()

	default:
		c.st0 = 0x80 // invalid command
		c.resultBuf = []byte{c.st0}
		c.resultPos = 0
		c.phase = PhaseResult
	}
}

// decodeParams pulls C, H, R, N, EOT from a standard read/write/scan
// command's byte layout: [cmd, head<<2, C, H, R, N, EOT, GPL, DTL].
func (c *Controller) decodeParams(cmd []byte) {
	if len(cmd) < 7 {
		return
	}
	c.curC = cmd[2]
	c.curH = cmd[3]
	c.curR = cmd[4]
	c.curN = cmd[5]
	c.eot = cmd[6]
	c.multiTrack = cmd[1]&0x80 != 0
	c.mfm = cmd[1]&0x40 != 0
	c.skip = cmd[1]&0x20 != 0
}

func (c *Controller) findSector() (*dsk.Sector, error) {
	if c.drive == nil || !c.drive.Inserted() {
		return nil, errNoDisc
	}
	data, err := c.drive.SectorRead(int(c.curC), int(c.curH), c.curR)
	if err != nil {
		return nil, err
	}
	return &dsk.Sector{C: c.curC, H: c.curH, R: c.curR, N: c.curN, Data: data}, nil
}

var errNoDisc = sectorError("no disc in drive")

type sectorError string

func (e sectorError) Error() string { return string(e) }

// readData streams sectors R..EOT in one execution phase, advancing
// R per sector so the result bytes report where the transfer ended.
func (c *Controller) readData() {
	c.decodeParams(c.cmdBuf)
	if _, err := c.findSector(); err != nil {
		c.st0, c.st1, c.st2 = 0x40, 0x04, 0 // abnormal termination, no data
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	var all []byte
	for {
		data, err := c.drive.SectorRead(int(c.curC), int(c.curH), c.curR)
		if err != nil {
			break
		}
		all = append(all, data...)
		if c.curR >= c.eot {
			break
		}
		c.curR++
	}
	c.execData = all
	c.execPos = 0
	c.writing = false
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.phase = PhaseExecution
	if len(c.execData) == 0 {
		c.advanceAfterExecution()
	}
}

// beginWrite sizes the execution-phase buffer for sectors R..EOT; the
// CPU then feeds it byte by byte through WriteData.
func (c *Controller) beginWrite() {
	c.decodeParams(c.cmdBuf)
	if c.drive == nil || !c.drive.Inserted() {
		c.st0, c.st1 = 0x40, 0x04
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	size := 0
	id := c.curR
	for {
		data, err := c.drive.SectorRead(int(c.curC), int(c.curH), id)
		if err != nil {
			break
		}
		size += len(data)
		if id >= c.eot {
			break
		}
		id++
	}
	if size == 0 {
		if _, err := c.findSector(); err != nil {
			c.st0, c.st1 = 0x40, 0x04
			c.resultBuf = c.statusBytes()
			c.resultPos = 0
			c.phase = PhaseResult
			return
		}
		size = 128 << c.curN
	}
	c.execData = make([]byte, size)
	c.execPos = 0
	c.writing = true
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.phase = PhaseExecution
}

// beginScan accepts the CPU's comparison data for the target sector;
// finishScan settles ST2 once the bytes are in.
func (c *Controller) beginScan() {
	c.decodeParams(c.cmdBuf)
	sec, err := c.findSector()
	if err != nil {
		c.st0, c.st1, c.st2 = 0x40, 0x04, 0
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	c.scanTarget = sec.Data
	c.execData = make([]byte, len(sec.Data))
	c.execPos = 0
	c.writing = true
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.phase = PhaseExecution
}

func (c *Controller) finishScan() {
	equal := len(c.execData) == len(c.scanTarget)
	if equal {
		for i := range c.execData {
			if c.execData[i] != c.scanTarget[i] {
				equal = false
				break
			}
		}
	}
	if equal {
		c.st2 |= 0x08 // scan equal hit
	} else {
		c.st2 |= 0x04 // scan not satisfied
	}
	c.scanTarget = nil
}

func (c *Controller) readID() {
	if c.drive == nil || !c.drive.Inserted() || len(c.cmdBuf) < 2 {
		c.st0 = 0x40
		c.resultBuf = []byte{c.st0, 0, 0, 0, 0, 0, 0}
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	head := c.cmdBuf[1] >> 2 & 1
	track := int(c.pcn)
	side := int(head)
	if track < c.drive.Tracks && side < c.drive.Sides && len(c.drive.Track[track][side].Sectors) > 0 {
		s := c.drive.Track[track][side].Sectors[0]
		c.curC, c.curH, c.curR, c.curN = s.C, s.H, s.R, s.N
	}
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.resultBuf = c.statusBytes()
	c.resultPos = 0
	c.phase = PhaseResult
}

func (c *Controller) readTrack() {
	c.decodeParams(c.cmdBuf)
	if c.drive == nil || !c.drive.Inserted() {
		c.st0, c.st1 = 0x40, 0x04
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	track := int(c.curC)
	side := int(c.curH)
	var all []byte
	if track < c.drive.Tracks && side < c.drive.Sides {
		for _, s := range c.drive.Track[track][side].Sectors {
			all = append(all, s.Data...)
		}
	}
	c.execData = all
	c.execPos = 0
	c.writing = false
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.phase = PhaseExecution
	if len(all) == 0 {
		c.advanceAfterExecution()
	}
}

// formatTrack enters an execution phase accepting SC CHRN quadruples
// from the CPU; commitFormat then lays the track with fresh sectors
// of 128<<N bytes each, filled with the command's filler byte.
func (c *Controller) formatTrack() {
	if len(c.cmdBuf) < 6 || c.drive == nil || !c.drive.Inserted() {
		c.st0 = 0x40
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}
	c.curH = c.cmdBuf[1] >> 2 & 1
	c.curN = c.cmdBuf[2]
	c.fmtSC = c.cmdBuf[3]
	c.fmtFiller = c.cmdBuf[5]

	if c.fmtSC == 0 {
		c.st0, c.st1, c.st2 = 0, 0, 0
		c.resultBuf = c.statusBytes()
		c.resultPos = 0
		c.phase = PhaseResult
		return
	}

	c.execData = make([]byte, int(c.fmtSC)*4)
	c.execPos = 0
	c.writing = true
	c.st0, c.st1, c.st2 = 0, 0, 0
	c.phase = PhaseExecution
}

func (c *Controller) commitFormat() {
	track := int(c.pcn)
	side := int(c.curH)
	if track >= c.drive.Tracks || side >= c.drive.Sides {
		c.st0 = 0x40
		return
	}
	sectors := make([]dsk.Sector, 0, c.fmtSC)
	for i := 0; i < int(c.fmtSC); i++ {
		chrn := c.execData[i*4 : i*4+4]
		data := make([]byte, 128<<chrn[3])
		for j := range data {
			data[j] = c.fmtFiller
		}
		sectors = append(sectors, dsk.Sector{C: chrn[0], H: chrn[1], R: chrn[2], N: chrn[3], Data: data})
	}
	c.drive.Track[track][side].Sectors = sectors
	c.drive.Altered = true
	if len(sectors) > 0 {
		last := sectors[len(sectors)-1]
		c.curC, c.curR, c.curN = last.C, last.R, last.N
	}
}

// Phase reports the controller's current stage, for debugger display.
func (c *Controller) Phase() Phase { return c.phase }

// MotorOn reports the motor-enable line, for debugger display.
func (c *Controller) MotorOn() bool { return c.motorOn }
