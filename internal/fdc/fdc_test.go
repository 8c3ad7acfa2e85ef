package fdc

import (
	"testing"

	"github.com/cpcdevtools/cpcore/internal/dsk"
	"github.com/stretchr/testify/require"
)

func testDrive(t *testing.T) *dsk.Drive {
	t.Helper()
	f, err := dsk.FormatByName("data")
	require.NoError(t, err)
	d := dsk.Blank(f)
	payload := make([]byte, dsk.DataSectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, d.SectorWrite(0, 0, dsk.DataFirstSectorID, payload))
	return d
}

func TestMotorHookFiresOnChange(t *testing.T) {
	c := New()
	var got []bool
	c.SetMotorHook(func(on bool) { got = append(got, on) })

	c.WriteMotor(1)
	c.WriteMotor(1) // no change, should not re-fire
	c.WriteMotor(0)

	require.Equal(t, []bool{true, false}, got)
}

func TestReadDataCommandRoundTrip(t *testing.T) {
	c := New()
	c.SetDrive(testDrive(t))

	// Read Data: cmd, head<<2, C, H, R, N, EOT, GPL, DTL
	cmd := []byte{0x06, 0x00, 0x00, 0x00, dsk.DataFirstSectorID, 0x02, dsk.DataFirstSectorID, 0x2A, 0xFF}
	for _, b := range cmd {
		c.WriteData(b)
	}
	require.Equal(t, PhaseExecution, c.Phase())

	var got []byte
	for i := 0; i < dsk.DataSectorSize; i++ {
		got = append(got, c.ReadData())
	}
	require.Equal(t, PhaseResult, c.Phase())
	for i, b := range got {
		require.Equal(t, byte(i), b)
	}

	st0 := c.ReadData()
	require.Equal(t, byte(0), st0)
}

func TestReadDataMissingDiscReportsError(t *testing.T) {
	c := New()
	cmd := []byte{0x06, 0x00, 0x00, 0x00, dsk.DataFirstSectorID, 0x02, dsk.DataFirstSectorID, 0x2A, 0xFF}
	for _, b := range cmd {
		c.WriteData(b)
	}
	require.Equal(t, PhaseResult, c.Phase())
	st0 := c.ReadData()
	require.NotEqual(t, byte(0), st0)
}

func TestWriteDataCommand(t *testing.T) {
	c := New()
	drive := testDrive(t)
	c.SetDrive(drive)

	cmd := []byte{0x05, 0x00, 0x00, 0x00, dsk.DataFirstSectorID, 0x02, dsk.DataFirstSectorID, 0x2A, 0xFF}
	for _, b := range cmd {
		c.WriteData(b)
	}
	require.Equal(t, PhaseExecution, c.Phase())

	for i := 0; i < dsk.DataSectorSize; i++ {
		c.WriteData(0xAB)
	}
	require.Equal(t, PhaseResult, c.Phase())

	got, err := drive.SectorRead(0, 0, dsk.DataFirstSectorID)
	require.NoError(t, err)
	for _, b := range got {
		require.Equal(t, byte(0xAB), b)
	}
}

func TestSeekAndSenseInterruptStatus(t *testing.T) {
	c := New()
	c.WriteData(0x0F) // seek
	c.WriteData(0x00)
	c.WriteData(0x05) // target cylinder 5
	require.Equal(t, PhaseCommand, c.Phase())

	c.WriteData(0x08) // sense interrupt status
	require.Equal(t, PhaseResult, c.Phase())
	st0 := c.ReadData()
	pcn := c.ReadData()
	require.Equal(t, byte(0x20), st0)
	require.Equal(t, byte(5), pcn)
}

func TestReadDataMultiSectorAdvancesR(t *testing.T) {
	c := New()
	drive := testDrive(t)
	second := make([]byte, dsk.DataSectorSize)
	for i := range second {
		second[i] = 0x55
	}
	require.NoError(t, drive.SectorWrite(0, 0, dsk.DataFirstSectorID+1, second))
	c.SetDrive(drive)

	cmd := []byte{0x06, 0x00, 0x00, 0x00, dsk.DataFirstSectorID, 0x02, dsk.DataFirstSectorID + 1, 0x2A, 0xFF}
	for _, b := range cmd {
		c.WriteData(b)
	}
	require.Equal(t, PhaseExecution, c.Phase())

	var got []byte
	for i := 0; i < 2*dsk.DataSectorSize; i++ {
		got = append(got, c.ReadData())
	}
	require.Equal(t, PhaseResult, c.Phase())
	require.Equal(t, byte(0), got[0])
	require.Equal(t, byte(0x55), got[dsk.DataSectorSize])
}

func TestScanEqualSetsScanHit(t *testing.T) {
	c := New()
	c.SetDrive(testDrive(t))

	cmd := []byte{0x11, 0x00, 0x00, 0x00, dsk.DataFirstSectorID, 0x02, dsk.DataFirstSectorID, 0x2A, 0xFF}
	for _, b := range cmd {
		c.WriteData(b)
	}
	require.Equal(t, PhaseExecution, c.Phase())

	for i := 0; i < dsk.DataSectorSize; i++ {
		c.WriteData(byte(i)) // matches the test drive's payload
	}
	require.Equal(t, PhaseResult, c.Phase())

	c.ReadData() // ST0
	c.ReadData() // ST1
	st2 := c.ReadData()
	require.NotEqual(t, byte(0), st2&0x08)
}

func TestFormatTrackLaysFreshSectors(t *testing.T) {
	c := New()
	drive := testDrive(t)
	c.SetDrive(drive)

	// Format Track: cmd, head, N, SC, GPL, filler
	for _, b := range []byte{0x0D, 0x00, 0x02, 0x02, 0x52, 0xE5} {
		c.WriteData(b)
	}
	require.Equal(t, PhaseExecution, c.Phase())

	// Two CHRN quadruples.
	for _, b := range []byte{0, 0, 0x01, 0x02, 0, 0, 0x02, 0x02} {
		c.WriteData(b)
	}
	require.Equal(t, PhaseResult, c.Phase())

	got, err := drive.SectorRead(0, 0, 0x01)
	require.NoError(t, err)
	require.Len(t, got, 512)
	require.Equal(t, byte(0xE5), got[0])
}

func TestSenseDriveStatusReadyBit(t *testing.T) {
	c := New()
	c.SetDrive(testDrive(t))
	c.WriteData(0x04)
	c.WriteData(0x00)
	require.Equal(t, PhaseResult, c.Phase())
	st3 := c.ReadData()
	require.NotEqual(t, byte(0), st3&0x20)
}
