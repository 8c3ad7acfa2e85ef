package cpm

import (
	"bytes"
	"testing"

	"github.com/cpcdevtools/cpcore/internal/dsk"
	"github.com/stretchr/testify/require"
)

func blankDataDrive(t *testing.T) *dsk.Drive {
	t.Helper()
	d, err := dsk.FormatByName("data")
	require.NoError(t, err)
	drive := dsk.Blank(d)
	require.NoError(t, initDirectory(drive))
	return drive
}

func TestWriteReadRoundTrip(t *testing.T) {
	drive := blankDataDrive(t)
	payload := bytes.Repeat([]byte{0xAB}, 256)

	require.NoError(t, WriteFile(drive, "HELLO.BIN", payload))

	got, err := ReadFile(drive, "hello.bin")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestListThenDeleteThenList(t *testing.T) {
	drive := blankDataDrive(t)
	require.NoError(t, WriteFile(drive, "ONE.TXT", []byte("one")))
	require.NoError(t, WriteFile(drive, "TWO.TXT", []byte("two")))

	files, err := ListFiles(drive)
	require.NoError(t, err)
	require.Len(t, files, 2)

	require.NoError(t, DeleteFile(drive, "ONE.TXT"))

	files, err = ListFiles(drive)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "TWO.TXT", files[0].DisplayName)

	_, err = ReadFile(drive, "ONE.TXT")
	require.Error(t, err)
}

func TestLargeFileExtentChaining(t *testing.T) {
	drive := blankDataDrive(t)
	payload := make([]byte, 20480)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, WriteFile(drive, "BIG.DAT", payload))

	files, err := ListFiles(drive)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.EqualValues(t, len(payload), files[0].SizeBytes)

	got, err := ReadFile(drive, "BIG.DAT")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestWriteFileRejectsDuplicateName(t *testing.T) {
	drive := blankDataDrive(t)
	require.NoError(t, WriteFile(drive, "DUP.BIN", []byte("first")))
	err := WriteFile(drive, "dup.bin", []byte("second"))
	require.Error(t, err)
}

func TestAmsdosHeaderChecksumRoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte{0x42}, 64)
	hdr := MakeAmsdosHeader(0, "TEST", AmsdosBinary, 0x4000, 0x4000, uint32(len(body)))

	parsed, ok := ParseAmsdosHeader(hdr)
	require.True(t, ok)
	require.True(t, parsed.Valid)
	require.Equal(t, AmsdosBinary, parsed.Type)
	require.EqualValues(t, 0x4000, parsed.LoadAddr)
	require.EqualValues(t, 0x4000, parsed.ExecAddr)
	require.EqualValues(t, len(body), parsed.FileLength)
}

func TestAmsdosHeaderDetectsCorruption(t *testing.T) {
	hdr := MakeAmsdosHeader(0, "TEST", AmsdosBinary, 0x4000, 0x4000, 64)
	hdr[5] ^= 0xFF // corrupt a filename byte without touching the checksum

	_, ok := ParseAmsdosHeader(hdr)
	require.False(t, ok)
}

func TestDiscFullRejectsOversizedWrite(t *testing.T) {
	drive := blankDataDrive(t)
	// DATA format: 180 blocks total, 2 reserved for the directory -> 178 free.
	payload := make([]byte, (178+1)*blockSize)
	err := WriteFile(drive, "TOOBIG.DAT", payload)
	require.Error(t, err)
}

func TestCreateNewAndFormatDrive(t *testing.T) {
	dir := t.TempDir() + "/blank.dsk"
	require.NoError(t, CreateNew(dir, "data"))

	loaded, err := dsk.LoadFile(dir)
	require.NoError(t, err)

	files, err := ListFiles(loaded)
	require.NoError(t, err)
	require.Empty(t, files)

	require.NoError(t, WriteFile(loaded, "A.TXT", []byte("x")))
	require.NoError(t, FormatDrive(loaded, "data"))

	files, err = ListFiles(loaded)
	require.NoError(t, err)
	require.Empty(t, files)
}
