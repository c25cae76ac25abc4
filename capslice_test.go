package capslice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capslice/capslice/capformat"
	"github.com/capslice/capslice/capture"
	"github.com/capslice/capslice/endian"
	"github.com/capslice/capslice/errs"
)

func writeSavefile(t *testing.T, path string, snapLen uint32, linkType uint32, secs []int64) {
	t.Helper()
	engine := endian.GetLittleEndianEngine()
	fh := capformat.FileHeader{MajorVersion: 2, MinorVersion: 4, SnapLen: snapLen, LinkType: linkType}

	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write(fh.Bytes(engine))
	require.NoError(t, err)

	for _, s := range secs {
		rh := capformat.RecordHeader{Sec: int32(s), Usec: 0, CapLen: 4, Len: 4}
		_, err := w.Write(rh.Bytes(engine))
		require.NoError(t, err)
		_, err = w.Write([]byte{1, 2, 3, 4})
		require.NoError(t, err)
	}
}

func TestOpenInputs_ComputesLowestBase(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.pcap")
	pathB := filepath.Join(dir, "b.pcap")
	writeSavefile(t, pathA, 8, 1, []int64{200, 210})
	writeSavefile(t, pathB, 8, 1, []int64{100, 110})

	inputs, base, err := OpenInputs([]string{pathA, pathB}, func() capture.Adapter { return capture.NewSavefileAdapter() })
	require.NoError(t, err)
	defer CloseInputs(inputs)

	require.Equal(t, int64(100), base.Sec)
	require.Equal(t, uint32(8), MaxSnapLength(inputs))
}

func TestOpenInputs_NoFilesIsUsageError(t *testing.T) {
	_, _, err := OpenInputs(nil, func() capture.Adapter { return capture.NewSavefileAdapter() })
	require.ErrorIs(t, err, errs.ErrUsage)
}

func TestOpenInputs_RejectsLinkTypeMismatch(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.pcap")
	pathB := filepath.Join(dir, "b.pcap")
	writeSavefile(t, pathA, 8, 1, []int64{100, 110})
	writeSavefile(t, pathB, 8, 101, []int64{100, 110})

	_, _, err := OpenInputs([]string{pathA, pathB}, func() capture.Adapter { return capture.NewSavefileAdapter() })
	require.ErrorIs(t, err, errs.ErrLinkTypeMismatch)
}
