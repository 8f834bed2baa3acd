package psindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	HeaderSize = 29
	RecordSize = 29
)

// SortRecords orders records by PTS in place. Records with equal PTS keep
// their decode order.
func SortRecords(records []FrameRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PTS < records[j].PTS
	})
}

// WriteIndex sorts idx.Records by PTS and writes the index file layout to w.
func WriteIndex(w io.Writer, idx *Index) error {
	if idx.Len() == 0 {
		return ErrEmptyIndex
	}
	SortRecords(idx.Records)

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, HeaderSize)
	buf = appendHeader(buf, idx)
	if _, err := bw.Write(buf); err != nil {
		return err
	}
	for i := range idx.Records {
		buf = appendRecord(buf[:0], &idx.Records[i])
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteIndexFile writes the index next to path and renames it into place, so
// a reader never sees a partial file.
func WriteIndexFile(path string, idx *Index) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if err := WriteIndex(tmp, idx); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("psindex: rename index: %w", err)
	}
	return nil
}

func appendHeader(buf []byte, idx *Index) []byte {
	version := idx.Version
	if version == 0 {
		version = IndexVersion
	}
	buf = binary.LittleEndian.AppendUint64(buf, IndexMagic)
	buf = append(buf, version)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(idx.StartPTS))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(idx.StartDTS))
	return appendTimecode(buf, idx.StartTimecode)
}

func appendRecord(buf []byte, rec *FrameRecord) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.PTS))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.DTS))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.PESOffset))
	buf = append(buf, byte(rec.Type))
	return appendTimecode(buf, rec.Timecode)
}

func appendTimecode(buf []byte, tc Timecode) []byte {
	return append(buf, tc.Frames, tc.Seconds, tc.Minutes, tc.Hours)
}
