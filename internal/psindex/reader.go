package psindex

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadIndex loads a complete index file from r.
func ReadIndex(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeIndex(data)
}

// DecodeIndex parses the index file layout. The returned index does not
// reference data.
func DecodeIndex(data []byte) (*Index, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedIndex, len(data))
	}
	if magic := binary.LittleEndian.Uint64(data[0:8]); magic != IndexMagic {
		return nil, fmt.Errorf("%w: magic %#016x", ErrBadMagic, magic)
	}
	body := len(data) - HeaderSize
	if body%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedIndex, body%RecordSize)
	}
	n := body / RecordSize
	if n == 0 {
		return nil, ErrEmptyIndex
	}

	idx := &Index{
		Version:       data[8],
		StartPTS:      int64(binary.LittleEndian.Uint64(data[9:17])),
		StartDTS:      int64(binary.LittleEndian.Uint64(data[17:25])),
		StartTimecode: decodeTimecode(data[25:29]),
		Records:       make([]FrameRecord, n),
	}
	for i := range idx.Records {
		rec := data[HeaderSize+i*RecordSize : HeaderSize+(i+1)*RecordSize]
		idx.Records[i] = FrameRecord{
			PTS:       int64(binary.LittleEndian.Uint64(rec[0:8])),
			DTS:       int64(binary.LittleEndian.Uint64(rec[8:16])),
			PESOffset: int64(binary.LittleEndian.Uint64(rec[16:24])),
			Type:      PictureType(rec[24]),
			Timecode:  decodeTimecode(rec[25:29]),
		}
	}
	return idx, nil
}

func decodeTimecode(b []byte) Timecode {
	return Timecode{Frames: b[0], Seconds: b[1], Minutes: b[2], Hours: b[3]}
}
