package psindex

type PictureType uint8

const (
	PictureUnknown PictureType = 0
	PictureI       PictureType = 1
	PictureP       PictureType = 2
	PictureB       PictureType = 3
)

func (t PictureType) String() string {
	switch t {
	case PictureI:
		return "I"
	case PictureP:
		return "P"
	case PictureB:
		return "B"
	default:
		return "U"
	}
}

func (t PictureType) Valid() bool {
	return t >= PictureI && t <= PictureB
}

// Anchor reports whether the picture can start a dependency chain: I and P
// pictures are decoded before the B pictures that reference them.
func (t PictureType) Anchor() bool {
	return t == PictureI || t == PictureP
}

// FrameRecord locates one coded picture. PTS and DTS are 90 kHz ticks and
// PESOffset is the file offset of the PES packet carrying the picture header.
type FrameRecord struct {
	PTS       int64
	DTS       int64
	PESOffset int64
	Type      PictureType
	Timecode  Timecode
}

const (
	IndexMagic   uint64 = 0x534A2D494E444558
	IndexVersion uint8  = 1
)

// Index is the in-memory form of an index file. Records are ordered by PTS
// once the index has been sorted for writing or loaded from disk.
type Index struct {
	Version       uint8
	StartPTS      int64
	StartDTS      int64
	StartTimecode Timecode
	Records       []FrameRecord
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Records)
}
