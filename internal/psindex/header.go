package psindex

type SequenceHeader struct {
	Width         int
	Height        int
	AspectRatio   byte
	FrameRateCode byte
}

type GOPHeader struct {
	Drop     bool
	Closed   bool
	Timecode Timecode
}

type PictureHeader struct {
	TemporalReference int
	Type              PictureType
}

// Header is one decoded header; only the member matching Kind is set.
type Header struct {
	Kind     StartCode
	Sequence SequenceHeader
	GOP      GOPHeader
	Picture  PictureHeader
}

const carrySize = 8

// headerSize is the number of bytes following the start code needed to
// decode the fields the index uses.
func headerSize(kind StartCode) int {
	switch kind {
	case StartSequence, StartGOP:
		return 4
	case StartPicture:
		return 2
	default:
		return 0
	}
}

// HeaderExtractor decodes the fixed fields that follow a start code. When a
// chunk ends before the fields are complete the available bytes are parked in
// a small carry buffer and decoding resumes with the next chunk.
type HeaderExtractor struct {
	kind   StartCode
	carry  [carrySize]byte
	filled int
	need   int
}

func (e *HeaderExtractor) Pending() bool {
	return e.need > 0
}

// Deficit is the number of bytes still missing from the pending header.
func (e *HeaderExtractor) Deficit() int {
	return e.need
}

func (e *HeaderExtractor) PendingKind() StartCode {
	if e.need == 0 {
		return 0
	}
	return e.kind
}

// Begin starts decoding the header of kind whose fields start at pos in
// chunk. It reports false when the fields continue in a later chunk. A header
// still pending from an earlier start code is dropped.
func (e *HeaderExtractor) Begin(kind StartCode, chunk []byte, pos int) (Header, bool) {
	if e.need > 0 {
		LogDebug("header abandoned by new start code", "kind", e.kind.String(), "missing", e.need)
	}
	e.reset()
	size := headerSize(kind)
	if size == 0 {
		return Header{}, false
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(chunk) {
		pos = len(chunk)
	}
	avail := len(chunk) - pos
	if avail >= size {
		return decodeHeader(kind, chunk[pos:pos+size]), true
	}
	e.kind = kind
	e.filled = copy(e.carry[:], chunk[pos:])
	e.need = size - e.filled
	return Header{}, false
}

// Resume feeds the start of the next chunk to the pending header. It returns
// the number of bytes taken from chunk and whether the header is complete.
func (e *HeaderExtractor) Resume(chunk []byte) (Header, int, bool) {
	if e.need == 0 {
		return Header{}, 0, false
	}
	n := min(e.need, len(chunk))
	copy(e.carry[e.filled:], chunk[:n])
	e.filled += n
	e.need -= n
	if e.need > 0 {
		return Header{}, n, false
	}
	h := decodeHeader(e.kind, e.carry[:e.filled])
	e.reset()
	return h, n, true
}

func (e *HeaderExtractor) reset() {
	e.kind = 0
	e.filled = 0
	e.need = 0
}

func decodeHeader(kind StartCode, data []byte) Header {
	h := Header{Kind: kind}
	switch kind {
	case StartSequence:
		h.Sequence = parseSequenceHeader(data)
	case StartGOP:
		h.GOP = parseGOPHeader(data)
	case StartPicture:
		h.Picture = parsePictureHeader(data)
	}
	return h
}

func parseSequenceHeader(data []byte) SequenceHeader {
	br := newBitReader(data)
	return SequenceHeader{
		Width:         int(br.readBits(12)),
		Height:        int(br.readBits(12)),
		AspectRatio:   byte(br.readBits(4)),
		FrameRateCode: byte(br.readBits(4)),
	}
}

func parseGOPHeader(data []byte) GOPHeader {
	br := newBitReader(data)
	var h GOPHeader
	h.Drop = br.readBits(1) == 1
	h.Timecode.Hours = uint8(br.readBits(5))
	h.Timecode.Minutes = uint8(br.readBits(6))
	br.skipBits(1) // marker
	h.Timecode.Seconds = uint8(br.readBits(6))
	h.Timecode.Frames = uint8(br.readBits(6))
	h.Closed = br.readBits(1) == 1
	return h
}

func parsePictureHeader(data []byte) PictureHeader {
	br := newBitReader(data)
	return PictureHeader{
		TemporalReference: int(br.readBits(10)),
		Type:              PictureType(br.readBits(3)),
	}
}
