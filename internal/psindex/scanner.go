package psindex

import "iter"

type StartCode uint32

const (
	StartPicture  StartCode = 0x00000100
	StartSequence StartCode = 0x000001B3
	StartGOP      StartCode = 0x000001B8
)

func (c StartCode) String() string {
	switch c {
	case StartPicture:
		return "picture"
	case StartSequence:
		return "sequence"
	case StartGOP:
		return "gop"
	default:
		return "unknown"
	}
}

// Scanner finds MPEG-2 video start codes in a byte stream delivered as
// chunks. The last four bytes seen are kept between chunks so a start code
// split across two chunks is reported by the chunk that completes it.
type Scanner struct {
	state uint32
}

func NewScanner() *Scanner {
	return &Scanner{state: 0xFFFFFFFF}
}

func (s *Scanner) Reset() {
	s.state = 0xFFFFFFFF
}

// Scan yields each recognised start code with the offset in chunk of the
// first byte following it. Every byte of chunk is consumed exactly once, even
// if the caller stops iterating early.
func (s *Scanner) Scan(chunk []byte) iter.Seq2[StartCode, int] {
	return func(yield func(StartCode, int) bool) {
		stopped := false
		for i, b := range chunk {
			s.state = s.state<<8 | uint32(b)
			if stopped {
				continue
			}
			switch code := StartCode(s.state); code {
			case StartPicture, StartSequence, StartGOP:
				if !yield(code, i+1) {
					stopped = true
				}
			}
		}
	}
}
