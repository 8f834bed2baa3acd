package psindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Packet is one PES packet of a program stream. Payload is only valid until
// the next call to NextPacket.
type Packet struct {
	Offset   int64
	StreamID byte
	PTS      int64
	DTS      int64
	HasPTS   bool
	HasDTS   bool
	Payload  []byte
}

// PacketSource yields PES packets in file order and io.EOF at the end.
type PacketSource interface {
	NextPacket() (*Packet, error)
}

const (
	psPackStart    = 0xBA
	psSystemHeader = 0xBB
	psProgramEnd   = 0xB9
)

// Demuxer walks an MPEG-2 program stream and returns its PES packets,
// skipping pack headers, system headers and streams without a PES header.
type Demuxer struct {
	r      *bufio.Reader
	offset int64
	buf    []byte
	pkt    Packet
}

func NewDemuxer(r io.Reader) *Demuxer {
	return &Demuxer{r: bufio.NewReaderSize(r, 1<<20)}
}

// Offset is the file offset of the next unread byte.
func (d *Demuxer) Offset() int64 {
	return d.offset
}

func (d *Demuxer) NextPacket() (*Packet, error) {
	for {
		head, err := d.r.Peek(4)
		if len(head) < 4 {
			if err == nil || errors.Is(err, io.EOF) || errors.Is(err, bufio.ErrBufferFull) {
				return nil, io.EOF
			}
			return nil, err
		}
		if head[0] != 0x00 || head[1] != 0x00 || head[2] != 0x01 {
			if err := d.skip(1); err != nil {
				return nil, err
			}
			continue
		}
		streamID := head[3]
		switch {
		case streamID == psProgramEnd:
			if err := d.skip(4); err != nil {
				return nil, err
			}
		case streamID == psPackStart:
			if err := d.skipPackHeader(); err != nil {
				return nil, err
			}
		case isPESWithHeader(streamID):
			pkt, err := d.readPES(streamID)
			if err != nil {
				return nil, err
			}
			if pkt != nil {
				return pkt, nil
			}
		case streamID >= psSystemHeader:
			if err := d.skipLengthPrefixed(); err != nil {
				return nil, err
			}
		default:
			if err := d.skip(1); err != nil {
				return nil, err
			}
		}
	}
}

func isPESWithHeader(streamID byte) bool {
	return streamID == 0xBD || (streamID >= 0xC0 && streamID <= 0xEF)
}

func isVideoStreamID(streamID byte) bool {
	return streamID >= 0xE0 && streamID <= 0xEF
}

func (d *Demuxer) skipPackHeader() error {
	head, _ := d.r.Peek(14)
	if len(head) < 5 {
		return d.skip(len(head))
	}
	switch {
	case head[4]>>6 == 0x01:
		if len(head) < 14 {
			return d.skip(len(head))
		}
		return d.skip(14 + int(head[13]&0x07))
	case head[4]>>4 == 0x02:
		return d.skip(12)
	default:
		return d.skip(1)
	}
}

func (d *Demuxer) skipLengthPrefixed() error {
	head, _ := d.r.Peek(6)
	if len(head) < 6 {
		return d.skip(len(head))
	}
	length := int(binary.BigEndian.Uint16(head[4:6]))
	return d.skip(6 + length)
}

func (d *Demuxer) readPES(streamID byte) (*Packet, error) {
	head, _ := d.r.Peek(6)
	if len(head) < 6 {
		return nil, d.skip(len(head))
	}
	length := int(binary.BigEndian.Uint16(head[4:6]))
	if length == 0 {
		LogDebug("unbounded PES packet in program stream", "offset", d.offset, "stream", fmt.Sprintf("0x%02X", streamID))
		return nil, d.skip(6)
	}
	total := 6 + length
	if cap(d.buf) < total {
		d.buf = make([]byte, total)
	}
	data := d.buf[:total]
	start := d.offset
	n, err := io.ReadFull(d.r, data)
	d.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			LogDebug("truncated PES packet at end of stream", "offset", start, "have", n, "want", total)
			return nil, io.EOF
		}
		return nil, err
	}

	d.pkt = Packet{Offset: start, StreamID: streamID}
	if data[6]&0xC0 != 0x80 {
		// MPEG-1 packet layout; carried without timestamps.
		d.pkt.Payload = data[6:]
		return &d.pkt, nil
	}
	if total < 9 {
		return nil, nil
	}
	flags := data[7] >> 6
	headerLen := int(data[8])
	payloadStart := 9 + headerLen
	if payloadStart > total {
		return nil, nil
	}
	if flags&0x2 != 0 && total >= 14 {
		d.pkt.PTS = parseTimestamp(data[9:14])
		d.pkt.HasPTS = true
		d.pkt.DTS = d.pkt.PTS
	}
	if flags == 0x3 && total >= 19 {
		d.pkt.DTS = parseTimestamp(data[14:19])
		d.pkt.HasDTS = true
	}
	d.pkt.Payload = data[payloadStart:]
	return &d.pkt, nil
}

func (d *Demuxer) skip(n int) error {
	if n <= 0 {
		return nil
	}
	skipped, err := d.r.Discard(n)
	d.offset += int64(skipped)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return err
	}
	return nil
}

// parseTimestamp extracts a 33-bit PTS or DTS from its 5-byte PES encoding.
func parseTimestamp(bs []byte) int64 {
	return int64(bs[0]>>1&0x07)<<30 |
		int64(bs[1])<<22 |
		int64(bs[2]>>1&0x7F)<<15 |
		int64(bs[3])<<7 |
		int64(bs[4]>>1&0x7F)
}

// ProbeVideoStream reads up to limit bytes of r, returns the id of its only
// video stream and rewinds r.
func ProbeVideoStream(r io.ReadSeeker, limit int64) (byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	d := NewDemuxer(io.LimitReader(r, limit))
	seen := map[byte]bool{}
	var first byte
	for {
		pkt, err := d.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if !isVideoStreamID(pkt.StreamID) || seen[pkt.StreamID] {
			continue
		}
		if len(seen) == 0 {
			first = pkt.StreamID
		}
		seen[pkt.StreamID] = true
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	switch len(seen) {
	case 0:
		return 0, ErrNoVideoStream
	case 1:
		return first, nil
	default:
		return 0, fmt.Errorf("%w: %d streams", ErrMultipleVideoStreams, len(seen))
	}
}
