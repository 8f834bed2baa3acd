package psindex

import (
	"bytes"
	"encoding/binary"
)

const (
	tsNone = iota
	tsPTS
	tsPTSDTS
)

// psWriter assembles a synthetic MPEG-2 program stream.
type psWriter struct {
	buf bytes.Buffer
}

func (w *psWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *psWriter) offset() int64 {
	return int64(w.buf.Len())
}

func (w *psWriter) pack() {
	w.buf.Write([]byte{0x00, 0x00, 0x01, 0xBA, 0x44, 0x00, 0x04, 0x00, 0x04, 0x01, 0x01, 0x89, 0xC3, 0xF8})
}

func (w *psWriter) systemHeader() {
	body := []byte{0x80, 0x01, 0x01, 0x04, 0xE1, 0xFF, 0xE0, 0xE0, 0xE8}
	w.lengthPrefixed(0xBB, body)
}

func (w *psWriter) padding(n int) {
	w.lengthPrefixed(0xBE, bytes.Repeat([]byte{0xFF}, n))
}

func (w *psWriter) lengthPrefixed(id byte, body []byte) {
	w.buf.Write([]byte{0x00, 0x00, 0x01, id})
	_ = binary.Write(&w.buf, binary.BigEndian, uint16(len(body)))
	w.buf.Write(body)
}

// pes writes one PES packet and returns its offset.
func (w *psWriter) pes(streamID byte, ts int, pts, dts int64, payload []byte) int64 {
	off := w.offset()
	var hdr []byte
	switch ts {
	case tsPTS:
		hdr = append([]byte{0x80, 0x80, 5}, encodeTimestamp(0x2, pts)...)
	case tsPTSDTS:
		hdr = append([]byte{0x80, 0xC0, 10}, encodeTimestamp(0x3, pts)...)
		hdr = append(hdr, encodeTimestamp(0x1, dts)...)
	default:
		hdr = []byte{0x80, 0x00, 0}
	}
	w.lengthPrefixed(streamID, append(hdr, payload...))
	return off
}

func encodeTimestamp(prefix byte, ts int64) []byte {
	return []byte{
		prefix<<4 | byte(ts>>29)&0x0E | 1,
		byte(ts >> 22),
		byte(ts>>14)&0xFE | 1,
		byte(ts >> 7),
		byte(ts<<1) | 1,
	}
}

func sequenceHeaderBytes(width, height int, rateCode byte) []byte {
	return []byte{
		0x00, 0x00, 0x01, 0xB3,
		byte(width >> 4), byte(width<<4) | byte(height>>8&0x0F), byte(height),
		0x20 | rateCode&0x0F,
		0xFF, 0xFF, 0xE0, 0x18,
	}
}

func gopHeaderBytes(drop bool, tc Timecode, closed bool) []byte {
	var v uint32
	if drop {
		v |= 1 << 31
	}
	v |= uint32(tc.Hours&0x1F) << 26
	v |= uint32(tc.Minutes&0x3F) << 20
	v |= 1 << 19
	v |= uint32(tc.Seconds&0x3F) << 13
	v |= uint32(tc.Frames&0x3F) << 7
	if closed {
		v |= 1 << 6
	}
	out := []byte{0x00, 0x00, 0x01, 0xB8}
	return binary.BigEndian.AppendUint32(out, v)
}

func pictureHeaderBytes(tref int, typ PictureType) []byte {
	return []byte{
		0x00, 0x00, 0x01, 0x00,
		byte(tref >> 2), byte(tref&0x03)<<6 | byte(typ&0x07)<<3,
		0xFF, 0xF8,
	}
}

// sliceBytes stands in for coded picture data. It holds a slice start code,
// which the index ignores, and no other start code prefix.
func sliceBytes(n int) []byte {
	out := []byte{0x00, 0x00, 0x01, 0x01}
	return append(out, bytes.Repeat([]byte{0xA5}, n)...)
}

type testFrame struct {
	Type     PictureType
	TempRef  int
	PTS, DTS int64
	GOP      *GOPHeader
}

type testStream struct {
	data    []byte
	offsets []int64
}

// buildTestStream writes one pack and one video PES packet per frame. The
// first packet also carries a sequence header.
func buildTestStream(streamID, rateCode byte, frames []testFrame) testStream {
	var w psWriter
	w.pack()
	w.systemHeader()
	var out testStream
	for i, f := range frames {
		var es []byte
		if i == 0 {
			es = append(es, sequenceHeaderBytes(720, 576, rateCode)...)
		}
		if f.GOP != nil {
			es = append(es, gopHeaderBytes(f.GOP.Drop, f.GOP.Timecode, f.GOP.Closed)...)
		}
		es = append(es, pictureHeaderBytes(f.TempRef, f.Type)...)
		es = append(es, sliceBytes(32)...)

		w.pack()
		ts := tsPTSDTS
		if f.Type == PictureB {
			ts = tsPTS
		}
		out.offsets = append(out.offsets, w.pes(streamID, ts, f.PTS, f.DTS, es))
		if i%4 == 1 {
			w.pes(0xC0, tsPTS, f.PTS, f.PTS, bytes.Repeat([]byte{0x11}, 24))
		}
	}
	w.buf.Write([]byte{0x00, 0x00, 0x01, 0xB9})
	out.data = w.Bytes()
	return out
}

const (
	testBase   = int64(90000)
	frameTicks = int64(3600)
)

// threeGOPFrames is the decode-order pattern I B B P B B I B B P B B I at 25
// fps. Each GOP opens with two B frames shown before its I frame; B frames
// are presented when decoded.
func threeGOPFrames() []testFrame {
	types := []PictureType{
		PictureI, PictureB, PictureB, PictureP, PictureB, PictureB,
		PictureI, PictureB, PictureB, PictureP, PictureB, PictureB,
		PictureI,
	}
	trefs := []int{2, 0, 1, 5, 3, 4, 2, 0, 1, 5, 3, 4, 0}
	gops := map[int]*GOPHeader{
		0:  {Timecode: Timecode{Hours: 10}},
		6:  {Timecode: Timecode{Hours: 10, Frames: 6}},
		12: {Timecode: Timecode{Hours: 10, Frames: 12}, Closed: true},
	}
	frames := make([]testFrame, len(types))
	for i, typ := range types {
		dts := testBase + int64(i)*frameTicks
		pts := dts
		if typ != PictureB {
			pts = dts + 3*frameTicks
			if i == len(types)-1 {
				pts = dts + frameTicks
			}
		}
		frames[i] = testFrame{Type: typ, TempRef: trefs[i], PTS: pts, DTS: dts, GOP: gops[i]}
	}
	return frames
}
