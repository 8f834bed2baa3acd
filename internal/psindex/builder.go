package psindex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Builder turns the PES packets of one video stream into frame records. It
// is fed in file order and finished once at the end of the stream.
type Builder struct {
	streamID byte
	gop      GopContext
	scanner  *Scanner
	extract  HeaderExtractor

	records []FrameRecord
	pending int

	curPTS int64
	curDTS int64

	curOffset  int64
	prevOffset int64
	packets    int

	rawDTS ptsTracker
	stats  Stats
}

func NewBuilder(streamID byte) *Builder {
	return &Builder{
		streamID: streamID,
		scanner:  NewScanner(),
		pending:  -1,
		stats:    Stats{StreamID: streamID},
	}
}

// Records exposes the records built so far in decode order.
func (b *Builder) Records() []FrameRecord {
	return b.records
}

func (b *Builder) AddPacket(p *Packet) error {
	if p == nil || p.StreamID != b.streamID {
		return nil
	}
	if p.HasPTS {
		b.curPTS = p.PTS
		b.curDTS = p.DTS
		if !p.HasDTS {
			b.curDTS = p.PTS
		}
		b.rawDTS.add(b.curDTS)
	}
	if b.packets > 0 {
		b.prevOffset = b.curOffset
	}
	b.curOffset = p.Offset
	b.packets++

	payload := p.Payload
	if b.extract.Pending() {
		h, _, done := b.extract.Resume(payload)
		if done {
			if err := b.applyHeader(h); err != nil {
				return b.corrupt(err)
			}
		}
	}
	for code, pos := range b.scanner.Scan(payload) {
		if code == StartPicture {
			if err := b.beginPicture(pos); err != nil {
				return b.corrupt(err)
			}
		}
		h, done := b.extract.Begin(code, payload, pos)
		if !done {
			LogDebug("header split across packets", "kind", code.String(), "offset", p.Offset, "missing", b.extract.Deficit())
			continue
		}
		if err := b.applyHeader(h); err != nil {
			return b.corrupt(err)
		}
	}
	return nil
}

func (b *Builder) corrupt(err error) error {
	return &CorruptionError{Offset: b.curOffset, Err: err}
}

func (b *Builder) beginPicture(pos int) error {
	if b.gop.FPS == 0 {
		return ErrMissingSequenceHeader
	}
	if b.pending >= 0 {
		return fmt.Errorf("%w: picture header of frame %d never completed", ErrInvalidPictureType, b.pending)
	}
	offset := b.curOffset
	// The start code began in the previous packet.
	if pos < 4 && b.packets > 1 {
		offset = b.prevOffset
	}
	rec := FrameRecord{PTS: b.curPTS, DTS: b.curDTS, PESOffset: offset}
	if n := len(b.records); n > 0 {
		prev := b.records[n-1]
		if rec.DTS <= prev.DTS {
			d := frameDuration(b.gop.FPS)
			LogDebug("adjusting dts", "frame", n, "dts", rec.DTS, "adjusted", prev.DTS+d)
			rec.DTS = prev.DTS + d
			rec.PTS = prev.DTS + d
			b.stats.RepairedTimestamps++
		}
	}
	b.records = append(b.records, rec)
	b.pending = len(b.records) - 1
	return nil
}

func (b *Builder) applyHeader(h Header) error {
	switch h.Kind {
	case StartSequence:
		if err := b.gop.OnSequenceHeader(h.Sequence.FrameRateCode); err != nil {
			return err
		}
		if b.stats.Width == 0 {
			b.stats.Width = h.Sequence.Width
			b.stats.Height = h.Sequence.Height
		}
	case StartGOP:
		b.gop.OnGOPHeader(h.GOP)
		b.stats.GOPs++
		if h.GOP.Closed {
			b.stats.ClosedGOPs++
		}
	case StartPicture:
		if b.pending < 0 {
			return nil
		}
		if !h.Picture.Type.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidPictureType, h.Picture.Type)
		}
		rec := &b.records[b.pending]
		rec.Type = h.Picture.Type
		rec.Timecode = b.gop.OnPictureHeader(h.Picture.TemporalReference)
		b.pending = -1
		switch rec.Type {
		case PictureI:
			b.stats.IFrames++
		case PictureP:
			b.stats.PFrames++
		case PictureB:
			b.stats.BFrames++
		}
	}
	return nil
}

// Finish reconstructs presentation times and returns the index in decode
// order. The builder must not be used afterwards.
func (b *Builder) Finish() (*Index, Stats, error) {
	if b.pending >= 0 {
		LogWarn("dropping frame with truncated picture header", "frame", b.pending)
		b.records = b.records[:b.pending]
		b.pending = -1
	}
	if len(b.records) == 0 {
		return nil, b.stats, ErrNoPictures
	}

	d := frameDuration(b.gop.FPS)
	reorderPTS(b.records, d)

	idx := &Index{
		Version:       IndexVersion,
		StartPTS:      b.records[0].PTS,
		StartDTS:      b.records[0].DTS,
		StartTimecode: b.records[0].Timecode,
		Records:       b.records,
	}
	var pts ptsTracker
	for _, rec := range b.records {
		pts.add(rec.PTS)
		if rec.Timecode.Less(idx.StartTimecode) {
			idx.StartTimecode = rec.Timecode
		}
	}
	idx.StartPTS = pts.min

	b.stats.Frames = len(b.records)
	b.stats.FPS = b.gop.FPS
	b.stats.GeneratedTimecode = b.gop.Generate
	b.stats.Discontinuities = b.rawDTS.resets
	if b.gop.FPS > 0 {
		b.stats.DurationSeconds = float64(pts.span()+d) / 90000.0
	}
	return idx, b.stats, nil
}

// reorderPTS moves every I and P picture to the presentation slot it
// occupies after the B pictures that follow it in decode order: its PTS
// becomes the DTS of the next I or P picture. B pictures keep the PTS from
// their packet.
func reorderPTS(records []FrameRecord, d int64) {
	last := -1
	for j := range records {
		if !records[j].Type.Anchor() {
			continue
		}
		if last >= 0 {
			records[last].PTS = records[j].DTS
		}
		last = j
	}
	if last > 0 && records[last].PTS == records[last-1].PTS {
		records[last].PTS += d
	}
}

// BuildIndex indexes the single MPEG-2 video stream of a program stream.
func BuildIndex(r io.ReadSeeker, opts BuildOptions) (*Index, Stats, error) {
	opts = normalizeBuildOptions(opts)
	streamID, err := ProbeVideoStream(r, opts.ProbeSize)
	if err != nil {
		return nil, Stats{}, err
	}
	LogDebug("video stream selected", "stream", fmt.Sprintf("0x%02X", streamID))
	return buildFrom(NewDemuxer(r), streamID)
}

func buildFrom(src PacketSource, streamID byte) (*Index, Stats, error) {
	b := NewBuilder(streamID)
	for {
		pkt, err := src.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Stats{}, err
		}
		if err := b.AddPacket(pkt); err != nil {
			return nil, Stats{}, err
		}
	}
	return b.Finish()
}

// BuildIndexFile indexes inPath and writes the index to outPath. Nothing is
// written when indexing fails.
func BuildIndexFile(inPath, outPath string, opts BuildOptions) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, err
	}
	defer in.Close()

	idx, stats, err := BuildIndex(in, opts)
	if err != nil {
		return stats, err
	}
	if err := WriteIndexFile(outPath, idx); err != nil {
		return stats, err
	}
	LogInfo("index written",
		"input", filepath.Base(inPath),
		"output", outPath,
		"frames", stats.Frames,
		"gops", stats.GOPs,
	)
	return stats, nil
}
