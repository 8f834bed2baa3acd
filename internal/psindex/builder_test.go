package psindex

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildTestIndex(t *testing.T, frames []testFrame) (*Index, Stats, testStream) {
	t.Helper()
	stream := buildTestStream(0xE0, 3, frames)
	idx, stats, err := BuildIndex(bytes.NewReader(stream.data), DefaultBuildOptions())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx, stats, stream
}

func TestBuildIndexThreeGOPs(t *testing.T) {
	frames := threeGOPFrames()
	idx, stats, stream := buildTestIndex(t, frames)

	if idx.Len() != 13 {
		t.Fatalf("records=%d, want 13", idx.Len())
	}
	for i, rec := range idx.Records {
		if rec.Type != frames[i].Type {
			t.Fatalf("record %d type=%v, want %v", i, rec.Type, frames[i].Type)
		}
		if rec.DTS != frames[i].DTS {
			t.Fatalf("record %d dts=%d, want %d", i, rec.DTS, frames[i].DTS)
		}
		if rec.PESOffset != stream.offsets[i] {
			t.Fatalf("record %d pes offset=%d, want %d", i, rec.PESOffset, stream.offsets[i])
		}
		if i > 0 && rec.DTS <= idx.Records[i-1].DTS {
			t.Fatalf("dts not increasing at %d", i)
		}
	}

	// Anchors take the decode time of the next anchor; B frames keep theirs.
	wantPTS := map[int]int64{0: 3, 3: 6, 6: 9, 9: 12, 12: 13, 1: 1, 8: 8}
	for i, ticks := range wantPTS {
		if got := idx.Records[i].PTS; got != testBase+ticks*frameTicks {
			t.Fatalf("record %d pts=%d, want %d", i, got, testBase+ticks*frameTicks)
		}
	}

	if idx.StartDTS != testBase {
		t.Fatalf("start dts=%d, want %d", idx.StartDTS, testBase)
	}
	if idx.StartPTS != testBase+frameTicks {
		t.Fatalf("start pts=%d, want %d", idx.StartPTS, testBase+frameTicks)
	}
	if want := (Timecode{Hours: 10}); idx.StartTimecode != want || idx.Records[1].Timecode != want {
		t.Fatalf("start timecode=%v first B=%v, want %v", idx.StartTimecode, idx.Records[1].Timecode, want)
	}
	if got, want := idx.Records[0].Timecode, (Timecode{Hours: 10, Frames: 2}); got != want {
		t.Fatalf("I timecode=%v, want %v", got, want)
	}

	if stats.Frames != 13 || stats.IFrames != 3 || stats.PFrames != 2 || stats.BFrames != 8 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.GOPs != 3 || stats.ClosedGOPs != 1 || stats.FPS != 25 || stats.Width != 720 || stats.Height != 576 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.RepairedTimestamps != 0 || stats.GeneratedTimecode {
		t.Fatalf("stats=%+v", stats)
	}

	var buf bytes.Buffer
	if err := WriteIndex(&buf, idx); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 1; i < idx.Len(); i++ {
		if idx.Records[i].PTS < idx.Records[i-1].PTS {
			t.Fatalf("pts not sorted at %d", i)
		}
		if idx.Records[i].Timecode.Less(idx.Records[i-1].Timecode) {
			t.Fatalf("timecode not sorted at %d", i)
		}
	}

	loaded, err := ReadIndex(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s, err := NewSearcher(loaded)
	if err != nil {
		t.Fatalf("searcher: %v", err)
	}
	// Second B frame of GOP 2 in decode order.
	res, err := s.Search(ModeDTS, frames[8].DTS)
	if err != nil || !res.Found {
		t.Fatalf("search=%+v err=%v", res, err)
	}
	match := s.Record(res.Position)
	if match.Type != PictureB || match.PESOffset != stream.offsets[8] {
		t.Fatalf("match=%+v, want B at %d", match, stream.offsets[8])
	}
	if res.Anchor < 0 {
		t.Fatal("no anchor for B frame")
	}
	anchor := s.Record(res.Anchor)
	if anchor.Type != PictureI || anchor.DTS != frames[6].DTS {
		t.Fatalf("anchor=%+v, want GOP 2 I frame", anchor)
	}
}

func TestBuilderRepairsDTS(t *testing.T) {
	frames := threeGOPFrames()[:7]
	frames[4].DTS = frames[3].DTS
	frames[4].PTS = frames[3].DTS
	frames[5].DTS = frames[3].DTS - frameTicks
	frames[5].PTS = frames[5].DTS
	idx, stats, _ := buildTestIndex(t, frames)

	if stats.RepairedTimestamps != 2 {
		t.Fatalf("repaired=%d, want 2", stats.RepairedTimestamps)
	}
	if got, want := idx.Records[4].DTS, frames[3].DTS+frameTicks; got != want {
		t.Fatalf("repaired dts=%d, want %d", got, want)
	}
	if got, want := idx.Records[5].PTS, frames[3].DTS+2*frameTicks; got != want {
		t.Fatalf("repaired pts=%d, want %d", got, want)
	}
	for i := 1; i < idx.Len(); i++ {
		if idx.Records[i].DTS <= idx.Records[i-1].DTS {
			t.Fatalf("dts not increasing at %d: %d after %d", i, idx.Records[i].DTS, idx.Records[i-1].DTS)
		}
	}
}

func TestBuilderTracksPacketTimestamps(t *testing.T) {
	b := NewBuilder(0xE0)
	es := append(sequenceHeaderBytes(720, 576, 3), gopHeaderBytes(false, Timecode{Hours: 1}, true)...)
	es = append(es, pictureHeaderBytes(0, PictureI)...)
	if err := b.AddPacket(&Packet{Offset: 10, StreamID: 0xE0, PTS: 7200, DTS: 3600, HasPTS: true, HasDTS: true, Payload: es}); err != nil {
		t.Fatal(err)
	}
	// Packets of other streams and packets without timestamps.
	if err := b.AddPacket(&Packet{Offset: 20, StreamID: 0xC0, PTS: 1, HasPTS: true, Payload: pictureHeaderBytes(0, PictureB)}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPacket(&Packet{Offset: 30, StreamID: 0xE0, Payload: pictureHeaderBytes(1, PictureB)}); err != nil {
		t.Fatal(err)
	}
	recs := b.Records()
	if len(recs) != 2 {
		t.Fatalf("records=%d, want 2", len(recs))
	}
	// The B frame reuses the last timestamps and is repaired to keep dts
	// increasing.
	if recs[1].DTS != 7200 || recs[1].PESOffset != 30 {
		t.Fatalf("record=%+v", recs[1])
	}
	if recs[1].Timecode != (Timecode{Hours: 1, Frames: 1}) {
		t.Fatalf("timecode=%v", recs[1].Timecode)
	}
}

func TestBuilderPESOffsetOfSplitStartCode(t *testing.T) {
	b := NewBuilder(0xE0)
	head := append(sequenceHeaderBytes(720, 576, 3), gopHeaderBytes(false, Timecode{}, true)...)
	pic := pictureHeaderBytes(0, PictureI)
	if err := b.AddPacket(&Packet{Offset: 100, StreamID: 0xE0, PTS: 3600, HasPTS: true, Payload: append(head, pic[:2]...)}); err != nil {
		t.Fatal(err)
	}
	// The start code completes at the second byte of this packet.
	if err := b.AddPacket(&Packet{Offset: 200, StreamID: 0xE0, Payload: pic[2:5]}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPacket(&Packet{Offset: 300, StreamID: 0xE0, Payload: pic[5:]}); err != nil {
		t.Fatal(err)
	}
	recs := b.Records()
	if len(recs) != 1 {
		t.Fatalf("records=%d, want 1", len(recs))
	}
	if recs[0].PESOffset != 100 {
		t.Fatalf("pes offset=%d, want 100", recs[0].PESOffset)
	}
	if recs[0].Type != PictureI {
		t.Fatalf("type=%v, want I after header split over three packets", recs[0].Type)
	}

	// A start code that completes at byte 4 starts in the current packet.
	if err := b.AddPacket(&Packet{Offset: 400, StreamID: 0xE0, PTS: 7200, HasPTS: true, Payload: pictureHeaderBytes(1, PictureP)}); err != nil {
		t.Fatal(err)
	}
	if got := b.Records()[1].PESOffset; got != 400 {
		t.Fatalf("pes offset=%d, want 400", got)
	}
}

func TestBuilderInvalidPictureType(t *testing.T) {
	frames := threeGOPFrames()[:4]
	frames[2].Type = PictureType(4)
	stream := buildTestStream(0xE0, 3, frames)
	_, _, err := BuildIndex(bytes.NewReader(stream.data), DefaultBuildOptions())
	if !errors.Is(err, ErrInvalidPictureType) || !IsCorruption(err) {
		t.Fatalf("err=%v, want corrupt picture type", err)
	}
	var ce *CorruptionError
	if !errors.As(err, &ce) || ce.Offset != stream.offsets[2] {
		t.Fatalf("err=%v, want corruption at %d", err, stream.offsets[2])
	}
}

func TestBuilderInvalidFrameRate(t *testing.T) {
	stream := buildTestStream(0xE0, 0, threeGOPFrames()[:2])
	_, _, err := BuildIndex(bytes.NewReader(stream.data), DefaultBuildOptions())
	if !errors.Is(err, ErrInvalidFrameRate) || !IsCorruption(err) {
		t.Fatalf("err=%v, want invalid frame rate", err)
	}
}

func TestBuilderPictureBeforeSequenceHeader(t *testing.T) {
	b := NewBuilder(0xE0)
	err := b.AddPacket(&Packet{StreamID: 0xE0, Payload: pictureHeaderBytes(0, PictureI)})
	if !errors.Is(err, ErrMissingSequenceHeader) {
		t.Fatalf("err=%v, want ErrMissingSequenceHeader", err)
	}
}

func TestBuilderDropsTruncatedLastPicture(t *testing.T) {
	b := NewBuilder(0xE0)
	es := append(sequenceHeaderBytes(720, 576, 3), pictureHeaderBytes(0, PictureI)...)
	es = append(es, 0x00, 0x00, 0x01, 0x00, 0x00)
	if err := b.AddPacket(&Packet{StreamID: 0xE0, PTS: 3600, HasPTS: true, Payload: es}); err != nil {
		t.Fatal(err)
	}
	idx, stats, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 || stats.Frames != 1 {
		t.Fatalf("records=%d frames=%d, want 1", idx.Len(), stats.Frames)
	}
}

func TestBuildIndexNoPictures(t *testing.T) {
	var w psWriter
	w.pack()
	w.pes(0xE0, tsPTS, 0, 0, sequenceHeaderBytes(720, 576, 3))
	_, _, err := BuildIndex(bytes.NewReader(w.Bytes()), DefaultBuildOptions())
	if !errors.Is(err, ErrNoPictures) || !IsInputError(err) {
		t.Fatalf("err=%v, want ErrNoPictures", err)
	}
}

func TestReorderPTS(t *testing.T) {
	recs := []FrameRecord{
		{Type: PictureI, DTS: 0, PTS: 50},
		{Type: PictureP, DTS: 1, PTS: 51},
		{Type: PictureB, DTS: 2, PTS: 2},
		{Type: PictureP, DTS: 3, PTS: 4},
		{Type: PictureP, DTS: 4, PTS: 4},
	}
	reorderPTS(recs, 10)
	want := []int64{1, 3, 2, 4, 14}
	for i, rec := range recs {
		if rec.PTS != want[i] {
			t.Fatalf("record %d pts=%d, want %d", i, rec.PTS, want[i])
		}
	}
}

func TestBuildIndexFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mpg")
	out := filepath.Join(dir, "out.idx")
	stream := buildTestStream(0xE0, 3, threeGOPFrames())
	if err := os.WriteFile(in, stream.data, 0o644); err != nil {
		t.Fatal(err)
	}
	stats, err := BuildIndexFile(in, out, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(HeaderSize + RecordSize*stats.Frames); info.Size() != want {
		t.Fatalf("size=%d, want %d", info.Size(), want)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("dir has %d entries, want input and index only", len(entries))
	}

	if _, err := BuildIndexFile(filepath.Join(dir, "missing.mpg"), filepath.Join(dir, "x.idx"), BuildOptions{}); err == nil {
		t.Fatal("want error for missing input")
	}
	if _, err := os.Stat(filepath.Join(dir, "x.idx")); !os.IsNotExist(err) {
		t.Fatalf("index written for failed build: %v", err)
	}
}
