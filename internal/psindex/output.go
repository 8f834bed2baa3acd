package psindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const fieldWidth = 20

type FrameView struct {
	Position  int    `json:"position"`
	Type      string `json:"type"`
	Timecode  string `json:"timecode"`
	PTS       int64  `json:"pts"`
	DTS       int64  `json:"dts"`
	PESOffset int64  `json:"pes_offset"`
}

func NewFrameView(position int, rec FrameRecord) FrameView {
	return FrameView{
		Position:  position,
		Type:      rec.Type.String(),
		Timecode:  rec.Timecode.String(),
		PTS:       rec.PTS,
		DTS:       rec.DTS,
		PESOffset: rec.PESOffset,
	}
}

type IndexSummary struct {
	Name          string `json:"name"`
	Version       int    `json:"version"`
	StartPTS      int64  `json:"start_pts"`
	StartDTS      int64  `json:"start_dts"`
	StartTimecode string `json:"start_timecode"`
	Records       int    `json:"records"`
}

func Summarize(idx *Index) IndexSummary {
	return IndexSummary{
		Name:          AppName,
		Version:       int(idx.Version),
		StartPTS:      idx.StartPTS,
		StartDTS:      idx.StartDTS,
		StartTimecode: idx.StartTimecode.String(),
		Records:       idx.Len(),
	}
}

// SearchView is the rendered form of one query and its answer.
type SearchView struct {
	Mode        string     `json:"mode"`
	Key         string     `json:"key"`
	Found       bool       `json:"found"`
	BeforeStart bool       `json:"before_start,omitempty"`
	Frame       *FrameView `json:"frame,omitempty"`
	Anchor      *FrameView `json:"anchor,omitempty"`
	Start       *FrameView `json:"start,omitempty"`
}

func (s *Searcher) View(mode Mode, key int64, res Result) SearchView {
	view := SearchView{
		Mode:        mode.String(),
		Key:         formatKey(mode, key),
		Found:       res.Found,
		BeforeStart: res.BeforeStart,
	}
	if res.Found {
		frame := NewFrameView(res.Position, s.Record(res.Position))
		view.Frame = &frame
		if res.Anchor >= 0 {
			anchor := NewFrameView(res.Anchor, s.Record(res.Anchor))
			view.Anchor = &anchor
		}
	}
	if res.BeforeStart {
		start := NewFrameView(0, s.Record(0))
		view.Start = &start
	}
	return view
}

func formatKey(mode Mode, key int64) string {
	if mode == ModeTimecode && key >= 0 {
		if tc, err := TimecodeFromCollapsed(uint64(key)); err == nil {
			return tc.String()
		}
	}
	return strconv.FormatInt(key, 10)
}

func RenderSearchText(view SearchView) string {
	var buf bytes.Buffer
	switch {
	case view.Found:
		writeFrame(&buf, "Frame "+view.Frame.Type, *view.Frame)
		if view.Anchor != nil {
			buf.WriteString("\n")
			writeFrame(&buf, "Related key-frame", *view.Anchor)
		}
	case view.BeforeStart:
		fmt.Fprintf(&buf, "%s %s is before the start of the video\n", view.Mode, view.Key)
		buf.WriteString("\n")
		writeFrame(&buf, "Video starts at", *view.Start)
	default:
		fmt.Fprintf(&buf, "Frame could not be found for %s %s\n", view.Mode, view.Key)
	}
	return buf.String()
}

func RenderSearchJSON(view SearchView) (string, error) {
	return renderJSON(view)
}

func RenderIndexText(idx *Index) string {
	var buf bytes.Buffer
	summary := Summarize(idx)
	buf.WriteString("Index\n")
	writeField(&buf, "Magic", fmt.Sprintf("%#016x", IndexMagic))
	writeField(&buf, "Version", strconv.Itoa(summary.Version))
	writeField(&buf, "Start PTS", formatTicks(summary.StartPTS))
	writeField(&buf, "Start DTS", formatTicks(summary.StartDTS))
	writeField(&buf, "Start timecode", summary.StartTimecode)
	writeField(&buf, "Records", strconv.Itoa(summary.Records))
	for i, rec := range idx.Records {
		buf.WriteString("\n")
		writeFrame(&buf, "Frame #"+strconv.Itoa(i), NewFrameView(i, rec))
	}
	return buf.String()
}

func RenderIndexJSON(idx *Index) (string, error) {
	frames := make([]FrameView, 0, idx.Len())
	for i, rec := range idx.Records {
		frames = append(frames, NewFrameView(i, rec))
	}
	return renderJSON(struct {
		Index  IndexSummary `json:"index"`
		Frames []FrameView  `json:"frames"`
	}{Summarize(idx), frames})
}

func RenderStatsText(stats Stats) string {
	var buf bytes.Buffer
	buf.WriteString("Video\n")
	writeField(&buf, "Stream ID", fmt.Sprintf("0x%02X", stats.StreamID))
	if stats.Width > 0 {
		writeField(&buf, "Size", fmt.Sprintf("%dx%d", stats.Width, stats.Height))
	}
	writeField(&buf, "Frame rate", fmt.Sprintf("%d FPS", stats.FPS))
	if d := formatDuration(stats.DurationSeconds); d != "" {
		writeField(&buf, "Duration", d)
	}
	writeField(&buf, "Frames", fmt.Sprintf("%d (I %d, P %d, B %d)", stats.Frames, stats.IFrames, stats.PFrames, stats.BFrames))
	writeField(&buf, "GOPs", fmt.Sprintf("%d (%d closed)", stats.GOPs, stats.ClosedGOPs))
	if stats.GeneratedTimecode {
		writeField(&buf, "Timecode", "generated")
	}
	if stats.RepairedTimestamps > 0 {
		writeField(&buf, "Repaired timestamps", strconv.Itoa(stats.RepairedTimestamps))
	}
	if stats.Discontinuities > 0 {
		writeField(&buf, "Discontinuities", strconv.Itoa(stats.Discontinuities))
	}
	return buf.String()
}

func RenderStatsJSON(stats Stats) (string, error) {
	return renderJSON(stats)
}

func writeFrame(buf *bytes.Buffer, title string, frame FrameView) {
	buf.WriteString(title)
	buf.WriteString("\n")
	writeField(buf, "Position", strconv.Itoa(frame.Position))
	writeField(buf, "Type", frame.Type)
	writeField(buf, "Timecode", frame.Timecode)
	writeField(buf, "PTS", formatTicks(frame.PTS))
	writeField(buf, "DTS", formatTicks(frame.DTS))
	writeField(buf, "PES offset", strconv.FormatInt(frame.PESOffset, 10))
}

func writeField(buf *bytes.Buffer, name, value string) {
	buf.WriteString(padRight(name, fieldWidth))
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\n")
}

func renderJSON(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n") + "\n", nil
}
