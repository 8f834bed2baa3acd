package psindex

// Stats summarises one indexing pass.
type Stats struct {
	StreamID           byte    `json:"stream_id"`
	Frames             int     `json:"frames"`
	IFrames            int     `json:"i_frames"`
	PFrames            int     `json:"p_frames"`
	BFrames            int     `json:"b_frames"`
	GOPs               int     `json:"gops"`
	ClosedGOPs         int     `json:"closed_gops"`
	RepairedTimestamps int     `json:"repaired_timestamps"`
	Discontinuities    int     `json:"discontinuities"`
	GeneratedTimecode  bool    `json:"generated_timecode"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	FPS                int     `json:"fps"`
	DurationSeconds    float64 `json:"duration_seconds"`
}

type ptsTracker struct {
	min    int64
	max    int64
	last   int64
	resets int
	ok     bool
}

func (t *ptsTracker) add(pts int64) {
	if !t.ok {
		t.min = pts
		t.max = pts
		t.last = pts
		t.ok = true
		return
	}
	if pts < t.last {
		t.resets++
	}
	t.min = min(t.min, pts)
	t.max = max(t.max, pts)
	t.last = pts
}

func (t ptsTracker) span() int64 {
	if !t.ok {
		return 0
	}
	return t.max - t.min
}
