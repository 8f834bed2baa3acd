package psindex

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Mode int

const (
	ModeTimecode Mode = 1
	ModePTS      Mode = 2
	ModeDTS      Mode = 4
)

func (m Mode) String() string {
	switch m {
	case ModeTimecode:
		return "timecode"
	case ModePTS:
		return "pts"
	case ModeDTS:
		return "dts"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts a mode name or its numeric flag value (1, 2 or 4).
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "timecode", "tc", "1":
		return ModeTimecode, nil
	case "pts", "2":
		return ModePTS, nil
	case "dts", "4":
		return ModeDTS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// ParseKey converts a query string into the integer key searched in mode.
// Timecodes become their collapsed form.
func ParseKey(mode Mode, value string) (int64, error) {
	switch mode {
	case ModeTimecode:
		tc, err := ParseTimecode(value)
		if err != nil {
			return 0, err
		}
		return int64(tc.Collapse()), nil
	case ModePTS, ModeDTS:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q is not a %s value", ErrInvalidKey, value, mode)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// Result of one query. Position and Anchor index the PTS-ordered records.
// Anchor is -1 when the matched frame is itself an I frame.
type Result struct {
	Found       bool
	Position    int
	Anchor      int
	BeforeStart bool
}

// Searcher answers point queries over a loaded index. It never modifies the
// index, so one Searcher may serve concurrent queries.
type Searcher struct {
	idx *Index
}

// NewSearcher wraps idx. Records that are not yet in PTS order are sorted.
func NewSearcher(idx *Index) (*Searcher, error) {
	if idx.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	if !sort.SliceIsSorted(idx.Records, func(i, j int) bool {
		return idx.Records[i].PTS < idx.Records[j].PTS
	}) {
		SortRecords(idx.Records)
	}
	return &Searcher{idx: idx}, nil
}

func (s *Searcher) Index() *Index {
	return s.idx
}

func (s *Searcher) Record(i int) FrameRecord {
	return s.idx.Records[i]
}

func (s *Searcher) Search(mode Mode, key int64) (Result, error) {
	res := Result{Position: -1, Anchor: -1}
	var (
		pos   int
		found bool
		start int64
	)
	switch mode {
	case ModeTimecode:
		pos, found = s.bisect(key, func(r *FrameRecord) int64 { return int64(r.Timecode.Collapse()) })
		start = int64(s.idx.StartTimecode.Collapse())
	case ModePTS:
		pos, found = s.bisect(key, func(r *FrameRecord) int64 { return r.PTS })
		start = s.idx.StartPTS
	case ModeDTS:
		pos, found = s.searchDTS(key)
		start = s.idx.StartDTS
	default:
		return res, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if !found {
		res.BeforeStart = key < start
		return res, nil
	}
	res.Found = true
	res.Position = pos
	res.Anchor = s.anchorFor(pos)
	return res, nil
}

func (s *Searcher) bisect(key int64, field func(*FrameRecord) int64) (int, bool) {
	recs := s.idx.Records
	i := sort.Search(len(recs), func(i int) bool {
		return field(&recs[i]) >= key
	})
	if i < len(recs) && field(&recs[i]) == key {
		return i, true
	}
	return -1, false
}

// searchDTS bisects over groups. In PTS order every I or P frame is followed
// by a run of B frames. Anchors appear with increasing DTS and each run holds
// the B frames decoded between the next anchor and the one after it.
func (s *Searcher) searchDTS(key int64) (int, bool) {
	recs := s.idx.Records
	lo, hi := 0, len(recs)-1
	last := -2
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		anchor := mid
		for anchor >= 0 && !recs[anchor].Type.Anchor() {
			anchor--
		}
		if anchor == last {
			break
		}
		last = anchor

		// anchor is -1 for a leading run of B frames.
		first := max(anchor, 0)
		next := anchor + 1
		for next < len(recs) && !recs[next].Type.Anchor() {
			next++
		}
		for i := first; i < next; i++ {
			if recs[i].DTS == key {
				return i, true
			}
		}
		switch {
		case anchor >= 0 && key < recs[anchor].DTS:
			hi = first - 1
		case next >= len(recs) || key < recs[next].DTS:
			// B frames decoded after the last anchor sit in the
			// group before it.
			hi = first - 1
		default:
			lo = next
		}
	}
	return -1, false
}

// anchorFor returns the I frame decoding must start from to reach the frame
// at pos, or -1 when that frame is an I frame.
func (s *Searcher) anchorFor(pos int) int {
	recs := s.idx.Records
	if recs[pos].Type == PictureI {
		return -1
	}
	for i := pos + 1; i < len(recs); i++ {
		if !recs[i].Type.Anchor() {
			continue
		}
		if recs[i].Type == PictureI && recs[i].DTS < recs[pos].DTS {
			return i
		}
		break
	}
	for i := pos - 1; i >= 0; i-- {
		if recs[i].Type == PictureI {
			return i
		}
	}
	LogWarn("no I frame found for frame", "position", pos, "dts", recs[pos].DTS)
	return -1
}
