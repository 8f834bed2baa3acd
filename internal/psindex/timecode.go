package psindex

import (
	"fmt"
	"strconv"
	"strings"
)

type Timecode struct {
	Hours   uint8
	Minutes uint8
	Seconds uint8
	Frames  uint8
}

// Collapse folds the timecode into a single comparable integer, hhmmssff in
// decimal digits.
func (tc Timecode) Collapse() uint64 {
	return uint64(tc.Hours)*1_000_000 + uint64(tc.Minutes)*10_000 + uint64(tc.Seconds)*100 + uint64(tc.Frames)
}

func (tc Timecode) IsZero() bool {
	return tc == Timecode{}
}

func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

func (tc Timecode) Less(other Timecode) bool {
	return tc.Collapse() < other.Collapse()
}

func TimecodeFromCollapsed(v uint64) (Timecode, error) {
	h := v / 1_000_000
	m := (v / 10_000) % 100
	s := (v / 100) % 100
	f := v % 100
	if h >= 24 || m >= 60 || s >= 60 {
		return Timecode{}, fmt.Errorf("%w: timecode %d out of range", ErrInvalidKey, v)
	}
	return Timecode{Hours: uint8(h), Minutes: uint8(m), Seconds: uint8(s), Frames: uint8(f)}, nil
}

// ParseTimecode accepts hh:mm:ss:ff, hh:mm:ss;ff and the collapsed hhmmssff
// digit form.
func ParseTimecode(value string) (Timecode, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timecode{}, fmt.Errorf("%w: empty timecode", ErrInvalidKey)
	}
	if !strings.ContainsAny(value, ":;.") {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidKey, value)
		}
		return TimecodeFromCollapsed(v)
	}
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ':' || r == ';' || r == '.'
	})
	if len(parts) != 4 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidKey, value)
	}
	var nums [4]uint64
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil || n > 99 {
			return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidKey, value)
		}
		nums[i] = n
	}
	return TimecodeFromCollapsed(nums[0]*1_000_000 + nums[1]*10_000 + nums[2]*100 + nums[3])
}

var frameRates = [8]int{24, 24, 25, 30, 30, 50, 60, 60}

func frameRateFromCode(code byte) (int, error) {
	if code == 0 || int(code) > len(frameRates) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFrameRate, code)
	}
	return frameRates[code-1], nil
}

// frameDuration is the nominal picture duration in 90 kHz ticks.
func frameDuration(fps int) int64 {
	if fps <= 0 {
		return 0
	}
	return int64((90000 + fps/2) / fps)
}

// GopContext is the running timecode state of one indexing pass.
type GopContext struct {
	Base     Timecode
	FPS      int
	Drop     bool
	Generate bool
	GOPCount int

	zeroRun int
	last    Timecode
}

// OnSequenceHeader fixes the frame rate from the first sequence header seen.
func (g *GopContext) OnSequenceHeader(frameRateCode byte) error {
	if g.FPS != 0 {
		return nil
	}
	fps, err := frameRateFromCode(frameRateCode)
	if err != nil {
		return err
	}
	g.FPS = fps
	return nil
}

func (g *GopContext) OnGOPHeader(h GOPHeader) {
	g.Drop = h.Drop
	g.Base = h.Timecode
	g.GOPCount++
	if h.Timecode.IsZero() {
		g.zeroRun++
	} else {
		g.zeroRun = 0
	}
	if !g.Generate && g.GOPCount >= 2 && g.zeroRun >= 2 {
		g.Generate = true
		LogDebug("no timecode in stream, generating", "gop", g.GOPCount)
	}
}

func (g *GopContext) OnPictureHeader(temporalReference int) Timecode {
	var tc Timecode
	if g.Generate {
		tc = g.advance(g.last, temporalReference+1)
	} else {
		tc = g.advance(g.Base, temporalReference)
		if g.Drop && tc.Minutes%10 != 0 && tc.Minutes != g.Base.Minutes {
			tc = g.advance(tc, 2)
		}
	}
	g.last = tc
	return tc
}

func (g *GopContext) advance(from Timecode, frames int) Timecode {
	return carryTimecode(int(from.Hours), int(from.Minutes), int(from.Seconds), int(from.Frames)+frames, g.FPS)
}

// carryTimecode normalises each field into its range. Hours roll over to 0
// past midnight; there is no day field.
func carryTimecode(h, m, s, f, fps int) Timecode {
	if fps > 0 {
		for f >= fps {
			f -= fps
			s++
		}
	}
	for s >= 60 {
		s -= 60
		m++
	}
	for m >= 60 {
		m -= 60
		h++
	}
	for h >= 24 {
		h -= 24
	}
	return Timecode{Hours: uint8(h), Minutes: uint8(m), Seconds: uint8(s), Frames: uint8(f)}
}
