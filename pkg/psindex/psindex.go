package psindex

import (
	"io"

	"github.com/autobrr/go-psindex/internal/psindex"
)

// Types
type Index = psindex.Index
type FrameRecord = psindex.FrameRecord
type PictureType = psindex.PictureType
type Timecode = psindex.Timecode
type Stats = psindex.Stats
type BuildOptions = psindex.BuildOptions
type Mode = psindex.Mode
type Result = psindex.Result
type Searcher = psindex.Searcher
type CorruptionError = psindex.CorruptionError

// Constants
const (
	PictureUnknown = psindex.PictureUnknown
	PictureI       = psindex.PictureI
	PictureP       = psindex.PictureP
	PictureB       = psindex.PictureB

	ModeTimecode = psindex.ModeTimecode
	ModePTS      = psindex.ModePTS
	ModeDTS      = psindex.ModeDTS

	IndexMagic   = psindex.IndexMagic
	IndexVersion = psindex.IndexVersion
)

// Errors
var (
	ErrNoVideoStream        = psindex.ErrNoVideoStream
	ErrMultipleVideoStreams = psindex.ErrMultipleVideoStreams
	ErrNoPictures           = psindex.ErrNoPictures
	ErrInvalidPictureType   = psindex.ErrInvalidPictureType
	ErrInvalidFrameRate     = psindex.ErrInvalidFrameRate
	ErrBadMagic             = psindex.ErrBadMagic
	ErrTruncatedIndex       = psindex.ErrTruncatedIndex
	ErrEmptyIndex           = psindex.ErrEmptyIndex
)

// Building
func DefaultBuildOptions() BuildOptions {
	return psindex.DefaultBuildOptions()
}

func BuildIndex(r io.ReadSeeker, opts BuildOptions) (*Index, Stats, error) {
	return psindex.BuildIndex(r, opts)
}

func BuildIndexFile(inPath, outPath string, opts BuildOptions) (Stats, error) {
	return psindex.BuildIndexFile(inPath, outPath, opts)
}

// Index files
func WriteIndex(w io.Writer, idx *Index) error {
	return psindex.WriteIndex(w, idx)
}

func WriteIndexFile(path string, idx *Index) error {
	return psindex.WriteIndexFile(path, idx)
}

func ReadIndex(r io.Reader) (*Index, error) {
	return psindex.ReadIndex(r)
}

func LoadIndexFile(path string) (*Index, error) {
	return psindex.LoadIndexFile(path)
}

// Searching
func NewSearcher(idx *Index) (*Searcher, error) {
	return psindex.NewSearcher(idx)
}

func ParseMode(value string) (Mode, error) {
	return psindex.ParseMode(value)
}

func ParseKey(mode Mode, value string) (int64, error) {
	return psindex.ParseKey(mode, value)
}

func ParseTimecode(value string) (Timecode, error) {
	return psindex.ParseTimecode(value)
}

// Errors
func IsInputError(err error) bool {
	return psindex.IsInputError(err)
}

func IsCorruption(err error) bool {
	return psindex.IsCorruption(err)
}

func IsFormatError(err error) bool {
	return psindex.IsFormatError(err)
}

func FormatVersion(version string) string {
	return psindex.FormatVersion(version)
}

func SetAppVersion(version string) {
	psindex.SetAppVersion(version)
}
