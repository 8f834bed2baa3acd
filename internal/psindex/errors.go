package psindex

import (
	"errors"
	"fmt"
)

var (
	ErrNoVideoStream        = errors.New("psindex: no video stream in input")
	ErrMultipleVideoStreams = errors.New("psindex: more than one video stream in input")
	ErrNoPictures           = errors.New("psindex: no pictures in video stream")

	ErrInvalidPictureType    = errors.New("psindex: invalid picture coding type")
	ErrInvalidFrameRate      = errors.New("psindex: invalid frame rate code")
	ErrMissingSequenceHeader = errors.New("psindex: picture before sequence header")
	ErrBadMagic              = errors.New("psindex: not an index file")
	ErrTruncatedIndex        = errors.New("psindex: truncated index file")
	ErrEmptyIndex            = errors.New("psindex: index is empty")
	ErrUnknownMode           = errors.New("psindex: unknown search mode")
	ErrInvalidKey            = errors.New("psindex: invalid search key")
)

// CorruptionError reports a fatal problem found in the elementary stream while
// indexing. Offset is the file offset of the PES packet being processed.
type CorruptionError struct {
	Offset int64
	Err    error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("psindex: corrupt stream at offset %d: %v", e.Offset, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrNoVideoStream) ||
		errors.Is(err, ErrMultipleVideoStreams) ||
		errors.Is(err, ErrNoPictures)
}

func IsCorruption(err error) bool {
	var ce *CorruptionError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, ErrInvalidPictureType) ||
		errors.Is(err, ErrInvalidFrameRate) ||
		errors.Is(err, ErrMissingSequenceHeader)
}

func IsFormatError(err error) bool {
	return errors.Is(err, ErrBadMagic) || errors.Is(err, ErrTruncatedIndex) || errors.Is(err, ErrEmptyIndex)
}
