package cli

import (
	"fmt"
	"io"
)

const SearchModesHelp = `Search modes:
  timecode (1)  hh:mm:ss:ff, hh:mm:ss;ff or collapsed hhmmssff
  pts      (2)  presentation timestamp, 90 kHz ticks
  dts      (4)  decode timestamp, 90 kHz ticks`

const ExitCodesHelp = `Exit status:
  0  success
  1  usage or I/O error
  2  input has no video stream or more than one
  3  corrupt video stream
  4  not an index file, truncated or empty
  5  frame not found
  6  key is before the start of the video`

func HelpModes(w io.Writer) {
	fmt.Fprintln(w, SearchModesHelp)
}
