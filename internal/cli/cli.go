package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/autobrr/go-psindex/internal/psindex"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInput       = 2
	exitCorrupt     = 3
	exitFormat      = 4
	exitNotFound    = 5
	exitBeforeStart = 6
)

type Options struct {
	Output    string
	ProbeSize int64
	Debug     bool
}

var errOutputFormat = errors.New("output format not implemented")

func (o Options) json() (bool, error) {
	switch {
	case o.Output == "" || strings.EqualFold(o.Output, "text"):
		return false, nil
	case strings.EqualFold(o.Output, "json"):
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", errOutputFormat, o.Output)
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case psindex.IsInputError(err):
		return exitInput
	case psindex.IsCorruption(err):
		return exitCorrupt
	case psindex.IsFormatError(err):
		return exitFormat
	default:
		return exitError
	}
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, err.Error())
	return ExitCode(err)
}

// RunIndex builds the index of input and writes it to output.
func RunIndex(input, output string, opts Options, stdout, stderr io.Writer) int {
	psindex.SetDebugMode(opts.Debug || os.Getenv("DEBUG") != "")
	asJSON, err := opts.json()
	if err != nil {
		return fail(stderr, err)
	}

	stats, err := psindex.BuildIndexFile(input, output, psindex.BuildOptions{ProbeSize: opts.ProbeSize})
	if err != nil {
		return fail(stderr, err)
	}
	if asJSON {
		out, err := psindex.RenderStatsJSON(stats)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprint(stdout, out)
		return exitOK
	}
	fmt.Fprint(stdout, psindex.RenderStatsText(stats))
	return exitOK
}

// RunSearch looks up value in the index at path. A miss exits non-zero and a
// key before the first frame prints where the video starts.
func RunSearch(modeName, path, value string, opts Options, stdout, stderr io.Writer) int {
	psindex.SetDebugMode(opts.Debug || os.Getenv("DEBUG") != "")
	asJSON, err := opts.json()
	if err != nil {
		return fail(stderr, err)
	}
	mode, err := psindex.ParseMode(modeName)
	if err != nil {
		HelpModes(stderr)
		return exitError
	}
	key, err := psindex.ParseKey(mode, value)
	if err != nil {
		return fail(stderr, err)
	}

	idx, err := psindex.LoadIndexFile(path)
	if err != nil {
		return fail(stderr, err)
	}
	searcher, err := psindex.NewSearcher(idx)
	if err != nil {
		return fail(stderr, err)
	}
	res, err := searcher.Search(mode, key)
	if err != nil {
		return fail(stderr, err)
	}

	view := searcher.View(mode, key, res)
	if asJSON {
		out, err := psindex.RenderSearchJSON(view)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprint(stdout, out)
	} else if res.Found {
		fmt.Fprint(stdout, psindex.RenderSearchText(view))
	} else {
		fmt.Fprint(stderr, psindex.RenderSearchText(view))
	}

	switch {
	case res.Found:
		return exitOK
	case res.BeforeStart:
		return exitBeforeStart
	default:
		return exitNotFound
	}
}

// RunDump prints the header and every record of an index file.
func RunDump(path string, opts Options, stdout, stderr io.Writer) int {
	asJSON, err := opts.json()
	if err != nil {
		return fail(stderr, err)
	}
	idx, err := psindex.LoadIndexFile(path)
	if err != nil {
		return fail(stderr, err)
	}
	if asJSON {
		out, err := psindex.RenderIndexJSON(idx)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprint(stdout, out)
		return exitOK
	}
	fmt.Fprint(stdout, psindex.RenderIndexText(idx))
	return exitOK
}
