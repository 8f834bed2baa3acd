package cli

import (
	"fmt"
	"io"

	"github.com/autobrr/go-psindex/internal/psindex"
)

var appVersion = "dev"

func SetVersion(version string) {
	if version != "" {
		appVersion = version
	}
}

func Version(stdout io.Writer) {
	fmt.Fprintf(stdout, "%s, %s\n", psindex.AppName, psindex.FormatVersion(appVersion))
}
