package psindex

import "strings"

const (
	AppName = "go-psindex"
	AppURL  = "https://github.com/autobrr/go-psindex"
)

var AppVersion = "dev"

func SetAppVersion(version string) {
	if version != "" {
		AppVersion = version
	}
}

// FormatVersion renders a bare semantic version with a leading v. Anything
// else, such as "dev", is returned unchanged.
func FormatVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" || version == "dev" || strings.HasPrefix(version, "v") {
		return version
	}
	if version[0] >= '0' && version[0] <= '9' {
		return "v" + version
	}
	return version
}
