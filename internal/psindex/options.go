package psindex

const defaultProbeSize = 8 << 20

type BuildOptions struct {
	// ProbeSize bounds how much of the input is read to find the video stream.
	ProbeSize int64
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{ProbeSize: defaultProbeSize}
}

func normalizeBuildOptions(opts BuildOptions) BuildOptions {
	if opts.ProbeSize <= 0 {
		opts.ProbeSize = defaultProbeSize
	}
	if opts.ProbeSize < 64<<10 {
		opts.ProbeSize = 64 << 10
	}
	return opts
}
