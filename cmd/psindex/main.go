package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/go-psindex/internal/cli"
	"github.com/autobrr/go-psindex/internal/psindex"
	"github.com/autobrr/go-psindex/internal/server"
)

var version = "dev"

const repoSlug = "autobrr/go-psindex"

var (
	debugMode  bool
	output     string
	probeSize  int64
	addr       string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "psindex",
	Short:         "Frame index builder and searcher for MPEG-2 program streams.",
	Long:          "Build a frame-accurate index of an MPEG-2 program stream and look frames up by timecode, PTS or DTS.\n\n" + cli.ExitCodesHelp,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		psindex.SetDebugMode(debugMode || os.Getenv("DEBUG") != "")
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <input-stream> <output-index>",
	Short: "Build the index of a program stream",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.Options{Output: output, ProbeSize: probeSize, Debug: debugMode}
		os.Exit(cli.RunIndex(args[0], args[1], opts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <timecode|pts|dts> <index-file> <value>",
	Short: "Find a frame and the key frame needed to decode it",
	Long:  "Find a frame and the key frame needed to decode it.\n\n" + cli.SearchModesHelp,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.Options{Output: output, Debug: debugMode}
		os.Exit(cli.RunSearch(args[0], args[1], args[2], opts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <index-file>",
	Short: "Print every record of an index file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.Options{Output: output, Debug: debugMode}
		os.Exit(cli.RunDump(args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve [index-file]",
	Short: "Serve index queries over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := server.DefaultConfig()
		if configPath != "" {
			loaded, err := server.LoadConfigFile(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
		}
		if len(args) == 1 {
			cfg.IndexPath = args[0]
		}
		if cfg.IndexPath == "" {
			return errors.New("serve: no index file given")
		}
		if addr != "" {
			cfg.Addr = addr
		}
		srv, err := server.New(cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update psindex",
	Long:  "Update psindex to latest version (release builds only).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSelfUpdate(cmd.Context())
	},
	DisableFlagsInUseLine: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print go-psindex version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli.Version(cmd.OutOrStdout())
		return nil
	},
	DisableFlagsInUseLine: true,
}

func init() {
	resolvedVersion := resolveVersion()
	cli.SetVersion(resolvedVersion)
	psindex.SetAppVersion(resolvedVersion)
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	for _, cmd := range []*cobra.Command{indexCmd, searchCmd, dumpCmd} {
		cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	}
	indexCmd.Flags().Int64Var(&probeSize, "probe-size", psindex.DefaultBuildOptions().ProbeSize, "bytes scanned to find the video stream")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default $PSINDEX_ADDR or :8090)")
	serveCmd.Flags().StringVar(&configPath, "config", "", "YAML file with addr, index and max_frames")

	rootCmd.AddCommand(indexCmd, searchCmd, dumpCmd, serveCmd, updateCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(cli.ExitCode(err))
	}
}

func runSelfUpdate(ctx context.Context) error {
	if version == "" || version == "dev" {
		return errors.New("self-update is only available in release builds")
	}

	if _, err := semver.ParseTolerant(version); err != nil {
		return fmt.Errorf("could not parse version: %w", err)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s/%s could not be found from github repository", repoSlug, version)
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Current binary is the latest version: %s\n", psindex.FormatVersion(version))
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Printf("Successfully updated to version: %s\n", psindex.FormatVersion(latest.Version()))
	return nil
}

func resolveVersion() string {
	if version != "" && version != "dev" {
		return normalizeVersion(version)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return normalizeVersion(info.Main.Version)
		}
	}
	return "dev"
}

func normalizeVersion(value string) string {
	return strings.TrimPrefix(value, "v")
}
