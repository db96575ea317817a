package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	treeutils "github.com/mattkeenan/treeutils/pkg"
)

var (
	flagAlgorithm     string
	flagCompareBuffer string
	flagHashBuffer    string
	flagExcludes      []string
	flagNoColor       bool
	flagConfig        string
	flagOverrides     []string
	flagVerbose       int
	flagDebug         string
)

// Set by runDiff so main can map a non-empty diff to exit status 1
var differencesFound bool

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "treediff: %v\n", err)
		os.Exit(2)
	}
	if differencesFound {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treediff <dirA> <dirB>",
		Short: "Compare two directory trees",
		Long: `treediff walks two directory trees and reports every divergence: removed,
added, and changed entries, plus renames detected by content digest within a
directory level.

Exit status is 0 when the trees match, 1 when differences were found, and 2
when an error occurred.`,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1])
		},
	}

	rootCmd.Flags().StringVar(&flagAlgorithm, "algorithm", "", "Digest algorithm for rename detection (sha1, sha256, sha512)")
	rootCmd.Flags().StringVar(&flagCompareBuffer, "compare-buffer", "", "Buffer size for content comparison (e.g. 8K)")
	rootCmd.Flags().StringVar(&flagHashBuffer, "hash-buffer", "", "Buffer size for digest streaming (e.g. 64K)")
	rootCmd.Flags().StringArrayVar(&flagExcludes, "exclude", nil, "Regex for relative paths to skip (repeatable)")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable coloured output")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
	rootCmd.Flags().StringArrayVarP(&flagOverrides, "override", "o", nil, "Config override as key:value (repeatable)")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "Increase verbosity (repeatable)")
	rootCmd.Flags().StringVar(&flagDebug, "debug", "", "Comma-separated debug flags (walk, hash, render)")

	return rootCmd
}

func runDiff(dirA, dirB string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyVerbosity(cfg); err != nil {
		return err
	}

	outputCfg := cfg.GetOutputConfig()
	if err := treeutils.ValidateColorMode(outputCfg.Color); err != nil {
		return err
	}

	opts, err := walkOptions(cfg)
	if err != nil {
		return err
	}

	for _, root := range []string{dirA, dirB} {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("failed to access %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}
	}

	diff, err := treeutils.Diff(dirA, dirB, opts)
	if err != nil {
		return err
	}
	differencesFound = diff.Len() > 0

	renderOpts := treeutils.DefaultRenderOptions()
	renderOpts.Color = colorEnabled(outputCfg.Color)

	r := treeutils.NewRenderer(os.Stdout, renderOpts)
	if err := r.RenderHeader(dirA, dirB); err != nil {
		return err
	}
	return r.Render(diff)
}

func loadConfig() (*treeutils.Config, error) {
	path := flagConfig
	if path == "" {
		path = treeutils.DefaultConfigPath()
	}
	cfg, err := treeutils.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(flagOverrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyVerbosity(cfg *treeutils.Config) error {
	verboseCfg := cfg.GetVerboseConfig()

	level := verboseCfg.Level
	if flagVerbose > 0 {
		level = flagVerbose
	}
	if err := treeutils.ValidateVerboseLevel(level); err != nil {
		return err
	}
	treeutils.SetVerboseLevel(level)

	debug := verboseCfg.Debug
	if flagDebug != "" {
		debug = flagDebug
	}
	if debug != "" {
		treeutils.SetDebugFlags(debug)
	}

	return nil
}

func walkOptions(cfg *treeutils.Config) (treeutils.WalkOptions, error) {
	opts := treeutils.DefaultWalkOptions()

	algorithm := cfg.GetHashConfig().Default
	if flagAlgorithm != "" {
		algorithm = flagAlgorithm
	}
	if err := treeutils.ValidateHashAlgorithm(algorithm); err != nil {
		return opts, err
	}
	opts.Algorithm = algorithm

	perfCfg := cfg.GetPerformanceConfig()

	compareBuf := perfCfg.CompareBuffer
	if flagCompareBuffer != "" {
		compareBuf = flagCompareBuffer
	}
	size, err := treeutils.ParseHumanSize(compareBuf)
	if err != nil {
		return opts, fmt.Errorf("invalid compare buffer: %w", err)
	}
	opts.CompareBuffer = size

	hashBuf := perfCfg.HashBuffer
	if flagHashBuffer != "" {
		hashBuf = flagHashBuffer
	}
	size, err = treeutils.ParseHumanSize(hashBuf)
	if err != nil {
		return opts, fmt.Errorf("invalid hash buffer: %w", err)
	}
	opts.HashBuffer = size

	patterns := append(cfg.GetExcludePatterns(), flagExcludes...)
	if len(patterns) > 0 {
		excludes, err := treeutils.NewExcludeManager(patterns)
		if err != nil {
			return opts, err
		}
		opts.Excludes = excludes
	}

	return opts, nil
}

// colorEnabled resolves the colour mode against the --no-color flag and, for
// auto mode, whether stdout is a terminal.
func colorEnabled(mode string) bool {
	if flagNoColor {
		return false
	}
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}
