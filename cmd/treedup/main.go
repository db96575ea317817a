package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	treeutils "github.com/mattkeenan/treeutils/pkg"
)

var (
	flagFormat     string
	flagRaw        bool
	flagWorkers    int
	flagAlgorithm  string
	flagHashBuffer string
	flagExcludes   []string
	flagNoColor    bool
	flagNoProgress bool
	flagConfig     string
	flagOverrides  []string
	flagVerbose    int
	flagDebug      string
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "treedup: %v\n", err)
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treedup <dir>",
		Short: "Find duplicate files under a directory tree",
		Long: `treedup hashes every plain file under a directory tree and reports groups
of files with identical contents. Symbolic links are never followed.

Exit status is 0 on success whether or not duplicates exist, and 2 when an
error occurred or the scan was interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDup(args[0])
		},
	}

	rootCmd.Flags().StringVar(&flagFormat, "format", "human", "Output format (human, fdupes, json)")
	rootCmd.Flags().BoolVar(&flagRaw, "raw", false, "Raw output, shorthand for --format fdupes")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Concurrent hash workers (0 = one per CPU)")
	rootCmd.Flags().StringVar(&flagAlgorithm, "algorithm", "", "Digest algorithm (sha1, sha256, sha512)")
	rootCmd.Flags().StringVar(&flagHashBuffer, "hash-buffer", "", "Buffer size for digest streaming (e.g. 64K)")
	rootCmd.Flags().StringArrayVar(&flagExcludes, "exclude", nil, "Regex for relative paths to skip (repeatable)")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable coloured output")
	rootCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "Disable the progress meter")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
	rootCmd.Flags().StringArrayVarP(&flagOverrides, "override", "o", nil, "Config override as key:value (repeatable)")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "Increase verbosity (repeatable)")
	rootCmd.Flags().StringVar(&flagDebug, "debug", "", "Comma-separated debug flags (dupes, hash)")

	return rootCmd
}

func runDup(root string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyVerbosity(cfg); err != nil {
		return err
	}

	format := strings.ToLower(flagFormat)
	if flagRaw {
		format = "fdupes"
	}
	if err := treeutils.ValidateOutputFormat(format); err != nil {
		return err
	}

	outputCfg := cfg.GetOutputConfig()
	if err := treeutils.ValidateColorMode(outputCfg.Color); err != nil {
		return err
	}

	opts, err := dupOptions(cfg)
	if err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	// SIGINT and SIGTERM drain the scan instead of killing it mid-read
	shutdownChan := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "treedup: interrupt received, shutting down")
		close(shutdownChan)
	}()

	meter := treeutils.NewProgressMeter(os.Stderr)
	if !flagNoProgress {
		opts.Progress = meter.Update
	}

	groups, err := treeutils.FindDuplicates(root, opts, shutdownChan)
	meter.Finish()
	if err != nil {
		return err
	}

	switch format {
	case "fdupes":
		return printFdupes(groups)
	case "json":
		return printJSON(groups)
	default:
		return printHuman(groups, colorEnabled(outputCfg.Color))
	}
}

func printHuman(groups []treeutils.DuplicateGroup, useColor bool) error {
	head := color.New(color.Bold)
	member := color.New(color.FgHiBlue)
	empty := color.New(color.FgHiGreen)
	for _, c := range []*color.Color{head, member, empty} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	if len(groups) == 0 {
		_, err := empty.Println("No duplicates found")
		return err
	}

	for i, group := range groups {
		if i > 0 {
			fmt.Println()
		}
		if _, err := head.Println(group.Files[0]); err != nil {
			return err
		}
		rest := group.Files[1:]
		for j, file := range rest {
			connector := "├"
			if j == len(rest)-1 {
				connector = "└"
			}
			if _, err := fmt.Printf("%s %s\n", connector, member.Sprint(file)); err != nil {
				return err
			}
		}
	}

	return nil
}

// printFdupes writes blank-line-separated groups of plain paths, gathered
// into batched writes for large listings.
func printFdupes(groups []treeutils.DuplicateGroup) error {
	vw := treeutils.NewVectoredWriter(os.Stdout)
	for i, group := range groups {
		if i > 0 {
			vw.AppendString("\n")
		}
		for _, file := range group.Files {
			vw.AppendString(file + "\n")
		}
	}
	return vw.Flush()
}

func printJSON(groups []treeutils.DuplicateGroup) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(groups)
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

func dupOptions(cfg *treeutils.Config) (treeutils.DupOptions, error) {
	var opts treeutils.DupOptions

	algorithm := cfg.GetHashConfig().Default
	if flagAlgorithm != "" {
		algorithm = flagAlgorithm
	}
	if err := treeutils.ValidateHashAlgorithm(algorithm); err != nil {
		return opts, err
	}
	opts.Algorithm = algorithm

	perfCfg := cfg.GetPerformanceConfig()

	workers := perfCfg.HashWorkers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	if err := treeutils.ValidateHashWorkers(workers); err != nil {
		return opts, err
	}
	opts.Workers = workers

	hashBuf := perfCfg.HashBuffer
	if flagHashBuffer != "" {
		hashBuf = flagHashBuffer
	}
	size, err := treeutils.ParseHumanSize(hashBuf)
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
