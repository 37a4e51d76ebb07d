package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/declscan/internal/cache"
	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/lang"
	"github.com/phobologic/declscan/internal/metrics"
	"github.com/phobologic/declscan/internal/model"
	"github.com/phobologic/declscan/internal/render"
	"github.com/phobologic/declscan/internal/scan"
)

// options holds the root command's flag values.
type options struct {
	configPath   string
	format       string
	output       string
	ignoreDirs   []string
	maxDepth     int
	excludes     []string
	gitignore    bool
	workers      int
	timeout      time.Duration
	maxFileSize  int64
	cachePath    string
	metricsFile  string
	classmethods bool
	verbose      bool
	showVersion  bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "declscan [flags] <language> <directory>",
		Short: "List the functions, classes and methods declared in a source tree",
		Long: `declscan walks a directory, parses every source file of one language and
reports its top-level functions and its classes with their methods, each
tagged as function, arrow, constructor, method, getter or property.

The language may be omitted when the configuration file names one.`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "declscan %s\n", version)
				return nil
			}
			return runScan(cmd, opts, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "configuration file (default ./"+config.DefaultFileName+" when present)")

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "json", "output format: "+strings.Join(config.Formats, ", "))
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	f.StringArrayVar(&opts.ignoreDirs, "ignore-dir", nil, "additional directory name to skip at any depth (repeatable)")
	f.IntVar(&opts.maxDepth, "max-depth", -1, "directory levels below the root to enter; -1 is unlimited")
	f.StringArrayVar(&opts.excludes, "exclude", nil, "glob of files to skip (repeatable)")
	f.BoolVar(&opts.gitignore, "gitignore", false, "skip paths matched by the root .gitignore")
	f.IntVar(&opts.workers, "workers", 0, "files parsed in parallel; 0 uses every CPU")
	f.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "per-file parse timeout")
	f.Int64Var(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	f.StringVar(&opts.cachePath, "cache", "", "result cache database path")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	f.BoolVar(&opts.classmethods, "classmethod-static", false, "report Python classmethods as static")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	cmd.AddCommand(newLanguagesCmd(stdout, &opts.configPath))
	return cmd
}

// loadConfig reads the configuration file and applies every flag the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, string, error) {
	cfg, err := config.LoadOptional(opts.configPath)
	if err != nil {
		return nil, "", err
	}

	var root string
	switch len(args) {
	case 2:
		cfg.Language = strings.ToLower(args[0])
		root = args[1]
	case 1:
		if cfg.Language == "" {
			return nil, "", errs.New(errs.ConfigError, "missing language: usage is declscan <language> <directory>")
		}
		root = args[0]
	default:
		return nil, "", errs.New(errs.ConfigError, "usage is declscan <language> <directory>")
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	for _, d := range opts.ignoreDirs {
		if !slices.Contains(cfg.IgnoreDirs, d) {
			cfg.IgnoreDirs = append(cfg.IgnoreDirs, d)
		}
	}
	if flags.Changed("max-depth") {
		depth := opts.maxDepth
		cfg.MaxDepth = &depth
	}
	cfg.ExcludeFiles = append(cfg.ExcludeFiles, opts.excludes...)
	if flags.Changed("gitignore") {
		cfg.RespectGitignore = opts.gitignore
	}
	if flags.Changed("workers") {
		cfg.Parse.Workers = opts.workers
	}
	if flags.Changed("timeout") {
		cfg.Parse.Timeout = opts.timeout
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = opts.cachePath
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = opts.metricsFile
	}
	if flags.Changed("classmethod-static") {
		cfg.Classify.ClassmethodStatic = opts.classmethods
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func runScan(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	cfg, root, err := loadConfig(cmd, opts, args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	scanOpts := scan.Options{Root: root, Config: cfg, Logger: logger}

	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return errs.Wrap(err, errs.ConfigError, "cache")
		}
		defer store.Close()
		scanOpts.Cache = store
	}
	if cfg.Metrics.File != "" {
		scanOpts.Metrics = metrics.New()
	}

	report, err := scan.Run(cmd.Context(), scanOpts)
	if err != nil {
		return err
	}
	if scanOpts.Cache != nil {
		if n, err := scanOpts.Cache.Len(); err == nil {
			logger.Debug("cache entries", "path", cfg.Cache.Path, "entries", n)
		}
	}

	if err := writeReport(cfg, report, stdout); err != nil {
		return err
	}

	if scanOpts.Metrics != nil {
		if err := scanOpts.Metrics.WriteTextfile(cfg.Metrics.File); err != nil {
			logger.Warn("writing metrics", "path", cfg.Metrics.File, "error", err)
		}
	}
	return nil
}

// writeReport renders to stdout, or to cfg.Output once rendering has
// succeeded so a failed run never leaves a truncated file behind.
func writeReport(cfg *config.Config, r *model.DirectoryReport, stdout io.Writer) error {
	if cfg.Output == "" {
		return render.Write(stdout, cfg.Format, r)
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, cfg.Format, r); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Output, buf.Bytes(), 0o644); err != nil {
		return errs.Wrap(err, errs.IOError, "writing output")
	}
	return nil
}

func newLanguagesCmd(stdout io.Writer, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range lang.Names() {
				l, _ := lang.Lookup(name)
				line := fmt.Sprintf("%-12s %s", name, strings.Join(l.Extensions, " "))
				if len(l.Aliases) > 0 {
					line += "  (aliases: " + strings.Join(l.Aliases, ", ") + ")"
				}
				_, _ = fmt.Fprintln(stdout, line)
			}

			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cfg.FrontEnds))
			for name := range cfg.FrontEnds {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fe := cfg.FrontEnds[name]
				_, _ = fmt.Fprintf(stdout, "%-12s %s  (external: %s)\n", name, strings.Join(fe.Extensions, " "), fe.Command[0])
			}
			return nil
		},
	}
}
