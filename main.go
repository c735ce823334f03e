// fixturegen generates C# path providers for fixture builder usages.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/twizzar/fixturegen/internal/config"
	"github.com/twizzar/fixturegen/internal/incremental"
	"github.com/twizzar/fixturegen/internal/model"
	"github.com/twizzar/fixturegen/internal/pipeline"
	"github.com/twizzar/fixturegen/internal/toon"
)

var version = "dev"

var errFailed = errors.New("path provider generation failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	out         string
	cache       string
	clearCache  bool
	unscoped    bool
	jobs        int
	maxFileSize int
	report      bool
	dryRun      bool
	color       string
	verbose     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "fixturegen [flags] [path]",
		Short: "Generate C# path providers for fixture builders",
		Long: `fixturegen scans the C# sources under path (default: the current directory)
for fixture builder usages and writes one path provider per fixture type into
the output directory.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, &opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("fixturegen {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: <path>/"+config.FileName+")")
	flags.StringVar(&opts.out, "out", "", "output directory for generated files")
	flags.StringVar(&opts.cache, "cache", "", "incremental cache directory")
	flags.BoolVar(&opts.clearCache, "clear-cache", false, "empty the cache before generating")
	flags.BoolVar(&opts.unscoped, "unscoped", false, "compare every member of fixture types when checking the cache")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "number of workers (0: one per CPU)")
	flags.IntVar(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	flags.BoolVar(&opts.report, "report", false, "print a TOON report to stdout")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "list the files that would be written without writing them")
	flags.StringVar(&opts.color, "color", "auto", "colorize diagnostics (auto|on|off)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newInitCmd(&opts))
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, opts *options) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	colored, err := colorEnabled(opts.color, stderr)
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := loadConfig(cmd, root, opts)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, opts.verbose)
	logger.Debug("starting", slog.String("root", root), slog.String("version", version))

	popts := pipeline.Options{Root: root, Config: cfg, Logger: logger}
	if cfg.Cache.Path != "" && !opts.dryRun {
		store, err := incremental.OpenStore(resolve(root, cfg.Cache.Path), incremental.InputComparer{Unscoped: cfg.Cache.Unscoped})
		if err != nil {
			return err
		}
		if opts.clearCache {
			if err := store.Clear(); err != nil {
				return err
			}
		}
		popts.Store = store
	}

	report, err := pipeline.Run(cmd.Context(), popts)
	if err != nil {
		return err
	}

	printDiagnostics(stderr, report.Diagnostics, colored)

	outDir := resolve(root, cfg.Output)
	if opts.dryRun {
		for _, a := range report.Artifacts {
			_, _ = fmt.Fprintln(stdout, filepath.Join(outDir, a.HintName))
		}
	} else if err := writeArtifacts(outDir, report.Artifacts, logger); err != nil {
		return err
	}

	if opts.report {
		_, _ = fmt.Fprintln(stdout, toon.Encode(report))
	}

	logger.Info("done",
		slog.Int("files", len(report.Files)),
		slog.Int("generated", report.Count(pipeline.StatusGenerated)),
		slog.Int("cached", report.Count(pipeline.StatusCached)),
		slog.Int("failed", report.Count(pipeline.StatusFailed)),
		slog.Duration("elapsed", report.Duration),
	)

	if n := report.Count(pipeline.StatusFailed); n > 0 {
		return fmt.Errorf("%w: %d of %d providers", errFailed, n, len(report.Providers))
	}
	return nil
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(cmd *cobra.Command, root string, opts *options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output = opts.out
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = opts.cache
	}
	if flags.Changed("unscoped") {
		cfg.Cache.Unscoped = opts.unscoped
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// writeArtifacts writes every artifact into dir and removes generated files
// left over from providers that no longer exist.
func writeArtifacts(dir string, artifacts []pipeline.Artifact, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	keep := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		keep[a.HintName] = true
		path := filepath.Join(dir, a.HintName)
		if existing, err := os.ReadFile(path); err == nil && string(existing) == a.Source {
			continue
		}
		if err := os.WriteFile(path, []byte(a.Source), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.HintName, err)
		}
		logger.Debug("wrote provider", slog.String("file", path))
	}

	stale, err := filepath.Glob(filepath.Join(dir, "*.g.cs"))
	if err != nil {
		return fmt.Errorf("listing output dir: %w", err)
	}
	for _, path := range stale {
		if keep[filepath.Base(path)] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing stale %s: %w", filepath.Base(path), err)
		}
		logger.Debug("removed stale provider", slog.String("file", path))
	}
	return nil
}

func printDiagnostics(w io.Writer, diags []model.Diagnostic, colored bool) {
	loc := color.New(color.Bold)
	sev := map[model.Severity]*color.Color{
		model.SeverityError:   color.New(color.FgRed, color.Bold),
		model.SeverityWarning: color.New(color.FgYellow, color.Bold),
		model.SeverityInfo:    color.New(color.FgCyan),
	}
	if colored {
		loc.EnableColor()
	} else {
		loc.DisableColor()
	}
	for _, c := range sev {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, d := range diags {
		c, ok := sev[d.Descriptor.Severity]
		if !ok {
			c = sev[model.SeverityError]
		}
		_, _ = fmt.Fprintf(w, "%s: %s: %s\n",
			loc.Sprint(d.Loc.String()),
			c.Sprintf("%s %s", d.Descriptor.Severity, d.Descriptor.ID),
			d.Message,
		)
	}
}

func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		// NO_COLOR convention: https://no-color.org/
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("--color: unknown mode %q (want auto, on or off)", mode)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(slog.String("session", uuid.NewString()))
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
