// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"panhunt/internal/config"
	"panhunt/internal/core"
	"panhunt/internal/formatters"
	"panhunt/internal/history"
	"panhunt/internal/observability"
	"panhunt/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type scanOptions struct {
	configFile   string
	search       string
	exclude      []string
	textExts     []string
	zipExts      []string
	specialExts  []string
	mailExts     []string
	otherExts    []string
	outfile      string
	format       string
	unmask       bool
	excludePANs  []string
	workers      int
	sizeCeiling  string
	maxDepth     int
	itemTimeout  time.Duration
	logLevel     string
	logFile      string
	historyDB    string
	reportKeyEnv string
	debug        bool
	quiet        bool
}

// NewScanCommand creates the scan subcommand
func NewScanCommand() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Search for PANs and write a sealed report",
		Long: `Scan walks the search directory, searches every file whose extension is
listed as text, archive or mail, and writes a report of the PANs found.
Files listed as "other" are reported for a manual check.

Interrupting the scan (Ctrl+C) stops it early; a partial report is still
written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScan(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "C", "", "configuration file (default: $PANHUNT_CONFIG, ./panhunt.yaml, user config dir)")
	f.StringVarP(&opts.search, "search", "s", "", "base directory to search in")
	f.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "directories to exclude from the search")
	f.StringSliceVarP(&opts.textExts, "textfiles", "t", nil, "text file extensions to search")
	f.StringSliceVarP(&opts.zipExts, "zipfiles", "z", nil, "zip based archive extensions to search")
	f.StringSliceVarP(&opts.specialExts, "specialfiles", "e", nil, "mailbox extensions to search")
	f.StringSliceVarP(&opts.mailExts, "mailfiles", "m", nil, "mail message extensions to search")
	f.StringSliceVarP(&opts.otherExts, "otherfiles", "l", nil, "extensions to list for a manual check")
	f.StringVarP(&opts.outfile, "outfile", "o", "", "report file prefix, a timestamp is appended")
	f.StringVarP(&opts.format, "format", "f", "", "report format ("+strings.Join(formatters.List(), ", ")+")")
	f.BoolVarP(&opts.unmask, "unmask", "u", false, "write full PANs to the report")
	f.StringSliceVarP(&opts.excludePANs, "excludepans", "X", nil, "PANs to leave out of the report")
	f.IntVarP(&opts.workers, "workers", "w", 0, "files searched concurrently, -1 sizes from the host")
	f.StringVar(&opts.sizeCeiling, "size-ceiling", "", "largest file to search, e.g. 512MB")
	f.IntVar(&opts.maxDepth, "max-depth", 0, "deepest container nesting to open")
	f.DurationVar(&opts.itemTimeout, "item-timeout", 0, "time allowed per top-level file, 0 for none")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	f.StringVar(&opts.historyDB, "history-db", "", "record the run in this SQLite ledger")
	f.StringVar(&opts.reportKeyEnv, "key-env", "", "environment variable holding a key for the report seal")
	f.BoolVar(&opts.debug, "debug", false, "trace every processing step to stderr")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not draw progress")

	return cmd
}

// resolve loads the configuration and applies the flags that were set.
func (o *scanOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigOrDefault(o.configFile)
	if err != nil {
		if config.FindConfigFile(o.configFile) != "" {
			return nil, err
		}
	}

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("search", func() { cfg.Search = o.search })
	set("exclude", func() { cfg.Exclude = o.exclude })
	set("textfiles", func() { cfg.Extensions.Text = o.textExts })
	set("zipfiles", func() { cfg.Extensions.Archive = o.zipExts })
	set("specialfiles", func() { cfg.Extensions.MailContainer = o.specialExts })
	set("mailfiles", func() { cfg.Extensions.MailMessage = o.mailExts })
	set("otherfiles", func() { cfg.Extensions.Other = o.otherExts })
	set("outfile", func() { cfg.Outfile = o.outfile })
	set("format", func() { cfg.Format = o.format })
	set("unmask", func() { cfg.MaskPANs = !o.unmask })
	set("excludepans", func() { cfg.ExcludePANs = append(cfg.ExcludePANs, o.excludePANs...) })
	set("workers", func() { cfg.Workers = o.workers })
	set("max-depth", func() { cfg.Limits.MaxDepth = o.maxDepth })
	set("item-timeout", func() { cfg.Limits.ItemTimeout = o.itemTimeout })
	set("log-level", func() { cfg.Log.Level = o.logLevel })
	set("log-file", func() { cfg.Log.File = o.logFile })
	set("history-db", func() { cfg.HistoryDB = o.historyDB })
	set("key-env", func() { cfg.ReportKeyEnv = o.reportKeyEnv })
	if f.Changed("size-ceiling") {
		size, err := config.ParseByteSize(o.sizeCeiling)
		if err != nil {
			return nil, fmt.Errorf("invalid --size-ceiling: %w", err)
		}
		cfg.SizeCeiling = size
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}

	if _, ok := formatters.Get(cfg.Format); !ok {
		return nil, fmt.Errorf("unsupported format '%s'. Available formats: %s", cfg.Format, strings.Join(formatters.List(), ", "))
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScan(ctx context.Context, cfg *config.Config, opts *scanOptions, stdout, stderr io.Writer) error {
	logCfg := cfg.LogConfig()
	logCfg.Console = stderr
	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	observer := observability.NewStandardObserver(observability.ObservabilityMetrics, logger)
	if opts.debug {
		observer = observability.NewDebugObserver(stderr, logger).StandardObserver
	}

	exclusions, err := cfg.Exclusions(time.Now())
	if err != nil {
		return err
	}
	key := cfg.SealKey()
	defer key.Clear()
	table := cfg.ExtensionTable()
	observer.LogInfo("config", "scan settings",
		zap.Int("extensions", table.Len()),
		zap.Int("excluded_pans", exclusions.Len()),
		zap.Bool("keyed_seal", !key.IsEmpty()),
	)

	var progress observability.Progress = observability.NopProgress{}
	var terminal *observability.TerminalProgress
	var async *observability.AsyncProgress
	if !opts.quiet && !opts.debug {
		terminal = observability.NewTerminalProgress(os.Stderr)
		if terminal.Enabled() {
			async = observability.NewAsyncProgress(terminal, 64)
			progress = async
		}
	}

	sc := report.NewScanContext(ctx, cfg.Search, cfg.Exclude, strings.Join(os.Args, " "))
	result, err := core.RunScan(ctx, core.ScanConfig{
		Root:         cfg.Search,
		ExcludedDirs: cfg.Exclude,
		Table:        table,
		SizeCeiling:  int64(cfg.SizeCeiling),
		Exclusions:   exclusions,
		Limits:       cfg.ResourceLimits(),
		Workers:      cfg.Workers,
		Progress:     progress,
		Observer:     observer,
	})
	if async != nil {
		// Drain pending updates before the bar is finished.
		async.Close()
		if n := async.Dropped(); n > 0 {
			logger.Debug("progress updates dropped", zap.Int64("dropped", n))
		}
		terminal.Finish()
	}
	if err != nil {
		return err
	}

	rep, err := report.RenderAndSeal(sc, result, cfg.Format, cfg.MaskPANs, key)
	if err != nil {
		return err
	}
	ext := ".txt"
	if f, ok := formatters.Get(cfg.Format); ok {
		ext = f.FileExtension()
	}
	outPath := report.OutputPath(cfg.Outfile, ext, sc.Started)

	// The scan context may already be cancelled; the report is still written.
	writeCtx := context.WithoutCancel(ctx)
	if err := report.Write(writeCtx, outPath, rep); err != nil {
		return err
	}

	if cfg.HistoryDB != "" {
		if err := recordRun(writeCtx, cfg.HistoryDB, sc.RunID, result, outPath, rep); err != nil {
			logger.Warn("failed to record run", zap.String("history_db", cfg.HistoryDB), zap.Error(err))
		}
	}

	printSummary(stdout, result, outPath)
	return nil
}

func recordRun(ctx context.Context, dbPath, runID string, result *core.ScanResult, outPath string, rep *report.Report) error {
	store, err := history.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.NewRun(runID, result)
	run.ReportPath = outPath
	run.ReportFormat = rep.Format
	run.Seal = rep.Hash
	return store.RecordRun(ctx, &run)
}

func printSummary(out io.Writer, result *core.ScanResult, outPath string) {
	if result.Interrupted {
		color.New(color.FgYellow).Fprintln(out, "Scan interrupted, the report is partial.")
	}
	found := color.New(color.FgGreen)
	if result.MatchCount > 0 {
		found = color.New(color.FgRed, color.Bold)
	}
	found.Fprintf(out, "Searched %d files. Found %d possible PANs.\n", result.Searched, result.MatchCount)
	if n := len(result.Failed); n > 0 {
		color.New(color.FgYellow).Fprintf(out, "%d files could not be fully searched.\n", n)
	}
	color.New(color.FgWhite).Fprintf(out, "Report written to %s\n", outPath)
}
