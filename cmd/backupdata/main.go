package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/config"
	"github.com/bamsammich/backupdata/internal/engine"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/filter"
	"github.com/bamsammich/backupdata/internal/stats"
	"github.com/bamsammich/backupdata/internal/ui"
	"github.com/bamsammich/backupdata/internal/ui/tui"
)

var version = "dev"

// Exit codes.
const (
	exitCompleted = 0
	exitCancelled = 1
	exitFailed    = 2
)

func main() {
	os.Exit(run())
}

// options holds the parsed command line.
type options struct {
	extensions   []string
	exclude      []string
	excludeFiles []string
	excludeFrom  string
	bwLimit      int64
	noPreserve   bool
	tuiFlag      bool
	verbose      bool
	quiet        bool
	logFile      string
	showVersion  bool
}

func run() int {
	var opts options
	return execute(newRootCmd(&opts))
}

// execute runs rootCmd and maps its result to an exit code.
func execute(rootCmd *cobra.Command) int {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		printError(err)
		return exitFailed
	}
	return exitCompleted
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "backupdata [flags] <source> [destination]",
		Short: "Back up documents and media by extension into a timestamped folder",
		Long: `backupdata walks <source> and copies every file with a selected extension into
<destination>/backup_data_<YYYYMMDD_HHMMSS>/<ext>/<name>.

Configuration, cache and cloud-sync folders are skipped, as is the backup
itself. Interrupting a run (Ctrl-C, or c in the TUI) removes the partial backup.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(os.Stdout, "backupdata %s\n", version)
				return nil
			}
			return runBackup(cmd, args, *opts)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flags.StringSliceVarP(&opts.extensions, "ext", "e", nil,
		"file extension to back up (repeatable, comma list ok; default: .pdf .xlsx .docx .jpg .png .mp4 .mp3 .txt)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil,
		"skip directories whose path contains TEXT, case-insensitive (repeatable)")
	flags.StringArrayVar(&opts.excludeFiles, "exclude-file", nil, "skip files with exactly this name (repeatable)")
	flags.StringVar(&opts.excludeFrom, "exclude-from", "", "read directory exclusions from FILE, one per line")
	flags.Var(&sizeFlag{n: &opts.bwLimit}, "bwlimit", "bandwidth limit in bytes/sec (e.g. 50M, 1G)")
	flags.BoolVar(&opts.noPreserve, "no-preserve", false, "don't preserve file mode and times")
	flags.BoolVar(&opts.tuiFlag, "tui", false, "full-screen TUI (c or esc cancels the backup)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	flags.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(newDefaultsCmd())
	rootCmd.AddCommand(docsCmd)
	return rootCmd
}

//nolint:gocyclo,revive // main CLI entry point wires config, logging, presenters and the engine
func runBackup(cmd *cobra.Command, args []string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", err)
	}
	if err := applyConfigDefaults(cmd, cfg.Defaults, &opts); err != nil {
		return err
	}

	closeLog, eventLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	req, err := buildRequest(args, opts, cfg.Defaults)
	if err != nil {
		return err
	}
	req, err = req.Validate()
	if err != nil {
		return err
	}

	plan, err := engine.Prepare(req, time.Now())
	if err != nil {
		return err
	}
	slog.Debug("backup prepared",
		"source", req.SourceRoot,
		"backup_root", plan.BackupRoot,
		"extensions", req.Extensions,
		"exclude", req.ExcludedDirPatterns,
		"exclude_files", req.ExcludedFileNames,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	engineCtx, engineCancel := context.WithCancel(ctx)
	defer engineCancel()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)
	presenterEvents := teeEvents(events, eventLog)

	isTTY := ui.IsTTY(os.Stderr)
	useTUI := opts.tuiFlag && isTTY && !opts.quiet
	if opts.tuiFlag && !useTUI && !opts.quiet {
		slog.Warn("--tui requires a terminal, falling back to inline output")
	}

	var presenter ui.Presenter
	var tuiPresenter *tui.Presenter
	if useTUI {
		tuiPresenter = tui.NewPresenter(tui.Config{
			Stats:   collector,
			SrcRoot: req.SourceRoot,
			Theme:   cfg.Theme,
			Cancel:  engineCancel,
		})
		presenter = tuiPresenter
	} else {
		presenter = ui.NewPresenter(ui.Config{
			Writer:     os.Stdout,
			ErrWriter:  os.Stderr,
			Stats:      collector,
			SourceRoot: req.SourceRoot,
			IsTTY:      isTTY,
			Color:      ui.SupportsColor(os.Stderr),
			Quiet:      opts.quiet,
			Verbose:    opts.verbose,
		})
	}

	engineCfg := engine.Config{
		Request:    req,
		Plan:       plan,
		Sink:       event.Chan(events),
		Stats:      collector,
		BWLimit:    opts.bwLimit,
		NoPreserve: opts.noPreserve,
		Verbose:    opts.verbose || useTUI,
	}

	var result engine.Result
	if useTUI {
		// Bubble Tea needs the foreground to capture stdin.
		var engineWg sync.WaitGroup
		engineWg.Add(1)
		go func() {
			defer engineWg.Done()
			result = engine.Run(engineCtx, engineCfg)
			close(events)
		}()

		if err := presenter.Run(presenterEvents); err != nil {
			slog.Warn("tui exited with error", "error", err)
		}
		engineWg.Wait()
		tuiPresenter.Settle(outcomeOf(result))
	} else {
		var presenterErr error
		var presenterWg sync.WaitGroup
		presenterWg.Add(1)
		go func() {
			defer presenterWg.Done()
			presenterErr = presenter.Run(presenterEvents)
		}()

		result = engine.Run(engineCtx, engineCfg)
		close(events)
		presenterWg.Wait()
		if presenterErr != nil {
			fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
		}
	}
	stop()

	if summary := presenter.Summary(); summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}

	slog.Debug("backup finished", "status", result.Status, "copied", result.Copied, "stats", result.Stats.String())
	switch result.Status {
	case backup.StatusCompleted:
		return nil
	case backup.StatusCancelled:
		slog.Info("backup cancelled", "copied", result.Copied)
		return &exitError{code: exitCancelled}
	default:
		slog.Error("backup failed", "error", result.Err)
		return &exitError{code: exitFailed}
	}
}

// buildRequest assembles the request from arguments, flags and config.
func buildRequest(args []string, opts options, defaults config.DefaultsConfig) (backup.Request, error) {
	req := backup.Request{SourceRoot: args[0]}
	switch {
	case len(args) > 1:
		req.DestinationRoot = args[1]
	case defaults.Destination != nil:
		req.DestinationRoot = *defaults.Destination
	}

	for _, v := range opts.extensions {
		req.Extensions = append(req.Extensions, backup.ParseList(v)...)
	}
	if len(req.Extensions) == 0 {
		req.Extensions = backup.DefaultExtensions
	}

	for _, v := range opts.exclude {
		req.ExcludedDirPatterns = append(req.ExcludedDirPatterns, backup.ParseList(v)...)
	}
	if opts.excludeFrom != "" {
		patterns, err := filter.LoadPatterns(opts.excludeFrom)
		if err != nil {
			return backup.Request{}, errors.Mark(errors.Wrap(err, "--exclude-from"), backup.ErrConfiguration)
		}
		req.ExcludedDirPatterns = append(req.ExcludedDirPatterns, patterns...)
	}
	req.ExcludedFileNames = opts.excludeFiles
	return req, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) error {
	flags := cmd.Flags()
	if !flags.Changed("ext") && len(defaults.Extensions) > 0 {
		opts.extensions = defaults.Extensions
	}
	if !flags.Changed("exclude") && len(defaults.Exclude) > 0 {
		opts.exclude = defaults.Exclude
	}
	if !flags.Changed("exclude-file") && len(defaults.ExcludeFiles) > 0 {
		opts.excludeFiles = defaults.ExcludeFiles
	}
	if !flags.Changed("tui") && defaults.TUI != nil {
		opts.tuiFlag = *defaults.TUI
	}
	if !flags.Changed("bwlimit") && defaults.BWLimit != nil {
		n, err := filter.ParseSize(*defaults.BWLimit)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "config defaults.bwlimit"), backup.ErrConfiguration)
		}
		opts.bwLimit = n
	}
	if !flags.Changed("no-preserve") && defaults.Preserve != nil {
		opts.noPreserve = !*defaults.Preserve
	}
	if opts.quiet && opts.verbose {
		return errors.Mark(errors.New("--quiet and --verbose are mutually exclusive"), backup.ErrConfiguration)
	}
	return nil
}

// setupLogging installs the default slog logger. With --log, records also go
// to a JSON file, and the returned event logger writes engine events there.
func setupLogging(opts options) (func(), *slog.Logger, error) {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})

	if opts.logFile == "" {
		slog.SetDefault(slog.New(textHandler))
		return func() {}, nil, nil
	}

	lf, err := os.Create(opts.logFile)
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "open log file"), backup.ErrConfiguration)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(ui.NewMultiHandler(textHandler, jsonHandler)))
	return func() { _ = lf.Close() }, slog.New(jsonHandler), nil
}

// teeEvents writes every event to eventLog before forwarding it. A nil
// logger returns events unchanged.
func teeEvents(events <-chan event.Event, eventLog *slog.Logger) <-chan event.Event {
	if eventLog == nil {
		return events
	}
	teed := make(chan event.Event, cap(events))
	go func() {
		defer close(teed)
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
			}
			if ev.Dest != "" {
				attrs = append(attrs, slog.String("dest", ev.Dest))
			}
			switch ev.Type {
			case event.FileCopied:
				attrs = append(attrs, slog.Int64("size", ev.Size), slog.Int64("count", ev.Count),
					slog.String("method", ev.Message))
			case event.RunFinished:
				attrs = append(attrs, slog.String("status", ev.Status.String()), slog.Int64("count", ev.Count))
			default:
				if ev.Message != "" {
					attrs = append(attrs, slog.String("message", ev.Message))
				}
			}
			level := slog.LevelInfo
			if ev.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			eventLog.LogAttrs(context.Background(), level, "backup.event", attrs...)
			teed <- ev
		}
	}()
	return teed
}

// sizeFlag is a pflag.Value that parses human-readable sizes such as 50M.
type sizeFlag struct {
	n *int64
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) String() string {
	if f.n == nil || *f.n == 0 {
		return ""
	}
	return strconv.FormatInt(*f.n, 10)
}

func (*sizeFlag) Type() string { return "SIZE" }

func (f *sizeFlag) Set(val string) error {
	n, err := filter.ParseSize(val)
	if err != nil {
		return err
	}
	*f.n = n
	return nil
}

func outcomeOf(res engine.Result) ui.Outcome {
	return ui.Outcome{Status: res.Status, Copied: res.Copied, BackupRoot: res.BackupRoot, Err: res.Err}
}

// printError writes err and any hints attached to it.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
