package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hydralsp/internal/core/config"
	"hydralsp/internal/ui/report"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: search upward for hydralsp.toml)")
	rootDir    = flag.String("root", "", "Workspace root (default: config workspace_root or detected project root)")
	pythonPath = flag.String("python", "", "Python interpreter or environment prefix")
	format     = flag.String("format", "", "Report format: text, json, sarif, markdown, tsv")
	outputPath = flag.String("output", "", "Write the report to this file instead of stdout")
	watch      = flag.Bool("watch", false, "Keep running and re-analyze on changes")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	hover      = flag.String("hover", "", "Print hover text for the target at file:line")
	definition = flag.String("definition", "", "Print the definition location for the target at file:line")
	trend      = flag.String("trend", "", "Print the recorded run history of a document")
	version    = flag.Bool("version", false, "Print version and exit")
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *version {
		fmt.Printf("hydralsp v%s\n", Version)
		return 0
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	output := os.Stderr
	if *ui {
		// In UI mode, avoid log lines corrupting the TUI.
		if f, err := openLogFile(resolveLogPath()); err == nil {
			defer f.Close()
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to read working directory", "error", err)
		return 2
	}
	cfg, usedConfig, err := config.LoadOrDefault(*configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 2
	}
	if err := applyFlags(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	base := cwd
	if usedConfig != "" && *rootDir == "" {
		base = filepath.Dir(usedConfig)
	}
	if usedConfig == "" && *rootDir == "" {
		if detected, err := config.DetectWorkspaceRoot(cwd); err == nil {
			base = detected
		}
	}
	paths, err := config.ResolvePaths(cfg, base)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return 2
	}
	slog.Debug("configuration loaded", "config", usedConfig, "root", paths.WorkspaceRoot)

	app, err := NewApp(ctx, cfg, paths, Version)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 2
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Close(shutdownCtx)
	}()

	if *hover != "" || *definition != "" {
		return runQuery(ctx, app)
	}
	if *trend != "" {
		if err := app.Trend(os.Stdout, *trend, 24*time.Hour); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		return 0
	}

	if _, err := app.Scan(ctx, patternArgs(cwd, flag.Args())); err != nil {
		slog.Error("scan failed", "error", err)
		return 2
	}

	if !*ui {
		if err := app.WriteReport(os.Stdout, isTerminal(os.Stdout)); err != nil {
			slog.Error("failed to write report", "error", err)
			return 2
		}
	}

	if !*watch && !*ui {
		if report.Total(app.Results()).Errors > 0 {
			return 1
		}
		return 0
	}

	app.overrides = applyFlags
	if err := app.StartWatcher(ctx, usedConfig); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 2
	}

	if *ui {
		if err := app.RunUI(); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 2
		}
		return 0
	}

	<-ctx.Done()
	return 0
}

func runQuery(ctx context.Context, app *App) int {
	arg, query := *hover, app.Hover
	if arg == "" {
		arg, query = *definition, app.Definition
	}
	path, line, err := parseFileLine(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}
	out, err := query(ctx, path, line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Println(out)
	return 0
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(cfg *config.Config) error {
	if *hover != "" && *definition != "" {
		return fmt.Errorf("-hover and -definition cannot be used together")
	}
	if *rootDir != "" {
		abs, err := filepath.Abs(*rootDir)
		if err != nil {
			return err
		}
		cfg.WorkspaceRoot = abs
	}
	if *pythonPath != "" {
		cfg.Python.Interpreter = *pythonPath
	}
	if *format != "" {
		f := strings.ToLower(strings.TrimSpace(*format))
		if !slices.Contains(config.OutputFormats, f) {
			return fmt.Errorf("-format must be one of: %s", strings.Join(config.OutputFormats, ", "))
		}
		cfg.Output.Format = f
	}
	if *outputPath != "" {
		abs, err := filepath.Abs(*outputPath)
		if err != nil {
			return err
		}
		cfg.Output.Path = abs
	}
	return nil
}

// parseFileLine splits "file:line" with a 1-based line into a path and a
// 0-based line.
func parseFileLine(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, ":")
	if idx <= 0 || idx == len(arg)-1 {
		return "", 0, fmt.Errorf("expected file:line, got %q", arg)
	}
	line, err := strconv.Atoi(arg[idx+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid line in %q", arg)
	}
	return arg[:idx], line - 1, nil
}

// patternArgs makes positional arguments naming existing files absolute, so
// they resolve against the working directory rather than the workspace root.
func patternArgs(cwd string, args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		candidate := arg
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(cwd, arg)
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			out = append(out, candidate)
			continue
		}
		out = append(out, arg)
	}
	return out
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log dir for %s: %w", path, err)
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing to write logs to symlink path %s", path)
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "hydralsp", "hydralsp.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "hydralsp", "hydralsp.log")
	}

	return "hydralsp.log"
}
