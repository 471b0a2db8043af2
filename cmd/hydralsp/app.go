package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"hydralsp/internal/core/config"
	"hydralsp/internal/core/session"
	"hydralsp/internal/core/watcher"
	"hydralsp/internal/data/history"
	"hydralsp/internal/engine/diagnostics"
	"hydralsp/internal/engine/python"
	"hydralsp/internal/shared/observability"
	"hydralsp/internal/shared/util"
	"hydralsp/internal/ui/report"

	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

type App struct {
	Config   *config.Config
	Paths    config.ResolvedPaths
	Session  *session.Session
	Resolver *python.Resolver

	version    string
	configPath string
	cache      *python.CachingExtractor
	engine     *diagnostics.Engine
	history    *history.Store
	recorder   *history.Writer
	metrics    *observability.Server
	tracing    observability.ShutdownFunc
	watcher    *watcher.Watcher
	cfgWatcher *config.Watcher

	// overrides re-applies command-line settings to a reloaded config.
	overrides func(*config.Config) error

	// scopeMu guards include and filter, which config reloads replace.
	scopeMu sync.RWMutex
	include []string
	filter  *watcher.Filter

	uiMu       sync.Mutex
	teaProgram *tea.Program
}

// NewApp wires resolver, extractor, engine and session from cfg. Optional
// services (history, metrics server, tracing) start only when enabled.
func NewApp(ctx context.Context, cfg *config.Config, paths config.ResolvedPaths, version string) (*App, error) {
	filter, err := watcher.NewFilter(cfg.Exclude.Dirs, cfg.Exclude.Files, cfg.Watch.Extensions)
	if err != nil {
		return nil, err
	}

	discovery := python.Discovery{WorkspaceRoot: paths.WorkspaceRoot, Interpreter: cfg.Python.Interpreter}
	sitePackages, err := discovery.SitePackages()
	if err != nil {
		slog.Warn("python environment discovery failed", "error", err)
	}
	resolver := python.NewResolver(paths.WorkspaceRoot, append(sitePackages, paths.ExtraPaths...))
	slog.Debug("module search paths", "paths", resolver.SearchPaths())

	cache := python.NewCachingExtractor(python.NewExtractor(), cfg.Analysis.CacheEntries)
	engine := diagnostics.NewEngine(resolver, cache, diagnostics.WithSuggestions(cfg.Analysis.SuggestionsEnabled()))

	a := &App{
		Config:   cfg,
		Paths:    paths,
		Resolver: resolver,
		version:  version,
		cache:    cache,
		engine:   engine,
		include:  slices.Clone(cfg.Include),
		filter:   filter,
	}

	if cfg.Observability.Enabled && cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			Endpoint:    cfg.Observability.OTLPEndpoint,
			ServiceName: cfg.Observability.ServiceName,
			Insecure:    cfg.Observability.OTLPInsecure,
			SampleRatio: cfg.Observability.SampleRatio,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			a.tracing = shutdown
		}
	}

	a.Session = session.New(session.NewAnalyzer(engine), session.SchedulerOptions{
		Workers:   cfg.Analysis.Workers,
		RateLimit: cfg.Analysis.RateLimit,
		RateBurst: cfg.Analysis.RateBurst,
	})

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
		a.recorder = history.NewWriter(store, 256)
		a.Session.Subscribe(a.recordRun)
	}
	a.Session.Subscribe(a.notifyUI)

	if cfg.Observability.Enabled && cfg.Observability.EnableMetrics {
		a.metrics = observability.NewServer(fmt.Sprintf(":%d", cfg.Observability.Port), a.health)
		if err := a.metrics.Start(ctx); err != nil {
			slog.Warn("metrics server disabled", "error", err)
			a.metrics = nil
		} else {
			slog.Info("metrics server listening", "addr", a.metrics.Addr())
		}
	}

	return a, nil
}

// Scan loads every document matched by patterns and waits for their analyses.
// Explicit file paths are accepted as patterns too.
func (a *App) Scan(ctx context.Context, patterns []string) ([]string, error) {
	include, filter := a.scope()
	if len(patterns) == 0 {
		patterns = include
	}
	files, err := watcher.Discover(a.Paths.WorkspaceRoot, patterns, filter)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.Config.Analysis.Workers))
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := a.load(path); err != nil {
				slog.Warn("failed to read document", "path", path, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.Session.Wait()
	if a.recorder != nil {
		a.recorder.Flush()
	}
	return files, nil
}

func (a *App) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a.Session.Update(path, string(data))
	return nil
}

// Results returns the latest analysis of every Hydra document.
func (a *App) Results() []report.Document {
	docs := make([]report.Document, 0)
	for _, uri := range a.Session.Documents() {
		analysis, ok := a.Session.Analysis(uri)
		if !ok || !analysis.Hydra {
			continue
		}
		doc := report.Document{Path: uri, Findings: analysis.Findings}
		if analysis.Document != nil {
			doc.Targets = analysis.Document.Arena.Len()
		}
		docs = append(docs, doc)
	}
	return docs
}

// WriteReport renders the current results to the configured output path or w.
func (a *App) WriteReport(w io.Writer, color bool) error {
	opts := report.Options{
		Format:  a.Config.Output.Format,
		Root:    a.Paths.WorkspaceRoot,
		Version: a.version,
		Color:   color && a.Paths.OutputPath == "",
	}
	if a.Paths.OutputPath == "" {
		return report.Render(w, a.Results(), opts)
	}

	var buf strings.Builder
	if err := report.Render(&buf, a.Results(), opts); err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(a.Paths.OutputPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("write report %q: %w", a.Paths.OutputPath, err)
	}
	slog.Info("report written", "path", a.Paths.OutputPath, "format", opts.Format)
	return nil
}

// Hover analyzes path and renders the hover text of the target on line (0-based).
func (a *App) Hover(ctx context.Context, path string, line int) (string, error) {
	abs, err := a.single(ctx, path)
	if err != nil {
		return "", err
	}
	h, err := a.Session.Hover(abs, line)
	if err != nil {
		return "", err
	}
	return h.Markdown, nil
}

// Definition analyzes path and returns "file:line" (1-based) of the definition
// behind the target on line.
func (a *App) Definition(ctx context.Context, path string, line int) (string, error) {
	abs, err := a.single(ctx, path)
	if err != nil {
		return "", err
	}
	loc, err := a.Session.Definition(abs, line)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", loc.Path, loc.Line+1), nil
}

func (a *App) single(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := a.load(abs); err != nil {
		return "", err
	}
	a.Session.Wait()
	return abs, nil
}

// Trend renders the recorded run history of path.
func (a *App) Trend(w io.Writer, path string, window time.Duration) error {
	if a.history == nil {
		return fmt.Errorf("history is disabled; set history.enabled = true")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if a.recorder != nil {
		a.recorder.Flush()
	}
	runs, err := a.history.ListRuns(abs, 0)
	if err != nil {
		return err
	}
	trend, err := history.BuildTrendReport(abs, runs, window)
	if err != nil {
		return err
	}

	var data []byte
	if a.Config.Output.Format == "json" {
		data, err = report.RenderTrendJSON(trend)
	} else {
		data, err = report.RenderTrendTSV(trend)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// HandleChanges applies a batch of workspace changes. Document edits resubmit
// that document; any Python change drops cached definitions and resubmits all.
func (a *App) HandleChanges(changes []watcher.Change) {
	pythonChanged := false
	for _, change := range changes {
		switch change.Kind {
		case watcher.KindDocument:
			if change.Removed {
				a.Session.CloseDocument(change.Path)
				continue
			}
			if !a.matchesInclude(change.Path) {
				continue
			}
			if err := a.load(change.Path); err != nil {
				slog.Warn("failed to reload document", "path", change.Path, "error", err)
			}
		case watcher.KindPython:
			pythonChanged = true
		}
	}
	if pythonChanged {
		a.cache.Purge()
		n := a.Session.Reanalyze()
		slog.Debug("python sources changed", "documents", n)
	}
}

// matchesInclude reports whether a changed document belongs to the scan: it
// is already open or matches an include pattern under the workspace root.
func (a *App) matchesInclude(path string) bool {
	if slices.Contains(a.Session.Documents(), path) {
		return true
	}
	include, filter := a.scope()
	if !filter.Admits(a.Paths.WorkspaceRoot, path) {
		return false
	}
	rel, err := filepath.Rel(a.Paths.WorkspaceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range include {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// StartWatcher watches the configured paths and, when a config file is in
// use, the config file itself.
func (a *App) StartWatcher(ctx context.Context, configPath string) error {
	_, filter := a.scope()
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, filter, a.HandleChanges)
	if err != nil {
		return err
	}
	if err := w.Watch(a.Paths.WatchPaths); err != nil {
		_ = w.Close()
		return err
	}
	a.watcher = w

	if configPath != "" {
		a.configPath = configPath
		a.cfgWatcher = config.NewWatcher(configPath, a.reloadConfig)
		if err := a.cfgWatcher.Start(ctx); err != nil {
			slog.Warn("config watcher disabled", "path", configPath, "error", err)
			a.cfgWatcher = nil
		}
	}
	return nil
}

func (a *App) scope() ([]string, *watcher.Filter) {
	a.scopeMu.RLock()
	defer a.scopeMu.RUnlock()
	return a.include, a.filter
}

// reloadConfig applies include and exclude rules, watch extensions and
// debounce, and suggestions. Other changed settings are logged as needing a
// restart.
func (a *App) reloadConfig(cfg *config.Config) {
	if a.overrides != nil {
		if err := a.overrides(cfg); err != nil {
			slog.Warn("config reload rejected", "path", a.configPath, "error", err)
			return
		}
	}
	filter, err := watcher.NewFilter(cfg.Exclude.Dirs, cfg.Exclude.Files, cfg.Watch.Extensions)
	if err != nil {
		slog.Warn("config reload rejected", "path", a.configPath, "error", err)
		return
	}

	a.scopeMu.Lock()
	a.include = slices.Clone(cfg.Include)
	a.filter = filter
	a.scopeMu.Unlock()

	if a.watcher != nil {
		a.watcher.SetFilter(filter)
		a.watcher.SetDebounce(cfg.Watch.Debounce)
	}
	a.engine.SetSuggestions(cfg.Analysis.SuggestionsEnabled())

	if keys := restartKeys(a.Config, cfg); len(keys) > 0 {
		slog.Warn("config changes require a restart", "path", a.configPath, "keys", keys)
	}
	slog.Info("config reloaded", "path", a.configPath, "debounce", cfg.Watch.Debounce)
	a.Session.Reanalyze()
}

// restartKeys lists the settings that differ between old and cur and only
// take effect on a restart.
func restartKeys(old, cur *config.Config) []string {
	var keys []string
	check := func(key string, changed bool) {
		if changed {
			keys = append(keys, key)
		}
	}
	check("workspace_root", old.WorkspaceRoot != cur.WorkspaceRoot)
	check("python.interpreter", old.Python.Interpreter != cur.Python.Interpreter)
	check("python.extra_paths", !slices.Equal(old.Python.ExtraPaths, cur.Python.ExtraPaths))
	check("watch.paths", !slices.Equal(old.Watch.Paths, cur.Watch.Paths))
	check("analysis.workers", old.Analysis.Workers != cur.Analysis.Workers)
	check("analysis.rate_limit", old.Analysis.RateLimit != cur.Analysis.RateLimit)
	check("analysis.rate_burst", old.Analysis.RateBurst != cur.Analysis.RateBurst)
	check("analysis.cache_entries", old.Analysis.CacheEntries != cur.Analysis.CacheEntries)
	check("output", old.Output != cur.Output)
	check("history", old.History != cur.History)
	check("observability", old.Observability != cur.Observability)
	return keys
}

func (a *App) recordRun(analysis session.Analysis) {
	if a.recorder == nil || !analysis.Hydra {
		return
	}
	summary := analysis.Summary()
	codes := make(map[string]int)
	for _, f := range analysis.Findings {
		codes[string(f.Code)]++
	}
	targets := 0
	if analysis.Document != nil {
		targets = analysis.Document.Arena.Len()
	}
	a.recorder.Submit(history.Run{
		Document:  analysis.URI,
		Version:   analysis.Version,
		StartedAt: time.Now().UTC().Add(-analysis.Duration),
		Duration:  analysis.Duration,
		Targets:   targets,
		Errors:    summary.Errors,
		Hints:     summary.Hints,
		Infos:     summary.Infos,
		Codes:     codes,
	})
}

func (a *App) notifyUI(session.Analysis) {
	a.uiMu.Lock()
	p := a.teaProgram
	a.uiMu.Unlock()
	if p == nil {
		return
	}
	msg := updateMsg{docs: a.Results(), root: a.Paths.WorkspaceRoot}
	// Send blocks until the program reads it; never stall the publisher.
	go p.Send(msg)
}

func (a *App) health(context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:    "up",
		Timestamp: time.Now().UTC(),
		Components: map[string]string{
			"session": "up",
			"history": "disabled",
			"watcher": "disabled",
		},
	}
	if a.history != nil {
		status.Components["history"] = "up"
	}
	if a.watcher != nil {
		status.Components["watcher"] = "up"
	}
	return status
}

// RunUI blocks on the terminal UI until the user quits.
func (a *App) RunUI() error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	a.uiMu.Lock()
	a.teaProgram = p
	a.uiMu.Unlock()

	go p.Send(updateMsg{docs: a.Results(), root: a.Paths.WorkspaceRoot})

	_, err := p.Run()

	a.uiMu.Lock()
	a.teaProgram = nil
	a.uiMu.Unlock()
	return err
}

// Close stops every background service. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) {
	if a.cfgWatcher != nil {
		a.cfgWatcher.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.Session != nil {
		a.Session.Close()
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("failed to close history", "error", err)
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Stop(ctx); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}
