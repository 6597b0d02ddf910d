package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/eval"
	"github.com/tmustier/webtk/fs"
	"github.com/tmustier/webtk/goquery"
	"github.com/tmustier/webtk/htmltomarkdown"
	webtkhttp "github.com/tmustier/webtk/http"
	"github.com/tmustier/webtk/pipeline"
	"github.com/tmustier/webtk/search"
	webtkslog "github.com/tmustier/webtk/slog"
	"github.com/tmustier/webtk/sqlite"
	"github.com/tmustier/webtk/trafilatura"
	"github.com/tmustier/webtk/whatlanggo"
)

func main() {
	m := NewMain()
	os.Exit(m.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Main represents the program.
type Main struct {
	// HistoryDBPath stores eval run history. Set before calling Run().
	HistoryDBPath string

	// NewRenderer constructs the browser collaborator; overridable for
	// end-to-end tests.
	NewRenderer RendererFactory
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		HistoryDBPath: defaultHistoryPath(),
		NewRenderer:   launchRodRenderer,
	}
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Globals *Globals
	Policy  webtk.Policy
	Cache   *fs.Cache

	Fetcher  webtk.Fetcher
	Registry webtk.ProviderRegistry
	Runner   *pipeline.Runner
	Eval     *eval.Runner

	// Renderer launches lazily on first use; browser startup is too
	// expensive to pay on commands that never render.
	Renderer *lazyRenderer

	// HistoryDB opens lazily for eval --record.
	HistoryDBPath string

	// ExitCode is set by envelope emission.
	ExitCode int
}

// Run executes the CLI with the given arguments and returns the process
// exit code.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("webtk"),
		kong.Description("Composable web retrieval for programmatic agents: search, fetch, render, extract."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return webtk.ExitRuntime
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return webtk.ExitUsage
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return webtk.ExitUsage
	}

	deps, err := m.buildDependencies(ctx, cli, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, webtk.ErrorMessage(err))
		return webtk.ExitCodeFor(webtk.ErrorCode(err))
	}
	defer deps.Cache.Cleanup()
	defer deps.Renderer.Close()

	if err := kongCtx.Run(deps); err != nil {
		fmt.Fprintln(stderr, webtk.ErrorMessage(err))
		return webtk.ExitCodeFor(webtk.ErrorCode(err))
	}
	return deps.ExitCode
}

// buildDependencies wires the service graph from the parsed globals.
func (m *Main) buildDependencies(ctx context.Context, cli *CLI, stdout, stderr io.Writer) (*Dependencies, error) {
	g := &cli.Globals

	logger := newLogger(stderr, g)
	policy, err := policyFromGlobals(g)
	if err != nil {
		return nil, err
	}

	cacheDir := g.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	ttl, err := webtk.ParseDuration(g.CacheTTL)
	if err != nil {
		return nil, err
	}
	cache := fs.NewCache(cacheDir,
		fs.WithTTL(ttl),
		fs.WithMaxBytes(int64(g.CacheMaxMB)<<20),
	)

	var fetcher webtk.Fetcher = webtkhttp.NewFetcher(cache)
	if g.Verbose {
		fetcher = webtkslog.NewLoggingFetcher(fetcher, logger)
	}

	var registry webtk.ProviderRegistry = search.NewRegistry(search.Config{
		Timeout:        policy.Timeout,
		Proxy:          g.Proxy,
		PermissiveMode: policy.Mode == webtk.ModePermissive,
	})
	if g.Verbose {
		registry = webtkslog.NewLoggingRegistry(registry, logger)
	}

	converter := htmltomarkdown.NewConverter()
	renderer := &lazyRenderer{factory: m.NewRenderer}

	runner := &pipeline.Runner{
		Fetcher:     fetcher,
		Renderer:    renderer,
		Detector:    goquery.NewDetector(),
		Readability: trafilatura.NewExtractor(converter),
		Docs:        goquery.NewDocsExtractor(converter),
		Language:    whatlanggo.NewDetector(),
		Robots:      webtkhttp.NewRobotsAgent(),
		Registry:    registry,
		RateLimiter: pipeline.NewDomainLimiter(1.0),
		Policy:      policy,
	}

	return &Dependencies{
		Ctx:           ctx,
		Stdout:        stdout,
		Stderr:        stderr,
		Logger:        logger,
		Globals:       g,
		Policy:        policy,
		Cache:         cache,
		Fetcher:       fetcher,
		Registry:      registry,
		Runner:        runner,
		Eval:          &eval.Runner{Pipeline: runner},
		Renderer:      renderer,
		HistoryDBPath: m.HistoryDBPath,
	}, nil
}

// policyFromGlobals derives the Policy value object from the flags over
// DefaultPolicy. No environment variable or config file feeds the policy.
func policyFromGlobals(g *Globals) (webtk.Policy, error) {
	policy := webtk.DefaultPolicy()
	policy.Mode = g.Policy
	policy.AllowDomains = g.AllowDomain
	policy.BlockDomains = g.BlockDomain
	policy.RobotsMode = g.Robots
	policy.Redact = g.Redact
	if g.Timeout > 0 {
		policy.Timeout = time.Duration(g.Timeout * float64(time.Second))
	}
	return policy, nil
}

func newLogger(stderr io.Writer, g *Globals) *slog.Logger {
	level := slog.LevelInfo
	if g.Verbose {
		level = slog.LevelDebug
	}
	if g.Quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func defaultCacheDir() string {
	if dir := os.Getenv("WEBTK_CACHE_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ".webtk-cache"
	}
	return filepath.Join(base, "webtk")
}

func defaultHistoryPath() string {
	return filepath.Join(defaultCacheDir(), "eval.db")
}

// openHistory opens the eval history database on demand.
func openHistory(path string) (*sqlite.DB, webtk.EvalHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, webtk.Errorf(webtk.EIO, "creating history directory: %v", err)
	}
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return nil, nil, webtk.Errorf(webtk.EIO, "opening eval history: %v", err)
	}
	return db, sqlite.NewHistoryService(db), nil
}
