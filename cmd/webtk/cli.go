package main

// CLI defines the command-line interface structure for Kong. Global flags
// apply to every subcommand; secrets are never accepted as flags.
type CLI struct {
	Globals

	Providers ProvidersCmd `cmd:"" help:"List available search providers"`
	Search    SearchCmd    `cmd:"" help:"Search the web"`
	Fetch     FetchCmd     `cmd:"" help:"Fetch a URL over HTTP"`
	Render    RenderCmd    `cmd:"" help:"Render a URL in a browser"`
	Extract   ExtractCmd   `cmd:"" help:"Extract readable content from a URL, file, or stdin"`
	Pipeline  PipelineCmd  `cmd:"" help:"Search then extract top results"`
	Eval      EvalCmd      `cmd:"" help:"Run an evaluation suite"`
}

// Globals holds the flags shared by every subcommand.
type Globals struct {
	JSON    bool `help:"Output machine-readable JSON"`
	Pretty  bool `help:"Pretty-print JSON (implies --json)"`
	Plain   bool `help:"Stable text output for piping"`
	Quiet   bool `short:"q" help:"Reduce non-essential output"`
	Verbose bool `short:"v" help:"Verbose diagnostics to stderr"`
	NoColor bool `help:"Disable ANSI color output"`
	NoInput bool `help:"Never prompt; fail with actionable diagnostics"`

	Timeout float64 `default:"15" help:"Network timeout in seconds"`
	Proxy   string  `help:"HTTP(S) proxy URL"`

	CacheDir   string `help:"Cache directory (default: user cache dir)"`
	NoCache    bool   `help:"Disable the response cache"`
	Fresh      bool   `help:"Bypass cache reads, still store on success"`
	CacheMaxMB int    `name:"cache-max-mb" default:"1024" help:"Cache size budget in MB"`
	CacheTTL   string `name:"cache-ttl" default:"7d" help:"Cache TTL (e.g. 24h, 7d)"`

	EvidenceDir string `help:"Evidence directory for render artifacts"`

	Redact      bool     `help:"Redact URLs and common secrets in output"`
	Robots      string   `default:"warn" enum:"warn,respect,ignore" help:"robots.txt stance"`
	AllowDomain []string `help:"Allow domain (repeatable); restricts network operations"`
	BlockDomain []string `help:"Block domain (repeatable)"`
	Policy      string   `default:"standard" enum:"standard,strict,permissive" help:"Policy mode"`
}

// ProvidersCmd is the "providers" subcommand.
type ProvidersCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query      string `arg:"" help:"Search query"`
	MaxResults int    `short:"n" default:"10" help:"Maximum results"`
	Provider   string `default:"auto" help:"Search provider (default: auto)"`
	Region     string `help:"Region code (e.g. us-en)"`
	SafeSearch string `default:"" enum:"on,moderate,off," help:"Safe search mode"`
	TimeRange  string `help:"Time range (provider-specific: d, w, m, y)"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	URL             string   `arg:"" help:"URL to fetch"`
	Header          []string `help:"Extra header (repeatable): key:value"`
	HeadersFile     string   `help:"JSON object of headers (path or '-')"`
	UserAgent       string   `help:"User-Agent header"`
	AcceptLanguage  string   `help:"Accept-Language header"`
	MaxBytes        int64    `default:"5242880" help:"Max response bytes"`
	FollowRedirects bool     `default:"true" negatable:"" help:"Follow redirects"`
	DetectBlocks    bool     `default:"true" negatable:"" help:"Heuristics for bot walls and JS-only pages"`
	IncludeBody     bool     `help:"Include body text in JSON output (debug)"`
}

// RenderCmd is the "render" subcommand.
type RenderCmd struct {
	URL        string `arg:"" help:"URL to render"`
	WaitMS     int    `name:"wait-ms" help:"Extra wait after load in milliseconds"`
	WaitFor    string `help:"CSS selector to wait for"`
	Screenshot bool   `help:"Capture a screenshot into the evidence directory"`
	Headful    bool   `help:"Run the browser with a visible window"`
	Profile    string `help:"Browser profile directory (responses are never cached)"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Target   string `arg:"" help:"URL, path, or '-' for stdin"`
	Strategy string `default:"auto" enum:"auto,readability,docs" help:"Extraction strategy"`
	Method   string `default:"http" enum:"http,browser,auto" help:"Fetch method"`

	Markdown bool `help:"Output markdown only" xor:"output"`
	Text     bool `help:"Output text only" xor:"output"`
	Both     bool `help:"Output both markdown and text" xor:"output"`

	MaxChars  int `help:"Truncate extracted output at N characters"`
	MaxTokens int `help:"Truncate extracted output at ~N tokens"`

	IncludeHTML bool `name:"include-html" help:"Reserved; raw HTML is not added to the output"`
}

// PipelineCmd is the "pipeline" subcommand.
type PipelineCmd struct {
	Query        string   `arg:"" help:"Search query"`
	TopK         int      `name:"top-k" default:"5" help:"Search results to consider"`
	ExtractK     int      `name:"extract-k" default:"1" help:"Results to extract"`
	Method       string   `default:"http" enum:"http,browser,auto" help:"Fetch method"`
	Plan         bool     `help:"Emit the candidate plan without fetching"`
	PreferDomain []string `help:"Prefer domains when selecting candidates (repeatable)"`
	Provider     string   `default:"auto" help:"Search provider"`
	Region       string   `help:"Region code (e.g. us-en)"`
	SafeSearch   string   `default:"" enum:"on,moderate,off," help:"Safe search mode"`
	TimeRange    string   `help:"Time range (provider-specific: d, w, m, y)"`
	Strategy     string   `default:"auto" enum:"auto,readability,docs" help:"Extraction strategy"`
	MaxChars     int      `help:"Truncate extracted output at N characters"`
	Budget       string   `help:"Budget hint (reserved; not enforced)"`
}

// EvalCmd is the "eval" subcommand.
type EvalCmd struct {
	Suite          string   `required:"" help:"Suite file (JSON or JSONL)"`
	Provider       []string `help:"Search provider(s) to run (repeatable; default: auto)"`
	K              int      `short:"k" default:"10" help:"Top-k used for metrics"`
	FailOn         string   `name:"fail-on" default:"error" enum:"none,error,miss,miss_or_error" help:"Non-zero exit on misses/errors"`
	IncludeResults bool     `help:"Include result items in JSON output"`
	Record         bool     `help:"Record the run and report drift against the previous recorded run"`
}
