package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobagg-engine/internal/config"
	"jobagg-engine/internal/events"
	"jobagg-engine/internal/rank"
	"jobagg-engine/internal/render"
	"jobagg-engine/internal/scrape"
	"jobagg-engine/internal/scrape/util"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// requestTimeout bounds one HTTP request; the whole site gets run.site_timeout.
const requestTimeout = 25 * time.Second

// Exit codes.
const (
	exitOK          = 0
	exitConfig      = 1
	exitUsage       = 2
	exitRenderError = 3
)

// Options are the command-line flags; every flag can also come from the
// environment or a .env file in the working directory.
type Options struct {
	Sites       string        `long:"sites" env:"JOBAGG_SITES" default:"sites.yml" description:"YAML file with the site list (and optional filters/run sections)"`
	Keywords    []string      `long:"keywords" env:"JOBAGG_KEYWORDS" env-delim:"," description:"Keyword to match, repeatable or comma-separated (default: built-in FI/EN list)"`
	Locations   []string      `long:"locations" env:"JOBAGG_LOCATIONS" env-delim:"," description:"Location to match, repeatable or comma-separated (default: Helsinki, Espoo, Vantaa)"`
	MaxPerSite  int           `long:"max-per-site" env:"JOBAGG_MAX_PER_SITE" description:"Cap on records fetched per site (default 120)"`
	Concurrency int           `long:"concurrency" env:"JOBAGG_CONCURRENCY" description:"Sites fetched at the same time (default 4)"`
	SiteTimeout time.Duration `long:"site-timeout" env:"JOBAGG_SITE_TIMEOUT" description:"Time budget per site, e.g. 90s"`
	RPS         float64       `long:"rps" env:"JOBAGG_RPS" description:"Requests per second per host (default 2)"`
	Days        int           `long:"days" env:"JOBAGG_DAYS" default:"-1" description:"Keep only postings published within N days when the date is known (0 disables)"`
	Sort        string        `long:"sort" env:"JOBAGG_SORT" description:"Result order: config, recent or score"`
	Only        []string      `long:"only" description:"Run only the named sites, repeatable or comma-separated"`

	OutCSV    string `long:"out-csv" env:"JOBAGG_OUT_CSV" default:"jobs.csv" description:"CSV destination (empty to skip)"`
	OutJSON   string `long:"out-json" env:"JOBAGG_OUT_JSON" default:"jobs.json" description:"JSON destination (empty to skip)"`
	OutHTML   string `long:"out-html" env:"JOBAGG_OUT_HTML" default:"jobs.html" description:"HTML destination (empty to skip)"`
	OutLinks  string `long:"out-links" env:"JOBAGG_OUT_LINKS" default:"links.txt" description:"Plain URL list destination (empty to skip)"`
	OutSQLite string `long:"out-sqlite" env:"JOBAGG_OUT_SQLITE" description:"SQLite snapshot destination"`

	WriteConfig string `long:"write-config" description:"Write the effective configuration to this path and exit"`
	Progress    bool   `long:"progress" env:"JOBAGG_PROGRESS" description:"Print progress events as JSON lines on stderr"`
}

func main() {
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[env] .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	if opts.WriteConfig != "" {
		if err := config.SaveAtomic(opts.WriteConfig, cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return exitConfig
		}
		fmt.Fprintf(stdout, "Wrote configuration with %d sites to %s\n", len(cfg.Sites), opts.WriteConfig)
		return exitOK
	}

	limiter := util.NewHostLimiter(cfg.Run.RequestsPerSecond, 2)
	client := util.NewClient(requestTimeout, limiter)

	runner := scrape.NewRunner(scrape.NewBuilder(client))
	if opts.Progress {
		runner.Hub = events.NewHub()
		done := watchProgress(runner.Hub, stderr)
		defer done()
	}

	log.Printf("[engine] crawling %d sites (cap %d, concurrency %d)", len(cfg.Sites), cfg.Run.CapPerSite, cfg.Run.Concurrency)
	result, err := runner.Run(ctx, cfg.Sites, cfg.FilterConfig(), scrape.Options{
		CapPerSite:  cfg.Run.CapPerSite,
		Concurrency: cfg.Run.Concurrency,
		SiteTimeout: cfg.Run.SiteTimeout.Std(),
		Sort:        rank.Order(cfg.Run.Sort),
	})
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			fmt.Fprintln(stderr, err)
			return exitConfig
		}
		// cancelled: still write what was collected
		log.Printf("[engine] run interrupted: %v", err)
	}

	rep := render.NewRenderer().Write(context.WithoutCancel(ctx), result, targets(opts))
	printSummary(stdout, result, rep)

	if !rep.OK() {
		return exitRenderError
	}
	return exitOK
}
