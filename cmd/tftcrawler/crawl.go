package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"tftcrawler/pkg/auth"
	"tftcrawler/pkg/config"
	"tftcrawler/pkg/crawler"
	"tftcrawler/pkg/logger"
	"tftcrawler/pkg/metrics"
	"tftcrawler/pkg/ratelimit"
	"tftcrawler/pkg/riot"
	"tftcrawler/pkg/store"
	"tftcrawler/pkg/ui"
)

var (
	// Crawl flags
	phase           string
	apiKey          string
	apiKeyFile      string
	perSecond       int
	perWindow       int
	noFallback      bool
	reuseDetails    bool
	metricsTextfile string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the crawl once",
	Long: `Run discovery, expansion and derivation once against the state directory.

  discover  resolve every challenger to a puuid and record new identities
  expand    fetch match ids and full matches for identities not yet expanded
  derive    record every match participant not yet known

Failed API calls are logged and skipped; the next run retries them only
where nothing was recorded. A failure to read or write the state directory
stops the crawl with a non-zero exit status.`,
	Example: `  # Full crawl with the key stored by 'tftcrawler auth login'
  tftcrawler crawl

  # Only expand identities discovered earlier
  tftcrawler crawl --phase expand

  # Use a key file and write metrics for node_exporter
  tftcrawler crawl --api-key-file ./api_key.txt --metrics-textfile /var/lib/node_exporter/tftcrawler.prom`,
	Args: cobra.NoArgs,
	Run:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&phase, "phase", "", "run a single phase (discover, expand, derive)")
	crawlCmd.Flags().StringVar(&apiKey, "api-key", "", "Riot API key (prefer 'auth login' or TFTCRAWLER_API_KEY)")
	crawlCmd.Flags().StringVar(&apiKeyFile, "api-key-file", "", "file holding the Riot API key")
	crawlCmd.Flags().IntVar(&perSecond, "per-second", 0, "requests allowed per second")
	crawlCmd.Flags().IntVar(&perWindow, "per-window", 0, "requests allowed per rate limit window")
	crawlCmd.Flags().BoolVar(&noFallback, "no-fallback", false, "do not use fallback ids when the league call fails")
	crawlCmd.Flags().BoolVar(&reuseDetails, "reuse-details", false, "record matches already stored for another player without fetching them again")
	crawlCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
}

func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags()
	flags["api-key"] = apiKey
	flags["api-key-file"] = apiKeyFile
	flags["per-second"] = perSecond
	flags["per-window"] = perWindow
	flags["metrics-textfile"] = metricsTextfile
	if cmd.Flags().Changed("no-fallback") {
		flags["fallback"] = !noFallback
	}
	if cmd.Flags().Changed("reuse-details") {
		flags["reuse-details"] = reuseDetails
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) {
	if phase != "" && !validPhase(phase) {
		ui.PrintError("Unknown phase", phase)
		os.Exit(1)
	}

	cfg, err := config.Load(configFile, crawlFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	if !quiet {
		ui.PrintBanner()
	}

	c, m, err := newCrawler(cfg, log)
	if err != nil {
		ui.PrintError("Failed to initialize crawler", err.Error())
		os.Exit(1)
	}

	log.InfoWithFields("Crawl starting", map[string]interface{}{
		"version":   version,
		"state_dir": cfg.Storage.Directory,
		"phase":     phaseLabel(),
	})

	start := time.Now()
	var stats crawler.Stats
	if phase != "" {
		stats, err = c.RunPhase(phase)
	} else {
		stats, err = c.Run()
	}

	printStats(stats, time.Since(start))

	if writeErr := m.WriteTextfile(cfg.Metrics.Textfile); writeErr != nil {
		log.WithError(writeErr).Warn("Failed to write metrics")
	}

	if err != nil {
		log.WithError(err).Error("Crawl aborted")
		ui.PrintError("CRAWL ABORTED", err.Error())
		os.Exit(1)
	}

	if stats.Degraded > 0 {
		ui.PrintWarning("Crawl finished with degraded calls", stats.Degraded)
		return
	}
	ui.PrintSuccess("Crawl complete")
}

// newCrawler wires configuration, credentials, limiter, gateway and store
func newCrawler(cfg *config.Config, log logger.Logger) (*crawler.Crawler, *metrics.Metrics, error) {
	credentials, err := credentialProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New()

	limiter := ratelimit.NewDualWindow(
		cfg.RateLimit.PerSecond,
		cfg.RateLimit.PerWindow,
		cfg.RateLimit.Window,
		ratelimit.WithMargin(cfg.RateLimit.Margin),
		ratelimit.WithOnWait(func(limit string, d time.Duration) {
			logger.LogRateLimit(log, limit, d)
			m.ObserveSleep(limit, d)
		}),
	)

	opts := riot.OptionsFromConfig(cfg)
	opts.Credentials = credentials
	opts.Limiter = limiter
	opts.Logger = log
	opts.Metrics = m
	client := riot.NewClient(opts)

	st, err := store.New(cfg.Storage.Directory, log)
	if err != nil {
		return nil, nil, err
	}

	return crawler.New(client, st, log, m, crawler.WithDetailReuse(cfg.Crawl.ReuseStoredDetails)), m, nil
}

// credentialProvider prefers an explicit key from flags, env or config and
// falls back to the credential stores
func credentialProvider(cfg *config.Config) (riot.CredentialProvider, error) {
	if cfg.Riot.APIKey != "" {
		return riot.StaticKey(cfg.Riot.APIKey), nil
	}

	manager, err := auth.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if _, err := manager.APIKey(); err != nil {
		return nil, fmt.Errorf("no Riot API key found (run 'tftcrawler auth login' or set %s): %w", auth.APIKeyEnv, err)
	}
	return manager, nil
}

func validPhase(name string) bool {
	for _, p := range crawler.Phases {
		if p == name {
			return true
		}
	}
	return false
}

func phaseLabel() string {
	if phase == "" {
		return "all"
	}
	return phase
}

func printStats(stats crawler.Stats, elapsed time.Duration) {
	fmt.Println()
	ui.PrintInfo("Identities discovered", stats.Discovered)
	ui.PrintInfo("Identities expanded", stats.Expanded)
	ui.PrintInfo("Matches fetched", stats.Details)
	ui.PrintInfo("Matches reused", stats.Reused)
	ui.PrintInfo("Participants derived", stats.Participants)
	ui.PrintInfo("Degraded calls", stats.Degraded)
	ui.PrintInfo("Elapsed", elapsed.Round(time.Second))
}
