package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tftcrawler/pkg/auth"
	"tftcrawler/pkg/config"
	"tftcrawler/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tftcrawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TFTCRAWLER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.tftcrawler.yaml' in the current directory unless
a different path is given with --config.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The API key is masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration from every source and check it.

This command checks:
  - YAML syntax
  - Hosts, timeout and match count
  - Rate limit caps and window
  - State and log directory accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# tftcrawler configuration
#
# Every option can also be set with a TFTCRAWLER_ environment variable,
# for example TFTCRAWLER_API_KEY or TFTCRAWLER_STATE_DIR.

riot:
  # Prefer 'tftcrawler auth login' over putting the key here
  api_key: ""

  # Plain text file holding the key, read after the keychain
  api_key_file: "api_key.txt"

  # Platform host serves league and summoner calls
  platform_host: "https://na1.api.riotgames.com"

  # Regional host serves match calls
  regional_host: "https://americas.api.riotgames.com"

  timeout: 30s

  # Match ids requested per identity (1-200)
  match_count: 20

# Development key limits; production keys allow more
rate_limit:
  per_second: 20
  per_window: 100
  window: 2m
  # Extra wait added to every limiter sleep
  margin: 100ms

storage:
  # Holds identities.json, details.json and participants.json
  # Default: $XDG_DATA_HOME/tftcrawler
  # directory: "./state"

crawl:
  # Use fallback_ids when the challenger league call fails
  fallback_on_top_failure: true
  # Summoner ids tried instead; defaults to a built-in pair
  # fallback_ids:
  #   - "SUMMONER_ID"
  # Record a match already stored for another player without fetching it
  # again. Off keeps one stored match per player that lists it.
  reuse_stored_details: false

metrics:
  # Prometheus text exposition written after each crawl
  textfile: ""

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Leave empty to log to the console
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".tftcrawler.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create config directory", err.Error())
			os.Exit(1)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'tftcrawler auth login' to store your Riot API key")
	fmt.Println("2. Run 'tftcrawler config validate' to check the configuration")
	fmt.Println("3. Start crawling with 'tftcrawler crawl'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Riot.APIKey != "" {
		displayCfg.Riot.APIKey = auth.MaskKey(displayCfg.Riot.APIKey)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TFTCRAWLER_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var problems []string
	if err := os.MkdirAll(cfg.Storage.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create state directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if cfg.Riot.APIKey == "" {
		ui.PrintWarning("No API key in configuration; the credential stores will be used")
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  State directory: %s\n", cfg.Storage.Directory)
	fmt.Printf("  Rate limit: %d/s, %d per %s\n", cfg.RateLimit.PerSecond, cfg.RateLimit.PerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Matches per identity: %d\n", cfg.Riot.MatchCount)
	fmt.Printf("  Fallback on league failure: %t\n", cfg.Crawl.FallbackOnTopFailure)
	fmt.Printf("  Reuse stored matches: %t\n", cfg.Crawl.ReuseStoredDetails)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
