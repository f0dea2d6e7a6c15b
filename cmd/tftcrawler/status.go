package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"tftcrawler/pkg/config"
	"tftcrawler/pkg/crawler"
	"tftcrawler/pkg/logger"
	"tftcrawler/pkg/store"
	"tftcrawler/pkg/ui"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the stored collections",
	Long: `Read the identity, match and participant collections and print their sizes.

Pending identities are those not yet expanded; the next crawl fetches their
match lists. No API key is needed.

Status only reads. A missing collection counts as empty and a corrupt one is
reported and left in place; the next crawl backs it up and resets it.`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	if _, err := os.Stat(cfg.Storage.Directory); errors.Is(err, fs.ErrNotExist) {
		ui.PrintWarning("No crawl state yet", cfg.Storage.Directory)
		return
	}

	st, err := store.New(cfg.Storage.Directory, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to open state directory", err.Error())
		os.Exit(1)
	}

	status, err := crawler.New(nil, st, nil, nil).Status()
	if errors.Is(err, store.ErrCorrupt) {
		ui.PrintError("Corrupt collection", err.Error())
		fmt.Println("\nThe next 'tftcrawler crawl' saves it as .backup and starts it over.")
		os.Exit(1)
	}
	if err != nil {
		ui.PrintError("Failed to read collections", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Crawl state: " + st.Dir())
	fmt.Println()
	ui.PrintInfo("Identities", fmt.Sprintf("%d (%d pending)", status.Identities, status.PendingIdentities))
	ui.PrintInfo("Matches", fmt.Sprintf("%d (%d empty)", status.Details, status.EmptyDetails))
	ui.PrintInfo("Participants", fmt.Sprintf("%d (%d unseen)", status.Participants, status.UnseenParticipants))
}
