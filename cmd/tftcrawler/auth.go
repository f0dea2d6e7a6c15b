package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tftcrawler/pkg/auth"
	"tftcrawler/pkg/config"
	"tftcrawler/pkg/ui"
)

var (
	// Auth flags
	profile   string
	showGuide bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Riot API key",
	Long: `Manage the stored Riot API key.

The key is looked up in this order:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Plain key file (riot.api_key_file, default api_key.txt)
  - TFTCRAWLER_API_KEY environment variable

Development keys expire daily; run 'tftcrawler auth login' again after
regenerating yours.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Riot API key securely",
	Long: `Store a Riot API key in the system keychain or, when no keychain is
available, in an encrypted file under the config directory.

The key is read from the terminal without echo.`,
	Example: `  # Interactive login
  tftcrawler auth login

  # Show how to get a key first
  tftcrawler auth login --guide`,
	Args: cobra.NoArgs,
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored key",
	Args:  cobra.NoArgs,
	Run:   runLogout,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored key, masked",
	Args:  cobra.NoArgs,
	Run:   runAuthShow,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authShowCmd)

	authCmd.PersistentFlags().StringVar(&profile, "profile", auth.DefaultProfile, "credential profile name")
	loginCmd.Flags().BoolVar(&showGuide, "guide", false, "print instructions for obtaining a key")
}

func newManager() *auth.Manager {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	manager, err := auth.NewManager(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runLogin(cmd *cobra.Command, args []string) {
	manager := newManager()

	if showGuide {
		auth.ShowAPIKeyGuide(os.Stdout)
		fmt.Println()
	}

	fmt.Print("Riot API key: ")
	key, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read API key", err.Error())
		os.Exit(1)
	}
	key = strings.TrimSpace(key)

	if !strings.HasPrefix(key, "RGAPI-") {
		ui.PrintWarning("Key does not start with RGAPI-; storing it anyway")
	}

	cred := &auth.Credential{Name: profile, APIKey: key}
	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store API key", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("API key stored for profile %q", profile))
	ui.PrintInfo("Key", auth.MaskKey(key))
	if profile != auth.DefaultProfile {
		ui.PrintWarning("Crawls use the default profile; this key is stored but unused")
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager := newManager()

	if err := manager.Delete(profile); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No stored key for profile", profile)
			return
		}
		ui.PrintError("Failed to remove API key", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("API key removed for profile %q", profile))
	if os.Getenv(auth.APIKeyEnv) != "" {
		ui.PrintWarning(auth.APIKeyEnv + " is still set in the environment")
	}
}

func runAuthShow(cmd *cobra.Command, args []string) {
	manager := newManager()

	cred, err := manager.Retrieve(profile)
	if err != nil {
		ui.PrintError("No API key found", err.Error())
		os.Exit(1)
	}

	sanitized := auth.SanitizeCredential(cred)
	ui.PrintInfo("Profile", sanitized.Name)
	ui.PrintInfo("Key", sanitized.APIKey)
	if !sanitized.LastModified.IsZero() {
		ui.PrintInfo("Stored", sanitized.LastModified.Format("2006-01-02 15:04"))
	}
}

// readPassword reads a line from stdin without echo when stdin is a terminal
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
