package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "Manage application settings",
	Long: `View and change settings stored in ~/.marginalia/config.toml.

Use "config set <key> <value>" to change one setting and "config token" to
store the remote server token without echoing it.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting.

Keys:
  author                       name recorded on new annotations
  storage.data_dir             directory of the local database
  server.addr                  listen address of "marginalia serve"
  remote.base_url              URL of a marginalia server
  remote.token                 bearer token for the server
  remote.timeout               request timeout, e.g. 10s
  remote.requests_per_second   client request rate
  remote.burst                 client request burst
  viewer.default_color         highlight colour, e.g. #fde047
  viewer.render_width          page width in pixels
  viewer.toolbar_width         selection toolbar width in pixels
  viewer.toolbar_margin        gap between toolbar and selection`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Store the remote server token",
	Long:  `Prompt for the bearer token sent to remote.base_url. Input is not echoed.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigToken,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configTokenCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	author := settings.Author
	if author == "" {
		author = "(not set)"
	}
	cmd.Printf("  Author: %s\n", author)
	cmd.Println()

	cmd.Println("[Storage]")
	dir := settings.DataDir
	if dir == "" {
		dir = "~/.marginalia/data"
	}
	cmd.Printf("  Data dir: %s\n", dir)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.ServerAddr)
	cmd.Println()

	cmd.Println("[Remote]")
	if settings.Remote.IsConfigured() {
		cmd.Printf("  Base URL: %s\n", settings.Remote.BaseURL)
		if settings.Remote.Token != "" {
			cmd.Printf("  Token: %s\n", maskToken(settings.Remote.Token))
		} else {
			cmd.Printf("  Token: (not set)\n")
		}
		cmd.Printf("  Timeout: %s\n", settings.Remote.Timeout)
		cmd.Printf("  Rate: %g req/s (burst %d)\n", settings.Remote.RequestsPerSecond, settings.Remote.Burst)
		cmd.Printf("  Status: configured\n")
	} else {
		cmd.Printf("  Status: not configured\n")
	}
	cmd.Println()

	cmd.Println("[Viewer]")
	cmd.Printf("  Default colour: %s\n", settings.Viewer.DefaultColor)
	cmd.Printf("  Render width: %d px\n", settings.Viewer.RenderWidth)
	cmd.Printf("  Toolbar: %g px wide, %g px above the selection\n",
		settings.Viewer.ToolbarWidth, settings.Viewer.ToolbarMargin)

	if err := settings.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.Contains(key, "token") {
		value = maskToken(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigToken(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	cmd.Print("Token: ")
	token := readPassword(cmd.InOrStdin())
	cmd.Println()

	if err := settingsService.SetToken(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	cmd.Printf("Token stored: %s\n", maskToken(token))
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
