// Package main implements livepane, a terminal studio for live HTML, CSS and
// JavaScript previews with dockable, detachable windows.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/theme"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode    bool
	workspaceDir string
	exportDir    string
	noPreview    bool
	themeName    string
	asciiOnly    bool
	borderStyle  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "livepane",
		Short: "Live HTML/CSS/JS preview studio",
		Long: `livepane - live web preview studio for the terminal

Edit markup, styles and scripts side by side with a live preview. Both
panels can be minimized or detached into floating windows and dragged by
their title bar. The composed page is also served to browsers, where it
runs inside a sandboxed frame and reloads on every edit.`,
		Example: `  # Run with the starter page
  livepane

  # Edit files in a directory with any editor; the preview follows
  livepane --workspace ./site

  # Run without the browser preview server
  livepane --no-preview

  # Serve the preview of a directory without the terminal UI
  livepane serve --workspace ./site

  # Write webpage.html, styles.css and script.js
  livepane export --workspace ./site --out ./dist`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Directory holding index.html, style.css and script.js")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme to use (e.g., dracula, nord, tokyonight)")
	rootCmd.PersistentFlags().BoolVar(&asciiOnly, "ascii-only", false, "Draw borders with ASCII characters only")
	rootCmd.PersistentFlags().StringVar(&borderStyle, "border-style", "", "Window border style: rounded, normal, thick, double, hidden")
	rootCmd.Flags().StringVar(&exportDir, "export-dir", ".", "Directory the save-* console commands write to")
	rootCmd.Flags().BoolVar(&noPreview, "no-preview", false, "Do not start the browser preview server")

	// Serve command
	var serveHost, servePort string
	var serveMaxConnections int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser preview without the terminal UI",
		Long: `Serve the browser preview without the terminal UI

The workspace directory is watched; every save made by an external editor
is recomposed and pushed to connected browsers.`,
		Example: `  # Preview a directory on the default port
  livepane serve --workspace ./site

  # Bind to all interfaces
  livepane serve --workspace ./site --host 0.0.0.0 --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveHost, servePort, serveMaxConnections)
		},
	}
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Preview server host (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Preview server port (default from config)")
	serveCmd.Flags().IntVar(&serveMaxConnections, "max-connections", 0, "Maximum concurrent browsers (0 = config value)")

	// Export command
	var exportOut, exportKind string
	var exportStdout bool
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the composed page and its sources",
		Long: `Write webpage.html, styles.css and script.js

Without --workspace the starter page is exported. With --stdout a single
file is written to standard output instead.`,
		Example: `  # Export a workspace
  livepane export --workspace ./site --out ./dist

  # Print the composed document
  livepane export --workspace ./site --stdout

  # Print only the stylesheet
  livepane export --stdout --kind css`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(exportOut, exportKind, exportStdout)
		},
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write to standard output")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "With --stdout: html, css or js (default: the composed page)")

	// SSH command
	var sshPort, sshHost, sshKeyPath string
	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "Run livepane as SSH server",
		Long: `Run livepane as an SSH server

Every connection gets its own studio. The browser preview server, when
enabled, shows the most recent edit from any session. The server will
generate a host key automatically if not specified.`,
		Example: `  # Start SSH server on default port
  livepane ssh

  # Start on custom port
  livepane ssh --port 2222

  # Specify custom host key
  livepane ssh --key-path /path/to/host_key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSSHServer(cmd.Context(), sshHost, sshPort, sshKeyPath)
		},
	}
	sshCmd.Flags().StringVar(&sshPort, "port", "2222", "SSH server port")
	sshCmd.Flags().StringVar(&sshHost, "host", "localhost", "SSH server host")
	sshCmd.Flags().StringVar(&sshKeyPath, "key-path", "", "Path to SSH host key (auto-generated if not specified)")

	// Web command
	var webPort, webHost string
	var webReadOnly bool
	var webMaxConnections int
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the studio in a browser terminal",
		Long: `Serve the livepane terminal UI through the browser

Powered by sip (github.com/Gaurav-Gosain/sip). This serves the studio
itself; the page preview is served by the preview server as usual.`,
		Example: `  # Start on the default port (7681)
  livepane web

  # View only
  livepane web --read-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebServer(cmd.Context(), webHost, webPort, webReadOnly, webMaxConnections)
		},
	}
	webCmd.Flags().StringVar(&webPort, "port", "7681", "Web server port")
	webCmd.Flags().StringVar(&webHost, "host", "localhost", "Web server host")
	webCmd.Flags().BoolVar(&webReadOnly, "read-only", false, "Disable input from clients (view only)")
	webCmd.Flags().IntVar(&webMaxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")

	// Config command group
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage livepane configuration",
		Long:  `Manage livepane configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath()
		},
	}

	configEditCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		Long: `Open the livepane configuration file in your default editor

The editor is determined by checking $EDITOR, $VISUAL, or common editors
like vim, vi, nano, and emacs in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigFile()
		},
	}

	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the livepane configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigToDefaults()
		},
	}

	configCmd.AddCommand(configPathCmd, configEditCmd, configResetCmd)

	// Keybinds command group
	keybindsCmd := &cobra.Command{
		Use:     "keybinds",
		Aliases: []string{"keys", "kb"},
		Short:   "View keybinding configuration",
	}

	keybindsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all keybindings",
		Long:  `Display all configured keybindings in a formatted table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listKeybindings()
		},
	}

	keybindsCmd.AddCommand(keybindsListCmd)

	rootCmd.AddCommand(serveCmd, exportCmd, sshCmd, webCmd, configCmd, keybindsCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// printConfigPath prints the config file path
func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// editConfigFile opens the config file in $EDITOR, writing the defaults
// first when there is no file yet.
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "vi", "nano", "emacs"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return errors.New("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Warning: This will overwrite your existing configuration at:\n")
		fmt.Printf("  %s\n\n", configPath)
		fmt.Printf("Are you sure you want to reset to defaults? (yes/no): ")

		var response string
		_, _ = fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "yes" && response != "y" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	if err := writeDefaultConfig(configPath); err != nil {
		return err
	}

	fmt.Printf("Configuration reset to defaults\n")
	fmt.Printf("  Location: %s\n", configPath)
	fmt.Println("\nYou can customize it with: livepane config edit")
	return nil
}

func writeDefaultConfig(path string) error {
	data, err := config.Encode(config.DefaultConfig())
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("# livepane configuration\n")
	sb.WriteString("# Keybindings map an action to the keys that trigger it.\n")
	sb.WriteString("# Multiple keys can be bound to the same action.\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + path + "\n\n")
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// listKeybindings prints all configured keybindings in a pretty table
func listKeybindings() error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Using default keybindings...")
		userConfig = config.DefaultConfig()
	}
	if err := theme.Initialize(userConfig.Appearance.Theme, userConfig.Appearance.DarkMode); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	printKeybindingsTable(config.NewKeybindRegistry(userConfig))
	return nil
}

func printKeybindingsTable(registry *config.KeybindRegistry) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.CLITableHeader()).
		Padding(0, 1)
	keyStyle := lipgloss.NewStyle().
		Foreground(theme.CLITableKey()).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	fmt.Println()
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableHeader()).Render("livepane Keybindings"))
	fmt.Println()

	for _, section := range config.GetKeybindings(registry) {
		rows := make([][]string, 0, len(section.Bindings))
		for _, b := range section.Bindings {
			rows = append(rows, []string{b.Key, b.Description})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.CLITableBorder())).
			Headers("Keys", "Action").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case col == 0:
					return keyStyle
				}
				return cellStyle
			})

		fmt.Println(lipgloss.NewStyle().Bold(true).Render(section.Title))
		fmt.Println(t.Render())
		fmt.Println()
	}

	note := lipgloss.NewStyle().
		Foreground(theme.CLITableDim()).
		Italic(true).
		Render("Note: while the help overlay is open, any key closes it.")
	fmt.Println(note)
	fmt.Println()
}
