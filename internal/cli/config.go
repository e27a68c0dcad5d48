package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/config"
)

const configHeader = "# Skyplay Configuration\n# https://github.com/tessro/skyplay\n\n"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindList
)

// settableKeys lists the keys `config set` accepts and their value types.
var settableKeys = map[string]valueKind{
	"spotify.client_id":           kindString,
	"spotify.client_secret":       kindString,
	"spotify.redirect_uri":        kindString,
	"spotify.scopes":              kindList,
	"spotify.token_path":          kindString,
	"spotify.market":              kindString,
	"spotify.validate_device_ids": kindBool,
	"weather.geocode_url":         kindString,
	"weather.forecast_url":        kindString,
	"weather.forecast":            kindString,
	"weather.language":            kindString,
	"weather.count":               kindInt,
	"weather.timeout":             kindInt,
	"server.name":                 kindString,
	"server.instructions":         kindString,
	"log.level":                   kindString,
	"log.file":                    kindString,
	"log.format":                  kindString,
}

var configInitDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing skyplay configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file. On a terminal a short form asks for
the Spotify credentials and forecast style; --defaults skips it.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
` + keyList() + `
Examples:
  skyplay config set spotify.client_id abc123
  skyplay config set weather.forecast three_day
  skyplay config set spotify.validate_device_ids true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitDefaults, "defaults", false, "write defaults without prompting")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func keyList() string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s\n", k)
	}
	return b.String()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.Spotify.ClientSecret != "" {
		shown.Spotify.ClientSecret = "********"
	}

	if JSONOutput() {
		return printJSON(shown)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(shown)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'skyplay config init' first", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	newCfg := config.Default()
	interactive := !configInitDefaults && !JSONOutput() && isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		if err := promptInitialConfig(newCfg); err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
	}

	if err := newCfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := writeConfigFile(configPath, newCfg); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	if newCfg.Spotify.ClientID == "" {
		fmt.Println("  1. Set your Spotify client ID with 'skyplay config set spotify.client_id <id>'")
		fmt.Println("  2. Run 'skyplay auth login' to authenticate with Spotify")
	} else {
		fmt.Println("  1. Run 'skyplay auth login' to authenticate with Spotify")
	}
	return nil
}

func promptInitialConfig(c *config.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Spotify client ID").
				Description("From your app at developer.spotify.com. Leave empty to set it later.").
				Value(&c.Spotify.ClientID),
			huh.NewInput().
				Title("Spotify client secret").
				Description("Optional. Without a secret the PKCE flow is used.").
				EchoMode(huh.EchoModePassword).
				Value(&c.Spotify.ClientSecret),
			huh.NewInput().
				Title("Redirect URI").
				Description("Must match the redirect URI registered for the app.").
				Value(&c.Spotify.RedirectURI),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Weather forecast").
				Options(
					huh.NewOption("Daily high and low", config.ForecastDaily),
					huh.NewOption("Three-day hourly", config.ForecastThreeDay),
				).
				Value(&c.Weather.Forecast),
		),
	)
	return form.Run()
}

func writeConfigFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'skyplay config init' first", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	rawConfig := map[string]any{}
	if _, err := toml.Decode(string(data), &rawConfig); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := setConfigValue(rawConfig, key, value); err != nil {
		return err
	}
	if err := validateRaw(rawConfig); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := writeConfigFile(configPath, rawConfig); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// setConfigValue stores value under a "section.field" key in a decoded TOML
// document, converting it to the key's type.
func setConfigValue(raw map[string]any, key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown key %q. Supported keys:\n%s", key, keyList())
	}
	section, field, _ := strings.Cut(key, ".")

	var typed any
	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("value must be an integer for %s", key)
		}
		typed = i
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("value must be true or false for %s", key)
		}
		typed = b
	case kindList:
		typed = strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		typed = value
	}

	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		raw[section] = sectionMap
	}
	sectionMap[field] = typed
	return nil
}

// validateRaw round-trips a raw document through the typed config.
func validateRaw(raw map[string]any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return err
	}
	var c config.Config
	if _, err := toml.Decode(buf.String(), &c); err != nil {
		return err
	}
	return c.Validate()
}
