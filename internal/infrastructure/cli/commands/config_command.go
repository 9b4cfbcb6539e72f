package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/snapask/assets"
	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/cli/helpers"
)

const envKeyEditor = "EDITOR"

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change snapask settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd.Context(), cmd.OutOrStdout(), container, false)
		},
	}

	configCmd.AddCommand(
		newConfigShowCommand(container),
		newConfigGetCommand(container),
		newConfigSetCommand(container),
		newConfigPathCommand(container),
		newConfigEditCommand(container),
		newConfigResetCommand(container),
		newConfigDiffCommand(container),
	)

	return configCmd
}

// newConfigShowCommand creates the 'config show' subcommand
func newConfigShowCommand(container *app.Container) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show settings (API key masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd.Context(), cmd.OutOrStdout(), container, reveal)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the API key unmasked")
	return cmd
}

// newConfigGetCommand creates the 'config get' subcommand
func newConfigGetCommand(container *app.Container) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific settings value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" && len(args) > 0 {
				key = args[0]
			}
			if key == "" {
				return errors.New(ErrKeyRequired)
			}
			return getSettingsValue(cmd.Context(), cmd.OutOrStdout(), container, key)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Key (e.g., model, is_enabled)")
	return cmd
}

// newConfigSetCommand creates the 'config set' subcommand
func newConfigSetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings value (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSettingsValue(cmd.Context(), container, args[0], strings.Join(args[1:], " "))
		},
	}
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.Settings.Path())
			return nil
		},
	}
}

// newConfigEditCommand creates the 'config edit' subcommand
func newConfigEditCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit settings in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editSettingsInEditor(cmd.Context(), container)
		},
	}
}

// newConfigResetCommand creates the 'config reset' subcommand
func newConfigResetCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults (a backup is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !helpers.PromptForConfirmation(cmd.OutOrStdout(), cmd.InOrStdin(), "Reset settings, including the API key?") {
				fmt.Fprintln(cmd.OutOrStdout(), MsgAborted)
				return nil
			}
			defaults, err := defaultSettings()
			if err != nil {
				return err
			}
			if err := helpers.SaveSettingsWithBackup(cmd.Context(), container.Settings, defaults); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings reset at %s\n", container.Settings.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// newConfigDiffCommand creates the 'config diff' subcommand
func newConfigDiffCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show diff versus default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettingsDiff(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// showSettings prints the settings as YAML
func showSettings(ctx context.Context, out io.Writer, container *app.Container, reveal bool) error {
	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !reveal {
		settings.APIKey = helpers.MaskAPIKey(settings.APIKey)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

// getSettingsValue prints one settings value
func getSettingsValue(ctx context.Context, out io.Writer, container *app.Container, keyPath string) error {
	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settingsMap, err := helpers.SettingsToMap(settings)
	if err != nil {
		return err
	}

	value, found := helpers.TraverseNestedMap(settingsMap, strings.Split(keyPath, "."))
	if !found {
		return fmt.Errorf("key %s not found in settings", keyPath)
	}
	if keyPath == "api_key" {
		value = helpers.MaskAPIKey(settings.APIKey)
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

// setSettingsValue updates one settings value
func setSettingsValue(ctx context.Context, container *app.Container, keyPath string, value string) error {
	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settingsMap, err := helpers.SettingsToMap(settings)
	if err != nil {
		return err
	}

	if _, known := settingsMap[strings.Split(keyPath, ".")[0]]; !known {
		return fmt.Errorf("unknown settings key %s", keyPath)
	}

	var parsed interface{} = value
	if keyPath != "api_key" {
		if parsed, err = helpers.ParseYAMLValue(value); err != nil {
			return fmt.Errorf("failed to parse value: %w", err)
		}
	}
	if !helpers.SetNestedMapValue(settingsMap, strings.Split(keyPath, "."), parsed) {
		return fmt.Errorf("unable to set key %s", keyPath)
	}

	updated, err := helpers.MapToSettings(settingsMap)
	if err != nil {
		return err
	}
	return helpers.SaveSettingsWithBackup(ctx, container.Settings, updated)
}

// editSettingsInEditor opens the settings file in the user's editor and
// validates the result
func editSettingsInEditor(ctx context.Context, container *app.Container) error {
	if _, err := container.Settings.Backup(); err != nil {
		return fmt.Errorf("failed to create settings backup: %w", err)
	}

	editorCommand := getEditorCommand()
	cmd := exec.CommandContext(ctx, editorCommand, container.Settings.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editorCommand, err)
	}

	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("edited settings are invalid (backup kept at %s.bak): %w", container.Settings.Path(), err)
	}
	return container.Settings.Save(ctx, settings)
}

// showSettingsDiff shows the difference between current and default settings
func showSettingsDiff(ctx context.Context, out io.Writer, container *app.Container) error {
	current, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current settings: %w", err)
	}
	defaults, err := defaultSettings()
	if err != nil {
		return err
	}

	current.APIKey = helpers.MaskAPIKey(current.APIKey)
	defaults.APIKey = helpers.MaskAPIKey(defaults.APIKey)
	diff := cmp.Diff(defaults.Normalize(), current)
	if diff == "" {
		fmt.Fprintln(out, MsgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(out, diff)
	return nil
}

func defaultSettings() (domain.Settings, error) {
	var settings domain.Settings
	if err := yaml.Unmarshal(assets.DefaultSettingsYAML, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to parse default settings: %w", err)
	}
	return settings, nil
}

// getEditorCommand retrieves the editor command from environment or returns default
func getEditorCommand() string {
	if editor := os.Getenv(envKeyEditor); editor != "" {
		return editor
	}
	return DefaultEditorCommand
}
