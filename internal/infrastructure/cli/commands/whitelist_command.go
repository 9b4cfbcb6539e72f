package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/cli/helpers"
)

// NewWhitelistCommand creates the whitelist command with all subcommands
func NewWhitelistCommand(container *app.Container) *cobra.Command {
	whitelistCmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the domains the panel may appear on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listWhitelist(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	whitelistCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List whitelisted domains",
			RunE: func(cmd *cobra.Command, args []string) error {
				return listWhitelist(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "add <domain>[,<domain>...]",
			Short: "Whitelist one or more domains (glob patterns allowed)",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateWhitelist(cmd.Context(), cmd.OutOrStdout(), container, args, addDomain)
			},
		},
		&cobra.Command{
			Use:   "remove <domain>[,<domain>...]",
			Short: "Remove domains from the whitelist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateWhitelist(cmd.Context(), cmd.OutOrStdout(), container, args, removeDomain)
			},
		},
		&cobra.Command{
			Use:   "toggle <domain>",
			Short: "Whitelist a domain, or remove it if already present",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateWhitelist(cmd.Context(), cmd.OutOrStdout(), container, args, domain.ToggleDomain)
			},
		},
		&cobra.Command{
			Use:   "check <hostname>",
			Short: "Report whether the panel would appear on hostname",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return checkWhitelist(cmd.Context(), cmd.OutOrStdout(), container, args[0])
			},
		},
	)

	return whitelistCmd
}

func listWhitelist(ctx context.Context, out io.Writer, container *app.Container) error {
	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if len(settings.WhitelistedDomains) == 0 {
		fmt.Fprintln(out, MsgWhitelistEmpty)
		return nil
	}
	for _, d := range settings.WhitelistedDomains {
		fmt.Fprintln(out, d)
	}
	return nil
}

func updateWhitelist(ctx context.Context, out io.Writer, container *app.Container, args []string, apply func([]string, string) []string) error {
	entries := helpers.SplitAndTrimCSV(strings.Join(args, ","))
	if len(entries) == 0 {
		return errors.New(ErrWhitelistEntryEmpty)
	}

	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	domains := settings.WhitelistedDomains
	for _, entry := range entries {
		domains = apply(domains, strings.ToLower(entry))
	}
	settings.WhitelistedDomains = domains

	if err := helpers.SaveSettingsWithBackup(ctx, container.Settings, settings); err != nil {
		return err
	}
	return listWhitelist(ctx, out, container)
}

func checkWhitelist(ctx context.Context, out io.Writer, container *app.Container, hostname string) error {
	settings, err := container.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	switch {
	case !settings.Enabled():
		fmt.Fprintf(out, "%s: hidden (snapask is disabled)\n", hostname)
	case domain.IsWhitelisted(hostname, settings.WhitelistedDomains):
		fmt.Fprintf(out, "%s: whitelisted\n", hostname)
	default:
		fmt.Fprintf(out, "%s: not whitelisted\n", hostname)
	}
	return nil
}

func addDomain(domains []string, host string) []string {
	if domain.ContainsDomain(domains, host) {
		return domains
	}
	return append(domains, host)
}

func removeDomain(domains []string, host string) []string {
	if !domain.ContainsDomain(domains, host) {
		return domains
	}
	return domain.ToggleDomain(domains, host)
}
