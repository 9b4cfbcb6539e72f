package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/cli/helpers"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past analyses (newest 50 are kept)",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the full result of one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryEntry(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !helpers.PromptForConfirmation(cmd.OutOrStdout(), cmd.InOrStdin(), "Delete all history entries?") {
				fmt.Fprintln(cmd.OutOrStdout(), MsgAborted)
				return nil
			}
			if err := container.History.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.History.ExportJSON(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			return nil
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show token totals and question type distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// listHistoryEntries lists recent history entries
func listHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, limit int) error {
	items, err := container.History.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve history: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	shown := 0
	for i := len(items) - 1; i >= 0; i-- {
		if limit > 0 && shown >= limit {
			break
		}
		item := items[i]
		fmt.Fprintf(out, "%s | %s | %s | %s\n",
			formatTimestamp(item.Timestamp),
			item.ID,
			questionLabel(item.QuestionType),
			summarize(item.Result, 60))
		shown++
	}
	return nil
}

// showHistoryEntry prints one entry in full
func showHistoryEntry(ctx context.Context, out io.Writer, container *app.Container, id string) error {
	items, err := container.History.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve history: %w", err)
	}
	for _, item := range items {
		if item.ID != id {
			continue
		}
		fmt.Fprintf(out, "Time: %s\nType: %s\n", formatTimestamp(item.Timestamp), questionLabel(item.QuestionType))
		if item.AdditionalPrompt != "" {
			fmt.Fprintf(out, "Prompt: %s\n", item.AdditionalPrompt)
		}
		if item.Usage != nil {
			fmt.Fprintf(out, "Tokens: %d prompt / %d completion / %d total\n",
				item.Usage.PromptTokens, item.Usage.CompletionTokens, item.Usage.TotalTokens)
		}
		fmt.Fprintf(out, "\n%s\n", item.Result)
		return nil
	}
	return fmt.Errorf("history entry %s not found", id)
}

// showHistoryStats displays token totals and the question type mix
func showHistoryStats(ctx context.Context, out io.Writer, container *app.Container) error {
	items, err := container.History.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	stats := helpers.CalculateHistoryStatistics(items)
	fmt.Fprintf(out, "Entries: %d/%d\n", stats.Entries, domain.MaxHistoryItems)
	fmt.Fprintf(out, "Tokens: %d prompt / %d completion / %d total\n",
		stats.Usage.PromptTokens, stats.Usage.CompletionTokens, stats.Usage.TotalTokens)
	fmt.Fprintf(out, "Average per analysis: %.1f tokens\n", stats.AverageTotalTokens())
	fmt.Fprintln(out, "Question types:")
	for _, q := range stats.ByQuestion {
		fmt.Fprintf(out, "  %-16s %d\n", q.QuestionType.Label(), q.Count)
	}
	return nil
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format(TimestampFormat)
}

func questionLabel(q domain.QuestionType) string {
	if q == "" {
		q = domain.DefaultQuestionType
	}
	return q.Label()
}

func summarize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
