package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ailp/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			events, err := s.Events().QueryLLMEvents(ctx, store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No LLM events found.")
				return nil
			}

			fmt.Printf("%-6s  %-19s  %-20s  %-28s  %-6s  %-6s  %-7s  %s\n",
				"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Println(strings.Repeat("─", 108))
			for _, e := range events {
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				fmt.Printf("%-6d  %-19s  %-20s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.Sequence,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(e.Purpose, 20),
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <seq>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[0], err)
		}

		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			e, err := s.Events().GetLLMEvent(ctx, seq)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("event %d not found", seq)
			}
			if err != nil {
				return err
			}

			sep := strings.Repeat("─", 60)
			fmt.Printf("Seq:       %d\n", e.Sequence)
			fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Provider:  %s\n", e.Provider)
			fmt.Printf("Model:     %s\n", e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			fmt.Printf("Cost:      %s\n", formatCost(e.CostUSD))
			fmt.Printf("Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Printf("Error:     %s\n", e.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				fmt.Println()
				fmt.Println(sep)
				fmt.Println(part.title)
				fmt.Println(sep)
				if part.body == "" {
					fmt.Println("(not captured)")
					continue
				}
				fmt.Println(part.body)
			}
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			byPurpose, err := s.Events().LLMUsageByPurpose(ctx)
			if err != nil {
				return err
			}
			if len(byPurpose) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}
			printUsage("Purpose", byPurpose)

			byModel, err := s.Events().LLMUsageByModel(ctx)
			if err != nil {
				return err
			}
			fmt.Println()
			printUsage("Model", byModel)
			return nil
		})
	},
}

func printUsage(keyTitle string, rows []store.Usage) {
	fmt.Printf("Usage by %s\n", keyTitle)
	fmt.Println(strings.Repeat("─", 86))
	fmt.Printf("%-28s  %6s  %10s  %10s  %8s  %12s\n",
		keyTitle, "Calls", "Input", "Output", "Avg Ms", "Cost")
	fmt.Println(strings.Repeat("─", 86))

	var calls, in, out int
	var cost float64
	for _, u := range rows {
		fmt.Printf("%-28s  %6d  %10d  %10d  %8.0f  %12s\n",
			truncate(u.Key, 28), u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs, formatCost(u.CostUSD))
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
		cost += u.CostUSD
	}
	fmt.Println(strings.Repeat("─", 86))
	fmt.Printf("%-28s  %6d  %10d  %10d  %8s  %12s\n", "TOTAL", calls, in, out, "", formatCost(cost))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	llmListCmd.Flags().String("purpose", "", "Only show events with this purpose")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
