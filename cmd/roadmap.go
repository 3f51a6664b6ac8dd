package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/store"
	"github.com/abhisek/ailp/internal/tui"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Show a learner roadmap",
	Long: "Derives a roadmap from --confidence and --completed, or loads the stored\n" +
		"roadmap of the learner registered under --user. Use --tui to browse it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("user")
		confRaw, _ := cmd.Flags().GetString("confidence")
		completedRaw, _ := cmd.Flags().GetStringSlice("completed")
		interactive, _ := cmd.Flags().GetBool("tui")

		if email != "" && (confRaw != "" || len(completedRaw) > 0) {
			return errors.New("--user cannot be combined with --confidence or --completed")
		}

		return withCapabilities(cmd, func(ctx context.Context, caps *app.Capabilities) error {
			var (
				rm    roadmap.Roadmap
				title = caps.Graph.Subject()
				err   error
			)
			if email != "" {
				rm, err = storedRoadmap(ctx, caps, email)
				title = title + " · " + email
			} else {
				rm, err = adHocRoadmap(caps.Engine, confRaw, completedRaw)
			}
			if err != nil {
				return err
			}

			if interactive {
				return tui.Run(caps.Graph, rm, title)
			}
			printRoadmap(title, rm)
			return nil
		})
	},
}

func storedRoadmap(ctx context.Context, caps *app.Capabilities, email string) (roadmap.Roadmap, error) {
	if !caps.Persistent() {
		return roadmap.Roadmap{}, errNoDatabase
	}
	u, err := caps.Store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return roadmap.Roadmap{}, fmt.Errorf("no learner registered as %s", email)
	}
	if err != nil {
		return roadmap.Roadmap{}, err
	}
	return caps.Learner.Roadmap(ctx, u.ID)
}

func adHocRoadmap(e *roadmap.Engine, confRaw string, completedRaw []string) (roadmap.Roadmap, error) {
	var conf map[string]float64
	if confRaw != "" {
		if err := json.Unmarshal([]byte(confRaw), &conf); err != nil {
			return roadmap.Roadmap{}, fmt.Errorf("parse --confidence: %w", err)
		}
	}
	completed := make(map[string]bool, len(completedRaw))
	for _, id := range completedRaw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !e.Graph().Has(id) {
			return roadmap.Roadmap{}, fmt.Errorf("--completed: unknown concept %q", id)
		}
		completed[id] = true
	}
	return e.Generate(conf, completed), nil
}

func printRoadmap(title string, rm roadmap.Roadmap) {
	p := rm.Progress()
	fmt.Printf("%s: %d/%d completed (%d%%)\n", title, p.Completed, p.Total, p.Percent)
	if next := rm.Next(); next != "" {
		fmt.Printf("Next up: %s\n", next)
	}
	fmt.Println()

	fmt.Printf("%-2s  %-22s  %-34s  %-13s  %-12s  %7s  %10s\n",
		"", "ID", "Title", "Level", "Status", "Mastery", "Confidence")
	fmt.Println(strings.Repeat("─", 112))
	for _, e := range rm.Concepts {
		marker := " "
		if e.ID == rm.Next() {
			marker = "→"
		}
		fmt.Printf("%-2s  %-22s  %-34s  %-13s  %-12s  %7.2f  %10.2f\n",
			marker, e.ID, truncate(e.Title, 34), e.Level.Label(), e.Status.Label(),
			e.MasteryScore, e.ConfidenceScore)
	}
}

func init() {
	roadmapCmd.Flags().String("user", "", "Email of a registered learner")
	roadmapCmd.Flags().String("confidence", "", `Confidence per concept as JSON, e.g. '{"variables":0.8}'`)
	roadmapCmd.Flags().StringSlice("completed", nil, "Completed concept IDs (comma-separated)")
	roadmapCmd.Flags().Bool("tui", false, "Browse the roadmap interactively")
}
