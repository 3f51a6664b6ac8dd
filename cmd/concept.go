package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/teaching"
)

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Inspect the concept catalog",
}

var conceptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List concepts in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(cmd)
		if err != nil {
			return err
		}

		concepts := g.TopologicalOrder()
		if raw, _ := cmd.Flags().GetString("level"); raw != "" {
			level, ok := conceptgraph.ParseLevel(raw)
			if !ok {
				return fmt.Errorf("unknown level %q", raw)
			}
			concepts = g.ByLevel(level)
		}

		fmt.Printf("%s catalog %s, %d concepts\n\n", g.Subject(), g.Version(), g.Len())
		fmt.Printf("%-22s  %-34s  %-13s  %4s  %5s  %s\n",
			"ID", "Title", "Level", "Diff", "Mins", "Prerequisites")
		fmt.Println(strings.Repeat("─", 100))
		for _, c := range concepts {
			prereqs := strings.Join(c.Prerequisites, ", ")
			if prereqs == "" {
				prereqs = "-"
			}
			fmt.Printf("%-22s  %-34s  %-13s  %4d  %5d  %s\n",
				c.ID, truncate(c.Title, 34), c.Level.Label(), c.Difficulty, c.EstimatedMins, prereqs)
		}
		return nil
	},
}

var conceptShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one concept with its neighbours and default lesson plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(cmd)
		if err != nil {
			return err
		}
		c, err := g.Lookup(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", c.Title, c.ID)
		fmt.Printf("Level:       %s\n", c.Level.Label())
		fmt.Printf("Difficulty:  %d\n", c.Difficulty)
		fmt.Printf("Estimated:   %d min\n", c.EstimatedMins)
		if c.Description != "" {
			fmt.Printf("\n%s\n", c.Description)
		}

		fmt.Println("\nPrerequisites:")
		if c.IsRoot() {
			fmt.Println("  (none)")
		}
		for _, id := range c.Prerequisites {
			p, _ := g.Concept(id)
			fmt.Printf("  - %s (%s)\n", p.Title, id)
		}

		fmt.Println("\nUnlocks:")
		deps := g.Dependents(c.ID)
		if len(deps) == 0 {
			fmt.Println("  (none)")
		}
		for _, d := range deps {
			fmt.Printf("  - %s (%s)\n", d.Title, d.ID)
		}

		plan := teaching.Plan(c, teaching.LearnerState{})
		fmt.Printf("\nLesson plan for a new learner (%d checkpoints):\n", plan.Checkpoints())
		for _, s := range plan.Sections {
			line := string(s.Type)
			switch {
			case s.Strategy != "":
				line += " / " + string(s.Strategy)
			case s.Type == teaching.SectionCheckpoint:
				line += fmt.Sprintf(" #%d", s.CheckpointIndex)
			}
			fmt.Printf("  %d. %s\n", s.Order+1, line)
		}
		return nil
	},
}

// loadGraph reads the configured catalog without touching any backend.
func loadGraph(cmd *cobra.Command) (*conceptgraph.Graph, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.LoadCatalog(cfg.CatalogPath)
}

func init() {
	conceptListCmd.Flags().String("level", "", "Only list concepts at this level (beginner, intermediate, confident)")

	conceptCmd.AddCommand(conceptListCmd)
	conceptCmd.AddCommand(conceptShowCmd)
}
