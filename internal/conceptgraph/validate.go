package conceptgraph

import (
	"fmt"
	"strings"
)

// validateConcepts performs all structural checks on a concept set.
// Returns a combined error describing every problem found, or nil.
func validateConcepts(concepts []Concept) error {
	var errs []string

	if len(concepts) == 0 {
		return fmt.Errorf("concept graph validation failed:\n  catalog is empty")
	}

	idSet := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		if strings.TrimSpace(c.ID) == "" {
			errs = append(errs, fmt.Sprintf("concept %q has an empty ID", c.Title))
			continue
		}
		if idSet[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate concept ID: %q", c.ID))
		}
		idSet[c.ID] = true
	}

	for _, c := range concepts {
		if c.Level.Rank() < 0 {
			errs = append(errs, fmt.Sprintf("concept %q has unknown level %q", c.ID, c.Level))
		}
		if c.Difficulty < 1 || c.Difficulty > 5 {
			errs = append(errs, fmt.Sprintf("concept %q: difficulty must be in [1, 5], got %d", c.ID, c.Difficulty))
		}
		if c.EstimatedMins < 0 {
			errs = append(errs, fmt.Sprintf("concept %q: estimated minutes must be >= 0, got %d", c.ID, c.EstimatedMins))
		}
		for _, p := range c.Prerequisites {
			if p == c.ID {
				errs = append(errs, fmt.Sprintf("concept %q lists itself as a prerequisite", c.ID))
				continue
			}
			if !idSet[p] {
				errs = append(errs, fmt.Sprintf("concept %q references nonexistent prerequisite %q", c.ID, p))
			}
		}
	}

	// Cycle detection via Kahn's algorithm. Dangling edges are ignored here;
	// they were reported above.
	inDegree := make(map[string]int, len(concepts))
	adj := make(map[string][]string)
	for _, c := range concepts {
		for _, p := range c.Prerequisites {
			if idSet[p] {
				inDegree[c.ID]++
				adj[p] = append(adj[p], c.ID)
			}
		}
	}

	var queue []string
	for _, c := range concepts {
		if inDegree[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range adj[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited < len(idSet) {
		var cycle []string
		for _, c := range concepts {
			if inDegree[c.ID] > 0 {
				cycle = append(cycle, c.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving concepts: %s", strings.Join(cycle, ", ")))
	}

	hasRoot := false
	for _, c := range concepts {
		if c.IsRoot() {
			hasRoot = true
			break
		}
	}
	if !hasRoot {
		errs = append(errs, "no root concepts found (at least one concept must have no prerequisites)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("concept graph validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
