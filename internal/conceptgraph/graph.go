package conceptgraph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is an immutable, validated concept DAG with precomputed indices.
// It is safe for concurrent use.
type Graph struct {
	subject    string
	version    string
	concepts   []Concept
	byID       map[string]int
	byLevel    map[Level][]Concept
	roots      []Concept
	dependents map[string][]string
	topoOrder  []Concept
}

// New validates the concepts and builds a Graph. Catalog order is preserved
// and is the default progression order.
func New(concepts []Concept) (*Graph, error) {
	if err := validateConcepts(concepts); err != nil {
		return nil, err
	}
	return buildGraph(concepts), nil
}

// buildGraph constructs the indices, including a deterministic topological
// order (Kahn's algorithm with a sorted queue).
func buildGraph(concepts []Concept) *Graph {
	gr := &Graph{
		concepts:   make([]Concept, len(concepts)),
		byID:       make(map[string]int, len(concepts)),
		byLevel:    make(map[Level][]Concept),
		dependents: make(map[string][]string),
	}

	for i, c := range concepts {
		c.Prerequisites = slices.Clone(c.Prerequisites)
		gr.concepts[i] = c
		gr.byID[c.ID] = i
		gr.byLevel[c.Level] = append(gr.byLevel[c.Level], c)
		if c.IsRoot() {
			gr.roots = append(gr.roots, c)
		}
		for _, p := range c.Prerequisites {
			gr.dependents[p] = append(gr.dependents[p], c.ID)
		}
	}

	inDegree := make(map[string]int, len(concepts))
	var queue []string
	for _, c := range gr.concepts {
		inDegree[c.ID] = len(c.Prerequisites)
		if len(c.Prerequisites) == 0 {
			queue = append(queue, c.ID)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		gr.topoOrder = append(gr.topoOrder, gr.concepts[gr.byID[id]])

		deps := slices.Clone(gr.dependents[id])
		sort.Strings(deps)
		for _, dep := range deps {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	return gr
}

// Subject is the catalog subject, e.g. "python".
func (g *Graph) Subject() string { return g.subject }

// Version is the catalog version string (semver).
func (g *Graph) Version() string { return g.version }

// Len returns the number of concepts.
func (g *Graph) Len() int { return len(g.concepts) }

// Concept returns a concept by ID.
func (g *Graph) Concept(id string) (Concept, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Concept{}, false
	}
	return g.concepts[i], true
}

// Lookup returns a concept by ID, or ErrUnknownConcept.
func (g *Graph) Lookup(id string) (Concept, error) {
	c, ok := g.Concept(id)
	if !ok {
		return Concept{}, fmt.Errorf("%w: %q", ErrUnknownConcept, id)
	}
	return c, nil
}

// Has reports whether id is a catalog concept.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Index returns the catalog position of id, or -1.
func (g *Graph) Index(id string) int {
	if i, ok := g.byID[id]; ok {
		return i
	}
	return -1
}

// Concepts returns all concepts in catalog order.
func (g *Graph) Concepts() []Concept {
	return slices.Clone(g.concepts)
}

// IDs returns all concept IDs in catalog order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.concepts))
	for i, c := range g.concepts {
		ids[i] = c.ID
	}
	return ids
}

// PrerequisitesOf returns the direct prerequisite IDs of a concept.
// Unknown IDs yield an empty slice.
func (g *Graph) PrerequisitesOf(id string) []string {
	c, ok := g.Concept(id)
	if !ok {
		return []string{}
	}
	return slices.Clone(c.Prerequisites)
}

// AllPrerequisitesSatisfied reports whether every prerequisite of id is in
// completed. Roots are vacuously satisfied; unknown IDs are not.
func (g *Graph) AllPrerequisitesSatisfied(id string, completed map[string]bool) bool {
	c, ok := g.Concept(id)
	if !ok {
		return false
	}
	for _, p := range c.Prerequisites {
		if !completed[p] {
			return false
		}
	}
	return true
}

// Dependents returns the concepts that directly require id.
func (g *Graph) Dependents(id string) []Concept {
	ids := g.dependents[id]
	out := make([]Concept, 0, len(ids))
	for _, d := range ids {
		out = append(out, g.concepts[g.byID[d]])
	}
	return out
}

// Roots returns concepts with no prerequisites, in catalog order.
func (g *Graph) Roots() []Concept {
	return slices.Clone(g.roots)
}

// ByLevel returns the concepts of one level in catalog order.
func (g *Graph) ByLevel(level Level) []Concept {
	return slices.Clone(g.byLevel[level])
}

// TopologicalOrder returns all concepts in a deterministic topological order.
func (g *Graph) TopologicalOrder() []Concept {
	return slices.Clone(g.topoOrder)
}

// Available returns concepts that are not completed and whose prerequisites
// are all completed, in catalog order.
func (g *Graph) Available(completed map[string]bool) []Concept {
	var out []Concept
	for _, c := range g.concepts {
		if !completed[c.ID] && g.AllPrerequisitesSatisfied(c.ID, completed) {
			out = append(out, c)
		}
	}
	return out
}

// Next returns the first available concept in catalog order.
func (g *Graph) Next(completed map[string]bool) (Concept, bool) {
	avail := g.Available(completed)
	if len(avail) == 0 {
		return Concept{}, false
	}
	return avail[0], true
}

// Before returns the IDs of every concept that precedes id in catalog order.
func (g *Graph) Before(id string) []string {
	i, ok := g.byID[id]
	if !ok {
		return nil
	}
	return g.IDs()[:i]
}
