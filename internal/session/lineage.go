package session

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// lineageVertex is one entry in a session's step-lineage graph: a vertex
// per step number, with an edge back to whichever step it revises or
// branches from. Grounded on the teacher's internal/modes/graph.go
// Graph-of-Thoughts controller, narrowed from a full vertex/edge model
// (confidence, depth, key points) down to the one thing planner and
// traced_reasoning need: "what does this step descend from".
type lineageVertex struct {
	StepNumber int
	BranchID   string
	IsRevision bool
}

func lineageHash(v lineageVertex) int { return v.StepNumber }

// LineageGraph is a per-session directed graph of step revisions and
// branches, so planner's branch/revision bookkeeping (spec §4.5) is a
// graph query (ancestors, siblings) instead of ad hoc slice scanning.
type LineageGraph struct {
	g graph.Graph[int, lineageVertex]
}

// NewLineageGraph creates an empty lineage graph for one session.
func NewLineageGraph() *LineageGraph {
	return &LineageGraph{g: graph.New(lineageHash, graph.Directed(), graph.PreventCycles())}
}

// AddStep records stepNumber in the graph. If revisesOrBranchesFrom is
// non-zero, an edge from the ancestor to this step is added.
func (l *LineageGraph) AddStep(stepNumber int, branchID string, revisesOrBranchesFrom int, isRevision bool) error {
	v := lineageVertex{StepNumber: stepNumber, BranchID: branchID, IsRevision: isRevision}
	if err := l.g.AddVertex(v); err != nil {
		return fmt.Errorf("add lineage vertex %d: %w", stepNumber, err)
	}
	if revisesOrBranchesFrom <= 0 {
		return nil
	}
	if err := l.g.AddEdge(revisesOrBranchesFrom, stepNumber); err != nil {
		return fmt.Errorf("link step %d to ancestor %d: %w", stepNumber, revisesOrBranchesFrom, err)
	}
	return nil
}

// Ancestors returns every step that stepNumber descends from, nearest
// first, walking revises/branches-from edges back to the root.
func (l *LineageGraph) Ancestors(stepNumber int) ([]int, error) {
	preds, err := l.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("build predecessor map: %w", err)
	}
	var out []int
	cur := stepNumber
	for {
		edges, ok := preds[cur]
		if !ok || len(edges) == 0 {
			break
		}
		var parent int
		found := false
		for from := range edges {
			parent = from
			found = true
			break
		}
		if !found {
			break
		}
		out = append(out, parent)
		cur = parent
	}
	return out, nil
}

// Siblings returns every step sharing stepNumber's branch id, excluding
// stepNumber itself, used to render a branch's full chain.
func (l *LineageGraph) Siblings(stepNumber int, branchID string) ([]int, error) {
	adjacency, err := l.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("build adjacency map: %w", err)
	}
	var out []int
	for id := range adjacency {
		v, err := l.g.Vertex(id)
		if err != nil {
			continue
		}
		if v.StepNumber != stepNumber && v.BranchID == branchID && branchID != "" {
			out = append(out, v.StepNumber)
		}
	}
	return out, nil
}
