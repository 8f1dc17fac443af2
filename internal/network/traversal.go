package network

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
)

const DefaultMaxDepth = 5

// EdgeLister supplies outgoing edges for a party, optionally restricted to
// edges established at or before an as-of instant.
type EdgeLister interface {
	ListOutgoingRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]models.Relationship, error)
}

// Node is a party reached by the traversal with the depth at which it was
// first seen. BFS guarantees this is the shortest-path depth.
type Node struct {
	PartyID uuid.UUID
	Depth   int
}

// Edge is one traversed relationship.
type Edge struct {
	FromPartyID      uuid.UUID
	ToPartyID        uuid.UUID
	RelationshipType string
}

// Result is the reachable downstream network of a root party. The root
// itself is not included in Nodes.
type Result struct {
	Nodes    []Node
	Edges    []Edge
	MaxDepth int
}

// Size returns the number of distinct parties reached, excluding the root.
func (r Result) Size() int {
	return len(r.Nodes)
}

// Traverser walks the relationship graph breadth-first along outgoing edges.
type Traverser struct {
	edges    EdgeLister
	maxDepth int
}

// NewTraverser builds a traverser. maxDepth <= 0 falls back to the default.
func NewTraverser(edges EdgeLister, maxDepth int) (*Traverser, error) {
	if edges == nil {
		return nil, errors.New("edge lister is required")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Traverser{edges: edges, maxDepth: maxDepth}, nil
}

// Downstream returns every party reachable from root within the depth bound.
// Cycles and self-loops terminate via the visited set; a node is recorded at
// the depth it is first reached. Node order is deterministic for a fixed
// graph snapshot regardless of edge insertion order.
func (t *Traverser) Downstream(ctx context.Context, root uuid.UUID, asOf *time.Time) (Result, error) {
	visited := map[uuid.UUID]int{root: 0}
	frontier := []uuid.UUID{root}
	result := Result{}

	for depth := 0; depth < t.maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, current := range frontier {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			rels, err := t.edges.ListOutgoingRelationships(ctx, current, asOf)
			if err != nil {
				return Result{}, err
			}
			for _, rel := range rels {
				result.Edges = append(result.Edges, Edge{
					FromPartyID:      rel.FromPartyID,
					ToPartyID:        rel.ToPartyID,
					RelationshipType: rel.RelationshipType.String(),
				})
				if _, seen := visited[rel.ToPartyID]; seen {
					continue
				}
				visited[rel.ToPartyID] = depth + 1
				next = append(next, rel.ToPartyID)
			}
		}
		frontier = next
	}

	for id, d := range visited {
		if id == root && d == 0 {
			continue
		}
		result.Nodes = append(result.Nodes, Node{PartyID: id, Depth: d})
		if d > result.MaxDepth {
			result.MaxDepth = d
		}
	}
	sort.Slice(result.Nodes, func(i, j int) bool {
		if result.Nodes[i].Depth != result.Nodes[j].Depth {
			return result.Nodes[i].Depth < result.Nodes[j].Depth
		}
		return result.Nodes[i].PartyID.String() < result.Nodes[j].PartyID.String()
	})
	return result, nil
}
