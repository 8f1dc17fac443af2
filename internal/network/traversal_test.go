package network

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type memoryEdges struct {
	outgoing map[uuid.UUID][]models.Relationship
}

func (m *memoryEdges) ListOutgoingRelationships(_ context.Context, partyID uuid.UUID, asOf *time.Time) ([]models.Relationship, error) {
	var rels []models.Relationship
	for _, rel := range m.outgoing[partyID] {
		if asOf != nil && rel.EstablishedDate.After(*asOf) {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func edge(from, to uuid.UUID, established time.Time) models.Relationship {
	return models.Relationship{
		ID:               uuid.New(),
		FromPartyID:      from,
		ToPartyID:        to,
		RelationshipType: enums.RelationshipTypeSuppliesTo,
		EstablishedDate:  established,
	}
}

func TestDownstreamChainDepths(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	edges := &memoryEdges{outgoing: map[uuid.UUID][]models.Relationship{
		a: {edge(a, b, now)},
		b: {edge(b, c, now)},
	}}

	traverser, err := NewTraverser(edges, 5)
	require.NoError(t, err)

	result, err := traverser.Downstream(context.Background(), a, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Size())
	require.Equal(t, 2, result.MaxDepth)
	require.Equal(t, 1, result.Nodes[0].Depth)
	require.Equal(t, b, result.Nodes[0].PartyID)
	require.Equal(t, 2, result.Nodes[1].Depth)
}

func TestDownstreamTerminatesOnCycleAndSelfLoop(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now().UTC()
	edges := &memoryEdges{outgoing: map[uuid.UUID][]models.Relationship{
		a: {edge(a, a, now), edge(a, b, now)},
		b: {edge(b, a, now)},
	}}

	traverser, err := NewTraverser(edges, 5)
	require.NoError(t, err)

	result, err := traverser.Downstream(context.Background(), a, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Size())
	require.Equal(t, 1, result.MaxDepth)
}

func TestDownstreamRespectsMaxDepth(t *testing.T) {
	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
	}
	now := time.Now().UTC()
	outgoing := map[uuid.UUID][]models.Relationship{}
	for i := 0; i+1 < len(ids); i++ {
		outgoing[ids[i]] = []models.Relationship{edge(ids[i], ids[i+1], now)}
	}
	edgesSource := &memoryEdges{outgoing: outgoing}

	traverser, err := NewTraverser(edgesSource, 3)
	require.NoError(t, err)

	result, err := traverser.Downstream(context.Background(), ids[0], nil)
	require.NoError(t, err)
	require.Equal(t, 3, result.Size())
	require.Equal(t, 3, result.MaxDepth)
}

func TestDownstreamShortestPathDepthWins(t *testing.T) {
	// a -> b -> c and a -> c directly; c must be reported at depth 1
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	edges := &memoryEdges{outgoing: map[uuid.UUID][]models.Relationship{
		a: {edge(a, b, now), edge(a, c, now)},
		b: {edge(b, c, now)},
	}}

	traverser, err := NewTraverser(edges, 5)
	require.NoError(t, err)

	result, err := traverser.Downstream(context.Background(), a, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.MaxDepth)
	for _, node := range result.Nodes {
		require.Equal(t, 1, node.Depth)
	}
}

func TestDownstreamAsOfFiltersEdges(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	edges := &memoryEdges{outgoing: map[uuid.UUID][]models.Relationship{
		a: {edge(a, b, early), edge(a, c, late)},
	}}

	traverser, err := NewTraverser(edges, 5)
	require.NoError(t, err)

	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := traverser.Downstream(context.Background(), a, &asOf)
	require.NoError(t, err)
	require.Equal(t, 1, result.Size())
	require.Equal(t, b, result.Nodes[0].PartyID)
}

func TestDownstreamNoRelationships(t *testing.T) {
	a := uuid.New()
	edges := &memoryEdges{outgoing: map[uuid.UUID][]models.Relationship{}}

	traverser, err := NewTraverser(edges, 0)
	require.NoError(t, err)

	result, err := traverser.Downstream(context.Background(), a, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.Size())
	require.Equal(t, 0, result.MaxDepth)
	require.Empty(t, result.Edges)
}
