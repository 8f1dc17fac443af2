package extractors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/internal/network"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
)

type relationshipCounter interface {
	CountRelationships(ctx context.Context, partyID uuid.UUID, asOf *time.Time) (in int64, out int64, err error)
}

type downstreamTraverser interface {
	Downstream(ctx context.Context, root uuid.UUID, asOf *time.Time) (network.Result, error)
}

// NetworkExtractor derives features from the party's position in the
// relationship graph.
type NetworkExtractor struct {
	relationships relationshipCounter
	traverser     downstreamTraverser
}

// NewNetworkExtractor builds the relationship-graph extractor.
func NewNetworkExtractor(relationships relationshipCounter, traverser downstreamTraverser) (*NetworkExtractor, error) {
	if relationships == nil {
		return nil, errors.New("relationship counter is required")
	}
	if traverser == nil {
		return nil, errors.New("traverser is required")
	}
	return &NetworkExtractor{relationships: relationships, traverser: traverser}, nil
}

func (e *NetworkExtractor) SourceType() enums.SourceType {
	return enums.SourceTypeRelationships
}

func (e *NetworkExtractor) Extract(ctx context.Context, partyID uuid.UUID, asOf *time.Time) ([]Feature, error) {
	in, out, err := e.relationships.CountRelationships(ctx, partyID, asOf)
	if err != nil {
		return nil, fmt.Errorf("counting relationships: %w", err)
	}

	downstream, err := e.traverser.Downstream(ctx, partyID, asOf)
	if err != nil {
		return nil, fmt.Errorf("traversing network: %w", err)
	}

	// Balance is the symmetric ratio of the smaller degree to the larger;
	// a party with no edges at all sits at the neutral midpoint.
	balance := 0.5
	if in+out > 0 {
		smaller, larger := float64(in), float64(out)
		if smaller > larger {
			smaller, larger = larger, smaller
		}
		if larger > 0 {
			balance = smaller / larger
		}
	}

	source := e.SourceType()
	return []Feature{
		{Name: FeatureDirectCounterparties, Value: float64(in + out), Confidence: 1.0, Source: source},
		{Name: FeatureNetworkDepth, Value: float64(downstream.MaxDepth), Confidence: 0.9, Source: source},
		{Name: FeatureNetworkSize, Value: float64(downstream.Size()), Confidence: 0.9, Source: source},
		{Name: FeatureSupplierCount, Value: float64(in), Confidence: 1.0, Source: source},
		{Name: FeatureCustomerCount, Value: float64(out), Confidence: 1.0, Source: source},
		{Name: FeatureNetworkBalanceRatio, Value: balance, Confidence: 0.8, Source: source},
	}, nil
}
