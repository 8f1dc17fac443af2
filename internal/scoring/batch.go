package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/pubsub"
)

// BatchParams selects a batch scoring run.
type BatchParams struct {
	BatchID string
	Version string
}

// BatchItemError records one party that could not be scored.
type BatchItemError struct {
	PartyID uuid.UUID `json:"party_id"`
	Error   string    `json:"error"`
}

// BatchResult summarizes a batch run. A batch always runs to completion;
// failures are reported per party, never by aborting the rest.
type BatchResult struct {
	BatchID string           `json:"batch_id"`
	Total   int              `json:"total"`
	Scored  int              `json:"scored"`
	Failed  int              `json:"failed"`
	Errors  []BatchItemError `json:"errors,omitempty"`
}

// Batch scores every party ingested under a batch ID through a bounded
// worker pool.
func (s *Service) Batch(ctx context.Context, params BatchParams) (*BatchResult, error) {
	if params.BatchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch_id is required")
	}
	if s.parties == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "batch scoring is not wired")
	}
	ctx = s.logg.WithBatchID(ctx, params.BatchID)

	partyIDs, err := s.parties.ListPartyIDsByBatch(ctx, params.BatchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing batch parties")
	}

	result := &BatchResult{BatchID: params.BatchID, Total: len(partyIDs)}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, partyID := range partyIDs {
		group.Go(func() error {
			_, scoreErr := s.Score(groupCtx, ScoreParams{
				PartyID:   partyID,
				Version:   params.Version,
				SkipCache: true,
			})

			mu.Lock()
			defer mu.Unlock()
			if scoreErr != nil {
				result.Failed++
				result.Errors = append(result.Errors, BatchItemError{
					PartyID: partyID,
					Error:   scoreErr.Error(),
				})
				return nil
			}
			result.Scored++
			return nil
		})
	}
	_ = group.Wait()

	if s.events != nil {
		s.events.BatchCompleted(ctx, pubsub.BatchCompletedEvent{
			BatchID:     params.BatchID,
			Total:       result.Total,
			Succeeded:   result.Scored,
			Failed:      result.Failed,
			CompletedAt: time.Now().UTC(),
		})
	}
	s.logg.Info(ctx, "batch scoring completed")
	return result, nil
}
