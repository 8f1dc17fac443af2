package scoring

import (
	"context"
	"encoding/json"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	scoringsvc "github.com/chainscore-io/chainscore-backend/internal/scoring"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

// ScoreRequestedMessage asks the worker to score one party.
type ScoreRequestedMessage struct {
	PartyID   string `json:"party_id"`
	Version   string `json:"version,omitempty"`
	SkipCache bool   `json:"skip_cache,omitempty"`
}

// BatchRequestedMessage asks the worker to score a whole ingestion batch.
type BatchRequestedMessage struct {
	BatchID string `json:"batch_id"`
	Version string `json:"version,omitempty"`
}

type scorer interface {
	Score(ctx context.Context, params scoringsvc.ScoreParams) (*scoringsvc.ScoreResult, error)
	Batch(ctx context.Context, params scoringsvc.BatchParams) (*scoringsvc.BatchResult, error)
}

// Consumer drains the score and batch request subscriptions and drives the
// scoring pipeline.
type Consumer struct {
	svc      scorer
	scoreSub *gcppubsub.Subscriber
	batchSub *gcppubsub.Subscriber
	logg     *logger.Logger
}

// NewConsumer builds the worker-side consumer. Either subscription may be
// nil, which disables that stream.
func NewConsumer(svc scorer, scoreSub, batchSub *gcppubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, errors.New("scoring service is required")
	}
	if scoreSub == nil && batchSub == nil {
		return nil, errors.New("at least one subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{svc: svc, scoreSub: scoreSub, batchSub: batchSub, logg: logg}, nil
}

// Run receives from both subscriptions until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if c.scoreSub != nil {
		group.Go(func() error {
			return c.scoreSub.Receive(groupCtx, func(ctx context.Context, msg *gcppubsub.Message) {
				if c.ProcessScore(ctx, msg.Data) {
					msg.Ack()
					return
				}
				msg.Nack()
			})
		})
	}
	if c.batchSub != nil {
		group.Go(func() error {
			return c.batchSub.Receive(groupCtx, func(ctx context.Context, msg *gcppubsub.Message) {
				if c.ProcessBatch(ctx, msg.Data) {
					msg.Ack()
					return
				}
				msg.Nack()
			})
		})
	}
	return group.Wait()
}

// ProcessScore handles one score request payload. The return value is the
// ack decision: true acknowledges, false redelivers.
func (c *Consumer) ProcessScore(ctx context.Context, data []byte) bool {
	var req ScoreRequestedMessage
	if err := json.Unmarshal(data, &req); err != nil {
		c.logg.Error(ctx, "dropping malformed score request", err)
		return true
	}
	partyID, err := uuid.Parse(req.PartyID)
	if err != nil {
		c.logg.Error(ctx, "dropping score request with invalid party id", err)
		return true
	}

	logCtx := c.logg.WithPartyID(ctx, req.PartyID)
	_, err = c.svc.Score(logCtx, scoringsvc.ScoreParams{
		PartyID:   partyID,
		Version:   req.Version,
		SkipCache: req.SkipCache,
	})
	return c.ackDecision(logCtx, "score request failed", err)
}

// ProcessBatch handles one batch request payload.
func (c *Consumer) ProcessBatch(ctx context.Context, data []byte) bool {
	var req BatchRequestedMessage
	if err := json.Unmarshal(data, &req); err != nil {
		c.logg.Error(ctx, "dropping malformed batch request", err)
		return true
	}

	logCtx := c.logg.WithBatchID(ctx, req.BatchID)
	_, err := c.svc.Batch(logCtx, scoringsvc.BatchParams{
		BatchID: req.BatchID,
		Version: req.Version,
	})
	return c.ackDecision(logCtx, "batch request failed", err)
}

// ackDecision acks permanent failures so a poison message cannot wedge the
// subscription, and nacks retryable ones for redelivery.
func (c *Consumer) ackDecision(ctx context.Context, msg string, err error) bool {
	if err == nil {
		return true
	}
	c.logg.Error(ctx, msg, err)

	if typed := pkgerrors.As(err); typed != nil {
		return !pkgerrors.MetadataFor(typed.Code()).Retryable
	}
	return false
}
