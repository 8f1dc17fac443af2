package pubsub

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

const (
	EventScoreComputed  = "score.computed"
	EventBatchCompleted = "batch.completed"

	defaultPublishTimeout = 10 * time.Second
)

// ScoreComputedEvent is emitted after each successful score computation.
type ScoreComputedEvent struct {
	PartyID          string    `json:"party_id"`
	Score            int       `json:"score"`
	ScoreBand        string    `json:"score_band"`
	Decision         string    `json:"decision"`
	ScorecardVersion string    `json:"scorecard_version"`
	ScoreRequestID   string    `json:"score_request_id"`
	ComputedAt       time.Time `json:"computed_at"`
}

// BatchCompletedEvent is emitted when a batch scoring run finishes.
type BatchCompletedEvent struct {
	BatchID     string    `json:"batch_id"`
	Total       int       `json:"total"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

// Events publishes engine lifecycle events. A nil *Events is a no-op so event
// emission stays optional in deployments without Pub/Sub.
type Events struct {
	score   publisher
	batch   publisher
	logg    *logger.Logger
	timeout time.Duration
}

// NewEvents wires the score and batch publishers from a connected client.
// Returns nil when client is nil, which disables publishing.
func NewEvents(client *Client, logg *logger.Logger) *Events {
	if client == nil {
		return nil
	}
	e := &Events{logg: logg, timeout: defaultPublishTimeout}
	if client.cfg.PublishTimeout > 0 {
		e.timeout = client.cfg.PublishTimeout
	}
	if p := client.ScorePublisher(); p != nil {
		e.score = gcpPublisher{inner: p}
	}
	if p := client.BatchPublisher(); p != nil {
		e.batch = gcpPublisher{inner: p}
	}
	return e
}

// ScoreComputed publishes a score computed event. Failures are logged, never
// returned; scoring must not fail because the event bus is down.
func (e *Events) ScoreComputed(ctx context.Context, event ScoreComputedEvent) {
	if e == nil {
		return
	}
	e.publish(ctx, e.score, EventScoreComputed, event)
}

// BatchCompleted publishes a batch completed event.
func (e *Events) BatchCompleted(ctx context.Context, event BatchCompletedEvent) {
	if e == nil {
		return
	}
	e.publish(ctx, e.batch, EventBatchCompleted, event)
}

func (e *Events) publish(ctx context.Context, pub publisher, eventType string, payload any) {
	if pub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.logError(ctx, eventType, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	result := pub.Publish(pubCtx, &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": eventType},
	})
	if _, err := result.Get(pubCtx); err != nil {
		e.logError(ctx, eventType, err)
	}
}

func (e *Events) logError(ctx context.Context, eventType string, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{"event_type": eventType})
	e.logg.Error(ctx, "publishing event failed", err)
}
