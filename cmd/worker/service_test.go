package main

import (
	"context"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/require"

	scoringconsumer "github.com/chainscore-io/chainscore-backend/internal/consumers/scoring"
	"github.com/chainscore-io/chainscore-backend/internal/scoring"
	"github.com/chainscore-io/chainscore-backend/pkg/config"
	"github.com/chainscore-io/chainscore-backend/pkg/db"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/pubsub"
)

type noopScorer struct{}

func (noopScorer) Score(ctx context.Context, params scoring.ScoreParams) (*scoring.ScoreResult, error) {
	return &scoring.ScoreResult{}, nil
}

func (noopScorer) Batch(ctx context.Context, params scoring.BatchParams) (*scoring.BatchResult, error) {
	return &scoring.BatchResult{}, nil
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
	consumer, err := scoringconsumer.NewConsumer(noopScorer{}, &gcppubsub.Subscriber{}, nil, logg)
	require.NoError(t, err)

	base := ServiceParams{
		Config:   &config.Config{},
		Logger:   logg,
		DB:       &db.Client{},
		PubSub:   &pubsub.Client{},
		Consumer: consumer,
	}

	svc, err := NewService(base)
	require.NoError(t, err)
	require.NotNil(t, svc)

	cases := []struct {
		name   string
		mutate func(*ServiceParams)
		errMsg string
	}{
		{"missing config", func(p *ServiceParams) { p.Config = nil }, "config is required"},
		{"missing logger", func(p *ServiceParams) { p.Logger = nil }, "logger is required"},
		{"missing db", func(p *ServiceParams) { p.DB = nil }, "database client is required"},
		{"missing pubsub", func(p *ServiceParams) { p.PubSub = nil }, "pubsub client is required"},
		{"missing consumer", func(p *ServiceParams) { p.Consumer = nil }, "scoring consumer is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			_, err := NewService(params)
			require.EqualError(t, err, tc.errMsg)
		})
	}
}
