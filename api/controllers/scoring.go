package controllers

import (
	"net/http"

	"github.com/chainscore-io/chainscore-backend/api/responses"
	"github.com/chainscore-io/chainscore-backend/api/validators"
	"github.com/chainscore-io/chainscore-backend/internal/scoring"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

// ScoreParty runs the scoring pipeline for one party. Optional query
// parameters select a scorecard version, a historical as-of instant, or a
// cache bypass.
func ScoreParty(svc *scoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asOf, err := validators.ParseQueryTime(r, "as_of")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		skipCache, err := validators.ParseQueryBool(r, "skip_cache")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Score(r.Context(), scoring.ScoreParams{
			PartyID:   partyID,
			Version:   r.URL.Query().Get("version"),
			AsOf:      asOf,
			SkipCache: skipCache,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScoreGet returns the party's latest stored score without recomputing.
func ScoreGet(svc *scoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		score, err := svc.LatestScore(r.Context(), partyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, score)
	}
}

// ScoreHistory returns recent scoring runs for a party, newest first.
func ScoreHistory(svc *scoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.History(r.Context(), partyID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type batchScoreRequest struct {
	BatchID string `json:"batch_id" validate:"required,min=1"`
	Version string `json:"version,omitempty"`
}

// ScoreBatch scores every party ingested under a batch ID and reports
// per-party failures.
func ScoreBatch(svc *scoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchScoreRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Batch(r.Context(), scoring.BatchParams{
			BatchID: req.BatchID,
			Version: req.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
