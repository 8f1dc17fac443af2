package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chainscore-io/chainscore-backend/api/responses"
	"github.com/chainscore-io/chainscore-backend/api/validators"
	"github.com/chainscore-io/chainscore-backend/internal/scorecard"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

type createScorecardRequest struct {
	Version        string               `json:"version" validate:"required,min=1"`
	BaseScore      int                  `json:"base_score,omitempty"`
	MaxScore       int                  `json:"max_score,omitempty"`
	Weights        types.WeightMap      `json:"weights" validate:"required"`
	BandThresholds types.BandThresholds `json:"band_thresholds,omitempty"`
	Source         string               `json:"source,omitempty" validate:"omitempty,oneof=expert trained"`
	Notes          *string              `json:"notes,omitempty"`
}

// ScorecardCreate registers a new draft scorecard version.
func ScorecardCreate(svc *scorecard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createScorecardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		version, err := svc.Create(r.Context(), scorecard.CreateInput{
			Version:        req.Version,
			BaseScore:      req.BaseScore,
			MaxScore:       req.MaxScore,
			Weights:        req.Weights,
			BandThresholds: req.BandThresholds,
			Source:         req.Source,
			Notes:          req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, version)
	}
}

// ScorecardActivate promotes a draft version and retires the current one.
func ScorecardActivate(svc *scorecard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, err := svc.Activate(r.Context(), chi.URLParam(r, "version"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, version)
	}
}

// ScorecardList returns every stored version, newest first.
func ScorecardList(svc *scorecard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ScorecardGet returns one version by its version string.
func ScorecardGet(svc *scorecard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, err := svc.Get(r.Context(), chi.URLParam(r, "version"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, version)
	}
}
