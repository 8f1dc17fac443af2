package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/api/responses"
	"github.com/chainscore-io/chainscore-backend/api/validators"
	"github.com/chainscore-io/chainscore-backend/internal/featurecache"
	"github.com/chainscore-io/chainscore-backend/internal/features"
	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

// FeatureCache is the slice of the cache the API surfaces: counters for
// operators and targeted invalidation.
type FeatureCache interface {
	Stats() featurecache.Stats
	Invalidate(ctx context.Context, partyIDs []uuid.UUID)
}

// FeaturesGet returns a party's feature rows, current by default or as of a
// historical instant.
func FeaturesGet(store *features.Store, logg *logger.Logger) http.HandlerFunc {
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

		rows, err := fetchFeatureRows(r, store, partyID, asOf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		values, confidences := features.Vector(rows)
		responses.WriteSuccess(w, map[string]any{
			"party_id":    partyID,
			"features":    rows,
			"values":      values,
			"confidences": confidences,
		})
	}
}

// FeatureHistory returns every recorded value of one feature for a party.
func FeatureHistory(store *features.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := store.History(r.Context(), partyID, featureNameParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// CacheStats exposes the feature cache counters.
func CacheStats(cache FeatureCache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cache.Stats())
	}
}

// CacheInvalidate drops the cached feature snapshot for one party.
func CacheInvalidate(cache FeatureCache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partyID, err := partyIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cache.Invalidate(r.Context(), []uuid.UUID{partyID})
		responses.WriteSuccess(w, map[string]string{"status": "invalidated"})
	}
}

func fetchFeatureRows(r *http.Request, store *features.Store, partyID uuid.UUID, asOf *time.Time) ([]models.Feature, error) {
	if asOf != nil {
		return store.AsOf(r.Context(), partyID, *asOf)
	}
	return store.Current(r.Context(), partyID)
}

func featureNameParam(r *http.Request) string {
	return chi.URLParam(r, "featureName")
}
