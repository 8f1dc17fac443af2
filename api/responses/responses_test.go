package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/types"
)

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "ok", envelope.Data["status"])
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	cases := []struct {
		code    pkgerrors.Code
		status  int
		message string
	}{
		{pkgerrors.CodeValidation, 400, "amount must be numeric"},
		{pkgerrors.CodeNotFound, 404, "party not found"},
		{pkgerrors.CodeConflict, 409, "external_ref already exists"},
		{pkgerrors.CodeNoScorecard, 422, "no active scorecard version"},
		{pkgerrors.CodeInternal, 500, "boom"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, pkgerrors.New(tc.code, tc.message))
		require.Equal(t, tc.status, rec.Code, string(tc.code))

		var envelope types.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, string(tc.code), envelope.Error.Code)
	}
}

// Internal errors must not leak their message to clients.
func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pq: connection refused"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "internal server error", envelope.Error.Message)
}

func TestWriteErrorUntypedDefaultsToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, context.DeadlineExceeded)
	require.Equal(t, 500, rec.Code)
}
