package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/api/responses"
	"github.com/chainscore-io/chainscore-backend/api/validators"
	"github.com/chainscore-io/chainscore-backend/internal/rules"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

type createRuleRequest struct {
	Name       string `json:"name" validate:"required,min=1"`
	Expression string `json:"expression" validate:"required,min=1"`
	Action     string `json:"action" validate:"required,oneof=approve reject flag manual_review"`
	Reason     string `json:"reason,omitempty"`
	Priority   int    `json:"priority,omitempty" validate:"omitempty,min=1"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// RuleCreate registers a decision rule. The expression is parsed before
// anything is stored.
func RuleCreate(svc *rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRuleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.Create(r.Context(), rules.CreateInput{
			Name:       req.Name,
			Expression: req.Expression,
			Action:     req.Action,
			Reason:     req.Reason,
			Priority:   req.Priority,
			IsActive:   req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

type validateRuleRequest struct {
	Expression string `json:"expression" validate:"required,min=1"`
}

// RuleValidate parses an expression without storing it.
func RuleValidate(svc *rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateRuleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ValidateExpression(req.Expression); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"valid": true})
	}
}

// RuleList returns all stored rules in evaluation order.
func RuleList(svc *rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type setRuleActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// RuleSetActive toggles whether a rule participates in evaluation.
func RuleSetActive(svc *rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "ruleId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule id"))
			return
		}
		var req setRuleActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.SetActive(r.Context(), id, req.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}
