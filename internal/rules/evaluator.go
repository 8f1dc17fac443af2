package rules

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

// DefaultAction is returned when no rule matches.
const DefaultAction = enums.RuleActionManualReview

// Context is the flattened binding set a rule expression evaluates against:
// the score, a band indicator per band name, and every feature value.
type Context struct {
	Score    int
	Band     enums.ScoreBand
	Features map[string]float64
}

// bindings flattens the context to scalar identifiers. The band becomes
// band_<name> indicators so expressions can test it without string support.
func (c Context) bindings() map[string]float64 {
	out := make(map[string]float64, len(c.Features)+6)
	for name, value := range c.Features {
		out[name] = value
	}
	out["score"] = float64(c.Score)
	for _, band := range []enums.ScoreBand{
		enums.ScoreBandExcellent, enums.ScoreBandGood, enums.ScoreBandFair, enums.ScoreBandPoor,
	} {
		indicator := 0.0
		if band == c.Band {
			indicator = 1.0
		}
		out["band_"+string(band)] = indicator
	}
	return out
}

// Outcome is the decision produced by one evaluation run.
type Outcome struct {
	Action      enums.RuleAction `json:"action"`
	Reasons     []string         `json:"reasons"`
	MatchedRule *uuid.UUID       `json:"matched_rule,omitempty"`
	// FailedRules lists rules whose expressions errored and were skipped.
	FailedRules []string `json:"failed_rules,omitempty"`
}

// ServiceParams groups dependencies for the rule service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// Service manages decision rules and evaluates them in priority order.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a rule service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, logg: params.Logger}, nil
}

// CreateInput carries a new decision rule.
type CreateInput struct {
	Name       string
	Expression string
	Action     string
	Reason     string
	Priority   int
	IsActive   *bool
}

// Create validates the expression up front and inserts the rule. A rule that
// cannot parse never reaches the evaluator.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.DecisionRule, error) {
	if input.Name == "" || input.Expression == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and expression are required")
	}
	action, err := enums.ParseRuleAction(input.Action)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action")
	}
	if _, err := Parse(input.Expression); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRuleExpr, err, "expression rejected")
	}

	priority := input.Priority
	if priority == 0 {
		priority = 100
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	reason := input.Reason
	if reason == "" {
		reason = input.Name
	}

	rule := &models.DecisionRule{
		ID:         uuid.New(),
		Name:       input.Name,
		Expression: input.Expression,
		Action:     action,
		Reason:     reason,
		Priority:   priority,
		IsActive:   active,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating rule")
	}
	return rule, nil
}

// ValidateExpression parses an expression without storing or evaluating it,
// so operators can check a rule before creating it.
func (s *Service) ValidateExpression(expression string) error {
	if expression == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "expression is required")
	}
	if _, err := Parse(expression); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRuleExpr, err, "expression rejected")
	}
	return nil
}

// SetActive toggles one rule without touching the rest of the set.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.DecisionRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading rule")
	}
	if rule == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rule not found")
	}
	rule.IsActive = active
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating rule")
	}
	return rule, nil
}

// List returns every stored rule in evaluation order.
func (s *Service) List(ctx context.Context) ([]models.DecisionRule, error) {
	return s.repo.ListAll(ctx)
}

// Evaluate runs the active rules in priority order and stops at the first
// match. A malformed or failing expression counts as a non-match for that
// rule only; the failure is logged and recorded on the outcome so a bad rule
// degrades gracefully instead of aborting the run.
func (s *Service) Evaluate(ctx context.Context, evalCtx Context) (Outcome, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading rules")
	}
	return s.EvaluateRules(ctx, active, evalCtx), nil
}

// EvaluateRules evaluates a pre-loaded, priority-ordered rule list. Batch
// runs load the rules once and reuse them for every party.
func (s *Service) EvaluateRules(ctx context.Context, ordered []models.DecisionRule, evalCtx Context) Outcome {
	bindings := evalCtx.bindings()
	outcome := Outcome{Action: DefaultAction, Reasons: []string{}}

	for _, rule := range ordered {
		matched, err := EvalBool(rule.Expression, bindings)
		if err != nil {
			outcome.FailedRules = append(outcome.FailedRules, rule.Name)
			logCtx := s.logg.WithFields(ctx, map[string]any{"rule": rule.Name})
			s.logg.Warn(logCtx, "rule expression failed, treating as non-match: "+err.Error())
			continue
		}
		if matched {
			id := rule.ID
			outcome.Action = rule.Action
			outcome.Reasons = []string{rule.Reason}
			outcome.MatchedRule = &id
			return outcome
		}
	}
	return outcome
}
