package rules

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chainscore-io/chainscore-backend/pkg/db/models"
	"github.com/chainscore-io/chainscore-backend/pkg/enums"
	pkgerrors "github.com/chainscore-io/chainscore-backend/pkg/errors"
	"github.com/chainscore-io/chainscore-backend/pkg/logger"
)

func setupRuleService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.DecisionRule{}))

	logg := logger.New(logger.Options{ServiceName: "rules-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Logger: logg})
	require.NoError(t, err)
	return svc, conn
}

func TestCreateRejectsMalformedExpression(t *testing.T) {
	svc, _ := setupRuleService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:       "broken",
		Expression: "score >=",
		Action:     "reject",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeRuleExpr, appErr.Code())
}

func TestCreateRejectsUnknownAction(t *testing.T) {
	svc, _ := setupRuleService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:       "bad-action",
		Expression: "score > 0",
		Action:     "escalate",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestValidateExpression(t *testing.T) {
	svc, _ := setupRuleService(t)

	require.NoError(t, svc.ValidateExpression("score >= 600 and total_transactions > 0"))

	err := svc.ValidateExpression("score >=")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeRuleExpr, appErr.Code())

	err = svc.ValidateExpression("")
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestEvaluateDefaultsToManualReview(t *testing.T) {
	svc, _ := setupRuleService(t)

	outcome, err := svc.Evaluate(context.Background(), Context{
		Score: 700,
		Band:  enums.ScoreBandGood,
	})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionManualReview, outcome.Action)
	require.Nil(t, outcome.MatchedRule)
	require.Empty(t, outcome.Reasons)
}

func TestEvaluateFirstMatchWinsByPriority(t *testing.T) {
	svc, _ := setupRuleService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Name: "approve-good", Expression: "score >= 650",
		Action: "approve", Reason: "score in good standing", Priority: 20,
	})
	require.NoError(t, err)
	flagged, err := svc.Create(ctx, CreateInput{
		Name: "flag-thin-network", Expression: "network_size < 3",
		Action: "flag", Reason: "thin counterparty network", Priority: 10,
	})
	require.NoError(t, err)

	outcome, err := svc.Evaluate(ctx, Context{
		Score:    720,
		Band:     enums.ScoreBandGood,
		Features: map[string]float64{"network_size": 1},
	})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionFlag, outcome.Action)
	require.Equal(t, []string{"thin counterparty network"}, outcome.Reasons)
	require.NotNil(t, outcome.MatchedRule)
	require.Equal(t, flagged.ID, *outcome.MatchedRule)
}

// Swapping insertion order while keeping priorities must not change the
// outcome.
func TestEvaluateOrderIndependentOfInsertion(t *testing.T) {
	run := func(t *testing.T, reversed bool) enums.RuleAction {
		svc, _ := setupRuleService(t)
		ctx := context.Background()

		inputs := []CreateInput{
			{Name: "reject-low", Expression: "score < 800", Action: "reject", Reason: "low", Priority: 1},
			{Name: "approve-any", Expression: "score > 0", Action: "approve", Reason: "any", Priority: 2},
		}
		if reversed {
			inputs[0], inputs[1] = inputs[1], inputs[0]
		}
		for _, input := range inputs {
			_, err := svc.Create(ctx, input)
			require.NoError(t, err)
		}

		outcome, err := svc.Evaluate(ctx, Context{Score: 700, Band: enums.ScoreBandGood})
		require.NoError(t, err)
		return outcome.Action
	}

	require.Equal(t, enums.RuleActionReject, run(t, false))
	require.Equal(t, enums.RuleActionReject, run(t, true))
}

// A low-priority reject on missing transaction history overrides an
// otherwise passing score.
func TestZeroTransactionRejectOverridesHighScore(t *testing.T) {
	svc, _ := setupRuleService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Name: "no-history", Expression: "transaction_count_6m == 0",
		Action: "reject", Reason: "no transaction history", Priority: 1,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{
		Name: "approve-excellent", Expression: "score >= 800",
		Action: "approve", Reason: "excellent score", Priority: 50,
	})
	require.NoError(t, err)

	outcome, err := svc.Evaluate(ctx, Context{
		Score:    845,
		Band:     enums.ScoreBandExcellent,
		Features: map[string]float64{"transaction_count_6m": 0},
	})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionReject, outcome.Action)
	require.Equal(t, []string{"no transaction history"}, outcome.Reasons)
}

func TestBandIndicatorBindings(t *testing.T) {
	svc, _ := setupRuleService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Name: "flag-poor-band", Expression: "band_poor == 1",
		Action: "flag", Reason: "poor band", Priority: 5,
	})
	require.NoError(t, err)

	outcome, err := svc.Evaluate(ctx, Context{Score: 510, Band: enums.ScoreBandPoor})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionFlag, outcome.Action)

	outcome, err = svc.Evaluate(ctx, Context{Score: 700, Band: enums.ScoreBandGood})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionManualReview, outcome.Action)
}

// A rule that references a feature absent from the evaluation context fails
// at runtime; it must be skipped, not abort the run.
func TestFailingRuleIsSkipped(t *testing.T) {
	svc, conn := setupRuleService(t)
	ctx := context.Background()

	// The expression parses, so it bypasses creation-time validation, but
	// nothing in the context binds the identifier.
	require.NoError(t, conn.Create(&models.DecisionRule{
		ID: uuid.New(), Name: "references-missing",
		Expression: "unbound_signal > 5",
		Action:     enums.RuleActionReject, Reason: "unreachable",
		Priority: 1, IsActive: true,
		CreatedAt: time.Now().Add(-time.Minute),
	}).Error)
	_, err := svc.Create(ctx, CreateInput{
		Name: "approve-good", Expression: "score >= 650",
		Action: "approve", Reason: "good standing", Priority: 10,
	})
	require.NoError(t, err)

	outcome, err := svc.Evaluate(ctx, Context{Score: 700, Band: enums.ScoreBandGood})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionApprove, outcome.Action)
	require.Equal(t, []string{"references-missing"}, outcome.FailedRules)
}

func TestSetActiveExcludesRuleFromEvaluation(t *testing.T) {
	svc, _ := setupRuleService(t)
	ctx := context.Background()

	rule, err := svc.Create(ctx, CreateInput{
		Name: "reject-all", Expression: "score > 0",
		Action: "reject", Reason: "blanket reject", Priority: 1,
	})
	require.NoError(t, err)

	outcome, err := svc.Evaluate(ctx, Context{Score: 700, Band: enums.ScoreBandGood})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionReject, outcome.Action)

	_, err = svc.SetActive(ctx, rule.ID, false)
	require.NoError(t, err)

	outcome, err = svc.Evaluate(ctx, Context{Score: 700, Band: enums.ScoreBandGood})
	require.NoError(t, err)
	require.Equal(t, enums.RuleActionManualReview, outcome.Action)
}
