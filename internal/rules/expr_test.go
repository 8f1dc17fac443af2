package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evalNumber(t *testing.T, input string, bindings map[string]float64) float64 {
	t.Helper()
	expr, err := Parse(input)
	require.NoError(t, err)
	value, err := expr.Eval(bindings)
	require.NoError(t, err)
	return value
}

func TestArithmeticPrecedence(t *testing.T) {
	require.Equal(t, 14.0, evalNumber(t, "2 + 3 * 4", nil))
	require.Equal(t, 20.0, evalNumber(t, "(2 + 3) * 4", nil))
	require.Equal(t, 1.5, evalNumber(t, "6 / 4", nil))
	require.Equal(t, -5.0, evalNumber(t, "-2 - 3", nil))
}

func TestComparisons(t *testing.T) {
	bindings := map[string]float64{"score": 620}

	cases := []struct {
		expr string
		want bool
	}{
		{"score >= 600", true},
		{"score > 620", false},
		{"score == 620", true},
		{"score != 620", false},
		{"score < 550", false},
		{"score <= 620", true},
	}
	for _, tc := range cases {
		got, err := EvalBool(tc.expr, bindings)
		require.NoError(t, err, tc.expr)
		require.Equal(t, tc.want, got, tc.expr)
	}
}

func TestBooleanOperatorsWordAndSymbolForms(t *testing.T) {
	bindings := map[string]float64{"a": 1, "b": 0}

	for _, expr := range []string{"a == 1 and b == 0", "a == 1 && b == 0"} {
		got, err := EvalBool(expr, bindings)
		require.NoError(t, err)
		require.True(t, got, expr)
	}
	for _, expr := range []string{"a == 0 or b == 0", "a == 0 || b == 0"} {
		got, err := EvalBool(expr, bindings)
		require.NoError(t, err)
		require.True(t, got, expr)
	}

	got, err := EvalBool("not (a == 1)", bindings)
	require.NoError(t, err)
	require.False(t, got)
}

func TestShortCircuitSkipsRightSideErrors(t *testing.T) {
	bindings := map[string]float64{"present": 1}

	// missing_feature would error, but the left side decides the result first.
	got, err := EvalBool("present == 0 and missing_feature > 10", bindings)
	require.NoError(t, err)
	require.False(t, got)

	got, err = EvalBool("present == 1 or missing_feature > 10", bindings)
	require.NoError(t, err)
	require.True(t, got)
}

func TestFunctions(t *testing.T) {
	require.Equal(t, 3.5, evalNumber(t, "abs(-3.5)", nil))
	require.Equal(t, 4.0, evalNumber(t, "round(3.6)", nil))
	require.Equal(t, 2.0, evalNumber(t, "min(5, 2)", nil))
	require.Equal(t, 5.0, evalNumber(t, "max(5, 2)", nil))

	expr, err := Parse("sqrt(9)")
	require.NoError(t, err)
	_, err = expr.Eval(nil)
	require.Error(t, err)

	_, err = mustParse("min(1)").Eval(nil)
	require.NoError(t, err)

	_, err = mustParse("abs(1, 2)").Eval(nil)
	require.Error(t, err)
}

func TestBooleanLiterals(t *testing.T) {
	got, err := EvalBool("true", nil)
	require.NoError(t, err)
	require.True(t, got)

	got, err = EvalBool("false or true", nil)
	require.NoError(t, err)
	require.True(t, got)
}

func TestUnknownIdentifierFailsEvaluation(t *testing.T) {
	expr, err := Parse("no_such_feature > 0")
	require.NoError(t, err)

	_, err = expr.Eval(map[string]float64{"score": 500})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no_such_feature")
}

func TestDivisionByZero(t *testing.T) {
	expr, err := Parse("10 / denom")
	require.NoError(t, err)

	_, err = expr.Eval(map[string]float64{"denom": 0})
	require.Error(t, err)
}

func TestMalformedExpressions(t *testing.T) {
	for _, input := range []string{
		"",
		"score >",
		"(score > 100",
		"min(1,",
		"score @ 5",
		"and score > 1",
		"1 2",
	} {
		_, err := Parse(input)
		require.Error(t, err, input)
	}
}

func mustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}
