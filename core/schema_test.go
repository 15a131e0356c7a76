package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResponse() map[string]any {
	scores := map[string]any{}
	reasoning := map[string]any{}
	for i := range RubricCount {
		scores[RubricKey(i)] = i + 3
		reasoning[RubricKey(i)] = "because"
	}
	return map[string]any{
		"scores":    scores,
		"reasoning": reasoning,
		"issues":    []any{"jargon before definition"},
		"fixes":     []any{"define terms first"},
		"evidence":  []any{"\"as shown above\""},
	}
}

func marshalResponse(t *testing.T, v map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestValidateEvaluationResponse_Valid(t *testing.T) {
	raw := marshalResponse(t, validResponse())

	result, err := ValidateEvaluationResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, Scores{3, 4, 5, 6, 7, 8, 9}, result.Scores)
	assert.Equal(t, "because", result.Reasoning[4])
	assert.Equal(t, []string{"jargon before definition"}, result.Issues)
	assert.Equal(t, []string{"define terms first"}, result.Fixes)
	assert.Len(t, result.Evidence, 1)
	assert.JSONEq(t, string(raw), result.Raw)
}

func TestValidateEvaluationResponse_IntegralFloat(t *testing.T) {
	resp := validResponse()
	resp["scores"].(map[string]any)["rubric1"] = 7.0

	result, err := ValidateEvaluationResponse(marshalResponse(t, resp))
	require.NoError(t, err)
	assert.Equal(t, 7, result.Scores[0])
}

func TestValidateEvaluationResponse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{
			name: "rubric3 zero",
			mutate: func(r map[string]any) {
				r["scores"].(map[string]any)["rubric3"] = 0
			},
		},
		{
			name: "rubric3 eleven",
			mutate: func(r map[string]any) {
				r["scores"].(map[string]any)["rubric3"] = 11
			},
		},
		{
			name: "fractional score",
			mutate: func(r map[string]any) {
				r["scores"].(map[string]any)["rubric2"] = 6.5
			},
		},
		{
			name: "score as string",
			mutate: func(r map[string]any) {
				r["scores"].(map[string]any)["rubric2"] = "6"
			},
		},
		{
			name: "missing reasoning rubric5",
			mutate: func(r map[string]any) {
				delete(r["reasoning"].(map[string]any), "rubric5")
			},
		},
		{
			name: "missing scores rubric7",
			mutate: func(r map[string]any) {
				delete(r["scores"].(map[string]any), "rubric7")
			},
		},
		{
			name: "missing evidence",
			mutate: func(r map[string]any) {
				delete(r, "evidence")
			},
		},
		{
			name: "issues not strings",
			mutate: func(r map[string]any) {
				r["issues"] = []any{1, 2}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validResponse()
			tt.mutate(resp)

			result, err := ValidateEvaluationResponse(marshalResponse(t, resp))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResponse)
			assert.Nil(t, result)
		})
	}
}

func TestValidateEvaluationResponse_NotJSON(t *testing.T) {
	_, err := ValidateEvaluationResponse([]byte("Here is my evaluation: great"))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
