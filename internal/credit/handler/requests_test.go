package handler

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifin/internal/credit"
	dErrors "agrifin/pkg/domain-errors"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want Number
	}{
		{`12.5`, Number{Value: 12.5, Present: true}},
		{`0`, Number{Value: 0, Present: true}},
		{`"50"`, Number{Value: 50, Present: true}},
		{`" 7.25 "`, Number{Value: 7.25, Present: true}},
		{`"abc"`, Number{Value: 0, Present: true}},
		{`"50abc"`, Number{Value: 0, Present: true}},
		{`"1e999"`, Number{Value: math.Inf(1), Present: true}},
		{`"-1e999"`, Number{Value: math.Inf(-1), Present: true}},
		{`""`, Number{}},
		{`"   "`, Number{}},
		{`null`, Number{}},
		{`true`, Number{Present: true}},
		{`[1]`, Number{Present: true}},
	}
	for _, tt := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &n), "raw %s", tt.raw)
		assert.Equal(t, tt.want, n, "raw %s", tt.raw)
	}
}

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"1"`, true},
		{`"yes"`, false},
		{`1`, true},
		{`0`, false},
		{`null`, false},
		{`{}`, false},
	}
	for _, tt := range tests {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &f), "raw %s", tt.raw)
		assert.Equal(t, tt.want, f, "raw %s", tt.raw)
	}
}

func TestCropListUnmarshal(t *testing.T) {
	var c CropList
	require.NoError(t, json.Unmarshal([]byte(`["maize", 3, null, "beans"]`), &c))
	assert.Equal(t, CropList{"maize", "beans"}, c)

	require.NoError(t, json.Unmarshal([]byte(`"maize"`), &c))
	assert.Nil(t, c)
}

func TestLoanHistoryUnmarshal(t *testing.T) {
	var l LoanHistory
	require.NoError(t, json.Unmarshal([]byte(`[{"status":"repaid"}, {"status":1}, "repaid", {}]`), &l))
	assert.Equal(t, LoanHistory{{Status: "repaid"}, {}, {}, {}}, l)

	require.NoError(t, json.Unmarshal([]byte(`{"status":"repaid"}`), &l))
	assert.Nil(t, l)
}

func TestScoreRequestToProfile(t *testing.T) {
	var req ScoreRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"farmSize": "20",
		"experience": 4,
		"taxReturns": "true",
		"crops": ["maize", "tea"],
		"exportLicense": 1,
		"digitalTools": true,
		"liabilityInsurance": "false"
	}`), &req))
	require.NoError(t, req.Validate())

	assert.Equal(t, credit.ApplicantProfile{
		FarmSize:      20,
		Experience:    4,
		TaxReturns:    true,
		Crops:         []string{"maize", "tea"},
		ExportLicense: true,
		DigitalTools:  true,
	}, req.ToProfile())
}

func TestOverflowingFarmSizeScoresAsHuge(t *testing.T) {
	var req ScoreRequest
	require.NoError(t, json.Unmarshal([]byte(`{"farmSize":"1e999","experience":"1e999"}`), &req))
	require.NoError(t, req.Validate())

	result := credit.Score(req.ToProfile())
	assert.Equal(t, 100.0, result.FactorScores[credit.FactorFarmSize])
	assert.Equal(t, 100.0, result.FactorScores[credit.FactorExperience])
}

func TestBatchScoreRequestValidate(t *testing.T) {
	var req BatchScoreRequest
	require.NoError(t, json.Unmarshal([]byte(`{"applicants":[{"farmSize":1,"experience":1},{"experience":2}]}`), &req))

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "applicant 1: Missing required fields: farmSize", de.Message)
}
