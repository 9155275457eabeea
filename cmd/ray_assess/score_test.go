package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ray-assessment/internal/types"
)

// writeTestBank writes a small valid item bank and returns its path.
func writeTestBank(t *testing.T, dir string) string {
	t.Helper()

	type bankFile struct {
		Version string       `json:"version"`
		Items   []types.Item `json:"items"`
	}
	catalog := bankFile{Version: "cli-test-1"}
	for _, rayID := range types.RayIDs {
		for i := 1; i <= 3; i++ {
			catalog.Items = append(catalog.Items, types.Item{
				ID:           fmt.Sprintf("%s-%02d", rayID, i),
				RayID:        rayID,
				Weight:       1.0,
				PromptText:   "prompt",
				ResponseType: types.ResponseTypeFrequency,
				Polarity:     types.PolarityNormal,
				Section:      types.SectionRayShine,
			})
		}
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, "item_bank.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeTestResponses(t *testing.T, dir string, value int) string {
	t.Helper()

	responses := make(map[string]int)
	for _, rayID := range types.RayIDs {
		for i := 1; i <= 3; i++ {
			responses[fmt.Sprintf("%s-%02d", rayID, i)] = value
		}
	}
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	input := scoreInput{
		Responses:   responses,
		StartedAt:   started,
		CompletedAt: started.Add(20 * time.Minute),
	}
	data, err := json.Marshal(input)
	require.NoError(t, err)
	path := filepath.Join(dir, "responses.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	scoreItemBank = writeTestBank(t, dir)
	scoreBankSchema = "" // catalog integrity checks still apply
	scoreResponses = writeTestResponses(t, dir, 3)
	scoreOutput = filepath.Join(dir, "out", "profile.json")
	scoreVerbose = false

	require.NoError(t, runScore(nil, nil))

	data, err := os.ReadFile(scoreOutput)
	require.NoError(t, err)
	var profile types.RayScoreProfile
	require.NoError(t, json.Unmarshal(data, &profile))

	assert.Len(t, profile.RayScores, 9)
	assert.Len(t, profile.TopRays, 2)
	assert.NotEmpty(t, profile.ArchetypeName)
	// All-3s on frequency items is 75 on every ray
	assert.InDelta(t, 75.0, profile.RayScores["R1"], 0.001)
}

func TestScoreCommand_Deterministic(t *testing.T) {
	dir := t.TempDir()
	scoreItemBank = writeTestBank(t, dir)
	scoreBankSchema = ""
	scoreResponses = writeTestResponses(t, dir, 2)
	scoreVerbose = false

	scoreOutput = filepath.Join(dir, "one.json")
	require.NoError(t, runScore(nil, nil))
	scoreOutput = filepath.Join(dir, "two.json")
	require.NoError(t, runScore(nil, nil))

	one, err := os.ReadFile(filepath.Join(dir, "one.json"))
	require.NoError(t, err)
	two, err := os.ReadFile(filepath.Join(dir, "two.json"))
	require.NoError(t, err)
	assert.Equal(t, string(one), string(two))
}

func TestScoreCommand_MissingResponsesFile(t *testing.T) {
	dir := t.TempDir()
	scoreItemBank = writeTestBank(t, dir)
	scoreBankSchema = ""
	scoreResponses = filepath.Join(dir, "nope.json")
	scoreOutput = ""

	assert.Error(t, runScore(nil, nil))
}

func TestBankValidateCommand(t *testing.T) {
	dir := t.TempDir()
	bankValidateItemBank = writeTestBank(t, dir)
	bankValidateBankSchema = ""

	require.NoError(t, runBankValidate(nil, nil))
}

func TestBankValidateCommand_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"x","items":[]}`), 0644))
	bankValidateItemBank = path
	bankValidateBankSchema = ""

	assert.Error(t, runBankValidate(nil, nil))
}
