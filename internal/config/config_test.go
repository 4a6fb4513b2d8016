package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default("household")

	assert.Equal(t, "household", cfg.Ledger.Name)
	assert.Equal(t, "Expenses:Fees", cfg.Ledger.FeesAccount)
	assert.Equal(t, 3, cfg.Detection.WindowDays)
	assert.Equal(t, 4, cfg.Detection.Workers)
	assert.InDelta(t, 1.0, cfg.Detection.Weights.Date+cfg.Detection.Weights.Amount+cfg.Detection.Weights.Narration, 1e-9)
	assert.True(t, cfg.Git.AutoCommit)

	require.NoError(t, cfg.Validate(), "shipped defaults must validate")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beanflow.yaml")

	cfg := Default("roundtrip")
	cfg.Detection.ReferenceRates = map[string]float64{"USD/EUR": 0.92}
	cfg.Detection.NarrationPriority = []string{"wisejson", "statement"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "beanflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger: [unclosed"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoad_PartialFileKeepsZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beanflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  name: minimal\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", cfg.Ledger.Name)
	assert.Zero(t, cfg.Detection.WindowDays)
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	cfg := Default("bad")
	cfg.Detection.WindowDays = -1
	cfg.Detection.Workers = 0
	cfg.Detection.AmountTolerance = "lots"
	cfg.Detection.CrossCurrencyCap = 1.5
	cfg.Detection.ReferenceRates = map[string]float64{
		"USDEUR":  1.0,
		"USD/JPY": -3,
	}

	err := cfg.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 6)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate_WeightIssues(t *testing.T) {
	cfg := Default("w")
	cfg.Detection.Weights = WeightsConfig{Date: -0.1, Amount: 0, Narration: 0}

	err := cfg.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2, "negative weight and zero total are both reported")
}

func TestValidate_FoldsExtraIssues(t *testing.T) {
	cfg := Default("ok")
	err := cfg.Validate("row 2: unknown importer \"quickbooks\"")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Contains(t, verr.Issues[0], "quickbooks")
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := Default("t")
	cfg.Detection.AmountTolerance = "-0.01"
	cfg.Detection.RelativeTolerance = -0.5

	err := cfg.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}
