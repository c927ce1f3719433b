package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revcon/internal/asset"
)

func sampleConfig() asset.Config {
	return asset.Config{
		Owner:       "owner",
		Executor:    "executor",
		SweepDenoms: []asset.Denom{"ukuji", "another"},
		Targets: []asset.DistributionTarget{
			{Address: "fee-collector", Weight: 1},
			{Address: "another", Weight: 3},
		},
	}
}

func TestReadConfig_NotInitialized(t *testing.T) {
	s := newStore(t)

	_, err := s.ReadConfig(context.Background())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cfg := sampleConfig()
	require.NoError(t, s.SaveConfig(ctx, cfg))

	got, err := s.ReadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveConfig_ReplacesLists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConfig(ctx, sampleConfig()))

	// Shrinking the lists must not leave stale rows behind.
	cfg := sampleConfig()
	cfg.SweepDenoms = []asset.Denom{"ukuji"}
	cfg.Targets = []asset.DistributionTarget{{Address: "solo", Weight: 7}}
	require.NoError(t, s.SaveConfig(ctx, cfg))

	got, err := s.ReadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveConfig_RejectsInvalid(t *testing.T) {
	s := newStore(t)

	cfg := sampleConfig()
	cfg.Owner = ""
	assert.Error(t, s.SaveConfig(context.Background(), cfg))

	cfg = sampleConfig()
	cfg.SweepDenoms = []asset.Denom{"ukuji", "ukuji"}
	assert.Error(t, s.SaveConfig(context.Background(), cfg))
}
