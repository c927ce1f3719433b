package engine_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revcon/internal/asset"
	"github.com/roach88/revcon/internal/engine"
	"github.com/roach88/revcon/internal/store"
	"github.com/roach88/revcon/internal/testutil"
)

func testConfig() asset.Config {
	return asset.Config{
		Owner:       "owner",
		Executor:    "executor",
		SweepDenoms: []asset.Denom{"ukuji", "another"},
		Targets: []asset.DistributionTarget{
			{Address: "fee-collector", Weight: 1},
		},
	}
}

func newTestEngine(t *testing.T, cfg asset.Config, balances map[asset.Denom]uint64, tokens ...string) (*engine.Engine, *store.Store, *testutil.FakeBank, *testutil.RecordingIssuer) {
	t.Helper()

	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveConfig(context.Background(), cfg))

	bank := testutil.NewFakeBank(balances)
	issuer := &testutil.RecordingIssuer{}
	eng := engine.New(st, bank, issuer, engine.NewFixedGenerator(tokens...))
	return eng, st, bank, issuer
}

func TestCrank_Unauthorized(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, testConfig(), nil)

	err := eng.Crank(context.Background(), "stranger")
	require.Error(t, err)
	assert.True(t, engine.IsUnauthorized(err))
}

func TestCrank_Uninitialized(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	eng := engine.New(st, testutil.NewFakeBank(nil), &testutil.RecordingIssuer{}, engine.NewFixedGenerator())

	err = eng.Crank(context.Background(), "executor")
	require.ErrorIs(t, err, store.ErrNotInitialized)
}

func TestCrank_EmptyLedger_SweepsImmediately(t *testing.T) {
	eng, _, bank, issuer := newTestEngine(t, testConfig(), map[asset.Denom]uint64{
		"ukuji": 1000,
	})

	require.NoError(t, eng.Crank(context.Background(), "executor"))

	assert.Empty(t, issuer.Requests(), "no action, no external operation")
	transfers := bank.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "fee-collector", transfers[0].Address)
	assert.Equal(t, asset.NewCoin("ukuji", 1000), transfers[0].Coin)
}

func TestCrank_RoundRobinScenario(t *testing.T) {
	// Ledger: a (unlimited), b (unlimited), c (limit 100), d, e.
	// Balances: a=0 so the first crank selects an inert action, advances
	// the cursor, and issues nothing; cranks 2-5 issue for b, c (capped
	// at 100), d, e; crank 6 wraps back to the inert a.
	eng, st, _, issuer := newTestEngine(t, testConfig(), map[asset.Denom]uint64{
		"token-b": 1000,
		"token-c": 1000,
		"token-d": 1000,
		"token-e": 1000,
	}, "t1", "t2", "t3", "t4")
	ctx := context.Background()

	limits := map[string]uint64{"token-c": 100}
	for _, d := range []string{"token-a", "token-b", "token-c", "token-d", "token-e"} {
		limit, ok := limits[d]
		if !ok {
			limit = math.MaxUint64
		}
		require.NoError(t, st.SetAction(ctx, asset.Action{
			Denom:    asset.Denom(d),
			Contract: "contract-" + d,
			Limit:    limit,
		}))
	}

	wantCursor := []asset.Denom{"token-a", "token-b", "token-c", "token-d", "token-e", "token-a"}
	for i := 0; i < 6; i++ {
		require.NoError(t, eng.Crank(ctx, "executor"))

		cursor, hasCursor, err := st.Cursor(ctx)
		require.NoError(t, err)
		require.True(t, hasCursor, "crank %d", i+1)
		assert.Equal(t, wantCursor[i], cursor, "crank %d", i+1)
	}

	reqs := issuer.Requests()
	require.Len(t, reqs, 4, "inert cranks issue nothing")
	assert.Equal(t, asset.NewCoin("token-b", 1000), reqs[0].Funds)
	assert.Equal(t, asset.NewCoin("token-c", 100), reqs[1].Funds, "capped at the action limit")
	assert.Equal(t, asset.NewCoin("token-d", 1000), reqs[2].Funds)
	assert.Equal(t, asset.NewCoin("token-e", 1000), reqs[3].Funds)

	// One crank record per issued operation, all completed.
	records, err := st.Cranks(ctx)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.Equal(t, store.CrankPhaseCompleted, rec.Phase)
	}
	assert.Equal(t, "t1", records[0].Token)
	assert.Equal(t, asset.Denom("token-b"), records[0].Denom)
}

func TestCrank_WeightedDistribution(t *testing.T) {
	cfg := testConfig()
	cfg.Targets = []asset.DistributionTarget{
		{Address: "fee-collector", Weight: 1},
		{Address: "another", Weight: 3},
	}
	eng, st, bank, _ := newTestEngine(t, cfg, map[asset.Denom]uint64{
		"token-a": 50,
		"ukuji":   1000,
		"another": 2000,
	}, "t1")
	ctx := context.Background()

	// One action so the crank takes the action branch and distributes
	// in the completion sweep.
	require.NoError(t, st.SetAction(ctx, asset.Action{
		Denom:    "token-a",
		Contract: "contract-a",
		Limit:    math.MaxUint64,
	}))

	require.NoError(t, eng.Crank(ctx, "executor"))

	assert.Equal(t, []asset.Transfer{
		{Address: "fee-collector", Coin: asset.NewCoin("ukuji", 250)},
		{Address: "another", Coin: asset.NewCoin("ukuji", 750)},
		{Address: "fee-collector", Coin: asset.NewCoin("another", 500)},
		{Address: "another", Coin: asset.NewCoin("another", 1500)},
	}, bank.Transfers())
}

func TestCrank_IssueFailure_StillSweeps(t *testing.T) {
	eng, st, bank, issuer := newTestEngine(t, testConfig(), map[asset.Denom]uint64{
		"token-a": 500,
		"ukuji":   400,
	}, "t1")
	issuer.Err = assert.AnError
	ctx := context.Background()

	require.NoError(t, st.SetAction(ctx, asset.Action{
		Denom:    "token-a",
		Contract: "contract-a",
		Limit:    math.MaxUint64,
	}))

	// The external operation fails, but the crank succeeds and the
	// completion sweep still distributes.
	require.NoError(t, eng.Crank(ctx, "executor"))

	require.Len(t, issuer.Requests(), 1)
	transfers := bank.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, asset.NewCoin("ukuji", 400), transfers[0].Coin)
}

func TestCrank_UndefinedSplit_SkipsDenom(t *testing.T) {
	cfg := testConfig()
	cfg.Targets = []asset.DistributionTarget{
		{Address: "fee-collector", Weight: 0},
	}
	eng, _, bank, _ := newTestEngine(t, cfg, map[asset.Denom]uint64{
		"ukuji": 1000,
	})

	// Zero total weight with a non-zero balance: the denom is skipped
	// with a warning, the crank does not fail.
	require.NoError(t, eng.Crank(context.Background(), "executor"))
	assert.Empty(t, bank.Transfers())
}

func TestComplete_SweepsCurrentBalances(t *testing.T) {
	eng, _, bank, _ := newTestEngine(t, testConfig(), map[asset.Denom]uint64{
		"ukuji":   100,
		"another": 9,
	})

	require.NoError(t, eng.Complete(context.Background()))

	assert.Equal(t, []asset.Transfer{
		{Address: "fee-collector", Coin: asset.NewCoin("ukuji", 100)},
		{Address: "fee-collector", Coin: asset.NewCoin("another", 9)},
	}, bank.Transfers())
}

func TestCrank_DeliveredFunds_SweptSameCrank(t *testing.T) {
	// The issuer simulates the external swap crediting the custody
	// account; the completion sweep sees the then-current balance.
	eng, st, bank, issuer := newTestEngine(t, testConfig(), map[asset.Denom]uint64{
		"token-a": 500,
	}, "t1")
	issuer.Deliver = func(req engine.Request) {
		bank.SetBalance("ukuji", 480)
	}
	ctx := context.Background()

	require.NoError(t, st.SetAction(ctx, asset.Action{
		Denom:    "token-a",
		Contract: "contract-a",
		Limit:    math.MaxUint64,
	}))

	require.NoError(t, eng.Crank(ctx, "executor"))

	transfers := bank.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, asset.NewCoin("ukuji", 480), transfers[0].Coin)
}
