package stats

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/database"
	"github.com/ksred/trading-journal/internal/journal"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func trades(pnls ...float64) []types.Transaction {
	txns := make([]types.Transaction, len(pnls))
	for i, pnl := range pnls {
		txns[i] = types.Transaction{PnL: pnl, RRRatio: 2}
	}
	return txns
}

func TestComputeEmptySetIsAllZero(t *testing.T) {
	t.Parallel()

	s := Compute(nil)
	assert.Equal(t, Stats{}, s)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
}

func TestComputeAggregates(t *testing.T) {
	t.Parallel()

	s := Compute(trades(40, -10, 20, -30, 0))

	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, 20.0, s.TotalPnL, 1e-9)
	assert.InDelta(t, 60.0, s.TotalWins, 1e-9)
	assert.InDelta(t, 40.0, s.TotalLosses, 1e-9)
	assert.InDelta(t, 40.0, s.WinRate, 1e-9)
	assert.InDelta(t, 30.0, s.AvgWin, 1e-9)
	assert.InDelta(t, -20.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 1.5, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 2.0, s.AvgRRRatio, 1e-9)
}

func TestProfitFactorConventions(t *testing.T) {
	t.Parallel()

	// Wins without losses: unbounded.
	s := Compute(trades(10, 5))
	assert.True(t, math.IsInf(s.ProfitFactor, 1))

	// Neither wins nor losses: zero.
	s = Compute(trades(0, 0))
	assert.Zero(t, s.ProfitFactor)

	// Losses without wins: zero ratio.
	s = Compute(trades(-10))
	assert.Zero(t, s.ProfitFactor)
	assert.InDelta(t, -10.0, s.AvgLoss, 1e-9)
	assert.Zero(t, s.AvgWin)
}

func TestStatsMarshalUnboundedProfitFactor(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Compute(trades(10)))
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Nil(t, out["profit_factor"])
	assert.Equal(t, true, out["profit_factor_unbounded"])

	raw, err = json.Marshal(Compute(trades(10, -5)))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2.0, out["profit_factor"])
	assert.Equal(t, false, out["profit_factor_unbounded"])
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	return db
}

func TestServiceStrategyFilter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct, err := account.NewService(db).Create("Stats", 1000, 100)
	require.NoError(t, err)

	journalSvc := journal.NewService(db)
	add := func(strategy string, exit float64) {
		_, err := journalSvc.Add(acct.ID, journal.TradeInput{
			Instrument:  "EURUSD",
			Strategy:    strategy,
			Direction:   types.Long,
			EntryPrice:  1.1000,
			StopLoss:    1.0950,
			ExitPrice:   exit,
			RiskPercent: 1,
		})
		require.NoError(t, err)
	}
	add("Breakout", 1.1100) // win
	add("Breakout", 1.0900) // loss
	add("Reversion", 1.1100)

	svc := NewService(db)

	all, err := svc.ForAccount(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalTrades)

	breakout, err := svc.ForStrategy(acct.ID, "Breakout")
	require.NoError(t, err)
	assert.Equal(t, 2, breakout.TotalTrades)
	assert.Equal(t, 1, breakout.WinningTrades)
	assert.Equal(t, 1, breakout.LosingTrades)

	reversion, err := svc.ForStrategy(acct.ID, "Reversion")
	require.NoError(t, err)
	assert.Equal(t, 1, reversion.TotalTrades)
	assert.True(t, math.IsInf(reversion.ProfitFactor, 1))

	none, err := svc.ForStrategy(acct.ID, "Scalping")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, none)
}
