package journal

import (
	"path/filepath"
	"testing"

	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/database"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	return db
}

func newTestAccount(t *testing.T, db *gorm.DB, balance float64) *types.Account {
	t.Helper()

	acct, err := account.NewService(db).Create("Demo", balance, 100)
	require.NoError(t, err)
	return acct
}

// checkBalanceInvariant asserts that the account's current balance equals
// its initial balance plus the sum of its transactions' pnl.
func checkBalanceInvariant(t *testing.T, db *gorm.DB, accountID uint) {
	t.Helper()

	acct, err := account.NewService(db).Get(accountID)
	require.NoError(t, err)

	txns, err := NewService(db).List(accountID)
	require.NoError(t, err)

	var sum float64
	for _, txn := range txns {
		sum += txn.PnL
	}
	assert.InDelta(t, acct.InitialBalance+sum, acct.CurrentBalance, 1e-6)
}

func TestAddTransactionScenario(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)
	svc := NewService(db)

	txn, err := svc.Add(acct.ID, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1100,
		RiskPercent: 2,
		Date:        "2024-03-01",
	})
	require.NoError(t, err)

	assert.InDelta(t, 20.0, txn.RiskAmount, 1e-9)
	assert.InDelta(t, 4000.0, txn.PositionSize, 1e-6)
	assert.InDelta(t, 40.0, txn.PnL, 1e-6)
	assert.InDelta(t, 2.0, txn.RRRatio, 1e-9)

	updated, err := account.NewService(db).Get(acct.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1040.0, updated.CurrentBalance, 1e-6)

	checkBalanceInvariant(t, db, acct.ID)
}

func TestBalanceInvariantAcrossEdits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)
	svc := NewService(db)

	in := TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1100,
		RiskPercent: 2,
		Date:        "2024-03-01",
	}

	first, err := svc.Add(acct.ID, in)
	require.NoError(t, err)
	checkBalanceInvariant(t, db, acct.ID)

	in.Date = "2024-03-02"
	second, err := svc.Add(acct.ID, in)
	require.NoError(t, err)
	checkBalanceInvariant(t, db, acct.ID)

	// Edit the first trade into a loser.
	edit := in
	edit.ExitPrice = 1.0900
	edit.Date = "2024-03-01"
	_, err = svc.Update(first.ID, edit)
	require.NoError(t, err)
	checkBalanceInvariant(t, db, acct.ID)

	// Delete the second trade.
	require.NoError(t, svc.Delete(second.ID))
	checkBalanceInvariant(t, db, acct.ID)

	txns, err := svc.List(acct.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)
	svc := NewService(db)

	txn, err := svc.Add(acct.ID, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1100,
		RiskPercent: 2,
	})
	require.NoError(t, err)
	oldPnL := txn.PnL

	edited, err := svc.Update(txn.ID, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Short,
		EntryPrice:  1.1000,
		StopLoss:    1.1050,
		ExitPrice:   1.0900,
		RiskPercent: 2,
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldPnL, edited.PnL)
	assert.Positive(t, edited.PnL)
	assert.Positive(t, edited.PositionSize)
	checkBalanceInvariant(t, db, acct.ID)
}

func TestListOrdersByTradeDateDescending(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)
	svc := NewService(db)

	for _, date := range []string{"2024-01-02", "2024-03-01", "2024-02-10"} {
		_, err := svc.Add(acct.ID, TradeInput{
			Instrument:  "EURUSD",
			Strategy:    "Breakout",
			Direction:   types.Long,
			EntryPrice:  1.1000,
			StopLoss:    1.0950,
			ExitPrice:   1.1100,
			RiskPercent: 1,
			Date:        date,
		})
		require.NoError(t, err)
	}

	txns, err := svc.List(acct.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.True(t, txns[0].CreatedAt.After(txns[1].CreatedAt))
	assert.True(t, txns[1].CreatedAt.After(txns[2].CreatedAt))
}

func TestAddRejectsEntryEqualStop(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)

	_, err := NewService(db).Add(acct.ID, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.1000,
		ExitPrice:   1.1100,
		RiskPercent: 2,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// The failed add must not move the balance.
	acctAfter, err := account.NewService(db).Get(acct.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, acctAfter.CurrentBalance, 1e-9)
}

func TestUpdateNotes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	acct := newTestAccount(t, db, 1000)
	svc := NewService(db)

	txn, err := svc.Add(acct.ID, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1100,
		RiskPercent: 2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateNotes(txn.ID, "entered too early"))

	got, err := svc.Get(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "entered too early", got.Notes)

	assert.ErrorIs(t, svc.UpdateNotes(9999, "x"), apperr.ErrNotFound)
}

func TestOperationsOnMissingRecords(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Get(42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.List(42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Add(42, TradeInput{
		Instrument:  "EURUSD",
		Strategy:    "Breakout",
		Direction:   types.Long,
		EntryPrice:  1.1,
		StopLoss:    1.0,
		ExitPrice:   1.2,
		RiskPercent: 1,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(42), apperr.ErrNotFound)
}
