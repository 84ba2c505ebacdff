package catalog

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

func newTestDB(t *testing.T) (*gorm.DB, *types.Account) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	acct, err := account.NewService(db).Create("Demo", 1000, 100)
	require.NoError(t, err)
	return db, acct
}

func TestStrategyLifecycle(t *testing.T) {
	t.Parallel()

	db, acct := newTestDB(t)
	svc := NewService(db)

	first, err := svc.AddStrategy(acct.ID, "Breakout")
	require.NoError(t, err)
	_, err = svc.AddStrategy(acct.ID, "Reversion")
	require.NoError(t, err)

	_, err = svc.AddStrategy(acct.ID, "Breakout")
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	strategies, err := svc.ListStrategies(acct.ID)
	require.NoError(t, err)
	require.Len(t, strategies, 2)
	assert.Equal(t, "Breakout", strategies[0].Name)

	require.NoError(t, svc.DeleteStrategy(first.ID))
	strategies, err = svc.ListStrategies(acct.ID)
	require.NoError(t, err)
	assert.Len(t, strategies, 1)

	assert.ErrorIs(t, svc.DeleteStrategy(first.ID), apperr.ErrNotFound)
}

func TestInstrumentLifecycle(t *testing.T) {
	t.Parallel()

	db, acct := newTestDB(t)
	svc := NewService(db)

	_, err := svc.AddInstrument(acct.ID, "EURUSD")
	require.NoError(t, err)

	_, err = svc.AddInstrument(acct.ID, "EURUSD")
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	_, err = svc.AddInstrument(acct.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	instruments, err := svc.ListInstruments(acct.ID)
	require.NoError(t, err)
	assert.Len(t, instruments, 1)
}

func TestNamesScopedPerAccount(t *testing.T) {
	t.Parallel()

	db, acct := newTestDB(t)
	svc := NewService(db)

	other, err := account.NewService(db).Create("Other", 500, 50)
	require.NoError(t, err)

	_, err = svc.AddStrategy(acct.ID, "Breakout")
	require.NoError(t, err)

	// The same name under a different account is fine.
	_, err = svc.AddStrategy(other.ID, "Breakout")
	require.NoError(t, err)
}

func TestUnknownAccount(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)
	svc := NewService(db)

	_, err := svc.AddStrategy(9999, "Breakout")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ListInstruments(9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
