package account

import (
	"path/filepath"
	"testing"
	"time"

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

func TestCreateAndGetAccount(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))

	acct, err := svc.Create("Demo", 1000, 100)
	require.NoError(t, err)
	assert.NotZero(t, acct.ID)
	assert.Equal(t, 1000.0, acct.InitialBalance)
	assert.Equal(t, 1000.0, acct.CurrentBalance)

	got, err := svc.Get(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.Name)
}

func TestCreateDuplicateName(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))

	_, err := svc.Create("Demo", 1000, 100)
	require.NoError(t, err)

	_, err = svc.Create("Demo", 2000, 50)
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))

	_, err := svc.Create("", 1000, 100)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create("Demo", 0, 100)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create("Demo", 1000, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListOrdersByRecency(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	// Stagger created_at so the ordering is deterministic.
	for i, name := range []string{"First", "Second", "Third"} {
		acct := &types.Account{
			Name:           name,
			InitialBalance: 1000,
			CurrentBalance: 1000,
			Leverage:       100,
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(acct).Error)
	}

	accounts, err := svc.List()
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Third", accounts[0].Name)
	assert.Equal(t, "First", accounts[2].Name)
}

func TestUpdateBalance(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))

	acct, err := svc.Create("Demo", 1000, 100)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateBalance(acct.ID, 1234.5))

	got, err := svc.Get(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, got.CurrentBalance)

	assert.ErrorIs(t, svc.UpdateBalance(9999, 1), apperr.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	acct, err := svc.Create("Demo", 1000, 100)
	require.NoError(t, err)

	// Seed dependents directly; the cascade is a schema property.
	txn := &types.Transaction{
		AccountID:  acct.ID,
		Instrument: "EURUSD",
		Strategy:   "Breakout",
		Direction:  types.Long,
		EntryPrice: 1.1, StopLoss: 1.0, ExitPrice: 1.2,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(txn).Error)
	require.NoError(t, db.Create(&types.Strategy{AccountID: acct.ID, Name: "Breakout", CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&types.Instrument{AccountID: acct.ID, Name: "EURUSD", CreatedAt: time.Now()}).Error)
	def := &types.TagDefinition{AccountID: acct.ID, Name: "Setup", Category: types.CategoryOther, CreatedAt: time.Now()}
	require.NoError(t, db.Create(def).Error)

	require.NoError(t, svc.Delete(acct.ID))

	_, err = svc.Get(acct.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for model, name := range map[interface{}]string{
		&types.Transaction{}:   "transactions",
		&types.Strategy{}:      "strategies",
		&types.Instrument{}:    "instruments",
		&types.TagDefinition{}: "tag definitions",
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "expected no %s to survive account deletion", name)
	}

	assert.ErrorIs(t, svc.Delete(acct.ID), apperr.ErrNotFound)
}
