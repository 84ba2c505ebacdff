package settings

import (
	"path/filepath"
	"testing"

	"github.com/ksred/trading-journal/internal/database"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	return NewService(db)
}

func TestSetAndGet(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	require.NoError(t, svc.Set("trading_rules", "never move the stop"))

	setting, err := svc.Get("trading_rules")
	require.NoError(t, err)
	assert.Equal(t, "never move the stop", setting.Value)
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	require.NoError(t, svc.Set("mistakes_log", "chased entries"))
	require.NoError(t, svc.Set("mistakes_log", "chased entries; oversized"))

	setting, err := svc.Get("mistakes_log")
	require.NoError(t, err)
	assert.Equal(t, "chased entries; oversized", setting.Value)
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, err := svc.Get("nothing_here")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetEmptyKey(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	assert.ErrorIs(t, svc.Set("", "value"), apperr.ErrValidation)
}
