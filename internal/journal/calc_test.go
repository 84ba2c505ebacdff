package journal

import (
	"testing"

	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLongTrade(t *testing.T) {
	t.Parallel()

	// 2% risk on a 1000 balance with a 50 pip stop and 100 pip target.
	d, err := Compute(Inputs{
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1100,
		RiskPercent: 2,
	}, 1000, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, d.RiskAmount, 1e-9)
	assert.InDelta(t, 4000.0, d.PositionSize, 1e-6)
	assert.InDelta(t, 40.0, d.PnL, 1e-6)
	assert.InDelta(t, 2.0, d.RRRatio, 1e-9)
	assert.InDelta(t, 4.0, d.ROI, 1e-6)
}

func TestComputeShortTradeFlipsSign(t *testing.T) {
	t.Parallel()

	d, err := Compute(Inputs{
		Direction:   types.Short,
		EntryPrice:  1.1000,
		StopLoss:    1.1050,
		ExitPrice:   1.1050,
		RiskPercent: 2,
	}, 1000, 1000)
	require.NoError(t, err)

	// Price moved against the short, so pnl is negative.
	assert.Negative(t, d.PnL)
	assert.InDelta(t, -20.0, d.PnL, 1e-6)

	// Same prices on a long would profit.
	dLong, err := Compute(Inputs{
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.0950,
		ExitPrice:   1.1050,
		RiskPercent: 2,
	}, 1000, 1000)
	require.NoError(t, err)
	assert.Positive(t, dLong.PnL)
}

func TestComputeRejectsEntryEqualStop(t *testing.T) {
	t.Parallel()

	_, err := Compute(Inputs{
		Direction:   types.Long,
		EntryPrice:  1.1000,
		StopLoss:    1.1000,
		ExitPrice:   1.1100,
		RiskPercent: 2,
	}, 1000, 1000)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestComputeInputValidation(t *testing.T) {
	t.Parallel()

	base := Inputs{
		Direction:   types.Long,
		EntryPrice:  1.1,
		StopLoss:    1.0,
		ExitPrice:   1.2,
		RiskPercent: 2,
	}

	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"bad direction", func(in *Inputs) { in.Direction = "SIDEWAYS" }},
		{"zero entry", func(in *Inputs) { in.EntryPrice = 0 }},
		{"negative stop", func(in *Inputs) { in.StopLoss = -1 }},
		{"zero exit", func(in *Inputs) { in.ExitPrice = 0 }},
		{"zero risk", func(in *Inputs) { in.RiskPercent = 0 }},
		{"risk above 100", func(in *Inputs) { in.RiskPercent = 150 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := Compute(in, 1000, 1000)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestComputeZeroInitialBalanceROI(t *testing.T) {
	t.Parallel()

	d, err := Compute(Inputs{
		Direction:   types.Long,
		EntryPrice:  1.1,
		StopLoss:    1.0,
		ExitPrice:   1.2,
		RiskPercent: 2,
	}, 1000, 0)
	require.NoError(t, err)
	assert.Zero(t, d.ROI)
}
