package journal

import (
	"fmt"

	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
)

// Inputs are the caller-supplied parameters of a trade. Everything else on
// a transaction is derived from these plus the account balances.
type Inputs struct {
	Direction   types.Direction
	EntryPrice  float64
	StopLoss    float64
	ExitPrice   float64
	RiskPercent float64
}

// Derived holds the write-time computed fields of a transaction.
type Derived struct {
	RiskAmount   float64
	PositionSize float64
	RewardAmount float64
	RRRatio      float64
	PnL          float64
	ROI          float64
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Compute derives position sizing and performance figures from the trade
// inputs and the owning account's balances.
//
// An entry price equal to the stop loss is rejected outright: the position
// size division would otherwise produce Inf and poison every figure
// downstream.
func Compute(in Inputs, currentBalance, initialBalance float64) (Derived, error) {
	var d Derived

	if !in.Direction.Valid() {
		return d, fmt.Errorf("%w: direction must be LONG or SHORT", apperr.ErrValidation)
	}
	if in.EntryPrice <= 0 || in.StopLoss <= 0 || in.ExitPrice <= 0 {
		return d, fmt.Errorf("%w: prices must be positive", apperr.ErrValidation)
	}
	if in.RiskPercent <= 0 || in.RiskPercent > 100 {
		return d, fmt.Errorf("%w: risk percent must be in (0, 100]", apperr.ErrValidation)
	}
	if in.EntryPrice == in.StopLoss {
		return d, fmt.Errorf("%w: entry price must differ from stop loss", apperr.ErrValidation)
	}

	d.RiskAmount = currentBalance * in.RiskPercent / 100
	d.PositionSize = d.RiskAmount / abs(in.EntryPrice-in.StopLoss)

	move := in.ExitPrice - in.EntryPrice
	if in.Direction == types.Short {
		move = -move
	}
	d.PnL = move * d.PositionSize
	d.RewardAmount = abs(in.ExitPrice-in.EntryPrice) * d.PositionSize

	if d.RiskAmount > 0 {
		d.RRRatio = d.RewardAmount / d.RiskAmount
	}
	if initialBalance > 0 {
		d.ROI = d.PnL / initialBalance * 100
	}

	return d, nil
}
