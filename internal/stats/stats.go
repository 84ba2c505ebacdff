// Package stats derives aggregate performance figures from a set of
// recorded trades. Compute is pure; the service only loads the transaction
// set for it.
package stats

import (
	"encoding/json"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/journal"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/response"
	"gorm.io/gorm"
)

// Stats holds the aggregate performance of a transaction set. An empty set
// yields the zero value, never an error. ProfitFactor is +Inf when there
// are wins but no losses.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalWins     float64 `json:"total_wins"`
	TotalLosses   float64 `json:"total_losses"`
	WinRate       float64 `json:"win_rate"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	AvgRRRatio    float64 `json:"avg_rr_ratio"`
}

// MarshalJSON renders the stats with an explicit marker for an unbounded
// profit factor, since JSON cannot carry Inf.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		alias
		ProfitFactor          *float64 `json:"profit_factor"`
		ProfitFactorUnbounded bool     `json:"profit_factor_unbounded"`
	}{alias: alias(s)}

	if math.IsInf(s.ProfitFactor, 1) {
		out.ProfitFactorUnbounded = true
	} else {
		pf := s.ProfitFactor
		out.ProfitFactor = &pf
	}
	return json.Marshal(out)
}

// Compute aggregates a transaction set.
func Compute(txns []types.Transaction) Stats {
	var s Stats

	var rrSum float64
	for _, t := range txns {
		s.TotalTrades++
		s.TotalPnL += t.PnL
		rrSum += t.RRRatio

		switch {
		case t.PnL > 0:
			s.WinningTrades++
			s.TotalWins += t.PnL
		case t.PnL < 0:
			s.LosingTrades++
			s.TotalLosses += -t.PnL
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.AvgRRRatio = rrSum / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = s.TotalWins / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		// AvgLoss keeps its sign: the mean of the losing pnl values.
		s.AvgLoss = -s.TotalLosses / float64(s.LosingTrades)
	}

	switch {
	case s.TotalLosses > 0:
		s.ProfitFactor = s.TotalWins / s.TotalLosses
	case s.TotalWins > 0:
		s.ProfitFactor = math.Inf(1)
	}

	return s
}

// Service loads transaction sets and derives their statistics.
type Service struct {
	db *journal.Database
}

// NewService creates a new statistics service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: journal.NewDatabase(gormDB),
	}
}

// ForAccount computes statistics over all of an account's trades.
func (s *Service) ForAccount(accountID uint) (Stats, error) {
	if _, err := s.db.GetAccount(accountID); err != nil {
		return Stats{}, err
	}
	txns, err := s.db.GetTransactions(accountID)
	if err != nil {
		return Stats{}, err
	}
	return Compute(txns), nil
}

// ForStrategy computes statistics over an account's trades for one strategy.
func (s *Service) ForStrategy(accountID uint, strategy string) (Stats, error) {
	if _, err := s.db.GetAccount(accountID); err != nil {
		return Stats{}, err
	}
	txns, err := s.db.GetTransactionsByStrategy(accountID, strategy)
	if err != nil {
		return Stats{}, err
	}
	return Compute(txns), nil
}

// GinHandlers contains HTTP handlers for statistics endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for statistics endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// StatsHandler handles GET requests for account statistics, optionally
// filtered with ?strategy=
func (h *GinHandlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		var (
			stats Stats
			err   error
		)
		if strategy := c.Query("strategy"); strategy != "" {
			stats, err = h.service.ForStrategy(accountID, strategy)
		} else {
			stats, err = h.service.ForAccount(accountID)
		}
		response.Handle(c, stats, err)
	}
}
