package journal

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/ksred/trading-journal/pkg/response"
	"gorm.io/gorm"
)

// Service records trades against accounts and keeps the account balance in
// step with the recorded pnl.
type Service struct {
	db *Database
}

// NewService creates a new journal service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// TradeInput carries the caller-supplied fields of a trade. Date is the
// trade date, distinct from row insertion time; an empty date means today.
type TradeInput struct {
	Instrument  string          `json:"instrument" binding:"required"`
	Strategy    string          `json:"strategy" binding:"required"`
	Direction   types.Direction `json:"direction" binding:"required"`
	EntryPrice  float64         `json:"entry_price" binding:"required"`
	StopLoss    float64         `json:"stop_loss" binding:"required"`
	ExitPrice   float64         `json:"exit_price" binding:"required"`
	RiskPercent float64         `json:"risk_percent" binding:"required"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes"`
}

func parseTradeDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid trade date %q", apperr.ErrValidation, raw)
}

// Add records a trade. Derived fields are computed from the inputs and the
// account's balances, and the account's current balance moves by the trade's
// pnl in the same database transaction.
func (s *Service) Add(accountID uint, in TradeInput) (*types.Transaction, error) {
	acct, err := s.db.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	tradeDate, err := parseTradeDate(in.Date)
	if err != nil {
		return nil, err
	}

	derived, err := Compute(Inputs{
		Direction:   in.Direction,
		EntryPrice:  in.EntryPrice,
		StopLoss:    in.StopLoss,
		ExitPrice:   in.ExitPrice,
		RiskPercent: in.RiskPercent,
	}, acct.CurrentBalance, acct.InitialBalance)
	if err != nil {
		return nil, err
	}

	txn := &types.Transaction{
		AccountID:    accountID,
		Instrument:   in.Instrument,
		Strategy:     in.Strategy,
		Direction:    in.Direction,
		EntryPrice:   in.EntryPrice,
		StopLoss:     in.StopLoss,
		ExitPrice:    in.ExitPrice,
		RiskPercent:  in.RiskPercent,
		RiskAmount:   derived.RiskAmount,
		PositionSize: derived.PositionSize,
		RRRatio:      derived.RRRatio,
		PnL:          derived.PnL,
		ROI:          derived.ROI,
		Notes:        in.Notes,
		CreatedAt:    tradeDate,
	}

	if err := s.db.CreateWithBalance(txn, acct.CurrentBalance+derived.PnL); err != nil {
		return nil, err
	}
	return txn, nil
}

// Get retrieves a transaction by its ID
func (s *Service) Get(id uint) (*types.Transaction, error) {
	return s.db.GetTransaction(id)
}

// List returns an account's transactions ordered by trade date descending.
func (s *Service) List(accountID uint) ([]types.Transaction, error) {
	if _, err := s.db.GetAccount(accountID); err != nil {
		return nil, err
	}
	return s.db.GetTransactions(accountID)
}

// Update re-derives all computed fields from the edited inputs and adjusts
// the account balance by the pnl delta.
func (s *Service) Update(id uint, in TradeInput) (*types.Transaction, error) {
	txn, err := s.db.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	acct, err := s.db.GetAccount(txn.AccountID)
	if err != nil {
		return nil, err
	}

	tradeDate, err := parseTradeDate(in.Date)
	if err != nil {
		return nil, err
	}

	derived, err := Compute(Inputs{
		Direction:   in.Direction,
		EntryPrice:  in.EntryPrice,
		StopLoss:    in.StopLoss,
		ExitPrice:   in.ExitPrice,
		RiskPercent: in.RiskPercent,
	}, acct.CurrentBalance, acct.InitialBalance)
	if err != nil {
		return nil, err
	}

	oldPnL := txn.PnL

	txn.Instrument = in.Instrument
	txn.Strategy = in.Strategy
	txn.Direction = in.Direction
	txn.EntryPrice = in.EntryPrice
	txn.StopLoss = in.StopLoss
	txn.ExitPrice = in.ExitPrice
	txn.RiskPercent = in.RiskPercent
	txn.RiskAmount = derived.RiskAmount
	txn.PositionSize = derived.PositionSize
	txn.RRRatio = derived.RRRatio
	txn.PnL = derived.PnL
	txn.ROI = derived.ROI
	txn.Notes = in.Notes
	txn.CreatedAt = tradeDate

	if err := s.db.SaveWithBalance(txn, acct.CurrentBalance+derived.PnL-oldPnL); err != nil {
		return nil, err
	}
	return txn, nil
}

// Delete removes a transaction and subtracts its pnl from the account
// balance.
func (s *Service) Delete(id uint) error {
	txn, err := s.db.GetTransaction(id)
	if err != nil {
		return err
	}
	acct, err := s.db.GetAccount(txn.AccountID)
	if err != nil {
		return err
	}
	return s.db.DeleteWithBalance(txn, acct.CurrentBalance-txn.PnL)
}

// UpdateNotes replaces the freeform notes on a transaction.
func (s *Service) UpdateNotes(id uint, notes string) error {
	return s.db.UpdateNotes(id, notes)
}

// GinHandlers contains HTTP handlers for journal endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for journal endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// AddTransactionHandler handles POST requests to record a trade
func (h *GinHandlers) AddTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		var in TradeInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		txn, err := h.service.Add(accountID, in)
		response.Handle(c, txn, err)
	}
}

// ListTransactionsHandler handles GET requests for an account's trades
func (h *GinHandlers) ListTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		txns, err := h.service.List(accountID)
		response.Handle(c, txns, err)
	}
}

// GetTransactionHandler handles GET requests for a single trade
func (h *GinHandlers) GetTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		txn, err := h.service.Get(id)
		response.Handle(c, txn, err)
	}
}

// UpdateTransactionHandler handles PUT requests to edit a trade
func (h *GinHandlers) UpdateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		var in TradeInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		txn, err := h.service.Update(id, in)
		response.Handle(c, txn, err)
	}
}

// DeleteTransactionHandler handles DELETE requests for a trade
func (h *GinHandlers) DeleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		err := h.service.Delete(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

// UpdateNotesHandler handles PUT requests for a trade's notes
func (h *GinHandlers) UpdateNotesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		var req notesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.UpdateNotes(id, req.Notes)
		response.Handle(c, gin.H{"id": id, "notes": req.Notes}, err)
	}
}
