package account

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/ksred/trading-journal/pkg/response"
	"gorm.io/gorm"
)

// Service handles account lifecycle and balance maintenance
type Service struct {
	db *Database
}

// NewService creates a new account service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Create opens a new trading account. The current balance starts equal to
// the initial balance.
func (s *Service) Create(name string, initialBalance float64, leverage int) (*types.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperr.ErrValidation)
	}
	if initialBalance <= 0 {
		return nil, fmt.Errorf("%w: initial balance must be positive", apperr.ErrValidation)
	}
	if leverage < 1 {
		return nil, fmt.Errorf("%w: leverage must be at least 1", apperr.ErrValidation)
	}

	account := &types.Account{
		Name:           name,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
		Leverage:       leverage,
		CreatedAt:      time.Now(),
	}
	if err := s.db.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// List returns all accounts, most recent first.
func (s *Service) List() ([]types.Account, error) {
	return s.db.GetAccounts()
}

// Get retrieves an account by its ID
func (s *Service) Get(id uint) (*types.Account, error) {
	return s.db.GetAccount(id)
}

// UpdateBalance overwrites the account's current balance.
func (s *Service) UpdateBalance(id uint, balance float64) error {
	return s.db.UpdateBalance(id, balance)
}

// Delete removes the account and everything it owns.
func (s *Service) Delete(id uint) error {
	return s.db.DeleteAccount(id)
}

// GinHandlers contains HTTP handlers for account endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for account endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type createAccountRequest struct {
	Name           string  `json:"name" binding:"required"`
	InitialBalance float64 `json:"initial_balance" binding:"required"`
	Leverage       int     `json:"leverage"`
}

type updateBalanceRequest struct {
	Balance float64 `json:"balance" binding:"required"`
}

// CreateAccountHandler handles POST requests to open new accounts
func (h *GinHandlers) CreateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if req.Leverage == 0 {
			req.Leverage = 100
		}

		account, err := h.service.Create(req.Name, req.InitialBalance, req.Leverage)
		response.Handle(c, account, err)
	}
}

// ListAccountsHandler handles GET requests for all accounts
func (h *GinHandlers) ListAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := h.service.List()
		response.Handle(c, accounts, err)
	}
}

// GetAccountHandler handles GET requests for a single account
func (h *GinHandlers) GetAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamID(c, "account_id")
		if !ok {
			return
		}

		account, err := h.service.Get(id)
		response.Handle(c, account, err)
	}
}

// UpdateBalanceHandler handles PUT requests to overwrite an account balance
func (h *GinHandlers) UpdateBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamID(c, "account_id")
		if !ok {
			return
		}

		var req updateBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.UpdateBalance(id, req.Balance)
		response.Handle(c, gin.H{"id": id, "balance": req.Balance}, err)
	}
}

// DeleteAccountHandler handles DELETE requests for an account
func (h *GinHandlers) DeleteAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamID(c, "account_id")
		if !ok {
			return
		}

		err := h.service.Delete(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

// ParamID parses a numeric path parameter, responding with a 400 and
// returning ok=false when it is missing or malformed.
func ParamID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, fmt.Sprintf("invalid %s: %q", name, raw))
		return 0, false
	}
	return uint(id), true
}
