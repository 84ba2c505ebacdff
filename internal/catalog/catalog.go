// Package catalog manages the per-account labeled sets: strategies and
// instruments. Names are unique within an account.
package catalog

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

type Service struct {
	db *Database
}

// NewService creates a new catalog service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// AddStrategy registers a named strategy under the account.
func (s *Service) AddStrategy(accountID uint, name string) (*types.Strategy, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: strategy name is required", apperr.ErrValidation)
	}
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}

	strategy := &types.Strategy{
		AccountID: accountID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateStrategy(strategy); err != nil {
		return nil, err
	}
	return strategy, nil
}

// ListStrategies returns the account's strategies in creation order.
func (s *Service) ListStrategies(accountID uint) ([]types.Strategy, error) {
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}
	return s.db.GetStrategies(accountID)
}

// DeleteStrategy removes a strategy label. Transactions keep their strategy
// string; the label set only drives input choices.
func (s *Service) DeleteStrategy(id uint) error {
	return s.db.DeleteStrategy(id)
}

// AddInstrument registers a named instrument under the account.
func (s *Service) AddInstrument(accountID uint, name string) (*types.Instrument, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: instrument name is required", apperr.ErrValidation)
	}
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}

	instrument := &types.Instrument{
		AccountID: accountID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateInstrument(instrument); err != nil {
		return nil, err
	}
	return instrument, nil
}

// ListInstruments returns the account's instruments in creation order.
func (s *Service) ListInstruments(accountID uint) ([]types.Instrument, error) {
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}
	return s.db.GetInstruments(accountID)
}

// DeleteInstrument removes an instrument label.
func (s *Service) DeleteInstrument(id uint) error {
	return s.db.DeleteInstrument(id)
}

// GinHandlers contains HTTP handlers for strategy and instrument endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for catalog endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddStrategyHandler handles POST requests to register a strategy
func (h *GinHandlers) AddStrategyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		strategy, err := h.service.AddStrategy(accountID, req.Name)
		response.Handle(c, strategy, err)
	}
}

// ListStrategiesHandler handles GET requests for an account's strategies
func (h *GinHandlers) ListStrategiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		strategies, err := h.service.ListStrategies(accountID)
		response.Handle(c, strategies, err)
	}
}

// DeleteStrategyHandler handles DELETE requests for a strategy
func (h *GinHandlers) DeleteStrategyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "strategy_id")
		if !ok {
			return
		}

		err := h.service.DeleteStrategy(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

// AddInstrumentHandler handles POST requests to register an instrument
func (h *GinHandlers) AddInstrumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		instrument, err := h.service.AddInstrument(accountID, req.Name)
		response.Handle(c, instrument, err)
	}
}

// ListInstrumentsHandler handles GET requests for an account's instruments
func (h *GinHandlers) ListInstrumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		instruments, err := h.service.ListInstruments(accountID)
		response.Handle(c, instruments, err)
	}
}

// DeleteInstrumentHandler handles DELETE requests for an instrument
func (h *GinHandlers) DeleteInstrumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "instrument_id")
		if !ok {
			return
		}

		err := h.service.DeleteInstrument(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}
