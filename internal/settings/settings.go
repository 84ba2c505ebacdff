// Package settings is a freeform key-value store for long-form user text,
// e.g. trading rules or a mistakes log.
package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/ksred/trading-journal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

// NewService creates a new settings service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: gormDB}
}

// Set writes a setting, replacing any previous value for the key.
func (s *Service) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: setting key is required", apperr.ErrValidation)
	}

	setting := types.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// Get reads a setting by key.
func (s *Service) Get(key string) (*types.Setting, error) {
	var setting types.Setting
	if err := s.db.First(&setting, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: setting %q", apperr.ErrNotFound, key)
		}
		return nil, err
	}
	return &setting, nil
}

// GinHandlers contains HTTP handlers for settings endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for settings endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type setRequest struct {
	Value string `json:"value"`
}

// SetHandler handles PUT requests to upsert a setting
func (h *GinHandlers) SetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		var req setRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.Set(key, req.Value)
		response.Handle(c, gin.H{"key": key}, err)
	}
}

// GetHandler handles GET requests for a setting
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")

		setting, err := h.service.Get(key)
		response.Handle(c, setting, err)
	}
}
