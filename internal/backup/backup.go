// Package backup exports and imports the entire store as a single JSON
// snapshot. Import replaces every table wholesale; callers must re-query
// all state afterwards.
package backup

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"github.com/ksred/trading-journal/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SchemaVersion tags snapshots so an import can refuse payloads written by
// an incompatible schema.
const SchemaVersion = 1

// Snapshot is the full contents of the store.
type Snapshot struct {
	SnapshotID    string    `json:"snapshot_id"`
	SchemaVersion int       `json:"schema_version"`
	ExportedAt    time.Time `json:"exported_at"`

	Accounts             []types.Account             `json:"accounts"`
	Transactions         []types.Transaction         `json:"transactions"`
	Strategies           []types.Strategy            `json:"strategies"`
	Instruments          []types.Instrument          `json:"instruments"`
	TagDefinitions       []types.TagDefinition       `json:"tag_definitions"`
	TagFields            []types.TagField            `json:"tag_fields"`
	TransactionTags      []types.TransactionTag      `json:"transaction_tags"`
	TransactionTagValues []types.TransactionTagValue `json:"transaction_tag_values"`
	Settings             []types.Setting             `json:"settings"`
}

type Service struct {
	db *gorm.DB
}

// NewService creates a new backup service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: gormDB}
}

// Export reads every table into a snapshot.
func (s *Service) Export() (*Snapshot, error) {
	snap := &Snapshot{
		SnapshotID:    uuid.New().String(),
		SchemaVersion: SchemaVersion,
		ExportedAt:    time.Now(),
	}

	reads := []struct {
		dest  interface{}
		order string
	}{
		{&snap.Accounts, "id"},
		{&snap.Transactions, "id"},
		{&snap.Strategies, "id"},
		{&snap.Instruments, "id"},
		{&snap.TagDefinitions, "id"},
		{&snap.TagFields, "id"},
		{&snap.TransactionTags, "id"},
		{&snap.TransactionTagValues, "id"},
		{&snap.Settings, "key"},
	}
	for _, r := range reads {
		if err := s.db.Order(r.order).Find(r.dest).Error; err != nil {
			return nil, fmt.Errorf("%w: export: %v", apperr.ErrPersistence, err)
		}
	}

	return snap, nil
}

// Import replaces the entire store with the snapshot's contents inside one
// database transaction. IDs are preserved so references survive the round
// trip.
func (s *Service) Import(snap *Snapshot) error {
	if snap.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: snapshot schema version %d, want %d",
			apperr.ErrValidation, snap.SchemaVersion, SchemaVersion)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Children first so foreign keys never dangle mid-import.
		wipe := []interface{}{
			&types.TransactionTagValue{},
			&types.TransactionTag{},
			&types.TagField{},
			&types.TagDefinition{},
			&types.Instrument{},
			&types.Strategy{},
			&types.Transaction{},
			&types.Account{},
			&types.Setting{},
		}
		for _, model := range wipe {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}

		// Parents first on the way back in.
		if len(snap.Accounts) > 0 {
			if err := tx.Create(&snap.Accounts).Error; err != nil {
				return err
			}
		}
		if len(snap.Transactions) > 0 {
			if err := tx.Create(&snap.Transactions).Error; err != nil {
				return err
			}
		}
		if len(snap.Strategies) > 0 {
			if err := tx.Create(&snap.Strategies).Error; err != nil {
				return err
			}
		}
		if len(snap.Instruments) > 0 {
			if err := tx.Create(&snap.Instruments).Error; err != nil {
				return err
			}
		}
		if len(snap.TagDefinitions) > 0 {
			if err := tx.Create(&snap.TagDefinitions).Error; err != nil {
				return err
			}
		}
		if len(snap.TagFields) > 0 {
			if err := tx.Create(&snap.TagFields).Error; err != nil {
				return err
			}
		}
		if len(snap.TransactionTags) > 0 {
			if err := tx.Create(&snap.TransactionTags).Error; err != nil {
				return err
			}
		}
		if len(snap.TransactionTagValues) > 0 {
			if err := tx.Create(&snap.TransactionTagValues).Error; err != nil {
				return err
			}
		}
		if len(snap.Settings) > 0 {
			if err := tx.Create(&snap.Settings).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: import: %v", apperr.ErrPersistence, err)
	}

	log.Info().
		Str("component", "backup").
		Str("snapshot_id", snap.SnapshotID).
		Int("accounts", len(snap.Accounts)).
		Int("transactions", len(snap.Transactions)).
		Msg("store replaced from snapshot")
	return nil
}

// GinHandlers contains HTTP handlers for backup endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for backup endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ExportHandler handles GET requests for a full-store snapshot
func (h *GinHandlers) ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := h.service.Export()
		response.Handle(c, snap, err)
	}
}

// ImportHandler handles POST requests that replace the store with a
// previously exported snapshot
func (h *GinHandlers) ImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var snap Snapshot
		if err := c.ShouldBindJSON(&snap); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.Import(&snap)
		response.Handle(c, gin.H{"snapshot_id": snap.SnapshotID, "imported": err == nil}, err)
	}
}
