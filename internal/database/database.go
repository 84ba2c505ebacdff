package database

import (
	"fmt"

	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the SQLite store at path and migrates the schema.
// Foreign keys are enabled so that GORM's declared cascade constraints are
// enforced by the engine. A store that cannot be opened or migrated is
// reported as a persistence failure; callers must treat this as fatal at
// startup.
func NewDatabase(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperr.ErrPersistence, path, err)
	}

	err = db.AutoMigrate(
		&types.Account{},
		&types.Transaction{},
		&types.Strategy{},
		&types.Instrument{},
		&types.TagDefinition{},
		&types.TagField{},
		&types.TransactionTag{},
		&types.TransactionTagValue{},
		&types.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: migrate schema: %v", apperr.ErrPersistence, err)
	}

	return db, nil
}
