package catalog

import (
	"errors"
	"fmt"

	"github.com/ksred/trading-journal/internal/types"
	"github.com/ksred/trading-journal/pkg/apperr"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) AccountExists(id uint) error {
	var account types.Account
	if err := d.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %d", apperr.ErrNotFound, id)
		}
		return err
	}
	return nil
}

func (d *Database) CreateStrategy(strategy *types.Strategy) error {
	if err := d.db.Create(strategy).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: strategy %q", apperr.ErrDuplicateName, strategy.Name)
		}
		return err
	}
	return nil
}

// GetStrategies returns an account's strategies in creation order.
func (d *Database) GetStrategies(accountID uint) ([]types.Strategy, error) {
	var strategies []types.Strategy
	if err := d.db.Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}

func (d *Database) DeleteStrategy(id uint) error {
	res := d.db.Delete(&types.Strategy{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: strategy %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (d *Database) CreateInstrument(instrument *types.Instrument) error {
	if err := d.db.Create(instrument).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: instrument %q", apperr.ErrDuplicateName, instrument.Name)
		}
		return err
	}
	return nil
}

// GetInstruments returns an account's instruments in creation order.
func (d *Database) GetInstruments(accountID uint) ([]types.Instrument, error) {
	var instruments []types.Instrument
	if err := d.db.Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&instruments).Error; err != nil {
		return nil, err
	}
	return instruments, nil
}

func (d *Database) DeleteInstrument(id uint) error {
	res := d.db.Delete(&types.Instrument{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: instrument %d", apperr.ErrNotFound, id)
	}
	return nil
}
