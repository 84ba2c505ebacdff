package account

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

func (d *Database) CreateAccount(account *types.Account) error {
	if err := d.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: account %q", apperr.ErrDuplicateName, account.Name)
		}
		return err
	}
	return nil
}

// GetAccounts returns all accounts ordered by most recently created.
func (d *Database) GetAccounts() ([]types.Account, error) {
	var accounts []types.Account
	if err := d.db.Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (d *Database) GetAccount(id uint) (*types.Account, error) {
	var account types.Account
	if err := d.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) UpdateBalance(id uint, balance float64) error {
	res := d.db.Model(&types.Account{}).Where("id = ?", id).Update("current_balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %d", apperr.ErrNotFound, id)
	}
	return nil
}

// DeleteAccount removes the account. Transactions, strategies, instruments
// and the whole tag tree owned by the account go with it via the declared
// cascade constraints.
func (d *Database) DeleteAccount(id uint) error {
	res := d.db.Delete(&types.Account{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %d", apperr.ErrNotFound, id)
	}
	return nil
}
