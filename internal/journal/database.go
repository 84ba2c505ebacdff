package journal

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

func (d *Database) GetTransaction(id uint) (*types.Transaction, error) {
	var txn types.Transaction
	if err := d.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &txn, nil
}

// GetTransactions returns an account's transactions, most recent trade first.
func (d *Database) GetTransactions(accountID uint) ([]types.Transaction, error) {
	var txns []types.Transaction
	if err := d.db.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// GetTransactionsByStrategy returns an account's transactions for a single
// strategy, most recent trade first.
func (d *Database) GetTransactionsByStrategy(accountID uint, strategy string) ([]types.Transaction, error) {
	var txns []types.Transaction
	if err := d.db.Where("account_id = ? AND strategy = ?", accountID, strategy).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// CreateWithBalance inserts the transaction and sets the owning account's
// current balance in a single database transaction, keeping the balance
// invariant intact even if one of the writes fails.
func (d *Database) CreateWithBalance(txn *types.Transaction, newBalance float64) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(txn).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&types.Account{}).
		Where("id = ?", txn.AccountID).
		Update("current_balance", newBalance).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// SaveWithBalance persists an edited transaction together with the adjusted
// account balance.
func (d *Database) SaveWithBalance(txn *types.Transaction, newBalance float64) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(txn).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&types.Account{}).
		Where("id = ?", txn.AccountID).
		Update("current_balance", newBalance).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// DeleteWithBalance removes the transaction and rolls its pnl out of the
// account balance atomically. Tag instances on the transaction cascade.
func (d *Database) DeleteWithBalance(txn *types.Transaction, newBalance float64) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Delete(&types.Transaction{}, txn.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&types.Account{}).
		Where("id = ?", txn.AccountID).
		Update("current_balance", newBalance).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetAccount retrieves the owning account for balance maintenance.
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

func (d *Database) UpdateNotes(id uint, notes string) error {
	res := d.db.Model(&types.Transaction{}).Where("id = ?", id).Update("notes", notes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %d", apperr.ErrNotFound, id)
	}
	return nil
}
