package tags

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

func (d *Database) TransactionExists(id uint) error {
	var txn types.Transaction
	if err := d.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: transaction %d", apperr.ErrNotFound, id)
		}
		return err
	}
	return nil
}

func (d *Database) CreateDefinition(def *types.TagDefinition) error {
	if err := d.db.Create(def).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: tag %q", apperr.ErrDuplicateName, def.Name)
		}
		return err
	}
	return nil
}

// GetDefinitions returns an account's tag definitions ordered by category
// then name. An empty category returns all categories.
func (d *Database) GetDefinitions(accountID uint, category types.TagCategory) ([]types.TagDefinition, error) {
	q := d.db.Where("account_id = ?", accountID)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var defs []types.TagDefinition
	if err := q.Order("category, name").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (d *Database) GetDefinition(id uint) (*types.TagDefinition, error) {
	var def types.TagDefinition
	if err := d.db.First(&def, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tag definition %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &def, nil
}

// DeleteDefinition removes a tag definition. Its fields, all transaction
// tags referencing it and their values cascade.
func (d *Database) DeleteDefinition(id uint) error {
	res := d.db.Delete(&types.TagDefinition{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tag definition %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (d *Database) CreateField(field *types.TagField) error {
	return d.db.Create(field).Error
}

// GetFields returns a definition's fields in display order.
func (d *Database) GetFields(tagDefinitionID uint) ([]types.TagField, error) {
	var fields []types.TagField
	if err := d.db.Where("tag_definition_id = ?", tagDefinitionID).
		Order("display_order, id").
		Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (d *Database) GetField(id uint) (*types.TagField, error) {
	var field types.TagField
	if err := d.db.First(&field, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tag field %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &field, nil
}

func (d *Database) SaveField(field *types.TagField) error {
	return d.db.Save(field).Error
}

// DeleteField removes a tag field; recorded values for it cascade.
func (d *Database) DeleteField(id uint) error {
	res := d.db.Delete(&types.TagField{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: tag field %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (d *Database) CreateTransactionTag(tag *types.TransactionTag) error {
	return d.db.Create(tag).Error
}

func (d *Database) GetTransactionTag(id uint) (*types.TransactionTag, error) {
	var tag types.TransactionTag
	if err := d.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction tag %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &tag, nil
}

// TaggedRow is a transaction tag joined with its definition.
type TaggedRow struct {
	types.TransactionTag
	Name          string            `json:"name"`
	Category      types.TagCategory `json:"category"`
	AllowMultiple bool              `json:"allow_multiple"`
}

// GetTransactionTags returns the tag instances on a transaction joined with
// their definitions, ordered by category, definition and instance number.
func (d *Database) GetTransactionTags(transactionID uint) ([]TaggedRow, error) {
	var rows []TaggedRow
	err := d.db.Model(&types.TransactionTag{}).
		Select("transaction_tags.*, tag_definitions.name, tag_definitions.category, tag_definitions.allow_multiple").
		Joins("JOIN tag_definitions ON tag_definitions.id = transaction_tags.tag_definition_id").
		Where("transaction_tags.transaction_id = ?", transactionID).
		Order("tag_definitions.category, transaction_tags.tag_definition_id, transaction_tags.instance_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *Database) DeleteTransactionTag(id uint) error {
	res := d.db.Delete(&types.TransactionTag{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction tag %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (d *Database) CreateValue(value *types.TransactionTagValue) error {
	return d.db.Create(value).Error
}

func (d *Database) GetValue(id uint) (*types.TransactionTagValue, error) {
	var value types.TransactionTagValue
	if err := d.db.First(&value, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tag value %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &value, nil
}

func (d *Database) SaveValue(value *types.TransactionTagValue) error {
	return d.db.Save(value).Error
}

// ValueRow is a recorded value joined with its field schema.
type ValueRow struct {
	types.TransactionTagValue
	FieldName   string          `json:"field_name"`
	FieldType   types.FieldType `json:"field_type"`
	FieldConfig string          `json:"field_config"`
}

// GetValues returns a tag instance's values joined with their field schema,
// in field display order.
func (d *Database) GetValues(transactionTagID uint) ([]ValueRow, error) {
	var rows []ValueRow
	err := d.db.Model(&types.TransactionTagValue{}).
		Select("transaction_tag_values.*, tag_fields.field_name, tag_fields.field_type, tag_fields.field_config").
		Joins("JOIN tag_fields ON tag_fields.id = transaction_tag_values.tag_field_id").
		Where("transaction_tag_values.transaction_tag_id = ?", transactionTagID).
		Order("tag_fields.display_order, tag_fields.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
