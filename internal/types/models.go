package types

import (
	"time"
)

// Direction is the side of a trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Valid reports whether the direction is one of the two known sides.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// TagCategory is the fixed set of journal checklist phases a tag
// definition can belong to.
type TagCategory string

const (
	CategoryPreTradeChecklist TagCategory = "Pre-Trade Checklist"
	CategoryPreEntry          TagCategory = "Pre-Entry"
	CategoryEntryBreakEven    TagCategory = "Entry-Break-Even"
	CategoryDuringTrade       TagCategory = "During Trade"
	CategoryExit              TagCategory = "Exit"
	CategoryOther             TagCategory = "Other"
)

// TagCategories lists all valid categories in display order.
var TagCategories = []TagCategory{
	CategoryPreTradeChecklist,
	CategoryPreEntry,
	CategoryEntryBreakEven,
	CategoryDuringTrade,
	CategoryExit,
	CategoryOther,
}

// Valid reports whether the category is one of the fixed enumeration.
func (tc TagCategory) Valid() bool {
	for _, c := range TagCategories {
		if tc == c {
			return true
		}
	}
	return false
}

// Account is an isolated trading ledger with its own balance and owned
// strategies, instruments and tag definitions. CurrentBalance is maintained
// incrementally: it always equals InitialBalance plus the sum of the pnl of
// the account's transactions.
type Account struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"uniqueIndex;not null" json:"name"`
	InitialBalance float64   `gorm:"not null" json:"initial_balance"`
	CurrentBalance float64   `gorm:"not null" json:"current_balance"`
	Leverage       int       `gorm:"not null;default:100" json:"leverage"`
	CreatedAt      time.Time `json:"created_at"`

	Transactions   []Transaction   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Strategies     []Strategy      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Instruments    []Instrument    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TagDefinitions []TagDefinition `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Transaction is a single recorded trade. RiskAmount, PositionSize, RRRatio,
// PnL and ROI are derived from the price and risk inputs at write time and
// are never accepted from the caller.
type Transaction struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	AccountID    uint      `gorm:"not null;index" json:"account_id"`
	Instrument   string    `gorm:"not null" json:"instrument"`
	Strategy     string    `gorm:"not null" json:"strategy"`
	Direction    Direction `gorm:"not null" json:"direction"`
	EntryPrice   float64   `gorm:"not null" json:"entry_price"`
	StopLoss     float64   `gorm:"not null" json:"stop_loss"`
	ExitPrice    float64   `gorm:"not null" json:"exit_price"`
	RiskPercent  float64   `gorm:"not null" json:"risk_percent"`
	RiskAmount   float64   `gorm:"not null" json:"risk_amount"`
	PositionSize float64   `gorm:"not null" json:"position_size"`
	RRRatio      float64   `gorm:"not null" json:"rr_ratio"`
	PnL          float64   `gorm:"not null" json:"pnl"`
	ROI          float64   `gorm:"not null" json:"roi"`
	Notes        string    `gorm:"default:''" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`

	TransactionTags []TransactionTag `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Strategy is a named trading approach scoped to an account.
type Strategy struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_strategy_account_name" json:"account_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_strategy_account_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Instrument is a tradable symbol scoped to an account.
type Instrument struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_instrument_account_name" json:"account_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_instrument_account_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagDefinition is a user-defined label assignable to transactions,
// optionally carrying structured fields. AllowMultiple permits more than one
// instance of the tag on a single transaction.
type TagDefinition struct {
	ID            uint        `gorm:"primarykey" json:"id"`
	AccountID     uint        `gorm:"not null;uniqueIndex:idx_tagdef_account_name" json:"account_id"`
	Name          string      `gorm:"not null;uniqueIndex:idx_tagdef_account_name" json:"name"`
	Category      TagCategory `gorm:"not null" json:"category"`
	AllowMultiple bool        `gorm:"not null;default:false" json:"allow_multiple"`
	CreatedAt     time.Time   `json:"created_at"`

	Fields          []TagField       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TransactionTags []TransactionTag `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TagField is a typed input slot belonging to a tag definition. FieldConfig
// holds type-specific configuration as a JSON document, e.g. the option list
// for select and checkbox fields.
type TagField struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TagDefinitionID uint      `gorm:"not null;index" json:"tag_definition_id"`
	FieldName       string    `gorm:"not null" json:"field_name"`
	FieldType       FieldType `gorm:"not null" json:"field_type"`
	FieldConfig     string    `gorm:"default:'{}'" json:"field_config"`
	IsRequired      bool      `gorm:"not null;default:false" json:"is_required"`
	DisplayOrder    int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt       time.Time `json:"created_at"`

	Values []TransactionTagValue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TransactionTag is an instantiation of a tag definition on a specific
// transaction. InstanceNumber starts at 1; values above 1 are only legal
// when the definition allows multiple instances.
type TransactionTag struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TransactionID   uint      `gorm:"not null;index" json:"transaction_id"`
	TagDefinitionID uint      `gorm:"not null;index" json:"tag_definition_id"`
	InstanceNumber  int       `gorm:"not null;default:1" json:"instance_number"`
	CreatedAt       time.Time `json:"created_at"`

	Values []TransactionTagValue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TransactionTagValue is the recorded value for one field of one tag
// instance. Value is string-encoded per the owning field's type; checkbox
// selections are comma-joined.
type TransactionTagValue struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	TransactionTagID uint      `gorm:"not null;index" json:"transaction_tag_id"`
	TagFieldID       uint      `gorm:"not null;index" json:"tag_field_id"`
	Value            string    `json:"value"`
	CreatedAt        time.Time `json:"created_at"`
}

// Setting is a freeform key-value slot for long-form user text such as
// trading rules or a mistakes log.
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
