package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ksred/trading-journal/pkg/apperr"
)

// FieldType enumerates the value kinds a tag field can carry. Values are
// stored string-encoded; each type knows how to validate its encoding.
type FieldType string

const (
	FieldNumber   FieldType = "number"
	FieldDecimal  FieldType = "decimal"
	FieldBoolean  FieldType = "boolean"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldDateTime FieldType = "datetime"
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
)

// Valid reports whether the field type is a known kind.
func (ft FieldType) Valid() bool {
	switch ft {
	case FieldNumber, FieldDecimal, FieldBoolean, FieldSelect,
		FieldCheckbox, FieldDateTime, FieldText, FieldTextArea:
		return true
	}
	return false
}

// NeedsOptions reports whether the field type requires a configured option
// list to validate its values.
func (ft FieldType) NeedsOptions() bool {
	return ft == FieldSelect || ft == FieldCheckbox
}

// FieldConfigData is the parsed form of TagField.FieldConfig.
type FieldConfigData struct {
	Options []string `json:"options,omitempty"`
}

// ParseConfig decodes the field's JSON configuration. An empty config is
// treated as the zero value.
func (f *TagField) ParseConfig() (FieldConfigData, error) {
	var cfg FieldConfigData
	raw := f.FieldConfig
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: malformed field config for field %q", apperr.ErrValidation, f.FieldName)
	}
	return cfg, nil
}

// Accepted layouts for datetime field values.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ValidateValue checks a string-encoded value against the field's declared
// type and configuration. It returns apperr.ErrValidation on mismatch.
func (f *TagField) ValidateValue(value string) error {
	switch f.FieldType {
	case FieldNumber:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("%w: field %q expects an integer, got %q", apperr.ErrValidation, f.FieldName, value)
		}
	case FieldDecimal:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: field %q expects a decimal, got %q", apperr.ErrValidation, f.FieldName, value)
		}
	case FieldBoolean:
		if value != "true" && value != "false" {
			return fmt.Errorf("%w: field %q expects true or false, got %q", apperr.ErrValidation, f.FieldName, value)
		}
	case FieldSelect:
		cfg, err := f.ParseConfig()
		if err != nil {
			return err
		}
		if !containsOption(cfg.Options, value) {
			return fmt.Errorf("%w: %q is not a configured option for field %q", apperr.ErrValidation, value, f.FieldName)
		}
	case FieldCheckbox:
		cfg, err := f.ParseConfig()
		if err != nil {
			return err
		}
		// Checkbox values are comma-joined selections.
		for _, part := range strings.Split(value, ",") {
			if !containsOption(cfg.Options, strings.TrimSpace(part)) {
				return fmt.Errorf("%w: %q is not a configured option for field %q", apperr.ErrValidation, part, f.FieldName)
			}
		}
	case FieldDateTime:
		if !parseableAsDatetime(value) {
			return fmt.Errorf("%w: field %q expects a datetime, got %q", apperr.ErrValidation, f.FieldName, value)
		}
	case FieldText, FieldTextArea:
		// Any string is acceptable.
	default:
		return fmt.Errorf("%w: unknown field type %q", apperr.ErrValidation, f.FieldType)
	}
	return nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func parseableAsDatetime(value string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
