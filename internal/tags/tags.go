// Package tags implements the dynamic tagging subsystem: user-defined tag
// definitions with typed fields, instantiated per transaction with recorded
// field values. The definition side is a static schema; the instance side is
// its per-trade instantiation.
package tags

import (
	"encoding/json"
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

// NewService creates a new tags service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// AddDefinition creates a tag definition under the account.
func (s *Service) AddDefinition(accountID uint, name string, category types.TagCategory, allowMultiple bool) (*types.TagDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", apperr.ErrValidation)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown tag category %q", apperr.ErrValidation, category)
	}
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}

	def := &types.TagDefinition{
		AccountID:     accountID,
		Name:          name,
		Category:      category,
		AllowMultiple: allowMultiple,
		CreatedAt:     time.Now(),
	}
	if err := s.db.CreateDefinition(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ListDefinitions returns the account's tag definitions ordered by category
// then name, optionally restricted to one category.
func (s *Service) ListDefinitions(accountID uint, category types.TagCategory) ([]types.TagDefinition, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown tag category %q", apperr.ErrValidation, category)
	}
	if err := s.db.AccountExists(accountID); err != nil {
		return nil, err
	}
	return s.db.GetDefinitions(accountID, category)
}

// DeleteDefinition removes a definition together with its fields and every
// instance of the tag on any transaction.
func (s *Service) DeleteDefinition(id uint) error {
	return s.db.DeleteDefinition(id)
}

// FieldInput carries the schema of one tag field.
type FieldInput struct {
	FieldName    string          `json:"field_name" binding:"required"`
	FieldType    types.FieldType `json:"field_type" binding:"required"`
	Options      []string        `json:"options"`
	IsRequired   bool            `json:"is_required"`
	DisplayOrder int             `json:"display_order"`
}

func (in FieldInput) validate() (string, error) {
	if in.FieldName == "" {
		return "", fmt.Errorf("%w: field name is required", apperr.ErrValidation)
	}
	if !in.FieldType.Valid() {
		return "", fmt.Errorf("%w: unknown field type %q", apperr.ErrValidation, in.FieldType)
	}
	if in.FieldType.NeedsOptions() && len(in.Options) == 0 {
		return "", fmt.Errorf("%w: field type %q requires options", apperr.ErrValidation, in.FieldType)
	}

	raw, err := json.Marshal(types.FieldConfigData{Options: in.Options})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AddField attaches a typed field to a tag definition.
func (s *Service) AddField(tagDefinitionID uint, in FieldInput) (*types.TagField, error) {
	if _, err := s.db.GetDefinition(tagDefinitionID); err != nil {
		return nil, err
	}
	config, err := in.validate()
	if err != nil {
		return nil, err
	}

	field := &types.TagField{
		TagDefinitionID: tagDefinitionID,
		FieldName:       in.FieldName,
		FieldType:       in.FieldType,
		FieldConfig:     config,
		IsRequired:      in.IsRequired,
		DisplayOrder:    in.DisplayOrder,
		CreatedAt:       time.Now(),
	}
	if err := s.db.CreateField(field); err != nil {
		return nil, err
	}
	return field, nil
}

// ListFields returns a definition's fields in display order.
func (s *Service) ListFields(tagDefinitionID uint) ([]types.TagField, error) {
	if _, err := s.db.GetDefinition(tagDefinitionID); err != nil {
		return nil, err
	}
	return s.db.GetFields(tagDefinitionID)
}

// UpdateField replaces a field's schema. Previously recorded values keep
// their stored encoding; they are re-validated only when rewritten.
func (s *Service) UpdateField(fieldID uint, in FieldInput) (*types.TagField, error) {
	field, err := s.db.GetField(fieldID)
	if err != nil {
		return nil, err
	}
	config, err := in.validate()
	if err != nil {
		return nil, err
	}

	field.FieldName = in.FieldName
	field.FieldType = in.FieldType
	field.FieldConfig = config
	field.IsRequired = in.IsRequired
	field.DisplayOrder = in.DisplayOrder

	if err := s.db.SaveField(field); err != nil {
		return nil, err
	}
	return field, nil
}

// DeleteField removes a field and its recorded values.
func (s *Service) DeleteField(id uint) error {
	return s.db.DeleteField(id)
}

// AttachTag puts an instance of a tag definition on a transaction. Instance
// numbers above 1 require the definition to allow multiple instances.
func (s *Service) AttachTag(transactionID, tagDefinitionID uint, instanceNumber int) (*types.TransactionTag, error) {
	if instanceNumber < 1 {
		return nil, fmt.Errorf("%w: instance number must be at least 1", apperr.ErrValidation)
	}
	if err := s.db.TransactionExists(transactionID); err != nil {
		return nil, err
	}
	def, err := s.db.GetDefinition(tagDefinitionID)
	if err != nil {
		return nil, err
	}
	if instanceNumber > 1 && !def.AllowMultiple {
		return nil, fmt.Errorf("%w: tag %q does not allow multiple instances", apperr.ErrInvariant, def.Name)
	}

	tag := &types.TransactionTag{
		TransactionID:   transactionID,
		TagDefinitionID: tagDefinitionID,
		InstanceNumber:  instanceNumber,
		CreatedAt:       time.Now(),
	}
	if err := s.db.CreateTransactionTag(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// TagWithValues is one tag instance on a transaction with its recorded
// field values in display order.
type TagWithValues struct {
	TaggedRow
	Values []ValueRow `json:"values"`
}

// CategoryGroup groups a transaction's tags under one category.
type CategoryGroup struct {
	Category types.TagCategory `json:"category"`
	Tags     []TagWithValues   `json:"tags"`
}

// ListWithValues returns the transaction's tags joined with their field
// values, grouped by category in the fixed category order.
func (s *Service) ListWithValues(transactionID uint) ([]CategoryGroup, error) {
	if err := s.db.TransactionExists(transactionID); err != nil {
		return nil, err
	}

	rows, err := s.db.GetTransactionTags(transactionID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[types.TagCategory][]TagWithValues)
	for _, row := range rows {
		values, err := s.db.GetValues(row.ID)
		if err != nil {
			return nil, err
		}
		byCategory[row.Category] = append(byCategory[row.Category], TagWithValues{
			TaggedRow: row,
			Values:    values,
		})
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for _, category := range types.TagCategories {
		if tagged, ok := byCategory[category]; ok {
			groups = append(groups, CategoryGroup{Category: category, Tags: tagged})
		}
	}
	return groups, nil
}

// DetachTag removes one tag instance and its values from a transaction.
func (s *Service) DetachTag(id uint) error {
	return s.db.DeleteTransactionTag(id)
}

// AddValue records a value for one field of a tag instance. The field must
// belong to the same definition as the instance, and the value must validate
// against the field's declared type.
func (s *Service) AddValue(transactionTagID, tagFieldID uint, value string) (*types.TransactionTagValue, error) {
	tag, err := s.db.GetTransactionTag(transactionTagID)
	if err != nil {
		return nil, err
	}
	field, err := s.db.GetField(tagFieldID)
	if err != nil {
		return nil, err
	}
	if field.TagDefinitionID != tag.TagDefinitionID {
		return nil, fmt.Errorf("%w: field %q belongs to a different tag definition", apperr.ErrInvariant, field.FieldName)
	}
	if err := field.ValidateValue(value); err != nil {
		return nil, err
	}

	v := &types.TransactionTagValue{
		TransactionTagID: transactionTagID,
		TagFieldID:       tagFieldID,
		Value:            value,
		CreatedAt:        time.Now(),
	}
	if err := s.db.CreateValue(v); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateValue rewrites a recorded value, re-validating it against the
// owning field's current schema.
func (s *Service) UpdateValue(valueID uint, value string) (*types.TransactionTagValue, error) {
	v, err := s.db.GetValue(valueID)
	if err != nil {
		return nil, err
	}
	field, err := s.db.GetField(v.TagFieldID)
	if err != nil {
		return nil, err
	}
	if err := field.ValidateValue(value); err != nil {
		return nil, err
	}

	v.Value = value
	if err := s.db.SaveValue(v); err != nil {
		return nil, err
	}
	return v, nil
}

// GinHandlers contains HTTP handlers for the tag subsystem endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for tag endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type addDefinitionRequest struct {
	Name          string            `json:"name" binding:"required"`
	Category      types.TagCategory `json:"category" binding:"required"`
	AllowMultiple bool              `json:"allow_multiple"`
}

type attachTagRequest struct {
	TagDefinitionID uint `json:"tag_definition_id" binding:"required"`
	InstanceNumber  int  `json:"instance_number"`
}

type valueRequest struct {
	TagFieldID uint   `json:"tag_field_id" binding:"required"`
	Value      string `json:"value"`
}

type updateValueRequest struct {
	Value string `json:"value"`
}

// AddDefinitionHandler handles POST requests to create a tag definition
func (h *GinHandlers) AddDefinitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		var req addDefinitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		def, err := h.service.AddDefinition(accountID, req.Name, req.Category, req.AllowMultiple)
		response.Handle(c, def, err)
	}
}

// ListDefinitionsHandler handles GET requests for an account's tag
// definitions, optionally filtered with ?category=
func (h *GinHandlers) ListDefinitionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := account.ParamID(c, "account_id")
		if !ok {
			return
		}

		category := types.TagCategory(c.Query("category"))
		defs, err := h.service.ListDefinitions(accountID, category)
		response.Handle(c, defs, err)
	}
}

// DeleteDefinitionHandler handles DELETE requests for a tag definition
func (h *GinHandlers) DeleteDefinitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "tag_id")
		if !ok {
			return
		}

		err := h.service.DeleteDefinition(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

// AddFieldHandler handles POST requests to attach a field to a definition
func (h *GinHandlers) AddFieldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tagID, ok := account.ParamID(c, "tag_id")
		if !ok {
			return
		}

		var in FieldInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		field, err := h.service.AddField(tagID, in)
		response.Handle(c, field, err)
	}
}

// ListFieldsHandler handles GET requests for a definition's fields
func (h *GinHandlers) ListFieldsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tagID, ok := account.ParamID(c, "tag_id")
		if !ok {
			return
		}

		fields, err := h.service.ListFields(tagID)
		response.Handle(c, fields, err)
	}
}

// UpdateFieldHandler handles PUT requests to replace a field's schema
func (h *GinHandlers) UpdateFieldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fieldID, ok := account.ParamID(c, "field_id")
		if !ok {
			return
		}

		var in FieldInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		field, err := h.service.UpdateField(fieldID, in)
		response.Handle(c, field, err)
	}
}

// DeleteFieldHandler handles DELETE requests for a tag field
func (h *GinHandlers) DeleteFieldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fieldID, ok := account.ParamID(c, "field_id")
		if !ok {
			return
		}

		err := h.service.DeleteField(fieldID)
		response.Handle(c, gin.H{"deleted": fieldID}, err)
	}
}

// AttachTagHandler handles POST requests to put a tag instance on a trade
func (h *GinHandlers) AttachTagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionID, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		var req attachTagRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if req.InstanceNumber == 0 {
			req.InstanceNumber = 1
		}

		tag, err := h.service.AttachTag(transactionID, req.TagDefinitionID, req.InstanceNumber)
		response.Handle(c, tag, err)
	}
}

// ListWithValuesHandler handles GET requests for a trade's tags and values
func (h *GinHandlers) ListWithValuesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionID, ok := account.ParamID(c, "transaction_id")
		if !ok {
			return
		}

		groups, err := h.service.ListWithValues(transactionID)
		response.Handle(c, groups, err)
	}
}

// DetachTagHandler handles DELETE requests for one tag instance
func (h *GinHandlers) DetachTagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := account.ParamID(c, "transaction_tag_id")
		if !ok {
			return
		}

		err := h.service.DetachTag(id)
		response.Handle(c, gin.H{"deleted": id}, err)
	}
}

// AddValueHandler handles POST requests to record a field value
func (h *GinHandlers) AddValueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tagInstanceID, ok := account.ParamID(c, "transaction_tag_id")
		if !ok {
			return
		}

		var req valueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		value, err := h.service.AddValue(tagInstanceID, req.TagFieldID, req.Value)
		response.Handle(c, value, err)
	}
}

// UpdateValueHandler handles PUT requests to rewrite a recorded value
func (h *GinHandlers) UpdateValueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		valueID, ok := account.ParamID(c, "value_id")
		if !ok {
			return
		}

		var req updateValueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		value, err := h.service.UpdateValue(valueID, req.Value)
		response.Handle(c, value, err)
	}
}
