package model

import internalmodel "github.com/goliatone/go-widgetmcp/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeArray   = internalmodel.FieldTypeArray
	FieldTypeObject  = internalmodel.FieldTypeObject
)

const (
	ValidationRuleMin         = internalmodel.ValidationRuleMin
	ValidationRuleMax         = internalmodel.ValidationRuleMax
	ValidationRuleMinLength   = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength   = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern     = internalmodel.ValidationRulePattern
	ValidationRuleMinItems    = internalmodel.ValidationRuleMinItems
	ValidationRuleMaxItems    = internalmodel.ValidationRuleMaxItems
	ValidationRuleMultipleOf  = internalmodel.ValidationRuleMultipleOf
	ValidationRuleUniqueItems = internalmodel.ValidationRuleUniqueItems
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field

// Input is validated, coerced caller input. Every declared field is present.
type Input map[string]any
