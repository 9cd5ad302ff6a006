package schema

import (
	"fmt"
	"slices"

	"github.com/agentstation/configurator/pkg/errors"
)

// InputType is the discriminant of an attribute definition.
type InputType string

// Attribute input types.
const (
	InputTypeDropdown    InputType = "DROPDOWN"
	InputTypeMultiselect InputType = "MULTISELECT"
	InputTypeSwatch      InputType = "SWATCH"
	InputTypeReference   InputType = "REFERENCE"
	InputTypePlainText   InputType = "PLAIN_TEXT"
	InputTypeNumeric     InputType = "NUMERIC"
	InputTypeDate        InputType = "DATE"
	InputTypeBoolean     InputType = "BOOLEAN"
	InputTypeRichText    InputType = "RICH_TEXT"
	InputTypeDateTime    InputType = "DATE_TIME"
	InputTypeFile        InputType = "FILE"
)

// String returns the string representation of an InputType.
func (t InputType) String() string {
	return string(t)
}

// Kind returns the variant family of the input type.
func (t InputType) Kind() AttributeKind {
	switch t {
	case InputTypeDropdown, InputTypeMultiselect, InputTypeSwatch:
		return KindChoice
	case InputTypeReference:
		return KindReference
	case InputTypePlainText, InputTypeNumeric, InputTypeDate, InputTypeBoolean,
		InputTypeRichText, InputTypeDateTime, InputTypeFile:
		return KindSimple
	}
	return KindUnknown
}

// AttributeKind groups input types by the payload they carry.
type AttributeKind int

// Attribute kinds.
const (
	KindUnknown AttributeKind = iota
	KindChoice
	KindReference
	KindSimple
)

func (k AttributeKind) String() string {
	switch k {
	case KindChoice:
		return "choice"
	case KindReference:
		return "reference"
	case KindSimple:
		return "simple"
	}
	return "unknown"
}

// AttributeType is the owner scope of an attribute.
type AttributeType string

// Attribute owner scopes.
const (
	AttributeTypeProductType AttributeType = "PRODUCT_TYPE"
	AttributeTypePageType    AttributeType = "PAGE_TYPE"
)

// EntityType is the target of a reference attribute.
type EntityType string

// Reference targets.
const (
	EntityTypePage           EntityType = "PAGE"
	EntityTypeProduct        EntityType = "PRODUCT"
	EntityTypeProductVariant EntityType = "PRODUCT_VARIANT"
)

// AttributeValue is a predefined choice value.
type AttributeValue struct {
	Name string `json:"name" yaml:"name" validate:"required"`
}

// AttributeDefinition is the document form of an attribute. Which optional
// fields apply depends on InputType; use Variant to get a typed view.
type AttributeDefinition struct {
	Name       string           `json:"name" yaml:"name" validate:"required,max=250"`
	InputType  InputType        `json:"inputType" yaml:"inputType" validate:"required,inputtype"`
	Type       AttributeType    `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=PRODUCT_TYPE PAGE_TYPE"`
	Values     []AttributeValue `json:"values,omitempty" yaml:"values,omitempty" validate:"dive"`
	EntityType EntityType       `json:"entityType,omitempty" yaml:"entityType,omitempty" validate:"omitempty,oneof=PAGE PRODUCT PRODUCT_VARIANT"`
}

// ScopeOr returns the declared owner scope, or def when none is declared.
func (a AttributeDefinition) ScopeOr(def AttributeType) AttributeType {
	if a.Type == "" {
		return def
	}
	return a.Type
}

// AttributeVariant is the closed set of attribute shapes. The only
// implementations are ChoiceAttribute, ReferenceAttribute and SimpleAttribute.
type AttributeVariant interface {
	AttributeName() string
	Input() InputType
	isAttributeVariant()
}

// ChoiceAttribute has a predefined list of values.
type ChoiceAttribute struct {
	Name      string
	InputType InputType
	Values    []string
}

// ReferenceAttribute points at another platform entity.
type ReferenceAttribute struct {
	Name       string
	EntityType EntityType
}

// SimpleAttribute carries nothing beyond its name and input type.
type SimpleAttribute struct {
	Name      string
	InputType InputType
}

func (a ChoiceAttribute) AttributeName() string    { return a.Name }
func (a ChoiceAttribute) Input() InputType         { return a.InputType }
func (ChoiceAttribute) isAttributeVariant()        {}
func (a ReferenceAttribute) AttributeName() string { return a.Name }
func (ReferenceAttribute) Input() InputType        { return InputTypeReference }
func (ReferenceAttribute) isAttributeVariant()     {}
func (a SimpleAttribute) AttributeName() string    { return a.Name }
func (a SimpleAttribute) Input() InputType         { return a.InputType }
func (SimpleAttribute) isAttributeVariant()        {}

// Variant returns the typed view of the definition. It fails for unknown
// input types and for references without an entity type.
func (a AttributeDefinition) Variant() (AttributeVariant, error) {
	switch a.InputType.Kind() {
	case KindChoice:
		values := make([]string, 0, len(a.Values))
		for _, v := range a.Values {
			values = append(values, v.Name)
		}
		return ChoiceAttribute{Name: a.Name, InputType: a.InputType, Values: values}, nil
	case KindReference:
		if a.EntityType == "" {
			return nil, errors.NewValidationError("entityType", a.Name,
				fmt.Sprintf("reference attribute %q requires entityType", a.Name))
		}
		return ReferenceAttribute{Name: a.Name, EntityType: a.EntityType}, nil
	case KindSimple:
		return SimpleAttribute{Name: a.Name, InputType: a.InputType}, nil
	}
	return nil, errors.NewValidationError("inputType", a.InputType,
		fmt.Sprintf("unknown input type %q for attribute %q", a.InputType, a.Name))
}

// DefinitionOf converts a variant back into its document form.
func DefinitionOf(v AttributeVariant, scope AttributeType) AttributeDefinition {
	def := AttributeDefinition{Name: v.AttributeName(), InputType: v.Input(), Type: scope}
	switch v := v.(type) {
	case ChoiceAttribute:
		for _, name := range v.Values {
			def.Values = append(def.Values, AttributeValue{Name: name})
		}
	case ReferenceAttribute:
		def.EntityType = v.EntityType
	case SimpleAttribute:
	}
	return def
}

// AttributeNames returns the names of defs in order.
func AttributeNames(defs []AttributeDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

var knownInputTypes = []InputType{
	InputTypeDropdown, InputTypeMultiselect, InputTypeSwatch, InputTypeReference,
	InputTypePlainText, InputTypeNumeric, InputTypeDate, InputTypeBoolean,
	InputTypeRichText, InputTypeDateTime, InputTypeFile,
}

// InputTypes returns every known input type.
func InputTypes() []InputType {
	return slices.Clone(knownInputTypes)
}
