// Package schema defines the canonical configuration document: the desired
// state of a commerce platform's shop policy, channels, type schemas, category
// tree and products.
//
// A Configuration is decoded once per run and treated as immutable afterwards.
// Validate must succeed before any of it is sent to the platform.
package schema

// Configuration is the root aggregate of the desired-state document.
// Every section is optional.
type Configuration struct {
	Shop         *ShopSettings           `json:"shop,omitempty" yaml:"shop,omitempty" validate:"omitempty"`
	Channels     []Channel               `json:"channels,omitempty" yaml:"channels,omitempty" validate:"dive"`
	ProductTypes []ProductTypeDefinition `json:"productTypes,omitempty" yaml:"productTypes,omitempty" validate:"dive"`
	PageTypes    []PageTypeDefinition    `json:"pageTypes,omitempty" yaml:"pageTypes,omitempty" validate:"dive"`
	Categories   []Category              `json:"categories,omitempty" yaml:"categories,omitempty" validate:"dive"`
	Products     []Product               `json:"products,omitempty" yaml:"products,omitempty" validate:"dive"`
}

// IsEmpty reports whether the document declares nothing.
func (c *Configuration) IsEmpty() bool {
	return c == nil || (c.Shop.IsEmpty() &&
		len(c.Channels) == 0 &&
		len(c.ProductTypes) == 0 &&
		len(c.PageTypes) == 0 &&
		len(c.Categories) == 0 &&
		len(c.Products) == 0)
}

// ProductTypeDefinition is a product schema identified by name.
type ProductTypeDefinition struct {
	Name               string                `json:"name" yaml:"name" validate:"required,max=250"`
	IsShippingRequired *bool                 `json:"isShippingRequired,omitempty" yaml:"isShippingRequired,omitempty"`
	Attributes         []AttributeDefinition `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"dive"`
}

// PageTypeDefinition is a content page schema identified by name.
type PageTypeDefinition struct {
	Name       string                `json:"name" yaml:"name" validate:"required,max=250"`
	Attributes []AttributeDefinition `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"dive"`
}

// Category is a node of the category tree. Children are matched by name one
// level at a time.
type Category struct {
	Name          string     `json:"name" yaml:"name" validate:"required,max=250"`
	Slug          string     `json:"slug,omitempty" yaml:"slug,omitempty" validate:"omitempty,max=255"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Subcategories []Category `json:"subcategories,omitempty" yaml:"subcategories,omitempty" validate:"dive"`
}
