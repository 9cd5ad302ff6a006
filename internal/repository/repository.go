// Package repository wraps the platform operations each entity kind needs.
//
// Lookups by identity key return an error matching errors.ErrNotFound when the
// entity does not exist; callers treat that as "create". Field-level errors in
// mutation payloads surface as *errors.MutationError.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/configurator/pkg/schema"
)

// Attribute is a remote attribute.
type Attribute struct {
	ID         string
	Name       string
	Slug       string
	InputType  schema.InputType
	Type       schema.AttributeType
	EntityType schema.EntityType
	Values     []string
}

// ProductType is a remote product type with its assigned product attributes.
type ProductType struct {
	ID                 string
	Name               string
	IsShippingRequired bool
	Attributes         []Attribute
}

// PageType is a remote page type with its assigned attributes.
type PageType struct {
	ID         string
	Name       string
	Attributes []Attribute
}

// Channel is a remote sales channel.
type Channel struct {
	ID             string
	Name           string
	Slug           string
	CurrencyCode   string
	DefaultCountry string
	IsActive       bool
	Settings       schema.ChannelSettings
}

// Category is a remote category node. Children holds direct children only
// unless the lookup says otherwise.
type Category struct {
	ID       string
	Name     string
	Slug     string
	Level    int
	Children []Category
}

// Product is a remote product with the parts reconciliation inspects.
type Product struct {
	ID              string
	Name            string
	ProductTypeID   string
	ProductTypeName string
	CategoryID      string
	CategoryName    string
	// Description is the stored rich-text document.
	Description     string
	ChannelListings []ProductChannelListing
	Variants        []Variant
}

// ProductChannelListing is a remote product publication in one channel.
type ProductChannelListing struct {
	ChannelID              string
	ChannelSlug            string
	IsPublished            bool
	PublishedAt            *time.Time
	VisibleInListings      bool
	IsAvailableForPurchase bool
	AvailableForPurchaseAt *time.Time
}

// Listing returns the listing for channelID, if any.
func (p *Product) Listing(channelID string) (ProductChannelListing, bool) {
	for _, l := range p.ChannelListings {
		if l.ChannelID == channelID {
			return l, true
		}
	}
	return ProductChannelListing{}, false
}

// Variant is a remote product variant.
type Variant struct {
	ID   string
	SKU  string
	Name string
}

// AttributeCreateInput creates an attribute.
type AttributeCreateInput struct {
	Name       string
	Slug       string
	InputType  schema.InputType
	Type       schema.AttributeType
	EntityType schema.EntityType
	Values     []string
}

// ChannelInput creates or updates a channel. Settings groups that are nil are
// not sent.
type ChannelInput struct {
	Name           string
	Slug           string
	CurrencyCode   string
	DefaultCountry string
	IsActive       *bool
	Order          map[string]any
	Checkout       map[string]any
	Payment        map[string]any
	Stock          map[string]any
}

// CategoryInput creates a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// AttributeValueInput sets attribute values on a product or variant.
type AttributeValueInput struct {
	ID     string
	Values []string
}

// ProductInput creates or updates a product. ProductTypeID is only sent on create.
type ProductInput struct {
	Name          string
	Description   string
	ProductTypeID string
	CategoryID    string
	Attributes    []AttributeValueInput
}

// ProductChannelListingInput publishes a product in one channel. Nil
// timestamps are not sent.
type ProductChannelListingInput struct {
	ChannelID              string
	IsPublished            bool
	PublishedAt            *time.Time
	VisibleInListings      bool
	IsAvailableForPurchase bool
	AvailableForPurchaseAt *time.Time
}

// VariantInput creates a variant.
type VariantInput struct {
	ProductID  string
	SKU        string
	Name       string
	Attributes []AttributeValueInput
}

// VariantChannelListingInput prices a variant in one channel.
type VariantChannelListingInput struct {
	ChannelID string
	Price     decimal.Decimal
	CostPrice *decimal.Decimal
}

// AttributeRepository reads and creates attributes.
type AttributeRepository interface {
	FindAttributes(ctx context.Context, names []string, scope schema.AttributeType) ([]Attribute, error)
	CreateAttribute(ctx context.Context, in AttributeCreateInput) (*Attribute, error)
}

// ProductTypeRepository reads, creates and extends product types.
type ProductTypeRepository interface {
	FindProductType(ctx context.Context, name string) (*ProductType, error)
	ListProductTypes(ctx context.Context) ([]ProductType, error)
	CreateProductType(ctx context.Context, name string, isShippingRequired bool) (*ProductType, error)
	AssignProductAttributes(ctx context.Context, productTypeID string, attributeIDs []string) error
}

// PageTypeRepository reads, creates and extends page types.
type PageTypeRepository interface {
	FindPageType(ctx context.Context, name string) (*PageType, error)
	ListPageTypes(ctx context.Context) ([]PageType, error)
	CreatePageType(ctx context.Context, name string) (*PageType, error)
	AssignPageAttributes(ctx context.Context, pageTypeID string, attributeIDs []string) error
}

// ChannelRepository reads, creates, updates and activates channels.
type ChannelRepository interface {
	FindChannel(ctx context.Context, slug string) (*Channel, error)
	ListChannels(ctx context.Context) ([]Channel, error)
	CreateChannel(ctx context.Context, in ChannelInput) (*Channel, error)
	UpdateChannel(ctx context.Context, id string, in ChannelInput) (*Channel, error)
	ActivateChannel(ctx context.Context, id string) error
}

// CategoryRepository reads and creates categories.
type CategoryRepository interface {
	// FindRootCategory looks up a top-level category by name with its direct children.
	FindRootCategory(ctx context.Context, name string) (*Category, error)
	// FindCategory looks up a category at any level by name.
	FindCategory(ctx context.Context, name string) (*Category, error)
	// GetCategory returns a category by id with its direct children.
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListRootCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput, parentID string) (*Category, error)
}

// ShopRepository reads and updates the shop singleton.
type ShopRepository interface {
	GetShop(ctx context.Context) (*schema.ShopSettings, error)
	UpdateShop(ctx context.Context, input map[string]any) error
}

// ProductRepository reads, creates and updates products and their variants.
type ProductRepository interface {
	FindProduct(ctx context.Context, name string) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error)
	UpdateProductChannelListings(ctx context.Context, productID string, listings []ProductChannelListingInput) error
	CreateVariant(ctx context.Context, in VariantInput) (*Variant, error)
	UpdateVariantChannelListings(ctx context.Context, variantID string, listings []VariantChannelListingInput) error
}

// Repositories bundles one repository per entity kind.
type Repositories struct {
	Attributes   AttributeRepository
	ProductTypes ProductTypeRepository
	PageTypes    PageTypeRepository
	Channels     ChannelRepository
	Categories   CategoryRepository
	Shop         ShopRepository
	Products     ProductRepository
}
