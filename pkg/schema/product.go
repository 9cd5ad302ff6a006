package schema

import "github.com/shopspring/decimal"

// Product is a catalog product identified by name.
type Product struct {
	Name            string                  `json:"name" yaml:"name" validate:"required,max=250"`
	Description     string                  `json:"description,omitempty" yaml:"description,omitempty"`
	ProductType     string                  `json:"productType" yaml:"productType" validate:"required"`
	Category        string                  `json:"category,omitempty" yaml:"category,omitempty"`
	Attributes      []AttributeAssignment   `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"dive"`
	ChannelListings []ProductChannelListing `json:"channelListings,omitempty" yaml:"channelListings,omitempty" validate:"dive"`
	Variants        []ProductVariant        `json:"variants,omitempty" yaml:"variants,omitempty" validate:"dive"`
}

// AttributeAssignment sets values for a named attribute.
type AttributeAssignment struct {
	Attribute string   `json:"attribute" yaml:"attribute" validate:"required"`
	Values    []string `json:"values" yaml:"values" validate:"min=1"`
}

// ProductChannelListing controls publication of a product in one channel.
type ProductChannelListing struct {
	Channel                string `json:"channel" yaml:"channel" validate:"required"`
	IsPublished            bool   `json:"isPublished" yaml:"isPublished"`
	VisibleInListings      bool   `json:"visibleInListings" yaml:"visibleInListings"`
	IsAvailableForPurchase bool   `json:"isAvailableForPurchase" yaml:"isAvailableForPurchase"`
}

// ProductVariant is a purchasable variant identified by SKU.
type ProductVariant struct {
	SKU             string                  `json:"sku" yaml:"sku" validate:"required"`
	Name            string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Attributes      []AttributeAssignment   `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"dive"`
	ChannelListings []VariantChannelListing `json:"channelListings,omitempty" yaml:"channelListings,omitempty" validate:"dive"`
}

// VariantChannelListing prices a variant in one channel.
type VariantChannelListing struct {
	Channel   string           `json:"channel" yaml:"channel" validate:"required"`
	Price     decimal.Decimal  `json:"price" yaml:"price" validate:"gte=0"`
	CostPrice *decimal.Decimal `json:"costPrice,omitempty" yaml:"costPrice,omitempty" validate:"omitempty,gte=0"`
}

// ChannelSlugs returns every channel slug the product refers to, in first-seen order.
func (p Product) ChannelSlugs() []string {
	seen := make(map[string]bool)
	var slugs []string
	add := func(slug string) {
		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	for _, l := range p.ChannelListings {
		add(l.Channel)
	}
	for _, v := range p.Variants {
		for _, l := range v.ChannelListings {
			add(l.Channel)
		}
	}
	return slugs
}

// AttributeNames returns every attribute name the product and its variants assign.
func (p Product) AttributeNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(as []AttributeAssignment) {
		for _, a := range as {
			if !seen[a.Attribute] {
				seen[a.Attribute] = true
				names = append(names, a.Attribute)
			}
		}
	}
	add(p.Attributes)
	for _, v := range p.Variants {
		add(v.Attributes)
	}
	return names
}
