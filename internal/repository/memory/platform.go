// Package memory provides an in-memory commerce platform implementing every
// repository. It counts calls per operation so tests can assert exactly which
// remote operations a reconciliation issued.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/slug"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

// Operation names mirror the GraphQL operation names.
const (
	OpFindAttributes               = "FindAttributes"
	OpCreateAttribute              = "CreateAttribute"
	OpFindProductType              = "FindProductType"
	OpListProductTypes             = "ListProductTypes"
	OpCreateProductType            = "CreateProductType"
	OpAssignProductAttributes      = "AssignProductAttributes"
	OpFindPageType                 = "FindPageType"
	OpListPageTypes                = "ListPageTypes"
	OpCreatePageType               = "CreatePageType"
	OpAssignPageAttributes         = "AssignPageAttributes"
	OpFindChannel                  = "FindChannel"
	OpListChannels                 = "ListChannels"
	OpCreateChannel                = "CreateChannel"
	OpUpdateChannel                = "UpdateChannel"
	OpActivateChannel              = "ActivateChannel"
	OpFindRootCategory             = "FindRootCategory"
	OpFindCategory                 = "FindCategory"
	OpGetCategory                  = "GetCategory"
	OpListRootCategories           = "ListRootCategories"
	OpCreateCategory               = "CreateCategory"
	OpGetShop                      = "GetShop"
	OpUpdateShop                   = "UpdateShop"
	OpFindProduct                  = "FindProduct"
	OpCreateProduct                = "CreateProduct"
	OpUpdateProduct                = "UpdateProduct"
	OpUpdateProductChannelListing  = "UpdateProductChannelListing"
	OpCreateVariant                = "CreateVariant"
	OpUpdateVariantChannelListings = "UpdateVariantChannelListing"
)

type productTypeRecord struct {
	repository.ProductType
	attributeIDs []string
}

type pageTypeRecord struct {
	repository.PageType
	attributeIDs []string
}

type categoryRecord struct {
	repository.Category
	parentID string
	children []string
}

type variantRecord struct {
	repository.Variant
	productID  string
	attributes []repository.AttributeValueInput
	listings   map[string]repository.VariantChannelListingInput
}

type productRecord struct {
	repository.Product
	attributes []repository.AttributeValueInput
	listings   map[string]repository.ProductChannelListing
}

// Platform is an in-memory platform. It is safe for concurrent use.
type Platform struct {
	mu    sync.Mutex
	seq   int
	calls map[string]int
	fail  map[string]error

	attributes   []*repository.Attribute
	productTypes []*productTypeRecord
	pageTypes    []*pageTypeRecord
	channels     []*repository.Channel
	categories   map[string]*categoryRecord
	categoryIDs  []string
	shop         schema.ShopSettings
	products     []*productRecord
	variants     map[string]*variantRecord
}

// New returns an empty platform.
func New() *Platform {
	return &Platform{
		calls:      make(map[string]int),
		fail:       make(map[string]error),
		categories: make(map[string]*categoryRecord),
		variants:   make(map[string]*variantRecord),
	}
}

// Repositories returns the platform as a repository bundle.
func (p *Platform) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Attributes:   p,
		ProductTypes: p,
		PageTypes:    p,
		Channels:     p,
		Categories:   p,
		Shop:         p,
		Products:     p,
	}
}

var (
	_ repository.AttributeRepository   = (*Platform)(nil)
	_ repository.ProductTypeRepository = (*Platform)(nil)
	_ repository.PageTypeRepository    = (*Platform)(nil)
	_ repository.ChannelRepository     = (*Platform)(nil)
	_ repository.CategoryRepository    = (*Platform)(nil)
	_ repository.ShopRepository        = (*Platform)(nil)
	_ repository.ProductRepository     = (*Platform)(nil)
)

// Calls returns how often operation was invoked.
func (p *Platform) Calls(operation string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[operation]
}

// TotalCalls returns the number of operations of any kind.
func (p *Platform) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// MutationCalls returns the number of create, update, assign and activate calls.
func (p *Platform) MutationCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for op, c := range p.calls {
		if isMutation(op) {
			n += c
		}
	}
	return n
}

// ResetCalls zeroes every counter.
func (p *Platform) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = make(map[string]int)
}

// FailOn makes operation fail with err whenever key matches its identity
// argument. An empty key matches every call.
func (p *Platform) FailOn(operation, key string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[operation+"/"+key] = err
}

func isMutation(op string) bool {
	for _, prefix := range []string{"Create", "Update", "Assign", "Activate"} {
		if strings.HasPrefix(op, prefix) {
			return true
		}
	}
	return false
}

// begin counts a call and returns an injected failure, if any. p.mu must be held.
func (p *Platform) begin(operation, key string) error {
	p.calls[operation]++
	if err, ok := p.fail[operation+"/"+key]; ok {
		return err
	}
	return p.fail[operation+"/"]
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s%d", prefix, p.seq)
}

func mutationError(operation, field, message, code string) error {
	return errors.NewMutationError(operation, []errors.FieldError{{Field: field, Message: message, Code: code}})
}

// AddAttribute seeds an attribute and returns its id.
func (p *Platform) AddAttribute(a repository.Attribute) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	a.ID = p.nextID("attr-")
	if a.Slug == "" {
		a.Slug = slug.Make(a.Name)
	}
	p.attributes = append(p.attributes, &a)
	return a.ID
}

// AddProductType seeds a product type with attributes already assigned.
func (p *Platform) AddProductType(name string, attributeIDs ...string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := &productTypeRecord{ProductType: repository.ProductType{ID: p.nextID("pt-"), Name: name}}
	rec.attributeIDs = slices.Clone(attributeIDs)
	p.productTypes = append(p.productTypes, rec)
	return rec.ID
}

// AddPageType seeds a page type with attributes already assigned.
func (p *Platform) AddPageType(name string, attributeIDs ...string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := &pageTypeRecord{PageType: repository.PageType{ID: p.nextID("pgt-"), Name: name}}
	rec.attributeIDs = slices.Clone(attributeIDs)
	p.pageTypes = append(p.pageTypes, rec)
	return rec.ID
}

// AddChannel seeds a channel and returns its id.
func (p *Platform) AddChannel(ch repository.Channel) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch.ID = p.nextID("ch-")
	p.channels = append(p.channels, &ch)
	return ch.ID
}

// AddCategory seeds a category under parentID (or at the top level) and returns its id.
func (p *Platform) AddCategory(name, parentID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addCategory(repository.CategoryInput{Name: name}, parentID)
}

// SetShop replaces the shop settings.
func (p *Platform) SetShop(s schema.ShopSettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shop = s
}

// ProductTypeAttributes returns the attribute names assigned to a product type.
func (p *Platform) ProductTypeAttributes(name string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pt := range p.productTypes {
		if pt.Name == name {
			return p.attributeNames(pt.attributeIDs)
		}
	}
	return nil
}

// ChannelBySlug returns a copy of a stored channel.
func (p *Platform) ChannelBySlug(slug string) (repository.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch := p.channel(slug); ch != nil {
		return *ch, true
	}
	return repository.Channel{}, false
}

// CategoryChildren returns the names of the direct children of the category named name.
func (p *Platform) CategoryChildren(name string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.categoryIDs {
		if c := p.categories[id]; c.Name == name {
			var names []string
			for _, child := range c.children {
				names = append(names, p.categories[child].Name)
			}
			return names
		}
	}
	return nil
}

// ShopSettings returns the stored shop settings.
func (p *Platform) ShopSettings() schema.ShopSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shop
}

// ProductListing returns the stored listing of product name in channel slug.
func (p *Platform) ProductListing(name, channelSlug string) (repository.ProductChannelListing, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.channel(channelSlug)
	prod := p.product(name)
	if ch == nil || prod == nil {
		return repository.ProductChannelListing{}, false
	}
	l, ok := prod.listings[ch.ID]
	return l, ok
}

// ProductVariants returns the SKUs of product name.
func (p *Platform) ProductVariants(name string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	prod := p.product(name)
	if prod == nil {
		return nil
	}
	var skus []string
	for _, v := range prod.Variants {
		skus = append(skus, v.SKU)
	}
	return skus
}

// VariantListing returns the stored price listing of sku in channel slug.
func (p *Platform) VariantListing(sku, channelSlug string) (repository.VariantChannelListingInput, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.channel(channelSlug)
	if ch == nil {
		return repository.VariantChannelListingInput{}, false
	}
	for _, v := range p.variants {
		if v.SKU == sku {
			l, ok := v.listings[ch.ID]
			return l, ok
		}
	}
	return repository.VariantChannelListingInput{}, false
}

// ProductDescription returns the stored description document of product name.
func (p *Platform) ProductDescription(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prod := p.product(name); prod != nil {
		return prod.Description
	}
	return ""
}

func (p *Platform) attributeNames(ids []string) []string {
	var names []string
	for _, id := range ids {
		if a := p.attributeByID(id); a != nil {
			names = append(names, a.Name)
		}
	}
	return names
}

func (p *Platform) attributeByID(id string) *repository.Attribute {
	for _, a := range p.attributes {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (p *Platform) resolveAttributes(ids []string) []repository.Attribute {
	out := make([]repository.Attribute, 0, len(ids))
	for _, id := range ids {
		if a := p.attributeByID(id); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func (p *Platform) channel(slug string) *repository.Channel {
	for _, ch := range p.channels {
		if ch.Slug == slug {
			return ch
		}
	}
	return nil
}

func (p *Platform) product(name string) *productRecord {
	for _, prod := range p.products {
		if prod.Name == name {
			return prod
		}
	}
	return nil
}

// FindAttributes implements repository.AttributeRepository.
func (p *Platform) FindAttributes(_ context.Context, names []string, scope schema.AttributeType) ([]repository.Attribute, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindAttributes, ""); err != nil {
		return nil, err
	}
	var out []repository.Attribute
	for _, a := range p.attributes {
		if a.Type == scope && slices.Contains(names, a.Name) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// CreateAttribute implements repository.AttributeRepository.
func (p *Platform) CreateAttribute(_ context.Context, in repository.AttributeCreateInput) (*repository.Attribute, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateAttribute, in.Name); err != nil {
		return nil, err
	}
	for _, a := range p.attributes {
		if a.Slug == in.Slug {
			return nil, mutationError("attributeCreate", "slug", "Attribute with this Slug already exists.", "UNIQUE")
		}
	}
	if in.InputType == schema.InputTypeReference && in.EntityType == "" {
		return nil, mutationError("attributeCreate", "entityType", "Entity type is required for reference attributes.", "REQUIRED")
	}
	a := &repository.Attribute{
		ID:         p.nextID("attr-"),
		Name:       in.Name,
		Slug:       in.Slug,
		InputType:  in.InputType,
		Type:       in.Type,
		EntityType: in.EntityType,
		Values:     slices.Clone(in.Values),
	}
	p.attributes = append(p.attributes, a)
	out := *a
	return &out, nil
}

// FindProductType implements repository.ProductTypeRepository.
func (p *Platform) FindProductType(_ context.Context, name string) (*repository.ProductType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindProductType, name); err != nil {
		return nil, err
	}
	for _, pt := range p.productTypes {
		if pt.Name == name {
			out := pt.ProductType
			out.Attributes = p.resolveAttributes(pt.attributeIDs)
			return &out, nil
		}
	}
	return nil, errors.NewNotFoundError("productType", name)
}

// ListProductTypes implements repository.ProductTypeRepository.
func (p *Platform) ListProductTypes(_ context.Context) ([]repository.ProductType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpListProductTypes, ""); err != nil {
		return nil, err
	}
	out := make([]repository.ProductType, 0, len(p.productTypes))
	for _, pt := range p.productTypes {
		t := pt.ProductType
		t.Attributes = p.resolveAttributes(pt.attributeIDs)
		out = append(out, t)
	}
	return out, nil
}

// CreateProductType implements repository.ProductTypeRepository.
func (p *Platform) CreateProductType(_ context.Context, name string, isShippingRequired bool) (*repository.ProductType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateProductType, name); err != nil {
		return nil, err
	}
	for _, pt := range p.productTypes {
		if pt.Name == name {
			return nil, mutationError("productTypeCreate", "name", "Product type with this Name already exists.", "UNIQUE")
		}
	}
	rec := &productTypeRecord{ProductType: repository.ProductType{
		ID: p.nextID("pt-"), Name: name, IsShippingRequired: isShippingRequired,
	}}
	p.productTypes = append(p.productTypes, rec)
	out := rec.ProductType
	return &out, nil
}

// AssignProductAttributes implements repository.ProductTypeRepository.
func (p *Platform) AssignProductAttributes(_ context.Context, productTypeID string, attributeIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpAssignProductAttributes, productTypeID); err != nil {
		return err
	}
	for _, pt := range p.productTypes {
		if pt.ID != productTypeID {
			continue
		}
		for _, id := range attributeIDs {
			if slices.Contains(pt.attributeIDs, id) {
				return mutationError("productAttributeAssign", "operations", "Attribute is already assigned.", "ATTRIBUTE_ALREADY_ASSIGNED")
			}
			if p.attributeByID(id) == nil {
				return mutationError("productAttributeAssign", "operations", "Attribute not found.", "NOT_FOUND")
			}
		}
		pt.attributeIDs = append(pt.attributeIDs, attributeIDs...)
		return nil
	}
	return mutationError("productAttributeAssign", "productTypeId", "Product type not found.", "NOT_FOUND")
}

// FindPageType implements repository.PageTypeRepository.
func (p *Platform) FindPageType(_ context.Context, name string) (*repository.PageType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindPageType, name); err != nil {
		return nil, err
	}
	for _, pt := range p.pageTypes {
		if pt.Name == name {
			out := pt.PageType
			out.Attributes = p.resolveAttributes(pt.attributeIDs)
			return &out, nil
		}
	}
	return nil, errors.NewNotFoundError("pageType", name)
}

// ListPageTypes implements repository.PageTypeRepository.
func (p *Platform) ListPageTypes(_ context.Context) ([]repository.PageType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpListPageTypes, ""); err != nil {
		return nil, err
	}
	out := make([]repository.PageType, 0, len(p.pageTypes))
	for _, pt := range p.pageTypes {
		t := pt.PageType
		t.Attributes = p.resolveAttributes(pt.attributeIDs)
		out = append(out, t)
	}
	return out, nil
}

// CreatePageType implements repository.PageTypeRepository.
func (p *Platform) CreatePageType(_ context.Context, name string) (*repository.PageType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreatePageType, name); err != nil {
		return nil, err
	}
	for _, pt := range p.pageTypes {
		if pt.Name == name {
			return nil, mutationError("pageTypeCreate", "name", "Page type with this Name already exists.", "UNIQUE")
		}
	}
	rec := &pageTypeRecord{PageType: repository.PageType{ID: p.nextID("pgt-"), Name: name}}
	p.pageTypes = append(p.pageTypes, rec)
	out := rec.PageType
	return &out, nil
}

// AssignPageAttributes implements repository.PageTypeRepository.
func (p *Platform) AssignPageAttributes(_ context.Context, pageTypeID string, attributeIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpAssignPageAttributes, pageTypeID); err != nil {
		return err
	}
	for _, pt := range p.pageTypes {
		if pt.ID == pageTypeID {
			for _, id := range attributeIDs {
				if slices.Contains(pt.attributeIDs, id) {
					return mutationError("pageAttributeAssign", "attributeIds", "Attribute is already assigned.", "ATTRIBUTE_ALREADY_ASSIGNED")
				}
			}
			pt.attributeIDs = append(pt.attributeIDs, attributeIDs...)
			return nil
		}
	}
	return mutationError("pageAttributeAssign", "pageTypeId", "Page type not found.", "NOT_FOUND")
}

// FindChannel implements repository.ChannelRepository.
func (p *Platform) FindChannel(_ context.Context, slug string) (*repository.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindChannel, slug); err != nil {
		return nil, err
	}
	if ch := p.channel(slug); ch != nil {
		out := *ch
		return &out, nil
	}
	return nil, errors.NewNotFoundError("channel", slug)
}

// ListChannels implements repository.ChannelRepository.
func (p *Platform) ListChannels(_ context.Context) ([]repository.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpListChannels, ""); err != nil {
		return nil, err
	}
	out := make([]repository.Channel, 0, len(p.channels))
	for _, ch := range p.channels {
		out = append(out, *ch)
	}
	return out, nil
}

// CreateChannel implements repository.ChannelRepository.
func (p *Platform) CreateChannel(_ context.Context, in repository.ChannelInput) (*repository.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateChannel, in.Slug); err != nil {
		return nil, err
	}
	if p.channel(in.Slug) != nil {
		return nil, mutationError("channelCreate", "slug", "Channel with this Slug already exists.", "UNIQUE")
	}
	ch := &repository.Channel{
		ID:             p.nextID("ch-"),
		Name:           in.Name,
		Slug:           in.Slug,
		CurrencyCode:   in.CurrencyCode,
		DefaultCountry: in.DefaultCountry,
		IsActive:       in.IsActive != nil && *in.IsActive,
	}
	if err := applySettings(&ch.Settings, in); err != nil {
		return nil, err
	}
	p.channels = append(p.channels, ch)
	out := *ch
	return &out, nil
}

// UpdateChannel implements repository.ChannelRepository.
func (p *Platform) UpdateChannel(_ context.Context, id string, in repository.ChannelInput) (*repository.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpUpdateChannel, in.Slug); err != nil {
		return nil, err
	}
	for _, ch := range p.channels {
		if ch.ID != id {
			continue
		}
		if in.Name != "" {
			ch.Name = in.Name
		}
		if in.IsActive != nil {
			ch.IsActive = *in.IsActive
		}
		if err := applySettings(&ch.Settings, in); err != nil {
			return nil, err
		}
		out := *ch
		return &out, nil
	}
	return nil, mutationError("channelUpdate", "id", "Channel not found.", "NOT_FOUND")
}

// ActivateChannel implements repository.ChannelRepository.
func (p *Platform) ActivateChannel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpActivateChannel, id); err != nil {
		return err
	}
	for _, ch := range p.channels {
		if ch.ID == id {
			if ch.IsActive {
				return mutationError("channelActivate", "id", "This channel is already activated.", "INVALID")
			}
			ch.IsActive = true
			return nil
		}
	}
	return mutationError("channelActivate", "id", "Channel not found.", "NOT_FOUND")
}

// applySettings merges the present settings groups into s.
func applySettings(s *schema.ChannelSettings, in repository.ChannelInput) error {
	for _, group := range []map[string]any{in.Order, in.Checkout, in.Payment, in.Stock} {
		if err := merge(s, group); err != nil {
			return err
		}
	}
	return nil
}

// merge overlays fields onto the JSON form of dst.
func merge(dst any, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (p *Platform) addCategory(in repository.CategoryInput, parentID string) string {
	c := &categoryRecord{Category: repository.Category{ID: p.nextID("cat-"), Name: in.Name, Slug: in.Slug}, parentID: parentID}
	if c.Slug == "" {
		c.Slug = slug.Make(in.Name)
	}
	if parent, ok := p.categories[parentID]; ok {
		c.Level = parent.Level + 1
		parent.children = append(parent.children, c.ID)
	}
	p.categories[c.ID] = c
	p.categoryIDs = append(p.categoryIDs, c.ID)
	return c.ID
}

// view returns c with its direct children.
func (p *Platform) view(c *categoryRecord) *repository.Category {
	out := c.Category
	out.Children = nil
	for _, id := range c.children {
		child := p.categories[id].Category
		child.Children = nil
		out.Children = append(out.Children, child)
	}
	return &out
}

// FindRootCategory implements repository.CategoryRepository.
func (p *Platform) FindRootCategory(_ context.Context, name string) (*repository.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindRootCategory, name); err != nil {
		return nil, err
	}
	for _, id := range p.categoryIDs {
		if c := p.categories[id]; c.parentID == "" && c.Name == name {
			return p.view(c), nil
		}
	}
	return nil, errors.NewNotFoundError("category", name)
}

// FindCategory implements repository.CategoryRepository.
func (p *Platform) FindCategory(_ context.Context, name string) (*repository.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindCategory, name); err != nil {
		return nil, err
	}
	for _, id := range p.categoryIDs {
		if c := p.categories[id]; c.Name == name {
			return p.view(c), nil
		}
	}
	return nil, errors.NewNotFoundError("category", name)
}

// GetCategory implements repository.CategoryRepository.
func (p *Platform) GetCategory(_ context.Context, id string) (*repository.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpGetCategory, id); err != nil {
		return nil, err
	}
	if c, ok := p.categories[id]; ok {
		return p.view(c), nil
	}
	return nil, errors.NewNotFoundError("category", id)
}

// ListRootCategories implements repository.CategoryRepository.
func (p *Platform) ListRootCategories(_ context.Context) ([]repository.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpListRootCategories, ""); err != nil {
		return nil, err
	}
	var out []repository.Category
	for _, id := range p.categoryIDs {
		if c := p.categories[id]; c.parentID == "" {
			out = append(out, *p.view(c))
		}
	}
	return out, nil
}

// CreateCategory implements repository.CategoryRepository.
func (p *Platform) CreateCategory(_ context.Context, in repository.CategoryInput, parentID string) (*repository.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateCategory, in.Name); err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, ok := p.categories[parentID]; !ok {
			return nil, mutationError("categoryCreate", "parent", "Parent category not found.", "NOT_FOUND")
		}
	}
	id := p.addCategory(in, parentID)
	return p.view(p.categories[id]), nil
}

// GetShop implements repository.ShopRepository.
func (p *Platform) GetShop(_ context.Context) (*schema.ShopSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpGetShop, ""); err != nil {
		return nil, err
	}
	out := p.shop
	return &out, nil
}

// UpdateShop implements repository.ShopRepository.
func (p *Platform) UpdateShop(_ context.Context, input map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpUpdateShop, ""); err != nil {
		return err
	}
	return merge(&p.shop, input)
}

func (p *Platform) productCopy(rec *productRecord) *repository.Product {
	out := rec.Product
	out.ChannelListings = nil
	for _, ch := range p.channels {
		if l, ok := rec.listings[ch.ID]; ok {
			out.ChannelListings = append(out.ChannelListings, l)
		}
	}
	out.Variants = slices.Clone(rec.Variants)
	return &out
}

// FindProduct implements repository.ProductRepository.
func (p *Platform) FindProduct(_ context.Context, name string) (*repository.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpFindProduct, name); err != nil {
		return nil, err
	}
	if rec := p.product(name); rec != nil {
		return p.productCopy(rec), nil
	}
	return nil, errors.NewNotFoundError("product", name)
}

func (p *Platform) categoryName(id string) string {
	if c, ok := p.categories[id]; ok {
		return c.Name
	}
	return ""
}

// CreateProduct implements repository.ProductRepository.
func (p *Platform) CreateProduct(_ context.Context, in repository.ProductInput) (*repository.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateProduct, in.Name); err != nil {
		return nil, err
	}
	var productType *productTypeRecord
	for _, pt := range p.productTypes {
		if pt.ID == in.ProductTypeID {
			productType = pt
		}
	}
	if productType == nil {
		return nil, mutationError("productCreate", "productType", "Product type not found.", "NOT_FOUND")
	}
	rec := &productRecord{
		Product: repository.Product{
			ID:              p.nextID("prod-"),
			Name:            in.Name,
			ProductTypeID:   productType.ID,
			ProductTypeName: productType.Name,
			CategoryID:      in.CategoryID,
			CategoryName:    p.categoryName(in.CategoryID),
			Description:     in.Description,
		},
		attributes: in.Attributes,
		listings:   make(map[string]repository.ProductChannelListing),
	}
	p.products = append(p.products, rec)
	return p.productCopy(rec), nil
}

// UpdateProduct implements repository.ProductRepository.
func (p *Platform) UpdateProduct(_ context.Context, id string, in repository.ProductInput) (*repository.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpUpdateProduct, in.Name); err != nil {
		return nil, err
	}
	for _, rec := range p.products {
		if rec.ID != id {
			continue
		}
		rec.Name = in.Name
		if in.Description != "" {
			rec.Description = in.Description
		}
		if in.CategoryID != "" {
			rec.CategoryID = in.CategoryID
			rec.CategoryName = p.categoryName(in.CategoryID)
		}
		if len(in.Attributes) > 0 {
			rec.attributes = in.Attributes
		}
		return p.productCopy(rec), nil
	}
	return nil, mutationError("productUpdate", "id", "Product not found.", "NOT_FOUND")
}

// UpdateProductChannelListings implements repository.ProductRepository.
func (p *Platform) UpdateProductChannelListings(_ context.Context, productID string, listings []repository.ProductChannelListingInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpUpdateProductChannelListing, productID); err != nil {
		return err
	}
	for _, rec := range p.products {
		if rec.ID != productID {
			continue
		}
		for _, in := range listings {
			var slug string
			for _, ch := range p.channels {
				if ch.ID == in.ChannelID {
					slug = ch.Slug
				}
			}
			if slug == "" {
				return mutationError("productChannelListingUpdate", "channelId", "Channel not found.", "NOT_FOUND")
			}
			l := rec.listings[in.ChannelID]
			l.ChannelID = in.ChannelID
			l.ChannelSlug = slug
			l.IsPublished = in.IsPublished
			l.VisibleInListings = in.VisibleInListings
			l.IsAvailableForPurchase = in.IsAvailableForPurchase
			if in.PublishedAt != nil {
				l.PublishedAt = in.PublishedAt
			}
			if in.AvailableForPurchaseAt != nil {
				l.AvailableForPurchaseAt = in.AvailableForPurchaseAt
			}
			rec.listings[in.ChannelID] = l
		}
		return nil
	}
	return mutationError("productChannelListingUpdate", "id", "Product not found.", "NOT_FOUND")
}

// CreateVariant implements repository.ProductRepository.
func (p *Platform) CreateVariant(_ context.Context, in repository.VariantInput) (*repository.Variant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateVariant, in.SKU); err != nil {
		return nil, err
	}
	for _, v := range p.variants {
		if v.SKU == in.SKU {
			return nil, mutationError("productVariantCreate", "sku", "Product variant with this SKU already exists.", "UNIQUE")
		}
	}
	for _, rec := range p.products {
		if rec.ID != in.ProductID {
			continue
		}
		v := &variantRecord{
			Variant:    repository.Variant{ID: p.nextID("var-"), SKU: in.SKU, Name: in.Name},
			productID:  rec.ID,
			attributes: in.Attributes,
			listings:   make(map[string]repository.VariantChannelListingInput),
		}
		p.variants[v.ID] = v
		rec.Variants = append(rec.Variants, v.Variant)
		out := v.Variant
		return &out, nil
	}
	return nil, mutationError("productVariantCreate", "product", "Product not found.", "NOT_FOUND")
}

// UpdateVariantChannelListings implements repository.ProductRepository.
func (p *Platform) UpdateVariantChannelListings(_ context.Context, variantID string, listings []repository.VariantChannelListingInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpUpdateVariantChannelListings, variantID); err != nil {
		return err
	}
	v, ok := p.variants[variantID]
	if !ok {
		return mutationError("productVariantChannelListingUpdate", "id", "Variant not found.", "NOT_FOUND")
	}
	for _, l := range listings {
		v.listings[l.ChannelID] = l
	}
	return nil
}
