// Package diff compares a local document with the configuration retrieved
// from the platform, section by section and keyed by identity.
package diff

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/agentstation/configurator/internal/slug"
	"github.com/agentstation/configurator/pkg/schema"
)

// Change classifies an entry.
type Change string

const (
	// Added entities exist locally only and would be created.
	Added Change = "added"
	// Missing entities exist remotely only. They are never deleted.
	Missing Change = "missing"
	// Changed entities exist on both sides with different content.
	Changed Change = "changed"
)

// Section names.
const (
	SectionShop         = "shop"
	SectionChannels     = "channels"
	SectionProductTypes = "productTypes"
	SectionPageTypes    = "pageTypes"
	SectionCategories   = "categories"
)

// Entry is one difference.
type Entry struct {
	Section string `json:"section" yaml:"section"`
	Name    string `json:"name" yaml:"name"`
	Change  Change `json:"change" yaml:"change"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Result holds every difference found.
type Result struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// HasChanges reports whether reconciling local would change anything.
// Missing entries alone do not count.
func (r *Result) HasChanges() bool {
	return r.Count(Added)+r.Count(Changed) > 0
}

// Count returns the number of entries of kind c.
func (r *Result) Count(c Change) int {
	n := 0
	for _, e := range r.Entries {
		if e.Change == c {
			n++
		}
	}
	return n
}

// String summarizes the result.
func (r *Result) String() string {
	if len(r.Entries) == 0 {
		return "No differences"
	}
	var parts []string
	for _, c := range []Change{Added, Changed, Missing} {
		if n := r.Count(c); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	return strings.Join(parts, ", ")
}

var options = gocmp.Options{
	cmpopts.EquateEmpty(),
	gocmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmpopts.SortSlices(func(a, b schema.AttributeDefinition) bool { return a.Name < b.Name }),
	cmpopts.SortSlices(func(a, b schema.Category) bool { return a.Name < b.Name }),
}

// Compare returns the differences between local and remote. Products are not
// compared because they are not retrieved.
func Compare(local, remote *schema.Configuration) *Result {
	if local == nil {
		local = &schema.Configuration{}
	}
	if remote == nil {
		remote = &schema.Configuration{}
	}
	r := &Result{}

	if want := local.Shop.Input(); len(want) > 0 {
		if d := gocmp.Diff(restrict(remote.Shop.Input(), want), want, options); d != "" {
			r.add(SectionShop, "shop", Changed, d)
		}
	}

	section(r, SectionChannels, local.Channels, remote.Channels,
		func(c schema.Channel) string { return c.Slug }, compareChannel)
	section(r, SectionProductTypes, local.ProductTypes, remote.ProductTypes,
		func(t schema.ProductTypeDefinition) string { return t.Name },
		func(l, rem schema.ProductTypeDefinition) string {
			rem.Attributes = declared(rem.Attributes, l.Attributes)
			return gocmp.Diff(normalizeProductType(rem), normalizeProductType(l), options)
		})
	section(r, SectionPageTypes, local.PageTypes, remote.PageTypes,
		func(t schema.PageTypeDefinition) string { return t.Name },
		func(l, rem schema.PageTypeDefinition) string {
			rem.Attributes = declared(rem.Attributes, l.Attributes)
			return gocmp.Diff(normalizePageType(rem), normalizePageType(l), options)
		})
	section(r, SectionCategories, local.Categories, remote.Categories,
		func(c schema.Category) string { return c.Name },
		func(l, rem schema.Category) string {
			return gocmp.Diff(normalizeCategory(prune(rem, l)), normalizeCategory(l), options)
		})

	slices.SortStableFunc(r.Entries, func(a, b Entry) int {
		return cmp.Or(strings.Compare(a.Section, b.Section), strings.Compare(a.Name, b.Name))
	})
	return r
}

func (r *Result) add(section, name string, c Change, detail string) {
	r.Entries = append(r.Entries, Entry{Section: section, Name: name, Change: c, Detail: detail})
}

func section[T any](r *Result, name string, local, remote []T, key func(T) string, compare func(l, rem T) string) {
	remoteByKey := make(map[string]T, len(remote))
	for _, item := range remote {
		remoteByKey[key(item)] = item
	}
	seen := make(map[string]bool, len(local))
	for _, item := range local {
		k := key(item)
		seen[k] = true
		rem, ok := remoteByKey[k]
		if !ok {
			r.add(name, k, Added, "")
			continue
		}
		if d := compare(item, rem); d != "" {
			r.add(name, k, Changed, d)
		}
	}
	for _, item := range remote {
		if k := key(item); !seen[k] {
			r.add(name, k, Missing, "")
		}
	}
}

// restrict keeps the keys of have that want declares.
func restrict(have, want map[string]any) map[string]any {
	out := make(map[string]any, len(want))
	for k := range want {
		if v, ok := have[k]; ok {
			out[k] = v
		}
	}
	return out
}

type channelView struct {
	Name           string
	CurrencyCode   string
	DefaultCountry string
	Active         bool
	Settings       map[string]any
}

func settingsMap(s *schema.ChannelSettings) map[string]any {
	out := map[string]any{}
	for _, group := range []map[string]any{s.OrderSettings(), s.CheckoutSettings(), s.PaymentSettings(), s.StockSettings()} {
		for k, v := range group {
			out[k] = v
		}
	}
	return out
}

// compareChannel only compares the settings the local document declares,
// since reconciliation never touches the others. Currency and country are
// fixed at creation and cannot be changed by a run, but are still reported.
func compareChannel(local, remote schema.Channel) string {
	want := settingsMap(local.Settings)
	l := channelView{local.Name, local.CurrencyCode, local.DefaultCountry, local.Active(), want}
	r := channelView{remote.Name, remote.CurrencyCode, remote.DefaultCountry, remote.Active(), restrict(settingsMap(remote.Settings), want)}
	return gocmp.Diff(r, l, options)
}

// declared keeps the remote attributes that local names. Reconciliation only
// adds attributes, so remote extras are not differences.
func declared(remote, local []schema.AttributeDefinition) []schema.AttributeDefinition {
	names := make(map[string]bool, len(local))
	for _, d := range local {
		names[d.Name] = true
	}
	var out []schema.AttributeDefinition
	for _, d := range remote {
		if names[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// prune drops remote subcategories that local does not name, level by level.
func prune(remote, local schema.Category) schema.Category {
	want := make(map[string]schema.Category, len(local.Subcategories))
	for _, c := range local.Subcategories {
		want[c.Name] = c
	}
	var subs []schema.Category
	for _, c := range remote.Subcategories {
		if l, ok := want[c.Name]; ok {
			subs = append(subs, prune(c, l))
		}
	}
	remote.Subcategories = subs
	return remote
}

func normalizeAttributes(defs []schema.AttributeDefinition, scope schema.AttributeType) []schema.AttributeDefinition {
	out := make([]schema.AttributeDefinition, 0, len(defs))
	for _, d := range defs {
		d.Type = d.ScopeOr(scope)
		if d.InputType.Kind() != schema.KindChoice {
			d.Values = nil
		}
		out = append(out, d)
	}
	return out
}

func normalizeProductType(t schema.ProductTypeDefinition) schema.ProductTypeDefinition {
	if t.IsShippingRequired != nil && !*t.IsShippingRequired {
		t.IsShippingRequired = nil
	}
	t.Attributes = normalizeAttributes(t.Attributes, schema.AttributeTypeProductType)
	return t
}

func normalizePageType(t schema.PageTypeDefinition) schema.PageTypeDefinition {
	t.Attributes = normalizeAttributes(t.Attributes, schema.AttributeTypePageType)
	return t
}

// normalizeCategory fills in default slugs and drops descriptions, which are
// not retrieved.
func normalizeCategory(c schema.Category) schema.Category {
	c.Slug = cmp.Or(c.Slug, slug.Make(c.Name))
	c.Description = ""
	subs := make([]schema.Category, 0, len(c.Subcategories))
	for _, s := range c.Subcategories {
		subs = append(subs, normalizeCategory(s))
	}
	c.Subcategories = subs
	return c
}
