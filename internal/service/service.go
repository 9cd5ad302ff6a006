// Package service holds one reconciliation service per entity kind. Every
// service is an idempotent upsert keyed by the entity's identity: it looks the
// entity up, creates it when absent and applies only what is missing.
//
// Outcomes go to the report.Recorder on the context; log lines carry the
// entity kind and name.
package service

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() utc.Time

// Services bundles the per-kind services built from one set of repositories.
type Services struct {
	Attributes   *AttributeService
	ProductTypes *ProductTypeService
	PageTypes    *PageTypeService
	Channels     *ChannelService
	Categories   *CategoryService
	Shop         *ShopService
	Products     *ProductService
}

// New wires every service to repos. A nil clock means utc.Now.
func New(repos *repository.Repositories, clock Clock) *Services {
	if clock == nil {
		clock = utc.Now
	}
	attributes := NewAttributeService(repos.Attributes)
	productTypes := NewProductTypeService(repos.ProductTypes, attributes)
	return &Services{
		Attributes:   attributes,
		ProductTypes: productTypes,
		PageTypes:    NewPageTypeService(repos.PageTypes, attributes),
		Channels:     NewChannelService(repos.Channels),
		Categories:   NewCategoryService(repos.Categories, clock),
		Shop:         NewShopService(repos.Shop),
		Products:     NewProductService(repos, productTypes, clock),
	}
}

// entityContext scopes the logger to one entity.
func entityContext(ctx context.Context, kind report.Kind, name string) context.Context {
	return logging.WithEntity(ctx, string(kind), name)
}

// fail records and wraps a fatal error for one entity.
func fail(ctx context.Context, kind report.Kind, name string, err error) error {
	report.FromContext(ctx).Failed(kind, name, err)
	logging.Ctx(ctx).Error().Err(err).Msg("reconcile failed")
	return errors.NewReconcileError(string(kind), name, err)
}

// attached returns the names of attrs as a set.
func attached(attrs []repository.Attribute) map[string]string {
	set := make(map[string]string, len(attrs))
	for _, a := range attrs {
		set[a.Name] = a.ID
	}
	return set
}
