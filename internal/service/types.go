package service

import (
	"context"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/utils/ptr"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// ProductTypeService reconciles product types and their attribute assignments.
type ProductTypeService struct {
	repo       repository.ProductTypeRepository
	attributes *AttributeService
}

// NewProductTypeService returns a ProductTypeService.
func NewProductTypeService(repo repository.ProductTypeRepository, attributes *AttributeService) *ProductTypeService {
	return &ProductTypeService{repo: repo, attributes: attributes}
}

// Ensure returns the product type named name, creating it without attributes
// when it does not exist.
func (s *ProductTypeService) Ensure(ctx context.Context, name string, isShippingRequired bool) (*repository.ProductType, bool, error) {
	pt, err := s.repo.FindProductType(ctx, name)
	if err == nil {
		return pt, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, err
	}
	pt, err = s.repo.CreateProductType(ctx, name, isShippingRequired)
	if err != nil {
		return nil, false, err
	}
	logging.Ctx(ctx).Info().Str("id", pt.ID).Msg("product type created")
	report.FromContext(ctx).Created(report.KindProductType, name)
	return pt, true, nil
}

// Bootstrap gets or creates the product type and assigns the attributes it
// is missing, in a single assignment call.
func (s *ProductTypeService) Bootstrap(ctx context.Context, def schema.ProductTypeDefinition) (*repository.ProductType, error) {
	ctx = entityContext(ctx, report.KindProductType, def.Name)

	pt, created, err := s.Ensure(ctx, def.Name, ptr.Deref(def.IsShippingRequired))
	if err != nil {
		return nil, fail(ctx, report.KindProductType, def.Name, err)
	}

	missing := unassigned(def.Attributes, pt.Attributes)
	if len(missing) == 0 {
		if !created {
			report.FromContext(ctx).Unchanged(report.KindProductType, def.Name)
		}
		return pt, nil
	}

	resolved, err := s.attributes.Bootstrap(ctx, missing, schema.AttributeTypeProductType)
	if err != nil {
		return nil, fail(ctx, report.KindProductType, def.Name, err)
	}

	live, err := s.repo.FindProductType(ctx, def.Name)
	if err != nil {
		return nil, fail(ctx, report.KindProductType, def.Name, err)
	}
	ids := assignmentDelta(missing, resolved, live.Attributes)
	if len(ids) == 0 {
		if !created {
			report.FromContext(ctx).Unchanged(report.KindProductType, def.Name)
		}
		return live, nil
	}

	if err := s.repo.AssignProductAttributes(ctx, live.ID, ids); err != nil {
		return nil, fail(ctx, report.KindProductType, def.Name, err)
	}
	logging.Ctx(ctx).Info().Int("attributes", len(ids)).Msg("attributes assigned")
	if !created {
		report.FromContext(ctx).Updated(report.KindProductType, def.Name)
	}
	for _, id := range ids {
		live.Attributes = append(live.Attributes, repository.Attribute{ID: id})
	}
	return live, nil
}

// PageTypeService reconciles page types and their attribute assignments.
type PageTypeService struct {
	repo       repository.PageTypeRepository
	attributes *AttributeService
}

// NewPageTypeService returns a PageTypeService.
func NewPageTypeService(repo repository.PageTypeRepository, attributes *AttributeService) *PageTypeService {
	return &PageTypeService{repo: repo, attributes: attributes}
}

// Bootstrap gets or creates the page type and assigns the attributes it is missing.
func (s *PageTypeService) Bootstrap(ctx context.Context, def schema.PageTypeDefinition) (*repository.PageType, error) {
	ctx = entityContext(ctx, report.KindPageType, def.Name)
	rec := report.FromContext(ctx)

	created := false
	pt, err := s.repo.FindPageType(ctx, def.Name)
	if errors.IsNotFound(err) {
		pt, err = s.repo.CreatePageType(ctx, def.Name)
		if err == nil {
			created = true
			logging.Ctx(ctx).Info().Str("id", pt.ID).Msg("page type created")
			rec.Created(report.KindPageType, def.Name)
		}
	}
	if err != nil {
		return nil, fail(ctx, report.KindPageType, def.Name, err)
	}

	missing := unassigned(def.Attributes, pt.Attributes)
	var ids []string
	if len(missing) > 0 {
		resolved, err := s.attributes.Bootstrap(ctx, missing, schema.AttributeTypePageType)
		if err != nil {
			return nil, fail(ctx, report.KindPageType, def.Name, err)
		}
		if pt, err = s.repo.FindPageType(ctx, def.Name); err != nil {
			return nil, fail(ctx, report.KindPageType, def.Name, err)
		}
		ids = assignmentDelta(missing, resolved, pt.Attributes)
	}

	if len(ids) == 0 {
		if !created {
			rec.Unchanged(report.KindPageType, def.Name)
		}
		return pt, nil
	}
	if err := s.repo.AssignPageAttributes(ctx, pt.ID, ids); err != nil {
		return nil, fail(ctx, report.KindPageType, def.Name, err)
	}
	logging.Ctx(ctx).Info().Int("attributes", len(ids)).Msg("attributes assigned")
	if !created {
		rec.Updated(report.KindPageType, def.Name)
	}
	return pt, nil
}

// unassigned drops the definitions whose names are already on the type.
func unassigned(defs []schema.AttributeDefinition, current []repository.Attribute) []schema.AttributeDefinition {
	have := attached(current)
	var missing []schema.AttributeDefinition
	for _, d := range defs {
		if _, ok := have[d.Name]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// assignmentDelta returns the ids of resolved attributes, in definition
// order, that the live type does not carry yet.
func assignmentDelta(defs []schema.AttributeDefinition, resolved map[string]repository.Attribute, live []repository.Attribute) []string {
	have := make(map[string]bool, len(live))
	for _, a := range live {
		have[a.ID] = true
	}
	var ids []string
	for _, d := range defs {
		a, ok := resolved[d.Name]
		if !ok || have[a.ID] {
			continue
		}
		have[a.ID] = true
		ids = append(ids, a.ID)
	}
	return ids
}
