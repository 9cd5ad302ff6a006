package service

import (
	"context"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/slug"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// AttributeService creates missing attributes in bulk.
type AttributeService struct {
	repo repository.AttributeRepository
}

// NewAttributeService returns an AttributeService backed by repo.
func NewAttributeService(repo repository.AttributeRepository) *AttributeService {
	return &AttributeService{repo: repo}
}

// Bootstrap resolves defs within scope, creating the ones that do not exist
// yet. It issues one lookup for all names, then one create per missing
// attribute. A failed create is recorded and the attribute is left out of the
// result; only a failed lookup is returned as an error.
func (s *AttributeService) Bootstrap(ctx context.Context, defs []schema.AttributeDefinition, scope schema.AttributeType) (map[string]repository.Attribute, error) {
	result := make(map[string]repository.Attribute, len(defs))
	if len(defs) == 0 {
		return result, nil
	}

	existing, err := s.repo.FindAttributes(ctx, schema.AttributeNames(defs), scope)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		result[a.Name] = a
	}

	rec := report.FromContext(ctx)
	for _, def := range defs {
		if _, ok := result[def.Name]; ok {
			continue
		}
		actx := entityContext(ctx, report.KindAttribute, def.Name)
		variant, err := def.Variant()
		if err != nil {
			rec.Failed(report.KindAttribute, def.Name, err)
			logging.Ctx(actx).Warn().Err(err).Msg("skipping attribute")
			continue
		}
		created, err := s.repo.CreateAttribute(actx, CreateInput(variant, scope))
		if errors.IsAlreadyExists(err) {
			if a, ok := s.refind(actx, def.Name, scope); ok {
				logging.Ctx(actx).Debug().Msg("attribute appeared since lookup")
				rec.Unchanged(report.KindAttribute, def.Name)
				result[def.Name] = a
				continue
			}
		}
		if err != nil {
			rec.Failed(report.KindAttribute, def.Name, err)
			logging.Ctx(actx).Warn().Err(err).Msg("attribute create failed")
			continue
		}
		logging.Ctx(actx).Info().Str("input_type", string(created.InputType)).Msg("attribute created")
		rec.Created(report.KindAttribute, def.Name)
		result[def.Name] = *created
	}
	return result, nil
}

// refind looks name up again after a create reported a collision. A miss
// means the slug belongs to another scope.
func (s *AttributeService) refind(ctx context.Context, name string, scope schema.AttributeType) (repository.Attribute, bool) {
	found, err := s.repo.FindAttributes(ctx, []string{name}, scope)
	if err != nil || len(found) == 0 {
		return repository.Attribute{}, false
	}
	return found[0], true
}

// CreateInput builds the create payload for one attribute shape.
func CreateInput(v schema.AttributeVariant, scope schema.AttributeType) repository.AttributeCreateInput {
	in := repository.AttributeCreateInput{
		Name:      v.AttributeName(),
		Slug:      slug.Make(v.AttributeName()),
		InputType: v.Input(),
		Type:      scope,
	}
	switch v := v.(type) {
	case schema.ChoiceAttribute:
		in.Values = v.Values
	case schema.ReferenceAttribute:
		in.EntityType = v.EntityType
	case schema.SimpleAttribute:
	}
	return in
}
