package service

import (
	"cmp"
	"context"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/slug"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// CategoryService reconciles category trees by name.
type CategoryService struct {
	repo  repository.CategoryRepository
	clock Clock
}

// NewCategoryService returns a CategoryService.
func NewCategoryService(repo repository.CategoryRepository, clock Clock) *CategoryService {
	return &CategoryService{repo: repo, clock: clock}
}

// Bootstrap gets or creates the top-level category, then creates the missing
// subcategories level by level. Remote children that the document does not
// name are left alone, and so are the children of any subcategory that does
// not declare subcategories itself.
func (s *CategoryService) Bootstrap(ctx context.Context, cat schema.Category) (*repository.Category, error) {
	ctx = entityContext(ctx, report.KindCategory, cat.Name)

	root, err := s.repo.FindRootCategory(ctx, cat.Name)
	switch {
	case errors.IsNotFound(err):
		if root, err = s.create(ctx, cat, ""); err != nil {
			return nil, fail(ctx, report.KindCategory, cat.Name, err)
		}
	case err != nil:
		return nil, fail(ctx, report.KindCategory, cat.Name, err)
	default:
		report.FromContext(ctx).Unchanged(report.KindCategory, cat.Name)
	}

	if err := s.children(ctx, root, cat.Subcategories); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *CategoryService) children(ctx context.Context, parent *repository.Category, desired []schema.Category) error {
	existing := make(map[string]repository.Category, len(parent.Children))
	for _, c := range parent.Children {
		existing[c.Name] = c
	}

	for _, want := range desired {
		cctx := entityContext(ctx, report.KindCategory, want.Name)
		child, ok := existing[want.Name]
		node := &child
		if ok {
			report.FromContext(cctx).Unchanged(report.KindCategory, want.Name)
		} else {
			created, err := s.create(cctx, want, parent.ID)
			if err != nil {
				return fail(cctx, report.KindCategory, want.Name, err)
			}
			node = created
		}

		if len(want.Subcategories) == 0 {
			continue
		}
		if ok {
			// Lookups only carry direct children, so fetch this node's own.
			full, err := s.repo.GetCategory(cctx, node.ID)
			if err != nil {
				return fail(cctx, report.KindCategory, want.Name, err)
			}
			node = full
		}
		if err := s.children(cctx, node, want.Subcategories); err != nil {
			return err
		}
	}
	return nil
}

func (s *CategoryService) create(ctx context.Context, cat schema.Category, parentID string) (*repository.Category, error) {
	description, err := RichText(cat.Name, cat.Description, s.clock())
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateCategory(ctx, repository.CategoryInput{
		Name:        cat.Name,
		Slug:        cmp.Or(cat.Slug, slug.Make(cat.Name)),
		Description: description,
	}, parentID)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("id", created.ID).Str("parent", parentID).Msg("category created")
	report.FromContext(ctx).Created(report.KindCategory, cat.Name)
	return created, nil
}
