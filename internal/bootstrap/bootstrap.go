// Package bootstrap sequences a full reconciliation run.
//
// Stage 1 reconciles the shop, product types, channels, page types and
// categories, one task per kind running concurrently; the first failure
// cancels the stage and aborts the run. Stage 2 reconciles products one at a
// time once stage 1 has succeeded, recording each failure and moving on.
package bootstrap

import (
	"context"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/internal/service"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// Orchestrator runs reconciliations against one set of repositories.
type Orchestrator struct {
	repos     *repository.Repositories
	clock     service.Clock
	newRunID  func() string
	validator *schema.Validator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for report times and publication stamps.
func WithClock(clock service.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithRunID sets the run id generator.
func WithRunID(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

// New returns an Orchestrator.
func New(repos *repository.Repositories, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repos:     repos,
		clock:     utc.Now,
		newRunID:  uuid.NewString,
		validator: schema.NewValidator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run validates cfg and reconciles it. Nothing is sent when validation fails.
// The report is returned whenever the run started, including when stage 1
// aborts with an error; per-product failures only show up in the report.
func (o *Orchestrator) Run(ctx context.Context, cfg *schema.Configuration) (*report.Report, error) {
	if err := o.validator.Validate(cfg); err != nil {
		return nil, err
	}

	runID := o.newRunID()
	rec := report.NewRecorder(runID, o.clock())
	ctx = report.WithRecorder(logging.WithRunID(ctx, runID), rec)
	svc := service.New(o.repos, o.clock)

	logger := logging.Ctx(ctx)
	logger.Info().
		Int("channels", len(cfg.Channels)).
		Int("product_types", len(cfg.ProductTypes)).
		Int("page_types", len(cfg.PageTypes)).
		Int("categories", len(cfg.Categories)).
		Int("products", len(cfg.Products)).
		Msg("starting reconciliation")

	if err := o.stageOne(logging.WithStage(ctx, "stage1"), svc, cfg); err != nil {
		r := rec.Finish(o.clock())
		logger.Error().Err(err).Str("summary", r.Summary()).Msg("reconciliation aborted")
		return r, err
	}

	if err := o.stageTwo(logging.WithStage(ctx, "stage2"), svc, cfg.Products); err != nil {
		return rec.Finish(o.clock()), err
	}

	r := rec.Finish(o.clock())
	logger.Info().
		Str("summary", r.Summary()).
		Dur("duration", r.Duration()).
		Msg("reconciliation finished")
	return r, nil
}

// stageOne runs one task per entity kind. Items of a kind run in order and
// stop as soon as any task has failed.
func (o *Orchestrator) stageOne(ctx context.Context, svc *service.Services, cfg *schema.Configuration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Shop.Bootstrap(gctx, cfg.Shop)
	})
	g.Go(func() error {
		return each(gctx, cfg.ProductTypes, func(def schema.ProductTypeDefinition) error {
			_, err := svc.ProductTypes.Bootstrap(gctx, def)
			return err
		})
	})
	g.Go(func() error {
		return each(gctx, cfg.Channels, func(ch schema.Channel) error {
			_, err := svc.Channels.Bootstrap(gctx, ch)
			return err
		})
	})
	g.Go(func() error {
		return each(gctx, cfg.PageTypes, func(def schema.PageTypeDefinition) error {
			_, err := svc.PageTypes.Bootstrap(gctx, def)
			return err
		})
	})
	g.Go(func() error {
		return each(gctx, cfg.Categories, func(cat schema.Category) error {
			_, err := svc.Categories.Bootstrap(gctx, cat)
			return err
		})
	})

	return g.Wait()
}

// stageTwo reconciles products sequentially. A failed product is already
// recorded by the service; the loop only stops when ctx is done.
func (o *Orchestrator) stageTwo(ctx context.Context, svc *service.Services, products []schema.Product) error {
	failed := 0
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := svc.Products.Bootstrap(ctx, p); err != nil {
			failed++
			logging.Ctx(ctx).Warn().Err(err).Str("product", p.Name).Msg("product skipped, continuing")
		}
	}
	if failed > 0 {
		logging.Ctx(ctx).Warn().Int("failed", failed).Int("total", len(products)).Msg("some products failed")
	}
	return nil
}

func each[T any](ctx context.Context, items []T, fn func(T) error) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}
