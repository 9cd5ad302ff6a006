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

// ChannelService upserts channels by slug.
type ChannelService struct {
	repo repository.ChannelRepository
}

// NewChannelService returns a ChannelService.
func NewChannelService(repo repository.ChannelRepository) *ChannelService {
	return &ChannelService{repo: repo}
}

// Bootstrap creates the channel when absent, activates it when inactive and
// applies the settings present in ch. Settings absent from ch are never sent.
// An existing channel marked isActive: false is deactivated by the update.
func (s *ChannelService) Bootstrap(ctx context.Context, ch schema.Channel) (*repository.Channel, error) {
	ctx = entityContext(ctx, report.KindChannel, ch.Slug)
	rec := report.FromContext(ctx)

	existing, err := s.repo.FindChannel(ctx, ch.Slug)
	switch {
	case errors.IsNotFound(err):
		in := repository.NewChannelInput(ch)
		in.IsActive = ptr.Bool(ch.Active())
		created, err := s.repo.CreateChannel(ctx, in)
		if err != nil {
			return nil, fail(ctx, report.KindChannel, ch.Slug, err)
		}
		logging.Ctx(ctx).Info().Str("id", created.ID).Msg("channel created")
		if ch.Active() {
			if err := s.activate(ctx, created.ID); err != nil {
				return nil, fail(ctx, report.KindChannel, ch.Slug, err)
			}
			created.IsActive = true
		}
		rec.Created(report.KindChannel, ch.Slug)
		return created, nil
	case err != nil:
		return nil, fail(ctx, report.KindChannel, ch.Slug, err)
	}

	if !existing.IsActive && ch.Active() {
		if err := s.activate(ctx, existing.ID); err != nil {
			return nil, fail(ctx, report.KindChannel, ch.Slug, err)
		}
	}

	in := repository.NewChannelInput(ch)
	if !ch.Active() {
		in.IsActive = ptr.Bool(false)
	}
	updated, err := s.repo.UpdateChannel(ctx, existing.ID, in)
	if err != nil {
		return nil, fail(ctx, report.KindChannel, ch.Slug, err)
	}
	if existing.IsActive && !updated.IsActive {
		logging.Ctx(ctx).Info().Str("id", updated.ID).Msg("channel deactivated")
	}
	logging.Ctx(ctx).Debug().Str("id", updated.ID).Msg("channel updated")
	rec.Updated(report.KindChannel, ch.Slug)
	return updated, nil
}

// activate activates the channel, treating "already activated" as success.
func (s *ChannelService) activate(ctx context.Context, id string) error {
	err := s.repo.ActivateChannel(ctx, id)
	var mutErr *errors.MutationError
	if errors.As(err, &mutErr) && mutErr.HasMessage("already activated") {
		logging.Ctx(ctx).Debug().Msg("channel already active")
		return nil
	}
	return err
}
