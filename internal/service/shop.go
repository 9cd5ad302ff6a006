package service

import (
	"context"

	"github.com/agentstation/configurator/internal/repository"
	"github.com/agentstation/configurator/pkg/logging"
	"github.com/agentstation/configurator/pkg/report"
	"github.com/agentstation/configurator/pkg/schema"
)

// shopName labels the singleton in reports.
const shopName = "shop"

// ShopService applies shop-wide settings.
type ShopService struct {
	repo repository.ShopRepository
}

// NewShopService returns a ShopService.
func NewShopService(repo repository.ShopRepository) *ShopService {
	return &ShopService{repo: repo}
}

// Bootstrap sends the present settings as one partial update. Empty settings
// issue no call.
func (s *ShopService) Bootstrap(ctx context.Context, settings *schema.ShopSettings) error {
	if settings.IsEmpty() {
		return nil
	}
	ctx = entityContext(ctx, report.KindShop, shopName)
	input := settings.Input()
	if err := s.repo.UpdateShop(ctx, input); err != nil {
		return fail(ctx, report.KindShop, shopName, err)
	}
	logging.Ctx(ctx).Info().Int("fields", len(input)).Msg("shop settings updated")
	report.FromContext(ctx).Updated(report.KindShop, shopName)
	return nil
}
