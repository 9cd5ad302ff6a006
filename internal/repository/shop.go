package repository

import (
	"context"

	"github.com/agentstation/configurator/pkg/schema"
)

const shopFields = `
fragment ShopFields on Shop {
  headerText
  description
  trackInventoryByDefault
  defaultWeightUnit
  automaticFulfillmentDigitalProducts
  fulfillmentAutoApprove
  fulfillmentAllowUnpaid
  defaultDigitalMaxDownloads
  defaultDigitalUrlValidDays
  defaultMailSenderName
  defaultMailSenderAddress
  customerSetPasswordUrl
  reserveStockDurationAnonymousUser
  reserveStockDurationAuthenticatedUser
  limitQuantityPerCheckout
  enableAccountConfirmationByEmail
  allowLoginWithoutConfirmation
  displayGrossPrices
}`

const getShopQuery = `query GetShop {
  shop { ...ShopFields }
}` + shopFields

const updateShopMutation = `mutation UpdateShop($input: ShopSettingsInput!) {
  shopSettingsUpdate(input: $input) {
    shop { ...ShopFields }
    errors { field message code }
  }
}` + shopFields

// GetShop returns the shop settings. The document keys match the platform
// field names, so the settings decode directly.
func (g *GraphQL) GetShop(ctx context.Context) (*schema.ShopSettings, error) {
	var out struct {
		Shop schema.ShopSettings `json:"shop"`
	}
	if err := g.req.Do(ctx, getShopQuery, nil, &out); err != nil {
		return nil, err
	}
	return &out.Shop, nil
}

// UpdateShop sends a partial settings update.
func (g *GraphQL) UpdateShop(ctx context.Context, input map[string]any) error {
	var out struct {
		ShopSettingsUpdate payload `json:"shopSettingsUpdate"`
	}
	if err := g.req.Do(ctx, updateShopMutation, map[string]any{"input": input}, &out); err != nil {
		return err
	}
	return out.ShopSettingsUpdate.err("shopSettingsUpdate")
}
