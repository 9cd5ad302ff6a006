package repository

import (
	"context"
	"encoding/json"

	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

const channelFields = `
fragment ChannelFields on Channel {
  id
  name
  slug
  currencyCode
  isActive
  defaultCountry { code }
  orderSettings {
    automaticallyConfirmAllNewOrders
    automaticallyFulfillNonShippableGiftCard
    expireOrdersAfter
    deleteExpiredOrdersAfter
    markAsPaidStrategy
    allowUnpaidOrders
    includeDraftOrderInVoucherUsage
  }
  checkoutSettings { useLegacyErrorFlow automaticallyCompleteFullyPaidCheckouts }
  paymentSettings { defaultTransactionFlowStrategy }
  stockSettings { allocationStrategy }
}`

const findChannelQuery = `query FindChannel($slug: String!) {
  channel(slug: $slug) { ...ChannelFields }
}` + channelFields

const listChannelsQuery = `query ListChannels {
  channels { ...ChannelFields }
}` + channelFields

const createChannelMutation = `mutation CreateChannel($input: ChannelCreateInput!) {
  channelCreate(input: $input) {
    channel { ...ChannelFields }
    errors { field message code }
  }
}` + channelFields

const updateChannelMutation = `mutation UpdateChannel($id: ID!, $input: ChannelUpdateInput!) {
  channelUpdate(id: $id, input: $input) {
    channel { ...ChannelFields }
    errors { field message code }
  }
}` + channelFields

const activateChannelMutation = `mutation ActivateChannel($id: ID!) {
  channelActivate(id: $id) {
    channel { id isActive }
    errors { field message code }
  }
}`

type channelNode struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	CurrencyCode   string `json:"currencyCode"`
	IsActive       bool   `json:"isActive"`
	DefaultCountry struct {
		Code string `json:"code"`
	} `json:"defaultCountry"`
	OrderSettings    json.RawMessage `json:"orderSettings"`
	CheckoutSettings json.RawMessage `json:"checkoutSettings"`
	PaymentSettings  json.RawMessage `json:"paymentSettings"`
	StockSettings    json.RawMessage `json:"stockSettings"`
}

// toChannel folds the four settings groups into one ChannelSettings. The
// group field names match the document keys.
func (n channelNode) toChannel() (Channel, error) {
	ch := Channel{
		ID:             n.ID,
		Name:           n.Name,
		Slug:           n.Slug,
		CurrencyCode:   n.CurrencyCode,
		DefaultCountry: n.DefaultCountry.Code,
		IsActive:       n.IsActive,
	}
	for _, group := range []json.RawMessage{n.OrderSettings, n.CheckoutSettings, n.PaymentSettings, n.StockSettings} {
		if len(group) == 0 || string(group) == "null" {
			continue
		}
		if err := json.Unmarshal(group, &ch.Settings); err != nil {
			return Channel{}, errors.WrapParse("json", "channel "+n.Slug, err)
		}
	}
	return ch, nil
}

func channelVariables(in ChannelInput, create bool) map[string]any {
	input := map[string]any{"name": in.Name}
	if create {
		input["slug"] = in.Slug
		input["currencyCode"] = in.CurrencyCode
		input["defaultCountry"] = in.DefaultCountry
	}
	if in.IsActive != nil {
		input["isActive"] = *in.IsActive
	}
	groups := map[string]map[string]any{
		"orderSettings":    in.Order,
		"checkoutSettings": in.Checkout,
		"paymentSettings":  in.Payment,
		"stockSettings":    in.Stock,
	}
	for key, group := range groups {
		if len(group) > 0 {
			input[key] = group
		}
	}
	return input
}

// FindChannel returns the channel with slug.
func (g *GraphQL) FindChannel(ctx context.Context, slug string) (*Channel, error) {
	var out struct {
		Channel *channelNode `json:"channel"`
	}
	if err := g.req.Do(ctx, findChannelQuery, map[string]any{"slug": slug}, &out); err != nil {
		return nil, err
	}
	if out.Channel == nil {
		return nil, errors.NewNotFoundError("channel", slug)
	}
	ch, err := out.Channel.toChannel()
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChannels returns every channel.
func (g *GraphQL) ListChannels(ctx context.Context) ([]Channel, error) {
	var out struct {
		Channels []channelNode `json:"channels"`
	}
	if err := g.req.Do(ctx, listChannelsQuery, nil, &out); err != nil {
		return nil, err
	}
	channels := make([]Channel, 0, len(out.Channels))
	for _, n := range out.Channels {
		ch, err := n.toChannel()
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// CreateChannel creates a channel.
func (g *GraphQL) CreateChannel(ctx context.Context, in ChannelInput) (*Channel, error) {
	var out struct {
		ChannelCreate struct {
			payload
			Channel *channelNode `json:"channel"`
		} `json:"channelCreate"`
	}
	vars := map[string]any{"input": channelVariables(in, true)}
	if err := g.req.Do(ctx, createChannelMutation, vars, &out); err != nil {
		return nil, err
	}
	return finishChannel("channelCreate", in.Slug, out.ChannelCreate.payload, out.ChannelCreate.Channel)
}

// UpdateChannel sends the name and the present settings groups.
func (g *GraphQL) UpdateChannel(ctx context.Context, id string, in ChannelInput) (*Channel, error) {
	var out struct {
		ChannelUpdate struct {
			payload
			Channel *channelNode `json:"channel"`
		} `json:"channelUpdate"`
	}
	vars := map[string]any{"id": id, "input": channelVariables(in, false)}
	if err := g.req.Do(ctx, updateChannelMutation, vars, &out); err != nil {
		return nil, err
	}
	return finishChannel("channelUpdate", in.Slug, out.ChannelUpdate.payload, out.ChannelUpdate.Channel)
}

// ActivateChannel activates a channel. The platform rejects activating an
// active channel; callers decide whether that matters.
func (g *GraphQL) ActivateChannel(ctx context.Context, id string) error {
	var out struct {
		ChannelActivate payload `json:"channelActivate"`
	}
	if err := g.req.Do(ctx, activateChannelMutation, map[string]any{"id": id}, &out); err != nil {
		return err
	}
	return out.ChannelActivate.err("channelActivate")
}

func finishChannel(operation, slug string, p payload, n *channelNode) (*Channel, error) {
	if err := p.err(operation); err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errors.NewResourceError(operation, "channel", slug, errors.New("empty payload"))
	}
	ch, err := n.toChannel()
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// settingsInput splits document settings into the platform's groups.
func settingsInput(in *ChannelInput, s *schema.ChannelSettings) {
	in.Order = s.OrderSettings()
	in.Checkout = s.CheckoutSettings()
	in.Payment = s.PaymentSettings()
	in.Stock = s.StockSettings()
}

// NewChannelInput builds the input for a document channel.
func NewChannelInput(ch schema.Channel) ChannelInput {
	in := ChannelInput{
		Name:           ch.Name,
		Slug:           ch.Slug,
		CurrencyCode:   ch.CurrencyCode,
		DefaultCountry: ch.DefaultCountry,
	}
	settingsInput(&in, ch.Settings)
	return in
}
