package schema

// Channel is a sales channel identified by slug.
type Channel struct {
	Name           string           `json:"name" yaml:"name" validate:"required,max=250"`
	Slug           string           `json:"slug" yaml:"slug" validate:"required,max=255"`
	CurrencyCode   string           `json:"currencyCode" yaml:"currencyCode" validate:"required,len=3,uppercase"`
	DefaultCountry string           `json:"defaultCountry" yaml:"defaultCountry" validate:"required,len=2,uppercase"`
	IsActive       *bool            `json:"isActive,omitempty" yaml:"isActive,omitempty"`
	Settings       *ChannelSettings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Active reports the desired activation state; channels are active unless
// the document says otherwise.
func (c Channel) Active() bool {
	return c.IsActive == nil || *c.IsActive
}

// ChannelSettings holds channel policy. Only the keys present are sent to the
// platform, so unset remote fields are left alone.
type ChannelSettings struct {
	// Order settings
	AutomaticallyConfirmAllNewOrders        *bool   `json:"automaticallyConfirmAllNewOrders,omitempty" yaml:"automaticallyConfirmAllNewOrders,omitempty"`
	AutomaticallyFulfillNonShippableGiftCard *bool   `json:"automaticallyFulfillNonShippableGiftCard,omitempty" yaml:"automaticallyFulfillNonShippableGiftCard,omitempty"`
	ExpireOrdersAfter                       *int    `json:"expireOrdersAfter,omitempty" yaml:"expireOrdersAfter,omitempty" validate:"omitempty,gte=0"`
	DeleteExpiredOrdersAfter                *int    `json:"deleteExpiredOrdersAfter,omitempty" yaml:"deleteExpiredOrdersAfter,omitempty" validate:"omitempty,gte=1,lte=120"`
	MarkAsPaidStrategy                      *string `json:"markAsPaidStrategy,omitempty" yaml:"markAsPaidStrategy,omitempty" validate:"omitempty,oneof=TRANSACTION_FLOW PAYMENT_FLOW"`
	AllowUnpaidOrders                       *bool   `json:"allowUnpaidOrders,omitempty" yaml:"allowUnpaidOrders,omitempty"`
	IncludeDraftOrderInVoucherUsage         *bool   `json:"includeDraftOrderInVoucherUsage,omitempty" yaml:"includeDraftOrderInVoucherUsage,omitempty"`

	// Checkout settings
	UseLegacyErrorFlow                      *bool `json:"useLegacyErrorFlow,omitempty" yaml:"useLegacyErrorFlow,omitempty"`
	AutomaticallyCompleteFullyPaidCheckouts *bool `json:"automaticallyCompleteFullyPaidCheckouts,omitempty" yaml:"automaticallyCompleteFullyPaidCheckouts,omitempty"`

	// Payment settings
	DefaultTransactionFlowStrategy *string `json:"defaultTransactionFlowStrategy,omitempty" yaml:"defaultTransactionFlowStrategy,omitempty" validate:"omitempty,oneof=AUTHORIZATION CHARGE"`

	// Stock settings
	AllocationStrategy *string `json:"allocationStrategy,omitempty" yaml:"allocationStrategy,omitempty" validate:"omitempty,oneof=PRIORITIZE_SORTING_ORDER PRIORITIZE_HIGH_STOCK"`
}

// OrderSettings returns the present order keys.
func (s *ChannelSettings) OrderSettings() map[string]any {
	if s == nil {
		return nil
	}
	return present(map[string]any{
		"automaticallyConfirmAllNewOrders":        s.AutomaticallyConfirmAllNewOrders,
		"automaticallyFulfillNonShippableGiftCard": s.AutomaticallyFulfillNonShippableGiftCard,
		"expireOrdersAfter":                       s.ExpireOrdersAfter,
		"deleteExpiredOrdersAfter":                s.DeleteExpiredOrdersAfter,
		"markAsPaidStrategy":                      s.MarkAsPaidStrategy,
		"allowUnpaidOrders":                       s.AllowUnpaidOrders,
		"includeDraftOrderInVoucherUsage":         s.IncludeDraftOrderInVoucherUsage,
	})
}

// CheckoutSettings returns the present checkout keys.
func (s *ChannelSettings) CheckoutSettings() map[string]any {
	if s == nil {
		return nil
	}
	return present(map[string]any{
		"useLegacyErrorFlow":                      s.UseLegacyErrorFlow,
		"automaticallyCompleteFullyPaidCheckouts": s.AutomaticallyCompleteFullyPaidCheckouts,
	})
}

// PaymentSettings returns the present payment keys.
func (s *ChannelSettings) PaymentSettings() map[string]any {
	if s == nil {
		return nil
	}
	return present(map[string]any{
		"defaultTransactionFlowStrategy": s.DefaultTransactionFlowStrategy,
	})
}

// StockSettings returns the present stock keys.
func (s *ChannelSettings) StockSettings() map[string]any {
	if s == nil {
		return nil
	}
	return present(map[string]any{
		"allocationStrategy": s.AllocationStrategy,
	})
}

// present drops nil pointers and dereferences the rest. It returns nil when
// nothing is left.
func present(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch p := v.(type) {
		case *bool:
			if p != nil {
				out[k] = *p
			}
		case *int:
			if p != nil {
				out[k] = *p
			}
		case *string:
			if p != nil {
				out[k] = *p
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
