package schema

// ShopSettings is the singleton shop policy. Every field is optional and only
// present keys are sent.
type ShopSettings struct {
	HeaderText                            *string `json:"headerText,omitempty" yaml:"headerText,omitempty"`
	Description                           *string `json:"description,omitempty" yaml:"description,omitempty"`
	TrackInventoryByDefault               *bool   `json:"trackInventoryByDefault,omitempty" yaml:"trackInventoryByDefault,omitempty"`
	DefaultWeightUnit                     *string `json:"defaultWeightUnit,omitempty" yaml:"defaultWeightUnit,omitempty" validate:"omitempty,oneof=G LB OZ KG TONNE"`
	AutomaticFulfillmentDigitalProducts   *bool   `json:"automaticFulfillmentDigitalProducts,omitempty" yaml:"automaticFulfillmentDigitalProducts,omitempty"`
	FulfillmentAutoApprove                *bool   `json:"fulfillmentAutoApprove,omitempty" yaml:"fulfillmentAutoApprove,omitempty"`
	FulfillmentAllowUnpaid                *bool   `json:"fulfillmentAllowUnpaid,omitempty" yaml:"fulfillmentAllowUnpaid,omitempty"`
	DefaultDigitalMaxDownloads            *int    `json:"defaultDigitalMaxDownloads,omitempty" yaml:"defaultDigitalMaxDownloads,omitempty" validate:"omitempty,gte=0"`
	DefaultDigitalURLValidDays            *int    `json:"defaultDigitalUrlValidDays,omitempty" yaml:"defaultDigitalUrlValidDays,omitempty" validate:"omitempty,gte=0"`
	DefaultMailSenderName                 *string `json:"defaultMailSenderName,omitempty" yaml:"defaultMailSenderName,omitempty"`
	DefaultMailSenderAddress              *string `json:"defaultMailSenderAddress,omitempty" yaml:"defaultMailSenderAddress,omitempty" validate:"omitempty,email"`
	CustomerSetPasswordURL                *string `json:"customerSetPasswordUrl,omitempty" yaml:"customerSetPasswordUrl,omitempty" validate:"omitempty,url"`
	ReserveStockDurationAnonymousUser     *int    `json:"reserveStockDurationAnonymousUser,omitempty" yaml:"reserveStockDurationAnonymousUser,omitempty" validate:"omitempty,gte=0"`
	ReserveStockDurationAuthenticatedUser *int    `json:"reserveStockDurationAuthenticatedUser,omitempty" yaml:"reserveStockDurationAuthenticatedUser,omitempty" validate:"omitempty,gte=0"`
	LimitQuantityPerCheckout              *int    `json:"limitQuantityPerCheckout,omitempty" yaml:"limitQuantityPerCheckout,omitempty" validate:"omitempty,gte=1"`
	EnableAccountConfirmationByEmail      *bool   `json:"enableAccountConfirmationByEmail,omitempty" yaml:"enableAccountConfirmationByEmail,omitempty"`
	AllowLoginWithoutConfirmation         *bool   `json:"allowLoginWithoutConfirmation,omitempty" yaml:"allowLoginWithoutConfirmation,omitempty"`
	DisplayGrossPrices                    *bool   `json:"displayGrossPrices,omitempty" yaml:"displayGrossPrices,omitempty"`
}

// IsEmpty reports whether no key is present.
func (s *ShopSettings) IsEmpty() bool {
	return len(s.Input()) == 0
}

// Input returns the present keys keyed by their platform field name.
func (s *ShopSettings) Input() map[string]any {
	if s == nil {
		return nil
	}
	return present(map[string]any{
		"headerText":                            s.HeaderText,
		"description":                           s.Description,
		"trackInventoryByDefault":               s.TrackInventoryByDefault,
		"defaultWeightUnit":                     s.DefaultWeightUnit,
		"automaticFulfillmentDigitalProducts":   s.AutomaticFulfillmentDigitalProducts,
		"fulfillmentAutoApprove":                s.FulfillmentAutoApprove,
		"fulfillmentAllowUnpaid":                s.FulfillmentAllowUnpaid,
		"defaultDigitalMaxDownloads":            s.DefaultDigitalMaxDownloads,
		"defaultDigitalUrlValidDays":            s.DefaultDigitalURLValidDays,
		"defaultMailSenderName":                 s.DefaultMailSenderName,
		"defaultMailSenderAddress":              s.DefaultMailSenderAddress,
		"customerSetPasswordUrl":                s.CustomerSetPasswordURL,
		"reserveStockDurationAnonymousUser":     s.ReserveStockDurationAnonymousUser,
		"reserveStockDurationAuthenticatedUser": s.ReserveStockDurationAuthenticatedUser,
		"limitQuantityPerCheckout":              s.LimitQuantityPerCheckout,
		"enableAccountConfirmationByEmail":      s.EnableAccountConfirmationByEmail,
		"allowLoginWithoutConfirmation":         s.AllowLoginWithoutConfirmation,
		"displayGrossPrices":                    s.DisplayGrossPrices,
	})
}
