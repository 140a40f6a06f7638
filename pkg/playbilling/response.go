package playbilling

// SubscriptionPurchaseV2 is the subset of the Android Publisher
// purchases.subscriptionsv2 resource read by this package. Every field may be
// absent.
type SubscriptionPurchaseV2 struct {
	Kind                 string     `json:"kind,omitempty"`
	RegionCode           string     `json:"regionCode,omitempty"`
	StartTime            string     `json:"startTime,omitempty"`
	SubscriptionState    string     `json:"subscriptionState,omitempty"`
	LatestOrderID        string     `json:"latestOrderId,omitempty"`
	LinkedPurchaseToken  string     `json:"linkedPurchaseToken,omitempty"`
	AcknowledgementState string     `json:"acknowledgementState,omitempty"`
	LineItems            []LineItem `json:"lineItems,omitempty"`
}

type LineItem struct {
	ProductID        string            `json:"productId,omitempty"`
	ExpiryTime       string            `json:"expiryTime,omitempty"`
	AutoRenewingPlan *AutoRenewingPlan `json:"autoRenewingPlan,omitempty"`
	OfferDetails     *OfferDetails     `json:"offerDetails,omitempty"`
}

type AutoRenewingPlan struct {
	AutoRenewEnabled bool   `json:"autoRenewEnabled,omitempty"`
	RecurringPrice   *Money `json:"recurringPrice,omitempty"`
}

type OfferDetails struct {
	BasePlanID string   `json:"basePlanId,omitempty"`
	OfferID    string   `json:"offerId,omitempty"`
	OfferTags  []string `json:"offerTags,omitempty"`
}

// Money follows google.type.Money. Units is an int64 encoded as a JSON string.
type Money struct {
	CurrencyCode string `json:"currencyCode,omitempty"`
	Units        string `json:"units,omitempty"`
	Nanos        int64  `json:"nanos,omitempty"`
}

// providerError is the Google API error envelope.
type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
