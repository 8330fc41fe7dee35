package spt

import (
	"encoding/json"
	"time"

	"github.com/oapi-codegen/runtime"
)

// CheckoutSessionStatus enumerates the seller-side session states.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusCanceled           CheckoutSessionStatus = "canceled"
	CheckoutSessionStatusCompleted          CheckoutSessionStatus = "completed"
	CheckoutSessionStatusInProgress         CheckoutSessionStatus = "in_progress"
	CheckoutSessionStatusNotReadyForPayment CheckoutSessionStatus = "not_ready_for_payment"
	CheckoutSessionStatusReadyForPayment    CheckoutSessionStatus = "ready_for_payment"
)

// TotalType labels one entry of the session's totals breakdown.
type TotalType string

const (
	TotalTypeDiscount        TotalType = "discount"
	TotalTypeFee             TotalType = "fee"
	TotalTypeFulfillment     TotalType = "fulfillment"
	TotalTypeItemsBaseAmount TotalType = "items_base_amount"
	TotalTypeItemsDiscount   TotalType = "items_discount"
	TotalTypeSubtotal        TotalType = "subtotal"
	TotalTypeTax             TotalType = "tax"
	TotalTypeTotal           TotalType = "total"
)

// Total is one entry of the ordered totals breakdown. Exactly one entry of a
// well-formed session carries [TotalTypeTotal].
type Total struct {
	Amount      int       `json:"amount"`
	DisplayText string    `json:"display_text,omitempty"`
	Type        TotalType `json:"type"`
}

// Address is a fulfillment or billing address.
type Address struct {
	Name       string  `json:"name"`
	LineOne    string  `json:"line_one"`
	LineTwo    *string `json:"line_two,omitempty"`
	PostalCode string  `json:"postal_code"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
}

// Buyer identifies the purchasing party.
type Buyer struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// Item references a product and quantity in create/update requests.
type Item struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// LineItem is a priced line of the session.
type LineItem struct {
	ID         string `json:"id"`
	BaseAmount int    `json:"base_amount"`
	Discount   int    `json:"discount"`
	Item       Item   `json:"item"`
	Subtotal   int    `json:"subtotal"`
	Tax        int    `json:"tax"`
	Total      int    `json:"total"`
}

// Message carries informational or error content attached to a session.
type Message struct {
	Type        string  `json:"type"`
	Code        string  `json:"code,omitempty"`
	Content     string  `json:"content"`
	ContentType string  `json:"content_type"`
	Param       *string `json:"param,omitempty"`
}

// CheckoutSession is the seller-side record of an in-progress purchase.
type CheckoutSession struct {
	ID                  string                `json:"id"`
	Buyer               *Buyer                `json:"buyer,omitempty"`
	Currency            string                `json:"currency"`
	FulfillmentAddress  *Address              `json:"fulfillment_address,omitempty"`
	FulfillmentOptionID *string               `json:"fulfillment_option_id,omitempty"`
	FulfillmentOptions  []FulfillmentOption   `json:"fulfillment_options,omitempty"`
	LineItems           []LineItem            `json:"line_items"`
	Messages            []Message             `json:"messages,omitempty"`
	Status              CheckoutSessionStatus `json:"status"`
	Totals              []Total               `json:"totals"`
}

// CheckoutSessionCreateRequest opens a new session.
type CheckoutSessionCreateRequest struct {
	Buyer              *Buyer   `json:"buyer,omitempty"`
	FulfillmentAddress *Address `json:"fulfillment_address,omitempty"`
	Items              []Item   `json:"items"`
}

// CheckoutSessionUpdateRequest mutates an existing session. Nil fields are
// omitted from the request body.
type CheckoutSessionUpdateRequest struct {
	Buyer               *Buyer   `json:"buyer,omitempty"`
	FulfillmentAddress  *Address `json:"fulfillment_address,omitempty"`
	FulfillmentOptionID *string  `json:"fulfillment_option_id,omitempty"`
	Items               *[]Item  `json:"items,omitempty"`
}

// PaymentData carries the delegated token presented at completion.
type PaymentData struct {
	Token    string `json:"token"`
	Provider string `json:"provider"`
}

// CheckoutSessionCompleteRequest is the body of the completion call.
type CheckoutSessionCompleteRequest struct {
	PaymentData    PaymentData `json:"payment_data"`
	BillingAddress *Address    `json:"billing_address,omitempty"`
}

// Order is created by the seller backend once a session completes.
type Order struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	PermalinkURL      string `json:"permalink_url"`
}

// SessionWithOrder is the seller's completion response: the final session
// state plus the resulting order.
type SessionWithOrder struct {
	CheckoutSession
	Order *Order `json:"order,omitempty"`
}

// FulfillmentOption is a union of the shipping and digital option shapes.
type FulfillmentOption struct {
	union json.RawMessage
}

// FulfillmentOptionShipping describes a physical delivery option.
type FulfillmentOptionShipping struct {
	ID                   string     `json:"id"`
	Carrier              *string    `json:"carrier,omitempty"`
	EarliestDeliveryTime *time.Time `json:"earliest_delivery_time,omitempty"`
	LatestDeliveryTime   *time.Time `json:"latest_delivery_time,omitempty"`
	Subtitle             *string    `json:"subtitle,omitempty"`
	Subtotal             string     `json:"subtotal"`
	Tax                  string     `json:"tax"`
	Title                string     `json:"title"`
	Total                string     `json:"total"`
	Type                 string     `json:"type"`
}

// FulfillmentOptionDigital describes a digital delivery option.
type FulfillmentOptionDigital struct {
	ID       string  `json:"id"`
	Subtitle *string `json:"subtitle,omitempty"`
	Subtotal string  `json:"subtotal"`
	Tax      string  `json:"tax"`
	Title    string  `json:"title"`
	Total    string  `json:"total"`
	Type     string  `json:"type"`
}

// AsFulfillmentOptionShipping returns the union data as a FulfillmentOptionShipping.
func (t FulfillmentOption) AsFulfillmentOptionShipping() (FulfillmentOptionShipping, error) {
	var body FulfillmentOptionShipping
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromFulfillmentOptionShipping overwrites the union data with the provided FulfillmentOptionShipping.
func (t *FulfillmentOption) FromFulfillmentOptionShipping(v FulfillmentOptionShipping) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeFulfillmentOptionShipping merges the provided FulfillmentOptionShipping into the union data.
func (t *FulfillmentOption) MergeFulfillmentOptionShipping(v FulfillmentOptionShipping) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// AsFulfillmentOptionDigital returns the union data as a FulfillmentOptionDigital.
func (t FulfillmentOption) AsFulfillmentOptionDigital() (FulfillmentOptionDigital, error) {
	var body FulfillmentOptionDigital
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromFulfillmentOptionDigital overwrites the union data with the provided FulfillmentOptionDigital.
func (t *FulfillmentOption) FromFulfillmentOptionDigital(v FulfillmentOptionDigital) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeFulfillmentOptionDigital merges the provided FulfillmentOptionDigital into the union data.
func (t *FulfillmentOption) MergeFulfillmentOptionDigital(v FulfillmentOptionDigital) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// MarshalJSON serializes the underlying union.
func (t FulfillmentOption) MarshalJSON() ([]byte, error) {
	return t.union.MarshalJSON()
}

// UnmarshalJSON loads the underlying union.
func (t *FulfillmentOption) UnmarshalJSON(b []byte) error {
	return t.union.UnmarshalJSON(b)
}
