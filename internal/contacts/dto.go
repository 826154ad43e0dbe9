package contacts

import (
	"github.com/shopspring/decimal"
)

// ContactPriceCents is the fixed checkout amount for a contact unlock.
const ContactPriceCents int64 = 500

// ContactPriceCurrency is the checkout currency.
const ContactPriceCurrency = "eur"

// ContactPrice is the unlock amount in euros as stored on the purchase row.
var ContactPrice = decimal.New(ContactPriceCents, -2)

// CheckoutSessionDTO is returned to the performer to redirect into Stripe.
type CheckoutSessionDTO struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}
