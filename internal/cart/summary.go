package cart

import "github.com/printforge/storefront/internal/models"

// Flat shipping and tax rate used for the client-side order summary.
const (
	shippingFlat = 5.00
	taxRate      = 0.086
)

// Summary is the checkout-time order summary computed from the cart.
type Summary struct {
	Subtotal float64
	Shipping float64
	Taxes    float64
	Total    float64
}

// Summarize computes the order summary for a cart snapshot. An empty cart
// yields a zero summary, shipping included: there is nothing to ship.
func Summarize(lines []models.CartLine) Summary {
	if len(lines) == 0 {
		return Summary{}
	}
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.UnitPrice * float64(l.Quantity)
	}
	s.Shipping = shippingFlat
	s.Taxes = s.Subtotal * taxRate
	s.Total = s.Subtotal + s.Shipping + s.Taxes
	return s
}
