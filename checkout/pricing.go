package checkout

import (
	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/config"
)

// price computes the monetary breakdown for a cart snapshot. Shipping is
// waived when the items total exceeds the free-shipping threshold; every
// value is rounded to cents half away from zero.
func price(items commerce.Cart, cfg config.CheckoutConfig) commerce.Pricing {
	itemsTotal := items.ItemsTotal()
	tax := commerce.Round2(itemsTotal * cfg.TaxRate)

	shipping := cfg.ShippingFee
	if itemsTotal > cfg.FreeShippingThreshold {
		shipping = 0
	}

	return commerce.Pricing{
		ItemsTotal: itemsTotal,
		Tax:        tax,
		Shipping:   commerce.Round2(shipping),
		GrandTotal: commerce.Round2(itemsTotal + tax + shipping),
	}
}
