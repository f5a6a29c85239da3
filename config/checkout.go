package config

import "fmt"

// CheckoutConfig holds the pricing knobs applied at order materialization.
type CheckoutConfig struct {
	TaxRate               float64 `koanf:"taxrate"`
	FreeShippingThreshold float64 `koanf:"freeshippingthreshold"`
	ShippingFee           float64 `koanf:"shippingfee"`
}

// DefaultCheckout returns the storefront's stock pricing policy.
func DefaultCheckout() CheckoutConfig {
	return CheckoutConfig{
		TaxRate:               0.10,
		FreeShippingThreshold: 100.00,
		ShippingFee:           10.00,
	}
}

func (c *CheckoutConfig) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("checkout.taxrate must be in [0, 1): %v", c.TaxRate)
	}
	if c.FreeShippingThreshold < 0 {
		return fmt.Errorf("checkout.freeshippingthreshold must be >= 0: %v", c.FreeShippingThreshold)
	}
	if c.ShippingFee < 0 {
		return fmt.Errorf("checkout.shippingfee must be >= 0: %v", c.ShippingFee)
	}
	return nil
}
