// Package pricing holds the storefront's pricing rules: unit price resolution,
// coupon evaluation, cart totals, combo bundle selection and variant lookup.
// Everything here is pure; callers load data and persist results.
package pricing

// Product is the slice of a catalog product that pricing needs.
type Product struct {
	BasePriceCents int64
	SalePriceCents *int64
}

// OnSale reports whether the sale price is usable. A sale price that is not
// strictly below the base price is treated as stale promotional data.
func (p Product) OnSale() bool {
	return p.SalePriceCents != nil && *p.SalePriceCents < p.BasePriceCents
}

// ResolvePrice returns the unit price in minor units. A selected variant's
// absolute override wins, then a valid sale price, then the base price.
func ResolvePrice(product Product, variant *Variant) int64 {
	if variant != nil && variant.PriceCents != nil {
		return *variant.PriceCents
	}
	if product.OnSale() {
		return *product.SalePriceCents
	}
	return product.BasePriceCents
}
