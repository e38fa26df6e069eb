package pricing

import "strings"

type Variant struct {
	ID           uint
	Option1Name  string
	Option1Value string
	Option2Name  string
	Option2Value string
	PriceCents   *int64
	ImageURL     string
	Inventory    int
	IsAvailable  bool
}

// InStock reports whether the variant can be sold right now.
func (v Variant) InStock() bool {
	return v.IsAvailable && v.Inventory > 0
}

// Color returns the value of the option named color/colour, if any.
func (v Variant) Color() (string, bool) {
	return v.option(isColorName)
}

// Size returns the value of the option named size, if any.
func (v Variant) Size() (string, bool) {
	return v.option(isSizeName)
}

func (v Variant) option(match func(string) bool) (string, bool) {
	if match(v.Option1Name) {
		return v.Option1Value, true
	}
	if match(v.Option2Name) {
		return v.Option2Value, true
	}
	return "", false
}

func isColorName(name string) bool {
	n := strings.TrimSpace(name)
	return strings.EqualFold(n, "color") || strings.EqualFold(n, "colour")
}

func isSizeName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "size")
}

// FindVariant returns the variant whose color and size options match the
// request. Slots are located by option name, not position. An empty requested
// dimension only matches variants that lack that dimension. Nil means the
// caller should fall back to product-level price and image.
func FindVariant(variants []Variant, color, size string) *Variant {
	color = strings.TrimSpace(color)
	size = strings.TrimSpace(size)

	for i := range variants {
		v := &variants[i]
		if dimensionMatches(v.Color, color) && dimensionMatches(v.Size, size) {
			return v
		}
	}
	return nil
}

func dimensionMatches(get func() (string, bool), requested string) bool {
	value, ok := get()
	if !ok {
		return requested == ""
	}
	return requested != "" && strings.EqualFold(strings.TrimSpace(value), requested)
}
