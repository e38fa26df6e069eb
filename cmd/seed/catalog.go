package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the catalog workbook. Only products is required.
const (
	sheetProducts   = "products"
	sheetVariants   = "variants"
	sheetCoupons    = "coupons"
	sheetCombos     = "combos"
	sheetComboItems = "combo_items"
)

var (
	slugInvalid = regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slugDashes  = regexp.MustCompile(`-+`)
	hundred     = decimal.NewFromInt(100)
)

type catalog struct {
	Products []model.Product
	Coupons  []model.Coupon
	Combos   []model.ComboProduct
	Skipped  []string
}

func (c *catalog) skip(sheet string, row int, reason string) {
	c.Skipped = append(c.Skipped, fmt.Sprintf("%s row %d: %s", sheet, row, reason))
}

func readCatalog(filePath string) (*catalog, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	return parseCatalog(f)
}

// parseCatalog reads every known sheet. Rows are keyed by the lower-cased
// header of the first row; invalid rows are skipped and reported.
func parseCatalog(f *excelize.File) (*catalog, error) {
	cat := &catalog{}

	products, err := sheetRows(f, sheetProducts)
	if err != nil {
		return nil, err
	}
	if products == nil {
		return nil, fmt.Errorf("workbook has no %q sheet", sheetProducts)
	}

	bySlug := make(map[string]int)
	for i, row := range products {
		p, err := parseProduct(row)
		if err != nil {
			cat.skip(sheetProducts, i+2, err.Error())
			continue
		}
		if _, dup := bySlug[p.Slug]; dup {
			cat.skip(sheetProducts, i+2, "duplicate slug "+p.Slug)
			continue
		}
		bySlug[p.Slug] = len(cat.Products)
		cat.Products = append(cat.Products, p)
	}

	variants, err := sheetRows(f, sheetVariants)
	if err != nil {
		return nil, err
	}
	for i, row := range variants {
		slug := slugify(row["product_slug"])
		idx, ok := bySlug[slug]
		if !ok {
			cat.skip(sheetVariants, i+2, "unknown product "+row["product_slug"])
			continue
		}
		v, err := parseVariant(row)
		if err != nil {
			cat.skip(sheetVariants, i+2, err.Error())
			continue
		}
		cat.Products[idx].Variants = append(cat.Products[idx].Variants, v)
	}

	coupons, err := sheetRows(f, sheetCoupons)
	if err != nil {
		return nil, err
	}
	for i, row := range coupons {
		c, err := parseCoupon(row)
		if err != nil {
			cat.skip(sheetCoupons, i+2, err.Error())
			continue
		}
		cat.Coupons = append(cat.Coupons, c)
	}

	combos, err := sheetRows(f, sheetCombos)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int)
	for i, row := range combos {
		c, err := parseCombo(row)
		if err != nil {
			cat.skip(sheetCombos, i+2, err.Error())
			continue
		}
		byName[strings.ToLower(c.Name)] = len(cat.Combos)
		cat.Combos = append(cat.Combos, c)
	}

	items, err := sheetRows(f, sheetComboItems)
	if err != nil {
		return nil, err
	}
	for i, row := range items {
		idx, ok := byName[strings.ToLower(strings.TrimSpace(row["combo_name"]))]
		if !ok {
			cat.skip(sheetComboItems, i+2, "unknown combo "+row["combo_name"])
			continue
		}
		color := strings.TrimSpace(row["color"])
		if color == "" {
			cat.skip(sheetComboItems, i+2, "color is required")
			continue
		}
		combo := &cat.Combos[idx]
		combo.Items = append(combo.Items, model.ComboProductItem{
			Color:     color,
			ImageURL:  strings.TrimSpace(row["image"]),
			SortOrder: len(combo.Items),
		})
	}

	return cat, nil
}

// sheetRows returns nil without error when the sheet is absent.
func sheetRows(f *excelize.File, sheet string) ([]map[string]string, error) {
	found := false
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, sheet) {
			sheet = name
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				m[h] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func parseProduct(row map[string]string) (model.Product, error) {
	title := row["title"]
	if title == "" {
		return model.Product{}, fmt.Errorf("title is required")
	}
	slug := slugify(row["slug"])
	if slug == "" {
		slug = slugify(title)
	}

	base, err := parseMoney(row["base_price"])
	if err != nil {
		return model.Product{}, fmt.Errorf("base_price: %w", err)
	}
	sale, err := parseOptionalMoney(row["sale_price"])
	if err != nil {
		return model.Product{}, fmt.Errorf("sale_price: %w", err)
	}

	p := model.Product{
		Title:          title,
		Description:    row["description"],
		BasePriceCents: base,
		SalePriceCents: sale,
		Category:       strings.ToLower(row["category"]),
		Slug:           slug,
		Images:         splitList(row["images"]),
		IsActive:       parseBool(row["active"], true),
	}
	if err := p.Validate(); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func parseVariant(row map[string]string) (model.ProductVariant, error) {
	price, err := parseOptionalMoney(row["price"])
	if err != nil {
		return model.ProductVariant{}, fmt.Errorf("price: %w", err)
	}
	inventory := 0
	if s := row["inventory"]; s != "" {
		if inventory, err = strconv.Atoi(s); err != nil || inventory < 0 {
			return model.ProductVariant{}, fmt.Errorf("inventory must be a whole number, got %q", s)
		}
	}
	if row["option1_name"] == "" && row["option2_name"] == "" {
		return model.ProductVariant{}, fmt.Errorf("at least one option is required")
	}

	return model.ProductVariant{
		Option1Name:  row["option1_name"],
		Option1Value: row["option1_value"],
		Option2Name:  row["option2_name"],
		Option2Value: row["option2_value"],
		PriceCents:   price,
		ImageURL:     row["image"],
		Inventory:    inventory,
		IsAvailable:  parseBool(row["available"], true),
	}, nil
}

func parseCoupon(row map[string]string) (model.Coupon, error) {
	code := pricing.NormalizeCouponCode(row["code"])
	if code == "" {
		return model.Coupon{}, fmt.Errorf("code is required")
	}
	if !pricing.ValidCouponCode(code) {
		return model.Coupon{}, fmt.Errorf("code %q must be 3-32 letters, digits, '-' or '_'", code)
	}

	discountType := pricing.DiscountType(strings.ToLower(row["type"]))
	if !discountType.Valid() {
		return model.Coupon{}, fmt.Errorf("type must be percentage or fixed, got %q", row["type"])
	}

	// Percentages are stored as given; fixed values are rupees in the sheet.
	value, err := decimal.NewFromString(row["value"])
	if err != nil {
		return model.Coupon{}, fmt.Errorf("value: %w", err)
	}
	if discountType == pricing.DiscountFixed {
		value = value.Mul(hundred).Floor()
	}

	minimum, err := parseOptionalMoney(row["minimum_order"])
	if err != nil {
		return model.Coupon{}, fmt.Errorf("minimum_order: %w", err)
	}
	maxDiscount, err := parseOptionalMoney(row["maximum_discount"])
	if err != nil {
		return model.Coupon{}, fmt.Errorf("maximum_discount: %w", err)
	}

	c := model.Coupon{
		Code:                 code,
		DiscountType:         discountType,
		DiscountValue:        value,
		MaximumDiscountCents: maxDiscount,
		IsActive:             parseBool(row["active"], true),
		ValidFrom:            time.Now(),
	}
	if minimum != nil {
		c.MinimumOrderCents = *minimum
	}
	if s := row["usage_limit"]; s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return model.Coupon{}, fmt.Errorf("usage_limit must be a whole number, got %q", s)
		}
		c.UsageLimit = &limit
	}
	if s := row["valid_from"]; s != "" {
		if c.ValidFrom, err = parseDate(s); err != nil {
			return model.Coupon{}, fmt.Errorf("valid_from: %w", err)
		}
	}
	if s := row["valid_until"]; s != "" {
		until, err := parseDate(s)
		if err != nil {
			return model.Coupon{}, fmt.Errorf("valid_until: %w", err)
		}
		c.ValidUntil = &until
	}
	return c, nil
}

func parseCombo(row map[string]string) (model.ComboProduct, error) {
	name := row["name"]
	if name == "" {
		return model.ComboProduct{}, fmt.Errorf("name is required")
	}
	original, err := parseMoney(row["original_price"])
	if err != nil {
		return model.ComboProduct{}, fmt.Errorf("original_price: %w", err)
	}
	price, err := parseMoney(row["combo_price"])
	if err != nil {
		return model.ComboProduct{}, fmt.Errorf("combo_price: %w", err)
	}
	minQty, err := strconv.Atoi(row["min_quantity"])
	if err != nil || minQty < 1 {
		return model.ComboProduct{}, fmt.Errorf("min_quantity must be at least 1, got %q", row["min_quantity"])
	}

	c := model.ComboProduct{
		Name:               name,
		Description:        row["description"],
		Images:             splitList(row["images"]),
		OriginalPriceCents: original,
		ComboPriceCents:    price,
		MinQuantity:        minQty,
		SizeType:           row["size_type"],
		AvailableSizes:     splitList(row["sizes"]),
		IsActive:           parseBool(row["active"], true),
	}
	if original > 0 && price < original {
		c.DiscountPercentage = int(decimal.NewFromInt(original - price).
			Mul(hundred).
			Div(decimal.NewFromInt(original)).
			Round(0).
			IntPart())
	}
	return c, nil
}

// parseMoney converts a rupee amount such as "1299" or "1,299.50" to paise.
func parseMoney(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "₹"), ",", "")
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount cannot be negative")
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

func parseOptionalMoney(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseMoney(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback
	case "1", "y", "yes", "true", "active":
		return true
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02", "01-02-06"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func slugify(s string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
