package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

const maxCartWriteAttempts = 3

type AddCartItemInput struct {
	ProductID uint
	Color     string
	Size      string
	Quantity  int
}

type AddComboInput struct {
	ComboID uint
	Picks   []pricing.ComboPick
	Size    string
}

// CartView is a repriced cart with its totals.
type CartView struct {
	Items            []model.CartItem             `json:"items"`
	Version          int64                        `json:"version"`
	ItemCount        int                          `json:"item_count"`
	HasUnavailable   bool                         `json:"has_unavailable"`
	Totals           pricing.Totals               `json:"totals"`
	ShippingProgress pricing.ShippingProgressInfo `json:"shipping_progress"`
}

type CartService interface {
	GetCart(userID string) (*CartView, error)
	AddItem(userID string, input AddCartItemInput) (*CartView, error)
	AddCombo(userID string, input AddComboInput) (*CartView, error)
	UpdateItemQuantity(userID, itemID string, quantity int) (*CartView, error)
	RemoveItem(userID, itemID string) (*CartView, error)
	ClearCart(userID string) error
	// LoadPricedCart loads the cart with every line repriced from current
	// catalog data. Nothing is written back.
	LoadPricedCart(userID string) (*model.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	comboRepo   repository.ComboRepository
	shipping    pricing.ShippingPolicy
	threshold   int64
	now         func() time.Time
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	comboRepo repository.ComboRepository,
	shipping pricing.ShippingPolicy,
	freeShippingThresholdCents int64,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		comboRepo:   comboRepo,
		shipping:    shipping,
		threshold:   freeShippingThresholdCents,
		now:         time.Now,
	}
}

func (s *cartService) GetCart(userID string) (*CartView, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.LoadPricedCart(userID)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

func (s *cartService) LoadPricedCart(userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.Load(userID)
	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if err := s.reprice(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// reprice refreshes unit prices, names and availability from the catalog.
// Lines whose product, variant or combo is gone or inactive are marked
// unavailable and drop out of the subtotal.
func (s *cartService) reprice(cart *model.Cart) error {
	var productIDs, comboIDs []uint
	for _, it := range cart.Items {
		switch {
		case it.ComboID != nil:
			comboIDs = append(comboIDs, *it.ComboID)
		case it.ProductID != nil:
			productIDs = append(productIDs, *it.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(productIDs)
	if err != nil {
		logger.Error("Failed to load cart products", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}
	combos, err := s.comboRepo.FindByIDs(comboIDs)
	if err != nil {
		logger.Error("Failed to load cart combos", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}

	productByID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	comboByID := make(map[uint]model.ComboProduct, len(combos))
	for _, c := range combos {
		comboByID[c.ID] = c
	}

	for i := range cart.Items {
		it := &cart.Items[i]
		it.Available = false

		if it.ComboID != nil {
			combo, ok := comboByID[*it.ComboID]
			if !ok || !combo.IsActive {
				continue
			}
			it.Name = combo.Name
			it.UnitPriceCents = combo.ComboPriceCents
			it.Available = true
			continue
		}

		if it.ProductID == nil {
			continue
		}
		product, ok := productByID[*it.ProductID]
		if !ok || !product.IsActive {
			continue
		}
		it.Name = product.Title

		if it.VariantID == nil {
			it.UnitPriceCents = pricing.ResolvePrice(product.PricingProduct(), nil)
			it.Available = true
			continue
		}
		pv, ok := product.Variant(*it.VariantID)
		if !ok {
			continue
		}
		v := pv.PricingVariant()
		it.UnitPriceCents = pricing.ResolvePrice(product.PricingProduct(), &v)
		it.Available = v.InStock()
	}
	return nil
}

func (s *cartService) view(cart *model.Cart) *CartView {
	lines := make([]pricing.Line, 0, len(cart.Items))
	hasUnavailable := false
	for _, it := range cart.Items {
		lines = append(lines, pricing.Line{
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			Available:      it.Available,
		})
		if !it.Available {
			hasUnavailable = true
		}
	}
	totals := pricing.ComputeTotals(lines, nil, s.now(), s.shipping)

	return &CartView{
		Items:            cart.Items,
		Version:          cart.Version,
		ItemCount:        cart.ItemCount(),
		HasUnavailable:   hasUnavailable,
		Totals:           totals,
		ShippingProgress: pricing.ShippingProgress(totals.SubtotalCents, s.threshold),
	}
}

// mutate applies fn to a freshly loaded cart and saves it, reloading and
// reapplying on version conflicts.
func (s *cartService) mutate(userID string, fn func(cart *model.Cart) error) (*model.Cart, error) {
	for attempt := 1; attempt <= maxCartWriteAttempts; attempt++ {
		cart, err := s.cartRepo.Load(userID)
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}

		err = s.cartRepo.Save(cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			logger.Error("Failed to save cart", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
		logger.Warn("Cart write conflicted, retrying", map[string]interface{}{
			"user_id": userID,
			"attempt": attempt,
		})
	}
	return nil, ErrCartConflict
}

func (s *cartService) mutateAndView(userID string, fn func(cart *model.Cart) error) (*CartView, error) {
	cart, err := s.mutate(userID, fn)
	if err != nil {
		return nil, err
	}
	if err := s.reprice(cart); err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

func (s *cartService) AddItem(userID string, input AddCartItemInput) (*CartView, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": input.ProductID,
		"color":      input.Color,
		"size":       input.Size,
		"quantity":   input.Quantity,
	})

	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": input.ProductID,
		})
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	line := model.CartItem{
		ProductID:      &product.ID,
		Name:           product.Title,
		UnitPriceCents: pricing.ResolvePrice(product.PricingProduct(), nil),
		Size:           input.Size,
		Color:          input.Color,
		Image:          product.PrimaryImage(),
	}

	var variant *pricing.Variant
	if variants := product.PricingVariants(); len(variants) > 0 {
		variant = pricing.FindVariant(variants, input.Color, input.Size)
		if variant == nil {
			logger.Warn("Cannot add to cart: no matching variant", map[string]interface{}{
				"product_id": product.ID,
				"color":      input.Color,
				"size":       input.Size,
			})
			return nil, ErrVariantNotFound
		}
		if !variant.InStock() {
			return nil, ErrOutOfStock
		}
		id := variant.ID
		line.VariantID = &id
		line.UnitPriceCents = pricing.ResolvePrice(product.PricingProduct(), variant)
		if size, ok := variant.Size(); ok {
			line.Size = size
		}
		if color, ok := variant.Color(); ok {
			line.Color = color
		}
		if variant.ImageURL != "" {
			line.Image = variant.ImageURL
		}
	}

	return s.mutateAndView(userID, func(cart *model.Cart) error {
		for i := range cart.Items {
			existing := &cart.Items[i]
			if existing.IsCombo() || !sameUint(existing.ProductID, line.ProductID) || !sameUint(existing.VariantID, line.VariantID) {
				continue
			}
			requested := existing.Quantity + input.Quantity
			if variant != nil && variant.Inventory < requested {
				logger.Warn("Cannot add to cart: insufficient variant stock", map[string]interface{}{
					"user_id":    userID,
					"variant_id": variant.ID,
					"requested":  requested,
					"available":  variant.Inventory,
				})
				return ErrOutOfStock
			}
			existing.Quantity = requested
			return nil
		}

		if variant != nil && variant.Inventory < input.Quantity {
			return ErrOutOfStock
		}
		next := line
		next.ID = uuid.NewString()
		next.Quantity = input.Quantity
		next.Available = true
		cart.Items = append(cart.Items, next)
		return nil
	})
}

func (s *cartService) AddCombo(userID string, input AddComboInput) (*CartView, error) {
	logger.Info("Adding combo to cart", map[string]interface{}{
		"user_id":  userID,
		"combo_id": input.ComboID,
		"picks":    len(input.Picks),
		"size":     input.Size,
	})

	combo, err := s.comboRepo.FindByID(input.ComboID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComboNotFound
		}
		return nil, err
	}
	if !combo.IsActive {
		return nil, ErrComboNotFound
	}

	selection, err := pricing.RestoreComboSelection(combo.PricingCombo(), input.Picks)
	if err != nil {
		return nil, err
	}
	comboLine, err := selection.Line(input.Size)
	if err != nil {
		logger.Warn("Cannot add combo to cart", map[string]interface{}{
			"user_id":  userID,
			"combo_id": combo.ID,
			"state":    selection.State().String(),
			"reason":   err.Error(),
		})
		return nil, err
	}

	comboID := combo.ID
	line := model.CartItem{
		ComboID:        &comboID,
		Name:           comboLine.Name,
		UnitPriceCents: comboLine.UnitPriceCents,
		Quantity:       comboLine.Quantity,
		Size:           comboLine.Size,
		Image:          comboLine.Image,
		Available:      true,
	}
	if line.Image == "" && len(combo.Images) > 0 {
		line.Image = combo.Images[0]
	}
	for _, it := range comboLine.Items {
		line.ComboItems = append(line.ComboItems, model.CartComboItem{
			ComboItemID: it.ComboItemID,
			Color:       it.Color,
			Image:       it.Image,
			Quantity:    it.Quantity,
		})
	}

	return s.mutateAndView(userID, func(cart *model.Cart) error {
		next := line
		next.ID = uuid.NewString()
		cart.Items = append(cart.Items, next)
		return nil
	})
}

func (s *cartService) UpdateItemQuantity(userID, itemID string, quantity int) (*CartView, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutateAndView(userID, func(cart *model.Cart) error {
		i := cart.FindItem(itemID)
		if i < 0 {
			return ErrCartItemNotFound
		}
		it := &cart.Items[i]
		if it.IsCombo() && quantity != 1 {
			return ErrInvalidQuantity
		}
		if it.VariantID != nil && it.ProductID != nil {
			if err := s.checkVariantStock(*it.ProductID, *it.VariantID, quantity); err != nil {
				return err
			}
		}
		it.Quantity = quantity
		return nil
	})
}

func (s *cartService) checkVariantStock(productID, variantID uint, quantity int) error {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	pv, ok := product.Variant(variantID)
	if !ok {
		return ErrVariantNotFound
	}
	if !pv.IsAvailable || pv.Inventory < quantity {
		return ErrOutOfStock
	}
	return nil
}

func (s *cartService) RemoveItem(userID, itemID string) (*CartView, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id": userID,
		"item_id": itemID,
	})

	return s.mutateAndView(userID, func(cart *model.Cart) error {
		i := cart.FindItem(itemID)
		if i < 0 {
			return ErrCartItemNotFound
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
}

func (s *cartService) ClearCart(userID string) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	_, err := s.mutate(userID, func(cart *model.Cart) error {
		cart.Items = []model.CartItem{}
		return nil
	})
	return err
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
