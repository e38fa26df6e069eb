package pricing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownComboItem     = errors.New("combo item does not belong to this combo")
	ErrDuplicateComboItem   = errors.New("combo item is listed more than once")
	ErrComboIncomplete      = errors.New("combo selection is incomplete")
	ErrComboOverfilled      = errors.New("combo selection exceeds the required quantity")
	ErrComboSizeRequired    = errors.New("a size must be selected for this combo")
	ErrComboSizeUnavailable = errors.New("selected size is not available for this combo")
)

type Combo struct {
	ID              uint
	Name            string
	ComboPriceCents int64
	MinQuantity     int
	AvailableSizes  []string
	Items           []ComboItem
}

type ComboItem struct {
	ID       uint
	Color    string
	ImageURL string
}

type ComboState int

const (
	ComboEmpty ComboState = iota
	ComboSelecting
	ComboComplete
	ComboOverfilled
)

func (s ComboState) String() string {
	switch s {
	case ComboEmpty:
		return "empty"
	case ComboSelecting:
		return "selecting"
	case ComboComplete:
		return "complete"
	case ComboOverfilled:
		return "overfilled"
	default:
		return "unknown"
	}
}

// ComboPick is one selected swatch and its quantity.
type ComboPick struct {
	ItemID   uint `json:"combo_item_id"`
	Quantity int  `json:"quantity"`
}

// ComboSelection tracks a shopper's in-progress bundle. Picks keep the order
// in which colors were chosen. A bundle is complete only when the total
// quantity equals the combo's minimum exactly.
type ComboSelection struct {
	combo Combo
	picks []ComboPick
}

func NewComboSelection(combo Combo) *ComboSelection {
	return &ComboSelection{combo: combo}
}

// RestoreComboSelection replays picks from a client, applying the same rules
// as interactive edits. Quantities below 1 are raised to 1. Each item may
// appear once.
func RestoreComboSelection(combo Combo, picks []ComboPick) (*ComboSelection, error) {
	s := NewComboSelection(combo)
	for _, p := range picks {
		if s.index(p.ItemID) >= 0 {
			return nil, ErrDuplicateComboItem
		}
		if err := s.Toggle(p.ItemID); err != nil {
			return nil, err
		}
		if p.Quantity > 1 {
			s.UpdateQuantity(p.ItemID, p.Quantity-1)
		}
	}
	return s, nil
}

func (s *ComboSelection) index(itemID uint) int {
	for i, p := range s.picks {
		if p.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *ComboSelection) item(itemID uint) (ComboItem, bool) {
	for _, it := range s.combo.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return ComboItem{}, false
}

// Toggle removes the item if it is selected, otherwise adds it with quantity 1.
func (s *ComboSelection) Toggle(itemID uint) error {
	if _, ok := s.item(itemID); !ok {
		return ErrUnknownComboItem
	}
	if i := s.index(itemID); i >= 0 {
		s.picks = append(s.picks[:i], s.picks[i+1:]...)
		return nil
	}
	s.picks = append(s.picks, ComboPick{ItemID: itemID, Quantity: 1})
	return nil
}

// UpdateQuantity changes a selected item's quantity by delta, never below 1.
// Unselected items are left alone; Toggle is the only way to drop one.
func (s *ComboSelection) UpdateQuantity(itemID uint, delta int) {
	i := s.index(itemID)
	if i < 0 {
		return
	}
	s.picks[i].Quantity = max(s.picks[i].Quantity+delta, 1)
}

func (s *ComboSelection) Picks() []ComboPick {
	out := make([]ComboPick, len(s.picks))
	copy(out, s.picks)
	return out
}

func (s *ComboSelection) Total() int {
	total := 0
	for _, p := range s.picks {
		total += p.Quantity
	}
	return total
}

func (s *ComboSelection) State() ComboState {
	total := s.Total()
	switch {
	case total == 0:
		return ComboEmpty
	case total < s.combo.MinQuantity:
		return ComboSelecting
	case total == s.combo.MinQuantity:
		return ComboComplete
	default:
		return ComboOverfilled
	}
}

// Label is the hint shown next to the add button.
func (s *ComboSelection) Label() string {
	switch s.State() {
	case ComboSelecting:
		return fmt.Sprintf("select %d more", s.combo.MinQuantity-s.Total())
	case ComboOverfilled:
		return fmt.Sprintf("remove %d", s.Total()-s.combo.MinQuantity)
	default:
		return ""
	}
}

// CheckAddToCart returns nil when the bundle can be added with the given size.
func (s *ComboSelection) CheckAddToCart(size string) error {
	switch s.State() {
	case ComboEmpty, ComboSelecting:
		return ErrComboIncomplete
	case ComboOverfilled:
		return ErrComboOverfilled
	}
	_, err := s.resolveSize(size)
	return err
}

func (s *ComboSelection) CanAddToCart(size string) bool {
	return s.CheckAddToCart(size) == nil
}

// resolveSize returns the combo's canonical spelling of the requested size.
func (s *ComboSelection) resolveSize(size string) (string, error) {
	if len(s.combo.AvailableSizes) == 0 {
		return "", nil
	}
	size = strings.TrimSpace(size)
	if size == "" {
		return "", ErrComboSizeRequired
	}
	for _, available := range s.combo.AvailableSizes {
		if strings.EqualFold(strings.TrimSpace(available), size) {
			return available, nil
		}
	}
	return "", ErrComboSizeUnavailable
}

// ComboLine is the single cart line a completed bundle becomes.
type ComboLine struct {
	ComboID        uint
	Name           string
	UnitPriceCents int64
	Quantity       int
	Size           string
	Image          string
	Items          []ComboLineItem
}

type ComboLineItem struct {
	ComboItemID uint   `json:"combo_item_id"`
	Color       string `json:"color"`
	Image       string `json:"image"`
	Quantity    int    `json:"quantity"`
}

// Line builds the bundle's cart line priced at the combo price, quantity 1.
func (s *ComboSelection) Line(size string) (ComboLine, error) {
	if err := s.CheckAddToCart(size); err != nil {
		return ComboLine{}, err
	}
	canonical, _ := s.resolveSize(size)

	line := ComboLine{
		ComboID:        s.combo.ID,
		Name:           s.combo.Name,
		UnitPriceCents: s.combo.ComboPriceCents,
		Quantity:       1,
		Size:           canonical,
		Items:          make([]ComboLineItem, 0, len(s.picks)),
	}
	for _, p := range s.picks {
		it, _ := s.item(p.ItemID)
		line.Items = append(line.Items, ComboLineItem{
			ComboItemID: it.ID,
			Color:       it.Color,
			Image:       it.ImageURL,
			Quantity:    p.Quantity,
		})
	}
	if len(line.Items) > 0 {
		line.Image = line.Items[0].Image
	}
	return line, nil
}
