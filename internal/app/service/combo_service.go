package service

import (
	"errors"

	"github.com/threadline/storefront-backend/internal/app/model"
	"github.com/threadline/storefront-backend/internal/app/repository"
	"github.com/threadline/storefront-backend/internal/pricing"
	"github.com/threadline/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// SelectionView describes an in-progress combo selection.
type SelectionView struct {
	ComboID  uint                `json:"combo_id"`
	Picks    []pricing.ComboPick `json:"picks"`
	State    string              `json:"state"`
	Total    int                 `json:"total"`
	Required int                 `json:"required"`
	Label    string              `json:"label,omitempty"`
	CanAdd   bool                `json:"can_add"`
	Reason   string              `json:"reason,omitempty"`
}

type ComboService interface {
	ListCombos() ([]model.ComboProduct, error)
	GetCombo(id uint) (*model.ComboProduct, error)
	EvaluateSelection(comboID uint, picks []pricing.ComboPick, size string) (*SelectionView, error)
}

type comboService struct {
	comboRepo repository.ComboRepository
}

func NewComboService(comboRepo repository.ComboRepository) ComboService {
	return &comboService{comboRepo: comboRepo}
}

func (s *comboService) ListCombos() ([]model.ComboProduct, error) {
	combos, err := s.comboRepo.FindAll(false)
	if err != nil {
		logger.Error("Failed to list combos", err)
		return nil, err
	}
	return combos, nil
}

func (s *comboService) GetCombo(id uint) (*model.ComboProduct, error) {
	combo, err := s.comboRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComboNotFound
		}
		return nil, err
	}
	if !combo.IsActive {
		return nil, ErrComboNotFound
	}
	return combo, nil
}

// EvaluateSelection replays picks against the combo and reports whether the
// bundle could be added with size.
func (s *comboService) EvaluateSelection(comboID uint, picks []pricing.ComboPick, size string) (*SelectionView, error) {
	combo, err := s.GetCombo(comboID)
	if err != nil {
		return nil, err
	}

	selection, err := pricing.RestoreComboSelection(combo.PricingCombo(), picks)
	if err != nil {
		return nil, err
	}

	view := &SelectionView{
		ComboID:  combo.ID,
		Picks:    selection.Picks(),
		State:    selection.State().String(),
		Total:    selection.Total(),
		Required: combo.MinQuantity,
		Label:    selection.Label(),
	}
	if err := selection.CheckAddToCart(size); err != nil {
		view.Reason = err.Error()
	} else {
		view.CanAdd = true
	}

	logger.Debug("Combo selection evaluated", map[string]interface{}{
		"combo_id": combo.ID,
		"state":    view.State,
		"total":    view.Total,
		"can_add":  view.CanAdd,
	})
	return view, nil
}
