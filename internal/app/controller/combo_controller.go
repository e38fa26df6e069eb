package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadline/storefront-backend/internal/app/service"
	"github.com/threadline/storefront-backend/internal/pricing"
)

type ComboController struct {
	comboService service.ComboService
}

func NewComboController(comboService service.ComboService) *ComboController {
	return &ComboController{comboService: comboService}
}

type ComboPickRequest struct {
	ComboItemID uint `json:"combo_item_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"gte=0,lte=99"`
}

type ComboSelectionRequest struct {
	Picks []ComboPickRequest `json:"picks" binding:"dive"`
	Size  string             `json:"size" binding:"max=20"`
}

func toPicks(reqs []ComboPickRequest) []pricing.ComboPick {
	picks := make([]pricing.ComboPick, 0, len(reqs))
	for _, p := range reqs {
		picks = append(picks, pricing.ComboPick{ItemID: p.ComboItemID, Quantity: p.Quantity})
	}
	return picks
}

// ListCombos returns active combo bundles
// GET /api/v1/combos
func (ctrl *ComboController) ListCombos(c *gin.Context) {
	combos, err := ctrl.comboService.ListCombos()
	if err != nil {
		respondError(c, err, "list combos")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"combos": combos,
		"count":  len(combos),
	})
}

// GetCombo returns a combo with its swatches
// GET /api/v1/combos/:id
func (ctrl *ComboController) GetCombo(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	combo, err := ctrl.comboService.GetCombo(id)
	if err != nil {
		respondError(c, err, "get combo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"combo": combo,
	})
}

// EvaluateSelection reports the state of a swatch selection
// POST /api/v1/combos/:id/selection
func (ctrl *ComboController) EvaluateSelection(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ComboSelectionRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.comboService.EvaluateSelection(id, toPicks(req.Picks), req.Size)
	if err != nil {
		respondError(c, err, "evaluate combo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"selection": view,
	})
}
