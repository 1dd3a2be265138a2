package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// ==============================================================================
// 1. Request Payloads
// ==============================================================================

type RenderCreativeRequest struct {
	// ad_id is the nonce seed for every encoded macro in the markup.
	AdID         string           `json:"ad_id" validate:"required,max=256"`
	Markup       string           `json:"markup" validate:"max=262144"`
	AuctionPrice domain.Price     `json:"auction_price" validate:"price"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	FirstBid     *domain.Price    `json:"first_bid,omitempty" validate:"omitempty,price"`
	SecondBid    *domain.Price    `json:"second_bid,omitempty" validate:"omitempty,price"`
	ThirdBid     *domain.Price    `json:"third_bid,omitempty" validate:"omitempty,price"`
}

type RenderCreativeResponse struct {
	AdID   string `json:"ad_id"`
	Markup string `json:"markup"`
}

// ==============================================================================
// 2. Handler
// ==============================================================================

type CreativeRenderer interface {
	Render(ctx context.Context, in domain.CreativeInput) (string, error)
}

type CreativeHandler struct {
	Service CreativeRenderer
}

func NewCreativeHandler(service CreativeRenderer) *CreativeHandler {
	return &CreativeHandler{Service: service}
}

// Render handles POST /api/v1/creatives/render
func (h *CreativeHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderCreativeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}
	if req.ExchangeRate != nil && req.ExchangeRate.IsNegative() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "exchange_rate must not be negative"})
		return
	}

	markup, err := h.Service.Render(r.Context(), domain.CreativeInput{
		AdID:         req.AdID,
		Markup:       req.Markup,
		AuctionPrice: req.AuctionPrice,
		ExchangeRate: req.ExchangeRate,
		FirstBid:     req.FirstBid,
		SecondBid:    req.SecondBid,
		ThirdBid:     req.ThirdBid,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RenderCreativeResponse{AdID: req.AdID, Markup: markup})
}
