package handlers

import (
	"net/http"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// ==============================================================================
// 1. Request Payloads
// ==============================================================================

type TruncatePriceRequest struct {
	Price domain.Price `json:"price" validate:"price"`
}

type TruncatePriceResponse struct {
	Price     domain.Price `json:"price"`
	Truncated bool         `json:"truncated"`
}

type EncodePriceRequest struct {
	NonceSeed string       `json:"nonce_seed" validate:"required,max=256"`
	Price     domain.Price `json:"price" validate:"price"`
	Key       string       `json:"key" validate:"required,oneof=external internal"`
}

type EncodePriceResponse struct {
	Encoded string       `json:"encoded"`
	Price   domain.Price `json:"price"`
}

type DecodePriceRequest struct {
	Encoded string `json:"encoded" validate:"required,max=64"`
	Key     string `json:"key" validate:"required,oneof=external internal"`
}

type DecodePriceResponse struct {
	Price domain.Price `json:"price"`
}

// ==============================================================================
// 2. Handler
// ==============================================================================

type PriceCodec interface {
	Truncate(price domain.Price) (domain.Price, error)
	Encode(kc domain.KeyContext, nonceSeed string, price domain.Price) (string, domain.Price, error)
	Decode(kc domain.KeyContext, encoded string) (domain.Price, error)
}

type PriceHandler struct {
	Service PriceCodec
}

func NewPriceHandler(service PriceCodec) *PriceHandler {
	return &PriceHandler{Service: service}
}

// Truncate handles POST /api/v1/prices/truncate
func (h *PriceHandler) Truncate(w http.ResponseWriter, r *http.Request) {
	var req TruncatePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	truncated, err := h.Service.Truncate(req.Price)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TruncatePriceResponse{Price: truncated, Truncated: truncated != req.Price})
}

// Encode handles POST /api/v1/prices/encode
func (h *PriceHandler) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	encoded, price, err := h.Service.Encode(domain.KeyContext(req.Key), req.NonceSeed, req.Price)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EncodePriceResponse{Encoded: encoded, Price: price})
}

// Decode handles POST /api/v1/prices/decode. The integrity tag is not
// checked; a blob produced under another key decodes to garbage.
func (h *PriceHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	price, err := h.Service.Decode(domain.KeyContext(req.Key), req.Encoded)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DecodePriceResponse{Price: price})
}
