package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// "price" accepts the empty price and plain non-negative decimals.
	if err := v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return domain.Price(fl.Field().String()).Validate() == nil
	}); err != nil {
		panic("handlers: register price validation: " + err.Error())
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Message string `json:"message"`
}

// HandleError maps service errors onto HTTP status codes. Anything not
// recognised is logged and reported as a bare 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: describeValidation(validationErrs)})
	case errors.Is(err, domain.ErrPriceTooLarge), errors.Is(err, domain.ErrInvalidPrice):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrMalformedBlob), errors.Is(err, domain.ErrUnknownKeyContext):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid token"})
	case errors.Is(err, domain.ErrAlertNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	default:
		slog.Default().Error("request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: "Request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
