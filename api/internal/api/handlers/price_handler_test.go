package handlers_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adscale/pricecrypt/api/internal/api/handlers"
	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
	"github.com/adscale/pricecrypt/api/internal/infrastructure/crypto"
)

func newKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()
	decode := func(s string) []byte {
		key, err := crypto.DecodeKey(s)
		require.NoError(t, err)
		return key
	}
	kr, err := crypto.NewKeyring(
		domain.KeyMaterial{
			EncryptionKey: decode("c2xzRWh5NXhpZmxndTRxYWZjY2NqZGNhTW1uZGZya3Y="),
			IntegrityKey:  decode("eWRpdkFoa2tub3p5b2dscGttamIySGhkZ21jcmg0Znk="),
		},
		domain.KeyMaterial{
			EncryptionKey: decode("1AE180CBC19A8CFEB7E1FCC000A10F5D892A887A2D9="),
			IntegrityKey:  decode("0379698055BD41FD05AC543A3AAAD6589BC6E1B3626="),
		},
	)
	require.NoError(t, err)
	return kr
}

func newPriceHandler(t *testing.T) *handlers.PriceHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handlers.NewPriceHandler(services.NewPriceService(newKeyring(t), logger))
}

func TestPriceHandler_Encode(t *testing.T) {
	h := newPriceHandler(t)

	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{
			name: "external",
			body: `{"nonce_seed": "123456789123456789", "price": 1.59, "key": "external"}`,
			code: http.StatusOK,
			want: `{"encoded": "MTIzNDU2Nzg5MTIzNDU2N8y5Dxn0eBHQELptyg", "price": "1.59"}`,
		},
		{
			name: "short seed is padded",
			body: `{"nonce_seed": "123456789", "price": "1.59", "key": "external"}`,
			code: http.StatusOK,
			want: `{"encoded": "MTIzNDU2Nzg5MDAwMDAwMDJGF0WFzgb7CQC2Nw", "price": "1.59"}`,
		},
		{
			name: "truncated before encoding",
			body: `{"nonce_seed": "123456789123456789", "price": "1.5700000", "key": "external"}`,
			code: http.StatusOK,
			want: `{"encoded": "MTIzNDU2Nzg5MTIzNDU2N8y5DxfESCHg5CTVFw", "price": "1.570000"}`,
		},
		{
			name: "too large",
			body: `{"nonce_seed": "1", "price": "1234567.1052", "key": "external"}`,
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "missing seed",
			body: `{"price": "1", "key": "external"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "unknown field",
			body: `{"nonce_seed": "1", "price": "1", "key": "external", "currency": "EUR"}`,
			code: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Encode(rec, httptest.NewRequest(http.MethodPost, "/api/v1/prices/encode", strings.NewReader(tc.body)))
			require.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tc.want != "" {
				assert.JSONEq(t, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPriceHandler_Decode(t *testing.T) {
	h := newPriceHandler(t)

	rec := httptest.NewRecorder()
	h.Decode(rec, httptest.NewRequest(http.MethodPost, "/api/v1/prices/decode",
		strings.NewReader(`{"encoded": "MTIzNDU2Nzg5MTIzNDU2N_2XOiD0eBHQUWJCcw", "key": "external"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"price": ""}`, rec.Body.String())
}

func TestHandleError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&domain.PriceTooLargeError{Price: "123456789"}, http.StatusUnprocessableEntity},
		{domain.ErrInvalidPrice, http.StatusUnprocessableEntity},
		{domain.ErrMalformedBlob, http.StatusBadRequest},
		{domain.ErrUnknownKeyContext, http.StatusBadRequest},
		{services.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrAlertNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"message"`)
		})
	}

	rec := httptest.NewRecorder()
	handlers.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret detail"))
	assert.NotContains(t, rec.Body.String(), "secret detail")
}
