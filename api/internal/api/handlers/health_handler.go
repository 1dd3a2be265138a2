package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db   Pinger // nil when alerts are only logged
	keys domain.PriceKeyring
}

func NewHealthHandler(db Pinger, keys domain.PriceKeyring) *HealthHandler {
	return &HealthHandler{db: db, keys: keys}
}

const healthProbePrice domain.Price = "1.00"

// Check handles GET /health. It round-trips a probe price through both key
// pairs and pings the database when one is configured.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	for _, kc := range []domain.KeyContext{domain.KeyExternal, domain.KeyInternal} {
		if !h.probe(kc) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unhealthy: " + string(kc) + " key pair failed self-test"))
			return
		}
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unhealthy: database unreachable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("healthy"))
}

func (h *HealthHandler) probe(kc domain.KeyContext) bool {
	c, err := h.keys.ForContext(kc)
	if err != nil {
		return false
	}
	encoded, err := c.Encrypt("healthcheck", healthProbePrice)
	if err != nil {
		return false
	}
	decoded, err := c.Decrypt(encoded)
	return err == nil && decoded == healthProbePrice
}
