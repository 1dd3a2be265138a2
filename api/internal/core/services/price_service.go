package services

import (
	"log/slog"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// PriceService exposes single-price truncation and encoding. Decode exists
// for verification; production decoding happens at the counterpart.
type PriceService struct {
	keys   domain.PriceKeyring
	logger *slog.Logger
}

func NewPriceService(keys domain.PriceKeyring, logger *slog.Logger) *PriceService {
	return &PriceService{
		keys:   keys,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

func (s *PriceService) Truncate(price domain.Price) (domain.Price, error) {
	if err := price.Validate(); err != nil {
		return "", err
	}
	truncated, err := TruncatePrice(price)
	if err != nil {
		return "", err
	}
	if truncated != price {
		s.logger.Warn("truncated price to fit into 8 bytes",
			slog.String("price", string(price)),
			slog.String("truncated", string(truncated)),
		)
	}
	return truncated, nil
}

// Encode truncates price and encodes it under the key pair for kc. It
// returns the encoded text and the plaintext that was actually encoded.
func (s *PriceService) Encode(kc domain.KeyContext, nonceSeed string, price domain.Price) (string, domain.Price, error) {
	c, err := s.keys.ForContext(kc)
	if err != nil {
		return "", "", err
	}
	truncated, err := s.Truncate(price)
	if err != nil {
		return "", "", err
	}
	encoded, err := c.Encrypt(nonceSeed, truncated)
	if err != nil {
		return "", "", err
	}
	return encoded, truncated, nil
}

func (s *PriceService) Decode(kc domain.KeyContext, encoded string) (domain.Price, error) {
	c, err := s.keys.ForContext(kc)
	if err != nil {
		return "", err
	}
	return c.Decrypt(encoded)
}
