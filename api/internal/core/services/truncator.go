package services

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// ExchangeRatePlaces is the number of fractional digits kept after an
// exchange-rate adjustment.
const ExchangeRatePlaces = 4

// TruncatePrice fits a price into domain.PlaintextSize bytes, keeping as many
// fractional digits as fit. If only one fractional digit fits the second must
// be '0', and if none fits the first two must be; otherwise the price is
// rejected with a *domain.PriceTooLargeError.
func TruncatePrice(price domain.Price) (domain.Price, error) {
	s := string(price)
	if len(s) <= domain.PlaintextSize {
		return price, nil
	}

	sides := strings.Split(s, ".")
	if len(sides) != 2 {
		return "", &domain.PriceTooLargeError{Price: price}
	}

	integerPart := strings.TrimSpace(sides[0])
	fractionalPart := strings.TrimSpace(sides[1])
	room := domain.PlaintextSize - len(integerPart)

	switch {
	case room > 2:
		// room for '.' and at least two fraction digits
		fractionalPart = prefix(fractionalPart, room-1)
	case room == 2 && digitAt(fractionalPart, 1) == '0':
		// room for '.' and the first digit only
		fractionalPart = prefix(fractionalPart, 1)
	case room >= 0 && room < 2 && digitAt(fractionalPart, 0) == '0' && digitAt(fractionalPart, 1) == '0':
		fractionalPart = ""
	default:
		return "", &domain.PriceTooLargeError{Price: price}
	}

	if fractionalPart == "" {
		return domain.Price(integerPart), nil
	}
	return domain.Price(integerPart + "." + fractionalPart), nil
}

// AdjustPrice multiplies price by rate in float64 and keeps
// ExchangeRatePlaces fractional digits. Rounding is half up on the exact
// binary value of the product, so 1.0001 * 0.5 yields "0.5000" while the
// exact tie 0.0625 * 0.5 yields "0.0313". A nil, zero or one rate returns the
// price unchanged, as does the empty price.
func AdjustPrice(price domain.Price, rate *decimal.Decimal) (domain.Price, error) {
	if rate == nil || rate.IsZero() || rate.Equal(decimal.NewFromInt(1)) || price == "" {
		return price, nil
	}

	trimmed := domain.Price(strings.TrimSpace(string(price)))
	if err := trimmed.Validate(); err != nil || trimmed == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPrice, string(price))
	}
	amount, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPrice, string(price))
	}
	factor, _ := rate.Float64()

	product := amount * factor
	if math.IsInf(product, 0) || math.IsNaN(product) {
		return "", fmt.Errorf("%w: %q times %s overflows", domain.ErrInvalidPrice, string(price), rate.String())
	}

	// strconv.FormatFloat rounds exact ties to even; go through the exact
	// decimal expansion instead.
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(product).Text('f', -1))
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPrice, string(price))
	}
	return domain.Price(exact.StringFixed(ExchangeRatePlaces)), nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// digitAt returns 0 past the end of s, so a missing digit never counts as '0'.
func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}
