package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Wire sizes of an encoded price. The blob is nonce || ciphertext || tag.
const (
	PlaintextSize = 8
	NonceSize     = 16
	TagSize       = 4
	BlobSize      = NonceSize + PlaintextSize + TagSize
)

// Price is the decimal text of a price exactly as the caller supplied it.
// Truncation and encoding work on this text, never on a float.
type Price string

var priceSyntax = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// PriceFromFloat renders v in its shortest decimal form, so 1.59 and "1.59"
// encode to the same bytes.
func PriceFromFloat(v float64) Price {
	return Price(strconv.FormatFloat(v, 'f', -1, 64))
}

func (p Price) String() string {
	return string(p)
}

// Validate accepts the empty price and non-negative plain decimals.
func (p Price) Validate() error {
	if p == "" {
		return nil
	}
	if !priceSyntax.MatchString(string(p)) {
		return fmt.Errorf("%w: %q is not a non-negative decimal", ErrInvalidPrice, string(p))
	}
	return nil
}

// UnmarshalJSON accepts a JSON string or a JSON number. Numbers keep their
// wire text so no precision is lost before truncation.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, data)
	}
	*p = Price(n.String())
	return nil
}

// KeyContext names the trust boundary a ciphertext is meant for.
type KeyContext string

const (
	// KeyExternal ciphertext is read by the external counterpart.
	KeyExternal KeyContext = "external"
	// KeyInternal ciphertext is read only by our own backend.
	KeyInternal KeyContext = "internal"
)

func ParseKeyContext(s string) (KeyContext, error) {
	switch KeyContext(s) {
	case KeyExternal, KeyInternal:
		return KeyContext(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyContext, s)
}

// KeyMaterial is one encryption/integrity key pair, fixed for the process
// lifetime.
type KeyMaterial struct {
	EncryptionKey []byte
	IntegrityKey  []byte
}
