package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
)

// Keyring holds the two process-wide crypters. External ciphertext is read
// by the external counterpart, internal ciphertext only by our own backend.
type Keyring struct {
	external *PriceCrypter
	internal *PriceCrypter
}

var _ domain.PriceKeyring = (*Keyring)(nil)

func NewKeyring(external, internal domain.KeyMaterial) (*Keyring, error) {
	if bytes.Equal(external.EncryptionKey, internal.EncryptionKey) &&
		bytes.Equal(external.IntegrityKey, internal.IntegrityKey) {
		return nil, errors.New("crypto: external and internal key pairs must differ")
	}

	ext, err := NewPriceCrypter(external)
	if err != nil {
		return nil, fmt.Errorf("crypto: external key pair: %w", err)
	}
	in, err := NewPriceCrypter(internal)
	if err != nil {
		return nil, fmt.Errorf("crypto: internal key pair: %w", err)
	}

	return &Keyring{external: ext, internal: in}, nil
}

func (k *Keyring) External() *PriceCrypter { return k.external }

func (k *Keyring) Internal() *PriceCrypter { return k.internal }

func (k *Keyring) ForContext(kc domain.KeyContext) (domain.PriceCrypter, error) {
	switch kc {
	case domain.KeyExternal:
		return k.external, nil
	case domain.KeyInternal:
		return k.internal, nil
	}
	return nil, fmt.Errorf("crypto: %w: %q", domain.ErrUnknownKeyContext, kc)
}

// DecodeKey reads base64 key text the way browsers' atob does: standard
// alphabet, optional padding, whitespace ignored, non-zero trailing bits
// accepted.
func DecodeKey(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, errors.New("crypto: empty key")
	}

	key, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid key encoding: %w", err)
	}
	return key, nil
}
