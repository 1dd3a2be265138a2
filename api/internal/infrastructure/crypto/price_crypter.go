package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/utils"
)

// nonceFill right-pads short nonce seeds.
const nonceFill = '0'

// PriceCrypter encodes prices as nonce || (price XOR pad) || tag, where
// pad = HMAC-SHA1(encKey, nonce)[:8] and tag = HMAC-SHA1(intKey, price || nonce)[:4].
// It holds no mutable state and is safe for concurrent use.
type PriceCrypter struct {
	encKey []byte
	intKey []byte
}

var _ domain.PriceCrypter = (*PriceCrypter)(nil)

func NewPriceCrypter(km domain.KeyMaterial) (*PriceCrypter, error) {
	if len(km.EncryptionKey) == 0 {
		return nil, errors.New("crypto: encryption key must not be empty")
	}
	if len(km.IntegrityKey) == 0 {
		return nil, errors.New("crypto: integrity key must not be empty")
	}

	return &PriceCrypter{
		encKey: append([]byte(nil), km.EncryptionKey...),
		intKey: append([]byte(nil), km.IntegrityKey...),
	}, nil
}

// Nonce derives the 16-byte nonce from a seed: right-padded with '0' when
// short, cut to 16 bytes when long.
func Nonce(seed string) [domain.NonceSize]byte {
	var nonce [domain.NonceSize]byte
	for i := range nonce {
		nonce[i] = nonceFill
	}
	copy(nonce[:], seed)
	return nonce
}

func (c *PriceCrypter) Encrypt(nonceSeed string, plaintext domain.Price) (string, error) {
	if len(plaintext) > domain.PlaintextSize {
		return "", &domain.PlaintextTooLongError{Length: len(plaintext)}
	}

	nonce := Nonce(nonceSeed)

	// Zero bytes past the price are XORed with the pad like any other byte.
	var padded [domain.PlaintextSize]byte
	copy(padded[:], plaintext)

	pad := utils.HMACSHA1(c.encKey, nonce[:])

	blob := make([]byte, 0, domain.BlobSize)
	blob = append(blob, nonce[:]...)
	for i, b := range padded {
		blob = append(blob, b^pad[i])
	}

	integrityMsg := make([]byte, 0, domain.PlaintextSize+domain.NonceSize)
	integrityMsg = append(integrityMsg, padded[:]...)
	integrityMsg = append(integrityMsg, nonce[:]...)
	tag := utils.HMACSHA1(c.intKey, integrityMsg)[:domain.TagSize]
	blob = append(blob, tag...)

	return base64.RawURLEncoding.EncodeToString(blob), nil
}

func (c *PriceCrypter) Decrypt(encoded string) (domain.Price, error) {
	// Tolerate padding added by mistake.
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", fmt.Errorf("crypto: base64 decode failure: %w: %v", domain.ErrMalformedBlob, err)
	}
	if len(data) != domain.BlobSize {
		return "", fmt.Errorf("crypto: %w: got %d bytes, want %d", domain.ErrMalformedBlob, len(data), domain.BlobSize)
	}

	nonce := data[:domain.NonceSize]
	ciphertext := data[domain.NonceSize : domain.NonceSize+domain.PlaintextSize]
	pad := utils.HMACSHA1(c.encKey, nonce)

	plaintext := make([]byte, 0, domain.PlaintextSize)
	for i, b := range ciphertext {
		p := b ^ pad[i]
		if p == 0 {
			break
		}
		plaintext = append(plaintext, p)
	}

	return domain.Price(plaintext), nil
}
