package crypto_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/infrastructure/crypto"
)

// Key pairs shipped with the header-bidding adapter; the expected blobs
// below were produced by that adapter.
const (
	externalEncKey = "c2xzRWh5NXhpZmxndTRxYWZjY2NqZGNhTW1uZGZya3Y="
	externalIntKey = "eWRpdkFoa2tub3p5b2dscGttamIySGhkZ21jcmg0Znk="
	internalEncKey = "1AE180CBC19A8CFEB7E1FCC000A10F5D892A887A2D9="
	internalIntKey = "0379698055BD41FD05AC543A3AAAD6589BC6E1B3626="

	adID = "123456789123456789"
)

func keyMaterial(t *testing.T, enc, integrity string) domain.KeyMaterial {
	t.Helper()
	encKey, err := crypto.DecodeKey(enc)
	require.NoError(t, err)
	intKey, err := crypto.DecodeKey(integrity)
	require.NoError(t, err)
	return domain.KeyMaterial{EncryptionKey: encKey, IntegrityKey: intKey}
}

func newKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()
	kr, err := crypto.NewKeyring(
		keyMaterial(t, externalEncKey, externalIntKey),
		keyMaterial(t, internalEncKey, internalIntKey),
	)
	require.NoError(t, err)
	return kr
}

// ==============================================================================
// 1. Reference Vectors
// ==============================================================================

func TestPriceCrypter_ExternalVectors(t *testing.T) {
	c := newKeyring(t).External()

	cases := []struct {
		name  string
		seed  string
		price domain.Price
		want  string
	}{
		{"full price text", adID, "1.570000", "MTIzNDU2Nzg5MTIzNDU2N8y5DxfESCHg5CTVFw"},
		{"partial price text", adID, "1.59", "MTIzNDU2Nzg5MTIzNDU2N8y5Dxn0eBHQELptyg"},
		{"long seed is cut", "123456789123456789123456789", "1.59", "MTIzNDU2Nzg5MTIzNDU2N8y5Dxn0eBHQELptyg"},
		{"short seed is padded", "123456789", "1.59", "MTIzNDU2Nzg5MDAwMDAwMDJGF0WFzgb7CQC2Nw"},
		{"float rendered price", adID, domain.PriceFromFloat(1.59), "MTIzNDU2Nzg5MTIzNDU2N8y5Dxn0eBHQELptyg"},
		{"adjusted price", adID, "3.8496", "MTIzNDU2Nzg5MTIzNDU2N865AhTNThHQOG035A"},
		{"adjusted price 2", adID, "5.7798", "MTIzNDU2Nzg5MTIzNDU2N8i5DRfNQBHQ4_a0lA"},
		{"empty price", adID, "", "MTIzNDU2Nzg5MTIzNDU2N_2XOiD0eBHQUWJCcw"},
		{"zero", adID, domain.PriceFromFloat(0), "MTIzNDU2Nzg5MTIzNDU2N82XOiD0eBHQdRlVNg"},
		{"clearing price", adID, "40.22", "MTIzNDU2Nzg5MTIzNDU2N8mnFBLGeBHQseHrBA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Encrypt(tc.seed, tc.price)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPriceCrypter_InternalVectors(t *testing.T) {
	c := newKeyring(t).Internal()

	cases := []struct {
		price domain.Price
		want  string
	}{
		{"1.570000", "MTIzNDU2Nzg5MTIzNDU2Ny0i6OIZLp-4uQ97nA"},
		{"2.945", "MTIzNDU2Nzg5MTIzNDU2Ny4i5OEcHq-I-FhZIg"},
		{"40.22", "MTIzNDU2Nzg5MTIzNDU2Nyg88-cbHq-IYqegZw"},
		{"21.00", "MTIzNDU2Nzg5MTIzNDU2Ny498-UZHq-IEVNNYA"},
	}

	for _, tc := range cases {
		got, err := c.Encrypt(adID, tc.price)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "price %s", tc.price)
	}
}

func TestPriceCrypter_BlobLayout(t *testing.T) {
	c := newKeyring(t).External()

	encoded, err := c.Encrypt("abc", "1.5")
	require.NoError(t, err)

	assert.Len(t, encoded, 38)
	assert.NotContains(t, encoded, "=")
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, raw, domain.BlobSize)
	assert.Equal(t, "abc0000000000000", string(raw[:domain.NonceSize]))
}

// ==============================================================================
// 2. Round Trip & Determinism
// ==============================================================================

func TestPriceCrypter_RoundTrip(t *testing.T) {
	kr := newKeyring(t)

	for _, c := range []*crypto.PriceCrypter{kr.External(), kr.Internal()} {
		for _, seed := range []string{"", "1", adID, strings.Repeat("x", 40)} {
			for _, price := range []domain.Price{"", "0", "1.5", "40.22", "12345678", "1234.567"} {
				encoded, err := c.Encrypt(seed, price)
				require.NoError(t, err)

				decoded, err := c.Decrypt(encoded)
				require.NoError(t, err)
				assert.Equal(t, price, decoded, "seed %q", seed)
			}
		}
	}
}

func TestPriceCrypter_RoundTrip_Property(t *testing.T) {
	c := newKeyring(t).Internal()

	f := func(seed string, digits uint32) bool {
		price := domain.PriceFromFloat(float64(digits%10_000_000) / 100)
		if len(price) > domain.PlaintextSize {
			return true
		}
		encoded, err := c.Encrypt(seed, price)
		if err != nil {
			return false
		}
		decoded, err := c.Decrypt(encoded)
		return err == nil && decoded == price
	}

	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200}))
}

func TestPriceCrypter_Deterministic(t *testing.T) {
	c := newKeyring(t).External()

	first, err := c.Encrypt(adID, "9.99")
	require.NoError(t, err)
	second, err := c.Encrypt(adID, "9.99")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPriceCrypter_DecryptToleratesPadding(t *testing.T) {
	c := newKeyring(t).External()

	decoded, err := c.Decrypt("MTIzNDU2Nzg5MTIzNDU2N8mnFBLGeBHQseHrBA==")
	require.NoError(t, err)
	assert.Equal(t, domain.Price("40.22"), decoded)
}

// ==============================================================================
// 3. Key Isolation
// ==============================================================================

func TestPriceCrypter_KeyIsolation(t *testing.T) {
	kr := newKeyring(t)

	ext, err := kr.External().Encrypt(adID, "40.22")
	require.NoError(t, err)
	in, err := kr.Internal().Encrypt(adID, "40.22")
	require.NoError(t, err)

	rawExt, _ := base64.RawURLEncoding.DecodeString(ext)
	rawIn, _ := base64.RawURLEncoding.DecodeString(in)

	// Same nonce, different ciphertext and tag.
	assert.Equal(t, rawExt[:domain.NonceSize], rawIn[:domain.NonceSize])
	assert.NotEqual(t, rawExt[domain.NonceSize:domain.NonceSize+domain.PlaintextSize], rawIn[domain.NonceSize:domain.NonceSize+domain.PlaintextSize])
	assert.NotEqual(t, rawExt[domain.NonceSize+domain.PlaintextSize:], rawIn[domain.NonceSize+domain.PlaintextSize:])

	crossed, err := kr.Internal().Decrypt(ext)
	require.NoError(t, err)
	assert.NotEqual(t, domain.Price("40.22"), crossed)
}

func TestKeyring_RejectsIdenticalPairs(t *testing.T) {
	km := keyMaterial(t, externalEncKey, externalIntKey)

	_, err := crypto.NewKeyring(km, km)
	require.Error(t, err)
}

func TestKeyring_ForContext(t *testing.T) {
	kr := newKeyring(t)

	c, err := kr.ForContext(domain.KeyExternal)
	require.NoError(t, err)
	assert.Same(t, kr.External(), c)

	c, err = kr.ForContext(domain.KeyInternal)
	require.NoError(t, err)
	assert.Same(t, kr.Internal(), c)

	_, err = kr.ForContext("partner")
	assert.ErrorIs(t, err, domain.ErrUnknownKeyContext)
}

// ==============================================================================
// 4. Contract Violations
// ==============================================================================

func TestPriceCrypter_RejectsLongPlaintext(t *testing.T) {
	c := newKeyring(t).External()

	_, err := c.Encrypt(adID, "123456789")
	require.ErrorIs(t, err, domain.ErrPlaintextTooLong)

	var tooLong *domain.PlaintextTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, 9, tooLong.Length)
}

func TestPriceCrypter_RejectsMalformedBlob(t *testing.T) {
	c := newKeyring(t).External()

	cases := map[string]string{
		"not base64": "!!!!",
		"too short":  "MTIzNDU2Nzg5MTIzNDU2N8mnFBLG",
		"too long":   "MTIzNDU2Nzg5MTIzNDU2N8mnFBLGeBHQseHrBAAAAA",
		"empty":      "",
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(blob)
			assert.ErrorIs(t, err, domain.ErrMalformedBlob)
		})
	}
}

func TestNewPriceCrypter_RejectsEmptyKeys(t *testing.T) {
	_, err := crypto.NewPriceCrypter(domain.KeyMaterial{IntegrityKey: []byte("k")})
	assert.Error(t, err)

	_, err = crypto.NewPriceCrypter(domain.KeyMaterial{EncryptionKey: []byte("k")})
	assert.Error(t, err)
}

func TestNonce(t *testing.T) {
	cases := map[string]string{
		"123456789": "1234567890000000",
		adID:        "1234567891234567",
		"":          "0000000000000000",
	}

	for seed, want := range cases {
		nonce := crypto.Nonce(seed)
		assert.Equal(t, want, string(nonce[:]), "seed %q", seed)
	}
}

func TestDecodeKey(t *testing.T) {
	key, err := crypto.DecodeKey(externalEncKey)
	require.NoError(t, err)
	assert.Equal(t, "slsEhy5xiflgu4qafcccjdcaMmndfrkv", string(key))

	// Non-zero trailing bits are accepted.
	key, err = crypto.DecodeKey(internalEncKey)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = crypto.DecodeKey("")
	assert.Error(t, err)

	_, err = crypto.DecodeKey("not*base64")
	assert.Error(t, err)
}
