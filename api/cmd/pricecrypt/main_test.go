package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
)

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PRICECRYPT_ENV", "development")
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789abcdef")
	t.Setenv("EXTERNAL_ENCRYPTION_KEY", "c2xzRWh5NXhpZmxndTRxYWZjY2NqZGNhTW1uZGZya3Y=")
	t.Setenv("EXTERNAL_INTEGRITY_KEY", "eWRpdkFoa2tub3p5b2dscGttamIySGhkZ21jcmg0Znk=")
	t.Setenv("INTERNAL_ENCRYPTION_KEY", "1AE180CBC19A8CFEB7E1FCC000A10F5D892A887A2D9=")
	t.Setenv("INTERNAL_INTEGRITY_KEY", "0379698055BD41FD05AC543A3AAAD6589BC6E1B3626=")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestCLI_Truncate(t *testing.T) {
	out, err := runCLI(t, "", "truncate", "1234.56789")
	require.NoError(t, err)
	assert.Equal(t, "1234.567\n", out)

	_, err = runCLI(t, "", "truncate", "123456789")
	assert.ErrorIs(t, err, domain.ErrPriceTooLarge)

	_, err = runCLI(t, "", "truncate")
	assert.Error(t, err)
}

func TestCLI_EncodeDecode(t *testing.T) {
	setEnv(t)

	out, err := runCLI(t, "", "encode", "--seed", "123456789123456789", "--key", "internal", "21.00")
	require.NoError(t, err)
	assert.Equal(t, "MTIzNDU2Nzg5MTIzNDU2Ny498-UZHq-IEVNNYA\n", out)

	out, err = runCLI(t, "", "decode", "-k", "internal", "MTIzNDU2Nzg5MTIzNDU2Ny498-UZHq-IEVNNYA")
	require.NoError(t, err)
	assert.Equal(t, "21.00\n", out)

	_, err = runCLI(t, "", "encode", "--seed", "1", "--key", "partner", "1")
	assert.ErrorIs(t, err, domain.ErrUnknownKeyContext)
}

func TestCLI_Render(t *testing.T) {
	setEnv(t)

	out, err := runCLI(t, "p=${AUCTION_PRICE}&e=${AUCTION_PRICE:ENC}&b=${THIRD_BID:ENC}",
		"render", "--ad-id", "123456789123456789", "--price", "12.03", "--exchange-rate", "0.32", "--third-bid", "21.00")
	require.NoError(t, err)
	assert.Equal(t, "p=3.8496&e=MTIzNDU2Nzg5MTIzNDU2N865AhTNThHQOG035A&b=MTIzNDU2Nzg5MTIzNDU2Ny498-UZHq-IEVNNYA", out)

	_, err = runCLI(t, "${AUCTION_PRICE}", "render", "--ad-id", "a", "--price", "123456789")
	assert.ErrorIs(t, err, domain.ErrPriceTooLarge)
}

func TestCLI_Token(t *testing.T) {
	setEnv(t)

	out, err := runCLI(t, "", "token", "--subject", "settlement", "--scope", "prices:decode,alerts:read")
	require.NoError(t, err)

	claims, err := services.NewTokenService("cli-test-secret-0123456789abcdef").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "settlement", claims.Subject)
	assert.Equal(t, []string{"prices:decode", "alerts:read"}, claims.Scopes)
}

func TestCLI_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "", "rotate")
	assert.ErrorContains(t, err, `unknown command "rotate"`)

	_, err = runCLI(t, "")
	assert.NoError(t, err)
}
