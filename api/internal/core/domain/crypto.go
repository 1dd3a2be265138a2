package domain

// PriceCrypter is the contract for price encoding under one key pair.
// Implementations are read-only after construction and safe for concurrent use.
type PriceCrypter interface {
	// Encrypt encodes at most PlaintextSize bytes of plaintext under a nonce
	// derived from nonceSeed and returns the URL-safe text form.
	Encrypt(nonceSeed string, plaintext Price) (string, error)

	// Decrypt recovers the plaintext. The integrity tag is not checked; it is
	// for the external counterpart's verifier.
	Decrypt(encoded string) (Price, error)
}

// PriceKeyring selects the crypter for a trust boundary. The external and
// internal crypters are never interchanged.
type PriceKeyring interface {
	ForContext(kc KeyContext) (PriceCrypter, error)
}
