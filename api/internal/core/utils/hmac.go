package utils

import (
	"crypto/hmac"
	"crypto/sha1"
)

// SHA1 returns the standard 20-byte SHA-1 digest of data.
func SHA1(data []byte) [sha1.Size]byte {
	return sha1.Sum(data)
}

// HMACSHA1 computes RFC 2104 HMAC-SHA1. Keys longer than the 64-byte block
// are hashed first, as the standard requires.
//
// This is the only source of keystream and tag bytes for price encoding, so
// output must stay bit-identical to classical HMAC-SHA1.
func HMACSHA1(key, data []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
