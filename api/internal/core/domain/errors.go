package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPriceTooLarge     = errors.New("price too large to encode")
	ErrPlaintextTooLong  = errors.New("plaintext exceeds ciphertext size")
	ErrMalformedBlob     = errors.New("malformed encoded price")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrUnknownKeyContext = errors.New("unknown key context")
)

// PriceTooLargeError reports a price that cannot be represented in
// PlaintextSize bytes without dropping a non-zero digit.
type PriceTooLargeError struct {
	Price Price
}

func (e *PriceTooLargeError) Error() string {
	return fmt.Sprintf("unable to truncate %s to fit into %d bytes", e.Price, PlaintextSize)
}

func (e *PriceTooLargeError) Is(target error) bool {
	return target == ErrPriceTooLarge
}

// PlaintextTooLongError means the truncation step was skipped by the caller.
type PlaintextTooLongError struct {
	Length int
}

func (e *PlaintextTooLongError) Error() string {
	return fmt.Sprintf("data to encrypt is too long: %d bytes (max %d)", e.Length, PlaintextSize)
}

func (e *PlaintextTooLongError) Is(target error) bool {
	return target == ErrPlaintextTooLong
}

// MacroResolutionError aborts a whole creative render. It names the first
// macro whose value could not be produced.
type MacroResolutionError struct {
	Macro Macro
	Err   error
}

func (e *MacroResolutionError) Error() string {
	return fmt.Sprintf("resolve macro %s: %v", e.Macro, e.Err)
}

func (e *MacroResolutionError) Unwrap() error {
	return e.Err
}
