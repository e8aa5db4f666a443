package host

import (
	"errors"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// ErrTempKeyInvalid is returned when a TempKey is missing, already
// consumed, or was produced by the wrong nonce mode.
var ErrTempKeyInvalid = errors.New("tempkey invalid")

// TempKey is the host copy of the device session secret.
type TempKey struct {
	// Value is the 32-byte secret
	Value [32]byte

	// Mode is the Nonce mode that produced the value
	Mode byte

	// Valid is false once the key has been consumed
	Valid bool
}

// IsRandom reports whether the key was produced by a random nonce mode
// (seed update or no seed update) rather than loaded by pass-through.
func (t *TempKey) IsRandom() bool {
	switch t.Mode & protocol.NonceModeMask {
	case protocol.NonceModeSeedUpdate, protocol.NonceModeNoSeedUpdate:
		return true
	}
	return false
}

// Consume wipes the key and marks it invalid.
func (t *TempKey) Consume() {
	Zero(t.Value[:])
	t.Valid = false
}

// checkRandom validates a TempKey before a derivation that requires a
// random nonce.
func checkRandom(t *TempKey) error {
	if t == nil || !t.Valid {
		return ErrTempKeyInvalid
	}
	if !t.IsRandom() {
		return ErrTempKeyInvalid
	}
	return nil
}
