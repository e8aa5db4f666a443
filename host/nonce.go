package host

import (
	"crypto/sha256"
	"fmt"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// NonceParams holds the inputs of a Nonce command as seen by the host.
type NonceParams struct {
	// Mode is the Nonce mode byte (param1)
	Mode byte

	// Zero is the Nonce param2; it must be zero for TempKey targets
	Zero uint16

	// NumIn is the host number: 20 bytes in the random modes, 32 bytes
	// in pass-through mode
	NumIn []byte

	// RandOut is the 32-byte device random number; unused in pass-through
	RandOut []byte
}

// Nonce computes the TempKey the device holds after a Nonce command.
//
// Random modes:  TempKey = SHA256(rand_out || num_in || 0x16 || mode || 0x00)
// Pass-through:  TempKey = num_in
func Nonce(p NonceParams) (*TempKey, error) {
	tk := &TempKey{Mode: p.Mode}

	switch p.Mode & protocol.NonceModeMask {
	case protocol.NonceModeSeedUpdate, protocol.NonceModeNoSeedUpdate:
		if len(p.NumIn) != protocol.NonceNumInSize {
			return nil, fmt.Errorf("%w: num_in must be %d bytes, got %d",
				protocol.ErrBadParameter, protocol.NonceNumInSize, len(p.NumIn))
		}
		if len(p.RandOut) != protocol.RandomNumSize {
			return nil, fmt.Errorf("%w: rand_out must be %d bytes, got %d",
				protocol.ErrBadParameter, protocol.RandomNumSize, len(p.RandOut))
		}

		h := sha256.New()
		h.Write(p.RandOut)
		h.Write(p.NumIn)
		h.Write([]byte{protocol.OpNonce, p.Mode, byte(p.Zero)})
		h.Sum(tk.Value[:0])

	case protocol.NonceModePassthrough:
		if len(p.NumIn) != protocol.NonceNumInPassthroughSize {
			return nil, fmt.Errorf("%w: pass-through num_in must be %d bytes, got %d",
				protocol.ErrBadParameter, protocol.NonceNumInPassthroughSize, len(p.NumIn))
		}
		copy(tk.Value[:], p.NumIn)

	default:
		return nil, fmt.Errorf("%w: unsupported nonce mode 0x%02X", protocol.ErrBadParameter, p.Mode)
	}

	tk.Valid = true
	return tk, nil
}
