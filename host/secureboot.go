package host

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// SecureBootEncParams holds the inputs of the SecureBoot digest encryption.
type SecureBootEncParams struct {
	// Digest is the plaintext boot digest (32 bytes)
	Digest []byte

	// IOKey is the IO protection key (32 bytes)
	IOKey []byte

	// TempKey is the session secret from a random-mode Nonce
	TempKey *TempKey
}

// EncryptDigest derives the hashed key and encrypts the digest with it.
// The TempKey is consumed whether or not the call succeeds.
func EncryptDigest(p SecureBootEncParams) (hashedKey, digestEnc [32]byte, err error) {
	defer func() {
		if p.TempKey != nil {
			p.TempKey.Consume()
		}
	}()

	if len(p.Digest) != protocol.DigestSize {
		return hashedKey, digestEnc, fmt.Errorf("%w: digest must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.DigestSize, len(p.Digest))
	}
	if len(p.IOKey) != protocol.KeySize {
		return hashedKey, digestEnc, fmt.Errorf("%w: io key must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.KeySize, len(p.IOKey))
	}
	if err := checkRandom(p.TempKey); err != nil {
		return hashedKey, digestEnc, fmt.Errorf("%w: %w", protocol.ErrBadParameter, err)
	}

	h := sha256.New()
	h.Write(p.IOKey)
	h.Write(p.TempKey.Value[:])
	h.Sum(hashedKey[:0])

	for i := range digestEnc {
		digestEnc[i] = p.Digest[i] ^ hashedKey[i]
	}

	return hashedKey, digestEnc, nil
}

// SecureBootMACParams holds the inputs of the SecureBoot MAC.
type SecureBootMACParams struct {
	// Mode is the SecureBoot mode byte including the enc/MAC flag
	Mode byte

	// Param2 is the SecureBoot param2
	Param2 uint16

	// HashedKey is the key returned by EncryptDigest
	HashedKey [32]byte

	// Digest is the plaintext boot digest (32 bytes)
	Digest []byte

	// Signature is the boot image signature (64 bytes). It is left out of
	// the MAC when SecureBootConfig selects digest-only mode.
	Signature []byte

	// SecureBootConfig is the SecureBootConfig word read from the device
	SecureBootConfig uint16
}

// SecureBootMAC computes the MAC the device returns for a SecureBoot
// command run with the enc/MAC flag.
func SecureBootMAC(p SecureBootMACParams) ([32]byte, error) {
	var mac [32]byte

	if len(p.Digest) != protocol.DigestSize {
		return mac, fmt.Errorf("%w: digest must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.DigestSize, len(p.Digest))
	}

	includeSignature := true
	switch p.SecureBootConfig & protocol.SecureBootConfigModeMask {
	case protocol.SecureBootConfigModeDisabled:
		return mac, fmt.Errorf("%w: secure boot is disabled in SecureBootConfig", protocol.ErrBadParameter)
	case protocol.SecureBootConfigModeFullDig:
		includeSignature = false
	}
	if includeSignature && len(p.Signature) != protocol.SignatureSize {
		return mac, fmt.Errorf("%w: SecureBootConfig 0x%04X requires a %d-byte signature",
			protocol.ErrBadParameter, p.SecureBootConfig, protocol.SignatureSize)
	}

	h := sha256.New()
	h.Write(p.HashedKey[:])
	h.Write(p.Digest)
	if includeSignature {
		h.Write(p.Signature)
	}
	h.Write([]byte{protocol.OpSecureBoot, p.Mode})
	h.Write(binary.LittleEndian.AppendUint16(nil, p.Param2))
	h.Sum(mac[:0])

	return mac, nil
}
