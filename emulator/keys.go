package emulator

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// parsePublicKey converts a 64-byte X || Y key to a P-256 public key.
func parsePublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != protocol.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", protocol.PublicKeySize, len(raw))
	}
	if _, err := ecdh.P256().NewPublicKey(append([]byte{0x04}, raw...)); err != nil {
		return nil, fmt.Errorf("public key not on curve: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[:32]),
		Y:     new(big.Int).SetBytes(raw[32:]),
	}, nil
}

// verifySignature checks an R || S signature of a 32-byte digest.
func verifySignature(publicKey, digest, signature []byte) (bool, error) {
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	return ecdsa.Verify(pub, digest, r, s), nil
}

// GenerateKey creates a P-256 key pair for use with a Device.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// PrivateKeyFromBytes builds a P-256 private key from a 32-byte scalar.
func PrivateKeyFromBytes(scalar []byte) (*ecdsa.PrivateKey, error) {
	if len(scalar) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(scalar))
	}
	key, err := ecdh.P256().NewPrivateKey(scalar)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	point := key.PublicKey().Bytes()

	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(point[1:33]),
			Y:     new(big.Int).SetBytes(point[33:]),
		},
		D: new(big.Int).SetBytes(scalar),
	}, nil
}

// PublicKeyBytes returns the 64-byte X || Y encoding used on the wire.
func PublicKeyBytes(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, protocol.PublicKeySize)
	pub.X.FillBytes(out[:32])
	pub.Y.FillBytes(out[32:])
	return out
}

// Sign signs a 32-byte digest and returns the 64-byte R || S signature.
func Sign(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, err
	}
	out := make([]byte, protocol.SignatureSize)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}
