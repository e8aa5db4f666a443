package host

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// VerifyMACParams holds the inputs of the Verify MAC.
type VerifyMACParams struct {
	// Mode is the Verify mode byte including the MAC and source flags
	Mode byte

	// KeyID is the Verify param2: key slot or curve type
	KeyID uint16

	// Signature is the verified signature (64 bytes)
	Signature []byte

	// MsgDigBuf is the message digest buffer contents: message (32) || system nonce (32)
	MsgDigBuf []byte

	// IOKey is the IO protection key (32 bytes)
	IOKey []byte
}

// VerifyMAC computes the MAC the device returns for a Verify command run
// with the MAC flag. Only the message digest buffer is supported as the
// message source.
func VerifyMAC(p VerifyMACParams) ([32]byte, error) {
	var mac [32]byte

	if p.Mode&protocol.VerifyModeSourceMask != protocol.VerifyModeSourceMsgDigBuf {
		return mac, fmt.Errorf("%w: verify MAC requires the message digest buffer source", protocol.ErrBadParameter)
	}
	if len(p.Signature) != protocol.SignatureSize {
		return mac, fmt.Errorf("%w: signature must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.SignatureSize, len(p.Signature))
	}
	if len(p.MsgDigBuf) != protocol.MsgDigBufSize {
		return mac, fmt.Errorf("%w: message digest buffer must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.MsgDigBufSize, len(p.MsgDigBuf))
	}
	if len(p.IOKey) != protocol.KeySize {
		return mac, fmt.Errorf("%w: io key must be %d bytes, got %d",
			protocol.ErrBadParameter, protocol.KeySize, len(p.IOKey))
	}

	h := sha256.New()
	h.Write(p.IOKey)
	h.Write(p.MsgDigBuf)
	h.Write(p.Signature)
	h.Write([]byte{protocol.OpVerify, p.Mode})
	h.Write(binary.LittleEndian.AppendUint16(nil, p.KeyID))
	h.Sum(mac[:0])

	return mac, nil
}
