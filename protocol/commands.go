package protocol

import (
	"encoding/binary"
	"fmt"
)

// maxCommandSize is the largest command a one-byte count can describe.
const maxCommandSize = 0xFF

// NewPacket creates a command packet. The data slice is copied so the
// caller keeps ownership of its buffer.
func NewPacket(opcode, param1 byte, param2 uint16, data []byte) (*Packet, error) {
	if CmdSizeMin+len(data) > maxCommandSize {
		return nil, fmt.Errorf("%w: data length %d exceeds maximum %d bytes",
			ErrInvalidSize, len(data), maxCommandSize-CmdSizeMin)
	}

	p := &Packet{
		Opcode: opcode,
		Param1: param1,
		Param2: param2,
	}
	if len(data) > 0 {
		p.Data = append(make([]byte, 0, len(data)), data...)
	}
	return p, nil
}

// Size returns the framed size of the packet, which is also its count byte.
func (p *Packet) Size() int {
	return CmdSizeMin + len(p.Data)
}

// Encode returns the framed command ready to hand to an executor.
//
// Frame structure:
//
//	[COUNT][OPCODE][PARAM1][PARAM2_L][PARAM2_H][DATA...][CRC_L][CRC_H]
//
// The CRC covers every byte from COUNT through DATA.
func (p *Packet) Encode() []byte {
	return p.AppendTo(make([]byte, 0, p.Size()))
}

// AppendTo appends the framed command to dst and returns the extended
// slice. Callers that own a scratch buffer pass it with zero length.
func (p *Packet) AppendTo(dst []byte) []byte {
	start := len(dst)

	dst = append(dst, byte(p.Size()))
	dst = append(dst, p.Opcode)
	dst = append(dst, p.Param1)
	dst = binary.LittleEndian.AppendUint16(dst, p.Param2)
	dst = append(dst, p.Data...)

	return binary.LittleEndian.AppendUint16(dst, CRC16(dst[start:]))
}

// Wipe zeroes the packet payload. Payloads may carry derived secrets.
func (p *Packet) Wipe() {
	for i := range p.Data {
		p.Data[i] = 0
	}
}

// CheckCapacity rejects a payload that would not fit a transport whose
// largest command is maxPacketSize bytes.
func CheckCapacity(payloadLen, maxPacketSize int) error {
	if CmdSizeMin+payloadLen > maxPacketSize {
		return fmt.Errorf("%w: command needs %d bytes, max packet size is %d",
			ErrInvalidSize, CmdSizeMin+payloadLen, maxPacketSize)
	}
	return nil
}

// RequiredPayload returns the payload length a SecureBoot or Verify mode
// carries on the wire.
func RequiredPayload(opcode, mode byte) (int, error) {
	switch opcode {
	case OpSecureBoot:
		switch mode & SecureBootModeMask {
		case SecureBootModeFull, SecureBootModeFullCopy:
			return DigestSize + SignatureSize, nil
		case SecureBootModeFullStore:
			return DigestSize, nil
		}
		return 0, fmt.Errorf("%w: unsupported secureboot mode 0x%02X", ErrBadParameter, mode)

	case OpVerify:
		switch mode & VerifyModeMask {
		case VerifyModeStored:
			return SignatureSize, nil
		case VerifyModeExternal, VerifyModeValidateExternal:
			return SignatureSize + PublicKeySize, nil
		case VerifyModeValidate, VerifyModeInvalidate:
			return SignatureSize + OtherDataSize, nil
		}
		return 0, fmt.Errorf("%w: unsupported verify mode 0x%02X", ErrBadParameter, mode)
	}

	return 0, fmt.Errorf("%w: opcode 0x%02X has no mode-dependent payload", ErrBadParameter, opcode)
}

// NewSecureBootCmd constructs a SecureBoot command.
//
// Payload structure:
//
//	Full, FullCopy: [DIGEST(32)][SIGNATURE(64)]
//	FullStore:      [DIGEST(32)]
//
// A signature passed in FullStore mode is not transmitted.
func NewSecureBootCmd(mode byte, param2 uint16, digest, signature []byte) (*Packet, error) {
	if len(digest) != DigestSize {
		return nil, fmt.Errorf("%w: digest must be exactly %d bytes, got %d",
			ErrBadParameter, DigestSize, len(digest))
	}

	size, err := RequiredPayload(OpSecureBoot, mode)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, size)
	data = append(data, digest...)

	if size > DigestSize {
		if signature == nil {
			return nil, fmt.Errorf("%w: secureboot mode 0x%02X requires a signature", ErrBadParameter, mode)
		}
		if len(signature) != SignatureSize {
			return nil, fmt.Errorf("%w: signature must be exactly %d bytes, got %d",
				ErrBadParameter, SignatureSize, len(signature))
		}
		data = append(data, signature...)
	}

	return &Packet{Opcode: OpSecureBoot, Param1: mode, Param2: param2, Data: data}, nil
}

// NewVerifyCmd constructs a Verify command.
//
// Payload structure:
//
//	Stored:                     [SIGNATURE(64)]
//	External, ValidateExternal: [SIGNATURE(64)][PUBLIC_KEY(64)]
//	Validate, Invalidate:       [SIGNATURE(64)][OTHER_DATA(19)]
func NewVerifyCmd(mode byte, keyID uint16, signature, publicKey, otherData []byte) (*Packet, error) {
	if len(signature) != SignatureSize {
		return nil, fmt.Errorf("%w: signature must be exactly %d bytes, got %d",
			ErrBadParameter, SignatureSize, len(signature))
	}

	size, err := RequiredPayload(OpVerify, mode)
	if err != nil {
		return nil, err
	}
	if mode&VerifyModeMACFlag != 0 {
		switch mode & VerifyModeMask {
		case VerifyModeStored, VerifyModeExternal:
		default:
			return nil, fmt.Errorf("%w: verify mode 0x%02X cannot return a MAC", ErrBadParameter, mode)
		}
	}

	data := make([]byte, 0, size)
	data = append(data, signature...)

	switch mode & VerifyModeMask {
	case VerifyModeExternal, VerifyModeValidateExternal:
		if len(publicKey) != PublicKeySize {
			return nil, fmt.Errorf("%w: verify mode 0x%02X requires a %d-byte public key",
				ErrBadParameter, mode, PublicKeySize)
		}
		data = append(data, publicKey...)
	case VerifyModeValidate, VerifyModeInvalidate:
		if len(otherData) != OtherDataSize {
			return nil, fmt.Errorf("%w: verify mode 0x%02X requires %d bytes of other data",
				ErrBadParameter, mode, OtherDataSize)
		}
		data = append(data, otherData...)
	}

	return &Packet{Opcode: OpVerify, Param1: mode, Param2: keyID, Data: data}, nil
}

// NewNonceCmd constructs a Nonce command.
//
// Seed-update and no-seed-update modes take a 20-byte host number and
// return a 32-byte random number. Pass-through mode loads a 32 or 64 byte
// value into the selected target; the input length flag is set here.
func NewNonceCmd(mode byte, param2 uint16, numIn []byte) (*Packet, error) {
	switch mode & NonceModeMask {
	case NonceModeSeedUpdate, NonceModeNoSeedUpdate:
		if len(numIn) != NonceNumInSize {
			return nil, fmt.Errorf("%w: nonce input must be exactly %d bytes, got %d",
				ErrBadParameter, NonceNumInSize, len(numIn))
		}
	case NonceModePassthrough:
		mode &^= NonceModeInputLenMask
		switch len(numIn) {
		case NonceNumInPassthroughSize:
			mode |= NonceModeInputLen32
		case MsgDigBufSize:
			mode |= NonceModeInputLen64
		default:
			return nil, fmt.Errorf("%w: pass-through nonce must be %d or %d bytes, got %d",
				ErrBadParameter, NonceNumInPassthroughSize, MsgDigBufSize, len(numIn))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported nonce mode 0x%02X", ErrBadParameter, mode)
	}

	return NewPacket(OpNonce, mode, param2, numIn)
}

// NewReadCmd constructs a Read command for one word, or one block when
// block is true.
func NewReadCmd(zone Zone, address uint16, block bool) (*Packet, error) {
	param1 := byte(zone)
	if block {
		param1 |= ZoneReadWrite32
	}
	return NewPacket(OpRead, param1, address, nil)
}

// Address computes the Read/Write address of a word.
//
// Config and OTP zones: [BLOCK << 3 | WORD]
// Data zone:            [BLOCK << 8 | SLOT << 3 | WORD]
func Address(zone Zone, slot uint16, block uint8, word uint8) (uint16, error) {
	if word > 7 {
		return 0, fmt.Errorf("%w: word offset %d out of range", ErrBadParameter, word)
	}

	switch zone {
	case ZoneConfig, ZoneOTP:
		return uint16(block)<<3 | uint16(word), nil
	case ZoneData:
		if slot > 15 {
			return 0, fmt.Errorf("%w: slot %d out of range", ErrBadParameter, slot)
		}
		return uint16(block)<<8 | slot<<3 | uint16(word), nil
	}

	return 0, fmt.Errorf("%w: invalid zone %s", ErrBadParameter, zone)
}
