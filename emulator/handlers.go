package emulator

import (
	"crypto/sha256"
	"io"

	"github.com/moffa90/go-cryptoauth/host"
	"github.com/moffa90/go-cryptoauth/protocol"
)

func status(code byte) []byte {
	return protocol.EncodeStatus(code)
}

func (d *Device) handleNonce(pkt *protocol.Packet) []byte {
	mode := pkt.Param1

	switch mode & protocol.NonceModeMask {
	case protocol.NonceModeSeedUpdate, protocol.NonceModeNoSeedUpdate:
		randOut := make([]byte, protocol.RandomNumSize)
		if _, err := io.ReadFull(d.random, randOut); err != nil {
			return status(protocol.StatusHealthTestError)
		}

		tk, err := host.Nonce(host.NonceParams{
			Mode:    mode & protocol.NonceModeMask,
			Zero:    pkt.Param2,
			NumIn:   pkt.Data,
			RandOut: randOut,
		})
		if err != nil {
			return status(protocol.StatusParseError)
		}
		d.tempKey = *tk
		return protocol.EncodeResponse(randOut)

	case protocol.NonceModePassthrough:
		switch mode & protocol.NonceModeTargetMask {
		case protocol.NonceModeTargetTempKey:
			if len(pkt.Data) != protocol.NonceNumInPassthroughSize {
				return status(protocol.StatusParseError)
			}
			tk, err := host.Nonce(host.NonceParams{Mode: protocol.NonceModePassthrough, NumIn: pkt.Data})
			if err != nil {
				return status(protocol.StatusParseError)
			}
			d.tempKey = *tk

		case protocol.NonceModeTargetMsgDigBuf:
			if !d.variant.HasMessageDigestBuffer() {
				return status(protocol.StatusParseError)
			}
			if len(pkt.Data) != 32 && len(pkt.Data) != protocol.MsgDigBufSize {
				return status(protocol.StatusParseError)
			}
			host.Zero(d.msgDigBuf[:])
			d.msgDigBufLen = copy(d.msgDigBuf[:], pkt.Data)

		default:
			return status(protocol.StatusParseError)
		}
		return status(protocol.StatusSuccess)
	}

	return status(protocol.StatusParseError)
}

func (d *Device) handleRead(pkt *protocol.Packet) []byte {
	if protocol.Zone(pkt.Param1&^protocol.ZoneReadWrite32) != protocol.ZoneConfig {
		return status(protocol.StatusExecutionError)
	}

	block := int(pkt.Param2>>3) & 0x1F
	word := int(pkt.Param2 & 0x07)

	offset, size := block*protocol.BlockSize, protocol.BlockSize
	if pkt.Param1&protocol.ZoneReadWrite32 == 0 {
		offset += word * protocol.WordSize
		size = protocol.WordSize
	}
	if offset+size > len(d.config) {
		return status(protocol.StatusParseError)
	}

	return protocol.EncodeResponse(d.config[offset : offset+size])
}

// message returns the 32-byte message a Verify command reads, or nil
// when the selected source holds none.
func (d *Device) message(mode byte) []byte {
	if mode&protocol.VerifyModeSourceMask == protocol.VerifyModeSourceMsgDigBuf {
		if !d.variant.HasMessageDigestBuffer() || d.msgDigBufLen == 0 {
			return nil
		}
		return append([]byte(nil), d.msgDigBuf[:32]...)
	}
	if !d.tempKey.Valid {
		return nil
	}
	return append([]byte(nil), d.tempKey.Value[:]...)
}

func (d *Device) handleVerify(pkt *protocol.Packet) []byte {
	mode := pkt.Param1
	size, err := protocol.RequiredPayload(protocol.OpVerify, mode)
	if err != nil || len(pkt.Data) != size {
		return status(protocol.StatusParseError)
	}
	if mode&protocol.VerifyModeMACFlag != 0 {
		if !d.variant.SupportsVerifyMAC() || mode&protocol.VerifyModeSourceMask != protocol.VerifyModeSourceMsgDigBuf {
			return status(protocol.StatusParseError)
		}
	}

	signature := pkt.Data[:protocol.SignatureSize]
	message := d.message(mode)
	defer d.tempKey.Consume()

	var (
		publicKey []byte
		slotState bool
	)
	switch mode & protocol.VerifyModeMask {
	case protocol.VerifyModeStored:
		publicKey = d.slots[pkt.Param2]
		if publicKey == nil || d.invalid[pkt.Param2] {
			return status(protocol.StatusExecutionError)
		}

	case protocol.VerifyModeExternal, protocol.VerifyModeValidateExternal:
		publicKey = pkt.Data[protocol.SignatureSize:]
		slotState = mode&protocol.VerifyModeMask == protocol.VerifyModeValidateExternal

	case protocol.VerifyModeValidate, protocol.VerifyModeInvalidate:
		publicKey = d.authorities[pkt.Param2]
		if publicKey == nil || message == nil {
			return status(protocol.StatusExecutionError)
		}
		h := sha256.New()
		h.Write(message)
		h.Write(pkt.Data[protocol.SignatureSize:])
		message = h.Sum(nil)
		slotState = true
	}

	if message == nil {
		return status(protocol.StatusExecutionError)
	}

	ok, err := verifySignature(publicKey, message, signature)
	if err != nil {
		return status(protocol.StatusECCFault)
	}
	if !ok {
		return status(protocol.StatusCheckMacVerifyFailed)
	}

	if slotState {
		d.invalid[pkt.Param2] = mode&protocol.VerifyModeMask == protocol.VerifyModeInvalidate
	}

	if mode&protocol.VerifyModeMACFlag == 0 {
		return status(protocol.StatusSuccess)
	}

	mac, err := host.VerifyMAC(host.VerifyMACParams{
		Mode:      mode,
		KeyID:     pkt.Param2,
		Signature: signature,
		MsgDigBuf: d.msgDigBuf[:],
		IOKey:     d.ioKey[:],
	})
	if err != nil {
		return status(protocol.StatusExecutionError)
	}
	return protocol.EncodeResponse(mac[:])
}

func (d *Device) handleSecureBoot(pkt *protocol.Packet) []byte {
	if !d.variant.SupportsSecureBoot() {
		return status(protocol.StatusParseError)
	}

	mode := pkt.Param1
	size, err := protocol.RequiredPayload(protocol.OpSecureBoot, mode)
	if err != nil || len(pkt.Data) != size {
		return status(protocol.StatusParseError)
	}

	cfg := d.secureBootConfig()
	if cfg&protocol.SecureBootConfigModeMask == protocol.SecureBootConfigModeDisabled {
		return status(protocol.StatusExecutionError)
	}

	digest := append([]byte(nil), pkt.Data[:protocol.DigestSize]...)
	var hashedKey [32]byte
	defer host.Zero(hashedKey[:])

	if mode&protocol.SecureBootModeEncMACFlag != 0 {
		tk := d.tempKey
		d.tempKey.Consume()

		var plain [32]byte
		hashedKey, plain, err = host.EncryptDigest(host.SecureBootEncParams{
			Digest:  digest,
			IOKey:   d.ioKey[:],
			TempKey: &tk,
		})
		if err != nil {
			return status(protocol.StatusExecutionError)
		}
		copy(digest, plain[:])
	}

	var signature []byte
	switch mode & protocol.SecureBootModeMask {
	case protocol.SecureBootModeFull, protocol.SecureBootModeFullCopy:
		signature = pkt.Data[protocol.DigestSize:]
		publicKey := d.slots[cfg>>8&0x0F]
		if publicKey == nil {
			return status(protocol.StatusExecutionError)
		}
		ok, err := verifySignature(publicKey, digest, signature)
		if err != nil {
			return status(protocol.StatusECCFault)
		}
		if !ok {
			return status(protocol.StatusCheckMacVerifyFailed)
		}
		d.bootDigest = digest
		d.bootSignature = append([]byte(nil), signature...)

	case protocol.SecureBootModeFullStore:
		if d.bootDigest == nil {
			return status(protocol.StatusExecutionError)
		}
		if !host.CompareMAC(digest, d.bootDigest) {
			return status(protocol.StatusCheckMacVerifyFailed)
		}
		signature = d.bootSignature
	}

	if mode&protocol.SecureBootModeEncMACFlag == 0 {
		return status(protocol.StatusSuccess)
	}

	mac, err := host.SecureBootMAC(host.SecureBootMACParams{
		Mode:             mode,
		Param2:           pkt.Param2,
		HashedKey:        hashedKey,
		Digest:           digest,
		Signature:        signature,
		SecureBootConfig: cfg,
	})
	if err != nil {
		return status(protocol.StatusExecutionError)
	}
	return protocol.EncodeResponse(mac[:])
}
