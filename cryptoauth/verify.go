package cryptoauth

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-cryptoauth/host"
	"github.com/moffa90/go-cryptoauth/protocol"
)

// VerifyRequest holds the inputs of a Verify command.
type VerifyRequest struct {
	// Mode is the Verify mode byte including source and MAC flags
	Mode byte

	// KeyID is the key slot, or the curve type in External mode
	KeyID uint16

	// Signature is R || S (64 bytes)
	Signature []byte

	// PublicKey is X || Y (64 bytes); required in External and
	// ValidateExternal modes
	PublicKey []byte

	// OtherData is required in Validate and Invalidate modes (19 bytes)
	OtherData []byte
}

// Verify runs a Verify command. When the response carries a validating
// MAC it is returned; otherwise the returned MAC is nil. A signature
// miscompare is returned as an error matching protocol.ErrVerifyMismatch.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) ([]byte, error) {
	if req.Mode&protocol.VerifyModeMACFlag != 0 && !c.config.Variant.SupportsVerifyMAC() {
		return nil, &UnsupportedError{Operation: "verify", Variant: c.config.Variant}
	}
	if req.Mode&protocol.VerifyModeSourceMask == protocol.VerifyModeSourceMsgDigBuf && !c.config.Variant.HasMessageDigestBuffer() {
		return nil, &UnsupportedError{Operation: "verify", Variant: c.config.Variant}
	}

	pkt, err := protocol.NewVerifyCmd(req.Mode, req.KeyID, req.Signature, req.PublicKey, req.OtherData)
	if err != nil {
		return nil, err
	}

	data, err := c.execute(ctx, "verify", pkt)
	if err != nil {
		return nil, err
	}

	return protocol.ParseMACResponse(data), nil
}

// VerifyExtern verifies a signature of a 32-byte message with an external
// P-256 public key.
func (c *Client) VerifyExtern(ctx context.Context, message, signature, publicKey []byte) (bool, error) {
	return c.verifyMessage(ctx, "verify-extern", message, VerifyRequest{
		Mode:      protocol.VerifyModeExternal,
		KeyID:     protocol.VerifyKeyP256,
		Signature: signature,
		PublicKey: publicKey,
	})
}

// VerifyStored verifies a signature of a 32-byte message with the public
// key stored in slot keyID.
func (c *Client) VerifyStored(ctx context.Context, message, signature []byte, keyID uint16) (bool, error) {
	return c.verifyMessage(ctx, "verify-stored", message, VerifyRequest{
		Mode:      protocol.VerifyModeStored,
		KeyID:     keyID,
		Signature: signature,
	})
}

// VerifyStoredWithTempKey verifies a signature of the message already in
// TempKey with the public key stored in slot keyID.
func (c *Client) VerifyStoredWithTempKey(ctx context.Context, signature []byte, keyID uint16) (bool, error) {
	_, err := c.Verify(ctx, VerifyRequest{
		Mode:      protocol.VerifyModeStored | protocol.VerifyModeSourceTempKey,
		KeyID:     keyID,
		Signature: signature,
	})
	return verifyResult(err)
}

// VerifyValidate validates the public key stored in slot keyID. The
// signature covers the key digest in TempKey and otherData.
func (c *Client) VerifyValidate(ctx context.Context, keyID uint16, signature, otherData []byte) (bool, error) {
	_, err := c.Verify(ctx, VerifyRequest{
		Mode:      protocol.VerifyModeValidate,
		KeyID:     keyID,
		Signature: signature,
		OtherData: otherData,
	})
	return verifyResult(err)
}

// VerifyInvalidate invalidates the public key stored in slot keyID.
func (c *Client) VerifyInvalidate(ctx context.Context, keyID uint16, signature, otherData []byte) (bool, error) {
	_, err := c.Verify(ctx, VerifyRequest{
		Mode:      protocol.VerifyModeInvalidate,
		KeyID:     keyID,
		Signature: signature,
		OtherData: otherData,
	})
	return verifyResult(err)
}

// verifyMessage loads message into the buffer the variant verifies from
// and runs req against it.
func (c *Client) verifyMessage(ctx context.Context, op string, message []byte, req VerifyRequest) (bool, error) {
	start := time.Now()

	if len(message) != protocol.DigestSize {
		return false, fmt.Errorf("%w: message must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.DigestSize, len(message))
	}
	// Reject bad verify inputs before the message load touches the device.
	if _, err := protocol.NewVerifyCmd(req.Mode, req.KeyID, req.Signature, req.PublicKey, req.OtherData); err != nil {
		return false, err
	}
	if err := c.checkCapacity(protocol.OpVerify, req.Mode); err != nil {
		return false, err
	}

	target, source := c.messageTarget()
	req.Mode |= source
	c.reportStep(op, StateIdle, false, start)

	if err := c.NonceLoad(ctx, target, message); err != nil {
		return false, fmt.Errorf("load message: %w", err)
	}
	c.reportStep(op, StateMessageLoaded, false, start)

	_, err := c.Verify(ctx, req)
	verified, err := verifyResult(err)
	if err != nil {
		return false, err
	}
	c.reportStep(op, StateCommandExecuted, verified, start)
	c.reportStep(op, StateCompared, verified, start)

	return verified, nil
}

// VerifyExternMAC verifies a signature with an external public key and
// authenticates the result with a MAC keyed by the IO protection key.
// numIn is the 32-byte system nonce. ATECC608 only.
func (c *Client) VerifyExternMAC(ctx context.Context, message, signature, publicKey, numIn, ioKey []byte) (bool, error) {
	return c.verifyMAC(ctx, "verify-extern-mac", message, numIn, ioKey, VerifyRequest{
		Mode:      protocol.VerifyModeExternal,
		KeyID:     protocol.VerifyKeyP256,
		Signature: signature,
		PublicKey: publicKey,
	})
}

// VerifyStoredMAC verifies a signature with the public key stored in
// slot keyID and authenticates the result with a MAC. ATECC608 only.
func (c *Client) VerifyStoredMAC(ctx context.Context, message, signature []byte, keyID uint16, numIn, ioKey []byte) (bool, error) {
	return c.verifyMAC(ctx, "verify-stored-mac", message, numIn, ioKey, VerifyRequest{
		Mode:      protocol.VerifyModeStored,
		KeyID:     keyID,
		Signature: signature,
	})
}

// verifyMAC drives Idle -> MessageLoaded -> CommandExecuted -> Compared.
func (c *Client) verifyMAC(ctx context.Context, op string, message, numIn, ioKey []byte, req VerifyRequest) (bool, error) {
	start := time.Now()

	if !c.config.Variant.SupportsVerifyMAC() {
		return false, &UnsupportedError{Operation: op, Variant: c.config.Variant}
	}
	if len(message) != protocol.DigestSize {
		return false, fmt.Errorf("%w: message must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.DigestSize, len(message))
	}
	if len(numIn) != protocol.NonceNumInPassthroughSize {
		return false, fmt.Errorf("%w: system nonce must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.NonceNumInPassthroughSize, len(numIn))
	}
	if len(ioKey) != protocol.KeySize {
		return false, fmt.Errorf("%w: io key must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.KeySize, len(ioKey))
	}

	req.Mode |= protocol.VerifyModeSourceMsgDigBuf | protocol.VerifyModeMACFlag
	if _, err := protocol.NewVerifyCmd(req.Mode, req.KeyID, req.Signature, req.PublicKey, req.OtherData); err != nil {
		return false, err
	}
	if err := c.checkCapacity(protocol.OpVerify, req.Mode); err != nil {
		return false, err
	}
	c.reportStep(op, StateIdle, false, start)

	msgDigBuf := make([]byte, 0, protocol.MsgDigBufSize)
	msgDigBuf = append(msgDigBuf, message...)
	msgDigBuf = append(msgDigBuf, numIn...)
	defer host.Zero(msgDigBuf)

	if err := c.NonceLoad(ctx, protocol.NonceModeTargetMsgDigBuf, msgDigBuf); err != nil {
		return false, fmt.Errorf("load message: %w", err)
	}
	c.reportStep(op, StateMessageLoaded, false, start)

	hostMAC, err := host.VerifyMAC(host.VerifyMACParams{
		Mode:      req.Mode,
		KeyID:     req.KeyID,
		Signature: req.Signature,
		MsgDigBuf: msgDigBuf,
		IOKey:     ioKey,
	})
	defer host.Zero(hostMAC[:])
	if err != nil {
		return false, fmt.Errorf("compute MAC: %w", err)
	}

	deviceMAC, err := c.Verify(ctx, req)
	if ok, err := verifyResult(err); !ok {
		if err != nil {
			return false, err
		}
		c.reportStep(op, StateCompared, false, start)
		return false, nil
	}
	c.reportStep(op, StateCommandExecuted, false, start)

	verified := host.CompareMAC(hostMAC[:], deviceMAC)
	c.reportStep(op, StateCompared, verified, start)
	c.logDebug("verify complete", "op", op, "verified", verified)

	return verified, nil
}
