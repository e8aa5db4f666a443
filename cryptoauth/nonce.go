package cryptoauth

import (
	"context"
	"fmt"

	"github.com/moffa90/go-cryptoauth/host"
	"github.com/moffa90/go-cryptoauth/protocol"
)

// Nonce runs a Nonce command. In the random modes it returns the 32-byte
// device random number; in pass-through mode it returns nil.
func (c *Client) Nonce(ctx context.Context, mode byte, param2 uint16, numIn []byte) ([]byte, error) {
	if mode&protocol.NonceModeTargetMask == protocol.NonceModeTargetMsgDigBuf && !c.config.Variant.HasMessageDigestBuffer() {
		return nil, &UnsupportedError{Operation: "nonce", Variant: c.config.Variant}
	}

	pkt, err := protocol.NewNonceCmd(mode, param2, numIn)
	if err != nil {
		return nil, err
	}

	data, err := c.execute(ctx, "nonce", pkt)
	if err != nil {
		return nil, err
	}

	if mode&protocol.NonceModeMask == protocol.NonceModePassthrough {
		return nil, nil
	}
	return protocol.ParseDataResponse(data, protocol.RandomNumSize)
}

// NonceLoad loads a 32 or 64 byte value into a device buffer in
// pass-through mode. target is one of the NonceModeTarget constants.
func (c *Client) NonceLoad(ctx context.Context, target byte, numIn []byte) error {
	if target&^protocol.NonceModeTargetMask != 0 {
		return fmt.Errorf("%w: invalid nonce target 0x%02X", protocol.ErrBadParameter, target)
	}
	_, err := c.Nonce(ctx, protocol.NonceModePassthrough|target, 0, numIn)
	return err
}

// GenerateNonce runs a seed-update Nonce with the 20-byte host number and
// returns the matching host TempKey together with the device random
// number.
func (c *Client) GenerateNonce(ctx context.Context, numIn []byte) (*host.TempKey, []byte, error) {
	randOut, err := c.Nonce(ctx, protocol.NonceModeSeedUpdate, 0, numIn)
	if err != nil {
		return nil, nil, err
	}

	tk, err := host.Nonce(host.NonceParams{
		Mode:    protocol.NonceModeSeedUpdate,
		NumIn:   numIn,
		RandOut: randOut,
	})
	if err != nil {
		return nil, nil, err
	}
	return tk, randOut, nil
}

// messageTarget resolves where a verify message is loaded and which
// source flag the Verify command must carry.
func (c *Client) messageTarget() (nonceTarget, verifySource byte) {
	if c.config.Variant.HasMessageDigestBuffer() {
		return protocol.NonceModeTargetMsgDigBuf, protocol.VerifyModeSourceMsgDigBuf
	}
	return protocol.NonceModeTargetTempKey, protocol.VerifyModeSourceTempKey
}
