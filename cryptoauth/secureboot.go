package cryptoauth

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-cryptoauth/host"
	"github.com/moffa90/go-cryptoauth/protocol"
)

// SecureBoot runs a SecureBoot command.
//
// digest is required. signature is required in the Full and FullCopy
// modes and ignored in FullStore mode. When the response carries a
// validating MAC it is returned; otherwise the returned MAC is nil.
func (c *Client) SecureBoot(ctx context.Context, mode byte, param2 uint16, digest, signature []byte) ([]byte, error) {
	if !c.config.Variant.SupportsSecureBoot() {
		return nil, &UnsupportedError{Operation: "secureboot", Variant: c.config.Variant}
	}
	if digest == nil {
		return nil, fmt.Errorf("%w: digest is required", protocol.ErrBadParameter)
	}

	pkt, err := protocol.NewSecureBootCmd(mode, param2, digest, signature)
	if err != nil {
		return nil, err
	}

	data, err := c.execute(ctx, "secureboot", pkt)
	if err != nil {
		return nil, err
	}

	return protocol.ParseMACResponse(data), nil
}

// SecureBootMAC runs SecureBoot with an encrypted digest and checks the
// MAC the device returns. The transaction is:
//  1. Seed-update Nonce with numIn to establish TempKey
//  2. Encrypt the digest with the hashed IO key
//  3. Prepare the expected-MAC inputs
//  4. SecureBoot with the enc/MAC flag
//  5. Read SecureBootConfig
//  6. Compute the expected MAC and compare it in constant time
//
// A device miscompare in step 4 returns (false, nil). Any other failure
// aborts with its error.
//
// Example:
//
//	verified, err := client.SecureBootMAC(ctx, protocol.SecureBootModeFull,
//	    digest, signature, numIn, ioKey)
func (c *Client) SecureBootMAC(ctx context.Context, mode byte, digest, signature, numIn, ioKey []byte) (bool, error) {
	const op = "secureboot-mac"
	start := time.Now()

	if !c.config.Variant.SupportsSecureBoot() {
		return false, &UnsupportedError{Operation: op, Variant: c.config.Variant}
	}
	if len(digest) != protocol.DigestSize {
		return false, fmt.Errorf("%w: digest must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.DigestSize, len(digest))
	}
	if len(numIn) != protocol.NonceNumInSize {
		return false, fmt.Errorf("%w: host nonce must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.NonceNumInSize, len(numIn))
	}
	if len(ioKey) != protocol.KeySize {
		return false, fmt.Errorf("%w: io key must be exactly %d bytes, got %d",
			protocol.ErrBadParameter, protocol.KeySize, len(ioKey))
	}
	// Reject mode and signature mismatches before the nonce reseeds TempKey.
	if _, err := protocol.NewSecureBootCmd(mode|protocol.SecureBootModeEncMACFlag, 0, digest, signature); err != nil {
		return false, err
	}
	if err := c.checkCapacity(protocol.OpSecureBoot, mode); err != nil {
		return false, err
	}
	c.reportStep(op, StateIdle, false, start)

	// Step 1: TempKey
	tempKey, _, err := c.GenerateNonce(ctx, numIn)
	if err != nil {
		return false, fmt.Errorf("generate nonce: %w", err)
	}
	defer tempKey.Consume()

	// Step 2: encrypt digest
	hashedKey, digestEnc, err := host.EncryptDigest(host.SecureBootEncParams{
		Digest:  digest,
		IOKey:   ioKey,
		TempKey: tempKey,
	})
	defer host.Zero(hashedKey[:])
	defer host.Zero(digestEnc[:])
	if err != nil {
		return false, fmt.Errorf("encrypt digest: %w", err)
	}

	// Step 3: the configuration word is filled in after step 5
	macParams := host.SecureBootMACParams{
		Mode:      mode | protocol.SecureBootModeEncMACFlag,
		Param2:    0,
		HashedKey: hashedKey,
		Digest:    digest,
		Signature: signature,
	}
	defer host.Zero(macParams.HashedKey[:])
	c.reportStep(op, StateMessageLoaded, false, start)

	// Step 4
	deviceMAC, err := c.SecureBoot(ctx, macParams.Mode, macParams.Param2, digestEnc[:], signature)
	if ok, err := verifyResult(err); !ok {
		if err != nil {
			return false, fmt.Errorf("secureboot: %w", err)
		}
		c.logInfo("secureboot miscompare", "mode", fmt.Sprintf("0x%02X", mode))
		c.reportStep(op, StateCompared, false, start)
		return false, nil
	}
	c.reportStep(op, StateCommandExecuted, false, start)

	// Step 5
	cfg, err := c.SecureBootConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("read SecureBootConfig: %w", err)
	}
	macParams.SecureBootConfig = cfg

	// Step 6
	hostMAC, err := host.SecureBootMAC(macParams)
	defer host.Zero(hostMAC[:])
	if err != nil {
		return false, fmt.Errorf("compute MAC: %w", err)
	}

	verified := host.CompareMAC(hostMAC[:], deviceMAC)
	c.reportStep(op, StateCompared, verified, start)
	c.logInfo("secureboot complete",
		"mode", fmt.Sprintf("0x%02X", mode),
		"verified", verified,
		"elapsed", time.Since(start).String(),
	)

	return verified, nil
}
