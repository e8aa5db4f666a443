package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/moffa90/go-cryptoauth/cryptoauth"
	"github.com/moffa90/go-cryptoauth/emulator"
	"github.com/moffa90/go-cryptoauth/profile"
	"github.com/moffa90/go-cryptoauth/protocol"
)

var errNotVerified = errors.New("verification failed")

// simulator is an emulated device plus a client bound to it.
type simulator struct {
	profile *profile.Profile
	device  *emulator.Device
	client  *cryptoauth.Client
	ioKey   []byte
	signer  *ecdsa.PrivateKey
	log     *zap.SugaredLogger
}

// newSimulator builds the device described by the --profile flag. Keys
// the profile leaves out are generated for the session.
func newSimulator(cmd *cli.Command) (*simulator, error) {
	p := profile.Default()
	if path := cmd.String("profile"); path != "" {
		var err error
		if p, err = profile.Load(path); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	emuOpts, err := p.EmulatorOptions()
	if err != nil {
		return nil, err
	}
	clientOpts, err := p.ClientOptions()
	if err != nil {
		return nil, err
	}

	ioKey, err := p.IOKeyBytes()
	if err != nil {
		return nil, err
	}
	if ioKey == nil {
		ioKey = make([]byte, protocol.KeySize)
		if _, err := rand.Read(ioKey); err != nil {
			return nil, err
		}
		emuOpts = append(emuOpts, emulator.WithIOKey(ioKey))
	}

	signer, err := p.SigningKey()
	if err != nil {
		return nil, err
	}
	if signer == nil {
		if signer, err = emulator.GenerateKey(); err != nil {
			return nil, err
		}
		emuOpts = append(emuOpts, emulator.WithSlotKey(p.SecureBoot.KeySlot, emulator.PublicKeyBytes(&signer.PublicKey)))
	}

	clientOpts = append(clientOpts,
		cryptoauth.WithLogger(zapLogger{log: logger}),
		cryptoauth.WithStepCallback(func(s cryptoauth.Step) {
			logger.Debugw("step", "operation", s.Operation, "state", s.State.String(),
				"verified", s.Verified, "elapsed", s.ElapsedTime)
		}),
	)

	device := emulator.New(emuOpts...)
	return &simulator{
		profile: p,
		device:  device,
		client:  cryptoauth.New(device, clientOpts...),
		ioKey:   ioKey,
		signer:  signer,
		log:     logger,
	}, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Show the emulated device configuration",
		Action: runInfoCommand,
	}
}

func runInfoCommand(ctx context.Context, cmd *cli.Command) error {
	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer sim.log.Sync()

	cfg, err := sim.client.SecureBootConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read SecureBootConfig: %w", err)
	}

	w := writer(cmd)
	fmt.Fprintf(w, "Variant:          %s\n", sim.client.Variant())
	fmt.Fprintf(w, "Max packet size:  %d\n", sim.client.MaxPacketSize())
	fmt.Fprintf(w, "SecureBootConfig: 0x%04X (mode %s, key slot %d)\n",
		cfg, sim.profile.SecureBoot.Mode, cfg>>8&0x0F)
	fmt.Fprintf(w, "Boot public key:  %s\n", hex.EncodeToString(emulator.PublicKeyBytes(&sim.signer.PublicKey)))
	return nil
}

func secureBootCommand() *cli.Command {
	return &cli.Command{
		Name:  "secureboot",
		Usage: "Validate a boot image digest with SecureBoot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "digest",
				Usage: "Hex SHA-256 digest of the boot image",
			},
			&cli.StringFlag{
				Name:  "image",
				Usage: "Path to a boot image to hash",
			},
			&cli.StringFlag{
				Name:  "signature",
				Usage: "Hex R || S signature; signed with the profile key when empty",
			},
			&cli.BoolFlag{
				Name:  "mac",
				Usage: "Encrypt the digest and check the validating MAC",
			},
		},
		Action: runSecureBootCommand,
	}
}

func runSecureBootCommand(ctx context.Context, cmd *cli.Command) error {
	digest, err := messageDigest(cmd.String("digest"), cmd.String("image"))
	if err != nil {
		return err
	}

	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer sim.log.Sync()

	signature, err := signatureOrSign(cmd.String("signature"), sim.signer, digest)
	if err != nil {
		return err
	}

	var verified bool
	if cmd.Bool("mac") {
		numIn := make([]byte, protocol.NonceNumInSize)
		if _, err := rand.Read(numIn); err != nil {
			return err
		}
		verified, err = sim.client.SecureBootMAC(ctx, protocol.SecureBootModeFull, digest, signature, numIn, sim.ioKey)
	} else {
		_, err = sim.client.SecureBoot(ctx, protocol.SecureBootModeFull, 0, digest, signature)
		verified, err = verifiedOrError(err)
	}
	if err != nil {
		return fmt.Errorf("secureboot failed: %w", err)
	}

	return report(writer(cmd), "secureboot", digest, verified)
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify an ECDSA signature over a message digest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "message",
				Usage: "Hex 32-byte message digest",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to a file to hash as the message",
			},
			&cli.StringFlag{
				Name:  "signature",
				Usage: "Hex R || S signature; signed locally when empty",
			},
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Hex X || Y public key for External mode",
			},
			&cli.IntFlag{
				Name:  "slot",
				Usage: "Key slot for Stored mode",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "mac",
				Usage: "Authenticate the result with a MAC",
			},
		},
		Action: runVerifyCommand,
	}
}

func runVerifyCommand(ctx context.Context, cmd *cli.Command) error {
	message, err := messageDigest(cmd.String("message"), cmd.String("file"))
	if err != nil {
		return err
	}

	sim, err := newSimulator(cmd)
	if err != nil {
		return err
	}
	defer sim.log.Sync()

	slot := cmd.Int("slot")
	stored := slot >= 0

	var signer *ecdsa.PrivateKey
	var publicKey []byte
	switch {
	case stored && cmd.String("signature") == "":
		if signer, err = sim.profile.SlotPrivateKey(uint16(slot)); err != nil {
			return err
		}
	case !stored && cmd.String("public-key") != "":
		if publicKey, err = decodeFlag("public-key", cmd.String("public-key"), protocol.PublicKeySize); err != nil {
			return err
		}
	case !stored:
		if cmd.String("signature") != "" {
			return fmt.Errorf("--public-key is required with --signature in External mode")
		}
		if signer, err = emulator.GenerateKey(); err != nil {
			return err
		}
		publicKey = emulator.PublicKeyBytes(&signer.PublicKey)
	}

	signature, err := signatureOrSign(cmd.String("signature"), signer, message)
	if err != nil {
		return err
	}

	var verified bool
	if cmd.Bool("mac") {
		numIn := make([]byte, protocol.NonceNumInPassthroughSize)
		if _, err := rand.Read(numIn); err != nil {
			return err
		}
		if stored {
			verified, err = sim.client.VerifyStoredMAC(ctx, message, signature, uint16(slot), numIn, sim.ioKey)
		} else {
			verified, err = sim.client.VerifyExternMAC(ctx, message, signature, publicKey, numIn, sim.ioKey)
		}
	} else if stored {
		verified, err = sim.client.VerifyStored(ctx, message, signature, uint16(slot))
	} else {
		verified, err = sim.client.VerifyExtern(ctx, message, signature, publicKey)
	}
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	return report(writer(cmd), "verify", message, verified)
}

// messageDigest returns the hex digest, or the SHA-256 of path.
func messageDigest(digestHex, path string) ([]byte, error) {
	if digestHex == "" && path == "" {
		return nil, fmt.Errorf("either a digest or a file must be provided")
	}
	if digestHex != "" && path != "" {
		return nil, fmt.Errorf("only one of a digest or a file should be provided")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sum := sha256.Sum256(data)
		return sum[:], nil
	}
	return decodeFlag("digest", digestHex, protocol.DigestSize)
}

func signatureOrSign(sigHex string, signer *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	if sigHex != "" {
		return decodeFlag("signature", sigHex, protocol.SignatureSize)
	}
	if signer == nil {
		return nil, fmt.Errorf("no signature given and no signing key available")
	}
	return emulator.Sign(signer, digest)
}

func decodeFlag(name, value string, size int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("--%s must be %d bytes, got %d", name, size, len(b))
	}
	return b, nil
}

// verifiedOrError maps a device miscompare to an unverified result.
func verifiedOrError(err error) (bool, error) {
	if errors.Is(err, protocol.ErrVerifyMismatch) {
		return false, nil
	}
	return err == nil, err
}

func report(w io.Writer, op string, digest []byte, verified bool) error {
	fmt.Fprintf(w, "%s %s: verified=%t\n", op, hex.EncodeToString(digest), verified)
	if !verified {
		return errNotVerified
	}
	return nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
