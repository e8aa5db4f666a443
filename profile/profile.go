// Package profile loads device profiles: the variant, transport limits,
// IO protection key and key material that the simulator and examples
// need to drive a device.
package profile

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-cryptoauth/cryptoauth"
	"github.com/moffa90/go-cryptoauth/emulator"
	"github.com/moffa90/go-cryptoauth/protocol"
)

// Profile describes one device.
type Profile struct {
	// Variant is the device family, e.g. "ATECC608"
	Variant string `toml:"variant" yaml:"variant" validate:"required,variant"`

	// MaxPacketSize is the largest command the transport can carry
	MaxPacketSize int `toml:"max_packet_size" yaml:"max_packet_size" validate:"min=7,max=255"`

	// IOKey is the hex IO protection key shared with the device
	IOKey string `toml:"io_key" yaml:"io_key" validate:"omitempty,hexbytes=32"`

	SecureBoot SecureBoot `toml:"secure_boot" yaml:"secure_boot"`

	Slots []Slot `toml:"slots" yaml:"slots" validate:"dive"`
}

// SecureBoot holds the SecureBootConfig settings and the boot image
// signing key.
type SecureBoot struct {
	// Mode is one of disabled, full_both, full_sig, full_dig
	Mode string `toml:"mode" yaml:"mode" validate:"oneof=disabled full_both full_sig full_dig"`

	// KeySlot holds the boot public key
	KeySlot uint16 `toml:"key_slot" yaml:"key_slot" validate:"lte=15"`

	// SigningKey is the hex P-256 private key that signs boot images
	SigningKey string `toml:"signing_key" yaml:"signing_key" validate:"omitempty,hexbytes=32"`
}

// Slot is a key slot holding a P-256 public key.
type Slot struct {
	Slot uint16 `toml:"slot" yaml:"slot" validate:"lte=15"`

	// PublicKey is the hex X || Y key; derived from PrivateKey when empty
	PublicKey string `toml:"public_key" yaml:"public_key" validate:"omitempty,hexbytes=64"`

	// PrivateKey is the hex signing key, used by tooling only
	PrivateKey string `toml:"private_key" yaml:"private_key" validate:"omitempty,hexbytes=32"`

	// Authority is the hex public key allowed to validate this slot
	Authority string `toml:"authority" yaml:"authority" validate:"omitempty,hexbytes=64"`
}

// validate knows two profile rules: "variant" accepts any name
// protocol.ParseVariant does, and "hexbytes=N" accepts hex of exactly N
// bytes with an optional 0x prefix.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("variant", func(fl validator.FieldLevel) bool {
		_, err := protocol.ParseVariant(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hexbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		b, err := hex.DecodeString(trimHexPrefix(fl.Field().String()))
		return err == nil && len(b) == n
	})
	return v
}

var secureBootModes = map[string]uint16{
	"disabled":  protocol.SecureBootConfigModeDisabled,
	"full_both": protocol.SecureBootConfigModeFullBoth,
	"full_sig":  protocol.SecureBootConfigModeFullSig,
	"full_dig":  protocol.SecureBootConfigModeFullDig,
}

// Default returns a profile for an ATECC608 on the default transport.
func Default() *Profile {
	return &Profile{
		Variant:       protocol.ATECC608.String(),
		MaxPacketSize: protocol.DefaultMaxPacketSize,
		SecureBoot: SecureBoot{
			Mode: "full_both",
		},
	}
}

// Load reads a profile from a .toml, .yaml or .yml file. Unset fields
// keep their Default values.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return Parse(data, format)
}

// Parse decodes a profile in the given format ("toml", "yaml" or "yml")
// and validates it.
func Parse(data []byte, format string) (*Profile, error) {
	p := Default()

	switch strings.ToLower(format) {
	case "toml":
		if _, err := toml.Decode(string(data), p); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return p, nil
}

// Validate checks field formats and cross-field rules.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	seen := make(map[uint16]bool)
	for _, s := range p.Slots {
		if seen[s.Slot] {
			return fmt.Errorf("slot %d listed twice", s.Slot)
		}
		seen[s.Slot] = true
		if s.PublicKey == "" && s.PrivateKey == "" {
			return fmt.Errorf("slot %d needs a public_key or private_key", s.Slot)
		}
	}

	if p.SecureBoot.SigningKey != "" && seen[p.SecureBoot.KeySlot] {
		return fmt.Errorf("secure boot key slot %d is also listed in slots", p.SecureBoot.KeySlot)
	}
	return nil
}

// DeviceVariant returns the parsed variant.
func (p *Profile) DeviceVariant() (protocol.Variant, error) {
	return protocol.ParseVariant(p.Variant)
}

// IOKeyBytes returns the IO protection key, or nil when none is set.
func (p *Profile) IOKeyBytes() ([]byte, error) {
	if p.IOKey == "" {
		return nil, nil
	}
	return decodeHex("io_key", p.IOKey)
}

// SecureBootConfig returns the SecureBootConfig word the profile
// describes: the mode in bits 0-1 and the key slot in bits 8-11.
func (p *Profile) SecureBootConfig() uint16 {
	return secureBootModes[p.SecureBoot.Mode] | p.SecureBoot.KeySlot<<8
}

// SigningKey returns the boot image signing key, or nil when none is set.
func (p *Profile) SigningKey() (*ecdsa.PrivateKey, error) {
	if p.SecureBoot.SigningKey == "" {
		return nil, nil
	}
	raw, err := decodeHex("signing_key", p.SecureBoot.SigningKey)
	if err != nil {
		return nil, err
	}
	return emulator.PrivateKeyFromBytes(raw)
}

// SlotPrivateKey returns the private key configured for slot.
func (p *Profile) SlotPrivateKey(slot uint16) (*ecdsa.PrivateKey, error) {
	for _, s := range p.Slots {
		if s.Slot != slot {
			continue
		}
		if s.PrivateKey == "" {
			return nil, fmt.Errorf("slot %d has no private key", slot)
		}
		raw, err := decodeHex("private_key", s.PrivateKey)
		if err != nil {
			return nil, err
		}
		return emulator.PrivateKeyFromBytes(raw)
	}
	return nil, fmt.Errorf("slot %d not in profile", slot)
}

// SlotPublicKey returns the 64-byte public key of slot.
func (p *Profile) SlotPublicKey(slot uint16) ([]byte, error) {
	for _, s := range p.Slots {
		if s.Slot != slot {
			continue
		}
		if s.PublicKey != "" {
			return decodeHex("public_key", s.PublicKey)
		}
		priv, err := p.SlotPrivateKey(slot)
		if err != nil {
			return nil, err
		}
		return emulator.PublicKeyBytes(&priv.PublicKey), nil
	}
	return nil, fmt.Errorf("slot %d not in profile", slot)
}

// ClientOptions returns the cryptoauth options the profile implies.
func (p *Profile) ClientOptions() ([]cryptoauth.Option, error) {
	variant, err := p.DeviceVariant()
	if err != nil {
		return nil, err
	}
	return []cryptoauth.Option{
		cryptoauth.WithVariant(variant),
		cryptoauth.WithMaxPacketSize(p.MaxPacketSize),
	}, nil
}

// EmulatorOptions returns options that configure an emulated device to
// match the profile.
func (p *Profile) EmulatorOptions() ([]emulator.Option, error) {
	variant, err := p.DeviceVariant()
	if err != nil {
		return nil, err
	}

	opts := []emulator.Option{
		emulator.WithVariant(variant),
		emulator.WithSecureBootConfig(p.SecureBootConfig()),
	}

	ioKey, err := p.IOKeyBytes()
	if err != nil {
		return nil, err
	}
	if ioKey != nil {
		opts = append(opts, emulator.WithIOKey(ioKey))
	}

	signer, err := p.SigningKey()
	if err != nil {
		return nil, err
	}
	if signer != nil {
		opts = append(opts, emulator.WithSlotKey(p.SecureBoot.KeySlot, emulator.PublicKeyBytes(&signer.PublicKey)))
	}

	for _, s := range p.Slots {
		pub, err := p.SlotPublicKey(s.Slot)
		if err != nil {
			return nil, err
		}
		opts = append(opts, emulator.WithSlotKey(s.Slot, pub))

		if s.Authority != "" {
			auth, err := decodeHex("authority", s.Authority)
			if err != nil {
				return nil, err
			}
			opts = append(opts, emulator.WithSlotAuthority(s.Slot, auth))
		}
	}

	return opts, nil
}

// ErrInvalidHex is returned when a key field is not valid hex.
var ErrInvalidHex = errors.New("invalid hex")

func decodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", field, ErrInvalidHex, err)
	}
	return b, nil
}

func trimHexPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}
