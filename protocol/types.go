package protocol

import (
	"fmt"
	"strings"
)

// Zone identifies a device memory zone.
type Zone uint8

const (
	// ZoneConfig is the configuration zone
	ZoneConfig Zone = 0x00

	// ZoneOTP is the one-time-programmable zone
	ZoneOTP Zone = 0x01

	// ZoneData is the data (slot) zone
	ZoneData Zone = 0x02
)

func (z Zone) String() string {
	switch z {
	case ZoneConfig:
		return "config"
	case ZoneOTP:
		return "otp"
	case ZoneData:
		return "data"
	default:
		return fmt.Sprintf("zone(0x%02X)", uint8(z))
	}
}

// Variant identifies the secure element family. It is the capability
// descriptor used to decide which commands and buffers a device offers.
type Variant uint8

const (
	// VariantUnknown is a device whose family was not configured
	VariantUnknown Variant = iota

	// ATECC508A has no message digest buffer and no SecureBoot command
	ATECC508A

	// ATECC608 covers the ATECC608A and ATECC608B
	ATECC608
)

func (v Variant) String() string {
	switch v {
	case ATECC508A:
		return "ATECC508A"
	case ATECC608:
		return "ATECC608"
	default:
		return "unknown"
	}
}

// HasMessageDigestBuffer reports whether messages are loaded into the
// message digest buffer rather than TempKey.
func (v Variant) HasMessageDigestBuffer() bool {
	return v == ATECC608
}

// SupportsVerifyMAC reports whether Verify can return a validating MAC.
func (v Variant) SupportsVerifyMAC() bool {
	return v == ATECC608
}

// SupportsSecureBoot reports whether the SecureBoot command exists.
func (v Variant) SupportsSecureBoot() bool {
	return v == ATECC608
}

// ParseVariant parses a variant name such as "ATECC608" or "atecc508a".
// ATECC608A and ATECC608B both map to ATECC608.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATECC508A", "ATECC508":
		return ATECC508A, nil
	case "ATECC608", "ATECC608A", "ATECC608B":
		return ATECC608, nil
	default:
		return VariantUnknown, fmt.Errorf("unknown device variant %q", s)
	}
}

// Packet is a command packet before framing.
type Packet struct {
	// Opcode is the command opcode
	Opcode byte

	// Param1 is the mode byte
	Param1 byte

	// Param2 is the 16-bit parameter, little-endian on the wire
	Param2 uint16

	// Data is the command payload
	Data []byte
}
