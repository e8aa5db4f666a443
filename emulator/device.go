package emulator

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/moffa90/go-cryptoauth/host"
	"github.com/moffa90/go-cryptoauth/protocol"
)

// Device is a software secure element.
type Device struct {
	mu sync.Mutex

	variant protocol.Variant
	config  [protocol.ConfigZoneSize]byte
	ioKey   [protocol.KeySize]byte
	random  io.Reader

	slots       map[uint16][]byte
	authorities map[uint16][]byte
	invalid     map[uint16]bool

	tempKey      host.TempKey
	msgDigBuf    [protocol.MsgDigBufSize]byte
	msgDigBufLen int

	bootDigest    []byte
	bootSignature []byte

	history []byte
}

// Option configures a Device.
type Option func(*Device)

// WithVariant sets the device variant. The default is ATECC608.
func WithVariant(v protocol.Variant) Option {
	return func(d *Device) {
		d.variant = v
	}
}

// WithIOKey sets the IO protection key.
func WithIOKey(key []byte) Option {
	return func(d *Device) {
		copy(d.ioKey[:], key)
	}
}

// WithSecureBootConfig writes the SecureBootConfig word. Bits 8-11 select
// the slot holding the boot public key.
func WithSecureBootConfig(cfg uint16) Option {
	return func(d *Device) {
		binary.LittleEndian.PutUint16(d.config[protocol.SecureBootConfigOffset:], cfg)
	}
}

// WithSlotKey stores a 64-byte X || Y public key in slot.
func WithSlotKey(slot uint16, publicKey []byte) Option {
	return func(d *Device) {
		d.slots[slot] = append([]byte(nil), publicKey...)
	}
}

// WithSlotAuthority registers the key that authorises Validate and
// Invalidate of slot. A slot with an authority starts out invalid.
func WithSlotAuthority(slot uint16, publicKey []byte) Option {
	return func(d *Device) {
		d.authorities[slot] = append([]byte(nil), publicKey...)
		d.invalid[slot] = true
	}
}

// WithRandom sets the source of device random numbers.
func WithRandom(r io.Reader) Option {
	return func(d *Device) {
		d.random = r
	}
}

// New creates a Device.
func New(opts ...Option) *Device {
	d := &Device{
		variant:     protocol.ATECC608,
		random:      rand.Reader,
		slots:       make(map[uint16][]byte),
		authorities: make(map[uint16][]byte),
		invalid:     make(map[uint16]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs one framed command and returns the framed response.
// Device faults are reported in the response status; the error is
// non-nil only when ctx is done.
func (d *Device) Execute(ctx context.Context, cmd []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pkt, err := protocol.DecodeCommand(cmd)
	if err != nil {
		return protocol.EncodeStatus(protocol.StatusCRCError), nil
	}
	d.history = append(d.history, pkt.Opcode)

	switch pkt.Opcode {
	case protocol.OpNonce:
		return d.handleNonce(pkt), nil
	case protocol.OpRead:
		return d.handleRead(pkt), nil
	case protocol.OpVerify:
		return d.handleVerify(pkt), nil
	case protocol.OpSecureBoot:
		return d.handleSecureBoot(pkt), nil
	default:
		return protocol.EncodeStatus(protocol.StatusParseError), nil
	}
}

// History returns the opcodes executed so far, in order.
func (d *Device) History() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.history...)
}

// SlotValid reports whether the key in slot may be used for Stored verify.
func (d *Device) SlotValid(slot uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.invalid[slot]
}

// BootDigest returns the digest stored by the last successful full
// secure boot, or nil.
func (d *Device) BootDigest() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.bootDigest...)
}

func (d *Device) secureBootConfig() uint16 {
	return binary.LittleEndian.Uint16(d.config[protocol.SecureBootConfigOffset:])
}
