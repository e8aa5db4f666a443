package cryptoauth

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// ConfigReader reads bytes from a device zone.
type ConfigReader interface {
	ReadBytesZone(ctx context.Context, zone protocol.Zone, slot uint16, offset, length int) ([]byte, error)
}

// zoneSize returns the readable size of the config and OTP zones, or 0
// when the size depends on the slot.
func zoneSize(zone protocol.Zone) int {
	switch zone {
	case protocol.ZoneConfig:
		return protocol.ConfigZoneSize
	case protocol.ZoneOTP:
		return 64
	}
	return 0
}

// ReadBytesZone reads length bytes starting at offset using 4-byte word
// reads.
func (c *Client) ReadBytesZone(ctx context.Context, zone protocol.Zone, slot uint16, offset, length int) ([]byte, error) {
	if offset < 0 || length <= 0 {
		return nil, fmt.Errorf("%w: offset %d length %d", protocol.ErrBadParameter, offset, length)
	}
	if size := zoneSize(zone); size > 0 && offset+length > size {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d exceeds %s zone",
			protocol.ErrBadParameter, length, offset, zone)
	}

	out := make([]byte, 0, length)
	first := offset / protocol.WordSize
	last := (offset + length - 1) / protocol.WordSize

	for w := first; w <= last; w++ {
		block := w * protocol.WordSize / protocol.BlockSize
		word := w % (protocol.BlockSize / protocol.WordSize)
		if block > 0xFF {
			return nil, fmt.Errorf("%w: offset %d out of range", protocol.ErrBadParameter, offset+length)
		}

		addr, err := protocol.Address(zone, slot, uint8(block), uint8(word))
		if err != nil {
			return nil, err
		}

		pkt, err := protocol.NewReadCmd(zone, addr, false)
		if err != nil {
			return nil, err
		}

		data, err := c.execute(ctx, "read", pkt)
		if err != nil {
			return nil, err
		}
		data, err = protocol.ParseDataResponse(data, protocol.WordSize)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		// Trim the partial words at either end.
		lo, hi := 0, protocol.WordSize
		if w == first {
			lo = offset % protocol.WordSize
		}
		if w == last {
			hi = (offset+length-1)%protocol.WordSize + 1
		}
		out = append(out, data[lo:hi]...)
	}

	return out, nil
}

// SecureBootConfig reads the SecureBootConfig field of the configuration
// zone.
func (c *Client) SecureBootConfig(ctx context.Context) (uint16, error) {
	reader := c.config.ConfigReader
	if reader == nil {
		reader = c
	}

	buf, err := reader.ReadBytesZone(ctx, protocol.ZoneConfig, 0,
		protocol.SecureBootConfigOffset, protocol.SecureBootConfigSize)
	if err != nil {
		return 0, err
	}
	if len(buf) != protocol.SecureBootConfigSize {
		return 0, fmt.Errorf("%w: SecureBootConfig read returned %d bytes", protocol.ErrBadFrame, len(buf))
	}
	return binary.LittleEndian.Uint16(buf), nil
}
