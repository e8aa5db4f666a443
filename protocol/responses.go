package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseResponse validates a response frame and returns its data.
//
// Response frame structure:
//
//	[COUNT][DATA...][CRC_L][CRC_H]
//
// Bytes past COUNT are ignored. A 4-byte frame carries a status byte;
// any status other than StatusSuccess is returned as a *StatusError.
func ParseResponse(frame []byte) ([]byte, error) {
	if len(frame) < RspSizeMin {
		return nil, fmt.Errorf("%w: frame too short: got %d bytes, minimum is %d",
			ErrBadFrame, len(frame), RspSizeMin)
	}

	count := int(frame[CountIdx])
	if count < RspSizeMin || count > len(frame) {
		return nil, fmt.Errorf("%w: count %d does not fit frame of %d bytes",
			ErrBadFrame, count, len(frame))
	}
	frame = frame[:count]

	crcExpected := binary.LittleEndian.Uint16(frame[count-CRCSize:])
	crcActual := CRC16(frame[:count-CRCSize])
	if crcExpected != crcActual {
		return nil, fmt.Errorf("%w: got 0x%04X, expected 0x%04X", ErrBadCRC, crcActual, crcExpected)
	}

	data := frame[RspDataIdx : count-CRCSize]
	if count == RspSizeMin && data[0] != StatusSuccess {
		return nil, &StatusError{StatusCode: data[0]}
	}

	return data, nil
}

// ParseDataResponse returns exactly n result bytes copied out of the
// response data. It fails when the response declares fewer.
func ParseDataResponse(data []byte, n int) ([]byte, error) {
	if len(data) < n {
		return nil, fmt.Errorf("%w: expected %d data bytes, response carries %d",
			ErrBadFrame, n, len(data))
	}
	out := make([]byte, n)
	copy(out, data[:n])
	return out, nil
}

// ParseMACResponse returns the validating MAC carried by a SecureBoot or
// Verify response, or nil when the response is status-only.
func ParseMACResponse(data []byte) []byte {
	if len(data) < MACSize {
		return nil
	}
	mac := make([]byte, MACSize)
	copy(mac, data[:MACSize])
	return mac
}

// EncodeResponse frames response data the way the device does.
func EncodeResponse(data []byte) []byte {
	count := PacketOverhead + len(data)
	frame := make([]byte, 0, count)
	frame = append(frame, byte(count))
	frame = append(frame, data...)
	return binary.LittleEndian.AppendUint16(frame, CRC16(frame))
}

// EncodeStatus frames a 4-byte status response.
func EncodeStatus(code byte) []byte {
	return EncodeResponse([]byte{code})
}

// DecodeCommand parses a framed command back into a Packet. It is the
// device-side counterpart of Packet.Encode.
func DecodeCommand(frame []byte) (*Packet, error) {
	if len(frame) < CmdSizeMin {
		return nil, fmt.Errorf("%w: command too short: got %d bytes, minimum is %d",
			ErrBadFrame, len(frame), CmdSizeMin)
	}

	count := int(frame[CountIdx])
	if count != len(frame) {
		return nil, fmt.Errorf("%w: count %d does not match frame length %d",
			ErrBadFrame, count, len(frame))
	}

	crcExpected := binary.LittleEndian.Uint16(frame[count-CRCSize:])
	if CRC16(frame[:count-CRCSize]) != crcExpected {
		return nil, ErrBadCRC
	}

	return &Packet{
		Opcode: frame[1],
		Param1: frame[2],
		Param2: binary.LittleEndian.Uint16(frame[3:5]),
		Data:   append([]byte(nil), frame[5:count-CRCSize]...),
	}, nil
}
