package protocol

// CRC constants.
const (
	// CRC16Polynomial is the CRC-16 polynomial used on the command channel
	CRC16Polynomial = 0x8005

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// CRC16 computes the CRC-16 used to frame commands and responses.
//
// Parameters:
//   - Polynomial: CRC16Polynomial
//   - Initial value: 0x0000
//   - Input bits processed least-significant first
//   - No final XOR
//
// The result is sent little-endian after the covered bytes.
func CRC16(data []byte) uint16 {
	var crc uint16

	for _, b := range data {
		for shift := 0; shift < BitsPerByte; shift++ {
			dataBit := (b >> shift) & 0x01
			crcBit := byte(crc >> 15)
			crc <<= 1
			if dataBit != crcBit {
				crc ^= CRC16Polynomial
			}
		}
	}

	return crc
}
