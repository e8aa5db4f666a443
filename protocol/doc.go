// Package protocol implements the command framing of the CryptoAuthentication
// secure element family (ATECC508A, ATECC608A/B).
//
// This package builds command packets, computes the CRC-16 that frames them,
// and validates response frames. It performs no I/O.
//
// # Protocol Overview
//
// Commands and responses are framed by a leading count byte and a trailing
// CRC-16 (little-endian):
//
//	Command:  [COUNT][OPCODE][PARAM1][PARAM2_L][PARAM2_H][DATA...][CRC_L][CRC_H]
//	Response: [COUNT][DATA...][CRC_L][CRC_H]
//
// A 4-byte response carries a single status byte. Longer responses carry
// command output such as a random number or a validating MAC.
//
// # Command Builders
//
// The New*Cmd functions validate inputs for the requested mode and return a
// Packet:
//
//	pkt, err := protocol.NewVerifyCmd(protocol.VerifyModeExternal, protocol.VerifyKeyP256, sig, pub, nil)
//	pkt, err := protocol.NewSecureBootCmd(protocol.SecureBootModeFull, 0, digest, sig)
//	frame := pkt.Encode()
//
// Use CheckCapacity before handing a packet to a transport so that a payload
// larger than the configured packet size is rejected instead of truncated.
//
// # Response Parsers
//
//	data, err := protocol.ParseResponse(frame)
//	if errors.Is(err, protocol.ErrVerifyMismatch) {
//	    // the device ran the command and reported a miscompare
//	}
//
// # Error Handling
//
// Device status bytes are reported as *StatusError. StatusError matches
// ErrVerifyMismatch for a miscompare and ErrExecutionFailure for every other
// status, so callers classify failures with errors.Is.
package protocol
