package protocol

// Packet framing constants.
//
// Command:  [COUNT][OPCODE][PARAM1][PARAM2_L][PARAM2_H][DATA...][CRC_L][CRC_H]
// Response: [COUNT][DATA...][CRC_L][CRC_H]
const (
	// CmdSizeMin is the size of a command without data:
	// COUNT(1) + OPCODE(1) + PARAM1(1) + PARAM2(2) + CRC(2)
	CmdSizeMin = 7

	// RspSizeMin is the size of a status-only response:
	// COUNT(1) + STATUS(1) + CRC(2)
	RspSizeMin = 4

	// PacketOverhead is the response framing overhead: COUNT(1) + CRC(2)
	PacketOverhead = 3

	// CRCSize is the size of the trailing CRC-16
	CRCSize = 2

	// CountIdx is the index of the count byte in a response
	CountIdx = 0

	// RspDataIdx is the index of the first data byte in a response
	RspDataIdx = 1

	// DefaultMaxPacketSize is the largest command the default transport
	// buffer can carry. It holds the largest Verify and SecureBoot commands.
	DefaultMaxPacketSize = 198

	// MaxResponseSize bounds a single response frame read by an executor
	MaxResponseSize = 4*36 + PacketOverhead
)

// Command opcodes.
const (
	// OpNonce creates a TempKey or loads a device buffer
	OpNonce = 0x16

	// OpRead reads words or blocks from a device zone
	OpRead = 0x02

	// OpVerify runs an ECDSA verify operation
	OpVerify = 0x45

	// OpSecureBoot validates a boot image digest and signature
	OpSecureBoot = 0x80
)

// Fixed field sizes in bytes.
const (
	// DigestSize is the size of a SecureBoot digest or Verify message
	DigestSize = 32

	// SignatureSize is the size of a P-256 signature (R || S)
	SignatureSize = 64

	// PublicKeySize is the size of a P-256 public key (X || Y)
	PublicKeySize = 64

	// MACSize is the size of a validating MAC
	MACSize = 32

	// KeySize is the size of a symmetric key such as the IO protection key
	KeySize = 32

	// OtherDataSize is the size of the Validate/Invalidate other data
	OtherDataSize = 19

	// RandomNumSize is the size of the random number returned by Nonce
	RandomNumSize = 32

	// NonceNumInSize is the host nonce size for the seed-update modes
	NonceNumInSize = 20

	// NonceNumInPassthroughSize is the host nonce size in pass-through mode
	NonceNumInPassthroughSize = 32

	// MsgDigBufSize is the size of the ATECC608 message digest buffer
	MsgDigBufSize = 64

	// WordSize is the size of one zone word
	WordSize = 4

	// BlockSize is the size of one zone block
	BlockSize = 32
)

// Status codes returned in a 4-byte status response.
const (
	// StatusSuccess indicates the command completed
	StatusSuccess = 0x00

	// StatusCheckMacVerifyFailed indicates a CheckMac or Verify miscompare
	StatusCheckMacVerifyFailed = 0x01

	// StatusParseError indicates an illegal parameter or length
	StatusParseError = 0x03

	// StatusECCFault indicates an ECC processing fault
	StatusECCFault = 0x05

	// StatusSelfTestError indicates the chip is in failure mode
	StatusSelfTestError = 0x07

	// StatusHealthTestError indicates a random number generator health test failure
	StatusHealthTestError = 0x08

	// StatusExecutionError indicates the command could not be executed
	StatusExecutionError = 0x0F

	// StatusAfterWake is returned after a successful wake
	StatusAfterWake = 0x11

	// StatusWatchdogAboutToExpire indicates insufficient time to execute
	StatusWatchdogAboutToExpire = 0xEE

	// StatusCRCError indicates a CRC or other communication error
	StatusCRCError = 0xFF
)

// Nonce command modes and flags.
const (
	NonceModeMask         = 0x03
	NonceModeSeedUpdate   = 0x00
	NonceModeNoSeedUpdate = 0x01
	NonceModeInvalid      = 0x02
	NonceModePassthrough  = 0x03

	NonceModeInputLenMask = 0x20
	NonceModeInputLen32   = 0x00
	NonceModeInputLen64   = 0x20

	NonceModeTargetMask      = 0xC0
	NonceModeTargetTempKey   = 0x00
	NonceModeTargetMsgDigBuf = 0x40
	NonceModeTargetAltKeyBuf = 0x80
)

// Verify command modes and flags.
const (
	VerifyModeMask             = 0x07
	VerifyModeStored           = 0x00
	VerifyModeValidateExternal = 0x01
	VerifyModeExternal         = 0x02
	VerifyModeValidate         = 0x03
	VerifyModeInvalidate       = 0x07

	VerifyModeSourceMask      = 0x20
	VerifyModeSourceTempKey   = 0x00
	VerifyModeSourceMsgDigBuf = 0x20

	VerifyModeMACFlag = 0x80

	// VerifyKeyP256 selects the P-256 curve in External mode
	VerifyKeyP256 = 0x0004
)

// SecureBoot command modes and flags.
const (
	SecureBootModeMask      = 0x07
	SecureBootModeFull      = 0x05
	SecureBootModeFullStore = 0x06
	SecureBootModeFullCopy  = 0x07

	SecureBootModeProhibitFlag = 0x40
	SecureBootModeEncMACFlag   = 0x80
)

// SecureBootConfig field of the configuration zone.
const (
	// SecureBootConfigOffset is the byte offset of SecureBootConfig
	SecureBootConfigOffset = 70

	// SecureBootConfigSize is the size of SecureBootConfig
	SecureBootConfigSize = 2

	SecureBootConfigModeMask     = 0x0003
	SecureBootConfigModeDisabled = 0x0000
	SecureBootConfigModeFullBoth = 0x0001
	SecureBootConfigModeFullSig  = 0x0002
	SecureBootConfigModeFullDig  = 0x0003
)

// Read command flags.
const (
	// ZoneReadWrite32 selects a 32-byte block access instead of a 4-byte word
	ZoneReadWrite32 = 0x80

	// ConfigZoneSize is the size of the configuration zone
	ConfigZoneSize = 128
)
