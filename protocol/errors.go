package protocol

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every command. Use errors.Is to classify.
var (
	// ErrBadParameter indicates a missing or inconsistent input for the mode
	ErrBadParameter = errors.New("bad parameter")

	// ErrInvalidSize indicates the payload exceeds the configured packet capacity
	ErrInvalidSize = errors.New("invalid size")

	// ErrAllocFailure indicates a scratch packet could not be acquired
	ErrAllocFailure = errors.New("packet allocation failed")

	// ErrExecutionFailure indicates a transport or device execution fault
	ErrExecutionFailure = errors.New("execution failure")

	// ErrVerifyMismatch indicates the device reported a CheckMac/Verify miscompare
	ErrVerifyMismatch = errors.New("verify miscompare")

	// ErrBadCRC indicates a response frame failed its CRC check
	ErrBadCRC = errors.New("response CRC mismatch")

	// ErrBadFrame indicates a malformed command or response frame
	ErrBadFrame = errors.New("malformed frame")
)

// StatusError represents a non-success status returned by the device.
type StatusError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the status byte from the response
	StatusCode byte
}

func (e *StatusError) Error() string {
	statusName := getStatusName(e.StatusCode)
	if e.Operation == "" {
		return fmt.Sprintf("device status: %s (0x%02X)", statusName, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, statusName, e.StatusCode)
}

// Is maps a miscompare to ErrVerifyMismatch and every other device
// status to ErrExecutionFailure.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrVerifyMismatch:
		return e.StatusCode == StatusCheckMacVerifyFailed
	case ErrExecutionFailure:
		return e.StatusCode != StatusCheckMacVerifyFailed
	}
	return false
}

// IsStatusError returns true if the error is or wraps a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// getStatusName returns a human-readable name for a status code.
func getStatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case StatusCheckMacVerifyFailed:
		return "checkmac or verify miscompare"
	case StatusParseError:
		return "parse error"
	case StatusECCFault:
		return "ECC fault"
	case StatusSelfTestError:
		return "self test error"
	case StatusHealthTestError:
		return "random number health test error"
	case StatusExecutionError:
		return "execution error"
	case StatusAfterWake:
		return "after wake"
	case StatusWatchdogAboutToExpire:
		return "watchdog about to expire"
	case StatusCRCError:
		return "CRC or communication error"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
