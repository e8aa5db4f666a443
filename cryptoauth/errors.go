package cryptoauth

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// ErrUnsupported indicates the configured device variant lacks the
// feature an operation needs. It matches protocol.ErrBadParameter.
var ErrUnsupported = fmt.Errorf("%w: not supported by device variant", protocol.ErrBadParameter)

// UnsupportedError names the operation and variant behind ErrUnsupported.
type UnsupportedError struct {
	Operation string
	Variant   protocol.Variant
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: not supported on %s", e.Operation, e.Variant)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// verifyResult converts the outcome of a verifying device command into
// a verification flag. A device miscompare is a result, not an error.
func verifyResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, protocol.ErrVerifyMismatch) {
		return false, nil
	}
	return false, err
}
