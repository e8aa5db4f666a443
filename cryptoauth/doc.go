// Package cryptoauth runs the SecureBoot and Verify command families of
// ATECC508A/608 secure elements, with optional encrypted digests and
// validating MACs.
//
// # Overview
//
// The package builds and validates commands, drives the nonce handshake,
// encrypts digests and recomputes the MAC the device returns so that a
// tampered response is detected:
//   - SecureBoot and SecureBootMAC
//   - Verify and the VerifyExtern, VerifyStored, VerifyStoredWithTempKey,
//     VerifyValidate and VerifyInvalidate wrappers
//   - VerifyExternMAC and VerifyStoredMAC (ATECC608 only)
//   - Nonce, NonceLoad, GenerateNonce and ReadBytesZone
//
// # Basic Usage
//
// The caller provides the transport as an Executor:
//
//	client := cryptoauth.New(i2cExecutor, cryptoauth.WithVariant(protocol.ATECC608))
//
//	verified, err := client.SecureBootMAC(ctx, protocol.SecureBootModeFull,
//	    digest, signature, numIn, ioKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !verified {
//	    log.Fatal("boot image rejected")
//	}
//
// # Results and Errors
//
// Operations that verify something return (bool, error). A device
// miscompare is reported as (false, nil) because the command itself
// completed. Every other failure is returned as an error that can be
// classified with errors.Is against the protocol sentinels:
//
//	protocol.ErrBadParameter      missing or inconsistent input for the mode
//	protocol.ErrInvalidSize       command exceeds the configured packet size
//	protocol.ErrAllocFailure      scratch buffer unavailable
//	protocol.ErrExecutionFailure  transport fault or device error status
//
// Size and parameter errors are detected before the executor is called.
// Nothing is retried.
//
// # Transaction State
//
// Verify-with-MAC and SecureBootMAC move through Idle, MessageLoaded,
// CommandExecuted and Compared. Track it with WithStepCallback:
//
//	client := cryptoauth.New(exec,
//	    cryptoauth.WithStepCallback(func(s cryptoauth.Step) {
//	        fmt.Printf("%s: %s\n", s.Operation, s.State)
//	    }),
//	)
//
// # Thread Safety
//
// A Client performs one command at a time and is not safe for concurrent
// use. Callers sharing a device must serialise access.
package cryptoauth
