// Package emulator models an ATECC508A/608 secure element at the command
// level. A Device accepts framed commands and returns framed responses,
// so it can stand in for a real transport behind cryptoauth.Executor.
//
// Supported commands are Nonce, Read (configuration zone), Verify and
// SecureBoot, including the MAC and encrypted-digest variants. The model
// is meant for tests, examples and the simulator CLI; it does not model
// wake/sleep timing, slot locking or the full key configuration.
//
// Validate and Invalidate use a simplified authorisation rule: the
// signature must cover SHA256(TempKey || other data) under the authority
// key registered for the slot with WithSlotAuthority.
package emulator
