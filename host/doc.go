// Package host mirrors on the host the cryptographic state the secure
// element keeps internally, so that the results of authenticated
// commands can be checked locally.
//
// # TempKey
//
// A Nonce command leaves a session secret (TempKey) inside the device.
// Nonce computes the same value on the host from the host number and the
// device random number. A TempKey feeds exactly one derivation: the
// functions that consume it wipe it and mark it invalid.
//
// # SecureBoot
//
// EncryptDigest derives a hashed key from the IO protection key and the
// TempKey and uses it to encrypt the boot digest. SecureBootMAC computes
// the MAC the device returns when the encrypted-digest flag is set.
//
//	hashed_key = SHA256(io_key || tempkey)
//	digest_enc = digest XOR hashed_key
//	mac        = SHA256(hashed_key || digest || [signature] || 0x80 || mode || param2)
//
// # Verify
//
// VerifyMAC computes the MAC returned by a Verify command issued with the
// MAC flag, for a message held in the message digest buffer.
//
//	mac = SHA256(io_key || message || nonce || signature || 0x45 || mode || key_id)
//
// MACs must be compared with CompareMAC, which runs in constant time.
package host
