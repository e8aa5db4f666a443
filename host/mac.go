package host

import "crypto/subtle"

// CompareMAC reports whether two MACs are equal. The comparison time
// does not depend on the contents. MACs of different length never match.
func CompareMAC(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
