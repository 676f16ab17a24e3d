package models

// DigestSize is the length of a key fingerprint in bytes.
const DigestSize = 32

// Digest is an HMAC-SHA256 key fingerprint. It identifies the key that produced a
// ciphertext; it does not authenticate the ciphertext itself.
type Digest [DigestSize]byte

// Bytes returns the digest as a slice.
func (d Digest) Bytes() []byte {
	return d[:]
}

// BytesMatch compares a and b by folding the XOR of their common prefix and then
// checking lengths. A length mismatch therefore always fails, but the prefix is
// still scanned.
func BytesMatch(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var diff byte
	for i := 0; i < n; i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0 && len(a) == len(b)
}
