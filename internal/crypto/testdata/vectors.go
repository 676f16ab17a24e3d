package testdata

// TestVector contains known derivation outputs for a password and cycle count.
type TestVector struct {
	Name      string
	Password  string
	Cycles    [3]uint32 // key, salt, iv
	IV        string    // Base64
	Digest    string    // Hex
	KeyPrefix string    // first 40 base64 characters of the key field
}

// Vectors were produced with an independent PBKDF2-HMAC-SHA256 implementation.
var Vectors = []TestVector{
	{
		Name:      "numeric password",
		Password:  "123456",
		Cycles:    [3]uint32{100, 200, 300},
		IV:        "gIHP/KRuH88FaJGtUfFQ/w==",
		Digest:    "a0137e78662200fb5cb329c569db8ac7bbbd1dc1ffa68cbfd226290d02dad97a",
		KeyPrefix: "1OwMBOFf/+KnqihBCv+TjZrmDRxf8k1hxHAC9E/3",
	},
	{
		Name:      "passphrase with spaces",
		Password:  "I <3 Nickelback",
		Cycles:    [3]uint32{100, 200, 300},
		IV:        "aGfWKLIusYJPeYbCTLDN6g==",
		Digest:    "c841043e45947f9bc74f97e56c62584dd8ee70732af197e5d96be7a952a889cd",
		KeyPrefix: "W5ep5lFIaEG9jHXvl2iyIwbIUvF6Saa1oXcQzvcA",
	},
}
