// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

// Reference numbers avoid characters that are easily misread (0/O, 1/I/L).
const referenceCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferenceNumber returns a human readable identifier such as "MI-7K2Q9XQP".
func GenerateReferenceNumber(prefix string) (string, error) {
	body, err := randomFromCharset(8, referenceCharset)
	if err != nil {
		return "", err
	}
	return prefix + "-" + body, nil
}

func randomFromCharset(length int, charset string) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}
