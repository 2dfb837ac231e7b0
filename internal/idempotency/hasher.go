package idempotency

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	AlgorithmMD5    = "md5"
	AlgorithmSHA256 = "sha256"
)

// Hasher turns a request fingerprint into a fixed-size key.
type Hasher struct {
	algorithm string
}

func NewHasher(algorithm string) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// ComputeHash hashes the values of fields, in the order given. Missing fields
// hash as empty strings.
func (h *Hasher) ComputeHash(values map[string]interface{}, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("no fields specified for hashing")
	}

	var builder strings.Builder
	for _, field := range fields {
		val, exists := values[field]
		if !exists || val == nil {
			val = ""
		}
		builder.WriteString(field)
		builder.WriteByte('=')
		builder.WriteString(fmt.Sprintf("%v|", val))
	}
	input := []byte(builder.String())

	switch h.algorithm {
	case AlgorithmSHA256:
		sum := sha256.Sum256(input)
		return hex.EncodeToString(sum[:]), nil
	default:
		sum := md5.Sum(input)
		return hex.EncodeToString(sum[:]), nil
	}
}
