package encoding

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const crockfordBase32Alphabet = "0123456789abcdefghjkmnpqrstvwxyz" // Crockford's Base32 alphabet, lowercase

// EncodeCrockfordB32LC encodes a byte slice using Crockford's Base32 alphabet and returns
// the result in lowercase. The alphabet leaves out easily confused characters, which keeps
// request IDs and session tokens safe to copy by hand.
func EncodeCrockfordB32LC(input []byte) string {
	var (
		result strings.Builder
		bits   = 0
		accum  = 0
	)

	result.Grow((len(input)*8 + 4) / 5)

	for _, b := range input {
		accum = (accum<<8 | int(b)) & 0xFFFF
		bits += 8

		for bits >= 5 {
			bits -= 5
			result.WriteByte(crockfordBase32Alphabet[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		result.WriteByte(crockfordBase32Alphabet[(accum<<(5-bits))&0x1F])
	}

	return result.String()
}

// RandomCrockfordB32LC reads size bytes from crypto/rand and returns them
// encoded with EncodeCrockfordB32LC.
func RandomCrockfordB32LC(size int) (string, error) {
	buf := make([]byte, size)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return EncodeCrockfordB32LC(buf), nil
}
