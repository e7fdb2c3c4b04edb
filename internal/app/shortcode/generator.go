package shortcode

import "math/rand/v2"

// DefaultLength is the length of codes issued when the caller does not pick one.
const DefaultLength = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random alphanumeric string of exactly length characters.
// A non-positive length yields the empty string.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	code := make([]byte, length)
	for i := range code {
		code[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(code)
}

// GenerateDefault returns a code of DefaultLength characters.
func GenerateDefault() string {
	return Generate(DefaultLength)
}

// IsAlphanumeric reports whether s consists only of characters Generate can emit.
func IsAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
