package util

import (
	"math/rand/v2"
	"strings"
)

// Alphabet is the 62-character set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength is the short code length used when none is configured.
const DefaultCodeLength = 6

// GenerateShortCode returns length characters picked independently and
// uniformly from Alphabet. It does not check for uniqueness.
func GenerateShortCode(length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}

// NormalizeURL prepends https:// when raw has neither an http:// nor an
// https:// prefix. The prefix check ignores case; a matched prefix is
// rewritten in lower case so the result always starts with http:// or https://.
func NormalizeURL(raw string) string {
	for _, scheme := range []string{"http://", "https://"} {
		if hasPrefixFold(raw, scheme) {
			return scheme + raw[len(scheme):]
		}
	}
	return "https://" + raw
}

// IsValidShortCode reports whether code is non-empty and only uses Alphabet.
func IsValidShortCode(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
