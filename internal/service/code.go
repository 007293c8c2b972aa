package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Character pools for verification codes. Ambiguous characters (0, 1, o, l)
// are left out so codes survive being read aloud or retyped.
const (
	codeDigits   = "23456789"
	codeLetters  = "abcdefghijkmnpqrst"
	codeSpecials = "#!&@"
)

// GenerateCode produces a random verification code of the given length with at
// least one digit, one letter and one special character. Every call returns a
// fresh, independent code.
func GenerateCode(length int) string {
	if length < 3 {
		length = 3
	}

	chars := make([]string, 0, length)
	chars = append(chars,
		randomFrom(codeDigits),
		randomFrom(codeLetters),
		randomFrom(codeSpecials),
	)

	all := codeDigits + codeLetters + codeSpecials
	for len(chars) < length {
		chars = append(chars, randomFrom(all))
	}

	shuffle(chars)
	return strings.Join(chars, "")
}

// GenerateCodeForEmail produces a code from digits and letters only, safe to
// embed in email bodies and copy by hand.
func GenerateCodeForEmail(length int) string {
	if length < 2 {
		length = 2
	}

	chars := make([]string, 0, length)
	chars = append(chars,
		randomFrom(codeDigits),
		randomFrom(codeLetters),
	)

	all := codeDigits + codeLetters
	for len(chars) < length {
		chars = append(chars, randomFrom(all))
	}

	shuffle(chars)
	return strings.Join(chars, "")
}

func randomFrom(pool string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic(err)
	}
	return string(pool[n.Int64()])
}

func shuffle(chars []string) {
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			panic(err)
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}
}
