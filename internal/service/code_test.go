package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	t.Run("respects requested length", func(t *testing.T) {
		for _, length := range []int{3, 6, 10, 20} {
			assert.Len(t, GenerateCode(length), length)
		}
	})

	t.Run("pads tiny lengths to hold all character classes", func(t *testing.T) {
		assert.Len(t, GenerateCode(1), 3)
	})

	t.Run("contains one of each class", func(t *testing.T) {
		code := GenerateCode(10)
		assert.True(t, strings.ContainsAny(code, codeDigits), "code %q has no digit", code)
		assert.True(t, strings.ContainsAny(code, codeLetters), "code %q has no letter", code)
		assert.True(t, strings.ContainsAny(code, codeSpecials), "code %q has no special", code)
	})

	t.Run("draws only from the restricted alphabet", func(t *testing.T) {
		alphabet := codeDigits + codeLetters + codeSpecials
		for i := 0; i < 50; i++ {
			for _, r := range GenerateCode(10) {
				assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
			}
		}
	})

	t.Run("fresh code per call", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			code := GenerateCode(10)
			require.False(t, seen[code], "code %q repeated", code)
			seen[code] = true
		}
	})
}

func TestGenerateCodeForEmail(t *testing.T) {
	t.Run("skips special characters", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code := GenerateCodeForEmail(10)
			require.Len(t, code, 10)
			assert.False(t, strings.ContainsAny(code, codeSpecials), "code %q has a special character", code)
		}
	})

	t.Run("avoids ambiguous characters", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code := GenerateCodeForEmail(10)
			assert.False(t, strings.ContainsAny(code, "01ol"), "code %q has an ambiguous character", code)
		}
	})
}
