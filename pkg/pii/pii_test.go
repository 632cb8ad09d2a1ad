package pii

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"account number keyword", "my account number is 12345678 what's my balance", true},
		{"plain digit run", "it is 12345678 ok", true},
		{"digit run with spaces", "code 1234 5678 9012", true},
		{"card number", "pay with 1234-5678-9012-3456", true},
		{"pan id", "my id is ABCDE1234F", true},
		{"upi handle", "send it to ravi.kumar@okaxis please", true},
		{"otp keyword", "the otp never arrived", true},
		{"otp code", "OTP: 482913", true},
		{"cvv keyword", "do you need my cvv", true},
		{"clean knowledge query", "how do I open a fixed deposit", false},
		{"clean feature query", "I cannot check my balance today", false},
		{"year is not pii", "The year is 2025", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestMatchReturnsRuleName(t *testing.T) {
	assert.Equal(t, "keyword_hint", Match("what is my account number"))
	assert.Equal(t, "digit_run", Match("here: 987654321"))
	assert.Equal(t, "pan_id", Match("id ABCDE1234F"))
	assert.Equal(t, "upi_handle", Match("pay someone@okicici"))
	assert.Equal(t, "", Match("how do I reset my router"))
}

var accountNumberRe = regexp.MustCompile(`\b\d{10,12}\b`)

func TestMask(t *testing.T) {
	t.Run("masks account number keeping tail", func(t *testing.T) {
		masked := Mask("Customer account number is 123456789012")
		assert.Contains(t, masked, "XXXXXX")
		assert.False(t, accountNumberRe.MatchString(masked))
	})

	t.Run("does not change unrelated text", func(t *testing.T) {
		text := "Hello, your appointment is confirmed."
		assert.Equal(t, text, Mask(text))
	})

	t.Run("does not mask years", func(t *testing.T) {
		text := "The year is 2025"
		assert.Equal(t, text, Mask(text))
	})

	t.Run("redacts spaced card numbers", func(t *testing.T) {
		masked := Mask("card 1234 5678 9012 3456 here")
		assert.NotContains(t, masked, "3456")
		assert.Contains(t, masked, "[redacted-number]")
	})

	t.Run("redacts pan and upi", func(t *testing.T) {
		masked := Mask("pan ABCDE1234F upi ravi@okaxis")
		assert.NotContains(t, masked, "ABCDE1234F")
		assert.NotContains(t, masked, "ravi@okaxis")
	})
}

// Simulates scanning model output for unmasked account numbers, the property
// the gateway's pre-transmission masking protects.
func TestMaskedOutputHasNoAccountNumbers(t *testing.T) {
	out := Mask("The account 123456789012 is blocked.")
	assert.False(t, accountNumberRe.MatchString(out), "unmasked account number should not survive masking")
}
