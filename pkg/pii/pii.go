// Package pii detects and masks account-identifying data in free text.
//
// Detection is deliberately safety-biased: the rules flag anything shaped like
// an account number, card number, OTP, government ID or UPI handle, and false
// positives on ordinary long numbers are accepted. Detection gates the whole
// pipeline, masking is the defense-in-depth layer applied to anything that
// leaves the process.
package pii

import "regexp"

// rule pairs a compiled pattern with a stable name used in audit output.
type rule struct {
	name string
	re   *regexp.Regexp
}

var detectRules = []rule{
	// Keyword hints the way customers actually type them.
	{"keyword_hint", regexp.MustCompile(`(?i)(account\s*number|card\s*number|cvv|\botp\b|\bpan\b|ifsc|\bupi\b|aadhaar|aadhar|mobile\s*number)`)},
	// 8+ consecutive digits, spaces and dashes tolerated.
	{"digit_run", regexp.MustCompile(`(?:\d[\s-]?){8,}`)},
	// 16-digit card shapes in 4-4-4-4 groups.
	{"card_number", regexp.MustCompile(`\b(?:\d{4}[\s-]?){3}\d{4}\b`)},
	// Indian PAN: five letters, four digits, one letter.
	{"pan_id", regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`)},
	// Aadhaar: three groups of four digits.
	{"aadhaar_id", regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`)},
	// UPI handles, e.g. name.surname@okbank. Also matches emails; acceptable.
	{"upi_handle", regexp.MustCompile(`\b[a-zA-Z0-9._-]{2,}@[a-zA-Z]{2,}\b`)},
	// OTP-shaped codes next to an OTP label.
	{"otp_code", regexp.MustCompile(`(?i)\botp\b[\s:,-]{0,4}\d{4,8}\b`)},
}

// Detect reports whether text contains anything matching the PII rule set.
func Detect(text string) bool {
	return Match(text) != ""
}

// Match returns the name of the first matching rule, or "" when text is clean.
// The rule name feeds audit events so deflections can be explained later.
func Match(text string) string {
	if text == "" {
		return ""
	}
	for _, r := range detectRules {
		if r.re.MatchString(text) {
			return r.name
		}
	}
	return ""
}

var (
	// 10-12 digit account numbers keep their last digits: 123456789012 -> XXXXXX789012.
	accountRe = regexp.MustCompile(`\b\d{6}(\d{4,6})\b`)
	// Long separator-broken digit runs (card numbers typed with spaces/dashes).
	spacedRunRe = regexp.MustCompile(`\b(?:\d[ -]?){12,}\d\b`)
	panRe       = regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`)
	upiRe       = regexp.MustCompile(`\b[a-zA-Z0-9._-]{2,}@[a-zA-Z]{2,}\b`)
)

// Mask redacts sensitive substrings while keeping the text readable.
// Account-number-like runs keep a visible tail so support flows still work;
// everything else is replaced outright.
func Mask(text string) string {
	if text == "" {
		return text
	}
	out := accountRe.ReplaceAllString(text, "XXXXXX$1")
	out = spacedRunRe.ReplaceAllString(out, "[redacted-number]")
	out = panRe.ReplaceAllString(out, "[redacted-id]")
	out = upiRe.ReplaceAllString(out, "[redacted-upi]")
	return out
}
