// patterns.go - Identifier and date patterns shared by the classifier and extractors

package document

import "regexp"

// Structural patterns are case-sensitive: letter and digit shapes are part of the format.
var (
	// PANPattern matches a permanent account number: 5 letters, 4 digits, 1 letter.
	PANPattern = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)

	// AadhaarPattern matches a grouped 12-digit national ID (3 groups of 4 digits).
	// The separators are ASCII whitespace only; U+00A0 and \v do not match.
	AadhaarPattern = regexp.MustCompile(`\d{4}\s\d{4}\s\d{4}`)

	// PassportPattern matches one letter followed by 7 digits.
	PassportPattern = regexp.MustCompile(`[A-Z][0-9]{7}`)

	// DatePattern matches DD/MM/YYYY or DD-MM-YYYY (separators may be mixed).
	DatePattern = regexp.MustCompile(`\d{2}[/-]\d{2}[/-]\d{4}`)

	// YearOfBirthPattern captures the year printed after a "Year of Birth" label.
	YearOfBirthPattern = regexp.MustCompile(`(?i)Year of Birth\s*:\s*(\d{4})`)

	// GenericIDPattern matches a 6-12 character uppercase alphanumeric token.
	GenericIDPattern = regexp.MustCompile(`\b[A-Z0-9]{6,12}\b`)
)

// firstMatch returns the leftmost match of re in text, or the absent marker.
func firstMatch(re *regexp.Regexp, text string) FieldValue {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return Absent()
	}
	return Found(text[loc[0]:loc[1]])
}

// firstSubmatch returns capture group n of the leftmost match.
func firstSubmatch(re *regexp.Regexp, text string, n int) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil || n >= len(m) {
		return "", false
	}
	return m[n], true
}
