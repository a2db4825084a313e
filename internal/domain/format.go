package domain

import (
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
var accountNumberPattern = regexp.MustCompile(`^[0-9]{8}$`)
var sortCodePattern = regexp.MustCompile(`^[0-9]{2}-[0-9]{2}-[0-9]{2}$`)
var payeeNamePattern = regexp.MustCompile(`^[A-Z]+ [A-Z] [A-Z]+$`)
var fullNamePattern = regexp.MustCompile(`^([A-Z][a-z]+ ){2,}$`)
var honorificPattern = regexp.MustCompile(`^[a-zA-Z ]{2,10}$`)

const passwordSymbols = `!@#$%^&*()-_=+{};:',.<>?/`

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidPassword requires at least 8 characters with at least one digit, one
// uppercase letter and one symbol from a fixed punctuation set. Checked on
// bytes so the secret never has to be copied into an immutable string.
func ValidPassword(password []byte) bool {
	if len(password) < 8 {
		return false
	}
	var digit, upper, symbol bool
	for _, b := range password {
		switch {
		case b >= '0' && b <= '9':
			digit = true
		case b >= 'A' && b <= 'Z':
			upper = true
		case strings.IndexByte(passwordSymbols, b) >= 0:
			symbol = true
		}
	}
	return digit && upper && symbol
}

func ValidAccountNumber(number string) bool {
	return accountNumberPattern.MatchString(number)
}

func ValidSortCode(sortCode string) bool {
	return sortCodePattern.MatchString(sortCode)
}

// ValidPayeeName matches the `TITLE INITIAL LAST` display form, all tokens
// uppercase and separated by single spaces.
func ValidPayeeName(name string) bool {
	return payeeNamePattern.MatchString(name)
}

// ValidFullName requires at least two capitalized words.
func ValidFullName(name string) bool {
	return fullNamePattern.MatchString(name + " ")
}

func ValidHonorific(title string) bool {
	return honorificPattern.MatchString(title)
}
