package library

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError is a named form-validation failure. Name is the
// machine key the screens switch on; Message is what gets shown.
type ValidationError struct {
	Name    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return e.Name
}

const passwordSymbols = "@$!%*?&"

// ValidatePassword checks password strength: at least 8 characters
// with one lowercase letter, one uppercase letter, one digit, and one
// symbol from the allowed set, using no characters outside that set.
func ValidatePassword(password string) error {
	invalid := &ValidationError{
		Name:    "invalidPassword",
		Message: "Password must be at least 8 characters with upper, lower, digit and one of " + passwordSymbols,
	}
	if len(password) < 8 {
		return invalid
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return invalid
		}
	}
	if !lower || !upper || !digit || !symbol {
		return invalid
	}
	return nil
}

// ValidateExpiry checks a card expiry at month granularity: the given
// year/month must not be strictly before now's calendar month. Any day
// within the current month still passes.
func ValidateExpiry(year int, month time.Month, now time.Time) error {
	if year > now.Year() {
		return nil
	}
	if year == now.Year() && month >= now.Month() {
		return nil
	}
	return &ValidationError{
		Name:    "expiryDateInvalid",
		Message: "Expiry date must be in the future",
	}
}

var (
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	cardHolderPattern = regexp.MustCompile(`^[a-zA-Z\s]*$`)
	cardNumberPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{4}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3}$`)
	isbnPattern       = regexp.MustCompile(`^[0-9]{10}$`)
)

// ValidateUsername requires an alphanumeric name of at least 6 characters.
func ValidateUsername(name string) error {
	if len(name) < 6 || !usernamePattern.MatchString(name) {
		return &ValidationError{Name: "invalidUsername", Message: "User name must be at least 6 alphanumeric characters"}
	}
	return nil
}

// ValidateCardHolder allows letters and spaces only.
func ValidateCardHolder(name string) error {
	if strings.TrimSpace(name) == "" || !cardHolderPattern.MatchString(name) {
		return &ValidationError{Name: "invalidCardHolder", Message: "Card holder name may contain only letters and spaces"}
	}
	return nil
}

// ValidateCardNumber requires the dddd-dddd-dddd-dddd format.
func ValidateCardNumber(number string) error {
	if !cardNumberPattern.MatchString(number) {
		return &ValidationError{Name: "invalidCardNumber", Message: "Card number must match dddd-dddd-dddd-dddd"}
	}
	return nil
}

// ValidateCVV requires exactly three digits.
func ValidateCVV(cvv string) error {
	if !cvvPattern.MatchString(cvv) {
		return &ValidationError{Name: "invalidCVV", Message: "CVV must be exactly 3 digits"}
	}
	return nil
}

// ValidateISBN requires exactly ten digits.
func ValidateISBN(isbn string) error {
	if !isbnPattern.MatchString(isbn) {
		return &ValidationError{Name: "invalidISBN", Message: "ISBN must be exactly 10 digits"}
	}
	return nil
}
