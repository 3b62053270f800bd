package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ValidationError is a client-side rejection tied to one input field. It is
// raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Normalize trims the merchant payload.
func (in MerchantInput) Normalize() MerchantInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	return in
}

func (in MerchantInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("merchant_name", "Merchant name is required")
	}
	return nil
}

// Normalize trims names and upper-cases the currency code.
func (in AccountInput) Normalize() AccountInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	return in
}

func (in AccountInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("account_name", "Account name is required")
	}
	if !in.Type.Valid() {
		return invalid("account_type", fmt.Sprintf("unknown account type %q", in.Type))
	}
	if !validCurrency(in.Currency) {
		return invalid("currency", "Currency must be a 3-letter code")
	}
	if in.InitialBalance != nil && in.InitialBalance.IsNegative() {
		return invalid("initial_balance", "Initial balance cannot be negative")
	}
	return nil
}

func (in AccountUpdate) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("account_name", "Account name is required")
	}
	return nil
}

func validCurrency(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParseBalance reads an operator-entered balance; empty means zero.
func ParseBalance(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("initial_balance", "Initial balance must be a number")
	}
	return d, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the API emits.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders an API timestamp for display, falling back to the raw value.
func FormatTime(s, layout string) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Local().Format(layout)
}
