package services

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordTooShort = errors.New("Password minimal 8 karakter")
	ErrPasswordNoLetter = errors.New("Password harus mengandung huruf")
	ErrPasswordNoNumber = errors.New("Password harus mengandung angka")
	ErrPasswordCommon   = errors.New("Password terlalu umum")
)

// PasswordValidator validates passwords against the account policy
type PasswordValidator struct {
	minLength       int
	requireLetter   bool
	requireNumber   bool
	commonPasswords map[string]bool
}

// NewPasswordValidator creates a validator: at least 8 characters with a
// letter and a digit.
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		minLength:     8,
		requireLetter: true,
		requireNumber: true,
		commonPasswords: map[string]bool{
			"password1": true,
			"12345678a": true,
			"qwerty123": true,
			"admin1234": true,
			"welcome1":  true,
		},
	}
}

// ValidatePassword checks if a password meets the policy
func (pv *PasswordValidator) ValidatePassword(password string) error {
	if len([]rune(password)) < pv.minLength {
		return ErrPasswordTooShort
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if pv.requireLetter && !hasLetter {
		return ErrPasswordNoLetter
	}
	if pv.requireNumber && !hasNumber {
		return ErrPasswordNoNumber
	}
	if pv.commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}
