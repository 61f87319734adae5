package session

import (
	"net/mail"
	"strings"

	"butler/cli/internal/apiclient"
)

const MinPasswordLength = 6

func validateSignIn(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return apiclient.ValidationError("please fill in all fields")
	}
	return validateEmail(email)
}

// ValidateSignUp runs the pre-flight checks of SignUp without any network call.
func ValidateSignUp(in SignUpInput) error {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return apiclient.ValidationError("please fill in all fields")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}
	if in.ConfirmPassword != in.Password {
		return apiclient.ValidationError("passwords do not match")
	}
	return nil
}

// validateNewPassword checks length, and the confirmation when one was given.
// Sign-up always requires the confirmation.
func validateNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return apiclient.ValidationError("password must be at least %d characters", MinPasswordLength)
	}
	if confirm != "" && confirm != password {
		return apiclient.ValidationError("passwords do not match")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return apiclient.ValidationError("invalid email address")
	}
	return nil
}
