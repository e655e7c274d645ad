package authflow

import "fmt"

// minPasswordLength mirrors the managed backend's default minimum.
const minPasswordLength = 6

// ValidatePasswordStrength checks a candidate password locally so obviously
// weak ones are rejected without a network round trip. The backend still has
// the final say and may apply stricter rules.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	return nil
}
