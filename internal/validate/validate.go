// Package validate holds the single email validation routine used by the
// landing capture, the email API and the subscription service.
package validate

import (
	"github.com/go-playground/validator/v10"

	"repowatch/internal/apperrors"
)

var v = validator.New()

// Email checks that s is a syntactically valid, non-empty email address.
func Email(s string) error {
	if err := v.Var(s, "required,email"); err != nil {
		return apperrors.Validationf("invalid email address: %q", s)
	}
	return nil
}
