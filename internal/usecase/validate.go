package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"edu-tutor/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and reports the first failure as a ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewError(domain.ErrValidation, "Invalid request")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s is required", field))
	case "email":
		return domain.NewError(domain.ErrValidation, "email is not a valid address")
	case "max":
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "min":
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	default:
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s is invalid", field))
	}
}
