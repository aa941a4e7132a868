package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/menusense/optimizer/pkg/errors"
)

// Validator checks decoded request commands
type Validator struct {
	validate *validator.Validate
}

// NewValidator reports fields by their JSON names
func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

// Struct validates v and converts failures into a validation AppError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewBadRequestError("Invalid request").WithCause(err)
	}

	errs := make([]apperrors.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, apperrors.ValidationError{
			Field:   e.Field(),
			Value:   e.Value(),
			Tag:     e.Tag(),
			Message: validationMessage(e),
		})
	}
	return apperrors.NewValidationErrors(errs)
}

func validationMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
