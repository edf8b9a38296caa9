// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("hhmm", validateTimeOfDay)
	validate.RegisterValidation("permit_type", validatePermitType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateVar checks a single value against a tag expression.
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

// IsTimeOfDay reports whether value is a 24h "HH:MM" string.
func IsTimeOfDay(value string) bool {
	return timeOfDayPattern.MatchString(value)
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	// empty handled by omitempty/required
	if value == "" {
		return true
	}
	return IsTimeOfDay(value)
}

func validatePermitType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "move_in", "move_out":
		return true
	default:
		return false
	}
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   FieldPath(e),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// FieldPath returns the json path of a failed field without the root struct name.
func FieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "hhmm":
		return e.Field() + " must be a time of day in HH:MM format"
	case "permit_type":
		return e.Field() + " must be move_in or move_out"
	case "url":
		return e.Field() + " must be a valid URL"
	default:
		return e.Field() + " is invalid"
	}
}
